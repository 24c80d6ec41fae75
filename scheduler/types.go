package scheduler

import "github.com/outofforest/flashplan/blocks"

// fragment is a move restricted to a single source block and a single
// destination block, the unit the instruction generator lowers into one
// COPY (or CHAINED_COPY).
type fragment struct {
	srcBlock  blocks.Index
	srcOffset uint64
	length    uint64
	dstOffset uint64
}

// blockNode is a block touched by at least one move: a destination block,
// or a pure-source bookkeeping entry (see isDestination). Nodes are
// held in a flat arena keyed by block index rather than linked by pointers
// (see the design note on arena-based graphs): edges are expressed purely
// as index lookups into the arena, so a node can be deleted by removing it
// from the map without chasing down pointers into it.
type blockNode struct {
	index     blocks.Index
	fragments []fragment

	// isDestination is true once this node has been the destination of at
	// least one move fragment. A node may also exist purely because some
	// other node's move reads from it (a pure-source bookkeeping entry,
	// needed only to track out-edges for REBASE/USE_BLOCK purposes): such a
	// node must never be erased, written, or chosen as a cycle-breaking
	// pivot, since nothing in the move list ever supplies its replacement
	// content.
	isDestination bool

	// out is the set of blocks that still need to read this block's
	// current contents before it may be erased: an edge index -> {}
	// here means "index depends on this node". A node is ready to be
	// scheduled once this set is empty.
	out map[blocks.Index]struct{}

	// erased is true once this node's old contents have already been
	// consumed, either by a plain ERASE or by a LOAD_AND_FLUSH (whether
	// as a self-referencing write or as a cycle-breaking pivot). A
	// second erase must never be emitted for the same node.
	erased bool
}

// arena owns every live blockNode, indexed by block index.
type arena struct {
	nodes map[blocks.Index]*blockNode
	// order preserves the set of indices ever created, for deterministic
	// REBASE bounds and iteration independent of map order.
	order []blocks.Index
}

func newArena() *arena {
	return &arena{nodes: make(map[blocks.Index]*blockNode)}
}

func (a *arena) getOrCreate(index blocks.Index) *blockNode {
	n, ok := a.nodes[index]
	if !ok {
		n = &blockNode{index: index, out: make(map[blocks.Index]struct{})}
		a.nodes[index] = n
		a.order = append(a.order, index)
	}
	return n
}

func (a *arena) get(index blocks.Index) (*blockNode, bool) {
	n, ok := a.nodes[index]
	return n, ok
}

func (a *arena) delete(index blocks.Index) {
	delete(a.nodes, index)
}

func (a *arena) len() int {
	return len(a.nodes)
}
