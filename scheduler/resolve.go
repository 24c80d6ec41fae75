package scheduler

import (
	"sort"

	"github.com/outofforest/flashplan/blocks"
)

// stageKind records what must precede a node's copies when it is written.
type stageKind int

const (
	// stageErase means a plain ERASE must be emitted before this node's
	// copies: the node has no fragment reading its own old contents.
	stageErase stageKind = iota
	// stageSelfLoad means this node has at least one fragment reading
	// its own current contents, so a LOAD_AND_FLUSH of itself must be
	// emitted first, and those self-fragments must read from CACHE_BUF.
	stageSelfLoad
	// stageAlreadyStaged means this node was already erased by a
	// LOAD_AND_FLUSH as a cycle-breaking pivot; no erase-family
	// instruction is needed before its copies.
	stageAlreadyStaged
)

// opKind distinguishes the two kinds of step the resolver can emit.
type opKind int

const (
	opPivotStage opKind = iota
	opWriteNode
)

// op is one step of the resolved emission order. The instruction generator
// lowers a sequence of these into the concrete VM instruction stream.
type op struct {
	kind      opKind
	index     blocks.Index
	fragments []fragment
	stage     stageKind
}

// resolve repeatedly schedules every node with zero outgoing edges (no
// remaining dependents), and when that ready queue is empty but nodes
// remain, breaks the residual cycle by staging a pivot through the cache
// (§4.4) before resuming. This single loop implements both the
// unidirectional-chain resolver (§4.3) and the network/cycle resolver
// (§4.4): the latter is nothing but the former plus a pivot step whenever
// it stalls, so there is no need to detect strongly-connected components
// explicitly.
//
// Because the cache is a single block-sized buffer, staging a block (a
// pivot, or a node writing back its own old contents) is only safe once
// every fragment still waiting to read the *previous* staged block has
// been consumed. The loop below tracks that explicitly: it prioritizes
// draining pending cache readers over the normal lowest-index tie-break,
// and defers (rather than performs) any fresh staging while a previous
// one's readers are still outstanding. If every remaining ready node would
// require a fresh stage while the cache is still occupied — a tangle this
// heuristic does not attempt to resolve, see SPEC_FULL.md §4.4 and the
// REDESIGN FLAGS — resolve fails loudly with an InternalInvariantError
// rather than silently emitting a plan that would corrupt data.
func resolve(a *arena) ([]op, error) {
	ready := readyIndices(a)
	var ops []op
	pivotCount := 0

	var cacheOwner *blocks.Index
	cacheConsumers := make(map[blocks.Index]struct{})

	markConsumers := func() {
		cacheConsumers = make(map[blocks.Index]struct{})
		for idx, n := range a.nodes {
			for _, f := range n.fragments {
				if f.srcBlock == blocks.CacheBuf {
					cacheConsumers[idx] = struct{}{}
					break
				}
			}
		}
	}

	for a.len() > 0 {
		idx, found := pickNext(a, ready, cacheOwner, cacheConsumers)
		if !found {
			if len(ready) > 0 {
				return nil, newInternalInvariantError("resolve", -1,
					"cache buffer busy: every ready block still needs a fresh stage while a previous cache owner's dependents are unresolved")
			}
			if cacheOwner != nil {
				return nil, newInternalInvariantError("resolve", -1,
					"cache buffer busy: cannot pick a new pivot while a previous cache owner's dependents are unresolved")
			}

			pivotCount++
			if pivotCount > maxPivotIterations {
				return nil, newInternalInvariantError("resolve", -1, "exceeded maximum pivot iterations without draining the graph")
			}
			pivot, err := choosePivot(a)
			if err != nil {
				return nil, err
			}
			ops = append(ops, op{kind: opPivotStage, index: pivot.index})
			stagePivot(a, pivot)
			owner := pivot.index
			cacheOwner = &owner
			markConsumers()
			ready = append(ready, pivot.index)
			continue
		}

		ready = removeIndex(ready, idx)
		n, _ := a.get(idx)

		if !n.isDestination {
			// Pure-source bookkeeping node: nothing ever writes it, so
			// there is nothing to erase or stage. Once nobody depends on
			// it anymore it is simply dropped from the graph.
			newlyReady := detachNode(a, n)
			ready = append(ready, newlyReady...)
			continue
		}

		stage := stageAlreadyStaged
		if !n.erased {
			if hasSelfFragment(n) {
				redirectSrc(n, n)
				n.erased = true
				stage = stageSelfLoad
				owner := idx
				cacheOwner = &owner
				markConsumers()
			} else {
				stage = stageErase
			}
		}

		ops = append(ops, op{kind: opWriteNode, index: idx, fragments: n.fragments, stage: stage})

		delete(cacheConsumers, idx)
		if cacheOwner != nil && len(cacheConsumers) == 0 {
			cacheOwner = nil
		}

		newlyReady := detachNode(a, n)
		ready = append(ready, newlyReady...)
	}

	return ops, nil
}

// pickNext chooses the next node to process out of ready. If the cache
// currently has outstanding consumers, a node waiting to read it is chosen
// with priority (lowest index among them); otherwise the lowest-index ready
// node that would not require staging a new block while the cache is still
// occupied is chosen. Returns found=false if no such node exists right now.
func pickNext(a *arena, ready []blocks.Index, cacheOwner *blocks.Index, cacheConsumers map[blocks.Index]struct{}) (blocks.Index, bool) {
	var bestConsumer blocks.Index
	foundConsumer := false
	for _, idx := range ready {
		if _, ok := cacheConsumers[idx]; ok {
			if n, ok := a.get(idx); ok && !n.erased && hasSelfFragment(n) {
				// Staging its own old contents would overwrite the cached
				// data it still has to read.
				continue
			}
			if !foundConsumer || idx < bestConsumer {
				bestConsumer = idx
				foundConsumer = true
			}
		}
	}
	if foundConsumer {
		return bestConsumer, true
	}

	var best blocks.Index
	found := false
	for _, idx := range ready {
		n, ok := a.get(idx)
		if !ok {
			continue
		}
		needsFreshStage := !n.erased && hasSelfFragment(n)
		if needsFreshStage && cacheOwner != nil {
			continue
		}
		if !found || idx < best {
			best = idx
			found = true
		}
	}
	return best, found
}

func removeIndex(s []blocks.Index, idx blocks.Index) []blocks.Index {
	for i, v := range s {
		if v == idx {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}

func readyIndices(a *arena) []blocks.Index {
	var ready []blocks.Index
	for idx, n := range a.nodes {
		if len(n.out) == 0 {
			ready = append(ready, idx)
		}
	}
	sort.Slice(ready, func(i, j int) bool { return ready[i] < ready[j] })
	return ready
}

// detachNode removes n from the graph and returns the distinct source
// blocks whose outgoing edge count just dropped to zero as a result.
func detachNode(a *arena, n *blockNode) []blocks.Index {
	seen := make(map[blocks.Index]struct{})
	var newlyReady []blocks.Index

	for _, f := range n.fragments {
		if f.srcBlock == n.index || f.srcBlock == blocks.CacheBuf {
			continue
		}
		if _, done := seen[f.srcBlock]; done {
			continue
		}
		seen[f.srcBlock] = struct{}{}

		if src, ok := a.get(f.srcBlock); ok {
			delete(src.out, n.index)
			if len(src.out) == 0 {
				newlyReady = append(newlyReady, f.srcBlock)
			}
		}
	}

	a.delete(n.index)
	return newlyReady
}

func hasSelfFragment(n *blockNode) bool {
	for _, f := range n.fragments {
		if f.srcBlock == n.index {
			return true
		}
	}
	return false
}

func redirectSrc(n *blockNode, from *blockNode) {
	for i := range n.fragments {
		if n.fragments[i].srcBlock == from.index {
			n.fragments[i].srcBlock = blocks.CacheBuf
		}
	}
}

// choosePivot selects, among the nodes still stalled in a (none of them
// ready, since resolve only calls this when the ready queue is empty),
// the one with the fewest remaining outgoing edges, tie-broken by lowest
// block index. Fewest outgoing edges means staging it preserves the least
// amount of data other blocks still need, minimizing how much must live in
// the cache at once (the cache only ever holds one block's worth of data).
//
// Pure-source bookkeeping nodes (isDestination false) are never eligible:
// pivoting means LOAD_AND_FLUSH, which erases the block, and a
// non-destination block has no fragment that will ever write it back.
func choosePivot(a *arena) (*blockNode, error) {
	if a.len() == 0 {
		return nil, newInternalInvariantError("resolve", -1, "choosePivot called on empty graph")
	}

	var best *blockNode
	for _, idx := range a.order {
		n, ok := a.get(idx)
		if !ok || !n.isDestination {
			continue
		}
		if best == nil || len(n.out) < len(best.out) || (len(n.out) == len(best.out) && n.index < best.index) {
			best = n
		}
	}
	if best == nil {
		return nil, newInternalInvariantError("resolve", -1, "no destination node available to pivot: residual graph is pure-source bookkeeping only")
	}
	return best, nil
}

// stagePivot emits the bookkeeping side effect of a LOAD_AND_FLUSH(pivot):
// every fragment anywhere in the graph that read from pivot (its own
// self-fragments, and every dependent's fragments) is redirected to read
// from CACHE_BUF instead, and pivot's outstanding dependents are cleared,
// making it immediately ready.
func stagePivot(a *arena, pivot *blockNode) {
	redirectSrc(pivot, pivot)
	for dep := range pivot.out {
		if depNode, ok := a.get(dep); ok {
			redirectSrc(depNode, pivot)
		}
	}
	pivot.out = make(map[blocks.Index]struct{})
	pivot.erased = true
}
