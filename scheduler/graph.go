package scheduler

import (
	"github.com/outofforest/flashplan/blocks"
	"github.com/outofforest/flashplan/move"
)

// buildGraph splits every move into fragments with exactly one source block
// and one destination block (a fragment's operand format in the target VM
// can only name one of each), groups fragments by destination block, and
// records a dependency edge src -> dst whenever a fragment's source block
// differs from its destination block.
//
// An edge is stored as dst appearing in src's out-set: "dst still needs to
// read src". This is the single graph every later pass mutates in place.
//
// A source block that is never itself a move destination still gets an
// arena entry (getOrCreate below), but only to hold its out-set; it is
// marked isDestination=false and resolve skips straight over it once
// nothing depends on it anymore, since there is no fragment to erase or
// write it with.
func buildGraph(moves []move.Move, cfg move.Config) (*arena, error) {
	a := newArena()

	for i, m := range moves {
		if err := cfg.Validate(m); err != nil {
			return nil, newInvalidInputError(i, err)
		}

		offset := uint64(0)
		for offset < m.Length {
			srcAddr := m.SourceAddress + offset
			dstAddr := m.DestinationAddress + offset

			remainingInSrcBlock := cfg.BlockSize() - cfg.BlockOffset(srcAddr)
			remainingInDstBlock := cfg.BlockSize() - cfg.BlockOffset(dstAddr)
			remaining := m.Length - offset

			segLen := min3(remainingInSrcBlock, remainingInDstBlock, remaining)

			srcBlock := blocks.Index(cfg.BlockIndex(srcAddr))
			dstBlock := blocks.Index(cfg.BlockIndex(dstAddr))

			dstNode := a.getOrCreate(dstBlock)
			dstNode.isDestination = true
			dstNode.fragments = append(dstNode.fragments, fragment{
				srcBlock:  srcBlock,
				srcOffset: cfg.BlockOffset(srcAddr),
				length:    segLen,
				dstOffset: cfg.BlockOffset(dstAddr),
			})

			if srcBlock != dstBlock {
				srcNode := a.getOrCreate(srcBlock)
				srcNode.out[dstBlock] = struct{}{}
			}

			offset += segLen
		}
	}

	return a, nil
}

func min3(a, b, c uint64) uint64 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
