package scheduler

import "github.com/outofforest/flashplan/blocks"

// generate lowers a resolved emission order into the concrete VM
// instruction stream (§4.5): REBASE first, USE_BLOCK/RELEASE_BLOCK
// bracketing around flash-block reads, ERASE/LOAD_AND_FLUSH immediately
// before a node's copies, and opportunistic CHAINED_COPY coalescing for
// fragments that continue exactly where the previous copy left off.
func generate(ops []op, first, last blocks.Index) ([]PublicCommand, error) {
	cmds := []PublicCommand{rebaseCmd(first, last)}

	var openSource *blocks.Index
	var chain chainState
	var tracker cacheTracker

	releaseIfOpen := func() {
		if openSource != nil {
			cmds = append(cmds, releaseBlockCmd())
			openSource = nil
		}
	}

	ensureSourceOpen := func(b blocks.Index) {
		if b == blocks.CacheBuf {
			return
		}
		if openSource != nil && *openSource == b {
			return
		}
		releaseIfOpen()
		cmds = append(cmds, useBlockCmd(b))
		opened := b
		openSource = &opened
	}

	for _, o := range ops {
		switch o.kind {
		case opPivotStage:
			releaseIfOpen()
			cmds = append(cmds, loadAndFlushCmd(o.index))
			tracker.stage(o.index)
			chain.reset()
		case opWriteNode:
			switch o.stage {
			case stageErase:
				releaseIfOpen()
				cmds = append(cmds, eraseCmd(o.index))
			case stageSelfLoad:
				releaseIfOpen()
				cmds = append(cmds, loadAndFlushCmd(o.index))
				tracker.stage(o.index)
			case stageAlreadyStaged:
				// Already erased by an earlier LOAD_AND_FLUSH; nothing to emit.
			}
			chain.reset()
			for _, f := range o.fragments {
				if f.srcBlock == blocks.CacheBuf {
					if err := tracker.readFromCache(); err != nil {
						return nil, err
					}
				}
				ensureSourceOpen(f.srcBlock)
				if chain.continues(f, o.index) {
					cmds = append(cmds, chainedCopyCmd(f.length))
				} else {
					cmds = append(cmds, copyCmd(f.srcBlock, f.srcOffset, f.length, o.index, f.dstOffset))
				}
				chain.advance(f, o.index)
			}
		}
	}

	releaseIfOpen()
	return cmds, nil
}

// chainState tracks whether the next fragment is an exact continuation of
// the previous copy (same source block, contiguous source and destination
// offsets), making it eligible for CHAINED_COPY instead of a full COPY.
type chainState struct {
	valid    bool
	srcBlock blocks.Index
	srcEnd   uint64
	dstBlock blocks.Index
	dstEnd   uint64
}

func (c *chainState) reset() {
	*c = chainState{}
}

func (c *chainState) continues(f fragment, dstBlock blocks.Index) bool {
	return c.valid &&
		f.srcBlock == c.srcBlock &&
		f.srcOffset == c.srcEnd &&
		dstBlock == c.dstBlock &&
		f.dstOffset == c.dstEnd
}

func (c *chainState) advance(f fragment, dstBlock blocks.Index) {
	c.valid = true
	c.srcBlock = f.srcBlock
	c.srcEnd = f.srcOffset + f.length
	c.dstBlock = dstBlock
	c.dstEnd = f.dstOffset + f.length
}
