package scheduler

import "github.com/outofforest/flashplan/blocks"

// cacheTracker is a lightweight second check, run while lowering the
// resolved emission order into instructions, that every CACHE_BUF read has
// a preceding stage. The authoritative scheduling discipline — never
// staging a new block while a previous one's readers are still outstanding
// — lives in resolve's pickNext/cacheConsumers bookkeeping (§8 invariant
// 4); this tracker catches the narrower mistake of emitting a COPY sourced
// from CACHE_BUF with nothing ever staged, which would indicate a bug in
// codegen itself rather than in resolve.
type cacheTracker struct {
	owner *blocks.Index
}

// stage records that block now owns the cache, staged by a LOAD_AND_FLUSH.
func (c *cacheTracker) stage(block blocks.Index) {
	owner := block
	c.owner = &owner
}

// readFromCache reports an error if CACHE_BUF is read with nothing staged.
func (c *cacheTracker) readFromCache() error {
	if c.owner == nil {
		return newInternalInvariantError("codegen", -1, "read from CACHE_BUF with no block staged")
	}
	return nil
}
