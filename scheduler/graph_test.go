package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outofforest/flashplan/blocks"
	"github.com/outofforest/flashplan/move"
)

// A block that is only ever a move source, never a destination, must get an
// arena entry for out-edge bookkeeping but must not be marked isDestination:
// resolve relies on that flag to know it must never erase or stage the
// block.
func TestBuildGraphPureSourceBlockNotMarkedDestination(t *testing.T) {
	cfg, err := move.NewConfig(12, 16)
	require.NoError(t, err)
	bs := cfg.BlockSize()

	moves := []move.Move{
		{SourceAddress: 0, Length: bs, DestinationAddress: bs},
	}

	a, err := buildGraph(moves, cfg)
	require.NoError(t, err)

	src, ok := a.get(blocks.Index(0))
	require.True(t, ok)
	assert.False(t, src.isDestination)
	assert.Empty(t, src.fragments)

	dst, ok := a.get(blocks.Index(1))
	require.True(t, ok)
	assert.True(t, dst.isDestination)
	assert.NotEmpty(t, dst.fragments)
}

// resolve must drop a pure-source node once its out-degree reaches zero
// without ever emitting an op for it.
func TestResolveSkipsPureSourceNode(t *testing.T) {
	cfg, err := move.NewConfig(12, 16)
	require.NoError(t, err)
	bs := cfg.BlockSize()

	moves := []move.Move{
		{SourceAddress: 0, Length: bs, DestinationAddress: bs},
	}

	a, err := buildGraph(moves, cfg)
	require.NoError(t, err)
	pruneSelfReferences(a)

	ops, err := resolve(a)
	require.NoError(t, err)

	require.Len(t, ops, 1)
	assert.Equal(t, blocks.Index(1), ops[0].index)
	assert.Equal(t, stageErase, ops[0].stage)
}

// choosePivot must never select a pure-source node: staging it via
// LOAD_AND_FLUSH would erase it with nothing to write it back.
func TestChoosePivotExcludesPureSourceNodes(t *testing.T) {
	cfg, err := move.NewConfig(12, 16)
	require.NoError(t, err)
	bs := cfg.BlockSize()

	// 1 and 2 form a genuine cycle; 0 is a pure source feeding 1, with as
	// few out-edges as either cycle member and the lowest index, so a pivot
	// heuristic that ignored isDestination would wrongly prefer it.
	moves := []move.Move{
		{SourceAddress: bs, Length: bs, DestinationAddress: 2 * bs},
		{SourceAddress: 2 * bs, Length: bs, DestinationAddress: bs},
		{SourceAddress: 0, Length: 10, DestinationAddress: bs},
	}

	a, err := buildGraph(moves, cfg)
	require.NoError(t, err)
	pruneSelfReferences(a)

	pivot, err := choosePivot(a)
	require.NoError(t, err)
	assert.True(t, pivot.isDestination)
	assert.NotEqual(t, blocks.Index(0), pivot.index)
}
