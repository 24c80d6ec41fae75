package scheduler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outofforest/flashplan/blocks"
	"github.com/outofforest/flashplan/move"
	"github.com/outofforest/flashplan/scheduler"
	"github.com/outofforest/flashplan/simulator"
)

func fillPattern(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i*11 + 5)
	}
	return b
}

// verify runs a Plan against a before-image through the simulator and
// checks both that the command stream is internally consistent and that it
// moved the right bytes (§8 invariant 1).
func verify(t *testing.T, cfg move.Config, moves []move.Move, plan scheduler.Plan) {
	t.Helper()

	before := fillPattern(int(cfg.FlashSize()))
	after := append([]byte(nil), before...)

	require.NoError(t, simulator.Run(plan.Commands, after, cfg))
	require.NoError(t, simulator.VerifyMoves(moves, before, after))
}

// TestScheduleExactS1 is §8's S1 seed scenario ("reorder within a block"),
// asserted instruction-for-instruction rather than just semantically: three
// moves entirely inside block 0, none of which cross a block boundary, so
// the whole block is one self-fragment rearrangement served by a single
// LOAD_AND_FLUSH followed by three plain COPYs from CACHE_BUF (none of them
// contiguous with the previous one, so none coalesce into a CHAINED_COPY).
func TestScheduleExactS1(t *testing.T) {
	cfg, err := move.NewConfig(12, 16) // BLOCK_SIZE = 0x1000
	require.NoError(t, err)

	moves := []move.Move{
		{SourceAddress: 100, Length: 100, DestinationAddress: 400},
		{SourceAddress: 100, Length: 100, DestinationAddress: 100},
		{SourceAddress: 400, Length: 200, DestinationAddress: 800},
	}

	sched := scheduler.New(cfg)
	plan, err := sched.Schedule(moves)
	require.NoError(t, err)

	expected := []scheduler.PublicCommand{
		{Opcode: scheduler.OpRebase, FirstBlock: 0, LastBlock: 0},
		{Opcode: scheduler.OpLoadAndFlush, Block: 0},
		{Opcode: scheduler.OpCopy, SourceBlock: blocks.CacheBuf, SourceOffset: 100, Length: 100, DestinationBlock: 0, DestinationOffset: 400},
		{Opcode: scheduler.OpCopy, SourceBlock: blocks.CacheBuf, SourceOffset: 100, Length: 100, DestinationBlock: 0, DestinationOffset: 100},
		{Opcode: scheduler.OpCopy, SourceBlock: blocks.CacheBuf, SourceOffset: 400, Length: 200, DestinationBlock: 0, DestinationOffset: 800},
	}
	assert.Equal(t, expected, plan.Commands)

	verify(t, cfg, moves, plan)
}

// TestScheduleExactS2 is §8's S2 seed scenario ("two-block dependency"):
// block 1 is a pure sink fed from block 0 while block 0 is still intact
// (ERASE + USE_BLOCK + COPY), then block 0 — which also has a self-fragment
// — is staged through the cache and rewritten from CACHE_BUF.
func TestScheduleExactS2(t *testing.T) {
	cfg, err := move.NewConfig(12, 16)
	require.NoError(t, err)
	bs := cfg.BlockSize()

	moves := []move.Move{
		{SourceAddress: 100, Length: 100, DestinationAddress: 400},
		{SourceAddress: 100, Length: 100, DestinationAddress: bs + 100},
	}

	sched := scheduler.New(cfg)
	plan, err := sched.Schedule(moves)
	require.NoError(t, err)

	expected := []scheduler.PublicCommand{
		{Opcode: scheduler.OpRebase, FirstBlock: 0, LastBlock: 1},
		{Opcode: scheduler.OpErase, Block: 1},
		{Opcode: scheduler.OpUseBlock, Block: 0},
		{Opcode: scheduler.OpCopy, SourceBlock: 0, SourceOffset: 100, Length: 100, DestinationBlock: 1, DestinationOffset: 100},
		{Opcode: scheduler.OpReleaseBlock},
		{Opcode: scheduler.OpLoadAndFlush, Block: 0},
		{Opcode: scheduler.OpCopy, SourceBlock: blocks.CacheBuf, SourceOffset: 100, Length: 100, DestinationBlock: 0, DestinationOffset: 400},
	}
	assert.Equal(t, expected, plan.Commands)

	verify(t, cfg, moves, plan)
}

// A single move entirely within one block, no cycle. Semantic-only check;
// TestScheduleExactS1 above is the exact instruction-match seed test for
// §8's S1 scenario.
func TestScheduleSingleMoveWithinBlock(t *testing.T) {
	cfg, err := move.NewConfig(12, 16)
	require.NoError(t, err)

	moves := []move.Move{{SourceAddress: 100, Length: 50, DestinationAddress: 200}}

	sched := scheduler.New(cfg)
	plan, err := sched.Schedule(moves)
	require.NoError(t, err)
	assert.NotEmpty(t, plan.Commands)
	assert.Equal(t, scheduler.OpRebase, plan.Commands[0].Opcode)

	verify(t, cfg, moves, plan)
}

// A chain of moves across distinct blocks with no cycle. Block 0 here is a
// pure source (never a move destination) and must come out of the plan
// untouched: no ERASE/LOAD_AND_FLUSH/COPY may ever target it, since nothing
// supplies its replacement content.
func TestScheduleUnidirectionalChain(t *testing.T) {
	cfg, err := move.NewConfig(12, 16)
	require.NoError(t, err)
	bs := cfg.BlockSize()

	moves := []move.Move{
		{SourceAddress: 0, Length: bs, DestinationAddress: bs},
		{SourceAddress: bs, Length: bs, DestinationAddress: 2 * bs},
		{SourceAddress: 2 * bs, Length: bs, DestinationAddress: 3 * bs},
	}

	sched := scheduler.New(cfg)
	plan, err := sched.Schedule(moves)
	require.NoError(t, err)

	for _, c := range plan.Commands {
		switch c.Opcode {
		case scheduler.OpErase, scheduler.OpLoadAndFlush:
			assert.NotEqual(t, blocks.Index(0), c.Block, "pure-source block 0 must never be erased or staged")
		case scheduler.OpUseBlock:
			// block 0 is legitimately opened for reading.
		}
	}

	before := fillPattern(int(cfg.FlashSize()))
	untouched := append([]byte(nil), before...)
	after := append([]byte(nil), before...)

	require.NoError(t, simulator.Run(plan.Commands, after, cfg))
	assert.Equal(t, untouched[:bs], after[:bs], "block 0's bytes must be byte-for-byte unchanged")

	require.NoError(t, simulator.VerifyMoves(moves, before, after))
}

// A two-block cycle, requiring exactly one pivot stage.
func TestScheduleTwoBlockCycle(t *testing.T) {
	cfg, err := move.NewConfig(12, 16)
	require.NoError(t, err)
	bs := cfg.BlockSize()

	moves := []move.Move{
		{SourceAddress: 0, Length: bs, DestinationAddress: bs},
		{SourceAddress: bs, Length: bs, DestinationAddress: 0},
	}

	sched := scheduler.New(cfg)
	plan, err := sched.Schedule(moves)
	require.NoError(t, err)

	loadAndFlushes := 0
	for _, c := range plan.Commands {
		if c.Opcode == scheduler.OpLoadAndFlush {
			loadAndFlushes++
		}
	}
	assert.Equal(t, 1, loadAndFlushes)

	verify(t, cfg, moves, plan)
}

// A longer cycle through three blocks.
func TestScheduleThreeBlockCycle(t *testing.T) {
	cfg, err := move.NewConfig(12, 16)
	require.NoError(t, err)
	bs := cfg.BlockSize()

	moves := []move.Move{
		{SourceAddress: 0, Length: bs, DestinationAddress: bs},
		{SourceAddress: bs, Length: bs, DestinationAddress: 2 * bs},
		{SourceAddress: 2 * bs, Length: bs, DestinationAddress: 0},
	}

	sched := scheduler.New(cfg)
	plan, err := sched.Schedule(moves)
	require.NoError(t, err)

	verify(t, cfg, moves, plan)
}

// A block that reads part of its own old contents (self-dependency), which
// must be served through a self LOAD_AND_FLUSH rather than a plain ERASE.
func TestScheduleSelfDependentBlock(t *testing.T) {
	cfg, err := move.NewConfig(12, 16)
	require.NoError(t, err)
	bs := cfg.BlockSize()

	moves := []move.Move{
		{SourceAddress: 0, Length: 100, DestinationAddress: bs / 2},
		{SourceAddress: bs + 10, Length: 20, DestinationAddress: 0},
	}

	sched := scheduler.New(cfg)
	plan, err := sched.Schedule(moves)
	require.NoError(t, err)

	verify(t, cfg, moves, plan)
}

// Invariant 6: an empty move list schedules to an empty plan.
func TestScheduleEmptyMoveList(t *testing.T) {
	cfg, err := move.NewConfig(12, 16)
	require.NoError(t, err)

	sched := scheduler.New(cfg)
	plan, err := sched.Schedule(nil)
	require.NoError(t, err)
	assert.Empty(t, plan.Commands)
	assert.Nil(t, plan.Stats)
}

func TestScheduleRejectsOutOfRangeMove(t *testing.T) {
	cfg, err := move.NewConfig(12, 16)
	require.NoError(t, err)

	moves := []move.Move{{SourceAddress: cfg.FlashSize(), Length: 10, DestinationAddress: 0}}

	sched := scheduler.New(cfg)
	_, err = sched.Schedule(moves)
	require.Error(t, err)
	var invErr *scheduler.InvalidInputError
	assert.ErrorAs(t, err, &invErr)
}

func TestScheduleCollectsStats(t *testing.T) {
	cfg, err := move.NewConfig(12, 16)
	require.NoError(t, err)
	bs := cfg.BlockSize()

	moves := []move.Move{{SourceAddress: 0, Length: bs, DestinationAddress: bs}}

	sched := scheduler.New(cfg, scheduler.WithStats())
	plan, err := sched.Schedule(moves)
	require.NoError(t, err)
	require.NotNil(t, plan.Stats)
	assert.Equal(t, len(plan.Commands), plan.Stats.TotalCommands)
	assert.Equal(t, uint64(bs), plan.Stats.BytesCopied)
}

// Many independent chains and cycles mixed together: a property-style check
// that the scheduler always produces a plan whose simulated effect matches
// the requested moves, regardless of how the graph is shaped.
func TestScheduleManyIndependentComponents(t *testing.T) {
	cfg, err := move.NewConfig(10, 14) // 1 KiB blocks, 16 KiB flash
	require.NoError(t, err)
	bs := cfg.BlockSize()

	moves := []move.Move{
		// chain: 0 -> 1 -> 2
		{SourceAddress: 0, Length: bs, DestinationAddress: bs},
		{SourceAddress: bs, Length: bs, DestinationAddress: 2 * bs},
		// cycle: 3 <-> 4
		{SourceAddress: 3 * bs, Length: bs, DestinationAddress: 4 * bs},
		{SourceAddress: 4 * bs, Length: bs, DestinationAddress: 3 * bs},
		// in-block move on block 5
		{SourceAddress: 5*bs + 10, Length: 30, DestinationAddress: 5*bs + 100},
	}

	sched := scheduler.New(cfg)
	plan, err := sched.Schedule(moves)
	require.NoError(t, err)

	verify(t, cfg, moves, plan)
}
