package simulator

import (
	"github.com/outofforest/flashplan/blocks"
	"github.com/outofforest/flashplan/move"
	"github.com/outofforest/flashplan/scheduler"
)

// lastCopy tracks the source and destination range of the most recent
// COPY or CHAINED_COPY, so a following CHAINED_COPY (which carries only a
// length) knows which ranges it continues.
type lastCopy struct {
	valid    bool
	srcBlock blocks.Index
	srcEnd   uint64
	dstBlock blocks.Index
	dstEnd   uint64
}

// Run replays commands against buf in place, reproducing the target VM's
// cache and erase semantics (§4.6), and returns a *ValidationError if the
// stream violates a precondition the real VM would enforce. buf must be
// sized cfg.FlashSize(); Run does not resize it.
//
// Run is the scheduler's own correctness check (§8): a Plan is only as
// good as what it does to real bytes, so tests build a before-image, run
// Plan.Commands through Run, and compare the result against VerifyMoves.
func Run(commands []scheduler.PublicCommand, buf []byte, cfg move.Config) error {
	if uint64(len(buf)) != cfg.FlashSize() {
		return newValidationError("RUN", "buffer length %d does not match flash size %d", len(buf), cfg.FlashSize())
	}
	return run(commands, WrapMemDevice(buf), cfg)
}

// RunDevice is Run generalized to an arbitrary Device, for callers driving
// a real or fake flash part instead of a plain in-memory buffer.
func RunDevice(commands []scheduler.PublicCommand, dev Device, cfg move.Config) error {
	return run(commands, dev, cfg)
}

func run(commands []scheduler.PublicCommand, dev Device, cfg move.Config) error {
	blockSize := cfg.BlockSize()

	var openSource *blocks.Index
	var rebased bool
	var first, last blocks.Index

	cache := make([]byte, blockSize)
	cacheValid := false
	var cacheOwner blocks.Index

	var chain lastCopy

	blockOffset := func(b blocks.Index) int64 {
		return int64(uint64(b) * blockSize)
	}

	readSource := func(opcode string, srcBlock blocks.Index, srcOffset, length uint64) ([]byte, error) {
		if srcBlock == blocks.CacheBuf {
			if !cacheValid {
				return nil, newValidationError(opcode, "read from CACHE_BUF with nothing staged")
			}
			if srcOffset+length > blockSize {
				return nil, newValidationError(opcode, "cache read [%d, %d) exceeds block size %d", srcOffset, srcOffset+length, blockSize)
			}
			return cache[srcOffset : srcOffset+length], nil
		}
		if openSource == nil || *openSource != srcBlock {
			return nil, newValidationError(opcode, "block %d read without a preceding USE_BLOCK", srcBlock)
		}
		p := make([]byte, length)
		if _, err := dev.ReadAt(p, blockOffset(srcBlock)+int64(srcOffset)); err != nil {
			return nil, err
		}
		return p, nil
	}

	writeDest := func(dstBlock blocks.Index, dstOffset uint64, p []byte) error {
		_, err := dev.WriteAt(p, blockOffset(dstBlock)+int64(dstOffset))
		return err
	}

	eraseBlock := func(b blocks.Index) error {
		zeros := make([]byte, blockSize)
		return writeDest(b, 0, zeros)
	}

	for _, cmd := range commands {
		switch cmd.Opcode {
		case scheduler.OpRebase:
			first, last = cmd.FirstBlock, cmd.LastBlock
			rebased = true

		case scheduler.OpUseBlock:
			if !rebased {
				return newValidationError("USE_BLOCK", "issued before REBASE")
			}
			if cmd.Block < first || cmd.Block > last {
				return newValidationError("USE_BLOCK", "block %d outside rebased window [%d, %d]", cmd.Block, first, last)
			}
			b := cmd.Block
			openSource = &b

		case scheduler.OpReleaseBlock:
			openSource = nil

		case scheduler.OpErase:
			if err := eraseBlock(cmd.Block); err != nil {
				return err
			}
			chain = lastCopy{}

		case scheduler.OpLoadAndFlush:
			if _, err := dev.ReadAt(cache, blockOffset(cmd.Block)); err != nil {
				return err
			}
			if err := eraseBlock(cmd.Block); err != nil {
				return err
			}
			cacheValid = true
			cacheOwner = cmd.Block
			chain = lastCopy{}

		case scheduler.OpCopy:
			p, err := readSource("COPY", cmd.SourceBlock, cmd.SourceOffset, cmd.Length)
			if err != nil {
				return err
			}
			if err := writeDest(cmd.DestinationBlock, cmd.DestinationOffset, p); err != nil {
				return err
			}
			chain = lastCopy{
				valid:    true,
				srcBlock: cmd.SourceBlock,
				srcEnd:   cmd.SourceOffset + cmd.Length,
				dstBlock: cmd.DestinationBlock,
				dstEnd:   cmd.DestinationOffset + cmd.Length,
			}

		case scheduler.OpChainedCopy:
			if !chain.valid {
				return newValidationError("CHAINED_COPY", "issued without a preceding COPY to continue")
			}
			p, err := readSource("CHAINED_COPY", chain.srcBlock, chain.srcEnd, cmd.Length)
			if err != nil {
				return err
			}
			if err := writeDest(chain.dstBlock, chain.dstEnd, p); err != nil {
				return err
			}
			chain.srcEnd += cmd.Length
			chain.dstEnd += cmd.Length

		case scheduler.OpFlushAndPartialCommit:
			if !cacheValid {
				return newValidationError("FLUSH_AND_PARTIAL_COMMIT", "cache has nothing staged")
			}
			if cmd.Length > blockSize {
				return newValidationError("FLUSH_AND_PARTIAL_COMMIT", "length %d exceeds block size %d", cmd.Length, blockSize)
			}
			if err := writeDest(cmd.Block, 0, cache[:cmd.Length]); err != nil {
				return err
			}
			// The cache buffer itself, and its owner, are unchanged: the
			// remainder stays staged for a later LOAD_AND_FLUSH-less read.
			_ = cacheOwner
			chain = lastCopy{}

		default:
			return newValidationError("UNKNOWN", "unrecognized opcode %v", cmd.Opcode)
		}
	}

	return nil
}

// VerifyMoves checks invariant 1 (§8): for every move, the bytes now at its
// destination in after equal the bytes that were at its source in before.
// Overlapping moves are checked independently against the pre-image, which
// is what "in place" means for a move list (§3): every move reads from the
// old image, regardless of execution order.
func VerifyMoves(moves []move.Move, before, after []byte) error {
	for i, m := range moves {
		if m.SourceAddress+m.Length > uint64(len(before)) || m.DestinationAddress+m.Length > uint64(len(after)) {
			return newValidationError("VERIFY", "move %d out of bounds", i)
		}
		want := before[m.SourceAddress : m.SourceAddress+m.Length]
		got := after[m.DestinationAddress : m.DestinationAddress+m.Length]
		for j := range want {
			if want[j] != got[j] {
				return newValidationError("VERIFY", "move %d mismatch at offset %d: want %x got %x", i, j, want[j], got[j])
			}
		}
	}
	return nil
}
