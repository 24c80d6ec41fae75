package scheduler

import "github.com/outofforest/flashplan/blocks"

// Opcode identifies the operation a PublicCommand performs on the target VM.
type Opcode int

// Supported opcodes, as defined by the target VM's instruction set.
const (
	OpRebase Opcode = iota
	OpUseBlock
	OpReleaseBlock
	OpErase
	OpLoadAndFlush
	OpCopy
	OpChainedCopy
	OpFlushAndPartialCommit
)

// String returns the opcode's mnemonic.
func (o Opcode) String() string {
	switch o {
	case OpRebase:
		return "REBASE"
	case OpUseBlock:
		return "USE_BLOCK"
	case OpReleaseBlock:
		return "RELEASE_BLOCK"
	case OpErase:
		return "ERASE"
	case OpLoadAndFlush:
		return "LOAD_AND_FLUSH"
	case OpCopy:
		return "COPY"
	case OpChainedCopy:
		return "CHAINED_COPY"
	case OpFlushAndPartialCommit:
		return "FLUSH_AND_PARTIAL_COMMIT"
	default:
		return "UNKNOWN"
	}
}

// PublicCommand is a single instruction of the emitted plan. It is a tagged
// union keyed by Opcode: only the fields relevant to that opcode are
// populated, the rest are left zero. Inside this package every command is
// built by one of the per-opcode constructor functions below, each of which
// sets only its own opcode's fields.
type PublicCommand struct {
	Opcode Opcode

	// REBASE
	FirstBlock blocks.Index
	LastBlock  blocks.Index

	// USE_BLOCK, ERASE, LOAD_AND_FLUSH, FLUSH_AND_PARTIAL_COMMIT
	Block blocks.Index

	// COPY, CHAINED_COPY
	SourceBlock       blocks.Index
	SourceOffset      uint64
	Length            uint64
	DestinationBlock  blocks.Index
	DestinationOffset uint64
}

func rebaseCmd(first, last blocks.Index) PublicCommand {
	return PublicCommand{Opcode: OpRebase, FirstBlock: first, LastBlock: last}
}

func useBlockCmd(b blocks.Index) PublicCommand {
	return PublicCommand{Opcode: OpUseBlock, Block: b}
}

func releaseBlockCmd() PublicCommand {
	return PublicCommand{Opcode: OpReleaseBlock}
}

func eraseCmd(b blocks.Index) PublicCommand {
	return PublicCommand{Opcode: OpErase, Block: b}
}

func loadAndFlushCmd(b blocks.Index) PublicCommand {
	return PublicCommand{Opcode: OpLoadAndFlush, Block: b}
}

func copyCmd(srcBlock blocks.Index, srcOffset, length uint64, dstBlock blocks.Index, dstOffset uint64) PublicCommand {
	return PublicCommand{
		Opcode:            OpCopy,
		SourceBlock:       srcBlock,
		SourceOffset:      srcOffset,
		Length:            length,
		DestinationBlock:  dstBlock,
		DestinationOffset: dstOffset,
	}
}

func chainedCopyCmd(length uint64) PublicCommand {
	return PublicCommand{Opcode: OpChainedCopy, Length: length}
}

// FlushAndPartialCommitCommand builds a FLUSH_AND_PARTIAL_COMMIT instruction
// writing the first length bytes of the cache back to block, keeping the
// remainder staged. Exported because the resolver's default heuristic never
// emits it (see the network resolver's design notes); callers that want to
// hand-assemble a plan exercising it may use this constructor directly, and
// the simulator supports it fully.
func FlushAndPartialCommitCommand(block blocks.Index, length uint64) PublicCommand {
	return PublicCommand{Opcode: OpFlushAndPartialCommit, Block: block, Length: length}
}
