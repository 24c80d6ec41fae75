package scheduler

// Stats summarizes an emitted plan (§6.4). Attached to a Plan only when
// WithStats is used, since tallying it costs a pass over the command list.
type Stats struct {
	TotalCommands   int
	Erases          int
	LoadAndFlushes  int
	CacheRoundTrips int
	PartialCommits  int
	BytesCopied     uint64
}

func computeStats(cmds []PublicCommand) Stats {
	var s Stats
	s.TotalCommands = len(cmds)
	for _, c := range cmds {
		switch c.Opcode {
		case OpErase:
			s.Erases++
		case OpLoadAndFlush:
			s.LoadAndFlushes++
			s.CacheRoundTrips++
		case OpFlushAndPartialCommit:
			s.PartialCommits++
			s.CacheRoundTrips++
		case OpCopy, OpChainedCopy:
			s.BytesCopied += c.Length
		}
	}
	return s
}
