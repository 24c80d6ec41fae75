// Package simulator executes the instruction streams scheduler.Schedule
// produces, against an in-memory or caller-supplied backing store, and
// checks that the result matches what the original move list asked for.
//
// It exists because a Plan is a description of work, not proof the work is
// correct: the scheduler's job is to never read a block after it has been
// erased out from under the data it held, and the only way to be confident
// that held under a given move list is to actually run the plan against
// bytes and compare. Every scheduler test that claims a Plan is correct
// does so by constructing a before-image, running it through Run, and
// checking the after-image against VerifyMoves — not by inspecting the
// command stream by hand.
//
// A minimal round trip:
//
//	cfg, _ := move.NewConfig(12, 16) // 4 KiB blocks, 64 KiB flash
//	moves := []move.Move{{SourceAddress: 0, Length: 4096, DestinationAddress: 8192}}
//
//	sched := scheduler.New(cfg)
//	plan, err := sched.Schedule(moves)
//	if err != nil {
//		// handle err
//	}
//
//	before := make([]byte, cfg.FlashSize())
//	rand.Read(before[:4096])
//	after := append([]byte(nil), before...)
//
//	if err := simulator.Run(plan.Commands, after, cfg); err != nil {
//		// the plan violated a VM precondition
//	}
//	if err := simulator.VerifyMoves(moves, before, after); err != nil {
//		// the plan ran cleanly but moved the wrong bytes
//	}
//
// Run enforces exactly the discipline a real flash driver would: a block
// must be opened with USE_BLOCK before anything reads from it, CACHE_BUF
// must have been staged by a LOAD_AND_FLUSH before anything reads from it,
// and CHAINED_COPY only ever continues a range a previous COPY or
// CHAINED_COPY left off. Any violation comes back as a *ValidationError
// naming the offending opcode, so a broken scheduler change fails a test
// at the instruction that is actually wrong rather than as a generic byte
// mismatch.
//
// Device is intentionally narrow (ReadAt, WriteAt, Size) so MemDevice is
// useful on its own for tests that want to inspect intermediate state, and
// so a future on-device simulator (talking to a real flash part over a
// debug probe, say) can satisfy it without depending on anything else in
// this package.
package simulator
