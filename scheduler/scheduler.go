package scheduler

import (
	"github.com/outofforest/flashplan/blocks"
	"github.com/outofforest/flashplan/move"
)

// Plan is the result of scheduling a move list: an ordered command stream
// ready for the target VM, plus optional statistics.
type Plan struct {
	Commands []PublicCommand
	Stats    *Stats
}

// Scheduler turns move lists into VM instruction streams for a fixed flash
// geometry. A Scheduler holds no mutable state between calls to Schedule;
// the geometry and options it was built with are immutable for its
// lifetime, so distinct Schedulers (even with different geometries) may be
// used concurrently from separate goroutines.
type Scheduler struct {
	cfg Config
}

// New builds a Scheduler for the given flash geometry.
func New(geometry move.Config, opts ...Option) *Scheduler {
	cfg := defaultConfig(geometry)
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Scheduler{cfg: cfg}
}

// Schedule computes the instruction stream that performs every move in ms
// in place, respecting read-before-overwrite order and breaking cycles
// through the single-block RAM cache.
//
// If ms is empty, Schedule returns an empty Plan (§8 invariant 6). If a
// move is malformed, Schedule returns an *InvalidInputError and an empty
// Plan. Any other returned error is an *InternalInvariantError: a failure
// inside this package, not a malformed move (see InternalInvariantError).
func (s *Scheduler) Schedule(ms []move.Move) (Plan, error) {
	if len(ms) == 0 {
		return Plan{}, nil
	}

	end := s.cfg.profiler.Phase("build")
	a, err := buildGraph(ms, s.cfg.geometry)
	end()
	if err != nil {
		s.cfg.logger.Error("failed to build block graph", "error", err)
		return Plan{}, err
	}
	s.cfg.logger.Debug("built block graph", "blocks", a.len())

	end = s.cfg.profiler.Phase("prune")
	pruneSelfReferences(a)
	end()

	first, last := bounds(a)

	end = s.cfg.profiler.Phase("resolve")
	ops, err := resolve(a)
	end()
	if err != nil {
		s.cfg.logger.Error("failed to resolve block graph", "error", err)
		return Plan{}, err
	}

	end = s.cfg.profiler.Phase("codegen")
	cmds, err := generate(ops, first, last)
	end()
	if err != nil {
		s.cfg.logger.Error("failed to generate instructions", "error", err)
		return Plan{}, err
	}

	s.cfg.logger.Info("scheduled plan", "commands", len(cmds))

	plan := Plan{Commands: cmds}
	if s.cfg.collectStats {
		stats := computeStats(cmds)
		plan.Stats = &stats
	}
	return plan, nil
}

func bounds(a *arena) (first, last blocks.Index) {
	first, last = a.order[0], a.order[0]
	for _, idx := range a.order {
		if idx < first {
			first = idx
		}
		if idx > last {
			last = idx
		}
	}
	return first, last
}
