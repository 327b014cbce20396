package pyfer

import "context"

const defaultMaxPasses = 10000

// Scheduler drives re-analysis: a single deduplicating FIFO worklist of
// units. Accumulator writes that grow a set re-enqueue registered dependents
// here; Run drains the list to fixpoint.
type Scheduler struct {
	queue     []*FunctionUnit
	queued    map[*FunctionUnit]struct{}
	maxPasses int
	passes    int
}

func NewScheduler(maxPasses int) *Scheduler {
	if maxPasses <= 0 {
		maxPasses = defaultMaxPasses
	}
	return &Scheduler{queued: map[*FunctionUnit]struct{}{}, maxPasses: maxPasses}
}

// Enqueue schedules u for a pass. A unit already waiting is not queued twice.
func (s *Scheduler) Enqueue(u *FunctionUnit) {
	if u == nil {
		return
	}
	if _, ok := s.queued[u]; ok {
		return
	}
	s.queued[u] = struct{}{}
	s.queue = append(s.queue, u)
}

func (s *Scheduler) Pending() int { return len(s.queue) }

// Passes reports how many unit passes have run.
func (s *Scheduler) Passes() int { return s.passes }

// Run executes passes until the worklist is empty or the pass ceiling is
// hit. On cancellation the current state stands as the last-known valid
// approximation.
func (s *Scheduler) Run(ctx context.Context) error {
	for len(s.queue) > 0 && s.passes < s.maxPasses {
		if err := ctx.Err(); err != nil {
			return err
		}
		u := s.queue[0]
		s.queue = s.queue[1:]
		delete(s.queued, u)
		s.passes++
		if err := u.Analyze(ctx); err != nil {
			return err
		}
	}
	return nil
}
