package sched

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Deferred one-shot jobs. There is deliberately no cancellation: a fired job
// re-checks live state under the table lock and goes inert when the turn
// counter has moved past its captured target. Cancelling timers would just
// reintroduce the races the counter comparison already solves.

// Delayer is what the gameplay services schedule against; tests substitute
// a synchronous implementation.
type Delayer interface {
	Schedule(key string, delay time.Duration, fn func(ctx context.Context))
}

type Scheduler struct {
	base    context.Context
	timeout time.Duration
	wg      sync.WaitGroup
}

// New builds a scheduler whose jobs run under base until it is cancelled.
// Each firing gets its own deadline so a wedged job cannot pin a goroutine.
func New(base context.Context, jobTimeout time.Duration) *Scheduler {
	if jobTimeout <= 0 {
		jobTimeout = 10 * time.Second
	}
	return &Scheduler{base: base, timeout: jobTimeout}
}

// Schedule runs fn exactly once after delay. Failures inside fn are the
// job's own business; panics are contained here because timer goroutines
// have no caller to report to.
func (s *Scheduler) Schedule(key string, delay time.Duration, fn func(ctx context.Context)) {
	s.wg.Add(1)
	time.AfterFunc(delay, func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Error().Str("key", key).Interface("panic", r).Msg("scheduled job panicked")
			}
		}()
		if s.base.Err() != nil {
			return
		}
		ctx, cancel := context.WithTimeout(s.base, s.timeout)
		defer cancel()
		fn(ctx)
	})
}

// Drain blocks until every already-scheduled job has fired. Shutdown helper.
func (s *Scheduler) Drain() {
	s.wg.Wait()
}
