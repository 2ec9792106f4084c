package stress

import (
	"context"
	"sync/atomic"

	"golang.org/x/time/rate"
)

// Scheduler paces requests and bounds how many are in flight
type Scheduler struct {
	limiter *rate.Limiter
	sem     chan struct{} // semaphore for max concurrency
	budget  int64         // 0 means unbounded
	issued  atomic.Int64
}

// NewScheduler creates a new scheduler with the given config
func NewScheduler(config *Config) *Scheduler {
	s := &Scheduler{
		budget: int64(config.Requests),
	}

	if config.Rate > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(config.Rate), 1)
	}

	concurrency := config.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	s.sem = make(chan struct{}, concurrency)

	return s
}

// Next claims the next request slot. It returns the zero based sequence
// number of the request and false once the budget is spent.
func (s *Scheduler) Next() (int64, bool) {
	n := s.issued.Add(1)
	if s.budget > 0 && n > s.budget {
		return 0, false
	}
	return n - 1, true
}

// Issued returns how many slots have been claimed, capped at the budget
func (s *Scheduler) Issued() int64 {
	n := s.issued.Load()
	if s.budget > 0 && n > s.budget {
		return s.budget
	}
	return n
}

// Wait waits for the rate limiter, or returns immediately when unpaced
func (s *Scheduler) Wait(ctx context.Context) error {
	if s.limiter != nil {
		return s.limiter.Wait(ctx)
	}
	return ctx.Err()
}

// Acquire acquires a slot from the concurrency semaphore
func (s *Scheduler) Acquire(ctx context.Context) error {
	select {
	case s.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release releases a slot back to the semaphore
func (s *Scheduler) Release() {
	<-s.sem
}
