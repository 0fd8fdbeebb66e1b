package memory

import (
	"sync"
	"time"
)

// Scheduler is the in-process delayed-callback runner: fire-and-forget
// timers with no cancellation, matching the at-least-once contract callers
// must already tolerate. Timers still pending at Close never fire; handlers
// are nonce-guarded no-ops by contract, so nothing is lost.
type Scheduler struct {
	mu     sync.Mutex
	timers []*time.Timer
	closed bool
}

func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// RunAfter schedules fn to run once after roughly d.
func (s *Scheduler) RunAfter(d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.timers = append(s.timers, time.AfterFunc(d, fn))
}

// Close stops accepting work and drops pending timers.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for _, t := range s.timers {
		t.Stop()
	}
	s.timers = nil
}
