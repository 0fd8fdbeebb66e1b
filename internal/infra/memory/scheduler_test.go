package memory

import (
	"testing"
	"time"
)

func TestSchedulerRunsCallback(t *testing.T) {
	s := NewScheduler()
	defer s.Close()

	done := make(chan struct{})
	s.RunAfter(5*time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("callback never fired")
	}
}

func TestSchedulerCloseDropsPending(t *testing.T) {
	s := NewScheduler()

	fired := make(chan struct{}, 2)
	s.RunAfter(50*time.Millisecond, func() { fired <- struct{}{} })
	s.Close()
	s.RunAfter(time.Millisecond, func() { fired <- struct{}{} })

	select {
	case <-fired:
		t.Fatalf("callback fired after close")
	case <-time.After(150 * time.Millisecond):
	}
}
