package scheduler

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestSchedulerRunsJob(t *testing.T) {
	s, err := NewScheduler()
	if err != nil {
		t.Fatalf("NewScheduler error: %v", err)
	}
	defer s.Stop()

	var runs atomic.Int32
	if err := s.Every(10*time.Millisecond, "tick", func() { runs.Add(1) }); err != nil {
		t.Fatalf("Every error: %v", err)
	}
	s.Start()

	deadline := time.After(2 * time.Second)
	for runs.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("job never ran")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestSchedulerRecoversFromPanic(t *testing.T) {
	s, err := NewScheduler()
	if err != nil {
		t.Fatalf("NewScheduler error: %v", err)
	}
	defer s.Stop()

	var runs atomic.Int32
	if err := s.Every(10*time.Millisecond, "boom", func() {
		if runs.Add(1) == 1 {
			panic("boom")
		}
	}); err != nil {
		t.Fatalf("Every error: %v", err)
	}
	s.Start()

	deadline := time.After(2 * time.Second)
	for runs.Load() < 2 {
		select {
		case <-deadline:
			t.Fatal("scheduler did not survive a panicking job")
		case <-time.After(5 * time.Millisecond):
		}
	}
}
