package messaging

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func TestOutboxRunsDueSends(t *testing.T) {
	clock := clockwork.NewFakeClock()
	outbox := NewOutbox(WithClock(clock), WithPollInterval(100*time.Millisecond))

	var sent atomic.Int32
	outbox.Enqueue(2*time.Second, func(ctx context.Context) error {
		sent.Add(1)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go outbox.Run(ctx)

	// Before the delay elapses, nothing fires.
	clock.BlockUntilContext(ctx, 1)
	clock.Advance(1 * time.Second)
	waitFor(t, func() bool { return outbox.Len() == 1 })
	if got := sent.Load(); got != 0 {
		t.Fatalf("send fired early: %d", got)
	}

	clock.Advance(2 * time.Second)
	waitFor(t, func() bool { return sent.Load() == 1 })
	if outbox.Len() != 0 {
		t.Errorf("queue not drained: %d", outbox.Len())
	}
}

func TestOutboxRetriesFailedSends(t *testing.T) {
	clock := clockwork.NewFakeClock()
	outbox := NewOutbox(WithClock(clock), WithPollInterval(100*time.Millisecond))

	var attempts atomic.Int32
	outbox.Enqueue(0, func(ctx context.Context) error {
		if attempts.Add(1) == 1 {
			return errors.New("transient")
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go outbox.Run(ctx)

	clock.BlockUntilContext(ctx, 1)
	clock.Advance(200 * time.Millisecond)
	waitFor(t, func() bool { return attempts.Load() == 1 })

	// The retry is scheduled with backoff; advancing past it triggers the
	// second, successful attempt.
	clock.Advance(5 * time.Second)
	waitFor(t, func() bool { return attempts.Load() == 2 })
	if outbox.Len() != 0 {
		t.Errorf("queue not drained after retry: %d", outbox.Len())
	}
}

// waitFor polls cond for up to a second of real time.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	if !cond() {
		t.Fatal("condition not met within deadline")
	}
}
