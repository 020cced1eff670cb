package messaging

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Outbox constants.
const (
	// DefaultOutboxPollInterval is how often the queue is checked for due sends.
	DefaultOutboxPollInterval = 500 * time.Millisecond
	// DefaultOutboxMaxAttempts bounds retries for a failing send.
	DefaultOutboxMaxAttempts = 3
)

// SendFunc performs one outbound delivery.
type SendFunc func(ctx context.Context) error

// Outbox is an in-memory queue for delayed outbound sends (follow-up
// messages sent a few seconds after the main reply). Failed sends retry
// with exponential backoff. The clock is injectable for tests.
type Outbox struct {
	mu           sync.Mutex
	queue        []*queuedSend
	clock        clockwork.Clock
	pollInterval time.Duration
	maxAttempts  int
}

type queuedSend struct {
	due      time.Time
	attempts int
	fn       SendFunc
}

// OutboxOption configures an Outbox.
type OutboxOption func(*Outbox)

// WithClock injects a clock (tests use a fake clock).
func WithClock(c clockwork.Clock) OutboxOption {
	return func(o *Outbox) { o.clock = c }
}

// WithPollInterval overrides the queue poll interval.
func WithPollInterval(d time.Duration) OutboxOption {
	return func(o *Outbox) { o.pollInterval = d }
}

// NewOutbox creates an Outbox with the given options.
func NewOutbox(opts ...OutboxOption) *Outbox {
	o := &Outbox{
		clock:        clockwork.NewRealClock(),
		pollInterval: DefaultOutboxPollInterval,
		maxAttempts:  DefaultOutboxMaxAttempts,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Enqueue schedules fn to run after delay.
func (o *Outbox) Enqueue(delay time.Duration, fn SendFunc) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.queue = append(o.queue, &queuedSend{due: o.clock.Now().Add(delay), fn: fn})
	slog.Debug("Outbox enqueued send", "delay", delay, "queue_len", len(o.queue))
}

// Len reports the number of pending sends.
func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.queue)
}

// Run polls the queue until the context is cancelled.
func (o *Outbox) Run(ctx context.Context) {
	slog.Info("Outbox starting", "pollInterval", o.pollInterval)
	ticker := o.clock.NewTicker(o.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Outbox stopping")
			return
		case <-ticker.Chan():
			o.poll(ctx)
		}
	}
}

// poll runs every due send once, retrying failures with backoff.
func (o *Outbox) poll(ctx context.Context) {
	now := o.clock.Now()

	o.mu.Lock()
	var due []*queuedSend
	remaining := o.queue[:0]
	for _, item := range o.queue {
		if !item.due.After(now) {
			due = append(due, item)
		} else {
			remaining = append(remaining, item)
		}
	}
	o.queue = remaining
	o.mu.Unlock()

	for _, item := range due {
		if err := item.fn(ctx); err != nil {
			item.attempts++
			if item.attempts >= o.maxAttempts {
				slog.Error("Outbox send failed permanently", "error", err, "attempts", item.attempts)
				continue
			}
			backoff := time.Duration(1<<item.attempts) * time.Second
			item.due = now.Add(backoff)
			slog.Warn("Outbox send failed, retrying", "error", err, "attempts", item.attempts, "backoff", backoff)
			o.mu.Lock()
			o.queue = append(o.queue, item)
			o.mu.Unlock()
		}
	}
}
