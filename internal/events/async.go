package events

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"git.home.luguber.info/inful/autopipe/internal/foundation/errors"
	"git.home.luguber.info/inful/autopipe/internal/logfields"
)

const (
	DefaultQueueSize      = 256
	DefaultPublishTimeout = 5 * time.Second
)

// Async queues events for a single background worker so Publish never waits on a broker.
// When the queue is full the event is dropped and Publish reports it.
type Async struct {
	next    Publisher
	timeout time.Duration
	logger  *slog.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan OutcomeEvent
	done   chan struct{}

	closeOnce sync.Once
	closeErr  error
}

// NewAsync starts the worker. Non-positive size or timeout select the defaults.
func NewAsync(next Publisher, size int, timeout time.Duration, logger *slog.Logger) *Async {
	if size <= 0 {
		size = DefaultQueueSize
	}
	if timeout <= 0 {
		timeout = DefaultPublishTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	a := &Async{
		next:    next,
		timeout: timeout,
		logger:  logger,
		queue:   make(chan OutcomeEvent, size),
		done:    make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *Async) Publish(_ context.Context, ev OutcomeEvent) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return errors.RuntimeError("event publisher is closed").Build()
	}
	select {
	case a.queue <- ev:
		return nil
	default:
		return errors.RuntimeError("outcome event queue full, event dropped").
			WithContext("request_id", ev.RequestID).
			WithContext("capacity", cap(a.queue)).
			Build()
	}
}

func (a *Async) run() {
	defer close(a.done)
	for ev := range a.queue {
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		if err := a.next.Publish(ctx, ev); err != nil {
			a.logger.Warn("Failed to publish outcome event",
				logfields.RequestID(ev.RequestID),
				logfields.JobName(ev.JobName),
				logfields.Error(err))
		}
		cancel()
	}
}

// Close stops accepting events, delivers those already queued and closes the wrapped publisher.
func (a *Async) Close() error {
	a.closeOnce.Do(func() {
		a.mu.Lock()
		a.closed = true
		close(a.queue)
		a.mu.Unlock()

		<-a.done
		a.closeErr = a.next.Close()
	})
	return a.closeErr
}
