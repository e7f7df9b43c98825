// Package events publishes the outcome of every build submit to optional message brokers.
// Publication is best effort: callers log failures and never let them alter an outcome.
package events

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"
)

// OutcomeEvent describes one finished submit. It never carries credentials or code.
type OutcomeEvent struct {
	ID            string    `json:"id"`
	RequestID     string    `json:"request_id"`
	JobName       string    `json:"job_name"`
	Server        string    `json:"server"`
	Succeeded     bool      `json:"succeeded"`
	Provisioned   bool      `json:"provisioned"`
	Category      string    `json:"category,omitempty"`
	Message       string    `json:"message"`
	QueueLocation string    `json:"queue_location,omitempty"`
	DurationMS    int64     `json:"duration_ms"`
	Timestamp     time.Time `json:"timestamp"`
}

// Encode renders the event as JSON, the wire format of every publisher.
func (e OutcomeEvent) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher delivers outcome events.
type Publisher interface {
	Publish(ctx context.Context, ev OutcomeEvent) error
	Close() error
}

// NoopPublisher drops every event (default when no sink is configured).
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, OutcomeEvent) error { return nil }
func (NoopPublisher) Close() error                                { return nil }

// multi fans out to several publishers.
type multi []Publisher

// Multi returns a Publisher delivering to all of ps. Every publisher is attempted; errors are
// joined. With no publishers it behaves like NoopPublisher.
func Multi(ps ...Publisher) Publisher {
	out := make(multi, 0, len(ps))
	for _, p := range ps {
		if p == nil {
			continue
		}
		if _, noop := p.(NoopPublisher); noop {
			continue
		}
		out = append(out, p)
	}
	switch len(out) {
	case 0:
		return NoopPublisher{}
	case 1:
		return out[0]
	}
	return out
}

func (m multi) Publish(ctx context.Context, ev OutcomeEvent) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

func (m multi) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}
