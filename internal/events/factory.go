package events

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/autopipe/internal/config"
)

// FromConfig builds the publisher set described by cfg. Sinks that fail to start close the ones
// already opened. Configured sinks are delivered to in the background through Async.
func FromConfig(ctx context.Context, cfg config.EventsConfig, logger *slog.Logger) (Publisher, error) {
	var ps []Publisher
	if cfg.NATS != nil {
		p, err := NewNATSPublisher(ctx, *cfg.NATS, logger)
		if err != nil {
			return nil, err
		}
		ps = append(ps, p)
	}
	if cfg.Kafka != nil {
		p, err := NewKafkaPublisher(*cfg.Kafka, logger)
		if err != nil {
			_ = Multi(ps...).Close()
			return nil, err
		}
		ps = append(ps, p)
	}
	p := Multi(ps...)
	if _, noop := p.(NoopPublisher); noop {
		return p, nil
	}
	return NewAsync(p, DefaultQueueSize, DefaultPublishTimeout, logger), nil
}
