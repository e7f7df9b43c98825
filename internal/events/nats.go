package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/autopipe/internal/config"
	"git.home.luguber.info/inful/autopipe/internal/foundation/errors"
)

const (
	natsStreamMaxAge = 7 * 24 * time.Hour
	natsSetupTimeout = 10 * time.Second
)

// NATSPublisher writes outcome events to a JetStream stream. The event ID is used as the
// message ID so JetStream de-duplicates redeliveries.
type NATSPublisher struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	subject string
	logger  *slog.Logger
}

// NewNATSPublisher connects and creates or updates the configured stream.
func NewNATSPublisher(ctx context.Context, cfg config.NATSConfig, logger *slog.Logger) (*NATSPublisher, error) {
	if cfg.URL == "" {
		return nil, errors.ConfigError("nats url is required").WithContext("field", "events.nats.url").Build()
	}
	if cfg.Subject == "" || cfg.Stream == "" {
		return nil, errors.ConfigError("nats stream and subject are required").WithContext("field", "events.nats").Build()
	}
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := nats.Connect(cfg.URL, nats.Name("autopipe"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryNetwork, "failed to connect to NATS").
			WithContext("url", cfg.URL).
			Build()
	}
	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, errors.WrapError(err, errors.CategoryRuntime, "failed to create JetStream context").Build()
	}

	setupCtx, cancel := context.WithTimeout(ctx, natsSetupTimeout)
	defer cancel()
	if _, err := js.CreateOrUpdateStream(setupCtx, jetstream.StreamConfig{
		Name:        cfg.Stream,
		Description: "autopipe build submit outcomes",
		Subjects:    []string{cfg.Subject},
		MaxAge:      natsStreamMaxAge,
	}); err != nil {
		conn.Close()
		return nil, errors.WrapError(err, errors.CategoryRuntime, "failed to create or update stream").
			WithContext("stream", cfg.Stream).
			Build()
	}

	logger.Info("NATS outcome publisher initialized",
		slog.String("url", cfg.URL),
		slog.String("stream", cfg.Stream),
		slog.String("subject", cfg.Subject))
	return &NATSPublisher{conn: conn, js: js, subject: cfg.Subject, logger: logger}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, ev OutcomeEvent) error {
	data, err := ev.Encode()
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to marshal outcome event").Build()
	}
	if _, err := p.js.Publish(ctx, p.subject, data, jetstream.WithMsgID(ev.ID)); err != nil {
		return errors.WrapError(err, errors.CategoryNetwork, "failed to publish outcome event").
			WithContext("subject", p.subject).
			Build()
	}
	p.logger.Debug("Published outcome event", slog.String("event_id", ev.ID), slog.String("subject", p.subject))
	return nil
}

func (p *NATSPublisher) Close() error {
	if p.conn != nil {
		return p.conn.Drain()
	}
	return nil
}
