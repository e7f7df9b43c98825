package events

import (
	"context"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"git.home.luguber.info/inful/autopipe/internal/config"
	"git.home.luguber.info/inful/autopipe/internal/foundation/errors"
)

// KafkaPublisher produces outcome events to a Kafka (or Redpanda) topic, keyed by job name so
// events of one job stay ordered within a partition.
type KafkaPublisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// NewKafkaPublisher creates the producer client. Brokers are contacted lazily on first publish.
func NewKafkaPublisher(cfg config.KafkaConfig, logger *slog.Logger) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.ConfigError("at least one kafka broker is required").WithContext("field", "events.kafka.brokers").Build()
	}
	if cfg.Topic == "" {
		return nil, errors.ConfigError("kafka topic is required").WithContext("field", "events.kafka.topic").Build()
	}
	if logger == nil {
		logger = slog.Default()
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.AllowAutoTopicCreation(),
		kgo.ClientID("autopipe"),
	)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to create kafka client").Build()
	}
	logger.Info("Kafka outcome publisher initialized",
		slog.Any("brokers", cfg.Brokers),
		slog.String("topic", cfg.Topic))
	return &KafkaPublisher{client: client, topic: cfg.Topic, logger: logger}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev OutcomeEvent) error {
	data, err := ev.Encode()
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to marshal outcome event").Build()
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(ev.JobName),
		Value: data,
		Headers: []kgo.RecordHeader{
			{Key: "event_id", Value: []byte(ev.ID)},
		},
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return errors.WrapError(err, errors.CategoryNetwork, "failed to produce outcome event").
			WithContext("topic", p.topic).
			Build()
	}
	p.logger.Debug("Produced outcome event", slog.String("event_id", ev.ID), slog.String("topic", p.topic))
	return nil
}

func (p *KafkaPublisher) Close() error {
	p.client.Close()
	return nil
}
