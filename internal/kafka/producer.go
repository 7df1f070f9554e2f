package kafka

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
	"go.uber.org/fx"

	"dashgen-backend/config"
	"dashgen-backend/internal/model"
)

type ActivityProducer interface {
	Produce(ctx context.Context, events []model.ActivityEvent) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaActivityProducer struct {
	writer messageWriter
	topic  string
}

// NewKafkaActivityProducer returns nil when the activity pipeline is disabled.
func NewKafkaActivityProducer(lc fx.Lifecycle, cfg *config.Config) (ActivityProducer, error) {
	if !cfg.Activity.Enabled {
		return nil, nil
	}
	if len(cfg.Kafka.Brokers) == 0 || cfg.Kafka.ActivityTopic == "" {
		log.Error().Msg("Kafka brokers or activity topic is not configured.")
		return nil, errors.New("kafka configuration missing")
	}
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:      cfg.Kafka.Brokers,
		Topic:        cfg.Kafka.ActivityTopic,
		Balancer:     &kafka.Hash{},
		BatchSize:    cfg.Activity.BatchSize,
		BatchTimeout: cfg.Activity.MaxBatchWait,
		Async:        true,
	})
	p := &kafkaActivityProducer{
		writer: writer,
		topic:  cfg.Kafka.ActivityTopic,
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Closing Kafka producer")
			return p.Close()
		},
	})
	log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.ActivityTopic).Msg("Kafka producer initialized")
	return p, nil
}

// Produce keys messages by session so one session's events stay ordered.
func (p *kafkaActivityProducer) Produce(ctx context.Context, events []model.ActivityEvent) error {
	if len(events) == 0 {
		return nil
	}
	messages := make([]kafka.Message, 0, len(events))
	for _, event := range events {
		value, err := json.Marshal(event)
		if err != nil {
			log.Error().Err(err).Str("action", event.Action).Msg("Failed to marshal activity event for Kafka")
			continue
		}
		messages = append(messages, kafka.Message{
			Key:   []byte(event.SessionID),
			Value: value,
		})
	}
	if len(messages) == 0 {
		log.Warn().Msg("No valid messages to produce.")
		return nil
	}

	if err := p.writer.WriteMessages(ctx, messages...); err != nil {
		log.Error().Err(err).Int("message_count", len(messages)).Msg("Failed to write messages to Kafka")
		return err
	}
	log.Debug().Int("message_count", len(messages)).Str("topic", p.topic).Msg("Successfully produced messages to Kafka")
	return nil
}

func (p *kafkaActivityProducer) Close() error {
	return p.writer.Close()
}
