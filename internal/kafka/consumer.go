package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
	"go.uber.org/fx"

	"dashgen-backend/config"
	"dashgen-backend/internal/model"
)

type ActivityConsumer interface {
	// FetchMessage returns the decoded event and the raw message. On a decode
	// error the raw message is still returned so it can be committed.
	FetchMessage(ctx context.Context) (*model.ActivityEvent, kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaActivityConsumer struct {
	reader messageReader
}

// NewKafkaActivityConsumer returns nil when the activity pipeline is disabled.
func NewKafkaActivityConsumer(lc fx.Lifecycle, cfg *config.Config) (ActivityConsumer, error) {
	if !cfg.Activity.Enabled {
		return nil, nil
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Kafka.Brokers,
		GroupID:        cfg.Kafka.ConsumerGroup,
		Topic:          cfg.Kafka.ActivityTopic,
		MinBytes:       1,
		MaxBytes:       10e6,             // 10MB
		MaxWait:        10 * time.Second, // Wait up to 10 second for data
		CommitInterval: 0,
		StartOffset:    kafka.FirstOffset,
	})
	c := &kafkaActivityConsumer{
		reader: reader,
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Info().Str("group", cfg.Kafka.ConsumerGroup).Msg("Closing Kafka consumer")
			return c.Close()
		},
	})
	log.Info().
		Strs("brokers", cfg.Kafka.Brokers).
		Str("topic", cfg.Kafka.ActivityTopic).
		Str("group", cfg.Kafka.ConsumerGroup).
		Msg("Kafka consumer initialized")
	return c, nil
}

func (c *kafkaActivityConsumer) FetchMessage(ctx context.Context) (*model.ActivityEvent, kafka.Message, error) {
	msg, err := c.reader.FetchMessage(ctx)
	if err != nil {
		return nil, kafka.Message{}, err
	}
	log.Debug().
		Str("topic", msg.Topic).
		Int("partition", msg.Partition).
		Int64("offset", msg.Offset).
		Msg("Fetched message from Kafka")
	var event model.ActivityEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		log.Error().Err(err).Int64("offset", msg.Offset).Msg("Failed to unmarshal Kafka message value")
		return nil, msg, err
	}
	return &event, msg, nil
}

func (c *kafkaActivityConsumer) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	if err := c.reader.CommitMessages(ctx, msgs...); err != nil {
		log.Error().Err(err).Int("count", len(msgs)).Msg("Failed to commit Kafka messages")
		return err
	}
	log.Debug().Int("count", len(msgs)).Int64("last_offset", msgs[len(msgs)-1].Offset).Msg("Committed Kafka messages")
	return nil
}

func (c *kafkaActivityConsumer) Close() error {
	return c.reader.Close()
}
