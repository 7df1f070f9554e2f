package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	kafkaGo "github.com/segmentio/kafka-go"

	"dashgen-backend/config"
	"dashgen-backend/internal/elasticsearch"
	"dashgen-backend/internal/kafka"
	"dashgen-backend/internal/metrics"
	"dashgen-backend/internal/model"
	"dashgen-backend/internal/timescaledb"
)

type ActivityConsumerService interface {
	Run(ctx context.Context, wg *sync.WaitGroup)
}

type activityConsumerService struct {
	consumer    kafka.ActivityConsumer
	eventStore  elasticsearch.ActivityStore
	metricStore timescaledb.MetricStore
	extractor   metrics.Extractor
	batchSize   int
	maxWaitTime time.Duration
	retryDelay  time.Duration
}

// NewActivityConsumerService returns nil when there is no consumer, which is
// the case when the activity pipeline is disabled.
func NewActivityConsumerService(
	consumer kafka.ActivityConsumer,
	eventStore elasticsearch.ActivityStore,
	metricStore timescaledb.MetricStore,
	extractor metrics.Extractor,
	cfg *config.Config,
) ActivityConsumerService {
	if consumer == nil {
		return nil
	}
	batchSize := cfg.Activity.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	maxWaitTime := cfg.Activity.MaxBatchWait
	if maxWaitTime <= 0 {
		maxWaitTime = 5 * time.Second
	}
	return &activityConsumerService{
		consumer:    consumer,
		eventStore:  eventStore,
		metricStore: metricStore,
		extractor:   extractor,
		batchSize:   batchSize,
		maxWaitTime: maxWaitTime,
		retryDelay:  time.Second,
	}
}

func (s *activityConsumerService) Run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	log.Info().Msg("Starting activity consumer loop...")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Activity consumer loop stopping due to context cancellation.")
			return
		default:
		}

		if err := s.processBatch(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				log.Info().Msg("Context cancelled during batch processing.")
				return
			}
			log.Error().Err(err).Msg("Error processing activity batch")
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.retryDelay):
			}
		}
	}
}

// processBatch collects up to batchSize messages or whatever arrives within
// maxWaitTime, stores them and commits only when every store succeeded.
// Messages that fail to decode are committed without being stored.
func (s *activityConsumerService) processBatch(ctx context.Context) error {
	events := make([]model.ActivityEvent, 0, s.batchSize)
	messages := make([]kafkaGo.Message, 0, s.batchSize)
	deadline := time.Now().Add(s.maxWaitTime)

fetch:
	for len(messages) < s.batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		fetchCtx, cancel := context.WithDeadline(ctx, deadline)
		event, msg, err := s.consumer.FetchMessage(fetchCtx)
		cancel()

		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				log.Debug().Int("batch_size", len(messages)).Msg("Max wait time reached, processing partial batch.")
				break fetch
			}
			if msg.Topic != "" {
				log.Warn().Int64("offset", msg.Offset).Msg("Tracking undecodable message for commit.")
				messages = append(messages, msg)
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("failed to fetch kafka message: %w", err)
		}
		events = append(events, *event)
		messages = append(messages, msg)
	}

	if len(messages) == 0 {
		log.Debug().Msg("No messages in batch to process.")
		return nil
	}
	log.Debug().Int("batch_size", len(messages)).Int("events", len(events)).Msg("Processing activity batch...")

	if s.eventStore != nil {
		if err := s.eventStore.StoreEvents(ctx, events); err != nil {
			return fmt.Errorf("failed storing activity events: %w", err)
		}
	}

	if s.metricStore != nil && s.extractor != nil {
		metricEvents := make([]model.MetricEvent, 0, len(events)*2)
		for i := range events {
			metricEvents = append(metricEvents, s.extractor.ExtractMetricEvents(&events[i])...)
		}
		if err := s.metricStore.StoreMetricEvents(ctx, metricEvents); err != nil {
			return fmt.Errorf("failed storing activity metrics: %w", err)
		}
	}

	if err := s.consumer.CommitMessages(ctx, messages...); err != nil {
		log.Error().Err(err).Msg("Failed to commit Kafka messages after successful storage")
		return fmt.Errorf("failed committing kafka messages: %w", err)
	}
	log.Info().Int("batch_size", len(messages)).Msg("Successfully processed and committed activity batch.")
	return nil
}
