package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"dashgen-backend/internal/kafka"
	"dashgen-backend/internal/model"
)

// ActivityPublisher records dashboard actions. Publishing never fails the
// action it describes.
type ActivityPublisher interface {
	Publish(ctx context.Context, event model.ActivityEvent)
}

type activityPublisher struct {
	producer kafka.ActivityProducer
	now      func() time.Time
}

// NewActivityPublisher accepts a nil producer, in which case events are
// only logged at debug level.
func NewActivityPublisher(producer kafka.ActivityProducer) ActivityPublisher {
	return &activityPublisher{producer: producer, now: time.Now}
}

func (p *activityPublisher) Publish(ctx context.Context, event model.ActivityEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = p.now().UTC()
	}
	if event.Outcome == "" {
		event.Outcome = model.OutcomeOK
	}
	log.Debug().
		Str("action", event.Action).
		Str("session_id", event.SessionID).
		Str("dashboard_id", event.DashboardID).
		Str("outcome", event.Outcome).
		Msg("Dashboard activity")
	if p.producer == nil {
		return
	}
	if err := p.producer.Produce(context.WithoutCancel(ctx), []model.ActivityEvent{event}); err != nil {
		log.Warn().Err(err).Str("action", event.Action).Msg("Failed to publish activity event")
	}
}
