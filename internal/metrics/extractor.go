package metrics

import (
	"sort"

	"github.com/rs/zerolog/log"

	"dashgen-backend/internal/model"
)

const (
	MetricAction = "dashboard_action"
	MetricFilter = "filter_applied"
	MetricError  = "action_error"
)

type Extractor interface {
	ExtractMetricEvents(event *model.ActivityEvent) []model.MetricEvent
}

type activityExtractor struct{}

func NewActivityExtractor() Extractor {
	return &activityExtractor{}
}

// ExtractMetricEvents emits one dashboard_action per event, one
// filter_applied per active filter column and an action_error when the
// action failed.
func (e *activityExtractor) ExtractMetricEvents(event *model.ActivityEvent) []model.MetricEvent {
	if event == nil {
		return nil
	}
	outcome := event.Outcome
	if outcome == "" {
		outcome = model.OutcomeOK
	}
	ts := event.Timestamp

	events := make([]model.MetricEvent, 0, 2+len(event.Filters))
	events = append(events, model.MetricEvent{
		Time:       ts,
		MetricName: MetricAction,
		Owner:      event.Owner,
		Tags: map[string]string{
			"action":       event.Action,
			"outcome":      outcome,
			"dashboard_id": event.DashboardID,
		},
	})

	if event.Action == model.ActionFilter && outcome == model.OutcomeOK {
		columns := make([]string, 0, len(event.Filters))
		for column := range event.Filters {
			columns = append(columns, column)
		}
		sort.Strings(columns)
		for _, column := range columns {
			events = append(events, model.MetricEvent{
				Time:       ts,
				MetricName: MetricFilter,
				Owner:      event.Owner,
				Tags: map[string]string{
					"column":       column,
					"value":        event.Filters[column],
					"dashboard_id": event.DashboardID,
				},
			})
		}
	}

	if outcome == model.OutcomeError {
		events = append(events, model.MetricEvent{
			Time:       ts,
			MetricName: MetricError,
			Owner:      event.Owner,
			Tags: map[string]string{
				"action": event.Action,
				"detail": event.Detail,
			},
		})
	}

	log.Trace().Str("owner", event.Owner).Str("action", event.Action).Int("event_count", len(events)).Msg("Extracted metric events")
	return events
}
