package model

import "time"

const (
	ActionUpload   = "upload"
	ActionGenerate = "generate"
	ActionOpen     = "open"
	ActionFilter   = "filter"
	ActionDelete   = "delete"
	ActionReset    = "reset"
)

const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// ActivityEvent is one user-facing dashboard action, published to Kafka and
// indexed in Elasticsearch.
type ActivityEvent struct {
	Timestamp   time.Time         `json:"@timestamp"`
	SessionID   string            `json:"session_id"`
	Owner       string            `json:"owner"`
	DashboardID string            `json:"dashboard_id,omitempty"`
	Action      string            `json:"action"`
	ComponentID string            `json:"component_id,omitempty"`
	Filters     map[string]string `json:"filters,omitempty"`
	Outcome     string            `json:"outcome"`
	Detail      string            `json:"detail,omitempty"`
}
