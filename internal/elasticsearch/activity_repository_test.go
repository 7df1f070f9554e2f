package elasticsearch

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dashgen-backend/internal/dto"
)

func TestBuildSearchRequest(t *testing.T) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	req := dto.ActivitySearchRequest{
		StartTime:   start,
		EndTime:     start.Add(24 * time.Hour),
		Query:       "region",
		Actions:     []string{"filter"},
		Owners:      []string{"alice"},
		DashboardID: "d1",
		SortOrder:   "asc",
		Page:        3,
		Size:        20,
	}

	raw, err := json.Marshal(buildSearchRequest(req))
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.EqualValues(t, 40, body["from"])
	assert.EqualValues(t, 20, body["size"])

	filters := body["query"].(map[string]any)["bool"].(map[string]any)["filter"].([]any)
	assert.Len(t, filters, 5)
	assert.Contains(t, string(raw), `"gte":"2024-05-01T00:00:00Z"`)
	assert.Contains(t, string(raw), `"action":["filter"]`)
	assert.Contains(t, string(raw), `"dashboard_id":["d1"]`)
	assert.Contains(t, string(raw), `"order":"asc"`)
}

func TestIndexName(t *testing.T) {
	ts := time.Date(2024, 5, 1, 23, 30, 0, 0, time.FixedZone("ICT", 7*3600))
	assert.Equal(t, "dashboard-activity-2024-05-01", IndexName("dashboard-activity", ts))
}
