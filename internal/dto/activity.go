package dto

import (
	"time"

	"dashgen-backend/internal/model"
)

type ActivitySearchRequest struct {
	StartTime   time.Time
	EndTime     time.Time
	Query       string
	Actions     []string
	Owners      []string
	DashboardID string
	SortOrder   string
	Page        int
	Size        int
}

type ActivitySearchResponse struct {
	Events     []model.ActivityEvent `json:"events"`
	TotalCount int64                 `json:"totalCount"`
	Page       int                   `json:"page"`
	Size       int                   `json:"size"`
}

type ActivitySummaryRequest struct {
	StartTime time.Time
	EndTime   time.Time
	Owners    []string
}

type ActivitySummaryResponse struct {
	Total    int64            `json:"total"`
	Errors   int64            `json:"errors"`
	ByAction map[string]int64 `json:"byAction"`
}

type ActivityDistributionRequest struct {
	StartTime time.Time
	EndTime   time.Time
	Owners    []string
	GroupBy   string // action, owner, dashboard or outcome
	Limit     int
}

type DistributionBucket struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

type ActivityDistributionResponse struct {
	GroupBy string               `json:"groupBy"`
	Buckets []DistributionBucket `json:"buckets"`
}
