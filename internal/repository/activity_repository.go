package repository

import (
	"context"

	"dashgen-backend/internal/dto"
)

// ActivityRepository searches indexed activity events.
type ActivityRepository interface {
	Search(ctx context.Context, req dto.ActivitySearchRequest) (*dto.ActivitySearchResponse, error)
}

// ActivityMetricRepository aggregates activity metrics over time ranges.
type ActivityMetricRepository interface {
	GetSummary(ctx context.Context, req dto.ActivitySummaryRequest) (*dto.ActivitySummaryResponse, error)
	GetDistribution(ctx context.Context, req dto.ActivityDistributionRequest) (*dto.ActivityDistributionResponse, error)
}
