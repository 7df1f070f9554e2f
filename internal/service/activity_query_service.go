package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"dashgen-backend/internal/dto"
	"dashgen-backend/internal/repository"
)

var ErrActivityDisabled = errors.New("activity pipeline is disabled")

type ActivityQueryService interface {
	Search(ctx context.Context, req dto.ActivitySearchRequest) (*dto.ActivitySearchResponse, error)
	Summary(ctx context.Context, req dto.ActivitySummaryRequest) (*dto.ActivitySummaryResponse, error)
	Distribution(ctx context.Context, req dto.ActivityDistributionRequest) (*dto.ActivityDistributionResponse, error)
}

type activityQueryService struct {
	eventRepo  repository.ActivityRepository
	metricRepo repository.ActivityMetricRepository
}

// NewActivityQueryService returns nil when neither repository is available.
func NewActivityQueryService(eventRepo repository.ActivityRepository, metricRepo repository.ActivityMetricRepository) ActivityQueryService {
	if eventRepo == nil && metricRepo == nil {
		return nil
	}
	return &activityQueryService{
		eventRepo:  eventRepo,
		metricRepo: metricRepo,
	}
}

var allowedGroupBy = map[string]bool{"action": true, "owner": true, "dashboard": true, "outcome": true}

// ValidationError marks a request the caller got wrong.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func validateRange(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return invalid("startTime and endTime are required")
	}
	if end.Before(start) {
		return invalid("endTime cannot be before startTime")
	}
	return nil
}

func (s *activityQueryService) Search(ctx context.Context, req dto.ActivitySearchRequest) (*dto.ActivitySearchResponse, error) {
	if s.eventRepo == nil {
		return nil, ErrActivityDisabled
	}
	if err := validateRange(req.StartTime, req.EndTime); err != nil {
		return nil, err
	}
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.Size <= 0 || req.Size > 1000 {
		req.Size = 100
	}
	req.SortOrder = strings.ToLower(req.SortOrder)
	if req.SortOrder != "asc" && req.SortOrder != "desc" {
		req.SortOrder = "desc"
	}
	for i, action := range req.Actions {
		req.Actions[i] = strings.ToLower(action)
	}

	log.Info().
		Time("start_time", req.StartTime).
		Time("end_time", req.EndTime).
		Str("query", req.Query).
		Strs("actions", req.Actions).
		Strs("owners", req.Owners).
		Int("page", req.Page).
		Int("size", req.Size).
		Msg("Searching activity")
	return s.eventRepo.Search(ctx, req)
}

func (s *activityQueryService) Summary(ctx context.Context, req dto.ActivitySummaryRequest) (*dto.ActivitySummaryResponse, error) {
	if s.metricRepo == nil {
		return nil, ErrActivityDisabled
	}
	if err := validateRange(req.StartTime, req.EndTime); err != nil {
		return nil, err
	}
	log.Info().Time("start", req.StartTime).Time("end", req.EndTime).Strs("owners", req.Owners).Msg("Getting activity summary")
	return s.metricRepo.GetSummary(ctx, req)
}

func (s *activityQueryService) Distribution(ctx context.Context, req dto.ActivityDistributionRequest) (*dto.ActivityDistributionResponse, error) {
	if s.metricRepo == nil {
		return nil, ErrActivityDisabled
	}
	if err := validateRange(req.StartTime, req.EndTime); err != nil {
		return nil, err
	}
	req.GroupBy = strings.ToLower(req.GroupBy)
	if req.GroupBy == "" {
		req.GroupBy = "action"
	}
	if !allowedGroupBy[req.GroupBy] {
		return nil, invalid("invalid groupBy: %s", req.GroupBy)
	}
	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 10
	}
	log.Info().
		Time("start", req.StartTime).
		Time("end", req.EndTime).
		Str("group_by", req.GroupBy).
		Int("limit", req.Limit).
		Msg("Getting activity distribution")
	return s.metricRepo.GetDistribution(ctx, req)
}
