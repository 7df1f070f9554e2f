package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"dashgen-backend/internal/dataset"
	"dashgen-backend/internal/dto"
	"dashgen-backend/internal/filter"
	"dashgen-backend/internal/model"
	"dashgen-backend/internal/render"
	"dashgen-backend/internal/repository"
	"dashgen-backend/internal/store"
)

// HistoryService serves stored dashboards by owner, independent of any
// session.
type HistoryService interface {
	List(ctx context.Context, owner string) ([]model.HistoryItem, error)
	Get(ctx context.Context, owner, id string) (*dto.DashboardDataResponse, error)
	Delete(ctx context.Context, owner, id string) error
	// Filter recomputes every component of a stored dashboard under filters.
	Filter(ctx context.Context, owner, id string, filters map[string]string) (*dto.FilterDashboardResponse, error)
}

type historyService struct {
	repo     repository.DashboardRepository
	loader   dataset.Loader
	renderer *render.Renderer
	sessions store.SessionStore
}

func NewHistoryService(repo repository.DashboardRepository, loader dataset.Loader, renderer *render.Renderer, sessions store.SessionStore) HistoryService {
	return &historyService{repo: repo, loader: loader, renderer: renderer, sessions: sessions}
}

func ownerOrDefault(owner string) string {
	if owner == "" {
		return store.DefaultOwner
	}
	return owner
}

func (s *historyService) List(ctx context.Context, owner string) ([]model.HistoryItem, error) {
	items, err := s.repo.List(ctx, ownerOrDefault(owner))
	if err != nil {
		log.Error().Err(err).Str("owner", owner).Msg("Failed to list dashboards")
		return nil, fail(LoadFailure, "could not list dashboards", err)
	}
	return items, nil
}

func (s *historyService) Get(ctx context.Context, owner, id string) (*dto.DashboardDataResponse, error) {
	rec, err := s.repo.Get(ctx, ownerOrDefault(owner), id)
	if err != nil {
		return nil, fail(LoadFailure, "could not load dashboard", err)
	}
	table, err := loadRecordTable(ctx, s.loader, rec)
	if err != nil {
		return nil, fail(LoadFailure, "could not read the dashboard data", err)
	}
	rows := table.Rows
	if rows == nil {
		rows = []model.Row{}
	}
	types := table.Types
	if types == nil {
		types = map[string]string{}
	}
	return &dto.DashboardDataResponse{
		ID:       rec.ID,
		Title:    rec.Title,
		Config:   rec.Config,
		Data:     rows,
		ColTypes: types,
	}, nil
}

// Delete removes the dashboard and resets every session that had it open.
func (s *historyService) Delete(ctx context.Context, owner, id string) error {
	owner = ownerOrDefault(owner)
	if err := s.repo.Delete(ctx, owner, id); err != nil {
		log.Error().Err(err).Str("dashboard_id", id).Msg("Failed to delete dashboard")
		return fail(DeleteFailure, "could not delete dashboard", err)
	}
	for _, sess := range s.sessions.All(ctx) {
		if sess.Owner == owner && sess.DashboardDeleted(id) {
			log.Info().Str("session_id", sess.ID).Str("dashboard_id", id).Msg("Reset session showing deleted dashboard")
		}
	}
	log.Info().Str("owner", owner).Str("dashboard_id", id).Msg("Dashboard deleted")
	return nil
}

func (s *historyService) Filter(ctx context.Context, owner, id string, filters map[string]string) (*dto.FilterDashboardResponse, error) {
	rec, err := s.repo.Get(ctx, ownerOrDefault(owner), id)
	if err != nil {
		return nil, fail(FilterFailure, "could not load dashboard", err)
	}
	table, err := loadRecordTable(ctx, s.loader, rec)
	if err != nil {
		return nil, fail(FilterFailure, "could not read the dashboard data", err)
	}
	cfg := rec.Config
	if err := cfg.Validate(); err != nil {
		return nil, fail(FilterFailure, "stored dashboard is invalid", err)
	}

	fc := filter.FromMap(filters)
	filtered := table.WithRows(fc.Apply(table.Rows))
	components, err := s.renderer.ComputeAll(&cfg, filtered)
	if err != nil {
		return nil, fail(FilterFailure, "could not recompute the dashboard", err)
	}
	log.Info().Str("dashboard_id", id).Int("filters", fc.Len()).Int("rows", filtered.Len()).Msg("Filtered dashboard")
	return &dto.FilterDashboardResponse{ID: rec.ID, RowCount: filtered.Len(), Components: components}, nil
}
