package repository

import (
	"context"
	"errors"

	"dashgen-backend/internal/model"
)

var ErrDashboardNotFound = errors.New("dashboard not found")

// DashboardRepository persists generated dashboards per owner.
type DashboardRepository interface {
	Save(ctx context.Context, rec *model.DashboardRecord) error
	// List returns the owner's dashboards, newest first.
	List(ctx context.Context, owner string) ([]model.HistoryItem, error)
	Get(ctx context.Context, owner, id string) (*model.DashboardRecord, error)
	Delete(ctx context.Context, owner, id string) error
	// FilePaths returns every upload path referenced by a stored dashboard.
	FilePaths(ctx context.Context) (map[string]bool, error)
}
