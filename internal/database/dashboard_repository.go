package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"dashgen-backend/internal/model"
	"dashgen-backend/internal/repository"
)

type dashboardRow struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Owner     string    `gorm:"size:128;index:idx_owner_created,priority:1"`
	CreatedAt time.Time `gorm:"index:idx_owner_created,priority:2"`
	Title     string    `gorm:"size:255"`
	Config    string    `gorm:"type:longtext"`
	FilePath  string    `gorm:"size:512"`
}

func (dashboardRow) TableName() string {
	return "dashboards"
}

func toRow(rec *model.DashboardRecord) (*dashboardRow, error) {
	cfg, err := json.Marshal(rec.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to encode dashboard config: %w", err)
	}
	return &dashboardRow{
		ID:        rec.ID,
		Owner:     rec.Owner,
		CreatedAt: rec.CreatedAt.UTC(),
		Title:     rec.Title,
		Config:    string(cfg),
		FilePath:  rec.FilePath,
	}, nil
}

func (r *dashboardRow) record() (*model.DashboardRecord, error) {
	rec := &model.DashboardRecord{
		ID:        r.ID,
		Owner:     r.Owner,
		CreatedAt: r.CreatedAt,
		Title:     r.Title,
		FilePath:  r.FilePath,
	}
	if err := json.Unmarshal([]byte(r.Config), &rec.Config); err != nil {
		return nil, fmt.Errorf("corrupt config for dashboard %s: %w", r.ID, err)
	}
	return rec, nil
}

type mysqlDashboardRepository struct {
	db *gorm.DB
}

func NewDashboardRepository(db *gorm.DB) repository.DashboardRepository {
	return &mysqlDashboardRepository{db: db}
}

func (r *mysqlDashboardRepository) Save(ctx context.Context, rec *model.DashboardRecord) error {
	row, err := toRow(rec)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Save(row).Error; err != nil {
		log.Error().Err(err).Str("dashboard_id", rec.ID).Msg("Failed to save dashboard")
		return err
	}
	return nil
}

func (r *mysqlDashboardRepository) List(ctx context.Context, owner string) ([]model.HistoryItem, error) {
	var rows []dashboardRow
	err := r.db.WithContext(ctx).
		Select("id", "title", "created_at").
		Where("owner = ?", owner).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	items := make([]model.HistoryItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, model.HistoryItem{ID: row.ID, Title: row.Title, CreatedAt: row.CreatedAt})
	}
	return items, nil
}

func (r *mysqlDashboardRepository) Get(ctx context.Context, owner, id string) (*model.DashboardRecord, error) {
	var row dashboardRow
	err := r.db.WithContext(ctx).Where("owner = ? AND id = ?", owner, id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrDashboardNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.record()
}

func (r *mysqlDashboardRepository) Delete(ctx context.Context, owner, id string) error {
	res := r.db.WithContext(ctx).Where("owner = ? AND id = ?", owner, id).Delete(&dashboardRow{})
	if res.Error != nil {
		log.Error().Err(res.Error).Str("dashboard_id", id).Msg("Failed to delete dashboard")
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrDashboardNotFound
	}
	return nil
}

func (r *mysqlDashboardRepository) FilePaths(ctx context.Context) (map[string]bool, error) {
	var paths []string
	if err := r.db.WithContext(ctx).Model(&dashboardRow{}).Distinct().Pluck("file_path", &paths).Error; err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(paths))
	for _, p := range paths {
		if p != "" {
			out[p] = true
		}
	}
	return out, nil
}
