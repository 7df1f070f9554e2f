package service

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"dashgen-backend/config"
	"dashgen-backend/internal/dataset"
	"dashgen-backend/internal/repository"
	"dashgen-backend/internal/store"
)

type MaintenanceService interface {
	// SweepSessions drops sessions idle for longer than the session TTL.
	SweepSessions(ctx context.Context) int
	// CleanupUploads removes uploaded files older than the retention period
	// that no session and no saved dashboard refers to.
	CleanupUploads(ctx context.Context) (int, error)
}

type maintenanceService struct {
	sessions   store.SessionStore
	history    repository.DashboardRepository
	loader     dataset.Loader
	sessionTTL time.Duration
	retention  time.Duration
	now        func() time.Time
}

func NewMaintenanceService(
	sessions store.SessionStore,
	history repository.DashboardRepository,
	loader dataset.Loader,
	cfg *config.Config,
) MaintenanceService {
	return &maintenanceService{
		sessions:   sessions,
		history:    history,
		loader:     loader,
		sessionTTL: cfg.Session.TTL,
		retention:  cfg.Upload.Retention,
		now:        time.Now,
	}
}

func (s *maintenanceService) SweepSessions(ctx context.Context) int {
	if s.sessionTTL <= 0 {
		return 0
	}
	removed := s.sessions.Sweep(ctx, s.sessionTTL)
	if removed > 0 {
		log.Info().Int("removed", removed).Dur("ttl", s.sessionTTL).Msg("Swept idle sessions")
	}
	return removed
}

func (s *maintenanceService) CleanupUploads(ctx context.Context) (int, error) {
	if s.retention <= 0 {
		return 0, nil
	}
	referenced, err := s.history.FilePaths(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing saved dashboard files: %w", err)
	}
	for f := range s.sessions.ReferencedFiles(ctx) {
		referenced[f] = true
	}

	root := s.loader.Root()
	cutoff := s.now().Add(-s.retention)
	removed := 0
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if referenced[rel] {
			return nil
		}
		info, err := d.Info()
		if err != nil || info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil {
			log.Warn().Err(err).Str("file", rel).Msg("Failed to remove expired upload")
			return nil
		}
		s.loader.Invalidate(rel)
		removed++
		return nil
	})
	if err != nil {
		return removed, fmt.Errorf("walking upload dir: %w", err)
	}
	if removed > 0 {
		log.Info().Int("removed", removed).Msg("Removed expired uploads")
	}
	return removed, nil
}
