// Package filestore keeps dashboard history as one JSON document per
// dashboard under <dir>/<owner>/<id>.json.
package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"dashgen-backend/internal/model"
	"dashgen-backend/internal/repository"
)

var safeName = regexp.MustCompile(`[^A-Za-z0-9._@-]`)

type fileDashboardRepository struct {
	dir string
	mu  sync.RWMutex
}

func NewDashboardRepository(dir string) (repository.DashboardRepository, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory %q: %w", dir, err)
	}
	log.Info().Str("dir", dir).Msg("File dashboard history initialized")
	return &fileDashboardRepository{dir: dir}, nil
}

func ownerDir(owner string) string {
	name := safeName.ReplaceAllString(owner, "_")
	if name == "" || strings.Trim(name, ".") == "" {
		name = "_"
	}
	return name
}

func (r *fileDashboardRepository) path(owner, id string) (string, error) {
	if id == "" || safeName.MatchString(id) || strings.Trim(id, ".") == "" {
		return "", fmt.Errorf("%w: invalid id %q", repository.ErrDashboardNotFound, id)
	}
	return filepath.Join(r.dir, ownerDir(owner), id+".json"), nil
}

func (r *fileDashboardRepository) Save(ctx context.Context, rec *model.DashboardRecord) error {
	path, err := r.path(rec.Owner, rec.ID)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		log.Error().Err(err).Str("dashboard_id", rec.ID).Msg("Failed to marshal dashboard")
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	tempFilePath := path + ".tmp"
	if err := os.WriteFile(tempFilePath, data, 0644); err != nil {
		log.Error().Err(err).Str("file", tempFilePath).Msg("Failed to write temporary dashboard file")
		return err
	}
	if err := os.Rename(tempFilePath, path); err != nil {
		log.Error().Err(err).Str("from", tempFilePath).Str("to", path).Msg("Failed to rename dashboard file")
		_ = os.Remove(tempFilePath)
		return err
	}
	log.Debug().Str("file", path).Msg("Saved dashboard")
	return nil
}

func (r *fileDashboardRepository) List(ctx context.Context, owner string) ([]model.HistoryItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	records, err := r.readDir(filepath.Join(r.dir, ownerDir(owner)))
	if err != nil {
		return nil, err
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	items := make([]model.HistoryItem, 0, len(records))
	for i := range records {
		items = append(items, records[i].HistoryItem())
	}
	return items, nil
}

func (r *fileDashboardRepository) Get(ctx context.Context, owner, id string) (*model.DashboardRecord, error) {
	path, err := r.path(owner, id)
	if err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return readRecord(path)
}

func (r *fileDashboardRepository) Delete(ctx context.Context, owner, id string) error {
	path, err := r.path(owner, id)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return repository.ErrDashboardNotFound
		}
		log.Error().Err(err).Str("file", path).Msg("Failed to delete dashboard file")
		return err
	}
	return nil
}

func (r *fileDashboardRepository) FilePaths(ctx context.Context) (map[string]bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	owners, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, err
	}
	paths := make(map[string]bool)
	for _, o := range owners {
		if !o.IsDir() {
			continue
		}
		records, err := r.readDir(filepath.Join(r.dir, o.Name()))
		if err != nil {
			return nil, err
		}
		for _, rec := range records {
			if rec.FilePath != "" {
				paths[rec.FilePath] = true
			}
		}
	}
	return paths, nil
}

// readDir loads every record in dir, skipping files that fail to decode.
func (r *fileDashboardRepository) readDir(dir string) ([]model.DashboardRecord, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	records := make([]model.DashboardRecord, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		rec, err := readRecord(filepath.Join(dir, e.Name()))
		if err != nil {
			log.Warn().Err(err).Str("file", e.Name()).Msg("Skipping unreadable dashboard file")
			continue
		}
		records = append(records, *rec)
	}
	return records, nil
}

func readRecord(path string) (*model.DashboardRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, repository.ErrDashboardNotFound
		}
		return nil, err
	}
	var rec model.DashboardRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("corrupt dashboard file %s: %w", filepath.Base(path), err)
	}
	return &rec, nil
}
