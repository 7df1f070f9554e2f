// Package dataset resolves uploaded files and keeps recently parsed tables
// in memory.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"

	"dashgen-backend/internal/model"
	"dashgen-backend/internal/parser"
)

var (
	ErrDatasetMissing = errors.New("dataset file not found")
	ErrOutsideRoot    = errors.New("path escapes the upload directory")
)

type Loader interface {
	// Load parses the file at relPath under the upload root.
	Load(ctx context.Context, relPath string) (*model.Table, error)
	// Resolve returns the absolute path of relPath, rejecting traversal.
	Resolve(relPath string) (string, error)
	Invalidate(relPath string)
	Root() string
}

type cacheEntry struct {
	modTime time.Time
	table   *model.Table
}

type cachingLoader struct {
	root   string
	parser parser.TableParser
	cache  *lru.Cache[string, cacheEntry]
}

func NewLoader(root string, tableParser parser.TableParser, capacity int) (Loader, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("invalid upload directory %q: %w", root, err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %q: %w", abs, err)
	}
	if capacity <= 0 {
		capacity = 16
	}
	cache, err := lru.New[string, cacheEntry](capacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create dataset cache: %w", err)
	}
	return &cachingLoader{
		root:   abs,
		parser: tableParser,
		cache:  cache,
	}, nil
}

func (l *cachingLoader) Root() string {
	return l.root
}

func (l *cachingLoader) Resolve(relPath string) (string, error) {
	if relPath == "" || filepath.IsAbs(relPath) {
		return "", fmt.Errorf("%w: %q", ErrOutsideRoot, relPath)
	}
	full := filepath.Join(l.root, filepath.Clean(relPath))
	rel, err := filepath.Rel(l.root, full)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrOutsideRoot, relPath)
	}
	return full, nil
}

func (l *cachingLoader) Load(ctx context.Context, relPath string) (*model.Table, error) {
	full, err := l.Resolve(relPath)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrDatasetMissing, relPath)
		}
		return nil, err
	}

	if entry, ok := l.cache.Get(full); ok {
		if entry.modTime.Equal(info.ModTime()) {
			log.Debug().Str("file", relPath).Msg("Dataset cache hit")
			return entry.table, nil
		}
		l.cache.Remove(full)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	table, err := l.parser.Parse(full)
	if err != nil {
		log.Error().Err(err).Str("file", relPath).Msg("Failed to parse dataset")
		return nil, err
	}
	l.cache.Add(full, cacheEntry{modTime: info.ModTime(), table: table})
	return table, nil
}

func (l *cachingLoader) Invalidate(relPath string) {
	full, err := l.Resolve(relPath)
	if err != nil {
		return
	}
	l.cache.Remove(full)
}
