package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"dashgen-backend/config"
	"dashgen-backend/internal/dataset"
	"dashgen-backend/internal/dto"
	"dashgen-backend/internal/parser"
)

var (
	ErrUnsupportedFile = errors.New("unsupported file type, expected .csv, .xlsx or .xlsm")
	ErrFileTooLarge    = errors.New("file exceeds the upload size limit")

	unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._@-]+`)
)

type UploadService interface {
	Upload(ctx context.Context, owner, filename string, r io.Reader) (*dto.UploadResponse, error)
}

type uploadService struct {
	loader   dataset.Loader
	maxBytes int64
}

func NewUploadService(loader dataset.Loader, cfg *config.Config) UploadService {
	return &uploadService{loader: loader, maxBytes: cfg.Upload.MaxBytes}
}

func sanitize(name string) string {
	name = unsafeChars.ReplaceAllString(name, "_")
	if strings.Trim(name, "._") == "" {
		return "_"
	}
	return name
}

// Upload stores r as <owner>/<uuid8>_<name> under the upload directory and
// summarises it for the planner.
func (s *uploadService) Upload(ctx context.Context, owner, filename string, r io.Reader) (*dto.UploadResponse, error) {
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	log.Info().Str("owner", owner).Str("file", base).Msg("Uploading dataset")
	if !parser.Supported(base) {
		return nil, fail(UploadFailure, "unsupported file", ErrUnsupportedFile)
	}

	relPath := path.Join(sanitize(owner), uuid.NewString()[:8]+"_"+sanitize(base))
	fullPath, err := s.loader.Resolve(relPath)
	if err != nil {
		return nil, fail(UploadFailure, "invalid file name", err)
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return nil, fail(UploadFailure, "could not store file", err)
	}
	if err := s.write(fullPath, r); err != nil {
		_ = os.Remove(fullPath)
		log.Error().Err(err).Str("file", relPath).Msg("Failed to store upload")
		return nil, fail(UploadFailure, "could not store file", err)
	}

	table, err := s.loader.Load(ctx, relPath)
	if err != nil {
		_ = os.Remove(fullPath)
		s.loader.Invalidate(relPath)
		log.Error().Err(err).Str("file", relPath).Msg("Failed to parse upload")
		return nil, fail(UploadFailure, "could not parse file", err)
	}
	summary := parser.Summarize(table)
	log.Info().Str("file", relPath).Int("rows", table.Len()).Int("columns", len(table.Columns)).Msg("Dataset uploaded")
	return &dto.UploadResponse{
		Summary:  summary.Text,
		FilePath: relPath,
		ColTypes: summary.ColTypes,
		RowCount: table.Len(),
	}, nil
}

func (s *uploadService) write(fullPath string, r io.Reader) error {
	f, err := os.Create(fullPath)
	if err != nil {
		return err
	}
	src := r
	if s.maxBytes > 0 {
		src = io.LimitReader(r, s.maxBytes+1)
	}
	n, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	if s.maxBytes > 0 && n > s.maxBytes {
		return fmt.Errorf("%w (%d bytes)", ErrFileTooLarge, s.maxBytes)
	}
	return nil
}
