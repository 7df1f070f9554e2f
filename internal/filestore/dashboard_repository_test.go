package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dashgen-backend/internal/model"
	"dashgen-backend/internal/repository"
)

func record(owner, id string, created time.Time) *model.DashboardRecord {
	return &model.DashboardRecord{
		ID:        id,
		Owner:     owner,
		CreatedAt: created,
		Title:     "Dashboard " + id,
		FilePath:  owner + "/abcd1234_" + id + ".csv",
		Config: model.DashboardConfig{
			Title: "Dashboard " + id,
			Components: []model.Component{{
				ID:    "c0",
				Type:  model.ComponentChart,
				Title: "By region",
				Chart: &model.ChartConfig{Kind: model.ChartPie, X: "region", Y: "count"},
			}},
		},
	}
}

func TestFileDashboardRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	repo, err := NewDashboardRepository(dir)
	require.NoError(t, err)

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Save(ctx, record("alice", "d1", base)))
	require.NoError(t, repo.Save(ctx, record("alice", "d2", base.Add(time.Hour))))
	require.NoError(t, repo.Save(ctx, record("bob", "d3", base)))

	items, err := repo.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "d2", items[0].ID, "newest first")
	assert.Equal(t, "d1", items[1].ID)

	got, err := repo.Get(ctx, "alice", "d1")
	require.NoError(t, err)
	require.Len(t, got.Config.Components, 1)
	assert.Equal(t, model.ChartPie, got.Config.Components[0].Chart.Kind)
	assert.Equal(t, "region", got.Config.Components[0].Chart.X)

	_, err = repo.Get(ctx, "bob", "d1")
	assert.ErrorIs(t, err, repository.ErrDashboardNotFound)

	paths, err := repo.FilePaths(ctx)
	require.NoError(t, err)
	assert.Len(t, paths, 3)
	assert.True(t, paths["bob/abcd1234_d3.csv"])

	require.NoError(t, repo.Delete(ctx, "alice", "d1"))
	assert.ErrorIs(t, repo.Delete(ctx, "alice", "d1"), repository.ErrDashboardNotFound)
	items, err = repo.List(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, items, 1)

	_, err = os.Stat(filepath.Join(dir, "alice", "d2.json.tmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestFileDashboardRepository_EdgeCases(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	repo, err := NewDashboardRepository(dir)
	require.NoError(t, err)

	items, err := repo.List(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = repo.Get(ctx, "alice", "../secret")
	assert.ErrorIs(t, err, repository.ErrDashboardNotFound)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "alice"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "alice", "broken.json"), []byte("{"), 0644))
	require.NoError(t, repo.Save(ctx, record("alice", "ok", time.Now())))
	items, err = repo.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "ok", items[0].ID)
}
