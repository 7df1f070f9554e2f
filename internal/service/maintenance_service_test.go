package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dashgen-backend/internal/dataset"
	"dashgen-backend/internal/filestore"
	"dashgen-backend/internal/model"
	"dashgen-backend/internal/parser"
	"dashgen-backend/internal/session"
	"dashgen-backend/internal/store"
)

func writeAged(t *testing.T, root, rel string, age time.Duration) string {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
	require.NoError(t, os.WriteFile(full, []byte("a,b\n1,2\n"), 0644))
	old := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(full, old, old))
	return full
}

func TestCleanupUploads(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	loader, err := dataset.NewLoader(root, parser.NewTableParser(), 4)
	require.NoError(t, err)
	history, err := filestore.NewDashboardRepository(t.TempDir())
	require.NoError(t, err)
	sessions := store.NewInMemorySessionStore()

	stale := writeAged(t, root, "alice/aaaa0000_old.csv", 48*time.Hour)
	fresh := writeAged(t, root, "alice/bbbb0000_new.csv", time.Minute)
	inSession := writeAged(t, root, "alice/cccc0000_open.csv", 48*time.Hour)
	inHistory := writeAged(t, root, "bob/dddd0000_saved.csv", 48*time.Hour)

	sess, err := sessions.Create(ctx, "alice")
	require.NoError(t, err)
	sess.SetUpload(session.Upload{FilePath: "alice/cccc0000_open.csv"})
	require.NoError(t, history.Save(ctx, &model.DashboardRecord{
		ID:       "d1",
		Owner:    "bob",
		Title:    "Saved",
		FilePath: "bob/dddd0000_saved.csv",
	}))

	svc := &maintenanceService{
		sessions:  sessions,
		history:   history,
		loader:    loader,
		retention: 24 * time.Hour,
		now:       time.Now,
	}
	removed, err := svc.CleanupUploads(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	assert.NoFileExists(t, stale)
	assert.FileExists(t, fresh)
	assert.FileExists(t, inSession)
	assert.FileExists(t, inHistory)
}

func TestCleanupUploads_DisabledRetention(t *testing.T) {
	svc := &maintenanceService{}
	removed, err := svc.CleanupUploads(context.Background())
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestSweepSessions(t *testing.T) {
	ctx := context.Background()
	sessions := store.NewInMemorySessionStore()
	_, err := sessions.Create(ctx, "alice")
	require.NoError(t, err)

	svc := &maintenanceService{sessions: sessions, sessionTTL: time.Hour}
	assert.Zero(t, svc.SweepSessions(ctx))
	assert.Len(t, sessions.All(ctx), 1)

	svc.sessionTTL = 0
	assert.Zero(t, svc.SweepSessions(ctx))
}
