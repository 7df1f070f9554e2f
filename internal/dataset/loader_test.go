package dataset_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dashgen-backend/internal/dataset"
	"dashgen-backend/internal/model"
	"dashgen-backend/internal/parser"
)

type countingParser struct {
	inner parser.TableParser
	calls int
}

func (p *countingParser) Parse(path string) (*model.Table, error) {
	p.calls++
	return p.inner.Parse(path)
}

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	full := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0644))
	return full
}

func TestLoader_CachesUntilFileChanges(t *testing.T) {
	root := t.TempDir()
	p := &countingParser{inner: parser.NewTableParser()}
	loader, err := dataset.NewLoader(root, p, 2)
	require.NoError(t, err)
	full := writeFile(t, root, "alice/data.csv", "k,v\na,1\n")

	first, err := loader.Load(context.Background(), "alice/data.csv")
	require.NoError(t, err)
	second, err := loader.Load(context.Background(), "alice/data.csv")
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, p.calls)

	require.NoError(t, os.WriteFile(full, []byte("k,v\na,1\nb,2\n"), 0644))
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(full, later, later))
	third, err := loader.Load(context.Background(), "alice/data.csv")
	require.NoError(t, err)
	assert.Len(t, third.Rows, 2)
	assert.Equal(t, 2, p.calls)

	loader.Invalidate("alice/data.csv")
	_, err = loader.Load(context.Background(), "alice/data.csv")
	require.NoError(t, err)
	assert.Equal(t, 3, p.calls)
}

func TestLoader_EvictsLeastRecentlyUsed(t *testing.T) {
	root := t.TempDir()
	p := &countingParser{inner: parser.NewTableParser()}
	loader, err := dataset.NewLoader(root, p, 2)
	require.NoError(t, err)
	for _, name := range []string{"a.csv", "b.csv", "c.csv"} {
		writeFile(t, root, name, "x\n1\n")
	}
	ctx := context.Background()

	for _, name := range []string{"a.csv", "b.csv", "c.csv", "a.csv"} {
		_, err := loader.Load(ctx, name)
		require.NoError(t, err)
	}
	assert.Equal(t, 4, p.calls)

	_, err = loader.Load(ctx, "c.csv")
	require.NoError(t, err)
	assert.Equal(t, 4, p.calls)
}

func TestLoader_Errors(t *testing.T) {
	root := t.TempDir()
	loader, err := dataset.NewLoader(root, parser.NewTableParser(), 4)
	require.NoError(t, err)

	_, err = loader.Load(context.Background(), "nobody/missing.csv")
	assert.ErrorIs(t, err, dataset.ErrDatasetMissing)

	for _, bad := range []string{"../etc/passwd", "/etc/passwd", "", "a/../../x.csv"} {
		_, err = loader.Load(context.Background(), bad)
		assert.ErrorIs(t, err, dataset.ErrOutsideRoot, bad)
	}
}
