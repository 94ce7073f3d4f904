package store

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/drills/pkg/exercise"
	"github.com/mesh-intelligence/drills/pkg/types"
)

// newTestBackend attaches a SQLite backend in a temp dir and detaches it at
// cleanup.
func newTestBackend(t *testing.T, opts ...Option) *Backend {
	t.Helper()
	b := NewBackend(opts...)
	require.NoError(t, b.Attach(types.Config{
		Backend:   types.BackendSQLite,
		DataDir:   t.TempDir(),
		CacheSize: types.DefaultCacheSize,
	}))
	t.Cleanup(func() { b.Detach() })
	return b
}

// drillRecord is a small exercise with one field and two players.
func drillRecord() map[string]any {
	return map[string]any{
		"id":   "ex-1",
		"name": "Rondo 4v2",
		"field": map[string]any{
			"id": "f-1", "name": "Pitch A", "surface": "grass", "length": 40.0, "width": 30.0,
		},
		"players": []any{
			map[string]any{"id": "p-1", "name": "Ana", "number": 7, "position": "winger"},
			map[string]any{"id": "p-2", "name": "Ben", "number": 4, "position": "back"},
		},
	}
}

// putAndBuild stores drillRecord and returns the exercise built from a fetch.
func putAndBuild(t *testing.T, b *Backend) *exercise.Exercise {
	t.Helper()
	ctx := t.Context()
	require.NoError(t, b.Put(ctx, drillRecord()))
	raw, err := b.Fetch(ctx, "ex-1")
	require.NoError(t, err)
	ex, err := exercise.BuildExercise(raw)
	require.NoError(t, err)
	return ex
}

// postgresDSN returns the DSN of a test Postgres or skips the test.
func postgresDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("DRILLS_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("DRILLS_TEST_POSTGRES_DSN not set")
	}
	return dsn
}
