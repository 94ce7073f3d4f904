package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/drills/pkg/types"
)

func TestBackend_Attach(t *testing.T) {
	tmpDir := t.TempDir()
	b := NewBackend()
	config := types.Config{Backend: types.BackendSQLite, DataDir: tmpDir}

	require.NoError(t, b.Attach(config))
	defer b.Detach()

	_, err := os.Stat(filepath.Join(tmpDir, dbFileName))
	assert.NoError(t, err, "database file should exist")

	assert.ErrorIs(t, b.Attach(config), types.ErrAlreadyAttached)
}

func TestBackend_AttachCreatesDataDir(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "nested", "data")
	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dataDir}))
	defer b.Detach()

	info, err := os.Stat(dataDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestBackend_AttachInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		config  types.Config
		wantErr error
	}{
		{"empty backend", types.Config{}, types.ErrBackendEmpty},
		{"unknown backend", types.Config{Backend: "dolt"}, types.ErrBackendUnknown},
		{"postgres without dsn", types.Config{Backend: types.BackendPostgres}, types.ErrDSNEmpty},
		{"negative cache", types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir(), CacheSize: -1}, types.ErrCacheSizeInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBackend()
			assert.ErrorIs(t, b.Attach(tt.config), tt.wantErr)
		})
	}
}

func TestBackend_Detach(t *testing.T) {
	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))

	require.NoError(t, b.Detach())
	assert.NoError(t, b.Detach(), "second Detach should not error")

	ctx := t.Context()
	_, err := b.List(ctx)
	assert.ErrorIs(t, err, types.ErrStoreDetached)
	_, err = b.Fetch(ctx, "ex-1")
	assert.ErrorIs(t, err, types.ErrStoreDetached)
	assert.ErrorIs(t, b.Put(ctx, drillRecord()), types.ErrStoreDetached)
}

func TestBackend_ReattachKeepsData(t *testing.T) {
	config := types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}
	b := NewBackend()
	require.NoError(t, b.Attach(config))
	require.NoError(t, b.Put(t.Context(), drillRecord()))
	require.NoError(t, b.Detach())

	require.NoError(t, b.Attach(config))
	defer b.Detach()
	ids, err := b.List(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []types.ID{"ex-1"}, ids)
}

func TestBackend_Rebind(t *testing.T) {
	b := NewBackend()
	q := "UPDATE players SET name = ? WHERE exercise_id = ? AND player_id = ?"

	b.driver = driverSQLite
	assert.Equal(t, q, b.rebind(q))

	b.driver = driverPostgres
	assert.Equal(t, "UPDATE players SET name = $1 WHERE exercise_id = $2 AND player_id = $3", b.rebind(q))
}

func TestBackend_Postgres(t *testing.T) {
	dsn := postgresDSN(t)
	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendPostgres, DSN: dsn}))
	defer b.Detach()

	ex := putAndBuild(t, b)
	require.NoError(t, ex.Field().SetWidth(35))
	require.NoError(t, ex.Field().RequestSave(t.Context(), b.Scope(ex.ID()), "width"))
	assert.False(t, ex.Field().IsDirty("width"))

	raw, err := b.Fetch(t.Context(), ex.ID())
	require.NoError(t, err)
	assert.Equal(t, 35.0, raw["field"].(map[string]any)["width"])
}
