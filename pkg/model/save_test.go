package model

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/drills/pkg/types"
)

// fakeStore records calls and returns the configured error per field.
type fakeStore struct {
	mu    sync.Mutex
	errs  map[string]error
	calls []string
	seen  []any
}

func (s *fakeStore) SaveData(_ context.Context, rec types.Record, field string) error {
	v, err := rec.Get(field)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, field)
	s.seen = append(s.seen, v)
	return s.errs[field]
}

func TestRequestSaveSuccess(t *testing.T) {
	m := newTestModel(t, "1", map[string]any{"name": "X"})
	require.NoError(t, m.Set("name", "Y"))
	require.NoError(t, m.Set("number", 4))
	store := &fakeStore{}

	err := m.RequestSave(context.Background(), store, "name")

	require.NoError(t, err)
	assert.Equal(t, []string{"name"}, store.calls)
	assert.Equal(t, []any{"Y"}, store.seen)
	st, _ := m.State("name")
	assert.False(t, st.Dirty)
	assert.NoError(t, st.Err)
	assert.Equal(t, "Y", st.Saved)
	assert.True(t, m.IsDirty("number"), "other fields are untouched")
}

func TestRequestSaveHTTPStatusErrorIsRecorded(t *testing.T) {
	m := newTestModel(t, "1", map[string]any{"name": "X"})
	require.NoError(t, m.Set("name", ""))
	rejection := types.NewHTTPStatusError(http.StatusUnprocessableEntity, "name must not be empty")
	store := &fakeStore{errs: map[string]error{"name": fmt.Errorf("save: %w", rejection)}}
	rec := &recorder{}
	m.Subscribe(rec.observe)

	err := m.RequestSave(context.Background(), store, "name")

	require.NoError(t, err, "recoverable failures do not propagate")
	st, _ := m.State("name")
	assert.True(t, st.Dirty)
	assert.Equal(t, rejection, st.Err)
	assert.Equal(t, "X", st.Saved)
	assert.Equal(t, []Op{OpSaveFailed}, rec.ops())
}

func TestRequestSaveUnexpectedErrorPropagates(t *testing.T) {
	m := newTestModel(t, "1", map[string]any{"name": "X"})
	require.NoError(t, m.Set("name", "Y"))
	boom := errors.New("connection reset")
	store := &fakeStore{errs: map[string]error{"name": boom}}
	rec := &recorder{}
	m.Subscribe(rec.observe)

	err := m.RequestSave(context.Background(), store, "name")

	assert.Same(t, boom, err)
	st, _ := m.State("name")
	assert.True(t, st.Dirty)
	assert.NoError(t, st.Err, "unexpected errors are not stored on the field")
	assert.Empty(t, rec.changes)
}

func TestRequestSaveUnknownFieldSkipsStore(t *testing.T) {
	m := newTestModel(t, "1", map[string]any{"name": "X"})
	store := &fakeStore{}

	err := m.RequestSave(context.Background(), store, "nope")

	assert.ErrorIs(t, err, types.ErrFieldNotFound)
	assert.Empty(t, store.calls)
}

func TestRequestSaveRetryClearsError(t *testing.T) {
	m := newTestModel(t, "1", map[string]any{"name": "X"})
	require.NoError(t, m.Set("name", "Y"))
	store := &fakeStore{errs: map[string]error{"name": types.NewHTTPStatusError(http.StatusConflict, "")}}

	require.NoError(t, m.RequestSave(context.Background(), store, "name"))
	st, _ := m.State("name")
	require.Error(t, st.Err)

	store.errs = nil
	require.NoError(t, m.RequestSave(context.Background(), store, "name"))
	st, _ = m.State("name")
	assert.NoError(t, st.Err)
	assert.False(t, st.Dirty)
}

func TestRequestSaveKeepsDirtyWhenEditedInFlight(t *testing.T) {
	m := newTestModel(t, "1", map[string]any{"name": "X"})
	require.NoError(t, m.Set("name", "Y"))
	store := types.SavableStoreFunc(func(ctx context.Context, rec types.Record, field string) error {
		// The user types again while the save is on the wire.
		return m.Set("name", "Z")
	})

	require.NoError(t, m.RequestSave(context.Background(), store, "name"))

	st, _ := m.State("name")
	assert.Equal(t, "Y", st.Saved)
	assert.Equal(t, "Z", st.Value)
	assert.True(t, st.Dirty)
}

func TestRequestSaveDifferentFieldsConcurrently(t *testing.T) {
	m := newTestModel(t, "1", map[string]any{"name": "X"})
	require.NoError(t, m.Set("name", "Y"))
	require.NoError(t, m.Set("number", 3))
	require.NoError(t, m.Set("position", "DF"))
	store := &fakeStore{errs: map[string]error{"position": types.NewHTTPStatusError(http.StatusBadRequest, "")}}

	var wg sync.WaitGroup
	for _, f := range []string{"name", "number", "position"} {
		wg.Add(1)
		go func(field string) {
			defer wg.Done()
			assert.NoError(t, m.RequestSave(context.Background(), store, field))
		}(f)
	}
	wg.Wait()

	assert.Equal(t, []string{"position"}, m.DirtyFields())
	st, _ := m.State("position")
	assert.Error(t, st.Err)
}

func TestRequestSaveStaleOutcomeDiscarded(t *testing.T) {
	m := newTestModel(t, "1", map[string]any{"name": "X"})
	require.NoError(t, m.Set("name", "first"))

	release := make(chan struct{})
	started := make(chan struct{})
	var calls int
	var mu sync.Mutex
	store := types.SavableStoreFunc(func(ctx context.Context, rec types.Record, field string) error {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			close(started)
			<-release
			return types.NewHTTPStatusError(http.StatusConflict, "stale write")
		}
		return nil
	})

	done := make(chan error)
	go func() { done <- m.RequestSave(context.Background(), store, "name") }()
	<-started

	require.NoError(t, m.Set("name", "second"))
	require.NoError(t, m.RequestSave(context.Background(), store, "name"))

	close(release)
	require.NoError(t, <-done)

	st, _ := m.State("name")
	assert.Equal(t, "second", st.Value)
	assert.Equal(t, "second", st.Saved)
	assert.False(t, st.Dirty)
	assert.NoError(t, st.Err, "the older save's rejection resolved last and was discarded")
}

func TestRequestSavePassesContext(t *testing.T) {
	m := newTestModel(t, "1", map[string]any{"name": "X"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := types.SavableStoreFunc(func(ctx context.Context, rec types.Record, field string) error {
		return ctx.Err()
	})

	err := m.RequestSave(ctx, store, "name")

	assert.ErrorIs(t, err, context.Canceled)
}
