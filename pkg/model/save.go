package model

import (
	"context"

	"github.com/mesh-intelligence/drills/pkg/types"
)

var _ types.Record = (*Model)(nil)

// RequestSave persists field through store.
//
// On success the field is marked saved. When the store rejects the save with
// an *types.HTTPStatusError the error is recorded on the field and
// RequestSave returns nil. Any other error is returned unchanged and the
// field is left as it was.
//
// Saves of different fields run independently. If several saves of the same
// field overlap, only the outcome of the most recently issued one is applied;
// earlier outcomes are discarded when they resolve.
func (m *Model) RequestSave(ctx context.Context, store types.SavableStore, field string) error {
	token, value, err := m.beginSave(field)
	if err != nil {
		return err
	}

	err = store.SaveData(ctx, m, field)
	if err == nil {
		m.finishSave(field, token, value, nil)
		return nil
	}
	if se, ok := types.IsHTTPStatusError(err); ok {
		m.finishSave(field, token, value, se)
		return nil
	}
	return err
}

// beginSave issues a new save token for field and captures the value sent.
func (m *Model) beginSave(field string) (uint64, any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, err := m.cellLocked(field)
	if err != nil {
		return 0, nil, err
	}
	m.tokens[field]++
	return m.tokens[field], c.value, nil
}

// finishSave applies a save outcome if token is still the latest for field.
func (m *Model) finishSave(field string, token uint64, value any, saveErr error) {
	m.mu.Lock()
	if m.tokens[field] != token {
		m.mu.Unlock()
		return
	}
	c := m.cells[field]
	op := OpSaved
	if saveErr != nil {
		c.MarkError(saveErr)
		op = OpSaveFailed
	} else {
		c.MarkSaved(value)
	}
	m.mu.Unlock()

	m.publish(field, op)
}
