package model

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/drills/pkg/types"
)

var playerSchema = types.Schema{
	{Name: "name", ValueType: types.ValueTypeText, Required: true},
	{Name: "number", ValueType: types.ValueTypeInteger},
	{Name: "position", ValueType: types.ValueTypeText},
}

func newTestModel(t *testing.T, id types.ID, values map[string]any) *Model {
	t.Helper()
	m, err := New(types.KindPlayer, playerSchema, id, values)
	require.NoError(t, err)
	return m
}

// recorder collects the changes published by a model.
type recorder struct {
	changes []Change
}

func (r *recorder) observe(c Change) { r.changes = append(r.changes, c) }

func (r *recorder) ops() []Op {
	out := make([]Op, len(r.changes))
	for i, c := range r.changes {
		out[i] = c.Op
	}
	return out
}
