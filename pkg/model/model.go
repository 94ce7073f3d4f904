package model

import (
	"fmt"
	"slices"
	"sync"

	"github.com/mesh-intelligence/drills/pkg/types"
)

// Model is a named, identified bag of savable fields bound to a fixed schema.
// It is safe for concurrent use; saves of different fields proceed
// independently.
type Model struct {
	kind   string
	id     types.ID
	schema types.Schema

	mu     sync.Mutex
	cells  map[string]*Cell
	tokens map[string]uint64

	obs observers
}

// FieldState is a point-in-time copy of one cell.
type FieldState struct {
	Value any
	Saved any
	Dirty bool
	Err   error
}

// New builds a model of the given kind from snapshot values. Values are
// coerced to the schema's types; optional fields absent from values take
// their type default. Reserved keys (id, transactions) are ignored.
// Returns ErrInvalidID, ErrInvalidSchema, ErrUnknownField, ErrMissingField
// or ErrTypeMismatch.
func New(kind string, schema types.Schema, id types.ID, values map[string]any) (*Model, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	for key := range values {
		if types.IsReservedKey(key) {
			continue
		}
		if _, ok := schema.Lookup(key); !ok {
			return nil, fmt.Errorf("%s %s: %w: %q", kind, id, types.ErrUnknownField, key)
		}
	}

	m := &Model{
		kind:   kind,
		id:     id,
		schema: schema,
		cells:  make(map[string]*Cell, len(schema)),
		tokens: make(map[string]uint64, len(schema)),
	}
	for _, spec := range schema {
		raw, ok := values[spec.Name]
		if !ok {
			if spec.Required {
				return nil, fmt.Errorf("%s %s: %w: %q", kind, id, types.ErrMissingField, spec.Name)
			}
			def, err := types.DefaultValue(spec.ValueType)
			if err != nil {
				return nil, err
			}
			m.cells[spec.Name] = newCell(def)
			continue
		}
		v, err := schema.Coerce(spec.Name, raw)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", kind, id, err)
		}
		m.cells[spec.Name] = newCell(v)
	}
	return m, nil
}

// ID returns the model's immutable identity.
func (m *Model) ID() types.ID { return m.id }

// Kind returns the entity type label.
func (m *Model) Kind() string { return m.kind }

// Schema returns the model's field schema.
func (m *Model) Schema() types.Schema { return m.schema }

// Fields returns the field names in schema order.
func (m *Model) Fields() []string { return m.schema.Names() }

// Get returns the current value of field.
// Returns ErrFieldNotFound if the field is not part of the schema.
func (m *Model) Get(field string) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, err := m.cellLocked(field)
	if err != nil {
		return nil, err
	}
	return c.Get(), nil
}

// Set overwrites field with v and marks it dirty.
// Returns ErrFieldNotFound or ErrTypeMismatch; the cell is untouched on error.
func (m *Model) Set(field string, v any) error {
	m.mu.Lock()
	c, err := m.cellLocked(field)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	cv, err := m.schema.Coerce(field, v)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	c.Set(cv)
	m.mu.Unlock()

	m.publish(field, OpSet)
	return nil
}

// State returns a copy of field's cell state.
func (m *Model) State(field string) (FieldState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, err := m.cellLocked(field)
	if err != nil {
		return FieldState{}, err
	}
	return FieldState{Value: c.value, Saved: c.saved, Dirty: c.dirty, Err: c.err}, nil
}

// IsDirty reports whether field has an unconfirmed local write. Unknown
// fields are never dirty.
func (m *Model) IsDirty(field string) bool {
	st, err := m.State(field)
	return err == nil && st.Dirty
}

// DirtyFields returns the names of all dirty fields, sorted.
func (m *Model) DirtyFields() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for name, c := range m.cells {
		if c.dirty {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}

// Conflicted reports whether any field is dirty or carries a save error.
func (m *Model) Conflicted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.cells {
		if c.conflicted() {
			return true
		}
	}
	return false
}

// Values returns a copy of every field's current value.
func (m *Model) Values() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]any, len(m.cells))
	for name, c := range m.cells {
		out[name] = c.value
	}
	return out
}

// MarkSaved records the field's current value as server-confirmed.
func (m *Model) MarkSaved(field string) error {
	m.mu.Lock()
	c, err := m.cellLocked(field)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	c.MarkSaved(c.value)
	m.mu.Unlock()

	m.publish(field, OpSaved)
	return nil
}

// MarkError records a failed save of field.
func (m *Model) MarkError(field string, saveErr error) error {
	m.mu.Lock()
	c, err := m.cellLocked(field)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	c.MarkError(saveErr)
	m.mu.Unlock()

	m.publish(field, OpSaveFailed)
	return nil
}

// Subscribe registers fn for every change to this model and returns a
// function that removes the subscription.
func (m *Model) Subscribe(fn Observer) (cancel func()) {
	return m.obs.subscribe(fn)
}

// Notify publishes c to this model's observers. Composite entities use it to
// report structural changes such as player additions.
func (m *Model) Notify(c Change) {
	if c.Kind == "" {
		c.Kind = m.kind
	}
	if c.ID == "" {
		c.ID = m.id
	}
	m.obs.publish(c)
}

func (m *Model) publish(field string, op Op) {
	m.obs.publish(Change{Kind: m.kind, ID: m.id, Field: field, Op: op})
}

// cellLocked returns the named cell. The caller must hold m.mu.
func (m *Model) cellLocked(field string) (*Cell, error) {
	c, ok := m.cells[field]
	if !ok {
		return nil, fmt.Errorf("%s %s: %w: %q", m.kind, m.id, types.ErrFieldNotFound, field)
	}
	return c, nil
}
