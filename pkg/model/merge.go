package model

import (
	"fmt"

	"github.com/mesh-intelligence/drills/pkg/types"
)

// MergeOptions controls how an incoming snapshot overrides local edits.
type MergeOptions struct {
	// OverwriteModified lets incoming values replace dirty or errored fields.
	OverwriteModified bool

	// Forced adopts every incoming value regardless of local state.
	Forced bool
}

// DefaultMergeOptions returns the options used when the caller has no
// preference: overwrite modified fields, not forced.
func DefaultMergeOptions() MergeOptions {
	return MergeOptions{OverwriteModified: true}
}

// adopts reports whether an incoming value replaces local cell c.
func (o MergeOptions) adopts(c *Cell) bool {
	if o.Forced || !c.conflicted() {
		return true
	}
	return o.OverwriteModified
}

// Replaces reports whether an incoming entity with a different identity
// may stand in for local model m. Local work is only discarded when the
// options would overwrite it field by field.
func (o MergeOptions) Replaces(m *Model) bool {
	if o.Forced || o.OverwriteModified {
		return true
	}
	return !m.Conflicted()
}

// Merge reconciles src into dst field by field:
//
//   - Forced adopts the incoming value;
//   - a clean local field (not dirty, no error) adopts the incoming value;
//   - a dirty or errored field adopts it only with OverwriteModified.
//
// Adopting copies the incoming cell state, so a server snapshot leaves the
// field clean. Fields src does not carry are left alone. Merge returns the
// fields whose value changed and notifies dst's observers of each.
// Returns ErrKindMismatch or ErrIDMismatch when src is not the same entity.
func Merge(dst, src *Model, opts MergeOptions) ([]string, error) {
	if dst.kind != src.kind {
		return nil, fmt.Errorf("%w: %s into %s", types.ErrKindMismatch, src.kind, dst.kind)
	}
	if dst.id != src.id {
		return nil, fmt.Errorf("%w: %s %s into %s", types.ErrIDMismatch, dst.kind, src.id, dst.id)
	}
	if dst == src {
		return nil, nil
	}

	// Snapshot src before locking dst so two models never hold each other's lock.
	src.mu.Lock()
	incoming := make(map[string]*Cell, len(src.cells))
	for name, c := range src.cells {
		incoming[name] = c.clone()
	}
	src.mu.Unlock()

	var changed []string
	dst.mu.Lock()
	for _, name := range dst.schema.Names() {
		in, ok := incoming[name]
		if !ok {
			continue
		}
		local := dst.cells[name]
		if !opts.adopts(local) {
			continue
		}
		if local.value != in.value {
			changed = append(changed, name)
		}
		*local = *in
	}
	dst.mu.Unlock()

	for _, name := range changed {
		dst.publish(name, OpMerged)
	}
	return changed, nil
}
