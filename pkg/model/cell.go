package model

// Cell holds one field value together with its save state.
// A Cell is not safe for concurrent use; the owning Model serializes access.
type Cell struct {
	value any
	saved any
	dirty bool
	err   error
}

// newCell returns a clean cell whose value is already server-confirmed.
func newCell(v any) *Cell {
	return &Cell{value: v, saved: v}
}

// Get returns the current value.
func (c *Cell) Get() any { return c.value }

// Set overwrites the value, marks the cell dirty and clears any save error.
func (c *Cell) Set(v any) {
	c.value = v
	c.dirty = true
	c.err = nil
}

// MarkSaved records v as the last server-confirmed value and clears the
// error. The cell stays dirty if it was written again after v was sent.
func (c *Cell) MarkSaved(v any) {
	c.saved = v
	c.err = nil
	c.dirty = c.value != v
}

// MarkError records a failed save. The value remains unsaved.
func (c *Cell) MarkError(err error) {
	c.err = err
}

// Dirty reports whether the cell carries an unconfirmed local write.
func (c *Cell) Dirty() bool { return c.dirty }

// Err returns the error of the most recent failed save, or nil.
func (c *Cell) Err() error { return c.err }

// Saved returns the last server-confirmed value.
func (c *Cell) Saved() any { return c.saved }

// conflicted reports whether merging over the cell could lose local work.
func (c *Cell) conflicted() bool {
	return c.dirty || c.err != nil
}

func (c *Cell) clone() *Cell {
	cp := *c
	return &cp
}
