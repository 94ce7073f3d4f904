// Package model implements the optimistic edit protocol shared by every
// savable entity: per-field value cells with dirty/saved/error state, a
// schema-bound model that owns them, per-field asynchronous saves guarded by
// save tokens, and the field-level half of snapshot merging.
//
// Composite entities embed *Model and add their own structural merge step
// for owned sub-entities and collections.
package model
