package types

import "context"

// Entity kinds.
const (
	KindExercise = "exercise"
	KindField    = "field"
	KindPlayer   = "player"
)

// Record is the read view of an entity handed to a SavableStore.
type Record interface {
	// ID returns the entity's immutable identity.
	ID() ID

	// Kind returns the entity type (one of the Kind constants).
	Kind() string

	// Get returns the current value of the named field.
	// Returns ErrFieldNotFound if the field is not part of the schema.
	Get(field string) (any, error)
}

// SavableStore persists one field of one entity.
//
// SaveData returns an *HTTPStatusError when the remote side rejects the
// save; that outcome is recoverable and recorded on the field. Any other
// error is treated as unexpected and surfaces to the caller.
type SavableStore interface {
	SaveData(ctx context.Context, rec Record, field string) error
}

// SavableStoreFunc adapts a function to the SavableStore interface.
type SavableStoreFunc func(ctx context.Context, rec Record, field string) error

// SaveData calls f(ctx, rec, field).
func (f SavableStoreFunc) SaveData(ctx context.Context, rec Record, field string) error {
	return f(ctx, rec, field)
}

// ExerciseStore is the canonical exercise store: it hands out snapshots and
// persists field saves through the SavableStore returned by Scope.
type ExerciseStore interface {
	// Attach opens the store described by config.
	// Returns ErrAlreadyAttached if already attached.
	Attach(config Config) error

	// Detach releases the store. Subsequent calls return ErrStoreDetached.
	Detach() error

	// Put replaces a whole exercise with the decoded record raw.
	Put(ctx context.Context, raw map[string]any) error

	// Fetch returns the decoded record of an exercise.
	// Returns ErrNotFound if no exercise has the id.
	Fetch(ctx context.Context, id ID) (map[string]any, error)

	// List returns the ids of all exercises in ascending order.
	List(ctx context.Context) ([]ID, error)

	// Scope returns the SavableStore for one exercise and its sub-entities.
	Scope(exerciseID ID) SavableStore
}
