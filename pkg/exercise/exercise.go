package exercise

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/mesh-intelligence/drills/pkg/model"
	"github.com/mesh-intelligence/drills/pkg/types"
)

// Exercise schema field names.
const (
	ExerciseName = "name"
)

// ExerciseSchema declares the scalar savable fields of an Exercise. The
// field and players are owned sub-entities, not schema fields.
var ExerciseSchema = types.Schema{
	{Name: ExerciseName, ValueType: types.ValueTypeText, Required: true},
}

// ExerciseData is the snapshot shape an Exercise is constructed from.
type ExerciseData struct {
	ID      types.ID                `json:"id"`
	Name    string                  `json:"name"`
	Field   FieldData               `json:"field"`
	Players map[types.ID]PlayerData `json:"players"`
}

// Exercise aggregates a Field and a roster of Players. It exclusively owns
// both: merges update them in place or adopt new children, and never share a
// child with another exercise.
type Exercise struct {
	*model.Model

	mu      sync.RWMutex
	field   *Field
	players map[types.ID]*Player
}

// NewExercise builds an Exercise and its owned sub-entities from a snapshot.
func NewExercise(d ExerciseData) (*Exercise, error) {
	m, err := model.New(types.KindExercise, ExerciseSchema, d.ID, map[string]any{
		ExerciseName: d.Name,
	})
	if err != nil {
		return nil, err
	}
	field, err := NewField(d.Field)
	if err != nil {
		return nil, fmt.Errorf("exercise %s: %w", d.ID, err)
	}
	e := &Exercise{
		Model:   m,
		field:   field,
		players: make(map[types.ID]*Player, len(d.Players)),
	}
	for id, pd := range d.Players {
		if pd.ID != id {
			return nil, fmt.Errorf("exercise %s: %w: player keyed %s carries %s", d.ID, types.ErrIDMismatch, id, pd.ID)
		}
		p, err := NewPlayer(pd)
		if err != nil {
			return nil, fmt.Errorf("exercise %s: %w", d.ID, err)
		}
		e.players[id] = p
	}
	return e, nil
}

// Name returns the exercise name.
func (e *Exercise) Name() string { return getString(e.Model, ExerciseName) }

// SetName edits the exercise name locally and marks it dirty.
func (e *Exercise) SetName(v string) error { return e.Set(ExerciseName, v) }

// Field returns the owned field sub-entity.
func (e *Exercise) Field() *Field {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.field
}

// Players returns a copy of the roster keyed by player id. The *Player
// values are the live entities.
func (e *Exercise) Players() map[types.ID]*Player {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return maps.Clone(e.players)
}

// PlayerIDs returns the roster ids, sorted.
func (e *Exercise) PlayerIDs() []types.ID {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return slices.Sorted(maps.Keys(e.players))
}

// Player returns the player with the given id.
func (e *Exercise) Player(id types.ID) (*Player, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	p, ok := e.players[id]
	return p, ok
}

// AddPlayer adds p to the roster, replacing any player with the same id.
func (e *Exercise) AddPlayer(p *Player) {
	e.mu.Lock()
	e.players[p.ID()] = p
	e.mu.Unlock()

	e.Notify(model.Change{Field: p.ID().String(), Op: model.OpPlayerAdded})
}

// RemovePlayer drops the player with the given id and reports whether it
// was present.
func (e *Exercise) RemovePlayer(id types.ID) bool {
	e.mu.Lock()
	_, ok := e.players[id]
	delete(e.players, id)
	e.mu.Unlock()

	if ok {
		e.Notify(model.Change{Field: id.String(), Op: model.OpPlayerRemoved})
	}
	return ok
}

// Merge reconciles a freshly fetched exercise into e.
//
// The exercise's own fields merge per model.Merge. The field sub-entity is
// merged in place when the ids match. A field with a different id replaces
// the local one when opts.Replaces allows it; otherwise the local field and
// its unsaved edits are kept untouched.
// Incoming players merge into the local player with the same id, keeping the
// local *Player; unknown ids are adopted as new roster entries. Local players
// absent from incoming are kept: a snapshot without a player does not delete
// it.
func (e *Exercise) Merge(incoming *Exercise, opts model.MergeOptions) error {
	if _, err := model.Merge(e.Model, incoming.Model, opts); err != nil {
		return err
	}

	inField := incoming.Field()
	inPlayers := incoming.Players()

	localField := e.Field()
	sameField := localField.ID() == inField.ID()
	replaceField := !sameField && opts.Replaces(localField.Model)

	e.mu.Lock()
	replaceField = replaceField && e.field == localField
	if replaceField {
		e.field = inField
	}
	var merges []mergePair
	var added []types.ID
	for _, id := range slices.Sorted(maps.Keys(inPlayers)) {
		if local, ok := e.players[id]; ok {
			merges = append(merges, mergePair{local: local, incoming: inPlayers[id]})
			continue
		}
		e.players[id] = inPlayers[id]
		added = append(added, id)
	}
	e.mu.Unlock()

	switch {
	case replaceField:
		e.Notify(model.Change{Field: "field", Op: model.OpMerged})
	case sameField:
		if err := localField.Merge(inField, opts); err != nil {
			return fmt.Errorf("exercise %s: %w", e.ID(), err)
		}
	}
	for _, mp := range merges {
		if err := mp.local.Merge(mp.incoming, opts); err != nil {
			return fmt.Errorf("exercise %s: %w", e.ID(), err)
		}
	}
	for _, id := range added {
		e.Notify(model.Change{Field: id.String(), Op: model.OpPlayerAdded})
	}
	return nil
}

type mergePair struct {
	local    *Player
	incoming *Player
}

// Data returns the exercise's current values as a snapshot.
func (e *Exercise) Data() ExerciseData {
	players := e.Players()
	d := ExerciseData{
		ID:      e.ID(),
		Name:    e.Name(),
		Field:   e.Field().Data(),
		Players: make(map[types.ID]PlayerData, len(players)),
	}
	for id, p := range players {
		d.Players[id] = p.Data()
	}
	return d
}
