package exercise

import (
	"fmt"
	"maps"
	"slices"

	"github.com/mesh-intelligence/drills/pkg/types"
)

// Snapshot keys of an exercise record beyond its schema fields.
const (
	keyField   = "field"
	keyPlayers = "players"
)

// BuildFieldData converts a decoded field record into FieldData.
func BuildFieldData(raw map[string]any) (FieldData, error) {
	id, vals, err := decodeRecord(types.KindField, FieldSchema, raw, nil)
	if err != nil {
		return FieldData{}, err
	}
	return FieldData{
		ID:      id,
		Name:    vals[FieldName].(string),
		Surface: vals[FieldSurface].(string),
		Length:  vals[FieldLength].(float64),
		Width:   vals[FieldWidth].(float64),
	}, nil
}

// BuildPlayerData converts a decoded player record into PlayerData.
func BuildPlayerData(raw map[string]any) (PlayerData, error) {
	id, vals, err := decodeRecord(types.KindPlayer, PlayerSchema, raw, nil)
	if err != nil {
		return PlayerData{}, err
	}
	return PlayerData{
		ID:       id,
		Name:     vals[PlayerName].(string),
		Number:   vals[PlayerNumber].(int64),
		Position: vals[PlayerPosition].(string),
	}, nil
}

// BuildExerciseData converts a decoded exercise record into ExerciseData.
// The player list is flattened into a map keyed by player id; the nested
// field and each player are decoded by their own builders. Required keys
// (id, name, field, players) are not defaulted. Two players whose ids
// normalize to the same value are rejected with types.ErrIDMismatch.
func BuildExerciseData(raw map[string]any) (ExerciseData, error) {
	id, vals, err := decodeRecord(types.KindExercise, ExerciseSchema, raw, []string{keyField, keyPlayers})
	if err != nil {
		return ExerciseData{}, err
	}

	fieldRaw, ok := raw[keyField]
	if !ok {
		return ExerciseData{}, fmt.Errorf("exercise %s: %w: %q", id, types.ErrMissingField, keyField)
	}
	fieldRec, ok := asRecord(fieldRaw)
	if !ok {
		return ExerciseData{}, fmt.Errorf("exercise %s: %w: %q is %T", id, types.ErrTypeMismatch, keyField, fieldRaw)
	}
	field, err := BuildFieldData(fieldRec)
	if err != nil {
		return ExerciseData{}, fmt.Errorf("exercise %s: %w", id, err)
	}

	playersRaw, ok := raw[keyPlayers]
	if !ok {
		return ExerciseData{}, fmt.Errorf("exercise %s: %w: %q", id, types.ErrMissingField, keyPlayers)
	}
	list, ok := asRecordList(playersRaw)
	if !ok {
		return ExerciseData{}, fmt.Errorf("exercise %s: %w: %q is %T", id, types.ErrTypeMismatch, keyPlayers, playersRaw)
	}
	players := make(map[types.ID]PlayerData, len(list))
	for _, rec := range list {
		p, err := BuildPlayerData(rec)
		if err != nil {
			return ExerciseData{}, fmt.Errorf("exercise %s: %w", id, err)
		}
		if _, dup := players[p.ID]; dup {
			return ExerciseData{}, fmt.Errorf("exercise %s: %w: duplicate player %s", id, types.ErrIDMismatch, p.ID)
		}
		players[p.ID] = p
	}

	return ExerciseData{
		ID:      id,
		Name:    vals[ExerciseName].(string),
		Field:   field,
		Players: players,
	}, nil
}

// BuildExercise decodes raw and constructs the Exercise.
func BuildExercise(raw map[string]any) (*Exercise, error) {
	d, err := BuildExerciseData(raw)
	if err != nil {
		return nil, err
	}
	return NewExercise(d)
}

// Record converts d back into the decoded record shape BuildExerciseData
// accepts. Players are emitted in id order.
func (d ExerciseData) Record() map[string]any {
	players := make([]any, 0, len(d.Players))
	for _, id := range slices.Sorted(maps.Keys(d.Players)) {
		p := d.Players[id]
		players = append(players, map[string]any{
			types.KeyID:    p.ID.String(),
			PlayerName:     p.Name,
			PlayerNumber:   p.Number,
			PlayerPosition: p.Position,
		})
	}
	return map[string]any{
		types.KeyID:  d.ID.String(),
		ExerciseName: d.Name,
		keyField: map[string]any{
			types.KeyID:  d.Field.ID.String(),
			FieldName:    d.Field.Name,
			FieldSurface: d.Field.Surface,
			FieldLength:  d.Field.Length,
			FieldWidth:   d.Field.Width,
		},
		keyPlayers: players,
	}
}

// decodeRecord validates raw against schema: the id is required, unknown
// keys other than reserved and structural ones are rejected, required fields
// must be present and optional ones default. Values are coerced.
func decodeRecord(kind string, schema types.Schema, raw map[string]any, structural []string) (types.ID, map[string]any, error) {
	rawID, ok := raw[types.KeyID]
	if !ok {
		return "", nil, fmt.Errorf("%s: %w: %q", kind, types.ErrMissingField, types.KeyID)
	}
	id, err := types.ParseID(rawID)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", kind, err)
	}

	for key := range raw {
		if types.IsReservedKey(key) || slices.Contains(structural, key) {
			continue
		}
		if _, ok := schema.Lookup(key); !ok {
			return "", nil, fmt.Errorf("%s %s: %w: %q", kind, id, types.ErrUnknownField, key)
		}
	}

	vals := make(map[string]any, len(schema))
	for _, spec := range schema {
		v, ok := raw[spec.Name]
		if !ok {
			if spec.Required {
				return "", nil, fmt.Errorf("%s %s: %w: %q", kind, id, types.ErrMissingField, spec.Name)
			}
			v, err = types.DefaultValue(spec.ValueType)
			if err != nil {
				return "", nil, err
			}
		}
		cv, err := schema.Coerce(spec.Name, v)
		if err != nil {
			return "", nil, fmt.Errorf("%s %s: %w", kind, id, err)
		}
		vals[spec.Name] = cv
	}
	return id, vals, nil
}

func asRecord(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func asRecordList(v any) ([]map[string]any, bool) {
	switch x := v.(type) {
	case []map[string]any:
		return x, true
	case []any:
		out := make([]map[string]any, 0, len(x))
		for _, item := range x {
			rec, ok := asRecord(item)
			if !ok {
				return nil, false
			}
			out = append(out, rec)
		}
		return out, true
	}
	return nil, false
}
