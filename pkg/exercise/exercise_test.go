package exercise

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/drills/pkg/model"
	"github.com/mesh-intelligence/drills/pkg/types"
)

func drillRecord(name string, players ...map[string]any) map[string]any {
	list := make([]any, len(players))
	for i, p := range players {
		list[i] = p
	}
	return map[string]any{
		"id":   float64(1),
		"name": name,
		"field": map[string]any{
			"id":      "f1",
			"name":    "Main pitch",
			"surface": "grass",
			"length":  float64(105),
			"width":   float64(68),
		},
		"players": list,
	}
}

func playerRecord(id any, name string) map[string]any {
	return map[string]any{"id": id, "name": name}
}

func mustBuild(t *testing.T, raw map[string]any) *Exercise {
	t.Helper()
	e, err := BuildExercise(raw)
	require.NoError(t, err)
	return e
}

func TestBuildExerciseScenario(t *testing.T) {
	e := mustBuild(t, drillRecord("Drill", playerRecord(float64(5), "X")))

	assert.Equal(t, types.ID("1"), e.ID())
	assert.Equal(t, "Drill", e.Name())
	p, ok := e.Player("5")
	require.True(t, ok)
	assert.Equal(t, "X", p.Name())
	assert.Equal(t, "Main pitch", e.Field().Name())
	assert.Equal(t, 105.0, e.Field().Length())
	assert.Empty(t, e.DirtyFields())
}

func TestLocalEditSurvivesMergeWithoutOverwrite(t *testing.T) {
	e := mustBuild(t, drillRecord("Drill"))
	require.NoError(t, e.SetName("Drill2"))
	incoming := mustBuild(t, drillRecord("DrillServer"))

	require.NoError(t, e.Merge(incoming, model.MergeOptions{OverwriteModified: false}))

	assert.Equal(t, "Drill2", e.Name())
	assert.True(t, e.IsDirty(ExerciseName))
}

func TestForcedMergeDiscardsLocalEdit(t *testing.T) {
	e := mustBuild(t, drillRecord("Drill"))
	require.NoError(t, e.SetName("Drill2"))
	incoming := mustBuild(t, drillRecord("DrillServer"))

	require.NoError(t, e.Merge(incoming, model.MergeOptions{OverwriteModified: false, Forced: true}))

	assert.Equal(t, "DrillServer", e.Name())
	assert.False(t, e.IsDirty(ExerciseName))
}

func TestMergePlayersIsAdditive(t *testing.T) {
	e := mustBuild(t, drillRecord("Drill", playerRecord("1", "A"), playerRecord("2", "B")))
	a, _ := e.Player("1")
	b, _ := e.Player("2")
	incoming := mustBuild(t, drillRecord("Drill", playerRecord("2", "B2"), playerRecord("3", "C")))
	c, _ := incoming.Player("3")

	require.NoError(t, e.Merge(incoming, model.DefaultMergeOptions()))

	assert.Equal(t, []types.ID{"1", "2", "3"}, e.PlayerIDs())
	got1, _ := e.Player("1")
	assert.Same(t, a, got1, "players absent from incoming are kept")
	assert.Equal(t, "A", got1.Name())
	got2, _ := e.Player("2")
	assert.Same(t, b, got2, "existing players merge in place")
	assert.Equal(t, "B2", got2.Name())
	got3, _ := e.Player("3")
	assert.Same(t, c, got3, "new players are adopted")
}

func TestMergeRecursesWithSameFlags(t *testing.T) {
	e := mustBuild(t, drillRecord("Drill", playerRecord("1", "A")))
	p, _ := e.Player("1")
	require.NoError(t, p.SetName("A-local"))
	require.NoError(t, e.Field().SetSurface("turf"))
	incoming := mustBuild(t, drillRecord("Drill", playerRecord("1", "A-server")))

	require.NoError(t, e.Merge(incoming, model.MergeOptions{}))
	assert.Equal(t, "A-local", p.Name())
	assert.Equal(t, "turf", e.Field().Surface())

	require.NoError(t, e.Merge(incoming, model.MergeOptions{Forced: true}))
	assert.Equal(t, "A-server", p.Name())
	assert.Equal(t, "grass", e.Field().Surface())
}

func TestMergeKeepsFieldIdentity(t *testing.T) {
	e := mustBuild(t, drillRecord("Drill"))
	field := e.Field()
	raw := drillRecord("Drill")
	raw["field"].(map[string]any)["width"] = float64(70)
	incoming := mustBuild(t, raw)

	require.NoError(t, e.Merge(incoming, model.DefaultMergeOptions()))

	assert.Same(t, field, e.Field())
	assert.Equal(t, 70.0, e.Field().Width())
}

func TestMergeReplacesFieldWithNewID(t *testing.T) {
	e := mustBuild(t, drillRecord("Drill"))
	raw := drillRecord("Drill")
	raw["field"].(map[string]any)["id"] = "f2"
	incoming := mustBuild(t, raw)
	var changes []model.Change
	e.Subscribe(func(c model.Change) { changes = append(changes, c) })

	require.NoError(t, e.Merge(incoming, model.DefaultMergeOptions()))

	assert.Same(t, incoming.Field(), e.Field())
	assert.Equal(t, types.ID("f2"), e.Field().ID())
	assert.Contains(t, changes, model.Change{Kind: types.KindExercise, ID: "1", Field: "field", Op: model.OpMerged})
}

func TestMergeKeepsConflictedFieldWithNewID(t *testing.T) {
	tests := []struct {
		name  string
		touch func(t *testing.T, f *Field)
	}{
		{name: "dirty", touch: func(t *testing.T, f *Field) {
			require.NoError(t, f.SetName("Edited"))
		}},
		{name: "save error", touch: func(t *testing.T, f *Field) {
			require.NoError(t, f.SetName("Edited"))
			require.NoError(t, f.MarkSaved(FieldName))
			require.NoError(t, f.MarkError(FieldName, errors.New("write failed")))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := mustBuild(t, drillRecord("Drill"))
			field := e.Field()
			tt.touch(t, field)
			raw := drillRecord("Drill")
			raw["field"].(map[string]any)["id"] = "f2"
			raw["field"].(map[string]any)["name"] = "Pitch B"
			incoming := mustBuild(t, raw)
			var changes []model.Change
			e.Subscribe(func(c model.Change) { changes = append(changes, c) })

			require.NoError(t, e.Merge(incoming, model.MergeOptions{}))

			assert.Same(t, field, e.Field())
			assert.Equal(t, "Edited", e.Field().Name())
			assert.True(t, e.Field().Conflicted())
			assert.NotContains(t, changes, model.Change{Kind: types.KindExercise, ID: "1", Field: "field", Op: model.OpMerged})

			require.NoError(t, e.Merge(incoming, model.DefaultMergeOptions()))
			assert.Same(t, incoming.Field(), e.Field())
			assert.Equal(t, "Pitch B", e.Field().Name())
		})
	}
}

func TestMergeReplacesCleanFieldWithNewIDWithoutOverwrite(t *testing.T) {
	e := mustBuild(t, drillRecord("Drill"))
	raw := drillRecord("Drill")
	raw["field"].(map[string]any)["id"] = "f2"
	incoming := mustBuild(t, raw)

	require.NoError(t, e.Merge(incoming, model.MergeOptions{}))

	assert.Same(t, incoming.Field(), e.Field())
}

func TestMergeIsIdempotent(t *testing.T) {
	e := mustBuild(t, drillRecord("Drill", playerRecord("1", "A")))
	incoming := mustBuild(t, drillRecord("Server", playerRecord("1", "A2"), playerRecord("2", "B")))
	opts := model.MergeOptions{OverwriteModified: true}

	require.NoError(t, e.Merge(incoming, opts))
	once := e.Data()
	require.NoError(t, e.Merge(incoming, opts))

	assert.Equal(t, once, e.Data())
}

func TestMergeRejectsOtherExercise(t *testing.T) {
	e := mustBuild(t, drillRecord("Drill"))
	raw := drillRecord("Other")
	raw["id"] = "99"
	other := mustBuild(t, raw)

	err := e.Merge(other, model.DefaultMergeOptions())

	assert.ErrorIs(t, err, types.ErrIDMismatch)
	assert.Equal(t, "Drill", e.Name())
}

func TestMergeNotifiesAddedPlayers(t *testing.T) {
	e := mustBuild(t, drillRecord("Drill"))
	incoming := mustBuild(t, drillRecord("Drill", playerRecord("9", "N")))
	var changes []model.Change
	e.Subscribe(func(c model.Change) { changes = append(changes, c) })

	require.NoError(t, e.Merge(incoming, model.DefaultMergeOptions()))

	assert.Equal(t, []model.Change{{Kind: types.KindExercise, ID: "1", Field: "9", Op: model.OpPlayerAdded}}, changes)
}

func TestAddAndRemovePlayer(t *testing.T) {
	e := mustBuild(t, drillRecord("Drill"))
	var ops []model.Op
	e.Subscribe(func(c model.Change) { ops = append(ops, c.Op) })
	p, err := NewPlayer(PlayerData{ID: "7", Name: "Seven", Number: 7, Position: "FW"})
	require.NoError(t, err)

	e.AddPlayer(p)
	got, ok := e.Player("7")
	require.True(t, ok)
	assert.Same(t, p, got)

	assert.True(t, e.RemovePlayer("7"))
	assert.False(t, e.RemovePlayer("7"))
	_, ok = e.Player("7")
	assert.False(t, ok)
	assert.Equal(t, []model.Op{model.OpPlayerAdded, model.OpPlayerRemoved}, ops)
}

func TestPlayersReturnsCopy(t *testing.T) {
	e := mustBuild(t, drillRecord("Drill", playerRecord("1", "A")))

	players := e.Players()
	delete(players, "1")

	_, ok := e.Player("1")
	assert.True(t, ok)
}

func TestNewExerciseRejectsMismatchedPlayerKey(t *testing.T) {
	_, err := NewExercise(ExerciseData{
		ID:      "1",
		Name:    "Drill",
		Field:   FieldData{ID: "f", Name: "pitch"},
		Players: map[types.ID]PlayerData{"1": {ID: "2", Name: "A"}},
	})
	assert.ErrorIs(t, err, types.ErrIDMismatch)
}

func TestSubEntitiesSaveIndependently(t *testing.T) {
	e := mustBuild(t, drillRecord("Drill", playerRecord("1", "A")))
	p, _ := e.Player("1")
	require.NoError(t, e.SetName("Renamed"))
	require.NoError(t, p.SetNumber(10))

	var saved []string
	store := types.SavableStoreFunc(func(ctx context.Context, rec types.Record, field string) error {
		saved = append(saved, rec.Kind()+"/"+rec.ID().String()+"/"+field)
		if rec.Kind() == types.KindPlayer {
			return types.NewHTTPStatusError(http.StatusConflict, "roster locked")
		}
		return nil
	})

	require.NoError(t, e.RequestSave(context.Background(), store, ExerciseName))
	require.NoError(t, p.RequestSave(context.Background(), store, PlayerNumber))

	assert.Equal(t, []string{"exercise/1/name", "player/1/number"}, saved)
	assert.False(t, e.IsDirty(ExerciseName))
	st, err := p.State(PlayerNumber)
	require.NoError(t, err)
	assert.True(t, st.Dirty)
	assert.Error(t, st.Err)
}

func TestDataReflectsCurrentValues(t *testing.T) {
	e := mustBuild(t, drillRecord("Drill", playerRecord("1", "A")))
	require.NoError(t, e.SetName("Edited"))

	d := e.Data()

	assert.Equal(t, "Edited", d.Name)
	assert.Equal(t, "grass", d.Field.Surface)
	assert.Equal(t, PlayerData{ID: "1", Name: "A"}, d.Players["1"])
}
