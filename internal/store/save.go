package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mesh-intelligence/drills/pkg/exercise"
	"github.com/mesh-intelligence/drills/pkg/types"
)

// ErrUnknownKind is returned by SaveData for records whose kind the store
// has no table for.
var ErrUnknownKind = errors.New("unknown entity kind")

// entityTable maps an entity kind to its table, the schema its saves are
// checked against and the column that identifies the row within an
// exercise ("" for the exercise row itself).
type entityTable struct {
	table  string
	schema types.Schema
	idCol  string
}

var entityTables = map[string]entityTable{
	types.KindExercise: {table: "exercises", schema: exercise.ExerciseSchema},
	types.KindField:    {table: "fields", schema: exercise.FieldSchema, idCol: "field_id"},
	types.KindPlayer:   {table: "players", schema: exercise.PlayerSchema, idCol: "player_id"},
}

// scope is the SavableStore for the entities of one exercise.
type scope struct {
	b          *Backend
	exerciseID types.ID
}

// Scope returns a SavableStore that persists fields of the exercise with the
// given id and of its field and players.
func (b *Backend) Scope(exerciseID types.ID) types.SavableStore {
	return &scope{b: b, exerciseID: exerciseID}
}

// SaveData persists one field of rec. Validation failures and missing rows
// come back as *types.HTTPStatusError (400 unknown field, 404 missing row,
// 422 invalid value); anything else is a plain error.
func (s *scope) SaveData(ctx context.Context, rec types.Record, field string) error {
	started := time.Now()
	kind := rec.Kind()

	err := s.save(ctx, rec, field)

	result := resultSaved
	switch {
	case err == nil:
		s.b.logger.Debug("field saved", "exercise_id", s.exerciseID, "kind", kind, "id", rec.ID(), "field", field)
	case isRejection(err):
		result = resultRejected
		s.b.logger.Warn("save rejected", "exercise_id", s.exerciseID, "kind", kind, "id", rec.ID(), "field", field, "error", err)
	default:
		result = resultFailed
		s.b.logger.Error("save failed", "exercise_id", s.exerciseID, "kind", kind, "id", rec.ID(), "field", field, "error", err)
	}
	s.b.metrics.observeSave(kind, field, result, started)
	return err
}

func isRejection(err error) bool {
	_, ok := types.IsHTTPStatusError(err)
	return ok
}

func (s *scope) save(ctx context.Context, rec types.Record, field string) error {
	et, ok := entityTables[rec.Kind()]
	if !ok {
		return fmt.Errorf("save %s %s: %w: %q", rec.Kind(), rec.ID(), ErrUnknownKind, rec.Kind())
	}
	if _, ok := et.schema.Lookup(field); !ok {
		return types.NewHTTPStatusError(http.StatusBadRequest, fmt.Sprintf("%s has no field %q", rec.Kind(), field))
	}
	raw, err := rec.Get(field)
	if err != nil {
		return types.NewHTTPStatusError(http.StatusBadRequest, err.Error())
	}
	value, err := et.schema.Coerce(field, raw)
	if err != nil {
		return types.NewHTTPStatusError(http.StatusUnprocessableEntity, err.Error())
	}
	if msg := validateValue(rec.Kind(), field, value); msg != "" {
		return types.NewHTTPStatusError(http.StatusUnprocessableEntity, msg)
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", field, err)
	}

	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	db, err := s.b.attachedDB()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	// field names come from the schema, never from input
	query := fmt.Sprintf("UPDATE %s SET %s = ? WHERE exercise_id = ?", et.table, field)
	args := []any{value, s.exerciseID.String()}
	if et.idCol != "" {
		query += fmt.Sprintf(" AND %s = ?", et.idCol)
		args = append(args, rec.ID().String())
	} else if rec.ID() != s.exerciseID {
		return types.NewHTTPStatusError(http.StatusNotFound, fmt.Sprintf("exercise %s is not in scope %s", rec.ID(), s.exerciseID))
	}

	res, err := tx.ExecContext(ctx, s.b.rebind(query), args...)
	if err != nil {
		return fmt.Errorf("update %s.%s: %w", et.table, field, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s.%s: %w", et.table, field, err)
	}
	if n == 0 {
		return types.NewHTTPStatusError(http.StatusNotFound, fmt.Sprintf("%s %s not found in exercise %s", rec.Kind(), rec.ID(), s.exerciseID))
	}

	now := timestamp()
	if _, err := tx.ExecContext(ctx, s.b.rebind(`UPDATE exercises SET updated_at = ? WHERE exercise_id = ?`),
		now, s.exerciseID.String()); err != nil {
		return fmt.Errorf("touch exercise: %w", err)
	}
	if _, err := tx.ExecContext(ctx, s.b.rebind(`
		INSERT INTO transactions (transaction_id, exercise_id, entity_kind, entity_id, field, value, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		generateUUID(), s.exerciseID.String(), rec.Kind(), rec.ID().String(), field, string(encoded), now,
	); err != nil {
		return fmt.Errorf("record transaction: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	s.b.invalidate(s.exerciseID)
	return nil
}

// validateValue returns a message describing why value is not acceptable for
// the field, or "" if it is.
func validateValue(kind, field string, value any) string {
	switch {
	case field == "name":
		if s, _ := value.(string); s == "" {
			return fmt.Sprintf("%s name must not be empty", kind)
		}
	case kind == types.KindPlayer && field == exercise.PlayerNumber:
		if n, _ := value.(int64); n < 0 {
			return fmt.Sprintf("player number must not be negative, got %d", n)
		}
	case kind == types.KindField && (field == exercise.FieldLength || field == exercise.FieldWidth):
		if f, _ := value.(float64); f <= 0 {
			return fmt.Sprintf("field %s must be positive, got %g", field, f)
		}
	}
	return ""
}
