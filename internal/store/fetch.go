package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mesh-intelligence/drills/pkg/exercise"
	"github.com/mesh-intelligence/drills/pkg/types"
)

// Transaction is one successful field save recorded in the audit trail.
type Transaction struct {
	ID         string    `json:"transaction_id"`
	ExerciseID types.ID  `json:"exercise_id"`
	EntityKind string    `json:"entity_kind"`
	EntityID   types.ID  `json:"entity_id"`
	Field      string    `json:"field"`
	Value      string    `json:"value"`
	CreatedAt  time.Time `json:"created_at"`
}

// Put validates raw as an exercise record and replaces the stored exercise,
// its field and its roster with it.
func (b *Backend) Put(ctx context.Context, raw map[string]any) error {
	d, err := exercise.BuildExerciseData(raw)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	db, err := b.attachedDB()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := b.putTx(ctx, tx, d); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	b.invalidate(d.ID)
	b.logger.Debug("exercise stored", "exercise_id", d.ID, "players", len(d.Players))
	return nil
}

func (b *Backend) putTx(ctx context.Context, tx *sql.Tx, d exercise.ExerciseData) error {
	now := timestamp()
	if _, err := tx.ExecContext(ctx, b.rebind(`
		INSERT INTO exercises (exercise_id, name, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (exercise_id) DO UPDATE SET name = excluded.name, updated_at = excluded.updated_at`),
		d.ID.String(), d.Name, now,
	); err != nil {
		return fmt.Errorf("upsert exercise: %w", err)
	}

	f := d.Field
	if _, err := tx.ExecContext(ctx, b.rebind(`
		INSERT INTO fields (exercise_id, field_id, name, surface, length, width) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (exercise_id) DO UPDATE SET field_id = excluded.field_id, name = excluded.name,
			surface = excluded.surface, length = excluded.length, width = excluded.width`),
		d.ID.String(), f.ID.String(), f.Name, f.Surface, f.Length, f.Width,
	); err != nil {
		return fmt.Errorf("upsert field: %w", err)
	}

	if _, err := tx.ExecContext(ctx, b.rebind(`DELETE FROM players WHERE exercise_id = ?`), d.ID.String()); err != nil {
		return fmt.Errorf("clear players: %w", err)
	}
	for _, p := range d.Players {
		if _, err := tx.ExecContext(ctx, b.rebind(`
			INSERT INTO players (exercise_id, player_id, name, number, position) VALUES (?, ?, ?, ?, ?)`),
			d.ID.String(), p.ID.String(), p.Name, p.Number, p.Position,
		); err != nil {
			return fmt.Errorf("insert player %s: %w", p.ID, err)
		}
	}
	return nil
}

// Fetch returns the stored exercise as a decoded record, the shape
// exercise.BuildExercise accepts, with the ids of its save transactions
// under the "transactions" key. Returns ErrNotFound if no exercise has id.
func (b *Backend) Fetch(ctx context.Context, id types.ID) (map[string]any, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	db, err := b.attachedDB()
	if err != nil {
		return nil, err
	}

	if b.cache != nil {
		if data, ok := b.cache.Get(id); ok {
			return decodeSnapshot(data)
		}
	}

	d, err := b.loadExercise(ctx, db, id)
	if err != nil {
		return nil, err
	}
	txIDs, err := b.transactionIDs(ctx, db, id)
	if err != nil {
		return nil, err
	}
	rec := d.Record()
	rec[types.KeyTransactions] = txIDs

	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode exercise %s: %w", id, err)
	}
	if b.cache != nil {
		b.cache.Add(id, data)
	}
	return decodeSnapshot(data)
}

// List returns the ids of all stored exercises in ascending order.
func (b *Backend) List(ctx context.Context) ([]types.ID, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	db, err := b.attachedDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT exercise_id FROM exercises ORDER BY exercise_id`)
	if err != nil {
		return nil, fmt.Errorf("query exercises: %w", err)
	}
	defer rows.Close()

	var ids []types.ID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan exercise: %w", err)
		}
		ids = append(ids, types.ID(id))
	}
	return ids, rows.Err()
}

// Transactions returns the audit trail of an exercise, oldest first.
func (b *Backend) Transactions(ctx context.Context, exerciseID types.ID) ([]Transaction, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	db, err := b.attachedDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, b.rebind(`
		SELECT transaction_id, exercise_id, entity_kind, entity_id, field, value, created_at
		FROM transactions WHERE exercise_id = ? ORDER BY created_at, transaction_id`),
		exerciseID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var (
			t                  Transaction
			exID, entID, stamp string
		)
		if err := rows.Scan(&t.ID, &exID, &t.EntityKind, &entID, &t.Field, &t.Value, &stamp); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.ExerciseID = types.ID(exID)
		t.EntityID = types.ID(entID)
		t.CreatedAt, err = time.Parse(timeLayout, stamp)
		if err != nil {
			return nil, fmt.Errorf("transaction %s: parse created_at: %w", t.ID, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// loadExercise reads an exercise row with its field and players.
func (b *Backend) loadExercise(ctx context.Context, db *sql.DB, id types.ID) (exercise.ExerciseData, error) {
	d := exercise.ExerciseData{ID: id, Players: map[types.ID]exercise.PlayerData{}}

	err := db.QueryRowContext(ctx, b.rebind(`SELECT name FROM exercises WHERE exercise_id = ?`), id.String()).Scan(&d.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return d, fmt.Errorf("exercise %s: %w", id, types.ErrNotFound)
	}
	if err != nil {
		return d, fmt.Errorf("query exercise %s: %w", id, err)
	}

	var fieldID string
	err = db.QueryRowContext(ctx, b.rebind(`
		SELECT field_id, name, surface, length, width FROM fields WHERE exercise_id = ?`), id.String(),
	).Scan(&fieldID, &d.Field.Name, &d.Field.Surface, &d.Field.Length, &d.Field.Width)
	if errors.Is(err, sql.ErrNoRows) {
		return d, fmt.Errorf("field of exercise %s: %w", id, types.ErrNotFound)
	}
	if err != nil {
		return d, fmt.Errorf("query field of exercise %s: %w", id, err)
	}
	d.Field.ID = types.ID(fieldID)

	rows, err := db.QueryContext(ctx, b.rebind(`
		SELECT player_id, name, number, position FROM players WHERE exercise_id = ? ORDER BY player_id`), id.String())
	if err != nil {
		return d, fmt.Errorf("query players of exercise %s: %w", id, err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			p        exercise.PlayerData
			playerID string
		)
		if err := rows.Scan(&playerID, &p.Name, &p.Number, &p.Position); err != nil {
			return d, fmt.Errorf("scan player: %w", err)
		}
		p.ID = types.ID(playerID)
		d.Players[p.ID] = p
	}
	return d, rows.Err()
}

func (b *Backend) transactionIDs(ctx context.Context, db *sql.DB, id types.ID) ([]any, error) {
	rows, err := db.QueryContext(ctx, b.rebind(`
		SELECT transaction_id FROM transactions WHERE exercise_id = ? ORDER BY created_at, transaction_id`), id.String())
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	ids := []any{}
	for rows.Next() {
		var txID string
		if err := rows.Scan(&txID); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		ids = append(ids, txID)
	}
	return ids, rows.Err()
}

// decodeSnapshot decodes cached snapshot bytes into a fresh record so callers
// never share maps with the cache.
func decodeSnapshot(data []byte) (map[string]any, error) {
	var rec map[string]any
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return rec, nil
}
