package store

import (
	"database/sql"
)

// Schema DDL. Column types are chosen so the same statements run on SQLite
// (type affinity) and Postgres.
const (
	createExercises = `CREATE TABLE IF NOT EXISTS exercises (
    exercise_id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    updated_at TEXT NOT NULL
)`

	createFields = `CREATE TABLE IF NOT EXISTS fields (
    exercise_id TEXT PRIMARY KEY REFERENCES exercises(exercise_id) ON DELETE CASCADE,
    field_id TEXT NOT NULL,
    name TEXT NOT NULL,
    surface TEXT NOT NULL,
    length DOUBLE PRECISION NOT NULL,
    width DOUBLE PRECISION NOT NULL
)`

	createPlayers = `CREATE TABLE IF NOT EXISTS players (
    exercise_id TEXT NOT NULL REFERENCES exercises(exercise_id) ON DELETE CASCADE,
    player_id TEXT NOT NULL,
    name TEXT NOT NULL,
    number BIGINT NOT NULL,
    position TEXT NOT NULL,
    PRIMARY KEY (exercise_id, player_id)
)`

	createTransactions = `CREATE TABLE IF NOT EXISTS transactions (
    transaction_id TEXT PRIMARY KEY,
    exercise_id TEXT NOT NULL,
    entity_kind TEXT NOT NULL,
    entity_id TEXT NOT NULL,
    field TEXT NOT NULL,
    value TEXT NOT NULL,
    created_at TEXT NOT NULL
)`

	idxTransactionsExercise = `CREATE INDEX IF NOT EXISTS idx_transactions_exercise ON transactions(exercise_id, created_at)`
)

// schemaDDL lists all statements in dependency order.
var schemaDDL = []string{
	createExercises,
	createFields,
	createPlayers,
	createTransactions,
	idxTransactionsExercise,
}

// applySchema creates missing tables and indexes. It is idempotent.
func applySchema(db *sql.DB, rebind func(string) string) error {
	for _, stmt := range schemaDDL {
		if _, err := db.Exec(rebind(stmt)); err != nil {
			return err
		}
	}
	return nil
}
