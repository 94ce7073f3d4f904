// Package store provides the public API for the exercise store.
// This package exposes the factory function and its options while keeping
// the database implementation internal.
package store

import (
	istore "github.com/mesh-intelligence/drills/internal/store"
	"github.com/mesh-intelligence/drills/pkg/types"
)

// Option configures a store created by NewBackend.
type Option = istore.Option

// Options accepted by NewBackend.
var (
	WithLogger     = istore.WithLogger
	WithRegisterer = istore.WithRegisterer
)

// NewBackend creates a new exercise store backed by SQLite or Postgres.
// The store is not attached; call Attach with a Config to open it.
//
// Example:
//
//	s := store.NewBackend()
//	err := s.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".drills-db",
//	})
//	defer s.Detach()
func NewBackend(opts ...Option) types.ExerciseStore {
	return istore.NewBackend(opts...)
}
