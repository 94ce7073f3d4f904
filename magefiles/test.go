//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Test groups test targets (all, unit, postgres).
type Test mg.Namespace

// All runs every test with the race detector.
func (Test) All() error {
	return sh.RunV(binGo, "test", "-race", "./...")
}

// Unit runs all tests with the Postgres store tests skipped.
func (Test) Unit() error {
	env := map[string]string{"DRILLS_TEST_POSTGRES_DSN": ""}
	return sh.RunWithV(env, binGo, "test", "./...")
}

// Postgres runs the store tests against the database named by
// DRILLS_TEST_POSTGRES_DSN.
func (Test) Postgres() error {
	if os.Getenv("DRILLS_TEST_POSTGRES_DSN") == "" {
		return errors.New("DRILLS_TEST_POSTGRES_DSN is not set")
	}
	return sh.RunV(binGo, "test", "-v", "-run", "Postgres", "./internal/store/...")
}
