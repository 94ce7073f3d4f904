package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/mesh-intelligence/drills/internal/store"
	"github.com/mesh-intelligence/drills/pkg/exercise"
	"github.com/mesh-intelligence/drills/pkg/types"
)

// attachStore resolves the store configuration and attaches a backend.
// The caller must defer Detach.
func (a *app) attachStore() (*store.Backend, error) {
	cfg, err := a.storeConfig()
	if err != nil {
		return nil, userError(err)
	}
	b := store.NewBackend(store.WithLogger(a.logger))
	if err := b.Attach(cfg); err != nil {
		return nil, sysError(fmt.Errorf("attach store: %w", err))
	}
	return b, nil
}

// loadExercise fetches an exercise snapshot and builds the local model.
func loadExercise(ctx context.Context, b *store.Backend, id string) (*exercise.Exercise, error) {
	raw, err := b.Fetch(ctx, types.ID(id))
	if err != nil {
		return nil, storeError(err)
	}
	ex, err := exercise.BuildExercise(raw)
	if err != nil {
		return nil, sysError(fmt.Errorf("decode exercise %s: %w", id, err))
	}
	return ex, nil
}

// readSnapshot reads a JSON exercise record from path ("-" for stdin).
func readSnapshot(path string, stdin io.Reader) (map[string]any, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, userError(fmt.Errorf("read snapshot: %w", err))
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, userError(fmt.Errorf("parse snapshot %s: %w", path, err))
	}
	return raw, nil
}

// storeError classifies a store error: missing entities are user errors,
// everything else is a system error.
func storeError(err error) error {
	if errors.Is(err, types.ErrNotFound) {
		return userError(err)
	}
	return sysError(err)
}

// parseValue converts a command-line string into the canonical value of a
// schema field.
func parseValue(schema types.Schema, field, s string) (any, error) {
	spec, ok := schema.Lookup(field)
	if !ok {
		return nil, fmt.Errorf("%w: %q (fields: %v)", types.ErrFieldNotFound, field, schema.Names())
	}
	switch spec.ValueType {
	case types.ValueTypeInteger:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %w: %q is not an integer", field, types.ErrTypeMismatch, s)
		}
		return n, nil
	case types.ValueTypeNumber:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %w: %q is not a number", field, types.ErrTypeMismatch, s)
		}
		return f, nil
	case types.ValueTypeBoolean:
		v, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("%s: %w: %q is not a boolean", field, types.ErrTypeMismatch, s)
		}
		return v, nil
	default:
		return s, nil
	}
}
