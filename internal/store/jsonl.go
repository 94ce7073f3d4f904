package store

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mesh-intelligence/drills/pkg/types"
)

// ImportJSONL stores every exercise record in the JSONL file at path and
// returns how many were stored. Lines that are not valid JSON or not valid
// exercise records are skipped.
func (b *Backend) ImportJSONL(ctx context.Context, path string) (int, error) {
	lines, err := readJSONL(path)
	if err != nil {
		return 0, err
	}
	n := 0
	for i, line := range lines {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		var raw map[string]any
		if err := json.Unmarshal(line, &raw); err != nil {
			b.logger.Warn("skipping record", "path", path, "record", i, "error", err)
			continue
		}
		if err := b.Put(ctx, raw); err != nil {
			if errors.Is(err, types.ErrStoreDetached) {
				return n, err
			}
			b.logger.Warn("skipping record", "path", path, "record", i, "error", err)
			continue
		}
		n++
	}
	b.logger.Info("imported exercises", "path", path, "count", n)
	return n, nil
}

// ExportJSONL writes every stored exercise to path, one record per line in
// id order, and returns how many were written. The file is replaced
// atomically.
func (b *Backend) ExportJSONL(ctx context.Context, path string) (int, error) {
	ids, err := b.List(ctx)
	if err != nil {
		return 0, err
	}
	records := make([]json.RawMessage, 0, len(ids))
	for _, id := range ids {
		rec, err := b.Fetch(ctx, id)
		if err != nil {
			return 0, err
		}
		delete(rec, types.KeyTransactions)
		data, err := json.Marshal(rec)
		if err != nil {
			return 0, fmt.Errorf("encode exercise %s: %w", id, err)
		}
		records = append(records, data)
	}
	if err := writeJSONL(path, records); err != nil {
		return 0, err
	}
	b.logger.Info("exported exercises", "path", path, "count", len(records))
	return len(records), nil
}

// readJSONL reads a JSONL file and returns each non-empty, parseable line as
// a json.RawMessage. Malformed lines are skipped.
func readJSONL(path string) ([]json.RawMessage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var records []json.RawMessage
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 || !json.Valid(line) {
			continue
		}
		cp := make([]byte, len(line))
		copy(cp, line)
		records = append(records, json.RawMessage(cp))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}
	return records, nil
}

// writeJSONL atomically writes records to a JSONL file using the temp-file,
// fsync, rename pattern.
func writeJSONL(path string, records []json.RawMessage) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".jsonl-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	fail := func(err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}

	w := bufio.NewWriter(tmp)
	for _, rec := range records {
		if _, err := w.Write(rec); err != nil {
			return fail(fmt.Errorf("writing record: %w", err))
		}
		if err := w.WriteByte('\n'); err != nil {
			return fail(fmt.Errorf("writing newline: %w", err))
		}
	}
	if err := w.Flush(); err != nil {
		return fail(fmt.Errorf("flushing buffer: %w", err))
	}
	if err := tmp.Sync(); err != nil {
		return fail(fmt.Errorf("syncing temp file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
