// This file provides JSONL export and import of whole tables. Files are
// written atomically (temp file, fsync, rename) and imports run in one
// transaction.
package sqlite

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mesh-intelligence/worldstate/pkg/types"
)

// jsonlTables lists the tables written by ExportJSONL, in load order:
// referenced tables come before the tables that reference them.
var jsonlTables = []string{
	types.TableLocation,
	types.TableCharacter,
	types.TableInventory,
	types.TableMemory,
	types.TableTimeline,
	types.TableSnapshot,
	types.TableValidationLog,
}

// JSONLFile returns the file name used for table in an export directory.
func JSONLFile(table string) string {
	return table + ".jsonl"
}

// ExportJSONL writes every table to <dir>/<table>.jsonl, one row per line.
func (s *Store) ExportJSONL(ctx context.Context, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating export dir: %w", err)
	}
	for _, table := range jsonlTables {
		rows, err := s.GetAll(ctx, table, nil, nil, 0)
		if err != nil {
			return fmt.Errorf("reading %s: %w", table, err)
		}
		records := make([]json.RawMessage, 0, len(rows))
		for _, row := range rows {
			b, err := json.Marshal(row)
			if err != nil {
				return fmt.Errorf("encoding %s row: %w", table, err)
			}
			records = append(records, b)
		}
		if err := writeJSONL(filepath.Join(dir, JSONLFile(table)), records); err != nil {
			return err
		}
		s.log.Debug("table exported", "table", table, "rows", len(rows))
	}
	return nil
}

// ImportJSONL replaces the contents of every table with the rows found in
// dir. A missing file leaves that table empty. Loading is transactional:
// on any error the database is left as it was.
func (s *Store) ImportJSONL(ctx context.Context, dir string) error {
	data := make(map[string][]types.Row, len(jsonlTables))
	for _, table := range jsonlTables {
		records, err := readJSONL(filepath.Join(dir, JSONLFile(table)))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return err
		}
		rows := make([]types.Row, 0, len(records))
		for _, rec := range records {
			row, err := decodeRow(rec)
			if err != nil {
				return fmt.Errorf("decoding %s row: %w", table, err)
			}
			rows = append(rows, row)
		}
		data[table] = rows
	}

	return s.Transaction(ctx, func(tx *Tx) error {
		for i := len(jsonlTables) - 1; i >= 0; i-- {
			if _, err := tx.Delete(ctx, jsonlTables[i], nil); err != nil {
				return fmt.Errorf("clearing %s: %w", jsonlTables[i], err)
			}
		}
		for _, table := range jsonlTables {
			if err := tx.Import(ctx, table, data[table]); err != nil {
				return fmt.Errorf("loading %s: %w", table, err)
			}
		}
		return nil
	})
}

// decodeRow decodes one JSON object keeping numbers exact.
func decodeRow(b []byte) (types.Row, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var row types.Row
	if err := dec.Decode(&row); err != nil {
		return nil, err
	}
	return row, nil
}

// readJSONL reads a JSONL file and returns each non-empty line as a
// json.RawMessage. Malformed lines are skipped.
func readJSONL(path string) ([]json.RawMessage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var records []json.RawMessage
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
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

// writeJSONL atomically writes records to path using the temp-file, fsync,
// rename pattern.
func writeJSONL(path string, records []json.RawMessage) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".jsonl-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	fail := func(msg string, err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%s: %w", msg, err)
	}

	w := bufio.NewWriter(tmp)
	for _, rec := range records {
		if _, err := w.Write(rec); err != nil {
			return fail("writing record", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return fail("writing newline", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fail("flushing buffer", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("syncing temp file", err)
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
