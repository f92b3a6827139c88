package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/worldstate/pkg/types"
)

func TestExportImportJSONL_RoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newTestStore(t)

	locID, err := src.Insert(ctx, types.TableLocation, types.Row{
		"name":         "Library",
		"connected_to": []types.Connection{{LocationID: "x", TravelTime: 3}},
	})
	require.NoError(t, err)
	charID, err := src.Insert(ctx, types.TableCharacter, types.Row{
		"name": "Alice", "affection": 55, "current_location": locID,
	})
	require.NoError(t, err)
	_, err = src.Insert(ctx, types.TableInventory, types.Row{
		"character_id": charID, "item_name": "apple", "quantity": 3, "equipped": false,
	})
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, src.ExportJSONL(ctx, dir))

	for _, table := range jsonlTables {
		_, err := os.Stat(filepath.Join(dir, JSONLFile(table)))
		assert.NoError(t, err, "missing export for %s", table)
	}

	dst := newTestStore(t)
	insertCharacter(t, dst, "Stale")
	require.NoError(t, dst.ImportJSONL(ctx, dir))

	for _, table := range jsonlTables {
		want, err := src.GetAll(ctx, table, nil, nil, 0)
		require.NoError(t, err)
		got, err := dst.GetAll(ctx, table, nil, nil, 0)
		require.NoError(t, err)
		assert.Equal(t, want, got, "table %s differs after import", table)
	}
}

func TestImportJSONL_SkipsMalformedLines(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	content := strings.Join([]string{
		`{"id":"l1","name":"Park","type":"outdoor","created_at":1,"updated_at":1}`,
		`not json`,
		``,
		`{"id":"l2","name":"Cafe","type":"indoor","created_at":2,"updated_at":2,"extra":true}`,
	}, "\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, JSONLFile(types.TableLocation)), []byte(content), 0o644))

	s := newTestStore(t)
	require.NoError(t, s.ImportJSONL(ctx, dir))

	rows, err := s.GetAll(ctx, types.TableLocation, nil, []types.OrderBy{types.Asc("created_at")}, 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Park", rows[0].String("name"))
	assert.Equal(t, int64(2), rows[1].Int("created_at"))
}

func TestImportJSONL_FailureLeavesStoreUntouched(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	bad := `{"id":"c1","name":"Alice","affection":500,"emotion":"neutral","created_at":1,"updated_at":1}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, JSONLFile(types.TableCharacter)), []byte(bad+"\n"), 0o644))

	s := newTestStore(t)
	id := insertCharacter(t, s, "Keeper")

	err := s.ImportJSONL(ctx, dir)
	assert.ErrorIs(t, err, types.ErrConstraintViolation)

	_, err = s.Get(ctx, types.TableCharacter, types.Filter{"id": id})
	assert.NoError(t, err, "existing rows must survive a failed import")
}

func TestWriteJSONL_Atomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.jsonl")

	require.NoError(t, writeJSONL(path, nil))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Zero(t, info.Size())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}
