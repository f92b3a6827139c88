package state

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/worldstate/internal/cache"
	"github.com/mesh-intelligence/worldstate/internal/sqlite"
	"github.com/mesh-intelligence/worldstate/pkg/types"
)

// dumpState reads every mutable table as raw rows.
func dumpState(t *testing.T, r *Repository) map[string][]types.Row {
	t.Helper()
	out := make(map[string][]types.Row)
	for _, table := range types.MutableTableNames {
		rows, err := r.store.GetAll(context.Background(), table, nil, nil, 0)
		require.NoError(t, err)
		out[table] = rows
	}
	return out
}

func seedWorld(t *testing.T, r *Repository) *types.Character {
	t.Helper()
	ctx := context.Background()
	lib, err := r.CreateLocation(ctx, types.Location{Name: "图书馆"})
	require.NoError(t, err)
	c, err := r.CreateCharacter(ctx, types.CharacterPatch{
		Name:            ptr("Alice"),
		CurrentLocation: ptr(lib.ID),
		Personality:     map[string]any{"trait": "shy"},
	})
	require.NoError(t, err)
	_, err = r.AddInventoryItem(ctx, types.InventoryItem{CharacterID: c.ID, ItemName: "苹果", Quantity: 3})
	require.NoError(t, err)
	_, err = r.AddMemory(ctx, types.Memory{CharacterID: c.ID, Content: "first day", Importance: 3})
	require.NoError(t, err)
	_, err = r.AddTimelineEvent(ctx, types.TimelineEvent{EventType: "meeting", Description: "met", Participants: []string{"Alice"}})
	require.NoError(t, err)
	return c
}

func TestSnapshot_RoundTrip(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	c := seedWorld(t, r)

	before := dumpState(t, r)
	snap, err := r.CreateSnapshot(ctx, "before changes")
	require.NoError(t, err)
	assert.NotEmpty(t, snap.ID)

	// Mutate every table.
	_, err = r.UpdateCharacterState(ctx, c.ID, types.CharacterPatch{Affection: ptr(90), Emotion: ptr(types.EmotionHappy)})
	require.NoError(t, err)
	_, err = r.AddInventoryItem(ctx, types.InventoryItem{CharacterID: c.ID, ItemName: "sword"})
	require.NoError(t, err)
	_, err = r.CreateLocation(ctx, types.Location{Name: "Park"})
	require.NoError(t, err)
	_, err = r.AddTimelineEvent(ctx, types.TimelineEvent{EventType: "battle", Description: "fight"})
	require.NoError(t, err)
	_, err = r.CreateCharacter(ctx, types.CharacterPatch{Name: ptr("Bob")})
	require.NoError(t, err)

	// Warm the cache with the mutated state.
	_, err = r.GetCharacterState(ctx, c.ID)
	require.NoError(t, err)

	require.NoError(t, r.RestoreSnapshot(ctx, snap.ID))
	assert.Equal(t, before, dumpState(t, r))

	got, err := r.GetCharacterState(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, types.DefaultAffection, got.Affection, "cache must not serve pre-restore state")
	assert.Equal(t, types.EmotionNeutral, got.Emotion)

	inv, err := r.GetInventory(ctx, c.ID, InventoryQuery{})
	require.NoError(t, err)
	require.Len(t, inv, 1)
	assert.Equal(t, "苹果", inv[0].ItemName)
}

func TestSnapshot_RestoreMissing(t *testing.T) {
	r := newTestRepo(t)
	err := r.RestoreSnapshot(context.Background(), "missing")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestSnapshot_RestoreFailureKeepsState(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	seedWorld(t, r)

	// A snapshot whose inventory references a character that is not in
	// the dump violates the foreign key and must abort the restore.
	_, err := r.store.Insert(ctx, types.TableSnapshot, types.Row{
		"id":            "bad",
		"snapshot_time": 1,
		"data":          `{"character":[],"timeline":[],"location":[],"memory":[],"inventory":[{"id":"i1","character_id":"ghost","item_name":"x","item_type":"misc","quantity":1,"equipped":0,"created_at":1,"updated_at":1}]}`,
	})
	require.NoError(t, err)

	before := dumpState(t, r)
	err = r.RestoreSnapshot(ctx, "bad")
	assert.ErrorIs(t, err, types.ErrConstraintViolation)
	assert.Equal(t, before, dumpState(t, r))
}

func TestSnapshot_ListAndDelete(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	first, err := r.CreateSnapshot(ctx, "first")
	require.NoError(t, err)
	second, err := r.CreateSnapshot(ctx, "second")
	require.NoError(t, err)

	list, err := r.ListSnapshots(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "newest first")
	assert.Equal(t, "first", list[1].Description)

	limited, err := r.ListSnapshots(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	require.NoError(t, r.DeleteSnapshot(ctx, first.ID))
	assert.ErrorIs(t, r.DeleteSnapshot(ctx, first.ID), types.ErrNotFound)
	list, err = r.ListSnapshots(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestListSnapshots_SameMillisecondNewestFirst(t *testing.T) {
	clock := func() time.Time { return time.UnixMilli(1_700_000_000_000) }
	store := sqlite.NewStore(nil, sqlite.WithClock(clock))
	require.NoError(t, store.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { store.Detach() })
	r := New(store, cache.New(cache.Options{}, nil), nil, WithClock(clock))
	ctx := context.Background()

	_, err := r.CreateSnapshot(ctx, "first")
	require.NoError(t, err)
	second, err := r.CreateSnapshot(ctx, "second")
	require.NoError(t, err)

	list, err := r.ListSnapshots(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, list[0].SnapshotTime, list[1].SnapshotTime)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, "first", list[1].Description)
}
