// Package sqlite implements the persistent store for world state.
// This file holds the schema DDL and the column registry used to check
// generated statements.
package sqlite

import "github.com/mesh-intelligence/worldstate/pkg/types"

// Schema DDL for all tables. Range checks repeat the validation rules so a
// bad write is refused even when validation was bypassed.
const (
	createCharacter = `CREATE TABLE IF NOT EXISTS "character" (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    affection INTEGER NOT NULL DEFAULT 50 CHECK (affection BETWEEN 0 AND 100),
    emotion TEXT NOT NULL DEFAULT 'neutral',
    personality TEXT,
    current_location TEXT,
    metadata TEXT,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);`

	createTimeline = `CREATE TABLE IF NOT EXISTS timeline (
    id TEXT PRIMARY KEY,
    timestamp INTEGER NOT NULL,
    event_type TEXT NOT NULL,
    description TEXT NOT NULL,
    participants TEXT,
    location TEXT,
    importance INTEGER NOT NULL DEFAULT 1 CHECK (importance BETWEEN 1 AND 5),
    metadata TEXT,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);`

	createLocation = `CREATE TABLE IF NOT EXISTS location (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    type TEXT NOT NULL DEFAULT 'unknown',
    parent_location TEXT,
    connected_to TEXT,
    description TEXT,
    metadata TEXT,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);`

	createInventory = `CREATE TABLE IF NOT EXISTS inventory (
    id TEXT PRIMARY KEY,
    character_id TEXT NOT NULL,
    item_name TEXT NOT NULL,
    item_type TEXT NOT NULL DEFAULT 'misc',
    quantity INTEGER NOT NULL DEFAULT 1 CHECK (quantity >= 0),
    equipped INTEGER NOT NULL DEFAULT 0,
    properties TEXT,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    FOREIGN KEY (character_id) REFERENCES "character"(id) ON DELETE CASCADE
);`

	createMemory = `CREATE TABLE IF NOT EXISTS memory (
    id TEXT PRIMARY KEY,
    character_id TEXT NOT NULL,
    content TEXT NOT NULL,
    importance INTEGER NOT NULL DEFAULT 1 CHECK (importance BETWEEN 1 AND 5),
    timestamp INTEGER NOT NULL,
    tags TEXT,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    FOREIGN KEY (character_id) REFERENCES "character"(id) ON DELETE CASCADE
);`

	createSnapshot = `CREATE TABLE IF NOT EXISTS snapshot (
    id TEXT PRIMARY KEY,
    snapshot_time INTEGER NOT NULL,
    description TEXT,
    data TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);`

	createValidationLog = `CREATE TABLE IF NOT EXISTS validation_log (
    id TEXT PRIMARY KEY,
    timestamp INTEGER NOT NULL,
    validation_type TEXT NOT NULL,
    passed INTEGER NOT NULL,
    details TEXT,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);`
)

// Index DDL for common queries.
const (
	idxTimelineTimestamp  = `CREATE INDEX IF NOT EXISTS idx_timeline_timestamp ON timeline(timestamp);`
	idxInventoryCharacter = `CREATE INDEX IF NOT EXISTS idx_inventory_character ON inventory(character_id);`
	idxMemoryCharacter    = `CREATE INDEX IF NOT EXISTS idx_memory_character ON memory(character_id, importance);`
	idxSnapshotTime       = `CREATE INDEX IF NOT EXISTS idx_snapshot_time ON snapshot(snapshot_time);`
	idxValidationLogType  = `CREATE INDEX IF NOT EXISTS idx_validation_log_type ON validation_log(validation_type, timestamp);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createCharacter,
	createTimeline,
	createLocation,
	createInventory,
	createMemory,
	createSnapshot,
	createValidationLog,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxTimelineTimestamp,
	idxInventoryCharacter,
	idxMemoryCharacter,
	idxSnapshotTime,
	idxValidationLogType,
}

// tableColumns lists the columns of every table in declaration order.
// Generated SQL only ever names tables and columns found here.
var tableColumns = map[string][]string{
	types.TableCharacter: {
		"id", "name", "affection", "emotion", "personality", "current_location",
		"metadata", "created_at", "updated_at",
	},
	types.TableTimeline: {
		"id", "timestamp", "event_type", "description", "participants", "location",
		"importance", "metadata", "created_at", "updated_at",
	},
	types.TableLocation: {
		"id", "name", "type", "parent_location", "connected_to", "description",
		"metadata", "created_at", "updated_at",
	},
	types.TableInventory: {
		"id", "character_id", "item_name", "item_type", "quantity", "equipped",
		"properties", "created_at", "updated_at",
	},
	types.TableMemory: {
		"id", "character_id", "content", "importance", "timestamp", "tags",
		"created_at", "updated_at",
	},
	types.TableSnapshot: {
		"id", "snapshot_time", "description", "data", "created_at", "updated_at",
	},
	types.TableValidationLog: {
		"id", "timestamp", "validation_type", "passed", "details", "created_at", "updated_at",
	},
}

// columnSet indexes tableColumns for membership checks.
var columnSet = func() map[string]map[string]bool {
	sets := make(map[string]map[string]bool, len(tableColumns))
	for table, cols := range tableColumns {
		set := make(map[string]bool, len(cols))
		for _, c := range cols {
			set[c] = true
		}
		sets[table] = set
	}
	return sets
}()

// Columns returns the column names of table, or nil if the table is unknown.
func Columns(table string) []string {
	cols, ok := tableColumns[table]
	if !ok {
		return nil
	}
	out := make([]string, len(cols))
	copy(out, cols)
	return out
}

func knownTable(table string) bool {
	_, ok := tableColumns[table]
	return ok
}

func knownColumn(table, column string) bool {
	return columnSet[table][column]
}
