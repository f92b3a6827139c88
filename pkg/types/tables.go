package types

// Standard table names.
const (
	TableCharacter     = "character"
	TableTimeline      = "timeline"
	TableLocation      = "location"
	TableInventory     = "inventory"
	TableMemory        = "memory"
	TableSnapshot      = "snapshot"
	TableValidationLog = "validation_log"
)

// StandardTableNames lists all standard table names for enumeration.
var StandardTableNames = []string{
	TableCharacter,
	TableTimeline,
	TableLocation,
	TableInventory,
	TableMemory,
	TableSnapshot,
	TableValidationLog,
}

// MutableTableNames lists the tables captured by a snapshot, in the order
// they must be re-inserted (owners before the rows that reference them).
var MutableTableNames = []string{
	TableLocation,
	TableCharacter,
	TableInventory,
	TableMemory,
	TableTimeline,
}

// Common column names stamped by the store on every row.
const (
	ColumnID        = "id"
	ColumnCreatedAt = "created_at"
	ColumnUpdatedAt = "updated_at"
)
