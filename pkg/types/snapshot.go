package types

// Snapshot is an immutable full copy of the mutable tables.
type Snapshot struct {
	ID           string `json:"id"`
	SnapshotTime int64  `json:"snapshot_time"`
	Description  string `json:"description"`
	Data         string `json:"data"`
}

// SnapshotInfo is snapshot metadata without the data blob.
type SnapshotInfo struct {
	ID           string `json:"id"`
	SnapshotTime int64  `json:"snapshot_time"`
	Description  string `json:"description"`
}

// SnapshotData is the serialized dump stored in Snapshot.Data: one array of
// raw rows per mutable table.
type SnapshotData struct {
	Character []Row `json:"character"`
	Timeline  []Row `json:"timeline"`
	Location  []Row `json:"location"`
	Inventory []Row `json:"inventory"`
	Memory    []Row `json:"memory"`
}

// Rows returns the dump for the named table.
func (d *SnapshotData) Rows(table string) []Row {
	switch table {
	case TableCharacter:
		return d.Character
	case TableTimeline:
		return d.Timeline
	case TableLocation:
		return d.Location
	case TableInventory:
		return d.Inventory
	case TableMemory:
		return d.Memory
	default:
		return nil
	}
}

// SetRows stores rows as the dump for the named table.
func (d *SnapshotData) SetRows(table string, rows []Row) {
	switch table {
	case TableCharacter:
		d.Character = rows
	case TableTimeline:
		d.Timeline = rows
	case TableLocation:
		d.Location = rows
	case TableInventory:
		d.Inventory = rows
	case TableMemory:
		d.Memory = rows
	}
}
