package state

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/mesh-intelligence/worldstate/internal/sqlite"
	"github.com/mesh-intelligence/worldstate/pkg/types"
)

// CreateSnapshot copies the five mutable tables into a new snapshot row.
// The tables are read inside one transaction so the copy is consistent.
func (r *Repository) CreateSnapshot(ctx context.Context, description string) (*types.SnapshotInfo, error) {
	var data types.SnapshotData
	info := types.SnapshotInfo{SnapshotTime: r.nowMillis(), Description: description}

	err := r.store.Transaction(ctx, func(tx *sqlite.Tx) error {
		for _, table := range types.MutableTableNames {
			rows, err := tx.GetAll(ctx, table, nil, nil, 0)
			if err != nil {
				return fmt.Errorf("reading %s: %w", table, err)
			}
			if rows == nil {
				rows = []types.Row{}
			}
			data.SetRows(table, rows)
		}

		blob, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("encoding snapshot: %w", err)
		}
		info.ID, err = tx.Insert(ctx, types.TableSnapshot, types.Row{
			"snapshot_time": info.SnapshotTime,
			"description":   description,
			"data":          string(blob),
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("creating snapshot: %w", err)
	}
	r.log.Info("snapshot created", "id", info.ID, "description", description)
	return &info, nil
}

// GetSnapshot returns a snapshot including its data blob.
func (r *Repository) GetSnapshot(ctx context.Context, id string) (*types.Snapshot, error) {
	row, err := r.store.Get(ctx, types.TableSnapshot, types.Filter{"id": id})
	if isNotFound(err) {
		return nil, notFound("snapshot", id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting snapshot: %w", err)
	}
	return &types.Snapshot{
		ID:           row.String("id"),
		SnapshotTime: row.Int("snapshot_time"),
		Description:  row.String("description"),
		Data:         row.String("data"),
	}, nil
}

// RestoreSnapshot replaces the five mutable tables with the snapshot's
// copy. The replacement runs in one transaction: on failure the state
// before the call is kept. The cache is cleared afterwards.
func (r *Repository) RestoreSnapshot(ctx context.Context, id string) error {
	snap, err := r.GetSnapshot(ctx, id)
	if err != nil {
		return err
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(snap.Data)))
	dec.UseNumber()
	var data types.SnapshotData
	if err := dec.Decode(&data); err != nil {
		return fmt.Errorf("decoding snapshot %s: %w", id, err)
	}

	err = r.store.Transaction(ctx, func(tx *sqlite.Tx) error {
		tables := types.MutableTableNames
		for i := len(tables) - 1; i >= 0; i-- {
			if _, err := tx.Delete(ctx, tables[i], nil); err != nil {
				return fmt.Errorf("clearing %s: %w", tables[i], err)
			}
		}
		for _, table := range tables {
			if err := tx.Import(ctx, table, data.Rows(table)); err != nil {
				return fmt.Errorf("restoring %s: %w", table, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("restoring snapshot %s: %w", id, err)
	}

	r.cache.Clear()
	r.log.Info("snapshot restored", "id", id)
	return nil
}

// ListSnapshots returns snapshot metadata, newest first. A limit of zero or
// less returns all snapshots.
func (r *Repository) ListSnapshots(ctx context.Context, limit int) ([]types.SnapshotInfo, error) {
	rows, err := r.store.GetAll(ctx, types.TableSnapshot, nil, []types.OrderBy{
		types.Desc("snapshot_time"), types.Desc("created_at"),
	}, limit)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	out := make([]types.SnapshotInfo, 0, len(rows))
	for _, row := range rows {
		out = append(out, types.SnapshotInfo{
			ID:           row.String("id"),
			SnapshotTime: row.Int("snapshot_time"),
			Description:  row.String("description"),
		})
	}
	return out, nil
}

// DeleteSnapshot removes a snapshot.
func (r *Repository) DeleteSnapshot(ctx context.Context, id string) error {
	n, err := r.store.Delete(ctx, types.TableSnapshot, types.Filter{"id": id})
	if err != nil {
		return fmt.Errorf("deleting snapshot: %w", err)
	}
	if n == 0 {
		return notFound("snapshot", id)
	}
	return nil
}
