package state

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/worldstate/pkg/types"
)

// MemoryQuery narrows GetMemories. Results are ordered by importance,
// highest first, unless Ascending is set; ties go to the newest memory.
type MemoryQuery struct {
	MinImportance int
	Limit         int
	Ascending     bool
}

func memoryFromRow(row types.Row) (*types.Memory, error) {
	m := &types.Memory{
		ID:          row.String("id"),
		CharacterID: row.String("character_id"),
		Content:     row.String("content"),
		Importance:  int(row.Int("importance")),
		Timestamp:   row.Int("timestamp"),
		CreatedAt:   row.Int("created_at"),
		UpdatedAt:   row.Int("updated_at"),
	}
	if err := decodeJSON(row, "tags", &m.Tags); err != nil {
		return nil, err
	}
	return m, nil
}

// AddMemory stores a memory for a character. A zero timestamp becomes now
// and a zero importance becomes 1.
func (r *Repository) AddMemory(ctx context.Context, m types.Memory) (*types.Memory, error) {
	if m.Content == "" {
		return nil, types.ErrEmptyText
	}
	if _, err := r.GetCharacterState(ctx, m.CharacterID); err != nil {
		return nil, err
	}
	if m.Timestamp == 0 {
		m.Timestamp = r.nowMillis()
	}
	if m.Importance == 0 {
		m.Importance = types.MinImportance
	}
	row := types.Row{
		"character_id": m.CharacterID,
		"content":      m.Content,
		"importance":   m.Importance,
		"timestamp":    m.Timestamp,
	}
	if m.Tags != nil {
		row["tags"] = m.Tags
	}

	id, err := r.store.Insert(ctx, types.TableMemory, row)
	if err != nil {
		return nil, fmt.Errorf("adding memory: %w", err)
	}
	stored, err := r.store.Get(ctx, types.TableMemory, types.Filter{"id": id})
	if err != nil {
		return nil, fmt.Errorf("reading memory: %w", err)
	}
	return memoryFromRow(stored)
}

// GetMemories returns a character's memories.
func (r *Repository) GetMemories(ctx context.Context, characterID string, q MemoryQuery) ([]types.Memory, error) {
	filter := types.Filter{"character_id": characterID}
	if q.MinImportance > 0 {
		filter["importance"] = types.Gte(q.MinImportance)
	}
	order := []types.OrderBy{types.Desc("importance"), types.Desc("timestamp")}
	if q.Ascending {
		order = []types.OrderBy{types.Asc("importance"), types.Asc("timestamp")}
	}

	rows, err := r.store.GetAll(ctx, types.TableMemory, filter, order, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("getting memories: %w", err)
	}
	out := make([]types.Memory, 0, len(rows))
	for _, row := range rows {
		m, err := memoryFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, nil
}
