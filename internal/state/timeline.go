package state

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/worldstate/pkg/types"
)

// TimelineQuery selects timeline events. Zero values mean "no bound".
type TimelineQuery struct {
	StartTime     int64
	EndTime       int64
	EventType     string
	MinImportance int
	Limit         int
	Descending    bool
}

func timelineEventFromRow(row types.Row) (*types.TimelineEvent, error) {
	e := &types.TimelineEvent{
		ID:          row.String("id"),
		Timestamp:   row.Int("timestamp"),
		EventType:   row.String("event_type"),
		Description: row.String("description"),
		Location:    row.String("location"),
		Importance:  int(row.Int("importance")),
		CreatedAt:   row.Int("created_at"),
		UpdatedAt:   row.Int("updated_at"),
	}
	if err := decodeJSON(row, "participants", &e.Participants); err != nil {
		return nil, err
	}
	if err := decodeJSON(row, "metadata", &e.Metadata); err != nil {
		return nil, err
	}
	return e, nil
}

// AddTimelineEvent appends an event. A zero timestamp becomes now and a zero
// importance becomes 1.
func (r *Repository) AddTimelineEvent(ctx context.Context, e types.TimelineEvent) (*types.TimelineEvent, error) {
	if e.Timestamp == 0 {
		e.Timestamp = r.nowMillis()
	}
	if e.Importance == 0 {
		e.Importance = types.MinImportance
	}
	row := types.Row{
		"timestamp":   e.Timestamp,
		"event_type":  e.EventType,
		"description": e.Description,
		"location":    nullable(e.Location),
		"importance":  e.Importance,
	}
	if e.Participants != nil {
		row["participants"] = e.Participants
	}
	if e.Metadata != nil {
		row["metadata"] = e.Metadata
	}

	id, err := r.store.Insert(ctx, types.TableTimeline, row)
	if err != nil {
		return nil, fmt.Errorf("adding timeline event: %w", err)
	}
	stored, err := r.store.Get(ctx, types.TableTimeline, types.Filter{"id": id})
	if err != nil {
		return nil, fmt.Errorf("reading timeline event: %w", err)
	}
	return timelineEventFromRow(stored)
}

// QueryTimeline returns events matching q, oldest first unless
// q.Descending is set.
func (r *Repository) QueryTimeline(ctx context.Context, q TimelineQuery) ([]types.TimelineEvent, error) {
	filter := types.Filter{}
	switch {
	case q.StartTime != 0 && q.EndTime != 0:
		filter["timestamp"] = types.Between(q.StartTime, q.EndTime)
	case q.StartTime != 0:
		filter["timestamp"] = types.Gte(q.StartTime)
	case q.EndTime != 0:
		filter["timestamp"] = types.Lte(q.EndTime)
	}
	if q.EventType != "" {
		filter["event_type"] = q.EventType
	}
	if q.MinImportance > 0 {
		filter["importance"] = types.Gte(q.MinImportance)
	}
	order := types.Asc("timestamp")
	if q.Descending {
		order = types.Desc("timestamp")
	}

	rows, err := r.store.GetAll(ctx, types.TableTimeline, filter, []types.OrderBy{order}, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("querying timeline: %w", err)
	}
	out := make([]types.TimelineEvent, 0, len(rows))
	for _, row := range rows {
		e, err := timelineEventFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, nil
}
