package state

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/worldstate/pkg/types"
)

// RecordValidation appends one validation audit record. A zero timestamp
// becomes now.
func (r *Repository) RecordValidation(ctx context.Context, entry types.ValidationLogEntry) error {
	if entry.Timestamp == 0 {
		entry.Timestamp = r.nowMillis()
	}
	_, err := r.store.Insert(ctx, types.TableValidationLog, types.Row{
		"timestamp":       entry.Timestamp,
		"validation_type": entry.ValidationType,
		"passed":          entry.Passed,
		"details":         nullable(entry.Details),
	})
	if err != nil {
		return fmt.Errorf("recording validation: %w", err)
	}
	return nil
}

// ValidationStats aggregates audit records with timestamp >= since.
func (r *Repository) ValidationStats(ctx context.Context, since int64) (*types.ValidationStats, error) {
	rows, err := r.store.GetAll(ctx, types.TableValidationLog, types.Filter{"timestamp": types.Gte(since)}, nil, 0)
	if err != nil {
		return nil, fmt.Errorf("reading validation log: %w", err)
	}

	stats := &types.ValidationStats{ByType: make(map[string]types.ValidationCount)}
	for _, row := range rows {
		vt := row.String("validation_type")
		c := stats.ByType[vt]
		c.Total++
		stats.Total++
		if row.Bool("passed") {
			c.Passed++
			stats.Passed++
		}
		stats.ByType[vt] = c
	}
	stats.Failed = stats.Total - stats.Passed
	stats.PassRate = rate(stats.Passed, stats.Total)
	for vt, c := range stats.ByType {
		c.PassRate = rate(c.Passed, c.Total)
		stats.ByType[vt] = c
	}
	return stats, nil
}

func rate(passed, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(passed) / float64(total)
}
