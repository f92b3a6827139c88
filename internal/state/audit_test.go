package state

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/worldstate/pkg/types"
)

func TestValidationStats(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	entries := []types.ValidationLogEntry{
		{Timestamp: 10, ValidationType: "affection", Passed: true},
		{Timestamp: 20, ValidationType: "affection", Passed: false, Details: "out of range"},
		{Timestamp: 30, ValidationType: "emotion", Passed: true},
		{Timestamp: 40, ValidationType: "affection", Passed: true},
	}
	for _, e := range entries {
		require.NoError(t, r.RecordValidation(ctx, e))
	}

	stats, err := r.ValidationStats(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 3, stats.Passed)
	assert.Equal(t, 1, stats.Failed)
	assert.InDelta(t, 0.75, stats.PassRate, 1e-9)
	assert.Equal(t, 3, stats.ByType["affection"].Total)
	assert.InDelta(t, 2.0/3.0, stats.ByType["affection"].PassRate, 1e-9)
	assert.InDelta(t, 1.0, stats.ByType["emotion"].PassRate, 1e-9)

	recent, err := r.ValidationStats(ctx, 25)
	require.NoError(t, err)
	assert.Equal(t, 2, recent.Total)
	assert.Equal(t, 2, recent.Passed)

	empty, err := r.ValidationStats(ctx, 1_000)
	require.NoError(t, err)
	assert.Zero(t, empty.Total)
	assert.Zero(t, empty.PassRate)
}
