package state

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/worldstate/pkg/types"
)

func TestCreateLocation(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	lib, err := r.CreateLocation(ctx, types.Location{Name: "Library", Description: "quiet"})
	require.NoError(t, err)
	assert.Equal(t, types.LocationTypeUnknown, lib.Type)
	assert.Equal(t, "quiet", lib.Description)

	_, err = r.CreateLocation(ctx, types.Location{Name: "Library"})
	assert.ErrorIs(t, err, types.ErrConstraintViolation, "names are unique")

	_, err = r.CreateLocation(ctx, types.Location{})
	assert.ErrorIs(t, err, types.ErrInvalidName)

	byName, err := r.GetLocationByName(ctx, "Library")
	require.NoError(t, err)
	assert.Equal(t, lib.ID, byName.ID)

	_, err = r.GetLocationByName(ctx, "Moon")
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, err = r.GetLocation(ctx, "missing")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestConnectLocations(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	town, err := r.CreateLocation(ctx, types.Location{Name: "Town", Type: "city"})
	require.NoError(t, err)
	inn, err := r.CreateLocation(ctx, types.Location{Name: "Inn", Type: "building", ParentLocation: town.ID})
	require.NoError(t, err)

	require.NoError(t, r.ConnectLocations(ctx, town.ID, inn.ID, 5))
	require.NoError(t, r.ConnectLocations(ctx, town.ID, inn.ID, 7))

	got, err := r.GetLocation(ctx, town.ID)
	require.NoError(t, err)
	assert.Equal(t, []types.Connection{{LocationID: inn.ID, TravelTime: 7}}, got.ConnectedTo)
	assert.True(t, got.ConnectsTo(inn.ID))

	back, err := r.GetLocation(ctx, inn.ID)
	require.NoError(t, err)
	assert.False(t, back.ConnectsTo(town.ID), "connections are not mirrored")
	assert.Equal(t, town.ID, back.ParentLocation)

	assert.ErrorIs(t, r.ConnectLocations(ctx, town.ID, "missing", 1), types.ErrNotFound)

	all, err := r.ListLocations(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Inn", all[0].Name)
}
