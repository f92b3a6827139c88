package state

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/worldstate/pkg/types"
)

func TestInventoryLifecycle(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	c := createAlice(t, r)

	apple, err := r.AddInventoryItem(ctx, types.InventoryItem{CharacterID: c.ID, ItemName: "苹果", Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, types.ItemTypeMisc, apple.ItemType)
	assert.Equal(t, 3, apple.Quantity)

	sword, err := r.AddInventoryItem(ctx, types.InventoryItem{
		CharacterID: c.ID, ItemName: "sword", ItemType: types.ItemTypeWeapon, Equipped: true,
		Properties: map[string]any{"damage": float64(7)},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, sword.Quantity)
	assert.True(t, sword.Equipped)
	assert.Equal(t, float64(7), sword.Properties["damage"])

	all, err := r.GetInventory(ctx, c.ID, InventoryQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	weapons, err := r.GetInventory(ctx, c.ID, InventoryQuery{ItemType: types.ItemTypeWeapon})
	require.NoError(t, err)
	require.Len(t, weapons, 1)
	assert.Equal(t, "sword", weapons[0].ItemName)

	unequipped, err := r.GetInventory(ctx, c.ID, InventoryQuery{Equipped: ptr(false)})
	require.NoError(t, err)
	require.Len(t, unequipped, 1)
	assert.Equal(t, "苹果", unequipped[0].ItemName)

	updated, err := r.UpdateInventoryItem(ctx, apple.ID, types.InventoryPatch{Quantity: ptr(1)})
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Quantity)

	all, err = r.GetInventory(ctx, c.ID, InventoryQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, all[0].Quantity, "cached inventory must reflect the update")

	_, err = r.UpdateInventoryItem(ctx, apple.ID, types.InventoryPatch{Quantity: ptr(-1)})
	assert.ErrorIs(t, err, types.ErrConstraintViolation)

	require.NoError(t, r.RemoveInventoryItem(ctx, apple.ID))
	all, err = r.GetInventory(ctx, c.ID, InventoryQuery{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "sword", all[0].ItemName)

	assert.ErrorIs(t, r.RemoveInventoryItem(ctx, apple.ID), types.ErrNotFound)
	_, err = r.UpdateInventoryItem(ctx, "missing", types.InventoryPatch{Quantity: ptr(2)})
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestAddInventoryItem_Errors(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	c := createAlice(t, r)

	_, err := r.AddInventoryItem(ctx, types.InventoryItem{CharacterID: "nobody", ItemName: "apple"})
	assert.ErrorIs(t, err, types.ErrNotFound)

	_, err = r.AddInventoryItem(ctx, types.InventoryItem{CharacterID: c.ID})
	assert.ErrorIs(t, err, types.ErrInvalidName)
}
