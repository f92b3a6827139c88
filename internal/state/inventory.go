package state

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/worldstate/internal/cache"
	"github.com/mesh-intelligence/worldstate/pkg/types"
)

// InventoryQuery narrows GetInventory. Empty fields match everything.
type InventoryQuery struct {
	ItemType string
	Equipped *bool
}

func (q InventoryQuery) matches(item types.InventoryItem) bool {
	if q.ItemType != "" && item.ItemType != q.ItemType {
		return false
	}
	if q.Equipped != nil && item.Equipped != *q.Equipped {
		return false
	}
	return true
}

func inventoryItemFromRow(row types.Row) (*types.InventoryItem, error) {
	item := &types.InventoryItem{
		ID:          row.String("id"),
		CharacterID: row.String("character_id"),
		ItemName:    row.String("item_name"),
		ItemType:    row.String("item_type"),
		Quantity:    int(row.Int("quantity")),
		Equipped:    row.Bool("equipped"),
		CreatedAt:   row.Int("created_at"),
		UpdatedAt:   row.Int("updated_at"),
	}
	if err := decodeJSON(row, "properties", &item.Properties); err != nil {
		return nil, err
	}
	return item, nil
}

// AddInventoryItem gives an item to a character. A zero quantity becomes 1
// and an empty type becomes misc.
func (r *Repository) AddInventoryItem(ctx context.Context, item types.InventoryItem) (*types.InventoryItem, error) {
	if item.ItemName == "" {
		return nil, types.ErrInvalidName
	}
	if _, err := r.GetCharacterState(ctx, item.CharacterID); err != nil {
		return nil, err
	}
	if item.Quantity == 0 {
		item.Quantity = 1
	}
	if item.ItemType == "" {
		item.ItemType = types.ItemTypeMisc
	}
	row := types.Row{
		"character_id": item.CharacterID,
		"item_name":    item.ItemName,
		"item_type":    item.ItemType,
		"quantity":     item.Quantity,
		"equipped":     item.Equipped,
	}
	if item.Properties != nil {
		row["properties"] = item.Properties
	}

	id, err := r.store.Insert(ctx, types.TableInventory, row)
	r.cache.Invalidate(cache.BucketInventory, item.CharacterID)
	if err != nil {
		return nil, fmt.Errorf("adding inventory item: %w", err)
	}
	return r.getInventoryItem(ctx, id)
}

func (r *Repository) getInventoryItem(ctx context.Context, id string) (*types.InventoryItem, error) {
	row, err := r.store.Get(ctx, types.TableInventory, types.Filter{"id": id})
	if isNotFound(err) {
		return nil, notFound("inventory item", id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting inventory item: %w", err)
	}
	return inventoryItemFromRow(row)
}

// GetInventory returns a character's items in insertion order. The full
// inventory is cached per character and narrowed by q in memory.
func (r *Repository) GetInventory(ctx context.Context, characterID string, q InventoryQuery) ([]types.InventoryItem, error) {
	var all []types.InventoryItem
	if v, ok := r.cache.Get(cache.BucketInventory, characterID); ok {
		all = v.([]types.InventoryItem)
	} else {
		rows, err := r.store.GetAll(ctx, types.TableInventory, types.Filter{"character_id": characterID}, nil, 0)
		if err != nil {
			return nil, fmt.Errorf("getting inventory: %w", err)
		}
		all = make([]types.InventoryItem, 0, len(rows))
		for _, row := range rows {
			item, err := inventoryItemFromRow(row)
			if err != nil {
				return nil, err
			}
			all = append(all, *item)
		}
		r.cache.Set(cache.BucketInventory, characterID, types.CloneInventory(all))
	}

	out := make([]types.InventoryItem, 0, len(all))
	for _, item := range all {
		if q.matches(item) {
			out = append(out, item.Clone())
		}
	}
	return out, nil
}

// UpdateInventoryItem applies the set fields of patch.
func (r *Repository) UpdateInventoryItem(ctx context.Context, id string, patch types.InventoryPatch) (*types.InventoryItem, error) {
	current, err := r.getInventoryItem(ctx, id)
	if err != nil {
		return nil, err
	}

	row := types.Row{}
	if patch.ItemName != nil {
		if *patch.ItemName == "" {
			return nil, types.ErrInvalidName
		}
		row["item_name"] = *patch.ItemName
	}
	if patch.ItemType != nil {
		row["item_type"] = *patch.ItemType
	}
	if patch.Quantity != nil {
		row["quantity"] = *patch.Quantity
	}
	if patch.Equipped != nil {
		row["equipped"] = *patch.Equipped
	}
	if patch.Properties != nil {
		row["properties"] = patch.Properties
	}
	if len(row) == 0 {
		return current, nil
	}

	_, err = r.store.Update(ctx, types.TableInventory, types.Filter{"id": id}, row)
	r.cache.Invalidate(cache.BucketInventory, current.CharacterID)
	if err != nil {
		return nil, fmt.Errorf("updating inventory item: %w", err)
	}
	return r.getInventoryItem(ctx, id)
}

// RemoveInventoryItem deletes an item.
func (r *Repository) RemoveInventoryItem(ctx context.Context, id string) error {
	current, err := r.getInventoryItem(ctx, id)
	if err != nil {
		return err
	}
	_, err = r.store.Delete(ctx, types.TableInventory, types.Filter{"id": id})
	r.cache.Invalidate(cache.BucketInventory, current.CharacterID)
	if err != nil {
		return fmt.Errorf("removing inventory item: %w", err)
	}
	return nil
}
