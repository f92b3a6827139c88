package types

// Item types. Weapon, armor and accessory are equipment slots: a character
// normally equips at most one item per slot.
const (
	ItemTypeWeapon     = "weapon"
	ItemTypeArmor      = "armor"
	ItemTypeAccessory  = "accessory"
	ItemTypeConsumable = "consumable"
	ItemTypeMisc       = "misc"
)

// Inventory quantity bounds.
const (
	MaxReasonableQuantity = 999
)

var equipmentSlots = map[string]bool{
	ItemTypeWeapon:    true,
	ItemTypeArmor:     true,
	ItemTypeAccessory: true,
}

// IsEquipmentSlot reports whether itemType occupies an equipment slot.
func IsEquipmentSlot(itemType string) bool {
	return equipmentSlots[itemType]
}

// InventoryItem is a stack of items owned by a character.
type InventoryItem struct {
	ID          string         `json:"id"`
	CharacterID string         `json:"character_id"`
	ItemName    string         `json:"item_name"`
	ItemType    string         `json:"item_type"`
	Quantity    int            `json:"quantity"`
	Equipped    bool           `json:"equipped"`
	Properties  map[string]any `json:"properties,omitempty"`
	CreatedAt   int64          `json:"created_at"`
	UpdatedAt   int64          `json:"updated_at"`
}

// InventoryPatch is a partial inventory update. Nil fields are left as is.
type InventoryPatch struct {
	ItemName   *string
	ItemType   *string
	Quantity   *int
	Equipped   *bool
	Properties map[string]any
}
