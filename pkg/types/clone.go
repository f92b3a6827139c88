package types

import "slices"

// Clone returns a copy of c that shares no maps with it.
func (c Character) Clone() Character {
	c.Personality = CloneMap(c.Personality)
	c.Metadata = CloneMap(c.Metadata)
	return c
}

// Clone returns a copy of l that shares no slices or maps with it.
func (l Location) Clone() Location {
	l.ConnectedTo = slices.Clone(l.ConnectedTo)
	l.Metadata = CloneMap(l.Metadata)
	return l
}

// Clone returns a copy of item that shares no maps with it.
func (item InventoryItem) Clone() InventoryItem {
	item.Properties = CloneMap(item.Properties)
	return item
}

// CloneInventory clones every item of items.
func CloneInventory(items []InventoryItem) []InventoryItem {
	if items == nil {
		return nil
	}
	out := make([]InventoryItem, len(items))
	for i, item := range items {
		out[i] = item.Clone()
	}
	return out
}

// CloneMap copies m recursively through nested maps and slices decoded
// from JSON. A nil map stays nil.
func CloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		return CloneMap(v)
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
