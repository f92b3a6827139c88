package state

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/worldstate/internal/cache"
	"github.com/mesh-intelligence/worldstate/pkg/types"
)

func characterFromRow(row types.Row) (*types.Character, error) {
	c := &types.Character{
		ID:              row.String("id"),
		Name:            row.String("name"),
		Affection:       int(row.Int("affection")),
		Emotion:         types.Emotion(row.String("emotion")),
		CurrentLocation: row.String("current_location"),
		CreatedAt:       row.Int("created_at"),
		UpdatedAt:       row.Int("updated_at"),
	}
	if err := decodeJSON(row, "personality", &c.Personality); err != nil {
		return nil, err
	}
	if err := decodeJSON(row, "metadata", &c.Metadata); err != nil {
		return nil, err
	}
	return c, nil
}

// patchRow converts the set fields of p into a row.
func patchRow(p types.CharacterPatch) types.Row {
	row := types.Row{}
	if p.Name != nil {
		row["name"] = *p.Name
	}
	if p.Affection != nil {
		row["affection"] = *p.Affection
	}
	if p.Emotion != nil {
		row["emotion"] = string(*p.Emotion)
	}
	if p.Personality != nil {
		row["personality"] = p.Personality
	}
	if p.CurrentLocation != nil {
		row["current_location"] = nullable(*p.CurrentLocation)
	}
	if p.Metadata != nil {
		row["metadata"] = p.Metadata
	}
	return row
}

// CreateCharacter inserts a character. Name is required; fields left nil
// default to affection 50 and emotion neutral.
func (r *Repository) CreateCharacter(ctx context.Context, in types.CharacterPatch) (*types.Character, error) {
	if in.Name == nil || *in.Name == "" {
		return nil, types.ErrInvalidName
	}
	if in.Emotion != nil && !in.Emotion.Valid() {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidEmotion, *in.Emotion)
	}

	row := patchRow(in)
	if in.Affection == nil {
		row["affection"] = types.DefaultAffection
	}
	if in.Emotion == nil {
		row["emotion"] = string(types.EmotionNeutral)
	}

	id, err := r.store.Insert(ctx, types.TableCharacter, row)
	if err != nil {
		return nil, fmt.Errorf("creating character: %w", err)
	}
	r.log.Debug("character created", "id", id, "name", *in.Name)
	return r.GetCharacterState(ctx, id)
}

// GetCharacterState returns a character, serving from the cache when a
// fresh entry exists.
func (r *Repository) GetCharacterState(ctx context.Context, id string) (*types.Character, error) {
	if v, ok := r.cache.Get(cache.BucketCharacter, id); ok {
		c := v.(types.Character).Clone()
		return &c, nil
	}

	row, err := r.store.Get(ctx, types.TableCharacter, types.Filter{"id": id})
	if isNotFound(err) {
		return nil, notFound("character", id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting character: %w", err)
	}
	c, err := characterFromRow(row)
	if err != nil {
		return nil, err
	}
	r.cache.Set(cache.BucketCharacter, id, c.Clone())
	return c, nil
}

// UpdateCharacterState applies the set fields of patch and returns the
// updated character.
func (r *Repository) UpdateCharacterState(ctx context.Context, id string, patch types.CharacterPatch) (*types.Character, error) {
	if patch.Name != nil && *patch.Name == "" {
		return nil, types.ErrInvalidName
	}
	if patch.Emotion != nil && !patch.Emotion.Valid() {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidEmotion, *patch.Emotion)
	}
	if patch.Empty() {
		return r.GetCharacterState(ctx, id)
	}

	n, err := r.store.Update(ctx, types.TableCharacter, types.Filter{"id": id}, patchRow(patch))
	r.cache.Invalidate(cache.BucketCharacter, id)
	if err != nil {
		return nil, fmt.Errorf("updating character: %w", err)
	}
	if n == 0 {
		return nil, notFound("character", id)
	}
	return r.GetCharacterState(ctx, id)
}

// DeleteCharacter removes a character together with its inventory and
// memories.
func (r *Repository) DeleteCharacter(ctx context.Context, id string) error {
	n, err := r.store.Delete(ctx, types.TableCharacter, types.Filter{"id": id})
	r.cache.Invalidate(cache.BucketCharacter, id)
	r.cache.Invalidate(cache.BucketInventory, id)
	if err != nil {
		return fmt.Errorf("deleting character: %w", err)
	}
	if n == 0 {
		return notFound("character", id)
	}
	r.log.Debug("character deleted", "id", id)
	return nil
}

// ListCharacters returns every character ordered by name.
func (r *Repository) ListCharacters(ctx context.Context) ([]types.Character, error) {
	rows, err := r.store.GetAll(ctx, types.TableCharacter, nil, []types.OrderBy{types.Asc("name")}, 0)
	if err != nil {
		return nil, fmt.Errorf("listing characters: %w", err)
	}
	out := make([]types.Character, 0, len(rows))
	for _, row := range rows {
		c, err := characterFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, nil
}

// FindCharacterByName returns the first character with the given name.
func (r *Repository) FindCharacterByName(ctx context.Context, name string) (*types.Character, error) {
	row, err := r.store.Get(ctx, types.TableCharacter, types.Filter{"name": name})
	if isNotFound(err) {
		return nil, notFound("character", name)
	}
	if err != nil {
		return nil, fmt.Errorf("finding character: %w", err)
	}
	return characterFromRow(row)
}
