package state

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/worldstate/internal/cache"
	"github.com/mesh-intelligence/worldstate/pkg/types"
)

func locationFromRow(row types.Row) (*types.Location, error) {
	l := &types.Location{
		ID:             row.String("id"),
		Name:           row.String("name"),
		Type:           row.String("type"),
		ParentLocation: row.String("parent_location"),
		Description:    row.String("description"),
		CreatedAt:      row.Int("created_at"),
		UpdatedAt:      row.Int("updated_at"),
	}
	if err := decodeJSON(row, "connected_to", &l.ConnectedTo); err != nil {
		return nil, err
	}
	if err := decodeJSON(row, "metadata", &l.Metadata); err != nil {
		return nil, err
	}
	return l, nil
}

// CreateLocation inserts a location. Names are unique; an empty type
// becomes "unknown".
func (r *Repository) CreateLocation(ctx context.Context, l types.Location) (*types.Location, error) {
	if l.Name == "" {
		return nil, types.ErrInvalidName
	}
	if l.Type == "" {
		l.Type = types.LocationTypeUnknown
	}
	row := types.Row{
		"name":            l.Name,
		"type":            l.Type,
		"parent_location": nullable(l.ParentLocation),
		"description":     nullable(l.Description),
	}
	if l.ID != "" {
		row["id"] = l.ID
	}
	if l.ConnectedTo != nil {
		row["connected_to"] = l.ConnectedTo
	}
	if l.Metadata != nil {
		row["metadata"] = l.Metadata
	}

	id, err := r.store.Insert(ctx, types.TableLocation, row)
	if err != nil {
		return nil, fmt.Errorf("creating location %q: %w", l.Name, err)
	}
	r.log.Debug("location created", "id", id, "name", l.Name, "type", l.Type)
	return r.GetLocation(ctx, id)
}

// GetLocation returns a location by id.
func (r *Repository) GetLocation(ctx context.Context, id string) (*types.Location, error) {
	if v, ok := r.cache.Get(cache.BucketLocation, id); ok {
		l := v.(types.Location).Clone()
		return &l, nil
	}
	row, err := r.store.Get(ctx, types.TableLocation, types.Filter{"id": id})
	if isNotFound(err) {
		return nil, notFound("location", id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting location: %w", err)
	}
	l, err := locationFromRow(row)
	if err != nil {
		return nil, err
	}
	r.cache.Set(cache.BucketLocation, id, l.Clone())
	return l, nil
}

// GetLocationByName returns the location with the given name.
func (r *Repository) GetLocationByName(ctx context.Context, name string) (*types.Location, error) {
	row, err := r.store.Get(ctx, types.TableLocation, types.Filter{"name": name})
	if isNotFound(err) {
		return nil, notFound("location", name)
	}
	if err != nil {
		return nil, fmt.Errorf("getting location by name: %w", err)
	}
	return locationFromRow(row)
}

// ListLocations returns every location ordered by name.
func (r *Repository) ListLocations(ctx context.Context) ([]types.Location, error) {
	rows, err := r.store.GetAll(ctx, types.TableLocation, nil, []types.OrderBy{types.Asc("name")}, 0)
	if err != nil {
		return nil, fmt.Errorf("listing locations: %w", err)
	}
	out := make([]types.Location, 0, len(rows))
	for _, row := range rows {
		l, err := locationFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, nil
}

// ConnectLocations records a one-way route from fromID to toID. An existing
// route has its travel time replaced. Connections are advisory and are not
// mirrored.
func (r *Repository) ConnectLocations(ctx context.Context, fromID, toID string, travelTime int) error {
	from, err := r.GetLocation(ctx, fromID)
	if err != nil {
		return err
	}
	if _, err := r.GetLocation(ctx, toID); err != nil {
		return err
	}

	updated := false
	for i := range from.ConnectedTo {
		if from.ConnectedTo[i].LocationID == toID {
			from.ConnectedTo[i].TravelTime = travelTime
			updated = true
		}
	}
	if !updated {
		from.ConnectedTo = append(from.ConnectedTo, types.Connection{LocationID: toID, TravelTime: travelTime})
	}

	_, err = r.store.Update(ctx, types.TableLocation, types.Filter{"id": fromID}, types.Row{"connected_to": from.ConnectedTo})
	r.cache.Invalidate(cache.BucketLocation, fromID)
	if err != nil {
		return fmt.Errorf("connecting locations: %w", err)
	}
	return nil
}
