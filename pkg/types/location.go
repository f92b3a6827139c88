package types

// LocationTypeUnknown marks locations created implicitly from narrative text.
const LocationTypeUnknown = "unknown"

// Connection is an advisory route from one location to another.
type Connection struct {
	LocationID string `json:"locationId"`
	TravelTime int    `json:"travelTime"`
}

// Location is a named place characters can be in.
type Location struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Type           string         `json:"type"`
	ParentLocation string         `json:"parent_location,omitempty"`
	ConnectedTo    []Connection   `json:"connected_to,omitempty"`
	Description    string         `json:"description,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	CreatedAt      int64          `json:"created_at"`
	UpdatedAt      int64          `json:"updated_at"`
}

// ConnectsTo reports whether locationID is listed in ConnectedTo.
func (l *Location) ConnectsTo(locationID string) bool {
	for _, c := range l.ConnectedTo {
		if c.LocationID == locationID {
			return true
		}
	}
	return false
}
