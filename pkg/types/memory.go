package types

// Importance bounds shared by memories and timeline events.
const (
	MinImportance = 1
	MaxImportance = 5
)

// Memory is something a character remembers.
type Memory struct {
	ID          string   `json:"id"`
	CharacterID string   `json:"character_id"`
	Content     string   `json:"content"`
	Importance  int      `json:"importance"`
	Timestamp   int64    `json:"timestamp"`
	Tags        []string `json:"tags,omitempty"`
	CreatedAt   int64    `json:"created_at"`
	UpdatedAt   int64    `json:"updated_at"`
}
