package types

// TimelineEvent is a world event recorded on the shared timeline.
type TimelineEvent struct {
	ID           string         `json:"id"`
	Timestamp    int64          `json:"timestamp"`
	EventType    string         `json:"event_type"`
	Description  string         `json:"description"`
	Participants []string       `json:"participants,omitempty"`
	Location     string         `json:"location,omitempty"`
	Importance   int            `json:"importance"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    int64          `json:"created_at"`
	UpdatedAt    int64          `json:"updated_at"`
}

// MaxParticipants is the participant count above which an event is flagged.
const MaxParticipants = 10
