package types

// Affection bounds.
const (
	MinAffection     = 0
	MaxAffection     = 100
	DefaultAffection = 50
)

// Emotion is one of the fixed emotional states a character can be in.
type Emotion string

// Emotion values.
const (
	EmotionNeutral   Emotion = "neutral"
	EmotionHappy     Emotion = "happy"
	EmotionSad       Emotion = "sad"
	EmotionAngry     Emotion = "angry"
	EmotionSurprised Emotion = "surprised"
	EmotionFearful   Emotion = "fearful"
	EmotionDisgusted Emotion = "disgusted"
	EmotionShy       Emotion = "shy"
	EmotionExcited   Emotion = "excited"
	EmotionAnxious   Emotion = "anxious"
)

// Emotions lists every emotion in canonical order. Extraction breaks score
// ties by this order, so it must stay stable.
var Emotions = []Emotion{
	EmotionNeutral,
	EmotionHappy,
	EmotionSad,
	EmotionAngry,
	EmotionSurprised,
	EmotionFearful,
	EmotionDisgusted,
	EmotionShy,
	EmotionExcited,
	EmotionAnxious,
}

var validEmotions = func() map[Emotion]bool {
	m := make(map[Emotion]bool, len(Emotions))
	for _, e := range Emotions {
		m[e] = true
	}
	return m
}()

// Valid reports whether e is one of the fixed emotions.
func (e Emotion) Valid() bool {
	return validEmotions[e]
}

// Character is a conversational character and its mutable state.
type Character struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Affection       int            `json:"affection"`
	Emotion         Emotion        `json:"emotion"`
	Personality     map[string]any `json:"personality,omitempty"`
	CurrentLocation string         `json:"current_location,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	CreatedAt       int64          `json:"created_at"`
	UpdatedAt       int64          `json:"updated_at"`
}

// CharacterPatch is a partial character update. Nil fields are left as is.
type CharacterPatch struct {
	Name            *string
	Affection       *int
	Emotion         *Emotion
	Personality     map[string]any
	CurrentLocation *string
	Metadata        map[string]any
}

// Empty reports whether the patch changes nothing.
func (p CharacterPatch) Empty() bool {
	return p.Name == nil && p.Affection == nil && p.Emotion == nil &&
		p.Personality == nil && p.CurrentLocation == nil && p.Metadata == nil
}
