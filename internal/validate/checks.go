package validate

import (
	"context"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/worldstate/internal/state"
	"github.com/mesh-intelligence/worldstate/pkg/types"
)

// AffectionChange is the subject passed to affection rules.
type AffectionChange struct {
	CharacterID string
	Current     int
	New         int
}

// EmotionChange is the subject passed to emotion rules.
type EmotionChange struct {
	CharacterID string
	Current     types.Emotion
	New         types.Emotion
}

// LocationChange is the subject passed to location rules.
type LocationChange struct {
	CharacterID string
	From        string
	To          string
}

// unlikelyTransitions lists emotion changes that are allowed but flagged.
var unlikelyTransitions = map[types.Emotion][]types.Emotion{
	types.EmotionHappy:     {types.EmotionAngry, types.EmotionDisgusted},
	types.EmotionSad:       {types.EmotionExcited},
	types.EmotionAngry:     {types.EmotionShy, types.EmotionHappy},
	types.EmotionFearful:   {types.EmotionExcited},
	types.EmotionDisgusted: {types.EmotionExcited},
	types.EmotionShy:       {types.EmotionAngry},
}

// UnlikelyTransition reports whether from → to is in the unlikely table.
func UnlikelyTransition(from, to types.Emotion) bool {
	for _, e := range unlikelyTransitions[from] {
		if e == to {
			return true
		}
	}
	return false
}

// ValidateAffection checks a proposed affection value for a character.
func (v *Validator) ValidateAffection(ctx context.Context, characterID string, value int) (*Result, error) {
	res := newResult()
	subject := AffectionChange{CharacterID: characterID, New: value}

	if value < types.MinAffection || value > types.MaxAffection {
		res.add(Issue{
			Category: CategoryAffection,
			Severity: SeverityError,
			Code:     codeOutOfRange,
			Field:    "affection",
			Message:  fmt.Sprintf("affection %d outside [%d, %d]", value, types.MinAffection, types.MaxAffection),
		})
	}

	c, err := v.character(ctx, CategoryAffection, characterID, res)
	if err != nil {
		return nil, err
	}
	if c != nil {
		subject.Current = c.Affection
		if diff := value - c.Affection; diff > MaxAffectionStep || diff < -MaxAffectionStep {
			res.add(Issue{
				Category: CategoryAffection,
				Severity: SeverityWarning,
				Code:     codeLargeChange,
				Field:    "affection",
				Message:  fmt.Sprintf("affection changes by %d (from %d to %d)", diff, c.Affection, value),
			})
		}
	}
	return v.finish(ctx, CategoryAffection, subject, res), nil
}

// ValidateEmotion checks a proposed emotion for a character.
func (v *Validator) ValidateEmotion(ctx context.Context, characterID string, emotion types.Emotion) (*Result, error) {
	res := newResult()
	subject := EmotionChange{CharacterID: characterID, New: emotion}

	if !emotion.Valid() {
		res.add(Issue{
			Category: CategoryEmotion,
			Severity: SeverityError,
			Code:     codeUnknownEmotion,
			Field:    "emotion",
			Message:  fmt.Sprintf("%q is not a known emotion", emotion),
		})
	}

	c, err := v.character(ctx, CategoryEmotion, characterID, res)
	if err != nil {
		return nil, err
	}
	if c != nil {
		subject.Current = c.Emotion
		if UnlikelyTransition(c.Emotion, emotion) {
			res.add(Issue{
				Category: CategoryEmotion,
				Severity: SeverityWarning,
				Code:     codeUnlikelyTransition,
				Field:    "emotion",
				Message:  fmt.Sprintf("unlikely transition from %s to %s", c.Emotion, emotion),
			})
		}
	}
	return v.finish(ctx, CategoryEmotion, subject, res), nil
}

// ValidateLocation checks moving a character to locationID. Reachability
// from the current location is advisory.
func (v *Validator) ValidateLocation(ctx context.Context, characterID, locationID string) (*Result, error) {
	res := newResult()
	subject := LocationChange{CharacterID: characterID, To: locationID}

	c, err := v.character(ctx, CategoryLocation, characterID, res)
	if err != nil {
		return nil, err
	}

	_, err = v.reader.GetLocation(ctx, locationID)
	switch {
	case errors.Is(err, types.ErrNotFound):
		res.add(Issue{
			Category: CategoryLocation,
			Severity: SeverityError,
			Code:     codeLocationNotFound,
			Field:    "current_location",
			Message:  fmt.Sprintf("location %q does not exist", locationID),
		})
	case err != nil:
		return nil, fmt.Errorf("reading location: %w", err)
	}

	if c != nil && res.Passed {
		subject.From = c.CurrentLocation
		if err := v.checkReachable(ctx, c.CurrentLocation, locationID, res); err != nil {
			return nil, err
		}
	}
	return v.finish(ctx, CategoryLocation, subject, res), nil
}

func (v *Validator) checkReachable(ctx context.Context, fromID, toID string, res *Result) error {
	switch {
	case fromID == "":
		res.add(Issue{
			Category: CategoryLocation,
			Severity: SeverityInfo,
			Code:     codeNoCurrentLocation,
			Message:  "character has no current location",
		})
		return nil
	case fromID == toID:
		res.add(Issue{
			Category: CategoryLocation,
			Severity: SeverityInfo,
			Code:     codeSameLocation,
			Message:  "character is already at this location",
		})
		return nil
	}

	from, err := v.reader.GetLocation(ctx, fromID)
	if errors.Is(err, types.ErrNotFound) {
		res.add(Issue{
			Category: CategoryLocation,
			Severity: SeverityInfo,
			Code:     codeNoCurrentLocation,
			Message:  fmt.Sprintf("current location %q no longer exists", fromID),
		})
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading current location: %w", err)
	}
	if !from.ConnectsTo(toID) {
		res.add(Issue{
			Category: CategoryLocation,
			Severity: SeverityWarning,
			Code:     codeUnreachable,
			Field:    "current_location",
			Message:  fmt.Sprintf("%s is not connected to the target location", from.Name),
		})
	}
	return nil
}

// ValidateTimelineEvent checks an event before it is added. A zero
// importance means "use the default" and is accepted.
func (v *Validator) ValidateTimelineEvent(ctx context.Context, e types.TimelineEvent) (*Result, error) {
	res := newResult()

	if e.EventType == "" {
		res.add(missing(CategoryTimeline, "event_type"))
	}
	if e.Description == "" {
		res.add(missing(CategoryTimeline, "description"))
	}
	if e.Timestamp < 0 {
		res.add(Issue{
			Category: CategoryTimeline,
			Severity: SeverityError,
			Code:     codeNegativeTimestamp,
			Field:    "timestamp",
			Message:  "timestamp must not be negative",
		})
	} else if limit := v.now().Add(FutureTolerance).UnixMilli(); e.Timestamp > limit {
		res.add(Issue{
			Category: CategoryTimeline,
			Severity: SeverityWarning,
			Code:     codeFutureTimestamp,
			Field:    "timestamp",
			Message:  "timestamp is more than 24h in the future",
		})
	}
	if e.Importance != 0 && (e.Importance < types.MinImportance || e.Importance > types.MaxImportance) {
		res.add(Issue{
			Category: CategoryTimeline,
			Severity: SeverityError,
			Code:     codeOutOfRange,
			Field:    "importance",
			Message:  fmt.Sprintf("importance %d outside [%d, %d]", e.Importance, types.MinImportance, types.MaxImportance),
		})
	}
	if len(e.Participants) > types.MaxParticipants {
		res.add(Issue{
			Category: CategoryTimeline,
			Severity: SeverityWarning,
			Code:     codeTooManyMembers,
			Field:    "participants",
			Message:  fmt.Sprintf("%d participants exceeds %d", len(e.Participants), types.MaxParticipants),
		})
	}
	return v.finish(ctx, CategoryTimeline, e, res), nil
}

// ValidateInventoryItem checks an item before it is added or updated.
func (v *Validator) ValidateInventoryItem(ctx context.Context, item types.InventoryItem) (*Result, error) {
	res := newResult()

	if item.ItemName == "" {
		res.add(missing(CategoryInventory, "item_name"))
	}
	if item.Quantity < 0 {
		res.add(Issue{
			Category: CategoryInventory,
			Severity: SeverityError,
			Code:     codeNegativeQuantity,
			Field:    "quantity",
			Message:  "quantity must not be negative",
		})
	} else if item.Quantity > types.MaxReasonableQuantity {
		res.add(Issue{
			Category: CategoryInventory,
			Severity: SeverityWarning,
			Code:     codeLargeQuantity,
			Field:    "quantity",
			Message:  fmt.Sprintf("quantity %d is unusually large", item.Quantity),
		})
	}

	if item.Equipped && types.IsEquipmentSlot(item.ItemType) && item.CharacterID != "" {
		equipped := true
		items, err := v.reader.GetInventory(ctx, item.CharacterID, state.InventoryQuery{
			ItemType: item.ItemType,
			Equipped: &equipped,
		})
		if err != nil {
			return nil, fmt.Errorf("reading inventory: %w", err)
		}
		for _, other := range items {
			if other.ID == item.ID {
				continue
			}
			res.add(Issue{
				Category: CategoryInventory,
				Severity: SeverityWarning,
				Code:     codeSlotOccupied,
				Field:    "equipped",
				Message:  fmt.Sprintf("%s slot already holds %s", item.ItemType, other.ItemName),
			})
			break
		}
	}
	return v.finish(ctx, CategoryInventory, item, res), nil
}

func missing(category Category, field string) Issue {
	return Issue{
		Category: category,
		Severity: SeverityError,
		Code:     codeMissingRequired,
		Field:    field,
		Message:  field + " is required",
	}
}
