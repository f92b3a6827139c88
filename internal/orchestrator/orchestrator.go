// Package orchestrator turns narrative text into validated state changes.
// ProcessMessage runs every extractor, validates each candidate, and
// applies the ones that pass through the state repository.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/mesh-intelligence/worldstate/internal/extract"
	"github.com/mesh-intelligence/worldstate/internal/logging"
	"github.com/mesh-intelligence/worldstate/internal/state"
	"github.com/mesh-intelligence/worldstate/internal/validate"
	"github.com/mesh-intelligence/worldstate/pkg/types"
)

// Update actions.
const (
	ActionSet    = "set"
	ActionMove   = "move"
	ActionCreate = "create"
	ActionAdd    = "add"
	ActionRemove = "remove"
	ActionRecord = "record"
)

// DefaultMemoryThreshold is the lowest event importance that also becomes
// a memory.
const DefaultMemoryThreshold = 3

// Config controls how candidates are applied.
type Config struct {
	AutoApply bool
	// StrictMode lists candidates that failed validation in Updates with
	// Applied false. It has no other effect.
	StrictMode      bool
	MemoryThreshold int
}

// DefaultConfig applies passing candidates automatically.
func DefaultConfig() Config {
	return Config{AutoApply: true, MemoryThreshold: DefaultMemoryThreshold}
}

// ProcessOptions are per-call switches.
type ProcessOptions struct {
	// DryRun extracts and validates without writing anything.
	DryRun bool
	// Checkpoint takes a snapshot before the first mutation.
	Checkpoint bool
}

// Update describes one candidate change and what happened to it.
type Update struct {
	Category validate.Category `json:"category"`
	Action   string            `json:"action"`
	Target   string            `json:"target,omitempty"`
	Before   any               `json:"before,omitempty"`
	After    any               `json:"after,omitempty"`
	Valid    bool              `json:"valid"`
	Applied  bool              `json:"applied"`
}

// ProcessResult aggregates one ProcessMessage call.
type ProcessResult struct {
	CharacterID string              `json:"character_id"`
	Extracted   *extract.Extraction `json:"extracted"`
	Updates     []Update            `json:"updates"`
	Errors      []validate.Issue    `json:"errors"`
	Warnings    []validate.Issue    `json:"warnings"`
	Info        []validate.Issue    `json:"info,omitempty"`
	SnapshotID  string              `json:"snapshot_id,omitempty"`
}

// Applied returns the updates that were written.
func (r *ProcessResult) Applied() []Update {
	var out []Update
	for _, u := range r.Updates {
		if u.Applied {
			out = append(out, u)
		}
	}
	return out
}

func (r *ProcessResult) collect(res *validate.Result) {
	r.Errors = append(r.Errors, res.Errors...)
	r.Warnings = append(r.Warnings, res.Warnings...)
	r.Info = append(r.Info, res.Info...)
}

// Orchestrator wires extraction, validation and the repository together.
type Orchestrator struct {
	repo      *state.Repository
	extractor *extract.Extractor
	validator *validate.Validator
	cfg       Config
	log       *slog.Logger
}

// New returns an Orchestrator. A zero MemoryThreshold uses
// DefaultMemoryThreshold.
func New(repo *state.Repository, extractor *extract.Extractor, validator *validate.Validator, cfg Config, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = logging.Discard()
	}
	if cfg.MemoryThreshold == 0 {
		cfg.MemoryThreshold = DefaultMemoryThreshold
	}
	return &Orchestrator{
		repo:      repo,
		extractor: extractor,
		validator: validator,
		cfg:       cfg,
		log:       logger.With("component", "orchestrator"),
	}
}

// Config returns the active configuration.
func (o *Orchestrator) Config() Config {
	return o.cfg
}

// run carries the state of one ProcessMessage call.
type run struct {
	o         *Orchestrator
	validator *validate.Validator
	charID    string
	apply     bool
	result    *ProcessResult
}

// ProcessMessage extracts candidate changes from text and applies the ones
// that pass validation. Categories are independent: a rejected change in
// one does not block the others. An unknown character is an error wrapping
// types.ErrNotFound. When a store write fails the partial result is
// returned together with the error.
func (o *Orchestrator) ProcessMessage(ctx context.Context, characterID, text string, opts ProcessOptions) (*ProcessResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, types.ErrEmptyText
	}
	defer logging.StartTimer(o.log, "process_message", "character", characterID)()

	char, err := o.repo.GetCharacterState(ctx, characterID)
	if err != nil {
		return nil, fmt.Errorf("loading character %s: %w", characterID, err)
	}

	validator := o.validator
	if opts.DryRun {
		validator = validator.WithoutAudit()
	}
	r := &run{
		o:         o,
		validator: validator,
		charID:    char.ID,
		apply:     o.cfg.AutoApply && !opts.DryRun,
		result: &ProcessResult{
			CharacterID: char.ID,
			Updates:     []Update{},
			Errors:      []validate.Issue{},
			Warnings:    []validate.Issue{},
		},
	}

	if opts.Checkpoint && r.apply {
		info, err := o.repo.CreateSnapshot(ctx, fmt.Sprintf("checkpoint before message for %s", char.Name))
		if err != nil {
			return nil, fmt.Errorf("creating checkpoint: %w", err)
		}
		r.result.SnapshotID = info.ID
	}

	ex := o.extractor.Extract(ctx, char.ID, text)
	r.result.Extracted = ex

	steps := []struct {
		name string
		fn   func(context.Context, *extract.Extraction) error
	}{
		{"affection", r.affection},
		{"emotion", r.emotion},
		{"location", r.location},
		{"inventory", r.inventory},
		{"event", r.event},
	}
	for _, step := range steps {
		if err := step.fn(ctx, ex); err != nil {
			return r.result, fmt.Errorf("processing %s: %w", step.name, err)
		}
	}

	o.log.Info("message processed",
		"character", char.ID,
		"dry_run", opts.DryRun,
		"updates", len(r.result.Updates),
		"applied", len(r.result.Applied()),
		"errors", len(r.result.Errors),
		"warnings", len(r.result.Warnings))
	return r.result, nil
}

// Rollback restores the snapshot taken by a checkpointed ProcessMessage.
func (o *Orchestrator) Rollback(ctx context.Context, snapshotID string) error {
	if err := o.repo.RestoreSnapshot(ctx, snapshotID); err != nil {
		return fmt.Errorf("rolling back to %s: %w", snapshotID, err)
	}
	o.log.Info("rolled back", "snapshot", snapshotID)
	return nil
}

// record appends u when it was applied, previewed, or rejected in strict
// mode.
func (r *run) record(u Update) {
	if !u.Valid && !r.o.cfg.StrictMode {
		return
	}
	r.result.Updates = append(r.result.Updates, u)
}

func (r *run) affection(ctx context.Context, ex *extract.Extraction) error {
	change := ex.Affection
	if change == nil {
		return nil
	}
	res, err := r.validator.ValidateAffection(ctx, r.charID, change.NewValue)
	if err != nil {
		return err
	}
	r.result.collect(res)

	u := Update{
		Category: validate.CategoryAffection,
		Action:   ActionSet,
		Target:   r.charID,
		Before:   change.Current,
		After:    change.NewValue,
		Valid:    res.Passed,
	}
	if res.Passed && r.apply {
		value := change.NewValue
		if _, err := r.o.repo.UpdateCharacterState(ctx, r.charID, types.CharacterPatch{Affection: &value}); err != nil {
			return err
		}
		u.Applied = true
	}
	r.record(u)
	return nil
}

func (r *run) emotion(ctx context.Context, ex *extract.Extraction) error {
	signal := ex.Emotion
	if signal == nil {
		return nil
	}
	char, err := r.o.repo.GetCharacterState(ctx, r.charID)
	if err != nil {
		return err
	}
	res, err := r.validator.ValidateEmotion(ctx, r.charID, signal.Emotion)
	if err != nil {
		return err
	}
	r.result.collect(res)

	u := Update{
		Category: validate.CategoryEmotion,
		Action:   ActionSet,
		Target:   r.charID,
		Before:   char.Emotion,
		After:    signal.Emotion,
		Valid:    res.Passed,
	}
	if res.Passed && r.apply {
		emotion := signal.Emotion
		if _, err := r.o.repo.UpdateCharacterState(ctx, r.charID, types.CharacterPatch{Emotion: &emotion}); err != nil {
			return err
		}
		u.Applied = true
	}
	r.record(u)
	return nil
}

func (r *run) location(ctx context.Context, ex *extract.Extraction) error {
	move := ex.Location
	if move == nil {
		return nil
	}

	loc, err := r.o.repo.GetLocationByName(ctx, move.Name)
	switch {
	case errors.Is(err, types.ErrNotFound) && r.apply:
		loc, err = r.o.repo.CreateLocation(ctx, types.Location{Name: move.Name, Type: types.LocationTypeUnknown})
		if err != nil {
			return err
		}
		r.result.Updates = append(r.result.Updates, Update{
			Category: validate.CategoryLocation,
			Action:   ActionCreate,
			Target:   loc.ID,
			After:    loc.Name,
			Valid:    true,
			Applied:  true,
		})
	case errors.Is(err, types.ErrNotFound):
		// Nothing to validate against until the place exists.
		r.result.Info = append(r.result.Info, validate.Issue{
			Category: validate.CategoryLocation,
			Severity: validate.SeverityInfo,
			Code:     "location_would_be_created",
			Field:    "location",
			Message:  fmt.Sprintf("%s is not a known location", move.Name),
		})
		r.record(Update{
			Category: validate.CategoryLocation,
			Action:   ActionMove,
			After:    move.Name,
			Valid:    true,
		})
		return nil
	case err != nil:
		return err
	}

	char, err := r.o.repo.GetCharacterState(ctx, r.charID)
	if err != nil {
		return err
	}
	res, err := r.validator.ValidateLocation(ctx, r.charID, loc.ID)
	if err != nil {
		return err
	}
	r.result.collect(res)

	u := Update{
		Category: validate.CategoryLocation,
		Action:   ActionMove,
		Target:   loc.ID,
		Before:   char.CurrentLocation,
		After:    loc.Name,
		Valid:    res.Passed,
	}
	if res.Passed && r.apply && char.CurrentLocation != loc.ID {
		id := loc.ID
		if _, err := r.o.repo.UpdateCharacterState(ctx, r.charID, types.CharacterPatch{CurrentLocation: &id}); err != nil {
			return err
		}
		u.Applied = true
	}
	r.record(u)
	return nil
}

func (r *run) inventory(ctx context.Context, ex *extract.Extraction) error {
	for _, change := range ex.Inventory {
		var err error
		switch change.Action {
		case extract.ActionAdd:
			err = r.addItem(ctx, change)
		case extract.ActionRemove:
			err = r.removeItem(ctx, change)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// addItem merges into an unequipped item of the same name when one exists.
func (r *run) addItem(ctx context.Context, change extract.InventoryChange) error {
	items, err := r.o.repo.GetInventory(ctx, r.charID, state.InventoryQuery{})
	if err != nil {
		return err
	}
	var existing *types.InventoryItem
	for i := range items {
		if items[i].ItemName == change.ItemName && !items[i].Equipped {
			existing = &items[i]
			break
		}
	}

	candidate := types.InventoryItem{
		CharacterID: r.charID,
		ItemName:    change.ItemName,
		ItemType:    types.ItemTypeMisc,
		Quantity:    change.Quantity,
	}
	before := 0
	if existing != nil {
		candidate = *existing
		before = existing.Quantity
		candidate.Quantity = existing.Quantity + change.Quantity
	}

	res, err := r.validator.ValidateInventoryItem(ctx, candidate)
	if err != nil {
		return err
	}
	r.result.collect(res)

	u := Update{
		Category: validate.CategoryInventory,
		Action:   ActionAdd,
		Target:   candidate.ID,
		Before:   before,
		After:    candidate.Quantity,
		Valid:    res.Passed,
	}
	if res.Passed && r.apply {
		if existing != nil {
			qty := candidate.Quantity
			if _, err := r.o.repo.UpdateInventoryItem(ctx, existing.ID, types.InventoryPatch{Quantity: &qty}); err != nil {
				return err
			}
		} else {
			item, err := r.o.repo.AddInventoryItem(ctx, candidate)
			if err != nil {
				return err
			}
			u.Target = item.ID
		}
		u.Applied = true
	}
	r.record(u)
	return nil
}

// removeItem takes from the first item whose name contains, or is contained
// in, the extracted name. A stack larger than the removed quantity is
// decremented; otherwise the item is deleted.
func (r *run) removeItem(ctx context.Context, change extract.InventoryChange) error {
	items, err := r.o.repo.GetInventory(ctx, r.charID, state.InventoryQuery{})
	if err != nil {
		return err
	}
	var target *types.InventoryItem
	for i := range items {
		if strings.Contains(items[i].ItemName, change.ItemName) || strings.Contains(change.ItemName, items[i].ItemName) {
			target = &items[i]
			break
		}
	}
	if target == nil {
		r.result.Warnings = append(r.result.Warnings, validate.Issue{
			Category: validate.CategoryInventory,
			Severity: validate.SeverityWarning,
			Code:     "item_not_held",
			Field:    "item_name",
			Message:  fmt.Sprintf("no inventory item matches %s", change.ItemName),
		})
		return nil
	}

	remaining := target.Quantity - change.Quantity
	if remaining < 0 {
		remaining = 0
	}
	candidate := *target
	candidate.Quantity = remaining

	res, err := r.validator.ValidateInventoryItem(ctx, candidate)
	if err != nil {
		return err
	}
	r.result.collect(res)

	u := Update{
		Category: validate.CategoryInventory,
		Action:   ActionRemove,
		Target:   target.ID,
		Before:   target.Quantity,
		After:    remaining,
		Valid:    res.Passed,
	}
	if res.Passed && r.apply {
		if remaining > 0 {
			if _, err := r.o.repo.UpdateInventoryItem(ctx, target.ID, types.InventoryPatch{Quantity: &remaining}); err != nil {
				return err
			}
		} else if err := r.o.repo.RemoveInventoryItem(ctx, target.ID); err != nil {
			return err
		}
		u.Applied = true
	}
	r.record(u)
	return nil
}

// event records a timeline entry and, when important enough, a memory.
func (r *run) event(ctx context.Context, ex *extract.Extraction) error {
	e := ex.Event
	if e == nil {
		return nil
	}
	char, err := r.o.repo.GetCharacterState(ctx, r.charID)
	if err != nil {
		return err
	}

	participants := e.Participants
	if !slices.Contains(participants, char.Name) {
		participants = append([]string{char.Name}, participants...)
	}
	candidate := types.TimelineEvent{
		EventType:    e.EventType,
		Description:  e.Description,
		Importance:   e.Importance,
		Participants: participants,
		Location:     char.CurrentLocation,
	}

	res, err := r.validator.ValidateTimelineEvent(ctx, candidate)
	if err != nil {
		return err
	}
	r.result.collect(res)

	u := Update{
		Category: validate.CategoryTimeline,
		Action:   ActionRecord,
		After:    e.EventType,
		Valid:    res.Passed,
	}
	if res.Passed && r.apply {
		stored, err := r.o.repo.AddTimelineEvent(ctx, candidate)
		if err != nil {
			return err
		}
		u.Target = stored.ID
		u.Applied = true

		if stored.Importance >= r.o.cfg.MemoryThreshold {
			if _, err := r.o.repo.AddMemory(ctx, types.Memory{
				CharacterID: r.charID,
				Content:     stored.Description,
				Importance:  stored.Importance,
				Timestamp:   stored.Timestamp,
				Tags:        []string{stored.EventType},
			}); err != nil {
				return err
			}
		}
	}
	r.record(u)
	return nil
}
