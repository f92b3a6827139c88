// Package validate checks proposed state changes against committed state
// before they are applied. Each call returns a Result that sorts issues by
// severity; only ERROR issues block a change.
package validate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mesh-intelligence/worldstate/internal/state"
	"github.com/mesh-intelligence/worldstate/pkg/types"
)

// Severity ranks an Issue. Only SeverityError blocks a change.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Category names the kind of change a validation call covers.
type Category string

const (
	CategoryAffection Category = "affection"
	CategoryEmotion   Category = "emotion"
	CategoryLocation  Category = "location"
	CategoryTimeline  Category = "timeline"
	CategoryInventory Category = "inventory"
	// CategoryGeneral rules run on every call.
	CategoryGeneral Category = "general"
)

const (
	codeCharacterNotFound  = "character_not_found"
	codeOutOfRange         = "out_of_range"
	codeLargeChange        = "large_change"
	codeUnknownEmotion     = "unknown_emotion"
	codeUnlikelyTransition = "unlikely_transition"
	codeLocationNotFound   = "location_not_found"
	codeUnreachable        = "not_connected"
	codeSameLocation       = "same_location"
	codeNoCurrentLocation  = "no_current_location"
	codeMissingRequired    = "missing_required_field"
	codeNegativeTimestamp  = "negative_timestamp"
	codeFutureTimestamp    = "future_timestamp"
	codeTooManyMembers     = "too_many_participants"
	codeNegativeQuantity   = "negative_quantity"
	codeLargeQuantity      = "large_quantity"
	codeSlotOccupied       = "slot_occupied"
	codeRuleFailed         = "rule_failed"
)

// MaxAffectionStep is the largest affection change accepted without a
// warning.
const MaxAffectionStep = 20

// FutureTolerance is how far ahead of now an event timestamp may be before
// it draws a warning.
const FutureTolerance = 24 * time.Hour

// Issue is one finding of a validation call.
type Issue struct {
	Category Category `json:"category"`
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Field    string   `json:"field,omitempty"`
	Message  string   `json:"message"`
}

// String formats the issue for terminal output.
func (i Issue) String() string {
	if i.Field != "" {
		return fmt.Sprintf("%s: %s (%s)", i.Field, i.Message, i.Code)
	}
	return fmt.Sprintf("%s (%s)", i.Message, i.Code)
}

// Result is the outcome of one validation call. Passed is false when at
// least one ERROR issue was raised.
type Result struct {
	Passed   bool    `json:"passed"`
	Errors   []Issue `json:"errors,omitempty"`
	Warnings []Issue `json:"warnings,omitempty"`
	Info     []Issue `json:"info,omitempty"`
}

func newResult() *Result {
	return &Result{Passed: true}
}

func (r *Result) add(issue Issue) {
	switch issue.Severity {
	case SeverityError:
		r.Errors = append(r.Errors, issue)
		r.Passed = false
	case SeverityWarning:
		r.Warnings = append(r.Warnings, issue)
	default:
		r.Info = append(r.Info, issue)
	}
}

// StateReader is the committed state the validator reads.
type StateReader interface {
	GetCharacterState(ctx context.Context, id string) (*types.Character, error)
	GetLocation(ctx context.Context, id string) (*types.Location, error)
	GetInventory(ctx context.Context, characterID string, q state.InventoryQuery) ([]types.InventoryItem, error)
}

// AuditLog receives one record per validation call.
type AuditLog interface {
	RecordValidation(ctx context.Context, entry types.ValidationLogEntry) error
	ValidationStats(ctx context.Context, since int64) (*types.ValidationStats, error)
}

// Validator runs the built-in checks and any registered rules.
type Validator struct {
	reader StateReader
	audit  AuditLog
	rules  []Rule
	log    *slog.Logger
	now    func() time.Time
}

// Option configures a Validator.
type Option func(*Validator)

// WithClock overrides the clock used for future-timestamp checks.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) { v.now = now }
}

// WithRules registers extra rules at construction.
func WithRules(rules ...Rule) Option {
	return func(v *Validator) { v.rules = append(v.rules, rules...) }
}

// New creates a validator. audit may be nil to skip the audit trail.
func New(reader StateReader, audit AuditLog, logger *slog.Logger, opts ...Option) *Validator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	v := &Validator{
		reader: reader,
		audit:  audit,
		log:    logger.With("component", "validator"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// WithoutAudit returns a copy of v that writes no audit records. Dry runs
// validate through it.
func (v *Validator) WithoutAudit() *Validator {
	c := *v
	c.audit = nil
	return &c
}

// Stats aggregates the audit trail since the given epoch-ms time.
func (v *Validator) Stats(ctx context.Context, since int64) (*types.ValidationStats, error) {
	if v.audit == nil {
		return &types.ValidationStats{ByType: map[string]types.ValidationCount{}}, nil
	}
	return v.audit.ValidationStats(ctx, since)
}

// finish runs registered rules, writes the audit record and returns res.
func (v *Validator) finish(ctx context.Context, category Category, subject any, res *Result) *Result {
	v.runRules(ctx, category, subject, res)

	if v.audit != nil {
		entry := types.ValidationLogEntry{
			Timestamp:      v.now().UnixMilli(),
			ValidationType: string(category),
			Passed:         res.Passed,
		}
		if !res.Passed || len(res.Warnings) > 0 {
			details, err := json.Marshal(struct {
				Errors   []Issue `json:"errors,omitempty"`
				Warnings []Issue `json:"warnings,omitempty"`
			}{res.Errors, res.Warnings})
			if err == nil {
				entry.Details = string(details)
			}
		}
		if err := v.audit.RecordValidation(ctx, entry); err != nil {
			v.log.Warn("recording validation failed", "type", category, "error", err)
		}
	}

	v.log.Debug("validation finished", "type", category, "passed", res.Passed,
		"errors", len(res.Errors), "warnings", len(res.Warnings))
	return res
}

// character loads the character or records an ERROR when it is missing.
func (v *Validator) character(ctx context.Context, category Category, id string, res *Result) (*types.Character, error) {
	c, err := v.reader.GetCharacterState(ctx, id)
	if errors.Is(err, types.ErrNotFound) {
		res.add(Issue{
			Category: category,
			Severity: SeverityError,
			Code:     codeCharacterNotFound,
			Field:    "character_id",
			Message:  fmt.Sprintf("character %q does not exist", id),
		})
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading character: %w", err)
	}
	return c, nil
}
