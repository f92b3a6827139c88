package mcp

import (
	"context"
	"errors"
	"fmt"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mesh-intelligence/worldstate/internal/orchestrator"
	"github.com/mesh-intelligence/worldstate/internal/state"
	"github.com/mesh-intelligence/worldstate/pkg/types"
)

// ProcessMessageInput is the input of process_message.
type ProcessMessageInput struct {
	CharacterID string `json:"character_id" jsonschema:"id of the character the text is about"`
	Text        string `json:"text" jsonschema:"narrative text of one turn"`
	DryRun      bool   `json:"dry_run,omitempty" jsonschema:"extract and validate without writing"`
	Checkpoint  bool   `json:"checkpoint,omitempty" jsonschema:"snapshot the world before applying changes"`
}

// GetCharacterInput is the input of get_character.
type GetCharacterInput struct {
	CharacterID string `json:"character_id,omitempty" jsonschema:"character id"`
	Name        string `json:"name,omitempty" jsonschema:"character name, used when no id is given"`
	Memories    int    `json:"memories,omitempty" jsonschema:"number of memories to include, most important first"`
}

// QueryTimelineInput is the input of query_timeline.
type QueryTimelineInput struct {
	StartTime     int64  `json:"start_time,omitempty" jsonschema:"inclusive lower bound in epoch milliseconds"`
	EndTime       int64  `json:"end_time,omitempty" jsonschema:"inclusive upper bound in epoch milliseconds"`
	EventType     string `json:"event_type,omitempty" jsonschema:"event type filter"`
	MinImportance int    `json:"min_importance,omitempty" jsonschema:"lowest importance to include, 1 to 5"`
	Limit         int    `json:"limit,omitempty" jsonschema:"maximum number of events"`
	Descending    bool   `json:"descending,omitempty" jsonschema:"newest first"`
}

// CreateSnapshotInput is the input of create_snapshot.
type CreateSnapshotInput struct {
	Description string `json:"description,omitempty" jsonschema:"free-form label"`
}

// ListSnapshotsInput is the input of list_snapshots.
type ListSnapshotsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of snapshots"`
}

// RestoreSnapshotInput is the input of restore_snapshot.
type RestoreSnapshotInput struct {
	SnapshotID string `json:"snapshot_id" jsonschema:"id returned by create_snapshot or process_message"`
}

// CharacterOutput is a character with its location, inventory and top
// memories.
type CharacterOutput struct {
	Character types.Character       `json:"character"`
	Location  *types.Location       `json:"location,omitempty"`
	Inventory []types.InventoryItem `json:"inventory"`
	Memories  []types.Memory        `json:"memories"`
}

// TimelineOutput is the result of query_timeline.
type TimelineOutput struct {
	Events []types.TimelineEvent `json:"events"`
}

// SnapshotListOutput is the result of list_snapshots.
type SnapshotListOutput struct {
	Snapshots []types.SnapshotInfo `json:"snapshots"`
}

// RestoreOutput is the result of restore_snapshot.
type RestoreOutput struct {
	SnapshotID string `json:"snapshot_id"`
	Restored   bool   `json:"restored"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "process_message",
		Description: "Extract state changes from narrative text, validate them and apply the ones that pass",
	}, s.handleProcessMessage)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_character",
		Description: "Return a character with location, inventory and top memories",
	}, s.handleGetCharacter)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "query_timeline",
		Description: "List timeline events by time range, type and importance",
	}, s.handleQueryTimeline)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "create_snapshot",
		Description: "Capture the current world state",
	}, s.handleCreateSnapshot)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_snapshots",
		Description: "List snapshots, newest first",
	}, s.handleListSnapshots)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "restore_snapshot",
		Description: "Replace the world state with a snapshot",
	}, s.handleRestoreSnapshot)
}

func (s *Server) handleProcessMessage(ctx context.Context, req *sdk.CallToolRequest, input ProcessMessageInput) (*sdk.CallToolResult, orchestrator.ProcessResult, error) {
	if input.CharacterID == "" {
		return nil, orchestrator.ProcessResult{}, fmt.Errorf("character_id is required")
	}
	res, err := s.world.Orchestrator.ProcessMessage(ctx, input.CharacterID, input.Text, orchestrator.ProcessOptions{
		DryRun:     input.DryRun,
		Checkpoint: input.Checkpoint,
	})
	if err != nil {
		return nil, orchestrator.ProcessResult{}, err
	}
	return nil, *res, nil
}

func (s *Server) handleGetCharacter(ctx context.Context, req *sdk.CallToolRequest, input GetCharacterInput) (*sdk.CallToolResult, CharacterOutput, error) {
	repo := s.world.Repo

	var (
		char *types.Character
		err  error
	)
	switch {
	case input.CharacterID != "":
		char, err = repo.GetCharacterState(ctx, input.CharacterID)
	case input.Name != "":
		char, err = repo.FindCharacterByName(ctx, input.Name)
	default:
		return nil, CharacterOutput{}, fmt.Errorf("character_id or name is required")
	}
	if err != nil {
		return nil, CharacterOutput{}, err
	}

	out := CharacterOutput{Character: *char}
	if char.CurrentLocation != "" {
		loc, err := repo.GetLocation(ctx, char.CurrentLocation)
		if err != nil && !errors.Is(err, types.ErrNotFound) {
			return nil, CharacterOutput{}, err
		}
		out.Location = loc
	}
	if out.Inventory, err = repo.GetInventory(ctx, char.ID, state.InventoryQuery{}); err != nil {
		return nil, CharacterOutput{}, err
	}
	limit := input.Memories
	if limit == 0 {
		limit = 5
	}
	if out.Memories, err = repo.GetMemories(ctx, char.ID, state.MemoryQuery{Limit: limit}); err != nil {
		return nil, CharacterOutput{}, err
	}
	return nil, out, nil
}

func (s *Server) handleQueryTimeline(ctx context.Context, req *sdk.CallToolRequest, input QueryTimelineInput) (*sdk.CallToolResult, TimelineOutput, error) {
	events, err := s.world.Repo.QueryTimeline(ctx, state.TimelineQuery{
		StartTime:     input.StartTime,
		EndTime:       input.EndTime,
		EventType:     input.EventType,
		MinImportance: input.MinImportance,
		Limit:         input.Limit,
		Descending:    input.Descending,
	})
	if err != nil {
		return nil, TimelineOutput{}, err
	}
	if events == nil {
		events = []types.TimelineEvent{}
	}
	return nil, TimelineOutput{Events: events}, nil
}

func (s *Server) handleCreateSnapshot(ctx context.Context, req *sdk.CallToolRequest, input CreateSnapshotInput) (*sdk.CallToolResult, types.SnapshotInfo, error) {
	info, err := s.world.Repo.CreateSnapshot(ctx, input.Description)
	if err != nil {
		return nil, types.SnapshotInfo{}, err
	}
	return nil, *info, nil
}

func (s *Server) handleListSnapshots(ctx context.Context, req *sdk.CallToolRequest, input ListSnapshotsInput) (*sdk.CallToolResult, SnapshotListOutput, error) {
	snaps, err := s.world.Repo.ListSnapshots(ctx, input.Limit)
	if err != nil {
		return nil, SnapshotListOutput{}, err
	}
	return nil, SnapshotListOutput{Snapshots: snaps}, nil
}

func (s *Server) handleRestoreSnapshot(ctx context.Context, req *sdk.CallToolRequest, input RestoreSnapshotInput) (*sdk.CallToolResult, RestoreOutput, error) {
	if input.SnapshotID == "" {
		return nil, RestoreOutput{}, fmt.Errorf("snapshot_id is required")
	}
	if err := s.world.Orchestrator.Rollback(ctx, input.SnapshotID); err != nil {
		return nil, RestoreOutput{}, err
	}
	return nil, RestoreOutput{SnapshotID: input.SnapshotID, Restored: true}, nil
}
