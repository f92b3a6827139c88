package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/worldstate/internal/orchestrator"
	"github.com/mesh-intelligence/worldstate/pkg/types"
)

type env struct {
	configDir string
	dataDir   string
}

func newEnv(t *testing.T) env {
	t.Helper()
	root := t.TempDir()
	return env{
		configDir: filepath.Join(root, "config"),
		dataDir:   filepath.Join(root, "data"),
	}
}

// run executes the CLI with the env's directories and returns stdout.
func (e env) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config-dir", e.configDir, "--data-dir", e.dataDir, "--log-level", "error"}, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

func (e env) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, args...)
	require.NoError(t, err, "args: %v", args)
	return out
}

func (e env) runJSON(t *testing.T, v any, args ...string) {
	t.Helper()
	out := e.mustRun(t, append([]string{"--json"}, args...)...)
	require.NoError(t, json.Unmarshal([]byte(out), v), out)
}

func (e env) createCharacter(t *testing.T, name string) string {
	t.Helper()
	return strings.TrimSpace(e.mustRun(t, "character", "create", "--name", name))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitSuccess, ExitCode(nil))
	assert.Equal(t, exitUserError, ExitCode(types.ErrNotFound))
	assert.Equal(t, exitUserError, ExitCode(usagef("bad flag")))
	assert.Equal(t, exitSysError, ExitCode(errors.New("disk on fire")))
}

func TestVersion(t *testing.T) {
	e := newEnv(t)
	assert.Contains(t, e.mustRun(t, "version"), "worldstate v")

	var info map[string]string
	e.runJSON(t, &info, "version")
	assert.NotEmpty(t, info["version"])
	assert.Equal(t, "github.com/mesh-intelligence/worldstate", info["module"])
}

func TestInit(t *testing.T) {
	e := newEnv(t)

	out := e.mustRun(t, "init")
	assert.Contains(t, out, "worldstate initialized")
	assert.FileExists(t, filepath.Join(e.configDir, "config.yaml"))
	assert.FileExists(t, filepath.Join(e.dataDir, "world.db"))

	var again map[string]any
	e.runJSON(t, &again, "init")
	assert.Equal(t, false, again["config_written"])
}

func TestCharacterCommands(t *testing.T) {
	e := newEnv(t)

	id := e.createCharacter(t, "Alice")
	require.NotEmpty(t, id)

	assert.Contains(t, e.mustRun(t, "character", "get", id), "Alice")
	assert.Contains(t, e.mustRun(t, "character", "get", "--by-name", "Alice"), id)

	var updated types.Character
	e.runJSON(t, &updated, "character", "update", id, "--affection", "70", "--emotion", "happy")
	assert.Equal(t, 70, updated.Affection)
	assert.Equal(t, types.EmotionHappy, updated.Emotion)

	var list []types.Character
	e.runJSON(t, &list, "character", "list")
	require.Len(t, list, 1)

	e.mustRun(t, "character", "delete", id)
	_, err := e.run(t, "character", "get", id)
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.Equal(t, exitUserError, ExitCode(err))
}

func TestCharacterCommands_UserErrors(t *testing.T) {
	e := newEnv(t)

	_, err := e.run(t, "character", "create")
	assert.Equal(t, exitUserError, ExitCode(err))

	id := e.createCharacter(t, "Alice")
	_, err = e.run(t, "character", "update", id)
	assert.Equal(t, exitUserError, ExitCode(err))

	_, err = e.run(t, "character", "update", id, "--affection", "150")
	assert.ErrorIs(t, err, types.ErrConstraintViolation)
	assert.Equal(t, exitUserError, ExitCode(err))
}

func TestProcessCommand(t *testing.T) {
	e := newEnv(t)
	id := e.createCharacter(t, "Alice")

	var res orchestrator.ProcessResult
	e.runJSON(t, &res, "process", id, "好感度增加了10点")
	require.Len(t, res.Updates, 1)
	assert.True(t, res.Updates[0].Applied)

	var c types.Character
	e.runJSON(t, &c, "character", "get", id)
	assert.Equal(t, 60, c.Affection)

	out := e.mustRun(t, "process", "--dry-run", id, "Alice", "走进了图书馆")
	assert.Contains(t, out, "location")
	_, err := e.run(t, "location", "get", "--by-name", "图书馆")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestProcessCommand_CheckpointAndRestore(t *testing.T) {
	e := newEnv(t)
	id := e.createCharacter(t, "Alice")

	var res orchestrator.ProcessResult
	e.runJSON(t, &res, "process", "--checkpoint", id, "好感度减少了5点")
	require.NotEmpty(t, res.SnapshotID)

	var snaps []types.SnapshotInfo
	e.runJSON(t, &snaps, "snapshot", "list")
	require.Len(t, snaps, 1)
	assert.Equal(t, res.SnapshotID, snaps[0].ID)

	e.mustRun(t, "snapshot", "restore", res.SnapshotID)

	var c types.Character
	e.runJSON(t, &c, "character", "get", id)
	assert.Equal(t, types.DefaultAffection, c.Affection)

	e.mustRun(t, "snapshot", "delete", res.SnapshotID)
	_, err := e.run(t, "snapshot", "restore", res.SnapshotID)
	assert.Equal(t, exitUserError, ExitCode(err))
}

func TestLocationCommands(t *testing.T) {
	e := newEnv(t)

	a := strings.TrimSpace(e.mustRun(t, "location", "create", "--name", "Harbor", "--type", "town"))
	b := strings.TrimSpace(e.mustRun(t, "location", "create", "--name", "Lighthouse"))
	e.mustRun(t, "location", "connect", a, b, "--travel-time", "15", "--both")

	var loc types.Location
	e.runJSON(t, &loc, "location", "get", b)
	assert.Equal(t, types.LocationTypeUnknown, loc.Type)
	require.Len(t, loc.ConnectedTo, 1)
	assert.Equal(t, a, loc.ConnectedTo[0].LocationID)
	assert.Equal(t, 15, loc.ConnectedTo[0].TravelTime)

	_, err := e.run(t, "location", "create", "--name", "Harbor")
	assert.ErrorIs(t, err, types.ErrConstraintViolation)
}

func TestInventoryCommands(t *testing.T) {
	e := newEnv(t)
	id := e.createCharacter(t, "Alice")

	itemID := strings.TrimSpace(e.mustRun(t, "inventory", "add", id, "--name", "sword", "--type", "weapon", "--equipped"))
	e.mustRun(t, "inventory", "add", id, "--name", "apple", "--quantity", "3")

	var items []types.InventoryItem
	e.runJSON(t, &items, "inventory", "list", id, "--equipped")
	require.Len(t, items, 1)
	assert.Equal(t, itemID, items[0].ID)

	var updated types.InventoryItem
	e.runJSON(t, &updated, "inventory", "update", itemID, "--equipped=false")
	assert.False(t, updated.Equipped)

	e.mustRun(t, "inventory", "remove", itemID)
	e.runJSON(t, &items, "inventory", "list", id)
	require.Len(t, items, 1)
	assert.Equal(t, "apple", items[0].ItemName)

	_, err := e.run(t, "inventory", "add", id, "--name", "rock", "--quantity", "-2")
	assert.Equal(t, exitUserError, ExitCode(err))
}

func TestMemoryAndTimelineCommands(t *testing.T) {
	e := newEnv(t)
	id := e.createCharacter(t, "Alice")

	e.mustRun(t, "memory", "add", id, "--content", "met Bob at the market", "--importance", "4", "--tag", "bob")
	e.mustRun(t, "memory", "add", id, "--content", "it rained", "--importance", "1")

	var memories []types.Memory
	e.runJSON(t, &memories, "memory", "list", id, "--min-importance", "2")
	require.Len(t, memories, 1)
	assert.Equal(t, []string{"bob"}, memories[0].Tags)

	_, err := e.run(t, "memory", "add", id, "--content", "x", "--importance", "9")
	assert.Equal(t, exitUserError, ExitCode(err))

	e.mustRun(t, "timeline", "add", "--type", "meeting", "--description", "Alice met Bob", "--importance", "2",
		"--participant", "Alice", "--participant", "Bob", "--at", "1700000000000")
	e.mustRun(t, "timeline", "add", "--type", "battle", "--description", "Raid", "--importance", "4", "--at", "1700000100000")

	var events []types.TimelineEvent
	e.runJSON(t, &events, "timeline", "query", "--desc")
	require.Len(t, events, 2)
	assert.Equal(t, "battle", events[0].EventType)

	e.runJSON(t, &events, "timeline", "query", "--start", "1700000000000", "--end", "1700000050000")
	require.Len(t, events, 1)
	assert.Equal(t, []string{"Alice", "Bob"}, events[0].Participants)

	_, err = e.run(t, "timeline", "add", "--type", "meeting")
	assert.Equal(t, exitUserError, ExitCode(err))
}

func TestValidationStatsCommand(t *testing.T) {
	e := newEnv(t)
	id := e.createCharacter(t, "Alice")
	e.mustRun(t, "process", id, "好感度增加了10点")
	e.mustRun(t, "process", id, "好感度增加了500点")

	var stats types.ValidationStats
	e.runJSON(t, &stats, "validation", "stats")
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Passed)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 2, stats.ByType["affection"].Total)

	assert.Contains(t, e.mustRun(t, "validation", "stats", "--since", "1h"), "affection")
}

func TestExportImportCommands(t *testing.T) {
	e := newEnv(t)
	id := e.createCharacter(t, "Alice")
	dump := filepath.Join(t.TempDir(), "dump")

	e.mustRun(t, "export", dump)
	_, err := os.Stat(filepath.Join(dump, "character.jsonl"))
	require.NoError(t, err)

	e.mustRun(t, "character", "delete", id)
	e.mustRun(t, "import", dump)

	var c types.Character
	e.runJSON(t, &c, "character", "get", id)
	assert.Equal(t, "Alice", c.Name)
}
