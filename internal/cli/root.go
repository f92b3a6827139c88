// Package cli implements the worldstate command-line interface.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/worldstate/internal/config"
	"github.com/mesh-intelligence/worldstate/internal/logging"
	"github.com/mesh-intelligence/worldstate/internal/paths"
	"github.com/mesh-intelligence/worldstate/pkg/types"
	"github.com/mesh-intelligence/worldstate/pkg/worldstate"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// userErrors are sentinels caused by bad input rather than a broken system.
var userErrors = []error{
	types.ErrNotFound,
	types.ErrInvalidID,
	types.ErrInvalidData,
	types.ErrInvalidFilter,
	types.ErrConstraintViolation,
	types.ErrInvalidName,
	types.ErrInvalidEmotion,
	types.ErrEmptyText,
	config.ErrInvalidConfig,
}

// usageError marks errors in arguments or flags.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return usageError{fmt.Errorf(format, args...)}
}

// ExitCode maps an error returned by a command to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ue usageError
	if errors.As(err, &ue) {
		return exitUserError
	}
	for _, target := range userErrors {
		if errors.Is(err, target) {
			return exitUserError
		}
	}
	return exitSysError
}

// app holds global flag values and the resolved configuration.
type app struct {
	configDir string
	dataDir   string
	jsonMode  bool
	logLevel  string

	cfg    *config.Config
	logger *slog.Logger
}

// NewRootCmd creates the top-level "worldstate" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "worldstate",
		Short:         "Track and validate character world state",
		Long:          "worldstate keeps affection, emotion, location, inventory, memories and a timeline\nfor conversational characters, and turns narrative text into validated updates.",
		Version:       worldstate.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configDir, "config-dir", "", "configuration directory (default: $(CWD)/.worldstate)")
	pf.StringVar(&a.dataDir, "data-dir", "", "data directory (default: $(CWD)/.worldstate-db)")
	pf.BoolVar(&a.jsonMode, "json", false, "output as JSON")
	pf.StringVar(&a.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(
		newVersionCmd(a),
		newInitCmd(a),
		newCharacterCmd(a),
		newLocationCmd(a),
		newInventoryCmd(a),
		newMemoryCmd(a),
		newTimelineCmd(a),
		newSnapshotCmd(a),
		newProcessCmd(a),
		newValidationCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newServeCmd(a),
	)
	return root
}

// Execute runs the root command and exits with the mapped code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(ExitCode(err))
	}
}

// load resolves directories, reads the configuration and builds the logger.
func (a *app) load(cmd *cobra.Command) error {
	configDir, err := paths.ResolveConfigDir(a.configDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	a.configDir = configDir

	cfg, err := config.Load(configDir)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	dataDir, err := paths.ResolveDataDir(a.dataDir, cfg.DataDir)
	if err != nil {
		return fmt.Errorf("resolve data dir: %w", err)
	}
	cfg.DataDir = dataDir
	a.cfg = cfg

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return usageError{err}
	}
	a.logger, err = logging.New(cmd.ErrOrStderr(), level, cfg.Log.Format)
	if err != nil {
		return usageError{err}
	}
	return nil
}

// open attaches the world database. The caller must Close it.
func (a *app) open() (*worldstate.World, error) {
	w, err := worldstate.Open(*a.cfg, a.logger)
	if err != nil {
		return nil, fmt.Errorf("open world: %w", err)
	}
	return w, nil
}

// withWorld opens the world, runs fn and closes the world.
func (a *app) withWorld(fn func(w *worldstate.World) error) error {
	w, err := a.open()
	if err != nil {
		return err
	}
	defer w.Close()
	return fn(w)
}

// emit writes v as indented JSON in JSON mode, otherwise calls text.
func (a *app) emit(out io.Writer, v any, text func(io.Writer)) error {
	if a.jsonMode {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(out)
	return nil
}
