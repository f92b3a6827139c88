package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/worldstate/internal/config"
	"github.com/mesh-intelligence/worldstate/internal/paths"
	"github.com/mesh-intelligence/worldstate/pkg/worldstate"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize worldstate storage",
		Long:  "Create the configuration and data directories, write a default config.yaml\nif none exists, then create the database schema.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			written, err := config.WriteDefault(a.configDir, a.cfg.DataDir)
			if err != nil {
				return err
			}

			w, err := worldstate.Open(*a.cfg, a.logger)
			if err != nil {
				return fmt.Errorf("initialize storage: %w", err)
			}
			if err := w.Close(); err != nil {
				return fmt.Errorf("finalize storage: %w", err)
			}

			result := map[string]any{
				"config_file":    paths.ConfigFile(a.configDir),
				"config_written": written,
				"data_dir":       a.cfg.DataDir,
			}
			return a.emit(cmd.OutOrStdout(), result, func(w io.Writer) {
				fmt.Fprintln(w, "worldstate initialized")
				fmt.Fprintf(w, "config: %s\ndata:   %s\n", paths.ConfigFile(a.configDir), a.cfg.DataDir)
			})
		},
	}
}
