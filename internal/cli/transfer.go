package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/worldstate/pkg/worldstate"
)

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <dir>",
		Short: "Write every table to JSONL files in dir",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withWorld(func(w *worldstate.World) error {
				if err := w.Store.ExportJSONL(cmd.Context(), args[0]); err != nil {
					return err
				}
				return a.emit(cmd.OutOrStdout(), map[string]string{"exported": args[0]}, func(out io.Writer) {
					fmt.Fprintf(out, "exported to %s\n", args[0])
				})
			})
		},
	}
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <dir>",
		Short: "Replace every table with the JSONL files in dir",
		Long: "Reads <table>.jsonl files from dir and replaces the database contents in one\n" +
			"transaction. Missing files leave their table empty; malformed lines are skipped.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withWorld(func(w *worldstate.World) error {
				if err := w.Store.ImportJSONL(cmd.Context(), args[0]); err != nil {
					return err
				}
				w.Repo.Cache().Clear()
				return a.emit(cmd.OutOrStdout(), map[string]string{"imported": args[0]}, func(out io.Writer) {
					fmt.Fprintf(out, "imported from %s\n", args[0])
				})
			})
		},
	}
}
