package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/worldstate/internal/orchestrator"
	"github.com/mesh-intelligence/worldstate/pkg/worldstate"
)

func newProcessCmd(a *app) *cobra.Command {
	var opts orchestrator.ProcessOptions
	cmd := &cobra.Command{
		Use:   "process <character-id> <text>...",
		Short: "Extract, validate and apply state changes from narrative text",
		Long: "Runs every extractor over the text, validates each candidate change and\n" +
			"applies the ones that pass. With --dry-run nothing is written.",
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args[1:], " ")
			return a.withWorld(func(w *worldstate.World) error {
				res, err := w.Orchestrator.ProcessMessage(cmd.Context(), args[0], text, opts)
				if err != nil {
					return err
				}
				return a.emit(cmd.OutOrStdout(), res, func(out io.Writer) {
					writeProcessResult(out, res)
				})
			})
		},
	}
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "extract and validate without writing")
	cmd.Flags().BoolVar(&opts.Checkpoint, "checkpoint", false, "snapshot the world before applying")
	return cmd
}

func writeProcessResult(out io.Writer, res *orchestrator.ProcessResult) {
	if res.Extracted == nil || res.Extracted.Empty() {
		fmt.Fprintln(out, "nothing extracted")
	}
	for _, u := range res.Updates {
		status := color.YellowString("skipped")
		switch {
		case u.Applied:
			status = color.GreenString("applied")
		case !u.Valid:
			status = color.RedString("rejected")
		}
		fmt.Fprintf(out, "%-9s %-10s %-7s", status, u.Category, u.Action)
		if u.Before != nil {
			fmt.Fprintf(out, " %v ->", u.Before)
		}
		if u.After != nil {
			fmt.Fprintf(out, " %v", u.After)
		}
		fmt.Fprintln(out)
	}
	for _, issue := range res.Errors {
		fmt.Fprintln(out, color.RedString("error:  "), issue)
	}
	for _, issue := range res.Warnings {
		fmt.Fprintln(out, color.YellowString("warning:"), issue)
	}
	if res.SnapshotID != "" {
		fmt.Fprintf(out, "checkpoint: %s\n", res.SnapshotID)
	}
}
