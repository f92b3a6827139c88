package cli

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/worldstate/pkg/worldstate"
)

func newValidationCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validation",
		Short: "Inspect the validation audit trail",
	}
	cmd.AddCommand(newValidationStatsCmd(a))
	return cmd
}

func newValidationStatsCmd(a *app) *cobra.Command {
	var since time.Duration
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show pass rates per validation type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var from int64
			if since > 0 {
				from = time.Now().Add(-since).UnixMilli()
			}
			return a.withWorld(func(w *worldstate.World) error {
				stats, err := w.Validator.Stats(cmd.Context(), from)
				if err != nil {
					return err
				}
				return a.emit(cmd.OutOrStdout(), stats, func(out io.Writer) {
					fmt.Fprintf(out, "total %d  passed %d  failed %d  rate %.1f%%\n",
						stats.Total, stats.Passed, stats.Failed, stats.PassRate*100)
					kinds := make([]string, 0, len(stats.ByType))
					for k := range stats.ByType {
						kinds = append(kinds, k)
					}
					sort.Strings(kinds)
					for _, k := range kinds {
						c := stats.ByType[k]
						fmt.Fprintf(out, "  %-10s %d/%d  %.1f%%\n", k, c.Passed, c.Total, c.PassRate*100)
					}
				})
			})
		},
	}
	cmd.Flags().DurationVar(&since, "since", 0, "only count validations newer than this, e.g. 24h")
	return cmd
}
