package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/worldstate/internal/state"
	"github.com/mesh-intelligence/worldstate/pkg/types"
	"github.com/mesh-intelligence/worldstate/pkg/worldstate"
)

func newTimelineCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timeline",
		Short: "Record and query timeline events",
	}
	cmd.AddCommand(newTimelineAddCmd(a), newTimelineQueryCmd(a))
	return cmd
}

func newTimelineAddCmd(a *app) *cobra.Command {
	e := types.TimelineEvent{}
	cmd := &cobra.Command{
		Use:   "add --type <type> --description <text>",
		Short: "Add a timeline event",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withWorld(func(w *worldstate.World) error {
				ctx := cmd.Context()
				res, err := w.Validator.ValidateTimelineEvent(ctx, e)
				if err != nil {
					return err
				}
				if err := rejectIssues(cmd, res); err != nil {
					return err
				}
				stored, err := w.Repo.AddTimelineEvent(ctx, e)
				if err != nil {
					return err
				}
				return a.emit(cmd.OutOrStdout(), stored, func(out io.Writer) {
					fmt.Fprintln(out, stored.ID)
				})
			})
		},
	}
	cmd.Flags().StringVar(&e.EventType, "type", "", "event type")
	cmd.Flags().StringVar(&e.Description, "description", "", "what happened")
	cmd.Flags().IntVar(&e.Importance, "importance", 0, "importance 1-5 (default 1)")
	cmd.Flags().StringSliceVar(&e.Participants, "participant", nil, "participant name (repeatable)")
	cmd.Flags().StringVar(&e.Location, "location", "", "location id")
	cmd.Flags().Int64Var(&e.Timestamp, "at", 0, "epoch milliseconds (default now)")
	return cmd
}

func newTimelineQueryCmd(a *app) *cobra.Command {
	var q state.TimelineQuery
	cmd := &cobra.Command{
		Use:   "query",
		Short: "List timeline events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withWorld(func(w *worldstate.World) error {
				events, err := w.Repo.QueryTimeline(cmd.Context(), q)
				if err != nil {
					return err
				}
				return a.emit(cmd.OutOrStdout(), events, func(out io.Writer) {
					for _, e := range events {
						at := time.UnixMilli(e.Timestamp).UTC().Format(time.RFC3339)
						fmt.Fprintf(out, "%s  %-12s [%d] %s", at, e.EventType, e.Importance, e.Description)
						if len(e.Participants) > 0 {
							fmt.Fprintf(out, "  (%s)", strings.Join(e.Participants, ", "))
						}
						fmt.Fprintln(out)
					}
				})
			})
		},
	}
	cmd.Flags().Int64Var(&q.StartTime, "start", 0, "inclusive lower bound, epoch milliseconds")
	cmd.Flags().Int64Var(&q.EndTime, "end", 0, "inclusive upper bound, epoch milliseconds")
	cmd.Flags().StringVar(&q.EventType, "type", "", "event type filter")
	cmd.Flags().IntVar(&q.MinImportance, "min-importance", 0, "lowest importance to include")
	cmd.Flags().IntVar(&q.Limit, "limit", 0, "maximum number of events")
	cmd.Flags().BoolVar(&q.Descending, "desc", false, "newest first")
	return cmd
}
