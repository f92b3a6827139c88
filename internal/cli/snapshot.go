package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/worldstate/pkg/worldstate"
)

func newSnapshotCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "snapshot",
		Aliases: []string{"snap"},
		Short:   "Create, list and restore world snapshots",
	}
	cmd.AddCommand(
		newSnapshotCreateCmd(a),
		newSnapshotListCmd(a),
		newSnapshotRestoreCmd(a),
		newSnapshotDeleteCmd(a),
	)
	return cmd
}

func newSnapshotCreateCmd(a *app) *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Capture the current world state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withWorld(func(w *worldstate.World) error {
				info, err := w.Repo.CreateSnapshot(cmd.Context(), description)
				if err != nil {
					return err
				}
				return a.emit(cmd.OutOrStdout(), info, func(out io.Writer) {
					fmt.Fprintln(out, info.ID)
				})
			})
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "label for the snapshot")
	return cmd
}

func newSnapshotListCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List snapshots, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withWorld(func(w *worldstate.World) error {
				snaps, err := w.Repo.ListSnapshots(cmd.Context(), limit)
				if err != nil {
					return err
				}
				return a.emit(cmd.OutOrStdout(), snaps, func(out io.Writer) {
					for _, s := range snaps {
						at := time.UnixMilli(s.SnapshotTime).UTC().Format(time.RFC3339)
						fmt.Fprintf(out, "%s  %s  %s\n", s.ID, at, s.Description)
					}
				})
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of snapshots")
	return cmd
}

func newSnapshotRestoreCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <snapshot-id>",
		Short: "Replace the world state with a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withWorld(func(w *worldstate.World) error {
				if err := w.Orchestrator.Rollback(cmd.Context(), args[0]); err != nil {
					return err
				}
				return a.emit(cmd.OutOrStdout(), map[string]string{"restored": args[0]}, func(out io.Writer) {
					fmt.Fprintf(out, "restored %s\n", args[0])
				})
			})
		},
	}
}

func newSnapshotDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <snapshot-id>",
		Short: "Delete a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withWorld(func(w *worldstate.World) error {
				if err := w.Repo.DeleteSnapshot(cmd.Context(), args[0]); err != nil {
					return err
				}
				return a.emit(cmd.OutOrStdout(), map[string]string{"deleted": args[0]}, func(out io.Writer) {
					fmt.Fprintf(out, "deleted %s\n", args[0])
				})
			})
		},
	}
}
