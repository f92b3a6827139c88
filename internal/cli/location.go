package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/worldstate/pkg/types"
	"github.com/mesh-intelligence/worldstate/pkg/worldstate"
)

func newLocationCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "location",
		Aliases: []string{"loc"},
		Short:   "Manage locations",
	}
	cmd.AddCommand(
		newLocationCreateCmd(a),
		newLocationGetCmd(a),
		newLocationListCmd(a),
		newLocationConnectCmd(a),
	)
	return cmd
}

func newLocationCreateCmd(a *app) *cobra.Command {
	var l types.Location
	cmd := &cobra.Command{
		Use:   "create --name <name>",
		Short: "Create a location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if l.Name == "" {
				return usagef("--name is required")
			}
			return a.withWorld(func(w *worldstate.World) error {
				created, err := w.Repo.CreateLocation(cmd.Context(), l)
				if err != nil {
					return err
				}
				return a.emit(cmd.OutOrStdout(), created, func(out io.Writer) {
					fmt.Fprintln(out, created.ID)
				})
			})
		},
	}
	cmd.Flags().StringVar(&l.Name, "name", "", "unique location name")
	cmd.Flags().StringVar(&l.Type, "type", "", "location type (default unknown)")
	cmd.Flags().StringVar(&l.ParentLocation, "parent", "", "parent location id")
	cmd.Flags().StringVar(&l.Description, "description", "", "description")
	return cmd
}

func newLocationGetCmd(a *app) *cobra.Command {
	var byName bool
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show a location and its connections",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withWorld(func(w *worldstate.World) error {
				var (
					l   *types.Location
					err error
				)
				if byName {
					l, err = w.Repo.GetLocationByName(cmd.Context(), args[0])
				} else {
					l, err = w.Repo.GetLocation(cmd.Context(), args[0])
				}
				if err != nil {
					return err
				}
				return a.emit(cmd.OutOrStdout(), l, func(out io.Writer) {
					fmt.Fprintf(out, "id:   %s\nname: %s\ntype: %s\n", l.ID, l.Name, l.Type)
					for _, c := range l.ConnectedTo {
						fmt.Fprintf(out, "  -> %s (%d)\n", c.LocationID, c.TravelTime)
					}
				})
			})
		},
	}
	cmd.Flags().BoolVar(&byName, "by-name", false, "treat the argument as a name")
	return cmd
}

func newLocationListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List locations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withWorld(func(w *worldstate.World) error {
				locs, err := w.Repo.ListLocations(cmd.Context())
				if err != nil {
					return err
				}
				return a.emit(cmd.OutOrStdout(), locs, func(out io.Writer) {
					for _, l := range locs {
						fmt.Fprintf(out, "%s  %-16s %s\n", l.ID, l.Name, l.Type)
					}
				})
			})
		},
	}
}

func newLocationConnectCmd(a *app) *cobra.Command {
	var travelTime int
	var both bool
	cmd := &cobra.Command{
		Use:   "connect <from-id> <to-id>",
		Short: "Add or replace a route between two locations",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if travelTime < 0 {
				return usagef("--travel-time must not be negative")
			}
			return a.withWorld(func(w *worldstate.World) error {
				ctx := cmd.Context()
				if err := w.Repo.ConnectLocations(ctx, args[0], args[1], travelTime); err != nil {
					return err
				}
				if both {
					if err := w.Repo.ConnectLocations(ctx, args[1], args[0], travelTime); err != nil {
						return err
					}
				}
				result := map[string]any{"from": args[0], "to": args[1], "travel_time": travelTime, "both": both}
				return a.emit(cmd.OutOrStdout(), result, func(out io.Writer) {
					fmt.Fprintf(out, "connected %s -> %s\n", args[0], args[1])
				})
			})
		},
	}
	cmd.Flags().IntVar(&travelTime, "travel-time", 0, "travel time in minutes")
	cmd.Flags().BoolVar(&both, "both", false, "also connect the reverse direction")
	return cmd
}
