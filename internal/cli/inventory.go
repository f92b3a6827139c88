package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/worldstate/internal/state"
	"github.com/mesh-intelligence/worldstate/internal/validate"
	"github.com/mesh-intelligence/worldstate/pkg/types"
	"github.com/mesh-intelligence/worldstate/pkg/worldstate"
)

func newInventoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "inventory",
		Aliases: []string{"inv"},
		Short:   "Manage character inventories",
	}
	cmd.AddCommand(
		newInventoryAddCmd(a),
		newInventoryListCmd(a),
		newInventoryUpdateCmd(a),
		newInventoryRemoveCmd(a),
	)
	return cmd
}

// rejectIssues writes warnings to stderr and turns validation errors into a
// usage error.
func rejectIssues(cmd *cobra.Command, res *validate.Result) error {
	for _, issue := range res.Warnings {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning:", issue)
	}
	if res.Passed {
		return nil
	}
	return usagef("validation failed: %s", res.Errors[0])
}

func newInventoryAddCmd(a *app) *cobra.Command {
	item := types.InventoryItem{}
	cmd := &cobra.Command{
		Use:   "add <character-id> --name <item>",
		Short: "Add an item to a character's inventory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if item.ItemName == "" {
				return usagef("--name is required")
			}
			item.CharacterID = args[0]
			return a.withWorld(func(w *worldstate.World) error {
				ctx := cmd.Context()
				res, err := w.Validator.ValidateInventoryItem(ctx, item)
				if err != nil {
					return err
				}
				if err := rejectIssues(cmd, res); err != nil {
					return err
				}
				added, err := w.Repo.AddInventoryItem(ctx, item)
				if err != nil {
					return err
				}
				return a.emit(cmd.OutOrStdout(), added, func(out io.Writer) {
					fmt.Fprintln(out, added.ID)
				})
			})
		},
	}
	cmd.Flags().StringVar(&item.ItemName, "name", "", "item name")
	cmd.Flags().StringVar(&item.ItemType, "type", types.ItemTypeMisc, "weapon, armor, accessory, consumable or misc")
	cmd.Flags().IntVar(&item.Quantity, "quantity", 1, "quantity")
	cmd.Flags().BoolVar(&item.Equipped, "equipped", false, "mark the item as equipped")
	return cmd
}

func newInventoryListCmd(a *app) *cobra.Command {
	var itemType string
	var equipped bool
	cmd := &cobra.Command{
		Use:   "list <character-id>",
		Short: "List a character's inventory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := state.InventoryQuery{ItemType: itemType}
			if cmd.Flags().Changed("equipped") {
				q.Equipped = &equipped
			}
			return a.withWorld(func(w *worldstate.World) error {
				items, err := w.Repo.GetInventory(cmd.Context(), args[0], q)
				if err != nil {
					return err
				}
				return a.emit(cmd.OutOrStdout(), items, func(out io.Writer) {
					for _, it := range items {
						mark := " "
						if it.Equipped {
							mark = "*"
						}
						fmt.Fprintf(out, "%s %s  %-12s x%d (%s)\n", mark, it.ID, it.ItemName, it.Quantity, it.ItemType)
					}
				})
			})
		},
	}
	cmd.Flags().StringVar(&itemType, "type", "", "item type filter")
	cmd.Flags().BoolVar(&equipped, "equipped", false, "equipped filter")
	return cmd
}

func newInventoryUpdateCmd(a *app) *cobra.Command {
	var (
		name     string
		itemType string
		quantity int
		equipped bool
	)
	cmd := &cobra.Command{
		Use:   "update <item-id>",
		Short: "Update an inventory item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch types.InventoryPatch
			if cmd.Flags().Changed("name") {
				patch.ItemName = &name
			}
			if cmd.Flags().Changed("type") {
				patch.ItemType = &itemType
			}
			if cmd.Flags().Changed("quantity") {
				patch.Quantity = &quantity
			}
			if cmd.Flags().Changed("equipped") {
				patch.Equipped = &equipped
			}
			return a.withWorld(func(w *worldstate.World) error {
				item, err := w.Repo.UpdateInventoryItem(cmd.Context(), args[0], patch)
				if err != nil {
					return err
				}
				return a.emit(cmd.OutOrStdout(), item, func(out io.Writer) {
					fmt.Fprintf(out, "%s  %s x%d\n", item.ID, item.ItemName, item.Quantity)
				})
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "item name")
	cmd.Flags().StringVar(&itemType, "type", "", "item type")
	cmd.Flags().IntVar(&quantity, "quantity", 0, "quantity")
	cmd.Flags().BoolVar(&equipped, "equipped", false, "equipped")
	return cmd
}

func newInventoryRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <item-id>",
		Short: "Remove an inventory item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withWorld(func(w *worldstate.World) error {
				if err := w.Repo.RemoveInventoryItem(cmd.Context(), args[0]); err != nil {
					return err
				}
				return a.emit(cmd.OutOrStdout(), map[string]string{"removed": args[0]}, func(out io.Writer) {
					fmt.Fprintf(out, "removed %s\n", args[0])
				})
			})
		},
	}
}
