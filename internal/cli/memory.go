package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/worldstate/internal/state"
	"github.com/mesh-intelligence/worldstate/pkg/types"
	"github.com/mesh-intelligence/worldstate/pkg/worldstate"
)

func newMemoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Manage character memories",
	}
	cmd.AddCommand(newMemoryAddCmd(a), newMemoryListCmd(a))
	return cmd
}

func newMemoryAddCmd(a *app) *cobra.Command {
	m := types.Memory{}
	cmd := &cobra.Command{
		Use:   "add <character-id> --content <text>",
		Short: "Record a memory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if m.Importance < types.MinImportance || m.Importance > types.MaxImportance {
				return usagef("--importance must be between %d and %d", types.MinImportance, types.MaxImportance)
			}
			m.CharacterID = args[0]
			return a.withWorld(func(w *worldstate.World) error {
				stored, err := w.Repo.AddMemory(cmd.Context(), m)
				if err != nil {
					return err
				}
				return a.emit(cmd.OutOrStdout(), stored, func(out io.Writer) {
					fmt.Fprintln(out, stored.ID)
				})
			})
		},
	}
	cmd.Flags().StringVar(&m.Content, "content", "", "memory text")
	cmd.Flags().IntVar(&m.Importance, "importance", types.MinImportance, "importance 1-5")
	cmd.Flags().StringSliceVar(&m.Tags, "tag", nil, "tag (repeatable)")
	return cmd
}

func newMemoryListCmd(a *app) *cobra.Command {
	var q state.MemoryQuery
	cmd := &cobra.Command{
		Use:   "list <character-id>",
		Short: "List memories, most important first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withWorld(func(w *worldstate.World) error {
				memories, err := w.Repo.GetMemories(cmd.Context(), args[0], q)
				if err != nil {
					return err
				}
				return a.emit(cmd.OutOrStdout(), memories, func(out io.Writer) {
					for _, m := range memories {
						fmt.Fprintf(out, "[%d] %s", m.Importance, m.Content)
						if len(m.Tags) > 0 {
							fmt.Fprintf(out, "  #%s", strings.Join(m.Tags, " #"))
						}
						fmt.Fprintln(out)
					}
				})
			})
		},
	}
	cmd.Flags().IntVar(&q.MinImportance, "min-importance", 0, "lowest importance to include")
	cmd.Flags().IntVar(&q.Limit, "limit", 0, "maximum number of memories")
	cmd.Flags().BoolVar(&q.Ascending, "ascending", false, "least important first")
	return cmd
}
