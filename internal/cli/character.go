package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/worldstate/pkg/types"
	"github.com/mesh-intelligence/worldstate/pkg/worldstate"
)

func newCharacterCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "character",
		Aliases: []string{"char"},
		Short:   "Manage characters",
	}
	cmd.AddCommand(
		newCharacterCreateCmd(a),
		newCharacterGetCmd(a),
		newCharacterListCmd(a),
		newCharacterUpdateCmd(a),
		newCharacterDeleteCmd(a),
	)
	return cmd
}

// characterFlags binds the patchable character fields to cmd.
type characterFlags struct {
	name      string
	affection int
	emotion   string
	location  string
}

func (f *characterFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "character name")
	cmd.Flags().IntVar(&f.affection, "affection", types.DefaultAffection, "affection 0-100")
	cmd.Flags().StringVar(&f.emotion, "emotion", "", "emotion")
	cmd.Flags().StringVar(&f.location, "location", "", "current location id")
}

// patch returns a patch holding only the flags set on cmd.
func (f *characterFlags) patch(cmd *cobra.Command) types.CharacterPatch {
	var p types.CharacterPatch
	if cmd.Flags().Changed("name") {
		p.Name = &f.name
	}
	if cmd.Flags().Changed("affection") {
		p.Affection = &f.affection
	}
	if cmd.Flags().Changed("emotion") {
		e := types.Emotion(f.emotion)
		p.Emotion = &e
	}
	if cmd.Flags().Changed("location") {
		p.CurrentLocation = &f.location
	}
	return p
}

func newCharacterCreateCmd(a *app) *cobra.Command {
	var f characterFlags
	cmd := &cobra.Command{
		Use:   "create --name <name>",
		Short: "Create a character",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.name == "" {
				return usagef("--name is required")
			}
			return a.withWorld(func(w *worldstate.World) error {
				c, err := w.Repo.CreateCharacter(cmd.Context(), f.patch(cmd))
				if err != nil {
					return err
				}
				return a.emit(cmd.OutOrStdout(), c, func(out io.Writer) {
					fmt.Fprintln(out, c.ID)
				})
			})
		},
	}
	f.bind(cmd)
	return cmd
}

func newCharacterGetCmd(a *app) *cobra.Command {
	var byName bool
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show a character",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withWorld(func(w *worldstate.World) error {
				var (
					c   *types.Character
					err error
				)
				if byName {
					c, err = w.Repo.FindCharacterByName(cmd.Context(), args[0])
				} else {
					c, err = w.Repo.GetCharacterState(cmd.Context(), args[0])
				}
				if err != nil {
					return err
				}
				return a.emit(cmd.OutOrStdout(), c, func(out io.Writer) {
					writeCharacter(out, c)
				})
			})
		},
	}
	cmd.Flags().BoolVar(&byName, "by-name", false, "treat the argument as a name")
	return cmd
}

func newCharacterListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List characters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withWorld(func(w *worldstate.World) error {
				chars, err := w.Repo.ListCharacters(cmd.Context())
				if err != nil {
					return err
				}
				return a.emit(cmd.OutOrStdout(), chars, func(out io.Writer) {
					for _, c := range chars {
						fmt.Fprintf(out, "%s  %-16s affection=%d emotion=%s\n", c.ID, c.Name, c.Affection, c.Emotion)
					}
				})
			})
		},
	}
}

func newCharacterUpdateCmd(a *app) *cobra.Command {
	var f characterFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update character fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch := f.patch(cmd)
			if patch.Empty() {
				return usagef("no fields to update")
			}
			return a.withWorld(func(w *worldstate.World) error {
				c, err := w.Repo.UpdateCharacterState(cmd.Context(), args[0], patch)
				if err != nil {
					return err
				}
				return a.emit(cmd.OutOrStdout(), c, func(out io.Writer) {
					writeCharacter(out, c)
				})
			})
		},
	}
	f.bind(cmd)
	return cmd
}

func newCharacterDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a character with its inventory and memories",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withWorld(func(w *worldstate.World) error {
				if err := w.Repo.DeleteCharacter(cmd.Context(), args[0]); err != nil {
					return err
				}
				return a.emit(cmd.OutOrStdout(), map[string]string{"deleted": args[0]}, func(out io.Writer) {
					fmt.Fprintf(out, "deleted %s\n", args[0])
				})
			})
		},
	}
}

func writeCharacter(out io.Writer, c *types.Character) {
	fmt.Fprintf(out, "id:        %s\n", c.ID)
	fmt.Fprintf(out, "name:      %s\n", c.Name)
	fmt.Fprintf(out, "affection: %d\n", c.Affection)
	fmt.Fprintf(out, "emotion:   %s\n", c.Emotion)
	if c.CurrentLocation != "" {
		fmt.Fprintf(out, "location:  %s\n", c.CurrentLocation)
	}
}
