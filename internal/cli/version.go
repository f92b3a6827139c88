package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/worldstate/pkg/worldstate"
)

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the worldstate version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := map[string]string{"version": worldstate.Version, "module": worldstate.ModulePath}
			return a.emit(cmd.OutOrStdout(), info, func(w io.Writer) {
				fmt.Fprintf(w, "worldstate v%s\nmodule: %s\n", worldstate.Version, worldstate.ModulePath)
			})
		},
	}
}
