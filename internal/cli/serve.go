package cli

import (
	"os/signal"
	"syscall"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/worldstate/internal/mcp"
	"github.com/mesh-intelligence/worldstate/pkg/worldstate"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.withWorld(func(w *worldstate.World) error {
				return mcp.NewServer(w, a.logger).Run(ctx, &sdk.StdioTransport{})
			})
		},
	}
}
