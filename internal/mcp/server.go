// Package mcp serves world state over the Model Context Protocol so a
// dialogue engine can feed narrative turns and read state back.
package mcp

import (
	"context"
	"log/slog"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mesh-intelligence/worldstate/internal/logging"
	"github.com/mesh-intelligence/worldstate/pkg/worldstate"
)

// Server exposes a World as MCP tools.
type Server struct {
	world *worldstate.World
	mcp   *sdk.Server
	log   *slog.Logger
}

// NewServer creates a server with every tool registered.
func NewServer(world *worldstate.World, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.Discard()
	}
	s := &Server{
		world: world,
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "worldstate",
			Version: worldstate.Version,
		}, nil),
		log: logger.With("component", "mcp"),
	}
	s.registerTools()
	return s
}

// Run serves requests on transport until ctx is done or the client
// disconnects.
func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	s.log.Info("mcp server starting")
	return s.mcp.Run(ctx, transport)
}
