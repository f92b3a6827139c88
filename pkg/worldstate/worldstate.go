// Package worldstate assembles the store, cache, repository, validator,
// extractor and orchestrator into one handle.
package worldstate

import (
	"fmt"
	"log/slog"

	"github.com/mesh-intelligence/worldstate/internal/cache"
	"github.com/mesh-intelligence/worldstate/internal/config"
	"github.com/mesh-intelligence/worldstate/internal/extract"
	"github.com/mesh-intelligence/worldstate/internal/logging"
	"github.com/mesh-intelligence/worldstate/internal/orchestrator"
	"github.com/mesh-intelligence/worldstate/internal/state"
	"github.com/mesh-intelligence/worldstate/internal/validate"
	"github.com/mesh-intelligence/worldstate/pkg/sqlite"
)

// Version is the release version.
const Version = "0.1.0"

// ModulePath is the Go module path.
const ModulePath = "github.com/mesh-intelligence/worldstate"

// World is an opened world-state database with every component wired.
type World struct {
	Config       config.Config
	Store        *sqlite.Store
	Repo         *state.Repository
	Validator    *validate.Validator
	Extractor    *extract.Extractor
	Orchestrator *orchestrator.Orchestrator
}

// Open attaches the store described by cfg and builds the components on
// top of it. Close releases the store.
func Open(cfg config.Config, logger *slog.Logger, rules ...validate.Rule) (*World, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store, err := sqlite.Open(cfg.Store(""), logger)
	if err != nil {
		return nil, fmt.Errorf("attach store: %w", err)
	}

	repo := state.New(store, cache.New(cfg.CacheOptions(), logger), logger)
	validator := validate.New(repo, repo, logger, validate.WithRules(rules...))
	extractor := extract.New(repo, logger)

	return &World{
		Config:       cfg,
		Store:        store,
		Repo:         repo,
		Validator:    validator,
		Extractor:    extractor,
		Orchestrator: orchestrator.New(repo, extractor, validator, cfg.OrchestratorOptions(), logger),
	}, nil
}

// Close detaches the store.
func (w *World) Close() error {
	return w.Store.Detach()
}
