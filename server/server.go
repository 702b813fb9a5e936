// Package server exposes the release describer over a small REST API.
package server

import (
	"github.com/castforge-project/castforge/config"
	"github.com/castforge-project/castforge/release"
	"github.com/castforge-project/castforge/release/analyze"
	"github.com/castforge-project/castforge/release/store"
	"github.com/go-faster/errors"
	"go.uber.org/zap"
)

// Server is a REST server for the castforge API.
type Server struct {
	describer *release.Describer
	store     *store.Store
	logger    *zap.Logger
}

// NewServer creates a new server around a describer.
// The store may be nil, in which case the release listing endpoints are empty.
func NewServer(describer *release.Describer, st *store.Store, logger *zap.Logger) *Server {
	return &Server{
		describer: describer,
		store:     st,
		logger:    logger,
	}
}

// NewConfiguredServer creates a new server and its dependencies from configuration.
func NewConfiguredServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	catalog, err := release.NewConfiguredCatalog(cfg.Sources, nil, logger)
	if err != nil {
		return nil, errors.Wrap(err, "failed to configure metadata sources")
	}

	var st *store.Store
	if cfg.Release.StorePath != "" {
		if st, err = store.Open(cfg.Release.StorePath, logger); err != nil {
			return nil, errors.Wrap(err, "failed to open release store")
		}
	}

	analyzer := analyze.NewAnalyzer(analyze.NewFFProbeProber(), logger)
	describer, err := release.NewDescriber(catalog, analyzer, st, cfg, logger)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create describer")
	}

	return NewServer(describer, st, logger), nil
}

// Describer returns the describer backing the server.
func (s *Server) Describer() *release.Describer {
	return s.describer
}

// Store returns the snapshot store backing the server, nil when none is configured.
func (s *Server) Store() *store.Store {
	return s.store
}
