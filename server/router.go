package server

import (
	"net/http"

	"github.com/castforge-project/castforge/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-faster/errors"
	"go.uber.org/zap"
)

// NewRouter creates a new router around a server.
func NewRouter(s *Server, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  zap.NewStdLog(logger),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)
	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"https://*", "http://*"},
			AllowedMethods:   []string{"GET", "POST"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Link"},
			AllowCredentials: false,
			MaxAge:           300,
		}))

		r.Post("/describe", s.handleDescribe)
		r.Post("/render", s.handleRender)
		r.Get("/releases", s.handleReleases)
		r.Get("/releases/{id}", s.handleRelease)
		r.Get("/health", s.handleHealth)
	})

	return r
}

// NewConfiguredRouter creates a new server router from configuration.
func NewConfiguredRouter(cfg *config.Config, logger *zap.Logger) (http.Handler, error) {
	s, err := NewConfiguredServer(cfg, logger)
	if err != nil {
		return nil, errors.Wrap(err, "failed to configure server")
	}

	return NewRouter(s, logger), nil
}
