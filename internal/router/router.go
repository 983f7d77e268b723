package router

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/leca/ace-image-gateway/internal/api"
	"github.com/leca/ace-image-gateway/internal/config"
	"github.com/leca/ace-image-gateway/internal/database"
	"github.com/leca/ace-image-gateway/internal/handler"
	"github.com/leca/ace-image-gateway/internal/upstream"
)

// Server holds the application dependencies and HTTP router.
type Server struct {
	DB       database.Database
	Upstream *upstream.Client
	Config   *config.Config
	Router   chi.Router
}

// New creates a new Server with a fully configured chi router.
func New(db database.Database, up *upstream.Client, cfg *config.Config) *Server {
	s := &Server{DB: db, Upstream: up, Config: cfg}

	h := &handler.Handler{
		DB:       db,
		Upstream: up,
		Config:   cfg,
	}

	r := chi.NewRouter()

	// CORS first so preflight OPTIONS never reaches the image route.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Content-Length", "Content-Type", api.HeaderRequestID},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Use(api.RequestIDMiddleware)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.Health)

	// Static routes win over the image wildcard below, so a content id
	// named "stats" is unreachable when the prefix is "/".
	r.Group(func(r chi.Router) {
		r.Use(api.AdminAuthMiddleware(cfg.AdminToken))
		r.Get("/stats", h.GetStats)
		r.Get("/stats/recent", h.ListRecentDeliveries)
	})

	prefix := strings.TrimRight(cfg.RoutePrefix, "/")
	if prefix != "" {
		// The bare prefix has no segments and answers 400 like any short path.
		r.Get(prefix, h.DeliverImage)
	}
	r.Get(prefix+"/*", h.DeliverImage)

	s.Router = r
	return s
}

// Health returns a simple health-check response.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}
