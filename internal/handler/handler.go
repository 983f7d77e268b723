package handler

import (
	"github.com/leca/ace-image-gateway/internal/config"
	"github.com/leca/ace-image-gateway/internal/database"
	"github.com/leca/ace-image-gateway/internal/upstream"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	DB       database.Database
	Upstream *upstream.Client
	Config   *config.Config
}
