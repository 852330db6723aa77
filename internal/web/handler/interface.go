package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/knowledgeai/knowledge-console/internal/auth"
	"github.com/knowledgeai/knowledge-console/internal/config"
	"github.com/knowledgeai/knowledge-console/internal/knowledge"
	"github.com/knowledgeai/knowledge-console/internal/session"
)

// Deps bundles what the web handlers work with.
type Deps struct {
	Cfg       *config.Config
	Session   *session.Store
	Auth      *auth.Service
	Knowledge *knowledge.Service
}

// Valid reports whether all dependencies are set.
func (d *Deps) Valid() bool {
	return d != nil && d.Cfg != nil && d.Session != nil && d.Auth != nil && d.Knowledge != nil
}

// Service is the interface for a web handler service.
type Service interface {
	Init(app *fiber.App, deps *Deps) error
}
