// Package index serves the public landing page.
package index

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/knowledgeai/knowledge-console/internal/web/handler"
	"github.com/knowledgeai/knowledge-console/internal/web/navigation"
)

// TemplateName is the name of the landing page template.
const TemplateName = "index"

// Service is the landing page handler service.
type Service struct {
	handler.Service
	deps *handler.Deps
}

// Handler is the landing page handler.
var Handler = Service{}

// Init initializes the landing page handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || !deps.Valid() {
		return errors.New(handler.ErrNilDepsFatalLogMsg)
	}

	s.deps = deps

	app.Get(handler.RootPath, s.Get)

	return nil
}

// Get renders the landing page for everyone.
func (s *Service) Get(c *fiber.Ctx) error {
	return c.Render(TemplateName, fiber.Map{
		"Navigation": handler.Navigation(c, s.deps.Cfg.Title, navigation.SectionHome),
	}, handler.BaseLayout)
}
