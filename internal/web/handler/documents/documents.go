// Package documents shows and deletes single documents.
package documents

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/knowledgeai/knowledge-console/internal/api"
	"github.com/knowledgeai/knowledge-console/internal/guard"
	"github.com/knowledgeai/knowledge-console/internal/web/handler"
	"github.com/knowledgeai/knowledge-console/internal/web/navigation"
)

const (
	// Path is the documents route group.
	Path = handler.RootPath + "documents"

	// TemplateName is the name of the document template.
	TemplateName = "documents/document"
)

// Service is the documents handler service.
type Service struct {
	handler.Service
	deps *handler.Deps
}

// Handler is the documents handler.
var Handler = Service{}

// Init initializes the documents handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || !deps.Valid() {
		return errors.New(handler.ErrNilDepsFatalLogMsg)
	}

	s.deps = deps

	app.Route(Path, func(router fiber.Router) {
		router.Get("/:id", s.Get)
		router.Post("/:id/delete", s.Delete)
	})

	return nil
}

// Get renders one document.
func (s *Service) Get(c *fiber.Ctx) error {
	doc, err := s.deps.Knowledge.GetDocument(c.UserContext(), c.Params("id"))
	if err != nil {
		return s.fail(c, err, "Failed to load document")
	}

	nav := handler.Navigation(c, doc.Title, navigation.SectionDashboard).
		AddBreadcrumb("Dashboard", guard.HomePath, false).
		AddBreadcrumb(doc.Title, c.Path(), true)

	return c.Render(TemplateName, fiber.Map{
		"Navigation": nav,
		"Document":   doc,
	}, handler.BaseLayout)
}

// Delete removes a document and returns to the dashboard.
func (s *Service) Delete(c *fiber.Ctx) error {
	id := c.Params("id")

	if err := s.deps.Knowledge.DeleteDocument(c.UserContext(), id); err != nil {
		return s.fail(c, err, "Failed to delete document")
	}

	log.Info().Str("document", id).Msg("document deleted")

	return c.Redirect(guard.HomePath)
}

func (s *Service) fail(c *fiber.Ctx, err error, msg string) error {
	if api.IsUnauthorized(err) {
		return c.Redirect(guard.LoginPath)
	}

	status := fiber.StatusBadGateway
	if api.StatusCode(err) == http.StatusNotFound {
		status = fiber.StatusNotFound
	}

	log.Error().Err(err).Msg(msg)

	return c.Status(status).Render(TemplateName, fiber.Map{
		"Navigation": handler.Navigation(c, "Document", navigation.SectionDashboard),
		"error":      msg,
	}, handler.BaseLayout)
}
