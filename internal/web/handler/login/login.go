package login

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/knowledgeai/knowledge-console/internal/auth"
	"github.com/knowledgeai/knowledge-console/internal/guard"
	"github.com/knowledgeai/knowledge-console/internal/web/handler"
)

const (
	// Path is the path to the login page.
	Path = guard.LoginPath

	// TemplateName is the name of the login template.
	TemplateName = "login"
)

// Form is the submitted login form.
type Form struct {
	Email    string `form:"email"    validate:"required"`
	Password string `form:"password" validate:"required"`
}

// Service is the login handler service.
type Service struct {
	handler.Service
	deps *handler.Deps
}

// Handler is the login handler.
var Handler = Service{}

// Init initializes the login handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || !deps.Valid() {
		return errors.New(handler.ErrNilDepsFatalLogMsg)
	}

	s.deps = deps

	// register routes
	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, s.Get)
		router.Post(handler.RouterRootPath, s.Post)
	})

	return nil
}

// Get handles the login page rendering.
func (s *Service) Get(c *fiber.Ctx) error {
	return s.render(c, "", "")
}

// Post handles the login form submission.
func (s *Service) Post(c *fiber.Ctx) error {
	form := new(Form)

	if err := c.BodyParser(form); err != nil {
		return s.render(c, "", ErrInvalidFormData.Error())
	}

	if errs := handler.Validate(form); len(errs) > 0 {
		return s.render(c, form.Email, handler.FirstMessage(errs))
	}

	if _, err := s.deps.Auth.Login(c.UserContext(), form.Email, form.Password); err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			log.Error().Err(err).Msg("login failed")
		}

		return s.render(c, form.Email, auth.Message(err))
	}

	return c.Redirect(guard.HomePath)
}

func (s *Service) render(c *fiber.Ctx, email, errMsg string) error {
	data := fiber.Map{
		"Navigation": handler.Navigation(c, "Sign in", ""),
		"Email":      email,
	}

	if errMsg != "" {
		data["error"] = errMsg
	}

	return c.Render(TemplateName, data, handler.BaseLayout)
}
