// Package register provides the account registration form of the console.
package register

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/knowledgeai/knowledge-console/internal/auth"
	"github.com/knowledgeai/knowledge-console/internal/guard"
	"github.com/knowledgeai/knowledge-console/internal/web/handler"
)

const (
	// Path is the path to the registration page.
	Path = handler.RootPath + "register"

	// TemplateName is the name of the registration template.
	TemplateName = "register"
)

// ErrInvalidFormData is returned when the submitted form cannot be parsed.
var ErrInvalidFormData = errors.New("invalid form data")

// Form is the submitted registration form.
type Form struct {
	Name            string `form:"name"             validate:"required"`
	Email           string `form:"email"            validate:"required,email"`
	Password        string `form:"password"         validate:"required,min=8"`
	ConfirmPassword string `form:"confirm_password" validate:"eqfield=Password"`
}

// Service is the registration handler service.
type Service struct {
	handler.Service
	deps *handler.Deps
}

// Handler is the registration handler.
var Handler = Service{}

// Init initializes the registration handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || !deps.Valid() {
		return errors.New(handler.ErrNilDepsFatalLogMsg)
	}

	s.deps = deps

	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, s.Get)
		router.Post(handler.RouterRootPath, s.Post)
	})

	return nil
}

// Get renders the empty form.
func (s *Service) Get(c *fiber.Ctx) error {
	return s.render(c, &Form{}, "")
}

// Post validates the form and creates the account.
func (s *Service) Post(c *fiber.Ctx) error {
	form := new(Form)

	if err := c.BodyParser(form); err != nil {
		return s.render(c, form, ErrInvalidFormData.Error())
	}

	if errs := handler.Validate(form); len(errs) > 0 {
		return s.render(c, form, handler.FirstMessage(errs))
	}

	if _, err := s.deps.Auth.Register(c.UserContext(), form.Email, form.Password, form.Name); err != nil {
		log.Warn().Err(err).Str("email", form.Email).Msg("registration failed")

		return s.render(c, form, auth.Message(err))
	}

	return c.Redirect(guard.HomePath)
}

func (s *Service) render(c *fiber.Ctx, form *Form, errMsg string) error {
	data := fiber.Map{
		"Navigation": handler.Navigation(c, "Create account", ""),
		"Name":       form.Name,
		"Email":      form.Email,
	}

	if errMsg != "" {
		data["error"] = errMsg
	}

	return c.Render(TemplateName, data, handler.BaseLayout)
}
