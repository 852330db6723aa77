package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/knowledgeai/knowledge-console/internal/session"
	"github.com/knowledgeai/knowledge-console/internal/web/navigation"
)

// CurrentUser returns the identity the route guard stored for the request or nil.
func CurrentUser(c *fiber.Ctx) *session.Identity {
	user, ok := c.Locals(LocalsCurrentUser).(session.Identity)
	if !ok {
		return nil
	}

	return &user
}

// Navigation creates the navigation context of a page for the current visitor.
func Navigation(c *fiber.Ctx, pageTitle, section string) *navigation.Context {
	return navigation.NewContext(pageTitle, section).WithUser(CurrentUser(c))
}
