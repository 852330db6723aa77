package access

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/knowledgeai/knowledge-console/internal/guard"
	fiberlogger "github.com/knowledgeai/knowledge-console/internal/logger/adapter/fiber"
	"github.com/knowledgeai/knowledge-console/internal/session"
	"github.com/knowledgeai/knowledge-console/internal/web/handler"
)

// LoadingTemplate is rendered while the session is resolving.
const LoadingTemplate = "loading"

// Snapshotter returns the current session.
type Snapshotter interface {
	Snapshot() session.Snapshot
}

// Config of the route guard middleware.
type Config struct {
	Session Snapshotter
	Routes  *guard.Routes

	// Bypass lists path prefixes that are never guarded.
	Bypass []string
}

// DefaultBypass are the console paths outside the guard.
var DefaultBypass = []string{"/static", "/healthz", "/metrics", "/events", "/logout"} //nolint:gochecknoglobals

// New returns the route guard middleware.
func New(cfg Config) fiber.Handler {
	if cfg.Routes == nil {
		cfg.Routes = guard.DefaultRoutes()
	}

	if cfg.Bypass == nil {
		cfg.Bypass = DefaultBypass
	}

	return func(c *fiber.Ctx) error {
		path := c.Path()

		if bypass(cfg.Bypass, path) {
			return c.Next()
		}

		snap := cfg.Session.Snapshot()

		c.Locals(fiberlogger.LocalsSessionStatus, string(snap.Status))

		if snap.Authenticated() {
			c.Locals(handler.LocalsCurrentUser, *snap.User)
		}

		action := guard.New(cfg.Routes, path).Observe(snap)

		switch action.State {
		case guard.StatePending:
			return pending(c, path)
		case guard.StateDenied:
			if action.Redirect != "" {
				return c.Redirect(action.Redirect)
			}

			return c.SendStatus(fiber.StatusForbidden)
		case guard.StateAllowed:
		}

		return c.Next()
	}
}

func pending(c *fiber.Ctx, path string) error {
	c.Set(fiber.HeaderCacheControl, "no-store")

	if c.Method() != fiber.MethodGet && c.Method() != fiber.MethodHead {
		c.Set(fiber.HeaderRetryAfter, "1")

		return c.Status(fiber.StatusServiceUnavailable).SendString("session is resolving")
	}

	return c.Render(LoadingTemplate, fiber.Map{
		"Path": path,
	})
}

func bypass(prefixes []string, path string) bool {
	for _, p := range prefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}

	return false
}
