package web_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knowledgeai/knowledge-console/internal/guard"
	"github.com/knowledgeai/knowledge-console/internal/web"
	"github.com/knowledgeai/knowledge-console/internal/web/handler/handlertest"
	"github.com/knowledgeai/knowledge-console/internal/web/live"
)

func newService(t *testing.T) (*web.Service, *handlertest.Env) {
	t.Helper()

	env := handlertest.New(t, http.NotFoundHandler())
	routes := guard.DefaultRoutes()
	hub := live.NewHub(env.Deps.Session, routes)
	t.Cleanup(hub.Close)

	return web.New(env.Deps, hub, routes), env
}

func get(t *testing.T, app *fiber.App, target string) (*http.Response, string) {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, target, nil), -1)
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	return resp, string(body)
}

func TestHealth(t *testing.T) {
	s, _ := newService(t)

	resp, body := get(t, s.App, web.HealthPath)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body)
}

func TestMetrics(t *testing.T) {
	s, env := newService(t)
	env.Anonymous(t)

	resp, body := get(t, s.App, web.MetricsPath)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "knowledge_console_session_resets_total")
}

func TestStaticFiles(t *testing.T) {
	s, _ := newService(t)

	resp, body := get(t, s.App, "/static/js/session.js")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "EventSource")
}

func TestLoadingWhileResolving(t *testing.T) {
	s, _ := newService(t)

	resp, body := get(t, s.App, "/dashboard")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "no-store", resp.Header.Get(fiber.HeaderCacheControl))
	assert.Contains(t, body, `data-session-pending="/dashboard"`)
}

func TestGuardedViews(t *testing.T) {
	s, env := newService(t)
	env.Anonymous(t)

	resp, _ := get(t, s.App, "/dashboard")
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, guard.LoginPath, resp.Header.Get(fiber.HeaderLocation))

	resp, body := get(t, s.App, guard.LoginPath)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `action="/login"`)
	assert.Contains(t, body, "Create account")

	resp, body = get(t, s.App, "/")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Your knowledge, searchable")

	env.Login(t, "t1")

	resp, _ = get(t, s.App, guard.LoginPath)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, guard.HomePath, resp.Header.Get(fiber.HeaderLocation))

	resp, body = get(t, s.App, "/")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Alice")
}
