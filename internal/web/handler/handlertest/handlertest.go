// Package handlertest provides fixtures for testing the web handlers against a
// fake Knowledge API.
package handlertest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/knowledgeai/knowledge-console/internal/api"
	"github.com/knowledgeai/knowledge-console/internal/auth"
	"github.com/knowledgeai/knowledge-console/internal/config"
	"github.com/knowledgeai/knowledge-console/internal/knowledge"
	"github.com/knowledgeai/knowledge-console/internal/session"
	"github.com/knowledgeai/knowledge-console/internal/tokenstore"
	"github.com/knowledgeai/knowledge-console/internal/web/handler"
)

// NoOpViews is a minimal Fiber Views engine. It writes the "error" field of a
// fiber.Map if set, the template name otherwise, so tests can assert what a
// handler rendered.
type NoOpViews struct{}

// Load implements fiber.Views.
func (NoOpViews) Load() error { return nil }

// Render implements fiber.Views.
func (NoOpViews) Render(w io.Writer, name string, data interface{}, _ ...string) error {
	if m, ok := data.(fiber.Map); ok {
		if v, exists := m["error"]; exists && v != nil {
			_, _ = io.WriteString(w, v.(string))

			return nil
		}
	}

	_, _ = io.WriteString(w, name)

	return nil
}

// NewApp returns a fiber app rendering with NoOpViews.
func NewApp() *fiber.App {
	return fiber.New(fiber.Config{Views: NoOpViews{}})
}

// Alice is the identity the fake API knows.
var Alice = session.Identity{ID: "1", Email: "alice@example.com", DisplayName: "Alice"} //nolint:gochecknoglobals

// Env is a handler environment wired to a fake API.
type Env struct {
	Deps   *handler.Deps
	Tokens *tokenstore.Store
	Server *httptest.Server
}

// New wires handler dependencies to a fake API served by h.
func New(t *testing.T, h http.Handler) *Env {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	tokens, err := tokenstore.New(tokenstore.NewMemory(), config.DefaultTokenKey)
	require.NoError(t, err)

	cfg := &config.Config{
		Title: "Knowledge Console",
		API:   config.API{URL: srv.URL, Timeout: 5 * time.Second},
	}

	store := session.New(tokens)

	client, err := api.New(&cfg.API, store)
	require.NoError(t, err)

	return &Env{
		Deps: &handler.Deps{
			Cfg:       cfg,
			Session:   store,
			Auth:      auth.NewService(store, client),
			Knowledge: knowledge.NewService(client),
		},
		Tokens: tokens,
		Server: srv,
	}
}

// Login authenticates the session as Alice with token.
func (e *Env) Login(t *testing.T, token string) {
	t.Helper()

	store := e.Deps.Session
	require.NoError(t, store.Authenticate(store.Begin(), Alice, token, session.ReasonLogin))
}

// Anonymous settles the session as logged out.
func (e *Env) Anonymous(t *testing.T) {
	t.Helper()

	store := e.Deps.Session
	require.NoError(t, store.Clear(store.Begin(), session.ReasonBootstrap))
}

// Stored returns the persisted token.
func (e *Env) Stored(t *testing.T) string {
	t.Helper()

	token, err := e.Tokens.Load()
	require.NoError(t, err)

	return token
}

// WriteJSON answers with v as JSON.
func WriteJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// PostForm submits form to target and returns the response and its body.
func PostForm(t *testing.T, app *fiber.App, target, form string) (*http.Response, string) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return Do(t, app, req)
}

// Get requests target and returns the response and its body.
func Get(t *testing.T, app *fiber.App, target string) (*http.Response, string) {
	t.Helper()

	return Do(t, app, httptest.NewRequest(http.MethodGet, target, nil))
}

// Do runs req against app.
func Do(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, string) {
	t.Helper()

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, string(body)
}

// JSONRequest builds a POST with a JSON body.
func JSONRequest(target, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	return req
}
