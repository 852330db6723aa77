package api

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/knowledgeai/knowledge-console/internal/session"
)

// Session is the part of the session store the request layer depends on.
type Session interface {
	Token() string
	Expire(token string) bool
	WaitResolved(ctx context.Context) (session.Snapshot, error)
}

// Transport authorizes requests with the session token and reacts to 401 answers.
type Transport struct {
	Base    http.RoundTripper
	Session Session

	// WaitForBootstrap holds requests until the session left the resolving state.
	WaitForBootstrap bool

	// Credential reports whether the request targets an auth endpoint. A 401
	// for it means bad credentials rather than an expired token.
	Credential func(req *http.Request) bool

	// OnExpired runs after a 401 reset the session.
	OnExpired func()
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, explicit := tokenFromContext(req.Context())

	// auth endpoints run while resolving, waiting for them would never end
	if t.WaitForBootstrap && !explicit && !t.credential(req) {
		if _, err := t.Session.WaitResolved(req.Context()); err != nil {
			closeBody(req)

			return nil, err
		}
	}

	if !explicit {
		token = t.Session.Token()
	}

	// RoundTrip must not modify the caller's request.
	r := req.Clone(req.Context())
	if token != "" {
		(&oauth2.Token{AccessToken: token}).SetAuthHeader(r)
	}

	resp, err := t.base().RoundTrip(r)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && !t.credential(req) {
		t.expire(req, token)
	}

	return resp, nil
}

func (t *Transport) expire(req *http.Request, token string) {
	if !t.Session.Expire(token) {
		log.Debug().Str("path", req.URL.Path).Msg("ignored 401 for a token no longer in use")

		return
	}

	log.Info().Str("path", req.URL.Path).Msg("session expired, login required")

	if t.OnExpired != nil {
		t.OnExpired()
	}
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}

	return http.DefaultTransport
}

func (t *Transport) credential(req *http.Request) bool {
	return t.Credential != nil && t.Credential(req)
}

type tokenKey struct{}

// WithToken makes requests running with ctx carry token instead of the
// current session token. Logout uses it to sign off a session it already
// cleared locally.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func tokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey{}).(string)

	return token, ok
}

func closeBody(req *http.Request) {
	if req.Body != nil {
		_ = req.Body.Close()
	}
}
