package auth_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knowledgeai/knowledge-console/internal/api"
	"github.com/knowledgeai/knowledge-console/internal/auth"
	"github.com/knowledgeai/knowledge-console/internal/config"
	"github.com/knowledgeai/knowledge-console/internal/session"
	"github.com/knowledgeai/knowledge-console/internal/tokenstore"
)

var alice = session.Identity{ID: "1", Email: "alice@example.com", DisplayName: "Alice"}

// testAPI fakes the auth endpoints of the Knowledge API.
type testAPI struct {
	mu    sync.Mutex
	calls map[string]int

	login    http.HandlerFunc
	register http.HandlerFunc
	logout   http.HandlerFunc
	me       http.HandlerFunc

	// other answers every non auth path
	other http.HandlerFunc
}

func (a *testAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	if a.calls == nil {
		a.calls = make(map[string]int)
	}
	a.calls[r.URL.Path]++
	a.mu.Unlock()

	var h http.HandlerFunc

	switch r.URL.Path {
	case api.PathLogin:
		h = a.login
	case api.PathRegister:
		h = a.register
	case api.PathLogout:
		h = a.logout
	case api.PathMe:
		h = a.me
	default:
		h = a.other
	}

	if h == nil {
		w.WriteHeader(http.StatusNotFound)

		return
	}

	h(w, r)
}

func (a *testAPI) count(path string) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.calls[path]
}

func (a *testAPI) total() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := 0
	for _, c := range a.calls {
		n += c
	}

	return n
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func status(code int) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(code)
	}
}

func credentials(user session.Identity, token string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{"user": user, "access_token": token, "token_type": "bearer"})
	}
}

type fixture struct {
	api    *testAPI
	store  *session.Store
	tokens *tokenstore.Store
	client *api.Client
	svc    *auth.Service
}

func newFixture(t *testing.T, fake *testAPI, persisted string) *fixture {
	t.Helper()

	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	tokens, err := tokenstore.New(tokenstore.NewMemory(), config.DefaultTokenKey)
	require.NoError(t, err)

	if persisted != "" {
		require.NoError(t, tokens.Save(persisted))
	}

	store := session.New(tokens)

	client, err := api.New(&config.API{URL: srv.URL, Timeout: 5 * time.Second}, store)
	require.NoError(t, err)

	return &fixture{api: fake, store: store, tokens: tokens, client: client, svc: auth.NewService(store, client)}
}

func (f *fixture) stored(t *testing.T) string {
	t.Helper()

	token, err := f.tokens.Load()
	require.NoError(t, err)

	return token
}

func TestBootstrap_NoToken(t *testing.T) {
	f := newFixture(t, &testAPI{}, "")

	snap := f.svc.Bootstrap(context.Background())

	assert.Equal(t, session.StatusAnonymous, snap.Status)
	assert.Equal(t, session.ReasonBootstrap, snap.Reason)
	assert.Equal(t, 0, f.api.total(), "no request without a token")
}

func TestBootstrap_ValidToken(t *testing.T) {
	fake := &testAPI{me: func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer t1", r.Header.Get("Authorization"))
		writeJSON(w, alice)
	}}
	f := newFixture(t, fake, "t1")

	snap := f.svc.Bootstrap(context.Background())

	require.True(t, snap.Authenticated())
	assert.Equal(t, alice, *snap.User)
	assert.Equal(t, "t1", f.stored(t))
	assert.Equal(t, 1, fake.count(api.PathMe))
}

func TestBootstrap_Rejected(t *testing.T) {
	tests := []struct {
		name string
		me   http.HandlerFunc
	}{
		{name: "unauthorized", me: status(http.StatusUnauthorized)},
		{name: "server error", me: status(http.StatusInternalServerError)},
		{name: "empty identity", me: func(w http.ResponseWriter, _ *http.Request) { writeJSON(w, map[string]string{}) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &testAPI{me: tt.me}
			f := newFixture(t, fake, "expired")

			snap := f.svc.Bootstrap(context.Background())

			assert.Equal(t, session.StatusAnonymous, snap.Status)
			assert.Equal(t, session.ReasonBootstrap, snap.Reason)
			assert.Empty(t, f.stored(t))
			assert.Equal(t, 1, fake.count(api.PathMe), "never retried")
		})
	}
}

func TestBootstrap_Unreachable(t *testing.T) {
	tokens, err := tokenstore.New(tokenstore.NewMemory(), config.DefaultTokenKey)
	require.NoError(t, err)
	require.NoError(t, tokens.Save("t1"))

	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	store := session.New(tokens)
	client, err := api.New(&config.API{URL: srv.URL}, store)
	require.NoError(t, err)

	snap := auth.NewService(store, client).Bootstrap(context.Background())

	assert.Equal(t, session.StatusAnonymous, snap.Status)

	stored, err := tokens.Load()
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestLogin(t *testing.T) {
	fake := &testAPI{login: func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "alice@example.com", in["email"])
		assert.Equal(t, "secret", in["password"])

		credentials(alice, "t1")(w, r)
	}}
	f := newFixture(t, fake, "")
	f.svc.Bootstrap(context.Background())

	user, err := f.svc.Login(context.Background(), "alice@example.com", "secret")
	require.NoError(t, err)

	assert.Equal(t, alice, user)
	assert.True(t, f.store.Snapshot().Authenticated())
	assert.Equal(t, session.ReasonLogin, f.store.Snapshot().Reason)
	assert.Equal(t, "t1", f.stored(t))
	assert.Equal(t, "t1", f.store.Token())
}

func TestLogin_Rejected(t *testing.T) {
	f := newFixture(t, &testAPI{login: status(http.StatusUnauthorized)}, "")
	f.svc.Bootstrap(context.Background())
	before := f.store.Snapshot()

	_, err := f.svc.Login(context.Background(), "alice@example.com", "wrong")
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)
	assert.Equal(t, "Incorrect email or password", auth.Message(err))

	assert.Equal(t, before, f.store.Snapshot(), "session unaffected")
	assert.Empty(t, f.stored(t))
}

func TestLogin_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		login http.HandlerFunc
		err   error
	}{
		{name: "no token", login: credentials(alice, ""), err: auth.ErrNoToken},
		{
			name: "no user",
			login: func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, map[string]string{"access_token": "t1"})
			},
			err: auth.ErrNoIdentity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, &testAPI{login: tt.login}, "")
			f.svc.Bootstrap(context.Background())

			_, err := f.svc.Login(context.Background(), "alice@example.com", "secret")
			require.ErrorIs(t, err, tt.err)

			assert.Equal(t, session.StatusAnonymous, f.store.Snapshot().Status)
			assert.Empty(t, f.stored(t))
		})
	}
}

func TestLogin_TransportFailure(t *testing.T) {
	tokens, err := tokenstore.New(tokenstore.NewMemory(), config.DefaultTokenKey)
	require.NoError(t, err)

	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	store := session.New(tokens)
	client, err := api.New(&config.API{URL: srv.URL}, store)
	require.NoError(t, err)

	svc := auth.NewService(store, client)
	svc.Bootstrap(context.Background())

	_, err = svc.Login(context.Background(), "alice@example.com", "secret")
	require.ErrorIs(t, err, api.ErrTransport)
	assert.Equal(t, "The server could not be reached, please try again", auth.Message(err))
	assert.Equal(t, session.StatusAnonymous, store.Snapshot().Status)
}

func TestLogin_SupersedesBootstrapThenFails(t *testing.T) {
	release := make(chan struct{})

	fake := &testAPI{
		me: func(w http.ResponseWriter, _ *http.Request) {
			<-release
			writeJSON(w, alice)
		},
		login: status(http.StatusUnauthorized),
	}
	f := newFixture(t, fake, "t1")

	done := make(chan session.Snapshot)

	go func() {
		done <- f.svc.Bootstrap(context.Background())
	}()

	require.Eventually(t, func() bool { return fake.count(api.PathMe) == 1 }, 2*time.Second, 5*time.Millisecond)

	_, err := f.svc.Login(context.Background(), "bob@example.com", "wrong")
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)

	close(release)
	<-done

	// the stale bootstrap must not authenticate, and the session must not hang in resolving
	snap := f.store.Snapshot()
	assert.Equal(t, session.StatusAnonymous, snap.Status)
	assert.Empty(t, f.stored(t))
}

func TestRegister(t *testing.T) {
	tests := []struct {
		name  string
		field string
	}{
		{name: "access_token", field: "access_token"},
		{name: "token fallback", field: "token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &testAPI{register: func(w http.ResponseWriter, r *http.Request) {
				var in map[string]string
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
				assert.Equal(t, "Alice", in["name"])

				writeJSON(w, map[string]any{"user": alice, tt.field: "t1"})
			}}
			f := newFixture(t, fake, "")
			f.svc.Bootstrap(context.Background())

			user, err := f.svc.Register(context.Background(), "alice@example.com", "password1", "Alice")
			require.NoError(t, err)

			assert.Equal(t, alice, user)
			assert.Equal(t, session.ReasonRegister, f.store.Snapshot().Reason)
			assert.Equal(t, "t1", f.stored(t))
		})
	}
}

func TestRegister_Rejected(t *testing.T) {
	fake := &testAPI{register: func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		writeJSON(w, map[string]string{"detail": "Email already registered"})
	}}
	f := newFixture(t, fake, "")
	f.svc.Bootstrap(context.Background())

	_, err := f.svc.Register(context.Background(), "alice@example.com", "password1", "Alice")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, api.StatusCode(err))
	assert.Equal(t, "Email already registered", auth.Message(err))
	assert.Equal(t, session.StatusAnonymous, f.store.Snapshot().Status)
}

func TestLogout(t *testing.T) {
	tests := []struct {
		name   string
		logout http.HandlerFunc
	}{
		{name: "accepted", logout: status(http.StatusNoContent)},
		{name: "server error", logout: status(http.StatusInternalServerError)},
		{name: "unauthorized", logout: status(http.StatusUnauthorized)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &testAPI{
				me:     func(w http.ResponseWriter, _ *http.Request) { writeJSON(w, alice) },
				logout: tt.logout,
			}
			f := newFixture(t, fake, "t1")
			require.True(t, f.svc.Bootstrap(context.Background()).Authenticated())

			require.NoError(t, f.svc.Logout(context.Background()))

			snap := f.store.Snapshot()
			assert.Equal(t, session.StatusAnonymous, snap.Status)
			assert.Equal(t, session.ReasonLogout, snap.Reason)
			assert.Empty(t, f.stored(t))
			assert.Equal(t, 1, fake.count(api.PathLogout))
		})
	}
}

func TestLogout_SendsPreviousToken(t *testing.T) {
	var auth1 atomic.Value

	fake := &testAPI{
		login: credentials(alice, "t1"),
		logout: func(w http.ResponseWriter, r *http.Request) {
			auth1.Store(r.Header.Get("Authorization"))
			w.WriteHeader(http.StatusNoContent)
		},
	}
	f := newFixture(t, fake, "")
	f.svc.Bootstrap(context.Background())

	_, err := f.svc.Login(context.Background(), "alice@example.com", "secret")
	require.NoError(t, err)
	require.NoError(t, f.svc.Logout(context.Background()))

	assert.Equal(t, "Bearer t1", auth1.Load())
}

func TestLogout_Anonymous(t *testing.T) {
	fake := &testAPI{}
	f := newFixture(t, fake, "")
	f.svc.Bootstrap(context.Background())

	require.NoError(t, f.svc.Logout(context.Background()))
	assert.Equal(t, 0, fake.count(api.PathLogout))
}

func TestLoginLogoutLogin(t *testing.T) {
	bob := session.Identity{ID: "2", Email: "bob@example.com", DisplayName: "Bob"}

	var logins atomic.Int32

	fake := &testAPI{
		login: func(w http.ResponseWriter, r *http.Request) {
			if logins.Add(1) == 1 {
				credentials(alice, "t1")(w, r)

				return
			}

			credentials(bob, "t2")(w, r)
		},
		logout: status(http.StatusNoContent),
	}
	f := newFixture(t, fake, "")
	f.svc.Bootstrap(context.Background())

	_, err := f.svc.Login(context.Background(), "alice@example.com", "secret")
	require.NoError(t, err)
	require.NoError(t, f.svc.Logout(context.Background()))

	user, err := f.svc.Login(context.Background(), "bob@example.com", "secret")
	require.NoError(t, err)

	assert.Equal(t, bob, user)
	assert.Equal(t, "2", f.store.Snapshot().UserID())
	assert.Equal(t, "t2", f.stored(t))
}

func TestLogin_StaleAnswerAfterLogout(t *testing.T) {
	release := make(chan struct{})

	fake := &testAPI{
		login: func(w http.ResponseWriter, r *http.Request) {
			<-release
			credentials(alice, "late")(w, r)
		},
	}
	f := newFixture(t, fake, "")
	f.svc.Bootstrap(context.Background())

	done := make(chan error)

	go func() {
		_, err := f.svc.Login(context.Background(), "alice@example.com", "secret")
		done <- err
	}()

	require.Eventually(t, func() bool { return fake.count(api.PathLogin) == 1 }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, f.svc.Logout(context.Background()))
	close(release)

	require.ErrorIs(t, <-done, session.ErrStale)

	assert.Equal(t, session.StatusAnonymous, f.store.Snapshot().Status)
	assert.Empty(t, f.stored(t), "a stale login must not resurrect the token")
}

// failingClear persists like the real store but can not delete.
type failingClear struct {
	*tokenstore.Store
}

func (failingClear) Clear() error {
	return errors.New("disk full")
}

func TestLogout_DeleteFails(t *testing.T) {
	var authHeader atomic.Value

	fake := &testAPI{
		me: func(w http.ResponseWriter, _ *http.Request) { writeJSON(w, alice) },
		logout: func(w http.ResponseWriter, r *http.Request) {
			authHeader.Store(r.Header.Get("Authorization"))
			w.WriteHeader(http.StatusNoContent)
		},
	}

	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	tokens, err := tokenstore.New(tokenstore.NewMemory(), config.DefaultTokenKey)
	require.NoError(t, err)
	require.NoError(t, tokens.Save("t1"))

	store := session.New(failingClear{tokens})
	client, err := api.New(&config.API{URL: srv.URL, Timeout: 5 * time.Second}, store)
	require.NoError(t, err)

	svc := auth.NewService(store, client)
	require.True(t, svc.Bootstrap(context.Background()).Authenticated())

	err = svc.Logout(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	// the server still revokes the token left on disk
	assert.Equal(t, 1, fake.count(api.PathLogout))
	assert.Equal(t, "Bearer t1", authHeader.Load())

	snap := store.Snapshot()
	assert.Equal(t, session.StatusAnonymous, snap.Status)
	assert.Empty(t, store.Token())
}

func TestLogin_LandsAfterOlderTokenExpired(t *testing.T) {
	bob := session.Identity{ID: "2", Email: "bob@example.com", DisplayName: "Bob"}
	release := make(chan struct{})

	fake := &testAPI{
		me: func(w http.ResponseWriter, _ *http.Request) { writeJSON(w, alice) },
		login: func(w http.ResponseWriter, r *http.Request) {
			<-release
			credentials(bob, "t2")(w, r)
		},
		other: status(http.StatusUnauthorized),
	}
	f := newFixture(t, fake, "t1")
	require.True(t, f.svc.Bootstrap(context.Background()).Authenticated())

	done := make(chan error)

	go func() {
		_, err := f.svc.Login(context.Background(), "bob@example.com", "secret")
		done <- err
	}()

	require.Eventually(t, func() bool { return fake.count(api.PathLogin) == 1 }, 2*time.Second, 5*time.Millisecond)

	// a request still running with t1 is rejected while bob logs in
	err := f.client.Get(context.Background(), "/api/v1/documents", nil, nil)
	require.True(t, api.IsUnauthorized(err))
	require.Equal(t, session.StatusAnonymous, f.store.Snapshot().Status)

	close(release)
	require.NoError(t, <-done)

	snap := f.store.Snapshot()
	assert.True(t, snap.Authenticated())
	assert.Equal(t, "2", snap.UserID())
	assert.Equal(t, "t2", f.store.Token())
	assert.Equal(t, "t2", f.stored(t))
}

func TestBootstrap_RejectedTokenNotRestored(t *testing.T) {
	release := make(chan struct{})

	fake := &testAPI{
		me: func(w http.ResponseWriter, _ *http.Request) {
			<-release
			writeJSON(w, alice)
		},
		other: status(http.StatusUnauthorized),
	}
	f := newFixture(t, fake, "t1")

	done := make(chan session.Snapshot)

	go func() {
		done <- f.svc.Bootstrap(context.Background())
	}()

	require.Eventually(t, func() bool { return fake.count(api.PathMe) == 1 }, 2*time.Second, 5*time.Millisecond)

	// another request with the restored token is refused before /auth/me answers
	err := f.client.Get(api.WithToken(context.Background(), "t1"), "/api/v1/documents", nil, nil)
	require.True(t, api.IsUnauthorized(err))

	close(release)

	snap := <-done
	assert.Equal(t, session.StatusAnonymous, snap.Status)
	assert.Empty(t, f.stored(t))
}

func TestMessage(t *testing.T) {
	assert.Empty(t, auth.Message(nil))
	assert.Equal(t, "Something went wrong, please try again", auth.Message(context.Canceled))
	assert.Equal(t, "nope", auth.Message(&api.Error{StatusCode: http.StatusForbidden, Message: "nope"}))
	assert.Equal(t, "You signed in or out elsewhere meanwhile, please try again", auth.Message(session.ErrStale))
}
