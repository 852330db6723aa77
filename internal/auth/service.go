package auth

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/knowledgeai/knowledge-console/internal/api"
	"github.com/knowledgeai/knowledge-console/internal/session"
)

// Service provides the credential operations and the bootstrap.
type Service struct {
	store  *session.Store
	client *api.Client
}

// NewService creates a new auth service.
func NewService(store *session.Store, client *api.Client) *Service {
	return &Service{store: store, client: client}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type credentialResponse struct {
	User        *session.Identity `json:"user"`
	AccessToken string            `json:"access_token"`
	TokenType   string            `json:"token_type"`

	// Token is accepted as a fallback name for the access token.
	Token string `json:"token"`
}

func (r *credentialResponse) token() string {
	if r.AccessToken != "" {
		return r.AccessToken
	}

	return r.Token
}

// Login authenticates email and password. On success the token is persisted
// and the session is authenticated. On failure the session is not touched
// beyond leaving a pending bootstrap anonymous.
func (s *Service) Login(ctx context.Context, email, password string) (session.Identity, error) {
	user, err := s.credential(ctx, api.PathLogin, loginRequest{Email: email, Password: password}, session.ReasonLogin)
	observe(opLogin, err)

	if err != nil {
		log.Info().Err(err).Str("email", email).Msg("login failed")

		return session.Identity{}, err
	}

	log.Info().Str("user", user.ID).Msg("logged in")

	return user, nil
}

// Register creates an account and logs it in.
func (s *Service) Register(ctx context.Context, email, password, name string) (session.Identity, error) {
	in := registerRequest{Email: email, Password: password, Name: name}

	user, err := s.credential(ctx, api.PathRegister, in, session.ReasonRegister)
	observe(opRegister, err)

	if err != nil {
		log.Info().Err(err).Str("email", email).Msg("registration failed")

		return session.Identity{}, err
	}

	log.Info().Str("user", user.ID).Msg("registered")

	return user, nil
}

func (s *Service) credential(ctx context.Context, path string, in any, reason session.Reason) (session.Identity, error) {
	ticket := s.store.Begin()

	var resp credentialResponse

	err := s.client.Post(ctx, path, in, &resp)

	switch {
	case api.IsUnauthorized(err):
		err = ErrInvalidCredentials
	case err != nil:
		err = errors.Wrapf(err, "%s failed", reason)
	case resp.token() == "":
		err = ErrNoToken
	case resp.User == nil:
		err = ErrNoIdentity
	}

	if err != nil {
		s.settle(ticket)

		return session.Identity{}, err
	}

	if err := s.store.Authenticate(ticket, *resp.User, resp.token(), reason); err != nil {
		return session.Identity{}, errors.Wrapf(err, "%s not applied", reason)
	}

	return *resp.User, nil
}

// settle leaves a still resolving session anonymous after a failed operation
// superseded the bootstrap.
func (s *Service) settle(ticket session.Ticket) {
	if !s.store.Snapshot().Resolving() {
		return
	}

	if err := s.store.Clear(ticket, session.ReasonBootstrap); err != nil && !isStale(err) {
		log.Error().Err(err).Msg("failed to settle session")
	}
}

// Logout clears the local session and tells the API. The API call is best
// effort and runs with the token the session had; its failure is only logged.
// It is sent even when deleting the persisted token failed, so the server
// revokes a token that may still be on disk. That delete error is returned.
func (s *Service) Logout(ctx context.Context) error {
	ticket := s.store.Begin()
	token := s.store.Token()
	user := s.store.Snapshot().UserID()

	err := s.store.Clear(ticket, session.ReasonLogout)
	observe(opLogout, err)

	if err != nil {
		log.Error().Err(err).Str("user", user).Msg("failed to delete token on logout")
	} else {
		log.Info().Str("user", user).Msg("logged out")
	}

	if token != "" {
		if perr := s.client.Post(api.WithToken(ctx, token), api.PathLogout, nil, nil); perr != nil {
			log.Warn().Err(perr).Msg("logout request failed")
		}
	}

	return errors.Wrap(err, "logout")
}

// Bootstrap resolves the session from the stored token and returns the result.
// It runs once per process start and never retries.
func (s *Service) Bootstrap(ctx context.Context) session.Snapshot {
	ticket := s.store.Begin()

	err := s.bootstrap(ctx, ticket)
	observe(opBootstrap, err)

	snap := s.store.Snapshot()

	switch {
	case err == nil:
		log.Debug().Str("status", string(snap.Status)).Str("user", snap.UserID()).Msg("session resolved")
	case isStale(err):
		log.Debug().Msg("bootstrap superseded")
	default:
		log.Warn().Err(err).Msg("stored session rejected")
	}

	return snap
}

func (s *Service) bootstrap(ctx context.Context, ticket session.Ticket) error {
	token, err := s.store.Restore(ticket)
	if err != nil {
		if isStale(err) {
			return err
		}

		// an unreadable token is as good as none
		return errors.Wrap(s.clear(ticket, err), "restore")
	}

	if token == "" {
		return s.store.Clear(ticket, session.ReasonBootstrap)
	}

	var user session.Identity

	if err := s.client.Get(ctx, api.PathMe, nil, &user); err != nil {
		return s.clear(ticket, err)
	}

	if user.ID == "" && user.Email == "" {
		return s.clear(ticket, ErrNoIdentity)
	}

	return s.store.Authenticate(ticket, user, token, session.ReasonBootstrap)
}

// clear drops the stored token after cause and returns cause.
func (s *Service) clear(ticket session.Ticket, cause error) error {
	if err := s.store.Clear(ticket, session.ReasonBootstrap); err != nil {
		if isStale(err) {
			return err
		}

		log.Error().Err(err).Msg("failed to clear rejected token")
	}

	return cause
}

func isStale(err error) bool {
	return errors.Is(err, session.ErrStale) || errors.Is(err, session.ErrRevoked)
}
