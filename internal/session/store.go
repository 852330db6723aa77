package session

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// TokenStore persists the bearer token.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// Store is the single source of truth for "is the user logged in".
type Store struct {
	mu     sync.Mutex
	tokens TokenStore

	state  Snapshot
	token  string
	ticket Ticket

	// revoked holds tokens the API rejected, they are never committed again.
	revoked map[string]struct{}

	subscribers map[int]chan Snapshot
	nextSubID   int
}

// New returns a Store in the resolving state.
func New(tokens TokenStore) *Store {
	return &Store{
		tokens:      tokens,
		state:       Snapshot{Status: StatusResolving, Reason: ReasonStartup},
		revoked:     make(map[string]struct{}),
		subscribers: make(map[int]chan Snapshot),
	}
}

// Snapshot returns the current session.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// Token returns the bearer token currently in use, "" when there is none.
// Before bootstrap restored the persisted token this is always "".
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.token
}

// Begin issues the ticket for a new credential operation or bootstrap call.
// Issuing it supersedes every operation that is still in flight.
func (s *Store) Begin() Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ticket++

	return s.ticket
}

// Current reports whether t is the latest ticket.
func (s *Store) Current(t Ticket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return t == s.ticket
}

// Restore loads the persisted token for bootstrap. The session stays resolving.
func (s *Store) Restore(t Ticket) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t != s.ticket {
		return "", ErrStale
	}

	token, err := s.tokens.Load()
	if err != nil {
		return "", errors.Wrap(err, "failed to restore token")
	}

	s.token = token

	return token, nil
}

// Authenticate commits a validated identity and its token.
// The token is persisted before the state changes; when persisting fails
// nothing changes. A token the API already rejected is refused with ErrRevoked.
func (s *Store) Authenticate(t Ticket, user Identity, token string, reason Reason) error {
	if user.ID == "" && user.Email == "" {
		return ErrNoIdentity
	}

	if token == "" {
		return ErrNoToken
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if t != s.ticket {
		return ErrStale
	}

	if _, ok := s.revoked[token]; ok {
		return ErrRevoked
	}

	if token != s.token {
		if err := s.tokens.Save(token); err != nil {
			return errors.Wrap(err, "failed to persist token")
		}

		s.token = token
	}

	s.commit(StatusAuthenticated, &user, reason)

	return nil
}

// Clear removes the token and settles the session as anonymous.
func (s *Store) Clear(t Ticket, reason Reason) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t != s.ticket {
		return ErrStale
	}

	return s.clear(reason)
}

// Expire reacts to an authorization failure of a request sent with token.
// The session is reset only when token is still the one in use; a 401 for
// an older token leaves a newer session alone. The token is revoked: an
// operation in flight can not commit it again, while a login in flight
// carrying a fresh token still lands. It reports whether the session was reset.
func (s *Store) Expire(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token == "" || token != s.token {
		return false
	}

	s.revoked[token] = struct{}{}

	if err := s.clear(ReasonUnauthorized); err != nil {
		// the in-memory session is anonymous regardless, the next bootstrap retries the delete
		log.Error().Err(err).Msg("failed to delete expired token")
	}

	return true
}

// clear expects s.mu to be held.
func (s *Store) clear(reason Reason) error {
	err := s.tokens.Clear()

	s.token = ""
	s.commit(StatusAnonymous, nil, reason)
	resets.WithLabelValues(string(reason)).Inc()

	return errors.Wrap(err, "failed to clear token")
}

// commit expects s.mu to be held.
func (s *Store) commit(status Status, user *Identity, reason Reason) {
	var u *Identity

	if user != nil {
		cp := *user
		u = &cp
	}

	s.state = Snapshot{
		Status:  status,
		User:    u,
		Reason:  reason,
		Version: s.state.Version + 1,
	}

	log.Debug().
		Str("status", string(status)).
		Str("reason", string(reason)).
		Str("user", s.state.UserID()).
		Uint64("version", s.state.Version).
		Msg("session changed")

	for _, ch := range s.subscribers {
		publish(ch, s.state)
	}
}

// publish replaces a pending unread snapshot so subscribers only ever see the latest one.
func publish(ch chan Snapshot, snap Snapshot) {
	select {
	case ch <- snap:
		return
	default:
	}

	select {
	case <-ch:
	default:
	}

	ch <- snap
}

// Subscribe returns a channel receiving the current snapshot and every later
// change. Snapshots a slow reader did not pick up are coalesced. The returned
// func unsubscribes and closes the channel.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSubID
	s.nextSubID++

	ch := make(chan Snapshot, 1)
	ch <- s.state
	s.subscribers[id] = ch

	var once sync.Once

	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()

			delete(s.subscribers, id)
			close(ch)
		})
	}
}

// WaitResolved blocks until the session left the resolving state or ctx is done.
func (s *Store) WaitResolved(ctx context.Context) (Snapshot, error) {
	updates, cancel := s.Subscribe()
	defer cancel()

	for {
		select {
		case snap := <-updates:
			if !snap.Resolving() {
				return snap, nil
			}
		case <-ctx.Done():
			return s.Snapshot(), ctx.Err()
		}
	}
}
