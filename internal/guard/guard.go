// Package guard decides whether a view may render for the current session.
//
// A Guard lives as long as one mounted view. It turns every session
// snapshot it observes into an Action and hands out a redirect at most once
// per resolved session state, no matter how often the same state is observed.
package guard

import (
	"sync"

	"github.com/knowledgeai/knowledge-console/internal/session"
)

// State of a guarded view.
type State string

const (
	// StatePending means the session is resolving, render a loading indicator only.
	StatePending State = "pending"
	// StateAllowed means the view may render.
	StateAllowed State = "allowed"
	// StateDenied means the view must not render and the user is sent elsewhere.
	StateDenied State = "denied"
)

// Action is the outcome of an observation. Redirect is set only for the
// one observation that has to navigate.
type Action struct {
	State    State
	Redirect string
}

// Decide maps a view kind and a session snapshot to a state and, when denied,
// the redirect target. It has no memory; Guard adds the once semantics.
func Decide(kind Kind, snap session.Snapshot) (State, string) {
	if snap.Resolving() {
		return StatePending, ""
	}

	switch kind {
	case Protected:
		if !snap.Authenticated() {
			return StateDenied, LoginPath
		}
	case AuthOnly:
		if snap.Authenticated() {
			return StateDenied, HomePath
		}
	case Public:
	}

	return StateAllowed, ""
}

// Guard guards one mounted view.
type Guard struct {
	mu   sync.Mutex
	path string
	kind Kind

	// redirected holds the key of the state the last redirect was issued for.
	redirected string
}

// New returns a Guard for the view at path.
func New(routes *Routes, path string) *Guard {
	return &Guard{path: path, kind: routes.Classify(path)}
}

// Kind returns the kind of the guarded view.
func (g *Guard) Kind() Kind {
	return g.kind
}

// Path returns the guarded view path.
func (g *Guard) Path() string {
	return g.path
}

// Observe applies snap. A pending session never navigates. Once the view is
// allowed again the latch is released, a later denial redirects anew.
func (g *Guard) Observe(snap session.Snapshot) Action {
	state, target := Decide(g.kind, snap)

	g.mu.Lock()
	defer g.mu.Unlock()

	switch state {
	case StateDenied:
		return Action{State: state, Redirect: g.once(key(snap), target)}
	case StateAllowed:
		g.redirected = ""
	case StatePending:
	}

	return Action{State: state}
}

// Force sends the view to the login after the session expired. It shares the
// latch with Observe, so an expiry seen both ways navigates once. Views
// already at the login stay.
func (g *Guard) Force() Action {
	if g.path == LoginPath {
		return Action{State: StateAllowed}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	return Action{
		State:    StateDenied,
		Redirect: g.once(key(session.Snapshot{Status: session.StatusAnonymous}), LoginPath),
	}
}

// once expects g.mu to be held.
func (g *Guard) once(k, target string) string {
	if g.redirected == k {
		return ""
	}

	g.redirected = k

	return target
}

// key identifies a resolved session state.
func key(snap session.Snapshot) string {
	return string(snap.Status) + ":" + snap.UserID()
}
