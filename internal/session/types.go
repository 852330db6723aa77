package session

// Status is the coarse authentication state.
type Status string

const (
	// StatusResolving means bootstrap has not settled the session yet.
	StatusResolving Status = "resolving"
	// StatusAuthenticated means a validated identity and token are present.
	StatusAuthenticated Status = "authenticated"
	// StatusAnonymous means no one is logged in.
	StatusAnonymous Status = "anonymous"
)

// Reason records what caused the latest transition.
type Reason string

// Transition reasons.
const (
	ReasonStartup      Reason = "startup"
	ReasonBootstrap    Reason = "bootstrap"
	ReasonLogin        Reason = "login"
	ReasonRegister     Reason = "register"
	ReasonLogout       Reason = "logout"
	ReasonUnauthorized Reason = "unauthorized"
)

// Identity is the user as reported by the API.
type Identity struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"name"`
}

// Ticket orders credential operations. Only the latest ticket may commit.
type Ticket uint64

// Snapshot is an immutable copy of the session.
type Snapshot struct {
	Status Status
	User   *Identity
	Reason Reason

	// Version increases with every committed change.
	Version uint64
}

// Authenticated reports whether s carries a validated identity.
func (s Snapshot) Authenticated() bool {
	return s.Status == StatusAuthenticated && s.User != nil
}

// Resolving reports whether bootstrap is still pending.
func (s Snapshot) Resolving() bool {
	return s.Status == StatusResolving
}

// UserID returns the identity id or "".
func (s Snapshot) UserID() string {
	if s.User == nil {
		return ""
	}

	return s.User.ID
}
