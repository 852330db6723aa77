// Package session holds the process wide authentication state of the console.
//
// Exactly one Store exists per running process. It starts in the resolving
// state and moves to authenticated or anonymous once bootstrap or a
// credential operation settles it:
//
//	resolving -> authenticated | anonymous
//	authenticated <-> anonymous
//
// Every credential operation and the bootstrap call take a Ticket from Begin
// before they suspend on the network. Commits carry that ticket and are
// rejected with ErrStale when a newer operation began in the meantime, so a
// late login response can never resurrect a session that a logout cleared.
// A token the API answered 401 for is revoked by Expire and refused by
// Authenticate afterwards, while a login carrying a fresh token still lands.
//
// The store also owns the bearer token. It is the only code that writes the
// persisted copy, through the TokenStore it was created with.
package session
