// Package auth runs the credential operations and the session bootstrap
// against the remote Knowledge API.
//
// # Credential operations
//
// Login, Register and Logout are the only code paths writing the persisted
// bearer token, together with Bootstrap clearing a token the API refused.
// Each operation takes a ticket from the session store before it talks to
// the API and commits its result with that ticket. When another operation
// started in the meantime the commit is discarded, so a slow answer can
// never resurrect a session the user already left.
//
// # Bootstrap
//
// Bootstrap runs once per process start:
//   - without a stored token the session settles anonymous, no request is sent
//   - with a stored token GET /auth/me decides, success authenticates
//   - any failure clears the token, there is no retry
//
// Example usage:
//
//	svc := auth.NewService(store, client)
//	snap := svc.Bootstrap(ctx)
//
//	user, err := svc.Login(ctx, email, password)
//	if errors.Is(err, auth.ErrInvalidCredentials) {
//	    // show auth.Message(err) in the form
//	}
package auth
