// Package api is the authorized request layer for the remote Knowledge API.
//
// Every request leaving the Client carries the bearer token of the current
// session. A 401 answered to a request sent with the current token resets
// the session and triggers the forced navigation to the login view. The
// credential endpoints are exempt: a 401 there means bad credentials.
package api
