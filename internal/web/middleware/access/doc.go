// Package access is the route guard of the web console.
//
// Every request to a view is a fresh mount of that view: the middleware
// classifies the path, observes the current session once and then
//   - renders the neutral loading view while the session is resolving
//   - redirects to the login for anonymous visitors of protected views
//   - redirects to the dashboard for logged in visitors of the login and register forms
//   - lets everything else through with the session in fiber.Locals
//
// The loading view subscribes to the session event stream and continues
// once the session resolved.
//
// Usage:
//
//	app.Use(access.New(access.Config{Session: store, Routes: guard.DefaultRoutes()}))
package access
