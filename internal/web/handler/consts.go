package handler

const (
	// BaseLayout is the default path for layout templates.
	BaseLayout = "layouts/base"

	// RootPath is the root path the route group.
	RootPath = "/"

	// RouterRootPath is the root of a route group.
	RouterRootPath = ""

	// LocalsCurrentUser is the fiber.Locals key holding the authenticated session.Identity.
	LocalsCurrentUser = "CurrentUser"

	// ErrNilDepsFatalLogMsg is used if app or one of the dependencies is nil.
	ErrNilDepsFatalLogMsg = "app or handler dependencies are nil"
)
