// Package navigation builds the page header of the console: title, menu and breadcrumbs.
package navigation

import "github.com/knowledgeai/knowledge-console/internal/session"

// Sections of the console menu.
const (
	SectionHome      = "home"
	SectionDashboard = "dashboard"
	SectionChat      = "chat"
)

// BreadcrumbItem represents a single breadcrumb link.
type BreadcrumbItem struct {
	Title  string
	URL    string
	Active bool
}

// MenuItem is an entry of the top menu.
type MenuItem struct {
	Title   string
	URL     string
	Section string
}

// Context represents the navigation context for a page.
type Context struct {
	PageTitle     string
	ActiveSection string
	Breadcrumbs   []BreadcrumbItem

	// User is the logged in identity, nil for anonymous visitors.
	User *session.Identity
}

// NewContext creates a new navigation context.
func NewContext(pageTitle, activeSection string) *Context {
	return &Context{
		PageTitle:     pageTitle,
		ActiveSection: activeSection,
		Breadcrumbs:   make([]BreadcrumbItem, 0),
	}
}

// WithUser sets the identity shown in the header.
func (c *Context) WithUser(user *session.Identity) *Context {
	c.User = user

	return c
}

// AddBreadcrumb adds a breadcrumb item to the context.
func (c *Context) AddBreadcrumb(title, url string, active bool) *Context {
	c.Breadcrumbs = append(c.Breadcrumbs, BreadcrumbItem{
		Title:  title,
		URL:    url,
		Active: active,
	})

	return c
}

// Menu returns the menu entries visible to the current visitor.
func (c *Context) Menu() []MenuItem {
	if c.User == nil {
		return []MenuItem{
			{Title: "Home", URL: "/", Section: SectionHome},
		}
	}

	return []MenuItem{
		{Title: "Dashboard", URL: "/dashboard", Section: SectionDashboard},
		{Title: "Chat", URL: "/chat", Section: SectionChat},
	}
}

// IsSectionActive checks if the given section is active.
func (c *Context) IsSectionActive(section string) bool {
	return c.ActiveSection == section
}

// DisplayName returns the name shown for the user, falling back to the email.
func (c *Context) DisplayName() string {
	if c.User == nil {
		return ""
	}

	if c.User.DisplayName != "" {
		return c.User.DisplayName
	}

	return c.User.Email
}
