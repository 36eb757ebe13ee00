package viewmodel

import "github.com/prakritea/artisan-studio/config"

// NavLink is one entry of the primary navigation.
type NavLink struct {
	Page  string
	Label string
	Href  string
}

// Layout captures shared chrome metadata (titles, navigation state, auth
// presence, theme).
//
// IsAuthenticated is derived from the session token and nothing else.
type Layout struct {
	Title           string
	CurrentPage     string
	CSRFToken       string
	IsAuthenticated bool
	Username        string
	// Protected pages re-navigate when the session changes so the guard can
	// redirect them.
	Protected bool
	Theme     config.Theme
	Palette   config.Palette
	Links     []NavLink
}

// LayoutProvider exposes layout metadata for renderer utilities.
type LayoutProvider interface {
	LayoutData() *Layout
}

// PrimaryLinks are the public navigation entries shown to every visitor.
func PrimaryLinks() []NavLink {
	return []NavLink{
		{Page: "home", Label: "Home", Href: "/"},
		{Page: "how-it-works", Label: "How it works", Href: "/how-it-works"},
		{Page: "pricing", Label: "Pricing", Href: "/pricing"},
	}
}

// NextTheme is the theme the toggle switches to.
func (l Layout) NextTheme() config.Theme { return l.Theme.Toggle() }
