// Package view decides what a browser sees. Everything here is a pure
// function of its inputs and is re-evaluated on every render.
package view

import "github.com/sakif/asynchire/internal/session"

// Kind is the top-level page to render.
type Kind int

const (
	Landing Kind = iota
	Loading
	ClientDashboard
	Admin
)

func (k Kind) String() string {
	switch k {
	case Loading:
		return "loading"
	case ClientDashboard:
		return "dashboard"
	case Admin:
		return "admin"
	default:
		return "landing"
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Select maps controller state to a page.
func Select(s session.State) Kind {
	switch {
	case s.Initializing || (s.IsAuthenticated && s.Loading):
		return Loading
	case s.IsAuthenticated && s.IsAdmin:
		return Admin
	case s.IsAuthenticated:
		return ClientDashboard
	default:
		return Landing
	}
}

// StaticPages are served by literal path match, ahead of Select.
var StaticPages = map[string]string{
	"/terms":   "terms",
	"/privacy": "privacy",
	"/pricing": "pricing",
}
