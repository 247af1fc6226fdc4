// Package route maps browser locations onto the console's fixed set of
// top-level views and decides where navigation events land.
package route

import (
	"net/url"
	"strings"
)

// View is one of the top-level screens.
type View string

const (
	Home      View = "home"
	Help      View = "help"
	Privacy   View = "privacy"
	Terms     View = "terms"
	Signup    View = "signup"
	Login     View = "login"
	Dashboard View = "dashboard"
)

var views = map[View]struct{}{
	Home: {}, Help: {}, Privacy: {}, Terms: {}, Signup: {}, Login: {}, Dashboard: {},
}

// Valid reports whether v is a known view.
func (v View) Valid() bool {
	_, ok := views[v]
	return ok
}

// Path is the canonical location for v.
func (v View) Path() string {
	if v == Home {
		return "/"
	}
	return "/" + string(v)
}

// RequiresAuth reports whether v is only reachable while logged in.
func (v View) RequiresAuth() bool {
	return v == Dashboard
}

// Resolve maps a path, hash fragment or full URL onto a view. Anything it
// cannot place resolves to Home.
func Resolve(location string) View {
	location = strings.TrimSpace(location)
	if location == "" {
		return Home
	}

	candidate := location
	if parsed, err := url.Parse(location); err == nil {
		switch {
		case parsed.Fragment != "":
			candidate = parsed.Fragment
		case strings.HasPrefix(location, "#"):
			candidate = strings.TrimPrefix(location, "#")
		default:
			candidate = parsed.Path
		}
	}

	candidate = strings.Trim(candidate, "/#")
	if idx := strings.IndexAny(candidate, "/?"); idx >= 0 {
		candidate = candidate[:idx]
	}

	view := View(strings.ToLower(candidate))
	if view == "" || !view.Valid() {
		return Home
	}
	return view
}

// EventKind enumerates navigation inputs.
type EventKind int

const (
	// Navigate asks for a specific view.
	Navigate EventKind = iota
	// LoggedIn fires after a successful login.
	LoggedIn
	// LoggedOut fires after logout.
	LoggedOut
)

// Event is a navigation input. Target is only meaningful for Navigate.
type Event struct {
	Kind   EventKind
	Target View
}

// NavigateTo is shorthand for a Navigate event.
func NavigateTo(v View) Event {
	return Event{Kind: Navigate, Target: v}
}

// State is the navigation state: the current view and whether a user is logged in.
type State struct {
	View          View
	Authenticated bool
}

// Transition applies ev to s and returns the next state. The dashboard is
// gated behind login, and the login/signup screens bounce authenticated users
// to the dashboard.
func Transition(s State, ev Event) State {
	switch ev.Kind {
	case LoggedIn:
		return State{View: Dashboard, Authenticated: true}
	case LoggedOut:
		return State{View: Home, Authenticated: false}
	}

	target := ev.Target
	if !target.Valid() {
		target = Home
	}

	switch {
	case target.RequiresAuth() && !s.Authenticated:
		target = Login
	case (target == Login || target == Signup) && s.Authenticated:
		target = Dashboard
	}

	return State{View: target, Authenticated: s.Authenticated}
}
