// Package guard decides, from session state alone, whether a view may be
// shown. Guards hold no state and are re-evaluated on every navigation.
package guard

import (
	"strings"

	"github.com/wolfeidau/sentiview/internal/session"
)

const (
	// LoginPath is where unauthenticated users are sent.
	LoginPath = "/login"
	// LandingPath is where authenticated users land.
	LandingPath = "/dashboard"
)

// Outcome is what a guard tells the caller to do.
type Outcome int

const (
	// Loading means startup verification is still running; show a placeholder.
	Loading Outcome = iota
	// Render means show the requested view.
	Render
	// Redirect means navigate to Decision.Target instead.
	Redirect
)

func (o Outcome) String() string {
	switch o {
	case Loading:
		return "loading"
	case Render:
		return "render"
	case Redirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Decision is the result of evaluating a guard.
type Decision struct {
	Outcome Outcome
	Target  string
}

// Guard evaluates session state.
type Guard func(session.Snapshot) Decision

// Protected renders only for an authenticated session and sends everyone
// else to the login view.
func Protected(s session.Snapshot) Decision {
	if s.Loading {
		return Decision{Outcome: Loading}
	}
	if !s.IsAuthenticated() {
		return Decision{Outcome: Redirect, Target: LoginPath}
	}
	return Decision{Outcome: Render}
}

// Public renders only for an unauthenticated session, such as the login and
// registration forms, and sends signed in users to the landing view.
func Public(s session.Snapshot) Decision {
	if s.Loading {
		return Decision{Outcome: Loading}
	}
	if s.IsAuthenticated() {
		return Decision{Outcome: Redirect, Target: LandingPath}
	}
	return Decision{Outcome: Render}
}

// Route is one entry of the route table.
type Route struct {
	Pattern string
	Guard   Guard
}

// Routes is the application route table.
var Routes = []Route{
	{Pattern: "/login", Guard: Public},
	{Pattern: "/register", Guard: Public},
	{Pattern: "/dashboard", Guard: Protected},
	{Pattern: "/analysis", Guard: Protected},
	{Pattern: "/analysis/:id", Guard: Protected},
	{Pattern: "/reports", Guard: Protected},
	{Pattern: "/profile", Guard: Protected},
}

// Match finds the route for path and returns its path parameters.
func Match(path string) (Route, map[string]string, bool) {
	segments := split(path)

	for _, r := range Routes {
		pattern := split(r.Pattern)
		if len(pattern) != len(segments) {
			continue
		}

		params := map[string]string{}
		matched := true
		for i, p := range pattern {
			if strings.HasPrefix(p, ":") {
				params[p[1:]] = segments[i]
				continue
			}
			if p != segments[i] {
				matched = false
				break
			}
		}

		if matched {
			return r, params, true
		}
	}

	return Route{}, nil, false
}

// Resolve applies the route table to path. The index and unknown paths
// redirect to the landing view, whose own guard then applies.
func Resolve(path string, s session.Snapshot) Decision {
	r, _, ok := Match(path)
	if !ok {
		return Decision{Outcome: Redirect, Target: LandingPath}
	}
	return r.Guard(s)
}

// Follow resolves path, following redirects until a view renders or a
// placeholder is needed. It returns the final path and decision.
func Follow(path string, s session.Snapshot) (string, Decision) {
	// the table can only bounce between /login and /dashboard
	for range len(Routes) + 1 {
		d := Resolve(path, s)
		if d.Outcome != Redirect {
			return path, d
		}
		path = d.Target
	}
	return path, Resolve(path, s)
}

func split(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}
