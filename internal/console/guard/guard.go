// Package guard decides whether a view may render for the current session.
// Guards are pure functions of a session snapshot; they perform no IO.
package guard

import (
	"github.com/watchdesk/console/internal/console/session"
	"github.com/watchdesk/console/types"
)

// Kind is the outcome of a guard evaluation.
type Kind int

const (
	// ShowLoading defers rendering until session initialization finishes.
	ShowLoading Kind = iota

	// Redirect sends the caller to Decision.Target instead of the
	// requested view. The requested view is not recorded in history.
	Redirect

	// Render allows the requested view.
	Render

	// RenderNothing blanks the view without a redirect. Reached when a
	// token exists but the identity behind it could not be resolved; the
	// next initialization settles the session.
	RenderNothing
)

func (k Kind) String() string {
	switch k {
	case ShowLoading:
		return "loading"
	case Redirect:
		return "redirect"
	case Render:
		return "render"
	case RenderNothing:
		return "none"
	default:
		return "unknown"
	}
}

// Redirect targets, named after the views they resolve to.
const (
	TargetLogin     = "login"
	TargetDashboard = "dashboard"
)

// Decision is the single result of a guard. Target is set only for Redirect.
type Decision struct {
	Kind   Kind
	Target string
}

// Private gates a role-restricted view.
func Private(snap session.Snapshot, allowed []types.Role) Decision {
	if snap.Loading {
		return Decision{Kind: ShowLoading}
	}
	if !snap.HasToken {
		return Decision{Kind: Redirect, Target: TargetLogin}
	}
	if snap.Role == "" {
		return Decision{Kind: RenderNothing}
	}
	if len(allowed) > 0 && !snap.Role.In(allowed) {
		return Decision{Kind: Redirect, Target: TargetDashboard}
	}
	return Decision{Kind: Render}
}

// Public gates an anonymous-only view, the inverse of Private. A logged-in
// session is bounced to the dashboard.
func Public(snap session.Snapshot) Decision {
	if snap.Loading {
		return Decision{Kind: ShowLoading}
	}
	if snap.HasToken {
		return Decision{Kind: Redirect, Target: TargetDashboard}
	}
	return Decision{Kind: Render}
}
