// Package access decides, for every navigation to a console path, whether the view renders
// or the user is sent to login, to the unauthorized page or to the upgrade page.
package access

import (
	"time"

	"github.com/academyos/console/core/session"
)

// FreshnessWindow is how long a cached subscription verdict is trusted.
const FreshnessWindow = 60 * time.Second

type Outcome int

const (
	Render Outcome = iota
	RedirectToLogin
	RedirectToUnauthorized
	RedirectToUpgrade

	// Refresh asks the caller to refresh the verdict and evaluate again.
	// Gate.Check never returns it.
	Refresh
)

func (o Outcome) String() string {
	switch o {
	case Render:
		return "render"
	case RedirectToLogin:
		return "redirect-to-login"
	case RedirectToUnauthorized:
		return "redirect-to-unauthorized"
	case RedirectToUpgrade:
		return "redirect-to-upgrade"
	case Refresh:
		return "refresh"
	}
	return "unknown"
}

// Decision is the routing outcome of one navigation.
type Decision struct {
	Outcome Outcome `json:"-"`
	Path    string  `json:"path"`

	// Location is the redirect target, query included. Empty for Render.
	Location string `json:"location,omitempty"`
	View     View   `json:"view"`
}

func (d Decision) Redirect() bool {
	return d.Outcome == RedirectToLogin || d.Outcome == RedirectToUnauthorized || d.Outcome == RedirectToUpgrade
}

// Evaluate applies the access rules, in order, to one navigation. It performs no I/O.
//
//  1. public paths render
//  2. no credential or identity: login
//  3. role not allowed: unauthorized page (which itself always renders)
//  4. super-admins render
//  5. roles without subscription checks render; others need a fresh verdict or get Refresh
//  6. locked verdict outside the upgrade page: upgrade
//  7. render
func Evaluate(routes *Routes, st session.State, req Request, now time.Time) Decision {
	render := Decision{Outcome: Render, Path: req.Path, View: req.View}

	if routes.IsPublic(req.Path) {
		return render
	}

	if !st.Authenticated() {
		return Decision{Outcome: RedirectToLogin, Path: req.Path, Location: routes.loginLocation(req.Path)}
	}

	role := st.Identity.Role
	if len(req.RequiredRoles) > 0 && !hasRole(req.RequiredRoles, role) {
		if req.Path == routes.UnauthorizedPath {
			return render
		}
		return Decision{Outcome: RedirectToUnauthorized, Path: req.Path, Location: routes.UnauthorizedPath}
	}

	if role == session.RoleSuperAdmin {
		return render
	}

	if !role.RequiresSubscription() {
		return render
	}
	if !st.Verdict.FreshAt(now, FreshnessWindow) {
		return Decision{Outcome: Refresh, Path: req.Path, View: req.View}
	}

	if st.Verdict.Status.Locked() && !routes.IsUpgrade(req.Path) {
		return Decision{Outcome: RedirectToUpgrade, Path: req.Path, Location: routes.upgradeLocation(req.Path)}
	}
	return render
}

func hasRole(roles []session.Role, role session.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
