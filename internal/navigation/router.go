package navigation

import (
	"errors"
	"strings"

	"github.com/prn-tf/devehub/internal/domain"
)

// ErrUnknownView indicates a view identifier outside the fixed set.
var ErrUnknownView = errors.New("unknown view")

// Location is the router's settled state. Fragment and View always agree.
type Location struct {
	View     View   `json:"view"`
	Fragment string `json:"fragment"`
}

// RouterConfig configures the router.
type RouterConfig struct {
	// RoleGuard redirects role-scoped views to login while no role is set.
	// The router itself never enforces authentication when this is off.
	RoleGuard bool
}

// Router maps URL fragments to views. It is not safe for concurrent use;
// the application root serialises access.
type Router struct {
	cfg RouterConfig
	loc Location
}

// NewRouter creates a router positioned at the marketplace.
func NewRouter(cfg RouterConfig) *Router {
	return &Router{
		cfg: cfg,
		loc: Location{View: ViewMarketplace, Fragment: ""},
	}
}

// Location returns the current location.
func (r *Router) Location() Location {
	return r.loc
}

// Current returns the current view.
func (r *Router) Current() View {
	return r.loc.View
}

// ParseFragment maps a fragment to a view. A leading '#' is ignored; empty or
// unmapped fragments resolve to the marketplace.
func ParseFragment(fragment string) View {
	fragment = strings.TrimPrefix(strings.TrimSpace(fragment), "#")
	if fragment == "" {
		return ViewMarketplace
	}
	v := View(fragment)
	if !v.Valid() {
		return ViewMarketplace
	}
	return v
}

// HandleFragment applies a browser navigation event, including the initial
// load. hasSelection reports whether a project is currently selected.
func (r *Router) HandleFragment(fragment string, role domain.Role, hasSelection bool) Location {
	return r.Navigate(ParseFragment(fragment), role, hasSelection)
}

// Navigate moves to v and writes the matching fragment. Views that need a
// selected project fall back to the marketplace without one.
func (r *Router) Navigate(v View, role domain.Role, hasSelection bool) Location {
	r.loc = r.Resolve(v, role, hasSelection)
	return r.loc
}

// Resolve computes where a navigation to v would land without moving.
func (r *Router) Resolve(v View, role domain.Role, hasSelection bool) Location {
	if !v.Valid() {
		v = ViewMarketplace
	}
	if v.NeedsSelection() && !hasSelection {
		v = ViewMarketplace
	}
	if r.cfg.RoleGuard && !Allowed(v, role) {
		v = ViewLogin
	}
	return Location{View: v, Fragment: v.Fragment()}
}

// Allowed reports whether role may open v under the optional role guard.
func Allowed(v View, role domain.Role) bool {
	switch v {
	case ViewDashboard:
		return role == domain.RoleDeveloper
	case ViewAdminDashboard:
		return role == domain.RoleAdmin
	case ViewUserDashboard, ViewCheckoutSuccess:
		return role.SignedIn()
	default:
		return true
	}
}
