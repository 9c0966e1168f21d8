// Package navigation implements the hash router and the role gate:
// fragment to view mapping, home views, and the navigation links each
// role may see.
package navigation

import "fmt"

// View identifies one of the fixed application views.
type View string

const (
	ViewMarketplace     View = "marketplace"
	ViewDashboard       View = "dashboard"
	ViewAdminDashboard  View = "admin-dashboard"
	ViewUserDashboard   View = "user-dashboard"
	ViewLogin           View = "login"
	ViewBuildService    View = "build-service"
	ViewProductDetail   View = "product-detail"
	ViewCheckoutSuccess View = "checkout-success"
)

// Views lists every view in a stable order.
var Views = []View{
	ViewMarketplace,
	ViewDashboard,
	ViewAdminDashboard,
	ViewUserDashboard,
	ViewLogin,
	ViewBuildService,
	ViewProductDetail,
	ViewCheckoutSuccess,
}

// Valid reports whether v is a known view.
func (v View) Valid() bool {
	for _, known := range Views {
		if v == known {
			return true
		}
	}
	return false
}

// Fragment returns the URL fragment written for v. The marketplace is the
// empty fragment.
func (v View) Fragment() string {
	if v == ViewMarketplace {
		return ""
	}
	return string(v)
}

// NeedsSelection reports whether v renders a selected project.
func (v View) NeedsSelection() bool {
	return v == ViewProductDetail || v == ViewCheckoutSuccess
}

// ParseView parses a view identifier.
func ParseView(s string) (View, error) {
	v := View(s)
	if !v.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownView, s)
	}
	return v, nil
}
