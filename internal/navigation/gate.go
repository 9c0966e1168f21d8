package navigation

import (
	"fmt"
	"strings"

	"github.com/prn-tf/devehub/internal/domain"
)

// Login credential markers.
const (
	AdminMarker     = "admin"
	DeveloperMarker = "pixellabs"
)

// NavLink is a navigation entry in the shared chrome.
type NavLink string

const (
	LinkLogin        NavLink = "login"
	LinkMyLibrary    NavLink = "my-library"
	LinkDevDashboard NavLink = "dev-dashboard"
	LinkAdminConsole NavLink = "admin-console"
)

// Target returns the view a link opens.
func (l NavLink) Target() View {
	switch l {
	case LinkLogin:
		return ViewLogin
	case LinkMyLibrary:
		return ViewUserDashboard
	case LinkDevDashboard:
		return ViewDashboard
	case LinkAdminConsole:
		return ViewAdminDashboard
	}
	return ViewMarketplace
}

// RoleForCredential maps a login credential to a role. Admin takes
// precedence over developer.
func RoleForCredential(credential string) domain.Role {
	c := strings.ToLower(credential)
	switch {
	case strings.Contains(c, AdminMarker):
		return domain.RoleAdmin
	case strings.Contains(c, DeveloperMarker):
		return domain.RoleDeveloper
	default:
		return domain.RoleBuyer
	}
}

// HomeView returns the landing view for role.
func HomeView(role domain.Role) View {
	switch role {
	case domain.RoleNone:
		return ViewMarketplace
	case domain.RoleBuyer:
		return ViewUserDashboard
	case domain.RoleDeveloper:
		return ViewDashboard
	case domain.RoleAdmin:
		return ViewAdminDashboard
	}
	panic(fmt.Sprintf("navigation: unhandled role %v", role))
}

// NavLinks returns the links visible to role.
func NavLinks(role domain.Role) []NavLink {
	switch role {
	case domain.RoleNone:
		return []NavLink{LinkLogin}
	case domain.RoleBuyer:
		return []NavLink{LinkMyLibrary}
	case domain.RoleDeveloper:
		return []NavLink{LinkDevDashboard, LinkMyLibrary}
	case domain.RoleAdmin:
		return []NavLink{LinkAdminConsole}
	}
	panic(fmt.Sprintf("navigation: unhandled role %v", role))
}

// CanImpersonate reports whether role may swap to another role.
func CanImpersonate(role domain.Role) bool {
	return role == domain.RoleAdmin
}
