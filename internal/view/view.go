// Package view builds the data each route renders. Builders are pure: they
// read a settled Snapshot and never mutate it.
package view

import (
	"fmt"
	"time"

	"github.com/prn-tf/devehub/internal/domain"
	"github.com/prn-tf/devehub/internal/navigation"
)

// Snapshot is a settled read of the application state.
type Snapshot struct {
	Now time.Time

	Role          domain.Role
	Identity      string
	DeveloperName string
	AdminEmail    string

	// Selected is the project product-detail and checkout-success render.
	Selected *domain.Project

	// LastLicense is the license issued by the most recent purchase.
	LastLicense *domain.License

	// Projects are ordered by ranking, Licenses most recent first.
	Projects []*domain.Project
	Licenses []*domain.License
	Users    []*domain.User

	// PayoutMethod is the session developer's payout destination, if set.
	PayoutMethod *domain.PayoutMethod

	// Marketplace filter.
	Query    string
	Category string

	// UserQuery filters the admin user list by name or email.
	UserQuery string
}

// Model is the rendered output of a route.
type Model struct {
	View navigation.View `json:"view"`
	Data any             `json:"data"`
}

// Page contains the chrome shared by every view.
type Page struct {
	Title    string               `json:"title"`
	Role     domain.Role          `json:"role"`
	Identity string               `json:"identity,omitempty"`
	NavLinks []navigation.NavLink `json:"nav_links"`
}

func page(s Snapshot, title string) Page {
	return Page{
		Title:    title,
		Role:     s.Role,
		Identity: s.Identity,
		NavLinks: navigation.NavLinks(s.Role),
	}
}

// Build renders v from s. Views that need a selected project fall back to
// the marketplace when none is set.
func Build(s Snapshot, v navigation.View) Model {
	if v.NeedsSelection() && s.Selected == nil {
		v = navigation.ViewMarketplace
	}

	switch v {
	case navigation.ViewMarketplace:
		return Model{View: v, Data: Marketplace(s)}
	case navigation.ViewProductDetail:
		return Model{View: v, Data: ProductDetail(s)}
	case navigation.ViewCheckoutSuccess:
		return Model{View: v, Data: CheckoutSuccess(s)}
	case navigation.ViewUserDashboard:
		return Model{View: v, Data: UserDashboard(s)}
	case navigation.ViewDashboard:
		return Model{View: v, Data: Dashboard(s)}
	case navigation.ViewAdminDashboard:
		return Model{View: v, Data: AdminDashboard(s)}
	case navigation.ViewLogin:
		return Model{View: v, Data: Login(s)}
	case navigation.ViewBuildService:
		return Model{View: v, Data: BuildService(s)}
	}
	panic(fmt.Sprintf("view: unhandled view %q", v))
}

// projectIndex maps project ids to projects.
func projectIndex(projects []*domain.Project) map[string]*domain.Project {
	idx := make(map[string]*domain.Project, len(projects))
	for _, p := range projects {
		idx[p.ID] = p
	}
	return idx
}

func coverImage(p *domain.Project) string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}
