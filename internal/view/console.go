package view

import (
	"github.com/prn-tf/devehub/internal/domain"
	"github.com/prn-tf/devehub/internal/ledger"
	"github.com/prn-tf/devehub/internal/navigation"
	"github.com/prn-tf/devehub/internal/service"
)

// =============================================================================
// Developer Dashboard
// =============================================================================

// ProjectRow is a project line in the developer and admin consoles.
type ProjectRow struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Developer   string               `json:"developer"`
	Status      domain.ProjectStatus `json:"status"`
	Tier        domain.PricingTier   `json:"pricing_tier"`
	Price       domain.Money         `json:"price"`
	Sales       int64                `json:"sales"`
	Revenue     domain.Money         `json:"revenue"`
	Ranking     int                  `json:"ranking"`
	CanMoveUp   bool                 `json:"can_move_up"`
	CanMoveDown bool                 `json:"can_move_down"`

	// Secret is only filled in the owning developer's console.
	Secret string `json:"secret,omitempty"`
}

// SaleRow is a license line in the developer and admin consoles.
type SaleRow struct {
	LicenseID      string               `json:"license_id"`
	Key            string               `json:"key"`
	ProjectName    string               `json:"project_name"`
	Customer       string               `json:"customer"`
	Amount         domain.Money         `json:"amount"`
	Date           string               `json:"date"`
	PayoutDate     string               `json:"payout_date"`
	Status         domain.LicenseStatus `json:"status"`
	PayoutStatus   domain.PayoutStatus  `json:"payout_status"`
	CanForceRefund bool                 `json:"can_force_refund,omitempty"`
}

// DashboardData is the developer console view model.
type DashboardData struct {
	Page
	Developer      string                 `json:"developer"`
	Pending        domain.Money           `json:"pending"`
	Gross          domain.Money           `json:"gross"`
	Sales          int                    `json:"sales"`
	Refunds        int                    `json:"refunds"`
	NextPayoutDate string                 `json:"next_payout_date"`
	Projects       []ProjectRow           `json:"projects"`
	Payouts        []ledger.ProjectPayout `json:"payouts"`
	RecentSales    []SaleRow              `json:"recent_sales"`
	PayoutMethod   *domain.PayoutMethod   `json:"payout_method,omitempty"`
}

// Dashboard renders the developer console for the session developer.
func Dashboard(s Snapshot) *DashboardData {
	var projects []*domain.Project
	for _, p := range s.Projects {
		if p.DeveloperName == s.DeveloperName {
			projects = append(projects, p)
		}
	}
	licenses := ledger.DeveloperLicenses(s.DeveloperName, s.Projects, s.Licenses)
	summary := service.Developer(s.DeveloperName, projects, licenses, s.PayoutMethod, s.Now)

	rows := make([]ProjectRow, 0, len(projects))
	for _, p := range projects {
		row := projectRow(p)
		row.Secret = p.Secret
		rows = append(rows, row)
	}
	sales := make([]SaleRow, 0, len(licenses))
	for _, l := range licenses {
		sales = append(sales, saleRow(l))
	}

	return &DashboardData{
		Page:           page(s, "Developer Console"),
		Developer:      summary.Developer,
		Pending:        summary.Pending,
		Gross:          summary.Gross,
		Sales:          summary.Sales,
		Refunds:        summary.Refunds,
		NextPayoutDate: domain.FormatDate(summary.NextPayoutDate),
		Projects:       rows,
		Payouts:        summary.Projects,
		RecentSales:    sales,
		PayoutMethod:   summary.Method,
	}
}

func projectRow(p *domain.Project) ProjectRow {
	return ProjectRow{
		ID:        p.ID,
		Name:      p.Name,
		Developer: p.DeveloperName,
		Status:    p.Status,
		Tier:      p.PricingTier,
		Price:     p.Price(),
		Sales:     p.Sales,
		Revenue:   p.Revenue,
		Ranking:   p.Ranking,
	}
}

func saleRow(l *domain.License) SaleRow {
	return SaleRow{
		LicenseID:    l.ID,
		Key:          l.Key,
		ProjectName:  l.ProjectName,
		Customer:     l.CustomerEmail,
		Amount:       l.Amount,
		Date:         domain.FormatDate(l.PaymentDate),
		PayoutDate:   domain.FormatDate(l.ExpectedPayoutDate),
		Status:       l.Status,
		PayoutStatus: l.PayoutStatus,
	}
}

// =============================================================================
// Admin Dashboard
// =============================================================================

// Delete action labels.
const (
	LabelDelete       = "Delete Account"
	LabelCannotDelete = "Cannot Delete"
)

// UserRow is a user line in the admin console.
type UserRow struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Email        string            `json:"email"`
	Role         domain.Role       `json:"role"`
	Status       domain.UserStatus `json:"status"`
	Joined       string            `json:"joined"`
	LastLogin    string            `json:"last_login"`
	HasPurchases bool              `json:"has_purchases"`
	HasUploads   bool              `json:"has_uploads"`
	Deletable    bool              `json:"deletable"`
	DeleteLabel  string            `json:"delete_label"`
}

// AdminDashboardData is the admin console view model.
type AdminDashboardData struct {
	Page
	Financials     *service.PlatformSummary `json:"financials"`
	NextPayoutDate string                   `json:"next_payout_date"`
	Projects       []ProjectRow             `json:"projects"`
	Licenses       []SaleRow                `json:"licenses"`
	UserQuery      string                   `json:"user_query"`
	Users          []UserRow                `json:"users"`
	DeletableCount int                      `json:"deletable_count"`
	Statuses       []domain.ProjectStatus   `json:"statuses"`
	CanImpersonate bool                     `json:"can_impersonate"`
}

// AdminDashboard renders the admin console. Deletion eligibility is
// evaluated against the snapshot time on every build. The user search
// narrows the listed users but never the deletable count.
func AdminDashboard(s Snapshot) *AdminDashboardData {
	platform := service.Platform(s.Projects, s.Licenses, s.Now)

	projects := make([]ProjectRow, 0, len(s.Projects))
	for i, p := range s.Projects {
		row := projectRow(p)
		row.CanMoveUp = i > 0
		row.CanMoveDown = i < len(s.Projects)-1
		projects = append(projects, row)
	}

	licenses := make([]SaleRow, 0, len(s.Licenses))
	for _, l := range s.Licenses {
		row := saleRow(l)
		row.CanForceRefund = l.IsActive()
		licenses = append(licenses, row)
	}

	users := make([]UserRow, 0, len(s.Users))
	for _, u := range s.Users {
		if !u.Matches(s.UserQuery) {
			continue
		}
		deletable := ledger.Deletable(u, s.Now)
		label := LabelCannotDelete
		if deletable {
			label = LabelDelete
		}
		users = append(users, UserRow{
			ID:           u.ID,
			Name:         u.Name,
			Email:        u.Email,
			Role:         u.Role,
			Status:       u.Status,
			Joined:       domain.FormatDate(u.Joined),
			LastLogin:    domain.FormatDate(u.LastLogin),
			HasPurchases: u.HasPurchases,
			HasUploads:   u.HasUploads,
			Deletable:    deletable,
			DeleteLabel:  label,
		})
	}

	return &AdminDashboardData{
		Page:           page(s, "Admin Console"),
		Financials:     platform,
		NextPayoutDate: domain.FormatDate(platform.NextPayoutDate),
		Projects:       projects,
		Licenses:       licenses,
		UserQuery:      s.UserQuery,
		Users:          users,
		DeletableCount: ledger.DeletableCount(s.Users, s.Now),
		Statuses: []domain.ProjectStatus{
			domain.ProjectDraft,
			domain.ProjectReview,
			domain.ProjectActive,
			domain.ProjectRejected,
		},
		CanImpersonate: navigation.CanImpersonate(s.Role),
	}
}
