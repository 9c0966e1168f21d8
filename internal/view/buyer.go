package view

import (
	"github.com/prn-tf/devehub/internal/domain"
	"github.com/prn-tf/devehub/internal/ledger"
	"github.com/prn-tf/devehub/internal/service"
)

// =============================================================================
// Marketplace
// =============================================================================

// Card is a project tile in the marketplace grid.
type Card struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Image       string             `json:"image,omitempty"`
	Developer   string             `json:"developer"`
	Tier        domain.PricingTier `json:"pricing_tier"`
	Price       domain.Money       `json:"price"`
	Categories  []string           `json:"categories"`
	Sales       int64              `json:"sales"`
	AppType     domain.AppType     `json:"app_type"`
	Owned       bool               `json:"owned"`
}

// MarketplaceData is the marketplace view model.
type MarketplaceData struct {
	Page
	Query      string   `json:"query"`
	Category   string   `json:"category"`
	Categories []string `json:"categories"`
	Projects   []Card   `json:"projects"`
}

// Marketplace lists active projects by ranking under the snapshot's filter.
func Marketplace(s Snapshot) *MarketplaceData {
	category := s.Category
	if category == "" {
		category = service.AllCategories
	}

	listed := service.FilterMarketplace(s.Projects, service.MarketplaceInput{Query: s.Query, Category: category})
	cards := make([]Card, 0, len(listed))
	for _, p := range listed {
		cards = append(cards, Card{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Image:       coverImage(p),
			Developer:   p.DeveloperName,
			Tier:        p.PricingTier,
			Price:       p.Price(),
			Categories:  p.Categories,
			Sales:       p.Sales,
			AppType:     p.AppType,
			Owned:       s.Role.SignedIn() && ledger.Owns(p.ID, s.Identity, s.Licenses),
		})
	}

	return &MarketplaceData{
		Page:       page(s, "Marketplace"),
		Query:      s.Query,
		Category:   category,
		Categories: service.Categories(s.Projects),
		Projects:   cards,
	}
}

// =============================================================================
// Product Detail
// =============================================================================

// PurchaseAction is the state of the buy button.
type PurchaseAction string

const (
	ActionBuy   PurchaseAction = "buy"
	ActionFree  PurchaseAction = "get-free"
	ActionLogin PurchaseAction = "login"
	ActionOwned PurchaseAction = "owned"
)

// Media is one entry of the product gallery.
type Media struct {
	Kind domain.MediaKind `json:"kind"`
	URL  string           `json:"url"`
}

// ProductDetailData is the product page view model. The project secret is
// never serialised.
type ProductDetailData struct {
	Page
	Project *domain.Project `json:"project"`
	Price   domain.Money    `json:"price"`
	Media   []Media         `json:"media"`
	Owned   bool            `json:"owned"`

	Action      PurchaseAction `json:"action"`
	ActionLabel string         `json:"action_label"`
	CanPurchase bool           `json:"can_purchase"`

	RefundWindowDays int `json:"refund_window_days"`
}

// ProductDetail renders the selected project.
func ProductDetail(s Snapshot) *ProductDetailData {
	p := s.Selected
	owned := s.Role.SignedIn() && ledger.Owns(p.ID, s.Identity, s.Licenses)

	// The video leads the gallery.
	media := make([]Media, 0, len(p.Images)+1)
	if p.VideoURL != "" {
		media = append(media, Media{Kind: domain.MediaVideo, URL: p.VideoURL})
	}
	for _, img := range p.Images {
		media = append(media, Media{Kind: domain.MediaImage, URL: img})
	}

	d := &ProductDetailData{
		Page:             page(s, p.Name),
		Project:          p,
		Price:            p.Price(),
		Media:            media,
		Owned:            owned,
		RefundWindowDays: domain.RefundWindowDays,
	}

	switch {
	case owned:
		d.Action, d.ActionLabel = ActionOwned, "Already Owned"
	case p.PricingTier == domain.TierFree:
		d.Action, d.ActionLabel = ActionFree, "Get for Free"
		d.CanPurchase = s.Role.SignedIn()
	case !s.Role.SignedIn():
		d.Action, d.ActionLabel = ActionLogin, "Log In to Buy"
		d.CanPurchase = true
	default:
		d.Action, d.ActionLabel = ActionBuy, "Buy Lifetime Access"
		d.CanPurchase = true
	}
	return d
}

// =============================================================================
// Checkout Success
// =============================================================================

// CheckoutSuccessData confirms a completed purchase.
type CheckoutSuccessData struct {
	Page
	Project *domain.Project `json:"project"`
	License *domain.License `json:"license,omitempty"`
}

// CheckoutSuccess renders the confirmation for the selected project. The
// license is included only when it was issued for that project.
func CheckoutSuccess(s Snapshot) *CheckoutSuccessData {
	d := &CheckoutSuccessData{
		Page:    page(s, "Purchase Complete"),
		Project: s.Selected,
	}
	if s.LastLicense != nil && s.LastLicense.ProjectID == s.Selected.ID {
		d.License = s.LastLicense
	}
	return d
}

// =============================================================================
// User Dashboard
// =============================================================================

// LibraryItem is an owned application in the buyer's library.
type LibraryItem struct {
	LicenseID    string         `json:"license_id"`
	Key          string         `json:"key"`
	ProjectID    string         `json:"project_id"`
	ProjectName  string         `json:"project_name"`
	Developer    string         `json:"developer"`
	Image        string         `json:"image,omitempty"`
	AppType      domain.AppType `json:"app_type"`
	PurchaseDate string         `json:"purchase_date"`
	LaunchLabel  string         `json:"launch_label"`
}

// BillingRow is a line of the buyer's billing history.
type BillingRow struct {
	LicenseID      string               `json:"license_id"`
	Date           string               `json:"date"`
	Item           string               `json:"item"`
	Amount         domain.Money         `json:"amount"`
	Status         domain.LicenseStatus `json:"status"`
	CanRefund      bool                 `json:"can_refund"`
	RefundDeadline string               `json:"refund_deadline"`
}

// UserDashboardData is the buyer library view model.
type UserDashboardData struct {
	Page
	Library            []LibraryItem `json:"library"`
	Billing            []BillingRow  `json:"billing"`
	CanBecomeDeveloper bool          `json:"can_become_developer"`
}

// UserDashboard renders the library and billing history of the session
// identity.
func UserDashboard(s Snapshot) *UserDashboardData {
	projects := projectIndex(s.Projects)

	d := &UserDashboardData{
		Page:               page(s, "My Library"),
		Library:            []LibraryItem{},
		Billing:            []BillingRow{},
		CanBecomeDeveloper: s.Role == domain.RoleBuyer,
	}
	if !s.Role.SignedIn() {
		return d
	}

	for _, l := range s.Licenses {
		if !l.BelongsTo(s.Identity) {
			continue
		}

		d.Billing = append(d.Billing, BillingRow{
			LicenseID:      l.ID,
			Date:           domain.FormatDate(l.PaymentDate),
			Item:           l.ProjectName,
			Amount:         l.Amount,
			Status:         l.Status,
			CanRefund:      ledger.RefundEligible(l, s.Identity, s.Licenses, s.Now),
			RefundDeadline: domain.FormatDate(l.RefundDeadline()),
		})

		p, ok := projects[l.ProjectID]
		if !l.IsActive() || !ok {
			continue
		}
		item := LibraryItem{
			LicenseID:    l.ID,
			Key:          l.Key,
			ProjectID:    p.ID,
			ProjectName:  p.Name,
			Developer:    p.DeveloperName,
			Image:        coverImage(p),
			AppType:      p.AppType,
			PurchaseDate: domain.FormatDate(l.PaymentDate),
			LaunchLabel:  "Launch App",
		}
		if p.AppType == domain.AppDesktop {
			item.LaunchLabel = "Download"
		}
		d.Library = append(d.Library, item)
	}
	return d
}

// =============================================================================
// Login and Build Service
// =============================================================================

// LoginData is the sign-in view model.
type LoginData struct {
	Page
	AdminEmail string `json:"admin_email"`
}

// Login renders the sign-in view.
func Login(s Snapshot) *LoginData {
	return &LoginData{
		Page:       page(s, "Sign In"),
		AdminEmail: s.AdminEmail,
	}
}

// ServiceMode is one engagement model of the build service.
type ServiceMode struct {
	Name     string   `json:"name"`
	Summary  string   `json:"summary"`
	Includes []string `json:"includes"`
}

// BuildServiceData is the build service view model.
type BuildServiceData struct {
	Page
	Modes []ServiceMode `json:"modes"`
}

// BuildService renders the static build service offer.
func BuildService(s Snapshot) *BuildServiceData {
	return &BuildServiceData{
		Page: page(s, "Build Service"),
		Modes: []ServiceMode{
			{
				Name:    "Backend Partner",
				Summary: "You build the frontend, we run servers, databases, AI integration and API scaling.",
				Includes: []string{
					"Scalable Server & Database Setup",
					"Secure API Endpoints",
					"AI Model Integration",
				},
			},
			{
				Name:    "Full Service Agency",
				Summary: "From the first UI draft to deployment and testing.",
				Includes: []string{
					"Day 1-3: UI Draft & Interactions",
					"Day 4-10: Development & Integration",
					"Day 11-17: Testing & Final Review",
				},
			},
		},
	}
}
