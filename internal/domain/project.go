// Package domain contains the core business entities for DeveHub.
// These are pure Go structs with no external dependencies, representing
// the fundamental concepts of the marketplace.
package domain

import "strings"

// PricingTier is the price class of a project.
type PricingTier string

const (
	// TierFree projects cost nothing but still issue a license.
	TierFree PricingTier = "free"

	// TierStandard projects cost $9.90.
	TierStandard PricingTier = "standard_9_9"

	// TierPremium projects cost $19.90.
	TierPremium PricingTier = "premium_19_9"
)

// Price returns the fixed price of the tier.
func (t PricingTier) Price() Money {
	switch t {
	case TierStandard:
		return 990
	case TierPremium:
		return 1990
	default:
		return 0
	}
}

// Valid reports whether t is a known tier.
func (t PricingTier) Valid() bool {
	switch t {
	case TierFree, TierStandard, TierPremium:
		return true
	}
	return false
}

// PricingInterval is the billing interval of a project.
type PricingInterval string

const (
	IntervalLifetime PricingInterval = "lifetime"
	IntervalYear     PricingInterval = "year"
)

// Valid reports whether i is a known interval.
func (i PricingInterval) Valid() bool {
	return i == IntervalLifetime || i == IntervalYear
}

// ProjectStatus is the lifecycle status of a project.
type ProjectStatus string

const (
	ProjectDraft    ProjectStatus = "draft"
	ProjectReview   ProjectStatus = "review"
	ProjectActive   ProjectStatus = "active"
	ProjectRejected ProjectStatus = "rejected"
)

// Valid reports whether s is a known status.
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectDraft, ProjectReview, ProjectActive, ProjectRejected:
		return true
	}
	return false
}

// AppType is how the product is delivered.
type AppType string

const (
	AppWeb     AppType = "web"
	AppDesktop AppType = "desktop"
	AppMobile  AppType = "mobile"
)

// Valid reports whether a is a known app type.
func (a AppType) Valid() bool {
	switch a {
	case AppWeb, AppDesktop, AppMobile:
		return true
	}
	return false
}

// MediaKind is the media type of a feature block.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// Project limits enforced by the creation and settings workflows.
const (
	MaxCategories = 3
	MaxImages     = 10

	// DefaultProjectName is used when a developer leaves the name empty.
	DefaultProjectName = "Untitled Project"
)

// FeatureBlock is a rich feature section on the product page.
type FeatureBlock struct {
	Title       string    `json:"title" yaml:"title"`
	Description string    `json:"description" yaml:"description"`
	MediaURL    string    `json:"media_url" yaml:"media_url"`
	MediaKind   MediaKind `json:"media_kind,omitempty" yaml:"media_kind"`
}

// Project is a listed product.
type Project struct {
	// ID is the unique identifier for the project.
	ID string `json:"id"`

	Name        string   `json:"name"`
	Description string   `json:"description"`
	Images      []string `json:"images"`
	VideoURL    string   `json:"video_url,omitempty"`

	PricingTier PricingTier     `json:"pricing_tier"`
	Interval    PricingInterval `json:"interval"`
	Categories  []string        `json:"categories"`

	// DeveloperName is the display name of the listing developer.
	DeveloperName string `json:"developer_name"`

	// Secret is the integration token handed to the developer at creation.
	// Never rendered to buyers.
	Secret string `json:"-"`

	// Sales and Revenue are cumulative counters. Only license issuance
	// changes them; settings edits must leave them untouched.
	Sales   int64 `json:"sales"`
	Revenue Money `json:"revenue"`

	Status ProjectStatus `json:"status"`

	// Ranking orders the marketplace; 1 is the top slot.
	Ranking int `json:"ranking"`

	ConsultationRequested bool           `json:"consultation_requested,omitempty"`
	AppType               AppType        `json:"app_type"`
	AppURL                string         `json:"app_url"`
	Features              []FeatureBlock `json:"features"`
}

// Price returns the current price of the project.
func (p *Project) Price() Money {
	return p.PricingTier.Price()
}

// IsListed reports whether the project is shown in the marketplace.
func (p *Project) IsListed() bool {
	return p.Status == ProjectActive
}

// HasCategory reports whether the project carries the category tag.
func (p *Project) HasCategory(category string) bool {
	for _, c := range p.Categories {
		if c == category {
			return true
		}
	}
	return false
}

// Matches reports whether the lower-cased search term occurs in the
// project's name or description. An empty term matches everything.
func (p *Project) Matches(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Name), term) ||
		strings.Contains(strings.ToLower(p.Description), term)
}

// Clone returns a deep copy so callers cannot mutate store-owned slices.
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	c := *p
	c.Images = append([]string(nil), p.Images...)
	c.Categories = append([]string(nil), p.Categories...)
	c.Features = append([]FeatureBlock(nil), p.Features...)
	return &c
}

// ValidateProjectFields checks the fields a developer may edit.
func ValidateProjectFields(p *Project) error {
	if !p.PricingTier.Valid() {
		return ErrInvalidPricingTier
	}
	if !p.Interval.Valid() {
		return ErrInvalidInterval
	}
	if !p.AppType.Valid() {
		return ErrInvalidAppType
	}
	if len(p.Categories) > MaxCategories {
		return ErrTooManyCategories
	}
	if len(p.Images) > MaxImages {
		return ErrTooManyImages
	}
	return nil
}
