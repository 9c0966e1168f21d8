// Package seed loads the demo catalog into a record store.
//
// Projects and users come from an embedded YAML catalog. Licenses are
// generated: each project gets a handful of historic sales spread over the
// last few months, a small share of them refunded.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/prn-tf/devehub/internal/domain"
	"github.com/prn-tf/devehub/internal/ledger"
	"github.com/prn-tf/devehub/internal/repository"
)

//go:embed catalog.yaml
var catalogYAML []byte

// todayMarker in a last_login field resolves to the load time.
const todayMarker = "today"

const (
	dateLayout = "2006-01-02"
	idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// Options controls license generation.
type Options struct {
	// Now anchors generated payment dates and "today" logins.
	Now time.Time

	// RandomSeed makes generation reproducible. Zero picks a random seed.
	RandomSeed uint64

	// MinLicenses and MaxLicenses bound the licenses generated per project.
	MinLicenses int
	MaxLicenses int

	// HistoryDays is how far back payment dates may go.
	HistoryDays int

	// RefundRate is the probability a generated license is refunded.
	RefundRate float64
}

// DefaultOptions returns the generation settings of the demo.
func DefaultOptions(now time.Time) Options {
	return Options{
		Now:         now,
		MinLicenses: 5,
		MaxLicenses: 9,
		HistoryDays: 120,
		RefundRate:  0.05,
	}
}

// Catalog is the decoded seed file.
type Catalog struct {
	Projects []projectEntry `yaml:"projects"`
	Users    []userEntry    `yaml:"users"`
}

type projectEntry struct {
	ID          string                `yaml:"id"`
	Name        string                `yaml:"name"`
	Description string                `yaml:"description"`
	Images      []string              `yaml:"images"`
	VideoURL    string                `yaml:"video_url"`
	PricingTier string                `yaml:"pricing_tier"`
	Interval    string                `yaml:"interval"`
	Categories  []string              `yaml:"categories"`
	Developer   string                `yaml:"developer_name"`
	Secret      string                `yaml:"secret"`
	Sales       int64                 `yaml:"sales"`
	Revenue     float64               `yaml:"revenue"`
	Status      string                `yaml:"status"`
	Ranking     int                   `yaml:"ranking"`
	AppType     string                `yaml:"app_type"`
	AppURL      string                `yaml:"app_url"`
	Features    []domain.FeatureBlock `yaml:"features"`
}

type userEntry struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	Email        string `yaml:"email"`
	Role         string `yaml:"role"`
	Status       string `yaml:"status"`
	Joined       string `yaml:"joined"`
	LastLogin    string `yaml:"last_login"`
	HasPurchases bool   `yaml:"has_purchases"`
	HasUploads   bool   `yaml:"has_uploads"`
}

// Result summarises a load.
type Result struct {
	Projects int
	Licenses int
	Users    int
}

// ParseCatalog decodes a catalog document.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse seed catalog: %w", err)
	}
	return &c, nil
}

// DefaultCatalog returns the embedded demo catalog.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(catalogYAML)
}

// DomainProjects converts the catalog entries to domain projects.
func (c *Catalog) DomainProjects() ([]*domain.Project, error) {
	out := make([]*domain.Project, 0, len(c.Projects))
	for _, e := range c.Projects {
		p := &domain.Project{
			ID:            e.ID,
			Name:          e.Name,
			Description:   strings.TrimSpace(e.Description),
			Images:        e.Images,
			VideoURL:      e.VideoURL,
			PricingTier:   domain.PricingTier(e.PricingTier),
			Interval:      domain.PricingInterval(e.Interval),
			Categories:    e.Categories,
			DeveloperName: e.Developer,
			Secret:        e.Secret,
			Sales:         e.Sales,
			Revenue:       domain.MoneyFromDollars(e.Revenue),
			Status:        domain.ProjectStatus(e.Status),
			Ranking:       e.Ranking,
			AppType:       domain.AppType(e.AppType),
			AppURL:        e.AppURL,
			Features:      e.Features,
		}
		if err := domain.ValidateProjectFields(p); err != nil {
			return nil, domain.NewDomainError(err, "invalid seed project", e.ID)
		}
		if !p.Status.Valid() {
			return nil, domain.NewDomainError(domain.ErrInvalidProjectStatus, e.Status, e.ID)
		}
		out = append(out, p)
	}
	return out, nil
}

// DomainUsers converts the catalog entries to domain users, resolving
// "today" against now.
func (c *Catalog) DomainUsers(now time.Time) ([]*domain.User, error) {
	out := make([]*domain.User, 0, len(c.Users))
	for _, e := range c.Users {
		role, err := domain.ParseRole(e.Role)
		if err != nil {
			return nil, domain.NewDomainError(err, "invalid seed user", e.ID)
		}
		joined, err := parseDate(e.Joined, now)
		if err != nil {
			return nil, fmt.Errorf("user %s joined: %w", e.ID, err)
		}
		lastLogin, err := parseDate(e.LastLogin, now)
		if err != nil {
			return nil, fmt.Errorf("user %s last_login: %w", e.ID, err)
		}
		out = append(out, &domain.User{
			ID:           e.ID,
			Name:         e.Name,
			Email:        e.Email,
			Role:         role,
			Status:       domain.UserStatus(e.Status),
			Joined:       joined,
			LastLogin:    lastLogin,
			HasPurchases: e.HasPurchases,
			HasUploads:   e.HasUploads,
		})
	}
	return out, nil
}

func parseDate(s string, now time.Time) (time.Time, error) {
	if s == todayMarker {
		return now, nil
	}
	return time.ParseInLocation(dateLayout, s, now.Location())
}

const buyerPool = 1000

// GenerateLicenses creates historic licenses for projects. The result is
// ordered newest first.
func GenerateLicenses(projects []*domain.Project, opts Options) []*domain.License {
	seed := opts.RandomSeed
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	spread := opts.MaxLicenses - opts.MinLicenses + 1
	if spread < 1 {
		spread = 1
	}
	history := opts.HistoryDays
	if history < 1 {
		history = 1
	}

	keys := make(map[string]struct{})
	buyers := make(map[string]struct{})
	var out []*domain.License
	for _, p := range projects {
		count := opts.MinLicenses + rng.IntN(spread)
		for i := 0; i < count; i++ {
			paid := opts.Now.AddDate(0, 0, -rng.IntN(history))

			var key string
			for {
				key = domain.FormatLicenseKey(rng.IntN(10000), p.Name, false)
				if _, taken := keys[key]; !taken {
					break
				}
			}
			keys[key] = struct{}{}

			// One license per buyer and project.
			var email string
			for {
				email = fmt.Sprintf("user%d@example.com", rng.IntN(buyerPool))
				if _, taken := buyers[p.ID+"|"+email]; !taken {
					break
				}
			}
			buyers[p.ID+"|"+email] = struct{}{}

			l := domain.NewLicense("lic_"+randomID(rng, 9), key, p, email, paid)
			switch {
			case rng.Float64() < opts.RefundRate:
				l.MarkRefunded()
			case l.ExpectedPayoutDate.Before(opts.Now):
				l.PayoutStatus = domain.PayoutReady
			}
			out = append(out, l)
		}
	}

	ledger.SortNewestFirst(out)
	return out
}

func randomID(rng *rand.Rand, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = idAlphabet[rng.IntN(len(idAlphabet))]
	}
	return string(b)
}

// Load populates an empty store with the catalog and generated licenses.
func Load(ctx context.Context, store *repository.Store, catalog *Catalog, opts Options, logger zerolog.Logger) (*Result, error) {
	log := logger.With().Str("component", "seed").Logger()

	projects, err := catalog.DomainProjects()
	if err != nil {
		return nil, err
	}
	users, err := catalog.DomainUsers(opts.Now)
	if err != nil {
		return nil, err
	}

	for _, p := range projects {
		if err := store.Projects.Create(ctx, p); err != nil {
			return nil, fmt.Errorf("failed to seed project %s: %w", p.ID, err)
		}
	}
	for _, u := range users {
		if err := store.Users.Create(ctx, u); err != nil {
			return nil, fmt.Errorf("failed to seed user %s: %w", u.ID, err)
		}
	}

	licenses := GenerateLicenses(projects, opts)

	// Create prepends, so insert oldest first to keep newest-first order.
	for i := len(licenses) - 1; i >= 0; i-- {
		l := licenses[i]
		if err := store.Licenses.Create(ctx, l); err != nil {
			return nil, fmt.Errorf("failed to seed license %s: %w", l.ID, err)
		}
	}

	res := &Result{Projects: len(projects), Licenses: len(licenses), Users: len(users)}
	log.Info().
		Int("projects", res.Projects).
		Int("licenses", res.Licenses).
		Int("users", res.Users).
		Msg("Seed catalog loaded")
	return res, nil
}
