// Package app is the application root: the single-writer state container
// behind every view. All state changes go through intent methods, which
// serialise on one mutex.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/devehub/internal/cache/memory"
	"github.com/prn-tf/devehub/internal/deferred"
	"github.com/prn-tf/devehub/internal/domain"
	"github.com/prn-tf/devehub/internal/metrics"
	"github.com/prn-tf/devehub/internal/navigation"
	"github.com/prn-tf/devehub/internal/repository"
	"github.com/prn-tf/devehub/internal/service"
	"github.com/prn-tf/devehub/internal/view"
)

// Config contains application root configuration.
type Config struct {
	// Simulated latencies of the external calls.
	LoginDelay    time.Duration
	PurchaseDelay time.Duration
	FeedbackDelay time.Duration

	// RoleGuard redirects role-scoped views to login while signed out.
	RoleGuard bool

	// DeveloperName is the display name of the developer session.
	DeveloperName string

	// AdminEmail is the identity used by the admin quick entry.
	AdminEmail string

	// TaskRetention is how long finished task records stay queryable.
	TaskRetention time.Duration
}

// DefaultConfig returns the default simulated delays and demo identities.
func DefaultConfig() Config {
	return Config{
		LoginDelay:    800 * time.Millisecond,
		PurchaseDelay: 2 * time.Second,
		FeedbackDelay: 500 * time.Millisecond,
		DeveloperName: "PixelLabs",
		AdminEmail:    "admin@devehub.com",
		TaskRetention: 15 * time.Minute,
	}
}

// Deps contains the collaborators of the application root.
type Deps struct {
	Store    *repository.Store
	Licenses *service.LicenseService
	Projects *service.ProjectService
	Users    *service.UserService
	Payouts  *service.PayoutService
	Metrics  *metrics.Metrics
	Logger   zerolog.Logger

	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

// Session is the current actor. It is never persisted.
type Session struct {
	Role          domain.Role `json:"role"`
	Email         string      `json:"email,omitempty"`
	DeveloperName string      `json:"developer_name,omitempty"`
}

// App is the application root.
type App struct {
	cfg      Config
	store    *repository.Store
	licenses *service.LicenseService
	projects *service.ProjectService
	users    *service.UserService
	payouts  *service.PayoutService
	metrics  *metrics.Metrics
	logger   zerolog.Logger
	now      func() time.Time

	scheduler *deferred.Scheduler
	tasks     *memory.Cache[*taskEntry]

	mu          sync.Mutex
	session     Session
	router      *navigation.Router
	selectedID  string
	lastLicense *domain.License
}

// New creates the application root positioned at the marketplace with no
// role.
func New(cfg Config, deps Deps) *App {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger.With().Str("component", "app").Logger()

	return &App{
		cfg:       cfg,
		store:     deps.Store,
		licenses:  deps.Licenses,
		projects:  deps.Projects,
		users:     deps.Users,
		payouts:   deps.Payouts,
		metrics:   deps.Metrics,
		logger:    logger,
		now:       clock,
		scheduler: deferred.NewScheduler(deps.Logger),
		tasks: memory.NewCache[*taskEntry](memory.Config{
			TTL:             cfg.TaskRetention,
			CleanupInterval: time.Minute,
		}),
		router: navigation.NewRouter(navigation.RouterConfig{RoleGuard: cfg.RoleGuard}),
	}
}

// Close cancels every in-flight task and stops background work.
func (a *App) Close() {
	n := a.scheduler.CancelAll()
	a.tasks.Stop()
	a.logger.Info().Int("cancelled", n).Msg("Application root closed")
}

// State is the externally visible session and routing state.
type State struct {
	Session           Session              `json:"session"`
	Location          navigation.Location  `json:"location"`
	NavLinks          []navigation.NavLink `json:"nav_links"`
	SelectedProjectID string               `json:"selected_project_id,omitempty"`
	PendingTasks      int                  `json:"pending_tasks"`
}

// State returns the current session and routing state.
func (a *App) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stateLocked()
}

func (a *App) stateLocked() State {
	return State{
		Session:           a.session,
		Location:          a.router.Location(),
		NavLinks:          navigation.NavLinks(a.session.Role),
		SelectedProjectID: a.selectedID,
		PendingTasks:      a.scheduler.Pending(),
	}
}

// ViewInput carries the marketplace filter and the admin user search.
type ViewInput struct {
	Query     string
	Category  string
	UserQuery string
}

// View builds the model of the current view from a settled snapshot.
func (a *App) View(ctx context.Context, input ViewInput) (view.Model, error) {
	a.mu.Lock()
	snap, err := a.snapshotLocked(ctx)
	v := a.router.Current()
	a.mu.Unlock()
	if err != nil {
		return view.Model{}, err
	}

	snap.Query = input.Query
	snap.Category = input.Category
	snap.UserQuery = input.UserQuery
	return view.Build(snap, v), nil
}

func (a *App) snapshotLocked(ctx context.Context) (view.Snapshot, error) {
	projects, err := a.store.Projects.List(ctx)
	if err != nil {
		return view.Snapshot{}, a.internal(err, "failed to list projects")
	}
	licenses, err := a.store.Licenses.List(ctx)
	if err != nil {
		return view.Snapshot{}, a.internal(err, "failed to list licenses")
	}
	users, err := a.store.Users.List(ctx)
	if err != nil {
		return view.Snapshot{}, a.internal(err, "failed to list users")
	}

	snap := view.Snapshot{
		Now:           a.now(),
		Role:          a.session.Role,
		Identity:      a.session.Email,
		DeveloperName: a.session.DeveloperName,
		AdminEmail:    a.cfg.AdminEmail,
		Projects:      projects,
		Licenses:      licenses,
		Users:         users,
		LastLicense:   a.lastLicense,
	}
	for _, p := range projects {
		if p.ID == a.selectedID {
			snap.Selected = p
			break
		}
	}
	if a.session.DeveloperName != "" {
		if method, ok := a.payouts.PayoutMethod(a.session.DeveloperName); ok {
			snap.PayoutMethod = &method
		}
	}
	return snap, nil
}

func (a *App) internal(err error, msg string) error {
	a.logger.Error().Err(err).Msg(msg)
	return fmt.Errorf("%w: %v", service.ErrInternalError, err)
}

// =============================================================================
// Navigation
// =============================================================================

// HandleFragment applies a browser hash change, including the initial load.
func (a *App) HandleFragment(fragment string) navigation.Location {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.navigateLocked(navigation.ParseFragment(fragment))
}

// Navigate moves to v.
func (a *App) Navigate(v navigation.View) navigation.Location {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.navigateLocked(v)
}

// navigateLocked moves the router and cancels tasks owned by any other view.
func (a *App) navigateLocked(v navigation.View) navigation.Location {
	before := a.router.Current()
	loc := a.router.Navigate(v, a.session.Role, a.selectedID != "")
	if loc.View != before {
		if n := a.scheduler.CancelExcept(string(loc.View)); n > 0 {
			a.logger.Debug().
				Str("from", string(before)).
				Str("to", string(loc.View)).
				Int("cancelled", n).
				Msg("Navigation cancelled pending tasks")
		}
	}
	return loc
}

// requireRole checks the session role against the allowed set.
func (a *App) requireRole(allowed ...domain.Role) error {
	if !a.session.Role.SignedIn() {
		return domain.ErrLoginRequired
	}
	for _, r := range allowed {
		if a.session.Role == r {
			return nil
		}
	}
	return domain.NewDomainError(domain.ErrForbidden, "not permitted for role "+a.session.Role.String(), "")
}
