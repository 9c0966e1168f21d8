package app

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/devehub/internal/deferred"
	"github.com/prn-tf/devehub/internal/domain"
	"github.com/prn-tf/devehub/internal/lock"
	"github.com/prn-tf/devehub/internal/navigation"
	"github.com/prn-tf/devehub/internal/pkg/crypto"
	"github.com/prn-tf/devehub/internal/repository"
	"github.com/prn-tf/devehub/internal/repository/memory"
	"github.com/prn-tf/devehub/internal/repository/repotest"
	"github.com/prn-tf/devehub/internal/service"
	"github.com/prn-tf/devehub/internal/view"
)

const buyer = "demo@user.com"

var now = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

// testConfig runs every deferred intent inline.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.LoginDelay = 0
	cfg.PurchaseDelay = 0
	cfg.FeedbackDelay = 0
	return cfg
}

// newTestApp returns an app over p1 (standard), p2 (free desktop) and p3
// (premium by Other), plus an inactive user u1 and a recent user u2.
func newTestApp(t *testing.T, cfg Config) (*App, *repository.Store) {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	p1 := repotest.Project("p1", 1)
	p2 := repotest.Project("p2", 2)
	p2.PricingTier = domain.TierFree
	p2.AppType = domain.AppDesktop
	p3 := repotest.Project("p3", 3)
	p3.PricingTier = domain.TierPremium
	p3.DeveloperName = "Other"
	for _, p := range []*domain.Project{p1, p2, p3} {
		require.NoError(t, store.Projects.Create(ctx, p))
	}
	require.NoError(t, store.Users.Create(ctx, &domain.User{
		ID: "u1", Email: "gone@x.com", Role: domain.RoleBuyer, LastLogin: now.AddDate(-1, 0, 0),
	}))
	require.NoError(t, store.Users.Create(ctx, &domain.User{
		ID: "u2", Email: "here@x.com", Role: domain.RoleBuyer, LastLogin: now,
	}))

	hash, err := crypto.HashCode("123456")
	require.NoError(t, err)
	payoutCfg := service.DefaultPayoutConfig()
	payoutCfg.VerificationCodeHash = hash

	logger := zerolog.Nop()
	a := New(cfg, Deps{
		Store:    store,
		Licenses: service.NewLicenseService(store.Projects, store.Licenses, nil, logger),
		Projects: service.NewProjectService(store.Projects, store.Licenses, logger),
		Users:    service.NewUserService(store.Users, nil, logger),
		Payouts:  service.NewPayoutService(store.Projects, store.Licenses, lock.NewMemoryLocker(), nil, logger, payoutCfg),
		Logger:   logger,
		Clock:    func() time.Time { return now },
	})
	t.Cleanup(a.Close)
	return a, store
}

func wait(t *testing.T, p *Pending) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return p.Task.Wait(ctx)
}

func login(t *testing.T, a *App, credential string) {
	t.Helper()
	p, err := a.Login(credential)
	require.NoError(t, err)
	require.NoError(t, wait(t, p))
}

func TestApp_Initial(t *testing.T) {
	a, _ := newTestApp(t, testConfig())

	s := a.State()
	assert.Equal(t, domain.RoleNone, s.Session.Role)
	assert.Equal(t, navigation.ViewMarketplace, s.Location.View)
	assert.Equal(t, "", s.Location.Fragment)
	assert.Equal(t, []navigation.NavLink{navigation.LinkLogin}, s.NavLinks)
}

func TestApp_Login(t *testing.T) {
	tests := []struct {
		credential    string
		wantRole      domain.Role
		wantView      navigation.View
		wantDeveloper string
	}{
		{credential: "admin@devehub.com", wantRole: domain.RoleAdmin, wantView: navigation.ViewAdminDashboard},
		{credential: "Team@PixelLabs.io", wantRole: domain.RoleDeveloper, wantView: navigation.ViewDashboard, wantDeveloper: "PixelLabs"},
		{credential: "pixellabs-admin", wantRole: domain.RoleAdmin, wantView: navigation.ViewAdminDashboard},
		{credential: buyer, wantRole: domain.RoleBuyer, wantView: navigation.ViewUserDashboard},
	}

	for _, tt := range tests {
		t.Run(tt.credential, func(t *testing.T) {
			a, _ := newTestApp(t, testConfig())
			a.Navigate(navigation.ViewLogin)

			p, err := a.Login(tt.credential)
			require.NoError(t, err)
			require.NoError(t, wait(t, p))

			s := a.State()
			assert.Equal(t, tt.wantRole, s.Session.Role)
			assert.Equal(t, tt.credential, s.Session.Email)
			assert.Equal(t, tt.wantDeveloper, s.Session.DeveloperName)
			assert.Equal(t, tt.wantView, s.Location.View)
			assert.Equal(t, string(tt.wantView), s.Location.Fragment)

			rec, ok := a.Task(p.ID())
			require.True(t, ok)
			assert.Equal(t, TaskCompleted, rec.Status)
			assert.Equal(t, KindLogin, rec.Kind)
			assert.Equal(t, navigation.ViewLogin, rec.Owner)
		})
	}
}

func TestApp_LoginRejectsEmptyCredential(t *testing.T) {
	a, _ := newTestApp(t, testConfig())
	_, err := a.Login("   ")
	require.ErrorIs(t, err, domain.ErrInvalidCredential)
}

func TestApp_LoginCancelledByNavigation(t *testing.T) {
	cfg := testConfig()
	cfg.LoginDelay = time.Hour
	a, _ := newTestApp(t, cfg)
	a.Navigate(navigation.ViewLogin)

	p, err := a.Login(buyer)
	require.NoError(t, err)
	assert.Equal(t, 1, a.State().PendingTasks)

	a.Navigate(navigation.ViewMarketplace)
	require.ErrorIs(t, wait(t, p), deferred.ErrCancelled)

	s := a.State()
	assert.Equal(t, domain.RoleNone, s.Session.Role)
	assert.Equal(t, navigation.ViewMarketplace, s.Location.View)
	assert.Equal(t, TaskCancelled, p.Record().Status)
}

func TestApp_AdminEnterAndLogout(t *testing.T) {
	cfg := testConfig()
	cfg.FeedbackDelay = time.Hour
	a, _ := newTestApp(t, cfg)

	s := a.AdminEnter()
	assert.Equal(t, domain.RoleAdmin, s.Session.Role)
	assert.Equal(t, "admin@devehub.com", s.Session.Email)
	assert.Equal(t, navigation.ViewAdminDashboard, s.Location.View)

	p, err := a.Feedback(context.Background(), "p1", "hello")
	require.NoError(t, err)

	s = a.Logout()
	assert.Equal(t, Session{}, s.Session)
	assert.Equal(t, navigation.ViewMarketplace, s.Location.View)
	assert.Empty(t, s.SelectedProjectID)
	require.ErrorIs(t, wait(t, p), deferred.ErrCancelled)
}

func TestApp_Impersonate(t *testing.T) {
	a, _ := newTestApp(t, testConfig())

	_, err := a.Impersonate(domain.RoleBuyer)
	require.ErrorIs(t, err, domain.ErrLoginRequired)

	a.AdminEnter()
	_, err = a.Impersonate(domain.RoleNone)
	require.ErrorIs(t, err, domain.ErrInvalidRole)

	s, err := a.Impersonate(domain.RoleDeveloper)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleDeveloper, s.Session.Role)
	assert.Equal(t, "admin@devehub.com", s.Session.Email)
	assert.Equal(t, "PixelLabs", s.Session.DeveloperName)
	assert.Equal(t, navigation.ViewDashboard, s.Location.View)

	// One-way: the developer cannot switch back.
	_, err = a.Impersonate(domain.RoleAdmin)
	require.ErrorIs(t, err, domain.ErrForbidden)
}

func TestApp_BecomeDeveloper(t *testing.T) {
	a, _ := newTestApp(t, testConfig())

	_, err := a.BecomeDeveloper()
	require.ErrorIs(t, err, domain.ErrLoginRequired)

	login(t, a, buyer)
	s, err := a.BecomeDeveloper()
	require.NoError(t, err)
	assert.Equal(t, domain.RoleDeveloper, s.Session.Role)
	assert.Equal(t, buyer, s.Session.Email)
	assert.Equal(t, navigation.ViewDashboard, s.Location.View)
	assert.Equal(t, []navigation.NavLink{navigation.LinkDevDashboard, navigation.LinkMyLibrary}, s.NavLinks)

	_, err = a.BecomeDeveloper()
	require.ErrorIs(t, err, domain.ErrForbidden)

	a.Navigate(navigation.ViewMarketplace)
	assert.Equal(t, navigation.ViewDashboard, a.Home().View)
}

func TestApp_HandleFragment(t *testing.T) {
	tests := []struct {
		name     string
		guard    bool
		fragment string
		want     navigation.View
	}{
		{name: "empty", fragment: "", want: navigation.ViewMarketplace},
		{name: "unknown", fragment: "#nowhere", want: navigation.ViewMarketplace},
		{name: "needs selection", fragment: "#product-detail", want: navigation.ViewMarketplace},
		{name: "no guard", fragment: "#admin-dashboard", want: navigation.ViewAdminDashboard},
		{name: "guard", guard: true, fragment: "#admin-dashboard", want: navigation.ViewLogin},
		{name: "guard allows public", guard: true, fragment: "#build-service", want: navigation.ViewBuildService},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.RoleGuard = tt.guard
			a, _ := newTestApp(t, cfg)

			loc := a.HandleFragment(tt.fragment)
			assert.Equal(t, tt.want, loc.View)
			assert.Equal(t, tt.want.Fragment(), loc.Fragment)

			m, err := a.View(context.Background(), ViewInput{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.View)
		})
	}
}

func TestApp_SelectProject(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestApp(t, testConfig())

	loc, err := a.SelectProject(ctx, "p3")
	require.NoError(t, err)
	assert.Equal(t, navigation.ViewProductDetail, loc.View)

	m, err := a.View(ctx, ViewInput{})
	require.NoError(t, err)
	d, ok := m.Data.(*view.ProductDetailData)
	require.True(t, ok)
	assert.Equal(t, "p3", d.Project.ID)
	assert.Equal(t, view.ActionLogin, d.Action)

	loc, err = a.SelectProject(ctx, "missing")
	require.NoError(t, err)
	assert.Equal(t, navigation.ViewMarketplace, loc.View)
	assert.Equal(t, "p3", a.State().SelectedProjectID)
}
