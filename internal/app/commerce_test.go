package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/devehub/internal/deferred"
	"github.com/prn-tf/devehub/internal/domain"
	"github.com/prn-tf/devehub/internal/navigation"
	"github.com/prn-tf/devehub/internal/service"
	"github.com/prn-tf/devehub/internal/view"
)

func TestApp_PurchaseRequiresLogin(t *testing.T) {
	a, store := newTestApp(t, testConfig())

	_, err := a.Purchase(context.Background(), "p1")
	require.ErrorIs(t, err, domain.ErrLoginRequired)
	assert.Equal(t, navigation.ViewLogin, a.State().Location.View)

	n, err := store.Licenses.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestApp_PurchaseUnknownProject(t *testing.T) {
	a, _ := newTestApp(t, testConfig())
	login(t, a, buyer)

	_, err := a.Purchase(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrProjectNotFound)
	assert.Equal(t, navigation.ViewMarketplace, a.State().Location.View)
}

func TestApp_UnlistedProjects(t *testing.T) {
	ctx := context.Background()
	a, store := newTestApp(t, testConfig())

	require.NoError(t, store.Projects.SetStatus(ctx, "p1", domain.ProjectDraft))
	require.NoError(t, store.Projects.SetStatus(ctx, "p3", domain.ProjectRejected))

	login(t, a, buyer)

	loc, err := a.SelectProject(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, navigation.ViewMarketplace, loc.View)
	assert.Empty(t, a.State().SelectedProjectID)

	for _, id := range []string{"p1", "p3"} {
		_, err = a.Purchase(ctx, id)
		require.ErrorIs(t, err, domain.ErrProjectNotFound, id)
		_, err = a.Feedback(ctx, id, "hello")
		require.ErrorIs(t, err, domain.ErrProjectNotFound, id)
	}
	n, err := store.Licenses.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	// The owning developer still reaches its own draft.
	a.Logout()
	login(t, a, "team@pixellabs.io")
	loc, err = a.SelectProject(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, navigation.ViewProductDetail, loc.View)

	loc, err = a.SelectProject(ctx, "p3")
	require.NoError(t, err)
	assert.Equal(t, navigation.ViewMarketplace, loc.View)
	assert.Equal(t, "p1", a.State().SelectedProjectID)
}

func TestApp_Purchase(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.PurchaseDelay = 10 * time.Millisecond
	a, store := newTestApp(t, cfg)
	login(t, a, buyer)

	_, err := a.SelectProject(ctx, "p1")
	require.NoError(t, err)

	p, err := a.Purchase(ctx, "p1")
	require.NoError(t, err)
	require.NoError(t, wait(t, p))

	s := a.State()
	assert.Equal(t, navigation.ViewCheckoutSuccess, s.Location.View)
	assert.Equal(t, "p1", s.SelectedProjectID)

	rec := p.Record()
	assert.Equal(t, TaskCompleted, rec.Status)
	issued, ok := rec.Result.(*domain.License)
	require.True(t, ok)
	assert.Equal(t, buyer, issued.CustomerEmail)
	assert.Equal(t, domain.Money(990), issued.Amount)

	m, err := a.View(ctx, ViewInput{})
	require.NoError(t, err)
	d, ok := m.Data.(*view.CheckoutSuccessData)
	require.True(t, ok)
	require.NotNil(t, d.License)
	assert.Equal(t, issued.ID, d.License.ID)

	project, err := store.Projects.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), project.Sales)

	_, err = a.Purchase(ctx, "p1")
	require.ErrorIs(t, err, domain.ErrAlreadyOwned)
}

func TestApp_PurchaseFreeTierIsImmediate(t *testing.T) {
	cfg := testConfig()
	cfg.PurchaseDelay = time.Hour
	a, _ := newTestApp(t, cfg)
	login(t, a, buyer)

	p, err := a.Purchase(context.Background(), "p2")
	require.NoError(t, err)

	select {
	case <-p.Task.Done():
	default:
		t.Fatal("free purchase did not complete inline")
	}
	require.NoError(t, p.Task.Err())
	assert.Equal(t, navigation.ViewCheckoutSuccess, a.State().Location.View)
}

func TestApp_PurchaseCancelledByNavigation(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.PurchaseDelay = time.Hour
	a, store := newTestApp(t, cfg)
	login(t, a, buyer)

	_, err := a.SelectProject(ctx, "p1")
	require.NoError(t, err)
	p, err := a.Purchase(ctx, "p1")
	require.NoError(t, err)

	a.Navigate(navigation.ViewMarketplace)
	require.ErrorIs(t, wait(t, p), deferred.ErrCancelled)

	assert.Equal(t, navigation.ViewMarketplace, a.State().Location.View)
	n, err := store.Licenses.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	project, err := store.Projects.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Zero(t, project.Sales)
}

func TestApp_RefundLaunchReceipt(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestApp(t, testConfig())

	_, err := a.Refund(ctx, "any")
	require.ErrorIs(t, err, domain.ErrLoginRequired)
	_, err = a.Launch(ctx, "p2")
	require.ErrorIs(t, err, domain.ErrLoginRequired)
	_, err = a.Receipt(ctx, "any")
	require.ErrorIs(t, err, domain.ErrLoginRequired)

	login(t, a, buyer)
	p, err := a.Purchase(ctx, "p2")
	require.NoError(t, err)
	require.NoError(t, wait(t, p))
	license := p.Record().Result.(*domain.License)

	out, err := a.Launch(ctx, "p2")
	require.NoError(t, err)
	assert.True(t, out.ConfirmDownload)

	receipt, err := a.Receipt(ctx, license.ID)
	require.NoError(t, err)
	assert.Equal(t, buyer, receipt.BillTo)
	assert.Equal(t, "October 15, 2026", receipt.Date)

	refunded, err := a.Refund(ctx, license.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LicenseRefunded, refunded.Status)
	assert.Equal(t, domain.PayoutCancelled, refunded.PayoutStatus)

	_, err = a.Launch(ctx, "p2")
	require.ErrorIs(t, err, service.ErrNotOwned)
}

func TestApp_Feedback(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.FeedbackDelay = 10 * time.Millisecond
	a, _ := newTestApp(t, cfg)
	login(t, a, buyer)

	_, err := a.Feedback(ctx, "p3", " ")
	require.ErrorIs(t, err, service.ErrEmptyFeedback)
	_, err = a.Feedback(ctx, "missing", "hi")
	require.ErrorIs(t, err, domain.ErrProjectNotFound)

	p, err := a.Feedback(ctx, "p3", "Great app")
	require.NoError(t, err)
	require.NoError(t, wait(t, p))

	out, ok := p.Record().Result.(*service.FeedbackOutput)
	require.True(t, ok)
	assert.Equal(t, "Feedback sent to Other", out.Message)
}

func TestApp_AdminIntents(t *testing.T) {
	ctx := context.Background()
	a, store := newTestApp(t, testConfig())
	login(t, a, buyer)

	p, err := a.Purchase(ctx, "p1")
	require.NoError(t, err)
	require.NoError(t, wait(t, p))
	license := p.Record().Result.(*domain.License)

	_, err = a.ForceRefund(ctx, license.ID)
	require.ErrorIs(t, err, domain.ErrForbidden)
	require.ErrorIs(t, a.DeleteUser(ctx, "u1", true), domain.ErrForbidden)
	_, err = a.MoveRank(ctx, "p3", service.DirectionUp)
	require.ErrorIs(t, err, domain.ErrForbidden)
	_, err = a.SetProjectStatus(ctx, "p3", domain.ProjectReview)
	require.ErrorIs(t, err, domain.ErrForbidden)

	a.Logout()
	a.AdminEnter()

	refunded, err := a.ForceRefund(ctx, license.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LicenseRefunded, refunded.Status)

	require.ErrorIs(t, a.DeleteUser(ctx, "u1", false), domain.ErrConfirmationRequired)
	require.ErrorIs(t, a.DeleteUser(ctx, "u2", true), domain.ErrUserNotDeletable)
	require.NoError(t, a.DeleteUser(ctx, "u1", true))
	n, err := store.Users.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	order, err := a.MoveRank(ctx, "p3", service.DirectionUp)
	require.NoError(t, err)
	assert.Equal(t, "p3", order[1].ID)

	project, err := a.SetProjectStatus(ctx, "p3", domain.ProjectReview)
	require.NoError(t, err)
	assert.Equal(t, domain.ProjectReview, project.Status)

	m, err := a.View(ctx, ViewInput{})
	require.NoError(t, err)
	d, ok := m.Data.(*view.AdminDashboardData)
	require.True(t, ok)
	assert.Equal(t, 0, d.DeletableCount)
	assert.Equal(t, domain.Money(990), d.Financials.RefundedAmount)
}

func TestApp_DeveloperIntents(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestApp(t, testConfig())

	_, err := a.CreateProject(ctx, CreateProjectInput{Fields: service.ProjectFields{PricingTier: domain.TierFree}})
	require.ErrorIs(t, err, domain.ErrLoginRequired)

	login(t, a, "team@pixellabs.io")

	created, err := a.CreateProject(ctx, CreateProjectInput{
		Fields: service.ProjectFields{Name: "Shipper", PricingTier: domain.TierStandard},
		Draft:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, "PixelLabs", created.DeveloperName)
	assert.Equal(t, domain.ProjectDraft, created.Status)
	assert.Equal(t, 4, created.Ranking)

	updated, err := a.UpdateProject(ctx, created.ID, service.ProjectFields{Name: "Shipper Pro", PricingTier: domain.TierPremium})
	require.NoError(t, err)
	assert.Equal(t, "Shipper Pro", updated.Name)

	_, err = a.UpdateProject(ctx, "p3", service.ProjectFields{PricingTier: domain.TierFree})
	require.ErrorIs(t, err, domain.ErrForbidden)

	method, err := a.UpdatePayoutMethod(ctx, PayoutMethodInput{Kind: domain.PayoutPayPal, Email: "pay@pixellabs.io", Code: "123456"})
	require.NoError(t, err)
	assert.Equal(t, domain.PayoutPayPal, method.Kind)

	m, err := a.View(ctx, ViewInput{})
	require.NoError(t, err)
	d, ok := m.Data.(*view.DashboardData)
	require.True(t, ok)
	assert.Len(t, d.Projects, 3)
	require.NotNil(t, d.PayoutMethod)
	assert.Equal(t, "pay@pixellabs.io", d.PayoutMethod.Email)
}

func TestApp_RunPayoutCycle(t *testing.T) {
	ctx := context.Background()
	a, store := newTestApp(t, testConfig())
	login(t, a, buyer)

	p, err := a.Purchase(ctx, "p1")
	require.NoError(t, err)
	require.NoError(t, wait(t, p))

	result, err := a.RunPayoutCycle(ctx)
	require.NoError(t, err)
	assert.Zero(t, result.Released)
	assert.False(t, result.PayoutDay)

	licenses, err := store.Licenses.List(ctx)
	require.NoError(t, err)
	require.Len(t, licenses, 1)
	assert.Equal(t, domain.PayoutPending, licenses[0].PayoutStatus)
}
