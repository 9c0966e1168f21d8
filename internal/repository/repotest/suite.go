// Package repotest holds a behavioural suite every record store backend
// must pass.
package repotest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/devehub/internal/domain"
	"github.com/prn-tf/devehub/internal/repository"
)

// Factory creates an empty store for one subtest.
type Factory func(t *testing.T) *repository.Store

var base = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

// Project returns a valid active project.
func Project(id string, ranking int) *domain.Project {
	return &domain.Project{
		ID:            id,
		Name:          "Project " + id,
		Description:   "Description " + id,
		Images:        []string{"https://img/" + id + ".png"},
		PricingTier:   domain.TierStandard,
		Interval:      domain.IntervalLifetime,
		Categories:    []string{"Productivity"},
		DeveloperName: "PixelLabs",
		Secret:        "sk_live_dh_test_" + id,
		Status:        domain.ProjectActive,
		Ranking:       ranking,
		AppType:       domain.AppWeb,
		AppURL:        "https://app/" + id,
		Features: []domain.FeatureBlock{
			{Title: "Fast", Description: "Very", MediaURL: "https://img/f.png", MediaKind: domain.MediaImage},
		},
	}
}

// License returns an active, pending license bought at paid.
func License(id, key, projectID, email string, paid time.Time) *domain.License {
	return &domain.License{
		ID:                 id,
		Key:                key,
		ProjectID:          projectID,
		ProjectName:        "Project " + projectID,
		Amount:             990,
		CustomerEmail:      email,
		Status:             domain.LicenseActive,
		PayoutStatus:       domain.PayoutPending,
		PaymentDate:        paid,
		ExpectedPayoutDate: domain.PayoutDateFor(paid),
	}
}

// Run executes the suite against the backend produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("ProjectCRUD", func(t *testing.T) { testProjectCRUD(t, newStore(t)) })
	t.Run("ProjectUpdatePreservesCounters", func(t *testing.T) { testProjectUpdate(t, newStore(t)) })
	t.Run("ProjectRankings", func(t *testing.T) { testProjectRankings(t, newStore(t)) })
	t.Run("LicenseOrdering", func(t *testing.T) { testLicenseOrdering(t, newStore(t)) })
	t.Run("LicenseRefund", func(t *testing.T) { testLicenseRefund(t, newStore(t)) })
	t.Run("LicensePayoutStatus", func(t *testing.T) { testLicensePayout(t, newStore(t)) })
	t.Run("Users", func(t *testing.T) { testUsers(t, newStore(t)) })
}

func testProjectCRUD(t *testing.T, s *repository.Store) {
	ctx := context.Background()

	require.NoError(t, s.Projects.Create(ctx, Project("p1", 1)))
	require.ErrorIs(t, s.Projects.Create(ctx, Project("p1", 2)), repository.ErrDuplicateKey)

	got, err := s.Projects.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, Project("p1", 1), got)

	_, err = s.Projects.GetByID(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrProjectNotFound)

	require.NoError(t, s.Projects.RecordSale(ctx, "p1", 990))
	require.NoError(t, s.Projects.RecordSale(ctx, "p1", 990))
	got, err = s.Projects.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Sales)
	assert.Equal(t, domain.Money(1980), got.Revenue)

	require.NoError(t, s.Projects.SetStatus(ctx, "p1", domain.ProjectRejected))
	got, err = s.Projects.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, domain.ProjectRejected, got.Status)

	require.ErrorIs(t, s.Projects.SetStatus(ctx, "missing", domain.ProjectActive), domain.ErrProjectNotFound)

	n, err := s.Projects.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func testProjectUpdate(t *testing.T, s *repository.Store) {
	ctx := context.Background()

	p := Project("p1", 3)
	p.Sales = 12
	p.Revenue = 11880
	require.NoError(t, s.Projects.Create(ctx, p))

	edit := Project("p1", 99)
	edit.Name = "Renamed"
	edit.Sales = 0
	edit.Revenue = 0
	edit.Status = domain.ProjectDraft
	edit.Secret = ""
	require.NoError(t, s.Projects.Update(ctx, edit))

	got, err := s.Projects.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, int64(12), got.Sales)
	assert.Equal(t, domain.Money(11880), got.Revenue)
	assert.Equal(t, 3, got.Ranking)
	assert.Equal(t, domain.ProjectActive, got.Status)
	assert.Equal(t, "sk_live_dh_test_p1", got.Secret)

	require.ErrorIs(t, s.Projects.Update(ctx, Project("missing", 1)), domain.ErrProjectNotFound)
}

func testProjectRankings(t *testing.T, s *repository.Store) {
	ctx := context.Background()

	require.NoError(t, s.Projects.Create(ctx, Project("a", 2)))
	require.NoError(t, s.Projects.Create(ctx, Project("b", 1)))
	other := Project("c", 3)
	other.DeveloperName = "Other"
	require.NoError(t, s.Projects.Create(ctx, other))

	list, err := s.Projects.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c"}, ids(list))

	require.NoError(t, s.Projects.SetRankings(ctx, map[string]int{"a": 1, "b": 2, "c": 3}))
	list, err = s.Projects.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids(list))

	err = s.Projects.SetRankings(ctx, map[string]int{"missing": 1})
	require.ErrorIs(t, err, domain.ErrProjectNotFound)

	mine, err := s.Projects.ListByDeveloper(ctx, "PixelLabs")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(mine))
}

func testLicenseOrdering(t *testing.T, s *repository.Store) {
	ctx := context.Background()
	require.NoError(t, s.Projects.Create(ctx, Project("p1", 1)))
	require.NoError(t, s.Projects.Create(ctx, Project("p2", 2)))

	require.NoError(t, s.Licenses.Create(ctx, License("l1", "DH-0001-PRO", "p1", "a@x.com", base)))
	require.NoError(t, s.Licenses.Create(ctx, License("l2", "DH-0002-PRO", "p2", "b@x.com", base)))
	require.NoError(t, s.Licenses.Create(ctx, License("l3", "DH-0003-PRO", "p1", "A@X.com", base)))

	err := s.Licenses.Create(ctx, License("l4", "DH-0001-PRO", "p1", "a@x.com", base))
	require.ErrorIs(t, err, repository.ErrDuplicateKey)

	all, err := s.Licenses.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"l3", "l2", "l1"}, licenseIDs(all))

	mine, err := s.Licenses.ListByCustomer(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"l3", "l1"}, licenseIDs(mine))

	byProject, err := s.Licenses.ListByProjects(ctx, []string{"p2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"l2"}, licenseIDs(byProject))

	none, err := s.Licenses.ListByProjects(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)

	exists, err := s.Licenses.ExistsByKey(ctx, "DH-0002-PRO")
	require.NoError(t, err)
	assert.True(t, exists)

	got, err := s.Licenses.GetByID(ctx, "l1")
	require.NoError(t, err)
	assert.True(t, base.Equal(got.PaymentDate))
	assert.True(t, base.AddDate(0, 0, 60).Equal(got.ExpectedPayoutDate))

	n, err := s.Licenses.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func testLicenseRefund(t *testing.T, s *repository.Store) {
	ctx := context.Background()
	require.NoError(t, s.Projects.Create(ctx, Project("p1", 1)))
	require.NoError(t, s.Licenses.Create(ctx, License("l1", "DH-0001-PRO", "p1", "a@x.com", base)))

	refunded, err := s.Licenses.MarkRefunded(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, domain.LicenseRefunded, refunded.Status)
	assert.Equal(t, domain.PayoutCancelled, refunded.PayoutStatus)

	_, err = s.Licenses.MarkRefunded(ctx, "l1")
	require.ErrorIs(t, err, domain.ErrAlreadyRefunded)

	_, err = s.Licenses.MarkRefunded(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrLicenseNotFound)

	got, err := s.Licenses.GetByID(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, domain.PayoutCancelled, got.PayoutStatus)
}

func testLicensePayout(t *testing.T, s *repository.Store) {
	ctx := context.Background()
	require.NoError(t, s.Projects.Create(ctx, Project("p1", 1)))
	require.NoError(t, s.Licenses.Create(ctx, License("l1", "DH-0001-PRO", "p1", "a@x.com", base)))
	require.NoError(t, s.Licenses.Create(ctx, License("l2", "DH-0002-PRO", "p1", "a@x.com", base)))

	require.NoError(t, s.Licenses.UpdatePayoutStatus(ctx, "l1", domain.PayoutPending, domain.PayoutReady))
	require.ErrorIs(t, s.Licenses.UpdatePayoutStatus(ctx, "l1", domain.PayoutPending, domain.PayoutReady), repository.ErrStaleState)

	_, err := s.Licenses.MarkRefunded(ctx, "l2")
	require.NoError(t, err)
	require.ErrorIs(t, s.Licenses.UpdatePayoutStatus(ctx, "l2", domain.PayoutCancelled, domain.PayoutPaid), repository.ErrStaleState)
	require.ErrorIs(t, s.Licenses.UpdatePayoutStatus(ctx, "missing", domain.PayoutPending, domain.PayoutReady), domain.ErrLicenseNotFound)

	got, err := s.Licenses.GetByID(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, domain.PayoutReady, got.PayoutStatus)
}

func testUsers(t *testing.T, s *repository.Store) {
	ctx := context.Background()

	alice := &domain.User{
		ID: "u1", Name: "Alice", Email: "alice@x.com", Role: domain.RoleBuyer,
		Status: domain.UserActive, Joined: base.AddDate(-1, 0, 0), LastLogin: base, HasPurchases: true,
	}
	bob := &domain.User{
		ID: "u2", Name: "Bob", Email: "bob@x.com", Role: domain.RoleDeveloper,
		Status: domain.UserInactive, Joined: base.AddDate(-2, 0, 0), LastLogin: base.AddDate(-1, 0, 0),
	}
	require.NoError(t, s.Users.Create(ctx, alice))
	require.NoError(t, s.Users.Create(ctx, bob))
	require.ErrorIs(t, s.Users.Create(ctx, alice), repository.ErrDuplicateKey)

	got, err := s.Users.GetByEmail(ctx, "ALICE@x.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)
	assert.Equal(t, domain.RoleBuyer, got.Role)
	assert.True(t, got.HasPurchases)
	assert.True(t, base.Equal(got.LastLogin))

	list, err := s.Users.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "u1", list[0].ID)

	require.NoError(t, s.Users.Delete(ctx, "u2"))
	require.ErrorIs(t, s.Users.Delete(ctx, "u2"), domain.ErrUserNotFound)

	_, err = s.Users.GetByID(ctx, "u2")
	require.ErrorIs(t, err, domain.ErrUserNotFound)

	n, err := s.Users.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func ids(projects []*domain.Project) []string {
	out := make([]string, len(projects))
	for i, p := range projects {
		out[i] = p.ID
	}
	return out
}

func licenseIDs(licenses []*domain.License) []string {
	out := make([]string, len(licenses))
	for i, l := range licenses {
		out[i] = l.ID
	}
	return out
}
