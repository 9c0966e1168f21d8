package seed

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/devehub/internal/domain"
	"github.com/prn-tf/devehub/internal/repository/memory"
)

var now = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func TestDefaultCatalog(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)

	projects, err := c.DomainProjects()
	require.NoError(t, err)
	require.Len(t, projects, 8)

	photo := projects[0]
	assert.Equal(t, "PhotoFix AI", photo.Name)
	assert.Equal(t, domain.TierStandard, photo.PricingTier)
	assert.Equal(t, domain.Money(1227600), photo.Revenue)
	assert.Len(t, photo.Features, 3)
	assert.Equal(t, domain.MediaImage, photo.Features[0].MediaKind)
	assert.False(t, strings.HasSuffix(photo.Description, "\n"))

	assert.Equal(t, domain.TierFree, projects[1].PricingTier)
	assert.NotEmpty(t, projects[1].VideoURL)
	assert.Equal(t, domain.ProjectReview, projects[4].Status)

	users, err := c.DomainUsers(now)
	require.NoError(t, err)
	require.Len(t, users, 6)
	assert.Equal(t, now, users[0].LastLogin)
	assert.Equal(t, domain.RoleDeveloper, users[1].Role)

	deletable := 0
	for _, u := range users {
		if u.Deletable(now) {
			deletable++
			assert.Equal(t, "u5", u.ID)
		}
	}
	assert.Equal(t, 1, deletable)
}

func TestParseCatalog_Invalid(t *testing.T) {
	_, err := ParseCatalog([]byte("projects: ["))
	require.Error(t, err)

	c, err := ParseCatalog([]byte("projects:\n  - id: x\n    pricing_tier: gold\n"))
	require.NoError(t, err)
	_, err = c.DomainProjects()
	require.ErrorIs(t, err, domain.ErrInvalidPricingTier)

	c, err = ParseCatalog([]byte("users:\n  - id: x\n    role: wizard\n"))
	require.NoError(t, err)
	_, err = c.DomainUsers(now)
	require.ErrorIs(t, err, domain.ErrInvalidRole)
}

func TestGenerateLicenses(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)
	projects, err := c.DomainProjects()
	require.NoError(t, err)

	opts := DefaultOptions(now)
	opts.RandomSeed = 42

	licenses := GenerateLicenses(projects, opts)
	require.GreaterOrEqual(t, len(licenses), 8*opts.MinLicenses)
	require.LessOrEqual(t, len(licenses), 8*opts.MaxLicenses)

	keys := make(map[string]struct{})
	for i, l := range licenses {
		_, dup := keys[l.Key]
		assert.False(t, dup, "duplicate key %s", l.Key)
		keys[l.Key] = struct{}{}

		assert.Regexp(t, `^DH-\d{4}-[A-Z]{3}$`, l.Key)
		assert.True(t, strings.HasPrefix(l.ID, "lic_"))
		assert.False(t, l.PaymentDate.After(now))
		assert.Equal(t, l.PaymentDate.AddDate(0, 0, 60), l.ExpectedPayoutDate)

		if l.IsRefunded() {
			assert.Equal(t, domain.PayoutCancelled, l.PayoutStatus)
		} else if l.ExpectedPayoutDate.Before(now) {
			assert.Equal(t, domain.PayoutReady, l.PayoutStatus)
		} else {
			assert.Equal(t, domain.PayoutPending, l.PayoutStatus)
		}

		if i > 0 {
			assert.False(t, l.PaymentDate.After(licenses[i-1].PaymentDate), "not newest first at %d", i)
		}
	}

	again := GenerateLicenses(projects, opts)
	assert.Equal(t, licenses, again)
}

func TestGenerateLicenses_OneLicensePerBuyer(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)
	projects, err := c.DomainProjects()
	require.NoError(t, err)

	opts := DefaultOptions(now)
	opts.MinLicenses = 200
	opts.MaxLicenses = 200

	for _, seed := range []uint64{1, 2, 3} {
		opts.RandomSeed = seed
		issued := make(map[string]struct{})
		for _, l := range GenerateLicenses(projects, opts) {
			pair := l.ProjectID + "|" + l.CustomerEmail
			_, dup := issued[pair]
			assert.False(t, dup, "seed %d: %s bought twice", seed, pair)
			issued[pair] = struct{}{}
		}
		assert.Len(t, issued, 8*200)
	}
}

func TestLoad(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	c, err := DefaultCatalog()
	require.NoError(t, err)

	opts := DefaultOptions(now)
	opts.RandomSeed = 7

	res, err := Load(ctx, store, c, opts, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 8, res.Projects)
	assert.Equal(t, 6, res.Users)

	n, err := store.Licenses.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, res.Licenses, n)

	stored, err := store.Licenses.List(ctx)
	require.NoError(t, err)
	projects, err := c.DomainProjects()
	require.NoError(t, err)
	generated := GenerateLicenses(projects, opts)
	require.Len(t, stored, len(generated))
	for i := range generated {
		assert.Equal(t, generated[i].ID, stored[i].ID)
	}

	_, err = Load(ctx, store, c, opts, zerolog.Nop())
	require.Error(t, err)
}
