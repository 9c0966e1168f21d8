package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/devehub/internal/domain"
	"github.com/prn-tf/devehub/internal/repository"
	"github.com/prn-tf/devehub/internal/repository/memory"
	"github.com/prn-tf/devehub/internal/repository/repotest"
)

const buyer = "demo@user.com"

var now = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

// newStore returns a store with three projects:
// p1 standard by PixelLabs, p2 free desktop by PixelLabs, p3 premium by Other.
func newStore(t *testing.T) *repository.Store {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	p1 := repotest.Project("p1", 1)
	p2 := repotest.Project("p2", 2)
	p2.PricingTier = domain.TierFree
	p2.AppType = domain.AppDesktop
	p2.Categories = []string{"DevTools"}
	p3 := repotest.Project("p3", 3)
	p3.PricingTier = domain.TierPremium
	p3.DeveloperName = "Other"
	p3.Categories = []string{"AI", "Design"}

	for _, p := range []*domain.Project{p1, p2, p3} {
		require.NoError(t, store.Projects.Create(ctx, p))
	}
	return store
}

// addLicense stores a license bought at paid.
func addLicense(t *testing.T, store *repository.Store, id, projectID, email string, paid time.Time) *domain.License {
	t.Helper()
	l := repotest.License(id, "DH-"+id, projectID, email, paid)
	require.NoError(t, store.Licenses.Create(context.Background(), l))
	return l
}

// MockLicenseRepository is a testify mock of repository.LicenseRepository.
type MockLicenseRepository struct {
	mock.Mock
}

func (m *MockLicenseRepository) Create(ctx context.Context, license *domain.License) error {
	return m.Called(ctx, license).Error(0)
}

func (m *MockLicenseRepository) GetByID(ctx context.Context, id string) (*domain.License, error) {
	args := m.Called(ctx, id)
	l, _ := args.Get(0).(*domain.License)
	return l, args.Error(1)
}

func (m *MockLicenseRepository) List(ctx context.Context) ([]*domain.License, error) {
	args := m.Called(ctx)
	ls, _ := args.Get(0).([]*domain.License)
	return ls, args.Error(1)
}

func (m *MockLicenseRepository) ListByCustomer(ctx context.Context, email string) ([]*domain.License, error) {
	args := m.Called(ctx, email)
	ls, _ := args.Get(0).([]*domain.License)
	return ls, args.Error(1)
}

func (m *MockLicenseRepository) ListByProjects(ctx context.Context, projectIDs []string) ([]*domain.License, error) {
	args := m.Called(ctx, projectIDs)
	ls, _ := args.Get(0).([]*domain.License)
	return ls, args.Error(1)
}

func (m *MockLicenseRepository) ExistsByKey(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockLicenseRepository) MarkRefunded(ctx context.Context, id string) (*domain.License, error) {
	args := m.Called(ctx, id)
	l, _ := args.Get(0).(*domain.License)
	return l, args.Error(1)
}

func (m *MockLicenseRepository) UpdatePayoutStatus(ctx context.Context, id string, from, to domain.PayoutStatus) error {
	return m.Called(ctx, id, from, to).Error(0)
}

func (m *MockLicenseRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}
