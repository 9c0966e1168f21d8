package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/prn-tf/devehub/internal/domain"
	"github.com/prn-tf/devehub/internal/repository"
)

// licenseRepository implements repository.LicenseRepository in memory.
// licenses is kept most recent first; new licenses are prepended.
type licenseRepository struct {
	mu       sync.RWMutex
	licenses []*domain.License
	byID     map[string]*domain.License
	keys     map[string]struct{}
}

// NewLicenseRepository creates a new in-memory license repository.
func NewLicenseRepository() repository.LicenseRepository {
	return &licenseRepository{
		byID: make(map[string]*domain.License),
		keys: make(map[string]struct{}),
	}
}

// Create stores a new license at the head of the collection.
func (r *licenseRepository) Create(ctx context.Context, license *domain.License) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[license.ID]; ok {
		return fmt.Errorf("%w: license %s", repository.ErrDuplicateKey, license.ID)
	}
	if _, ok := r.keys[license.Key]; ok {
		return fmt.Errorf("%w: key %s", repository.ErrDuplicateKey, license.Key)
	}

	stored := license.Clone()
	r.licenses = append([]*domain.License{stored}, r.licenses...)
	r.byID[stored.ID] = stored
	r.keys[stored.Key] = struct{}{}
	return nil
}

// GetByID retrieves a license by ID.
func (r *licenseRepository) GetByID(ctx context.Context, id string) (*domain.License, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrLicenseNotFound
	}
	return l.Clone(), nil
}

// List returns every license, most recent first.
func (r *licenseRepository) List(ctx context.Context) ([]*domain.License, error) {
	return r.filter(func(*domain.License) bool { return true }), nil
}

// ListByCustomer returns the licenses bought by email.
func (r *licenseRepository) ListByCustomer(ctx context.Context, email string) ([]*domain.License, error) {
	return r.filter(func(l *domain.License) bool { return l.BelongsTo(email) }), nil
}

// ListByProjects returns the licenses of the given projects.
func (r *licenseRepository) ListByProjects(ctx context.Context, projectIDs []string) ([]*domain.License, error) {
	want := make(map[string]struct{}, len(projectIDs))
	for _, id := range projectIDs {
		want[id] = struct{}{}
	}
	return r.filter(func(l *domain.License) bool {
		_, ok := want[l.ProjectID]
		return ok
	}), nil
}

func (r *licenseRepository) filter(keep func(*domain.License) bool) []*domain.License {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.License, 0, len(r.licenses))
	for _, l := range r.licenses {
		if keep(l) {
			out = append(out, l.Clone())
		}
	}
	return out
}

// ExistsByKey checks if a license key was already issued.
func (r *licenseRepository) ExistsByKey(ctx context.Context, key string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.keys[key]
	return ok, nil
}

// MarkRefunded moves an active license to refunded/cancelled in one write.
func (r *licenseRepository) MarkRefunded(ctx context.Context, id string) (*domain.License, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrLicenseNotFound
	}
	if !l.IsActive() {
		return nil, domain.ErrAlreadyRefunded
	}
	l.MarkRefunded()
	return l.Clone(), nil
}

// UpdatePayoutStatus moves a non-refunded license between payout states.
func (r *licenseRepository) UpdatePayoutStatus(ctx context.Context, id string, from, to domain.PayoutStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.byID[id]
	if !ok {
		return domain.ErrLicenseNotFound
	}
	if l.IsRefunded() || l.PayoutStatus != from {
		return repository.ErrStaleState
	}
	l.PayoutStatus = to
	return nil
}

// Count returns the number of licenses.
func (r *licenseRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.licenses), nil
}
