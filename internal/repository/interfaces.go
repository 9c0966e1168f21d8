// Package repository defines data access interfaces for DeveHub.
// These interfaces abstract the record store, allowing the in-memory store
// and the embedded SQLite store to be swapped while keeping the service
// layer clean.
package repository

import (
	"context"

	"github.com/prn-tf/devehub/internal/domain"
)

// =============================================================================
// Project Repository
// =============================================================================

// ProjectRepository defines the interface for project data access.
type ProjectRepository interface {
	// Create stores a new project. The caller assigns ID and ranking.
	Create(ctx context.Context, project *domain.Project) error

	// GetByID retrieves a project by ID.
	GetByID(ctx context.Context, id string) (*domain.Project, error)

	// Update replaces the editable fields of a project.
	// Sales, revenue, ranking, status and secret are never written here.
	Update(ctx context.Context, project *domain.Project) error

	// SetStatus changes a project's lifecycle status.
	SetStatus(ctx context.Context, id string, status domain.ProjectStatus) error

	// List returns every project ordered by ranking.
	List(ctx context.Context) ([]*domain.Project, error)

	// ListByDeveloper returns the projects of a developer ordered by ranking.
	ListByDeveloper(ctx context.Context, developer string) ([]*domain.Project, error)

	// SetRankings applies a complete id -> ranking assignment atomically.
	SetRankings(ctx context.Context, rankings map[string]int) error

	// RecordSale increments sales by one and revenue by amount.
	RecordSale(ctx context.Context, id string, amount domain.Money) error

	// Count returns the number of projects.
	Count(ctx context.Context) (int, error)
}

// =============================================================================
// License Repository
// =============================================================================

// LicenseRepository defines the interface for license data access.
type LicenseRepository interface {
	// Create stores a new license at the head of the collection.
	// Returns ErrDuplicateKey if the key is already issued.
	Create(ctx context.Context, license *domain.License) error

	// GetByID retrieves a license by ID.
	GetByID(ctx context.Context, id string) (*domain.License, error)

	// List returns every license, most recent first.
	List(ctx context.Context) ([]*domain.License, error)

	// ListByCustomer returns the licenses bought by email, most recent first.
	ListByCustomer(ctx context.Context, email string) ([]*domain.License, error)

	// ListByProjects returns the licenses of the given projects, most recent first.
	ListByProjects(ctx context.Context, projectIDs []string) ([]*domain.License, error)

	// ExistsByKey checks if a license key was already issued.
	ExistsByKey(ctx context.Context, key string) (bool, error)

	// MarkRefunded moves an active license to refunded/cancelled in one write.
	// Returns domain.ErrAlreadyRefunded if the license is not active.
	MarkRefunded(ctx context.Context, id string) (*domain.License, error)

	// UpdatePayoutStatus moves a non-refunded license from one payout status
	// to another. Returns ErrStaleState if it is not in the from state.
	UpdatePayoutStatus(ctx context.Context, id string, from, to domain.PayoutStatus) error

	// Count returns the number of licenses.
	Count(ctx context.Context) (int, error)
}

// =============================================================================
// User Repository
// =============================================================================

// UserRepository defines the interface for user data access.
type UserRepository interface {
	// Create stores a user. Users only enter the store through seeding.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by email, case-insensitively.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// List returns every user in join order.
	List(ctx context.Context) ([]*domain.User, error)

	// Delete removes a user record entirely.
	Delete(ctx context.Context, id string) error

	// Count returns the number of users.
	Count(ctx context.Context) (int, error)
}

// =============================================================================
// Store
// =============================================================================

// Store is the record store: the single owner of the three collections.
type Store struct {
	Projects ProjectRepository
	Licenses LicenseRepository
	Users    UserRepository

	// Health reports backend health; nil for the in-memory store.
	Health HealthChecker
}

// HealthChecker is implemented by backends with a connection to check.
type HealthChecker interface {
	Ping(ctx context.Context) error
	Close() error
}
