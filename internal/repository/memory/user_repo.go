package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/prn-tf/devehub/internal/domain"
	"github.com/prn-tf/devehub/internal/repository"
)

// userRepository implements repository.UserRepository in memory.
type userRepository struct {
	mu    sync.RWMutex
	users []*domain.User
}

// NewUserRepository creates a new in-memory user repository.
func NewUserRepository() repository.UserRepository {
	return &userRepository{}
}

// Create stores a user.
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexOf(user.ID) >= 0 {
		return fmt.Errorf("%w: user %s", repository.ErrDuplicateKey, user.ID)
	}
	r.users = append(r.users, user.Clone())
	return nil
}

// GetByID retrieves a user by ID.
func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(id)
	if i < 0 {
		return nil, domain.ErrUserNotFound
	}
	return r.users[i].Clone(), nil
}

// GetByEmail retrieves a user by email.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return u.Clone(), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

// List returns every user in join order.
func (r *userRepository) List(ctx context.Context) ([]*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.User, len(r.users))
	for i, u := range r.users {
		out[i] = u.Clone()
	}
	return out, nil
}

// Delete removes a user record entirely.
func (r *userRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return domain.ErrUserNotFound
	}
	r.users = append(r.users[:i], r.users[i+1:]...)
	return nil
}

// Count returns the number of users.
func (r *userRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users), nil
}

func (r *userRepository) indexOf(id string) int {
	for i, u := range r.users {
		if u.ID == id {
			return i
		}
	}
	return -1
}
