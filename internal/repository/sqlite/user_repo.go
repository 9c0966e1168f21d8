package sqlite

import (
	"context"
	"fmt"

	"github.com/prn-tf/devehub/internal/domain"
	"github.com/prn-tf/devehub/internal/repository"
)

// userRepository implements repository.UserRepository for SQLite.
type userRepository struct {
	db *DB
}

// NewUserRepository creates a new SQLite user repository.
func NewUserRepository(db *DB) repository.UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, name, email, role, status, joined, last_login, has_purchases, has_uploads`

// Create stores a user.
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.Role.String(),
		string(user.Status),
		formatTime(user.Joined),
		formatTime(user.LastLogin),
		boolToInt(user.HasPurchases),
		boolToInt(user.HasUploads),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: user %s", repository.ErrDuplicateKey, user.ID)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID.
func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// GetByEmail retrieves a user by email.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE email = ? ORDER BY seq LIMIT 1`, email)
}

func (r *userRepository) get(ctx context.Context, query string, arg string) (*domain.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// List returns every user in join order.
func (r *userRepository) List(ctx context.Context) ([]*domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

// Delete removes a user record entirely.
func (r *userRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return requireAffected(result, domain.ErrUserNotFound)
}

// Count returns the number of users.
func (r *userRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

func scanUser(row rowScanner) (*domain.User, error) {
	user := &domain.User{}
	var (
		role, status       string
		joined, lastLogin  string
		purchases, uploads int
	)

	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&role,
		&status,
		&joined,
		&lastLogin,
		&purchases,
		&uploads,
	)
	if err != nil {
		return nil, err
	}

	parsed, err := domain.ParseRole(role)
	if err != nil {
		return nil, err
	}
	user.Role = parsed
	user.Status = domain.UserStatus(status)
	user.Joined = parseTime(joined)
	user.LastLogin = parseTime(lastLogin)
	user.HasPurchases = purchases != 0
	user.HasUploads = uploads != 0
	return user, nil
}
