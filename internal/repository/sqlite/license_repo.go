package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/prn-tf/devehub/internal/domain"
	"github.com/prn-tf/devehub/internal/repository"
)

// licenseRepository implements repository.LicenseRepository for SQLite.
// Insertion sequence orders the collection; the newest row comes first.
type licenseRepository struct {
	db *DB
}

// NewLicenseRepository creates a new SQLite license repository.
func NewLicenseRepository(db *DB) repository.LicenseRepository {
	return &licenseRepository{db: db}
}

const licenseColumns = `id, license_key, project_id, project_name, amount_cents, customer_email,
	status, payout_status, payment_date, expected_payout_date`

// Create stores a new license.
func (r *licenseRepository) Create(ctx context.Context, l *domain.License) error {
	query := `
		INSERT INTO licenses (` + licenseColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		l.ID,
		l.Key,
		l.ProjectID,
		l.ProjectName,
		l.Amount.Cents(),
		l.CustomerEmail,
		string(l.Status),
		string(l.PayoutStatus),
		formatTime(l.PaymentDate),
		formatTime(l.ExpectedPayoutDate),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: license %s", repository.ErrDuplicateKey, l.Key)
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrProjectNotFound, l.ProjectID)
		}
		return fmt.Errorf("failed to create license: %w", err)
	}
	return nil
}

// GetByID retrieves a license by ID.
func (r *licenseRepository) GetByID(ctx context.Context, id string) (*domain.License, error) {
	query := `SELECT ` + licenseColumns + ` FROM licenses WHERE id = ?`

	l, err := scanLicense(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrLicenseNotFound
		}
		return nil, fmt.Errorf("failed to get license by ID: %w", err)
	}
	return l, nil
}

// List returns every license, most recent first.
func (r *licenseRepository) List(ctx context.Context) ([]*domain.License, error) {
	return r.query(ctx, `SELECT `+licenseColumns+` FROM licenses ORDER BY seq DESC`)
}

// ListByCustomer returns the licenses bought by email.
func (r *licenseRepository) ListByCustomer(ctx context.Context, email string) ([]*domain.License, error) {
	return r.query(ctx,
		`SELECT `+licenseColumns+` FROM licenses WHERE customer_email = ? ORDER BY seq DESC`,
		email,
	)
}

// ListByProjects returns the licenses of the given projects.
func (r *licenseRepository) ListByProjects(ctx context.Context, projectIDs []string) ([]*domain.License, error) {
	if len(projectIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(projectIDs)), ",")
	args := make([]interface{}, len(projectIDs))
	for i, id := range projectIDs {
		args[i] = id
	}

	query := `SELECT ` + licenseColumns + ` FROM licenses WHERE project_id IN (` + placeholders + `) ORDER BY seq DESC`
	return r.query(ctx, query, args...)
}

func (r *licenseRepository) query(ctx context.Context, query string, args ...interface{}) ([]*domain.License, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list licenses: %w", err)
	}
	defer rows.Close()

	var licenses []*domain.License
	for rows.Next() {
		l, err := scanLicense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan license: %w", err)
		}
		licenses = append(licenses, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate licenses: %w", err)
	}
	return licenses, nil
}

// ExistsByKey checks if a license key was already issued.
func (r *licenseRepository) ExistsByKey(ctx context.Context, key string) (bool, error) {
	var exists int
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM licenses WHERE license_key = ?)`, key,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check license key: %w", err)
	}
	return exists != 0, nil
}

// MarkRefunded moves an active license to refunded/cancelled in one write.
func (r *licenseRepository) MarkRefunded(ctx context.Context, id string) (*domain.License, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE licenses
		SET status = ?, payout_status = ?
		WHERE id = ? AND status = ?
	`,
		string(domain.LicenseRefunded),
		string(domain.PayoutCancelled),
		id,
		string(domain.LicenseActive),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to refund license: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read affected rows: %w", err)
	}

	l, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, domain.ErrAlreadyRefunded
	}
	return l, nil
}

// UpdatePayoutStatus moves a non-refunded license between payout states.
func (r *licenseRepository) UpdatePayoutStatus(ctx context.Context, id string, from, to domain.PayoutStatus) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE licenses
		SET payout_status = ?
		WHERE id = ? AND payout_status = ? AND status = ?
	`,
		string(to),
		id,
		string(from),
		string(domain.LicenseActive),
	)
	if err != nil {
		return fmt.Errorf("failed to update payout status: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n > 0 {
		return nil
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return repository.ErrStaleState
}

// Count returns the number of licenses.
func (r *licenseRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM licenses`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count licenses: %w", err)
	}
	return n, nil
}

func scanLicense(row rowScanner) (*domain.License, error) {
	l := &domain.License{}
	var (
		amount                int64
		status, payoutStatus  string
		paymentDate, expected string
	)

	err := row.Scan(
		&l.ID,
		&l.Key,
		&l.ProjectID,
		&l.ProjectName,
		&amount,
		&l.CustomerEmail,
		&status,
		&payoutStatus,
		&paymentDate,
		&expected,
	)
	if err != nil {
		return nil, err
	}

	l.Amount = domain.Money(amount)
	l.Status = domain.LicenseStatus(status)
	l.PayoutStatus = domain.PayoutStatus(payoutStatus)
	l.PaymentDate = parseTime(paymentDate)
	l.ExpectedPayoutDate = parseTime(expected)
	return l, nil
}
