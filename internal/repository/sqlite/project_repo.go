package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/prn-tf/devehub/internal/domain"
	"github.com/prn-tf/devehub/internal/repository"
)

// projectRepository implements repository.ProjectRepository for SQLite.
type projectRepository struct {
	db *DB
}

// NewProjectRepository creates a new SQLite project repository.
func NewProjectRepository(db *DB) repository.ProjectRepository {
	return &projectRepository{db: db}
}

const projectColumns = `id, name, description, images, video_url, pricing_tier, billing_interval,
	categories, developer_name, secret, sales, revenue_cents, status, ranking,
	consultation_requested, app_type, app_url, features`

// Create stores a new project.
func (r *projectRepository) Create(ctx context.Context, p *domain.Project) error {
	images, categories, features, err := encodeProjectLists(p)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO projects (` + projectColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		p.ID,
		p.Name,
		p.Description,
		images,
		p.VideoURL,
		string(p.PricingTier),
		string(p.Interval),
		categories,
		p.DeveloperName,
		p.Secret,
		p.Sales,
		p.Revenue.Cents(),
		string(p.Status),
		p.Ranking,
		boolToInt(p.ConsultationRequested),
		string(p.AppType),
		p.AppURL,
		features,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: project %s", repository.ErrDuplicateKey, p.ID)
		}
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

// GetByID retrieves a project by ID.
func (r *projectRepository) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = ?`

	p, err := scanProject(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project by ID: %w", err)
	}
	return p, nil
}

// Update replaces the editable fields of a project.
func (r *projectRepository) Update(ctx context.Context, p *domain.Project) error {
	images, categories, features, err := encodeProjectLists(p)
	if err != nil {
		return err
	}

	query := `
		UPDATE projects
		SET name = ?, description = ?, images = ?, video_url = ?, pricing_tier = ?,
			billing_interval = ?, categories = ?, developer_name = ?,
			consultation_requested = ?, app_type = ?, app_url = ?, features = ?
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		p.Name,
		p.Description,
		images,
		p.VideoURL,
		string(p.PricingTier),
		string(p.Interval),
		categories,
		p.DeveloperName,
		boolToInt(p.ConsultationRequested),
		string(p.AppType),
		p.AppURL,
		features,
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	return requireAffected(result, domain.ErrProjectNotFound)
}

// SetStatus changes a project's lifecycle status.
func (r *projectRepository) SetStatus(ctx context.Context, id string, status domain.ProjectStatus) error {
	result, err := r.db.ExecContext(ctx, `UPDATE projects SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("failed to set project status: %w", err)
	}
	return requireAffected(result, domain.ErrProjectNotFound)
}

// List returns every project ordered by ranking.
func (r *projectRepository) List(ctx context.Context) ([]*domain.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects ORDER BY ranking, seq`
	return r.query(ctx, query)
}

// ListByDeveloper returns the projects of a developer ordered by ranking.
func (r *projectRepository) ListByDeveloper(ctx context.Context, developer string) ([]*domain.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE developer_name = ? ORDER BY ranking, seq`
	return r.query(ctx, query, developer)
}

func (r *projectRepository) query(ctx context.Context, query string, args ...interface{}) ([]*domain.Project, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []*domain.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate projects: %w", err)
	}
	return projects, nil
}

// SetRankings applies a complete id -> ranking assignment atomically.
func (r *projectRepository) SetRankings(ctx context.Context, rankings map[string]int) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		for id, rank := range rankings {
			result, err := tx.ExecContext(ctx, `UPDATE projects SET ranking = ? WHERE id = ?`, rank, id)
			if err != nil {
				return fmt.Errorf("failed to set ranking: %w", err)
			}
			if err := requireAffected(result, domain.ErrProjectNotFound); err != nil {
				return fmt.Errorf("%w: %s", err, id)
			}
		}
		return nil
	})
}

// RecordSale increments sales by one and revenue by amount.
func (r *projectRepository) RecordSale(ctx context.Context, id string, amount domain.Money) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE projects SET sales = sales + 1, revenue_cents = revenue_cents + ? WHERE id = ?`,
		amount.Cents(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to record sale: %w", err)
	}
	return requireAffected(result, domain.ErrProjectNotFound)
}

// Count returns the number of projects.
func (r *projectRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count projects: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProject(row rowScanner) (*domain.Project, error) {
	p := &domain.Project{}
	var (
		images, categories, features   string
		tier, interval, status, appTyp string
		revenue                        int64
		consultation                   int
	)

	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&images,
		&p.VideoURL,
		&tier,
		&interval,
		&categories,
		&p.DeveloperName,
		&p.Secret,
		&p.Sales,
		&revenue,
		&status,
		&p.Ranking,
		&consultation,
		&appTyp,
		&p.AppURL,
		&features,
	)
	if err != nil {
		return nil, err
	}

	p.PricingTier = domain.PricingTier(tier)
	p.Interval = domain.PricingInterval(interval)
	p.Status = domain.ProjectStatus(status)
	p.AppType = domain.AppType(appTyp)
	p.Revenue = domain.Money(revenue)
	p.ConsultationRequested = consultation != 0

	if err := json.Unmarshal([]byte(images), &p.Images); err != nil {
		return nil, fmt.Errorf("decode images: %w", err)
	}
	if err := json.Unmarshal([]byte(categories), &p.Categories); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}
	if err := json.Unmarshal([]byte(features), &p.Features); err != nil {
		return nil, fmt.Errorf("decode features: %w", err)
	}
	return p, nil
}

func encodeProjectLists(p *domain.Project) (images, categories, features string, err error) {
	enc := func(v interface{}) string {
		if err != nil {
			return ""
		}
		var b []byte
		b, err = json.Marshal(v)
		return string(b)
	}
	images = enc(nonNil(p.Images))
	categories = enc(nonNil(p.Categories))
	if p.Features == nil {
		features = enc([]domain.FeatureBlock{})
	} else {
		features = enc(p.Features)
	}
	if err != nil {
		return "", "", "", fmt.Errorf("failed to encode project lists: %w", err)
	}
	return images, categories, features, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func requireAffected(result sql.Result, notFound error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
