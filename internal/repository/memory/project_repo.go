package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/prn-tf/devehub/internal/domain"
	"github.com/prn-tf/devehub/internal/repository"
)

// projectRepository implements repository.ProjectRepository in memory.
type projectRepository struct {
	mu       sync.RWMutex
	projects map[string]*domain.Project
	order    []string
}

// NewProjectRepository creates a new in-memory project repository.
func NewProjectRepository() repository.ProjectRepository {
	return &projectRepository{projects: make(map[string]*domain.Project)}
}

// Create stores a new project.
func (r *projectRepository) Create(ctx context.Context, project *domain.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.projects[project.ID]; ok {
		return fmt.Errorf("%w: project %s", repository.ErrDuplicateKey, project.ID)
	}
	r.projects[project.ID] = project.Clone()
	r.order = append(r.order, project.ID)
	return nil
}

// GetByID retrieves a project by ID.
func (r *projectRepository) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.projects[id]
	if !ok {
		return nil, domain.ErrProjectNotFound
	}
	return p.Clone(), nil
}

// Update replaces the editable fields of a project.
func (r *projectRepository) Update(ctx context.Context, project *domain.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.projects[project.ID]
	if !ok {
		return domain.ErrProjectNotFound
	}

	next := project.Clone()
	next.Sales = cur.Sales
	next.Revenue = cur.Revenue
	next.Ranking = cur.Ranking
	next.Status = cur.Status
	next.Secret = cur.Secret
	r.projects[project.ID] = next
	return nil
}

// SetStatus changes a project's lifecycle status.
func (r *projectRepository) SetStatus(ctx context.Context, id string, status domain.ProjectStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.projects[id]
	if !ok {
		return domain.ErrProjectNotFound
	}
	p.Status = status
	return nil
}

// List returns every project ordered by ranking.
func (r *projectRepository) List(ctx context.Context) ([]*domain.Project, error) {
	return r.filter(func(*domain.Project) bool { return true }), nil
}

// ListByDeveloper returns the projects of a developer ordered by ranking.
func (r *projectRepository) ListByDeveloper(ctx context.Context, developer string) ([]*domain.Project, error) {
	return r.filter(func(p *domain.Project) bool { return p.DeveloperName == developer }), nil
}

func (r *projectRepository) filter(keep func(*domain.Project) bool) []*domain.Project {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Project, 0, len(r.order))
	for _, id := range r.order {
		if p := r.projects[id]; keep(p) {
			out = append(out, p.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Ranking < out[j].Ranking })
	return out
}

// SetRankings applies a complete id -> ranking assignment atomically.
func (r *projectRepository) SetRankings(ctx context.Context, rankings map[string]int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id := range rankings {
		if _, ok := r.projects[id]; !ok {
			return fmt.Errorf("%w: %s", domain.ErrProjectNotFound, id)
		}
	}
	for id, rank := range rankings {
		r.projects[id].Ranking = rank
	}
	return nil
}

// RecordSale increments sales by one and revenue by amount.
func (r *projectRepository) RecordSale(ctx context.Context, id string, amount domain.Money) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.projects[id]
	if !ok {
		return domain.ErrProjectNotFound
	}
	p.Sales++
	p.Revenue += amount
	return nil
}

// Count returns the number of projects.
func (r *projectRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.projects), nil
}
