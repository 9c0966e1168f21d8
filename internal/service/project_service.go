package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prn-tf/devehub/internal/domain"
	"github.com/prn-tf/devehub/internal/ledger"
	"github.com/prn-tf/devehub/internal/pkg/crypto"
	"github.com/prn-tf/devehub/internal/repository"
)

// AllCategories is the marketplace filter value that matches every project.
const AllCategories = "All"

// Direction is a ranking move.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// ParseDirection parses a ranking move direction.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case DirectionUp, DirectionDown:
		return d, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
}

// ProjectService handles the developer workflow, moderation and browsing.
type ProjectService struct {
	projectRepo repository.ProjectRepository
	licenseRepo repository.LicenseRepository
	logger      zerolog.Logger
}

// NewProjectService creates a new ProjectService.
func NewProjectService(
	projectRepo repository.ProjectRepository,
	licenseRepo repository.LicenseRepository,
	logger zerolog.Logger,
) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		licenseRepo: licenseRepo,
		logger:      logger.With().Str("service", "project").Logger(),
	}
}

// ProjectFields are the fields a developer may set.
type ProjectFields struct {
	Name                  string                 `json:"name"`
	Description           string                 `json:"description"`
	Images                []string               `json:"images"`
	VideoURL              string                 `json:"video_url"`
	PricingTier           domain.PricingTier     `json:"pricing_tier"`
	Interval              domain.PricingInterval `json:"interval"`
	Categories            []string               `json:"categories"`
	AppType               domain.AppType         `json:"app_type"`
	AppURL                string                 `json:"app_url"`
	Features              []domain.FeatureBlock  `json:"features"`
	ConsultationRequested bool                   `json:"consultation_requested"`
}

func (f ProjectFields) apply(p *domain.Project) {
	p.Name = strings.TrimSpace(f.Name)
	if p.Name == "" {
		p.Name = domain.DefaultProjectName
	}
	p.Description = f.Description
	p.Images = f.Images
	p.VideoURL = f.VideoURL
	p.PricingTier = f.PricingTier
	p.Interval = f.Interval
	if p.Interval == "" {
		p.Interval = domain.IntervalLifetime
	}
	p.Categories = f.Categories
	p.AppType = f.AppType
	if p.AppType == "" {
		p.AppType = domain.AppWeb
	}
	p.AppURL = f.AppURL
	p.Features = f.Features
	p.ConsultationRequested = f.ConsultationRequested
}

// CreateProjectInput contains the data needed to create a project.
type CreateProjectInput struct {
	Developer string
	Fields    ProjectFields

	// Draft saves the project without publishing it.
	Draft bool

	Now time.Time
}

// Create lists a new project at the bottom of the ranking.
func (s *ProjectService) Create(ctx context.Context, input CreateProjectInput) (*domain.Project, error) {
	if input.Developer == "" {
		return nil, domain.ErrLoginRequired
	}

	project := &domain.Project{
		ID:            uuid.NewString(),
		DeveloperName: input.Developer,
		Status:        domain.ProjectActive,
	}
	if input.Draft {
		project.Status = domain.ProjectDraft
	}
	input.Fields.apply(project)

	if err := domain.ValidateProjectFields(project); err != nil {
		return nil, err
	}

	secret, err := crypto.GenerateProjectSecret(input.Now)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	project.Secret = secret

	count, err := s.projectRepo.Count(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to count projects")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	project.Ranking = count + 1

	if err := s.projectRepo.Create(ctx, project); err != nil {
		s.logger.Error().Err(err).Str("name", project.Name).Msg("failed to create project")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Str("project_id", project.ID).
		Str("name", project.Name).
		Str("developer", project.DeveloperName).
		Str("status", string(project.Status)).
		Int("ranking", project.Ranking).
		Msg("Project created")

	return project, nil
}

// UpdateProjectInput contains the data needed to edit project settings.
type UpdateProjectInput struct {
	ProjectID string

	// Developer must own the project. Empty skips the ownership check.
	Developer string

	Fields ProjectFields
}

// UpdateSettings edits a project's editable fields. Sales, revenue, ranking,
// status and secret are left as stored.
func (s *ProjectService) UpdateSettings(ctx context.Context, input UpdateProjectInput) (*domain.Project, error) {
	project, err := s.Get(ctx, input.ProjectID)
	if err != nil {
		return nil, err
	}
	if input.Developer != "" && project.DeveloperName != input.Developer {
		return nil, domain.NewDomainError(domain.ErrForbidden, "project belongs to another developer", project.ID)
	}

	input.Fields.apply(project)
	if err := domain.ValidateProjectFields(project); err != nil {
		return nil, err
	}

	if err := s.projectRepo.Update(ctx, project); err != nil {
		return nil, s.lookupError(err, "failed to update project", project.ID)
	}

	s.logger.Info().Str("project_id", project.ID).Msg("Project settings updated")
	return s.Get(ctx, project.ID)
}

// SetStatus changes a project's moderation status.
func (s *ProjectService) SetStatus(ctx context.Context, projectID string, status domain.ProjectStatus) (*domain.Project, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidProjectStatus, status)
	}
	if err := s.projectRepo.SetStatus(ctx, projectID, status); err != nil {
		return nil, s.lookupError(err, "failed to set project status", projectID)
	}

	s.logger.Info().Str("project_id", projectID).Str("status", string(status)).Msg("Project status changed")
	return s.Get(ctx, projectID)
}

// Move swaps a project with its neighbour in ranking order and reassigns
// dense rankings 1..N. Moving the first project up or the last project
// down changes nothing. The full list is returned in its new order.
func (s *ProjectService) Move(ctx context.Context, projectID string, dir Direction) ([]*domain.Project, error) {
	projects, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i, p := range projects {
		if p.ID == projectID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, domain.ErrProjectNotFound
	}

	var target int
	switch dir {
	case DirectionUp:
		target = idx - 1
	case DirectionDown:
		target = idx + 1
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidDirection, dir)
	}
	if target < 0 || target >= len(projects) {
		return projects, nil
	}

	projects[idx], projects[target] = projects[target], projects[idx]

	rankings := make(map[string]int, len(projects))
	for i, p := range projects {
		p.Ranking = i + 1
		rankings[p.ID] = p.Ranking
	}
	if err := s.projectRepo.SetRankings(ctx, rankings); err != nil {
		s.logger.Error().Err(err).Msg("failed to apply rankings")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Str("project_id", projectID).
		Str("direction", string(dir)).
		Int("ranking", target+1).
		Msg("Project moved")

	return projects, nil
}

// Get retrieves a project by ID.
func (s *ProjectService) Get(ctx context.Context, projectID string) (*domain.Project, error) {
	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, s.lookupError(err, "failed to get project", projectID)
	}
	return project, nil
}

// List returns every project in ranking order.
func (s *ProjectService) List(ctx context.Context) ([]*domain.Project, error) {
	projects, err := s.projectRepo.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list projects")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return projects, nil
}

// ListByDeveloper returns a developer's projects in ranking order.
func (s *ProjectService) ListByDeveloper(ctx context.Context, developer string) ([]*domain.Project, error) {
	projects, err := s.projectRepo.ListByDeveloper(ctx, developer)
	if err != nil {
		s.logger.Error().Err(err).Str("developer", developer).Msg("failed to list projects")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return projects, nil
}

// MarketplaceInput filters the marketplace listing.
type MarketplaceInput struct {
	Query    string
	Category string
}

// Marketplace returns listed projects in ranking order matching the search
// term and category.
func (s *ProjectService) Marketplace(ctx context.Context, input MarketplaceInput) ([]*domain.Project, error) {
	projects, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return FilterMarketplace(projects, input), nil
}

// FilterMarketplace keeps listed projects matching the filter, preserving order.
func FilterMarketplace(projects []*domain.Project, input MarketplaceInput) []*domain.Project {
	out := make([]*domain.Project, 0, len(projects))
	for _, p := range projects {
		if !p.IsListed() || !p.Matches(input.Query) {
			continue
		}
		if input.Category != "" && input.Category != AllCategories && !p.HasCategory(input.Category) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Categories returns the distinct categories of listed projects, sorted,
// preceded by AllCategories.
func Categories(projects []*domain.Project) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, p := range projects {
		if !p.IsListed() {
			continue
		}
		for _, c := range p.Categories {
			if _, ok := seen[c]; !ok {
				seen[c] = struct{}{}
				out = append(out, c)
			}
		}
	}
	sort.Strings(out)
	return append([]string{AllCategories}, out...)
}

// LaunchInput identifies the project and the requesting purchaser.
type LaunchInput struct {
	ProjectID string
	Email     string
}

// LaunchOutput tells the client how to open a purchased app.
type LaunchOutput struct {
	ProjectID string         `json:"project_id"`
	URL       string         `json:"url"`
	AppType   domain.AppType `json:"app_type"`

	// ConfirmDownload is set for desktop apps, which download an installer.
	ConfirmDownload bool `json:"confirm_download"`
}

// Launch returns the app URL of a project the purchaser owns.
func (s *ProjectService) Launch(ctx context.Context, input LaunchInput) (*LaunchOutput, error) {
	project, err := s.Get(ctx, input.ProjectID)
	if err != nil {
		return nil, err
	}

	licenses, err := s.licenseRepo.ListByCustomer(ctx, input.Email)
	if err != nil {
		s.logger.Error().Err(err).Str("email", input.Email).Msg("failed to list licenses")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if !ledger.Owns(project.ID, input.Email, licenses) {
		return nil, domain.NewDomainError(ErrNotOwned, project.Name, project.ID)
	}

	return &LaunchOutput{
		ProjectID:       project.ID,
		URL:             project.AppURL,
		AppType:         project.AppType,
		ConfirmDownload: project.AppType == domain.AppDesktop,
	}, nil
}

// FeedbackInput contains a buyer's message to a developer.
type FeedbackInput struct {
	ProjectID string
	Email     string
	Message   string
}

// FeedbackOutput confirms delivery.
type FeedbackOutput struct {
	Developer string `json:"developer"`
	Message   string `json:"message"`
}

// Feedback relays a buyer's message to the project's developer.
func (s *ProjectService) Feedback(ctx context.Context, input FeedbackInput) (*FeedbackOutput, error) {
	if strings.TrimSpace(input.Message) == "" {
		return nil, ErrEmptyFeedback
	}
	project, err := s.Get(ctx, input.ProjectID)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("project_id", project.ID).
		Str("developer", project.DeveloperName).
		Str("from", input.Email).
		Int("length", len(input.Message)).
		Msg("Feedback delivered")

	return &FeedbackOutput{
		Developer: project.DeveloperName,
		Message:   "Feedback sent to " + project.DeveloperName,
	}, nil
}

func (s *ProjectService) lookupError(err error, msg, id string) error {
	if errors.Is(err, domain.ErrProjectNotFound) {
		return err
	}
	s.logger.Error().Err(err).Str("project_id", id).Msg(msg)
	return fmt.Errorf("%w: %v", ErrInternalError, err)
}
