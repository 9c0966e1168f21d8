package app

import (
	"context"

	"github.com/prn-tf/devehub/internal/domain"
	"github.com/prn-tf/devehub/internal/service"
)

// =============================================================================
// Admin intents
// =============================================================================

// ForceRefund refunds any active license.
func (a *App) ForceRefund(ctx context.Context, licenseID string) (*domain.License, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.requireRole(domain.RoleAdmin); err != nil {
		return nil, err
	}
	return a.licenses.ForceRefund(ctx, licenseID)
}

// DeleteUser deletes an inactive user without assets. confirmed must be set.
func (a *App) DeleteUser(ctx context.Context, userID string, confirmed bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.requireRole(domain.RoleAdmin); err != nil {
		return err
	}
	return a.users.Delete(ctx, service.DeleteUserInput{
		UserID:    userID,
		Confirmed: confirmed,
		Now:       a.now(),
	})
}

// MoveRank moves a project one slot and returns the new ranking order.
func (a *App) MoveRank(ctx context.Context, projectID string, dir service.Direction) ([]*domain.Project, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.requireRole(domain.RoleAdmin); err != nil {
		return nil, err
	}
	return a.projects.Move(ctx, projectID, dir)
}

// SetProjectStatus moderates a project.
func (a *App) SetProjectStatus(ctx context.Context, projectID string, status domain.ProjectStatus) (*domain.Project, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.requireRole(domain.RoleAdmin); err != nil {
		return nil, err
	}
	return a.projects.SetStatus(ctx, projectID, status)
}

// TriggerPayoutCycle runs a payout cycle on an admin's request.
func (a *App) TriggerPayoutCycle(ctx context.Context) (*service.CycleResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.requireRole(domain.RoleAdmin); err != nil {
		return nil, err
	}
	return a.payouts.RunCycle(ctx, a.now())
}

// RunPayoutCycle runs one payout cycle through the single mutation path.
func (a *App) RunPayoutCycle(ctx context.Context) (*service.CycleResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.payouts.RunCycle(ctx, a.now())
}

var _ service.CycleRunner = (*App)(nil)

// =============================================================================
// Developer intents
// =============================================================================

// CreateProjectInput contains a new listing.
type CreateProjectInput struct {
	Fields service.ProjectFields
	Draft  bool
}

// CreateProject lists a project for the session developer.
func (a *App) CreateProject(ctx context.Context, input CreateProjectInput) (*domain.Project, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.requireRole(domain.RoleDeveloper); err != nil {
		return nil, err
	}
	return a.projects.Create(ctx, service.CreateProjectInput{
		Developer: a.session.DeveloperName,
		Fields:    input.Fields,
		Draft:     input.Draft,
		Now:       a.now(),
	})
}

// UpdateProject edits the settings of one of the session developer's
// projects.
func (a *App) UpdateProject(ctx context.Context, projectID string, fields service.ProjectFields) (*domain.Project, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.requireRole(domain.RoleDeveloper); err != nil {
		return nil, err
	}
	return a.projects.UpdateSettings(ctx, service.UpdateProjectInput{
		ProjectID: projectID,
		Developer: a.session.DeveloperName,
		Fields:    fields,
	})
}

// PayoutMethodInput contains a payout destination change.
type PayoutMethodInput struct {
	Kind  domain.PayoutMethodKind
	Email string
	Code  string
}

// UpdatePayoutMethod changes the session developer's payout destination.
func (a *App) UpdatePayoutMethod(ctx context.Context, input PayoutMethodInput) (*domain.PayoutMethod, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.requireRole(domain.RoleDeveloper); err != nil {
		return nil, err
	}
	return a.payouts.UpdatePayoutMethod(ctx, service.UpdatePayoutMethodInput{
		Developer: a.session.DeveloperName,
		Kind:      input.Kind,
		Email:     input.Email,
		Code:      input.Code,
	})
}
