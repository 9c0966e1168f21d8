package app

import (
	"context"
	"errors"
	"strings"

	"github.com/prn-tf/devehub/internal/domain"
	"github.com/prn-tf/devehub/internal/ledger"
	"github.com/prn-tf/devehub/internal/navigation"
	"github.com/prn-tf/devehub/internal/service"
)

// visibleLocked reports whether the session may open a project. Unlisted
// projects are reachable only by their own developer.
func (a *App) visibleLocked(p *domain.Project) bool {
	if p.IsListed() {
		return true
	}
	return a.session.Role == domain.RoleDeveloper && p.DeveloperName == a.session.DeveloperName
}

// getVisibleLocked loads a project the session may open.
func (a *App) getVisibleLocked(ctx context.Context, projectID string) (*domain.Project, error) {
	project, err := a.projects.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !a.visibleLocked(project) {
		return nil, domain.NewDomainError(domain.ErrProjectNotFound, "project is not listed", projectID)
	}
	return project, nil
}

// SelectProject opens the product page of a project. An unknown or
// unlisted project leaves the selection untouched and lands on the
// marketplace.
func (a *App) SelectProject(ctx context.Context, projectID string) (navigation.Location, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	project, err := a.getVisibleLocked(ctx, projectID)
	if errors.Is(err, domain.ErrProjectNotFound) {
		return a.navigateLocked(navigation.ViewMarketplace), nil
	}
	if err != nil {
		return navigation.Location{}, err
	}

	a.selectedID = project.ID
	return a.navigateLocked(navigation.ViewProductDetail), nil
}

// Purchase buys a lifetime license for the session identity. Signed-out
// callers are sent to login. Free projects are issued immediately; paid
// ones after the simulated payment delay. On completion the project is
// selected and the view becomes checkout-success.
func (a *App) Purchase(ctx context.Context, projectID string) (*Pending, error) {
	a.mu.Lock()
	if !a.session.Role.SignedIn() {
		a.navigateLocked(navigation.ViewLogin)
		a.mu.Unlock()
		return nil, domain.ErrLoginRequired
	}

	project, err := a.getVisibleLocked(ctx, projectID)
	if errors.Is(err, domain.ErrProjectNotFound) {
		a.navigateLocked(navigation.ViewMarketplace)
	}
	if err != nil {
		a.mu.Unlock()
		return nil, err
	}

	email := a.session.Email
	owned, err := a.licenses.ListForCustomer(ctx, email)
	if err != nil {
		a.mu.Unlock()
		return nil, err
	}
	if ledger.Owns(project.ID, email, owned) {
		a.mu.Unlock()
		return nil, domain.NewDomainError(domain.ErrAlreadyOwned, project.Name, project.ID)
	}

	a.selectedID = project.ID
	owner := a.router.Current()
	a.mu.Unlock()

	delay := a.cfg.PurchaseDelay
	if project.PricingTier == domain.TierFree {
		delay = 0
	}

	bg := context.WithoutCancel(ctx)
	return a.schedule(KindPurchase, owner, delay, func(e *taskEntry) error {
		out, err := a.licenses.Purchase(bg, service.PurchaseInput{
			ProjectID: project.ID,
			Email:     email,
			Now:       a.now(),
		})
		if err != nil {
			return err
		}

		a.selectedID = out.Project.ID
		a.lastLicense = out.License
		a.navigateLocked(navigation.ViewCheckoutSuccess)
		e.result = out.License
		return nil
	}), nil
}

// Refund refunds a license of the session identity.
func (a *App) Refund(ctx context.Context, licenseID string) (*domain.License, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.session.Role.SignedIn() {
		return nil, domain.ErrLoginRequired
	}
	return a.licenses.Refund(ctx, service.RefundInput{
		LicenseID: licenseID,
		Email:     a.session.Email,
		Now:       a.now(),
	})
}

// Launch returns where to open an owned project.
func (a *App) Launch(ctx context.Context, projectID string) (*service.LaunchOutput, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.session.Role.SignedIn() {
		return nil, domain.ErrLoginRequired
	}
	return a.projects.Launch(ctx, service.LaunchInput{ProjectID: projectID, Email: a.session.Email})
}

// Receipt returns the receipt of a license of the session identity.
func (a *App) Receipt(ctx context.Context, licenseID string) (*service.Receipt, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.session.Role.SignedIn() {
		return nil, domain.ErrLoginRequired
	}
	return a.licenses.Receipt(ctx, service.ReceiptInput{LicenseID: licenseID, Email: a.session.Email})
}

// Feedback sends a message to a project's developer after the simulated
// delivery delay.
func (a *App) Feedback(ctx context.Context, projectID, message string) (*Pending, error) {
	a.mu.Lock()
	if !a.session.Role.SignedIn() {
		a.mu.Unlock()
		return nil, domain.ErrLoginRequired
	}
	if strings.TrimSpace(message) == "" {
		a.mu.Unlock()
		return nil, service.ErrEmptyFeedback
	}
	if _, err := a.getVisibleLocked(ctx, projectID); err != nil {
		a.mu.Unlock()
		return nil, err
	}
	email := a.session.Email
	owner := a.router.Current()
	a.mu.Unlock()

	bg := context.WithoutCancel(ctx)
	return a.schedule(KindFeedback, owner, a.cfg.FeedbackDelay, func(e *taskEntry) error {
		out, err := a.projects.Feedback(bg, service.FeedbackInput{
			ProjectID: projectID,
			Email:     email,
			Message:   message,
		})
		if err != nil {
			return err
		}
		e.result = out
		return nil
	}), nil
}
