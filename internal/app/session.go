package app

import (
	"strings"

	"github.com/prn-tf/devehub/internal/domain"
	"github.com/prn-tf/devehub/internal/navigation"
)

// Login signs in with credential after the simulated login delay. The role
// is derived from the credential and the session lands on its home view.
// Leaving the requesting view before the delay elapses cancels the login.
func (a *App) Login(credential string) (*Pending, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return nil, domain.ErrInvalidCredential
	}

	a.mu.Lock()
	owner := a.router.Current()
	a.mu.Unlock()

	return a.schedule(KindLogin, owner, a.cfg.LoginDelay, func(e *taskEntry) error {
		a.signInLocked(navigation.RoleForCredential(credential), credential)
		e.result = a.stateLocked()
		return nil
	}), nil
}

// AdminEnter signs in as the platform administrator immediately.
func (a *App) AdminEnter() State {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.signInLocked(domain.RoleAdmin, a.cfg.AdminEmail)
	return a.stateLocked()
}

func (a *App) signInLocked(role domain.Role, email string) {
	a.session = Session{Role: role, Email: email}
	if role == domain.RoleDeveloper {
		a.session.DeveloperName = a.cfg.DeveloperName
	}
	a.navigateLocked(navigation.HomeView(role))

	a.logger.Info().
		Str("role", role.String()).
		Str("email", email).
		Msg("Signed in")
}

// Logout clears the session, cancels every pending task and returns to the
// marketplace.
func (a *App) Logout() State {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.scheduler.CancelAll()
	a.session = Session{}
	a.selectedID = ""
	a.lastLicense = nil
	a.navigateLocked(navigation.ViewMarketplace)

	a.logger.Info().Msg("Signed out")
	return a.stateLocked()
}

// Impersonate switches an administrator to another role. The identity is
// kept and the switch is one-way.
func (a *App) Impersonate(role domain.Role) (State, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !navigation.CanImpersonate(a.session.Role) {
		return State{}, a.requireRole(domain.RoleAdmin)
	}
	if !role.SignedIn() {
		return State{}, domain.NewDomainError(domain.ErrInvalidRole, "cannot impersonate a signed-out role", "")
	}

	from := a.session.Role
	a.session.Role = role
	a.session.DeveloperName = ""
	if role == domain.RoleDeveloper {
		a.session.DeveloperName = a.cfg.DeveloperName
	}
	a.navigateLocked(navigation.HomeView(role))

	a.logger.Info().
		Str("from", from.String()).
		Str("to", role.String()).
		Str("email", a.session.Email).
		Msg("Role impersonated")
	return a.stateLocked(), nil
}

// BecomeDeveloper upgrades a buyer to the developer console.
func (a *App) BecomeDeveloper() (State, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.requireRole(domain.RoleBuyer); err != nil {
		return State{}, err
	}
	a.session.Role = domain.RoleDeveloper
	a.session.DeveloperName = a.cfg.DeveloperName
	a.navigateLocked(navigation.ViewDashboard)

	a.logger.Info().Str("email", a.session.Email).Msg("Buyer became developer")
	return a.stateLocked(), nil
}

// Home navigates to the home view of the current role.
func (a *App) Home() navigation.Location {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.navigateLocked(navigation.HomeView(a.session.Role))
}
