package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/devehub/internal/domain"
	"github.com/prn-tf/devehub/internal/ledger"
	"github.com/prn-tf/devehub/internal/lock"
	"github.com/prn-tf/devehub/internal/metrics"
	"github.com/prn-tf/devehub/internal/pkg/crypto"
	"github.com/prn-tf/devehub/internal/repository"
)

// PayoutService computes payout summaries and runs the payout cycle.
type PayoutService struct {
	projectRepo repository.ProjectRepository
	licenseRepo repository.LicenseRepository
	locker      lock.Locker
	metrics     *metrics.Metrics
	logger      zerolog.Logger
	config      PayoutConfig

	mu      sync.RWMutex
	methods map[string]domain.PayoutMethod
}

// PayoutConfig contains payout service configuration.
type PayoutConfig struct {
	// LockTTL bounds how long a cycle run may hold the cycle lock.
	LockTTL time.Duration

	// VerificationCodeHash is the bcrypt hash of the code that confirms
	// payout method changes.
	VerificationCodeHash string
}

// DefaultPayoutConfig returns sensible defaults.
func DefaultPayoutConfig() PayoutConfig {
	return PayoutConfig{
		LockTTL: 5 * time.Minute,
	}
}

// NewPayoutService creates a new PayoutService.
func NewPayoutService(
	projectRepo repository.ProjectRepository,
	licenseRepo repository.LicenseRepository,
	locker lock.Locker,
	m *metrics.Metrics,
	logger zerolog.Logger,
	config PayoutConfig,
) *PayoutService {
	return &PayoutService{
		projectRepo: projectRepo,
		licenseRepo: licenseRepo,
		locker:      locker,
		metrics:     m,
		logger:      logger.With().Str("service", "payout").Logger(),
		config:      config,
		methods:     make(map[string]domain.PayoutMethod),
	}
}

// DeveloperSummary is a developer's payout position.
type DeveloperSummary struct {
	Developer      string                 `json:"developer"`
	Pending        domain.Money           `json:"pending"`
	Sales          int                    `json:"sales"`
	Refunds        int                    `json:"refunds"`
	Gross          domain.Money           `json:"gross"`
	NextPayoutDate time.Time              `json:"next_payout_date"`
	Projects       []ledger.ProjectPayout `json:"projects"`
	Licenses       []*domain.License      `json:"licenses"`
	Method         *domain.PayoutMethod   `json:"method,omitempty"`
}

// DeveloperSummary summarises the payouts of every project listed by developer.
func (s *PayoutService) DeveloperSummary(ctx context.Context, developer string, now time.Time) (*DeveloperSummary, error) {
	projects, err := s.projectRepo.ListByDeveloper(ctx, developer)
	if err != nil {
		s.logger.Error().Err(err).Str("developer", developer).Msg("failed to list projects")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	ids := make([]string, 0, len(projects))
	for _, p := range projects {
		ids = append(ids, p.ID)
	}
	licenses, err := s.licenseRepo.ListByProjects(ctx, ids)
	if err != nil {
		s.logger.Error().Err(err).Str("developer", developer).Msg("failed to list licenses")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	var method *domain.PayoutMethod
	if m, ok := s.PayoutMethod(developer); ok {
		method = &m
	}
	return Developer(developer, projects, licenses, method, now), nil
}

// Developer computes a developer's payout position from a snapshot of their
// projects and the licenses issued for them.
func Developer(developer string, projects []*domain.Project, licenses []*domain.License, method *domain.PayoutMethod, now time.Time) *DeveloperSummary {
	refunds := ledger.RefundedCount(licenses)
	return &DeveloperSummary{
		Developer:      developer,
		Pending:        ledger.PendingPayout(licenses),
		Sales:          len(licenses) - refunds,
		Refunds:        refunds,
		Gross:          ledger.ActiveRevenue(licenses),
		NextPayoutDate: ledger.NextPayoutDate(now),
		Projects:       ledger.ProjectPayouts(projects, licenses, now),
		Licenses:       licenses,
		Method:         method,
	}
}

// PlatformSummary is the administrator's financial overview.
type PlatformSummary struct {
	ActiveRevenue      domain.Money            `json:"active_revenue"`
	RefundedAmount     domain.Money            `json:"refunded_amount"`
	RefundedCount      int                     `json:"refunded_count"`
	PlatformFees       domain.Money            `json:"platform_fees"`
	PendingTotal       domain.Money            `json:"pending_total"`
	PendingByDeveloper map[string]domain.Money `json:"pending_by_developer"`
	Licenses           int                     `json:"licenses"`
	NextPayoutDate     time.Time               `json:"next_payout_date"`
}

// PlatformSummary computes the platform-wide aggregates.
func (s *PayoutService) PlatformSummary(ctx context.Context, now time.Time) (*PlatformSummary, error) {
	projects, err := s.projectRepo.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list projects")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	licenses, err := s.licenseRepo.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list licenses")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return Platform(projects, licenses, now), nil
}

// Platform computes the platform-wide aggregates from a snapshot.
func Platform(projects []*domain.Project, licenses []*domain.License, now time.Time) *PlatformSummary {
	return &PlatformSummary{
		ActiveRevenue:      ledger.ActiveRevenue(licenses),
		RefundedAmount:     ledger.RefundedAmount(licenses),
		RefundedCount:      ledger.RefundedCount(licenses),
		PlatformFees:       ledger.PlatformFees(licenses),
		PendingTotal:       ledger.PendingPayout(licenses),
		PendingByDeveloper: ledger.PendingPayoutsByDeveloper(projects, licenses),
		Licenses:           len(licenses),
		NextPayoutDate:     ledger.NextPayoutDate(now),
	}
}

// CycleResult contains the result of a payout cycle run.
type CycleResult struct {
	RanAt    time.Time `json:"ran_at"`
	Released int       `json:"released"`
	Settled  int       `json:"settled"`

	// PayoutDay reports whether ready payouts were settled in this run.
	PayoutDay bool `json:"payout_day"`

	Errors int `json:"errors"`
}

// RunCycle releases every pending payout whose hold has elapsed and, on a
// payout day, settles every ready payout. Cancelled payouts are never
// touched. Only one run may be in progress at a time.
func (s *PayoutService) RunCycle(ctx context.Context, now time.Time) (*CycleResult, error) {
	key := lock.Keys.PayoutCycle()
	acquired, err := s.locker.Acquire(ctx, key, s.config.LockTTL)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to acquire payout cycle lock")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if !acquired {
		return nil, ErrCycleInProgress
	}
	defer func() {
		if _, err := s.locker.Release(context.Background(), key); err != nil {
			s.logger.Warn().Err(err).Msg("failed to release payout cycle lock")
		}
	}()

	licenses, err := s.licenseRepo.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list licenses")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	result := &CycleResult{RanAt: now, PayoutDay: ledger.IsPayoutDay(now)}

	for _, l := range licenses {
		if l.IsRefunded() || l.PayoutStatus != domain.PayoutPending || !l.HoldElapsed(now) {
			continue
		}
		if s.transition(ctx, l, domain.PayoutReady, result) {
			result.Released++
		}
	}
	s.metrics.RecordPayoutRun("release", string(domain.PayoutReady), result.Released)

	if result.PayoutDay {
		for _, l := range licenses {
			if l.IsRefunded() || l.PayoutStatus != domain.PayoutReady {
				continue
			}
			if s.transition(ctx, l, domain.PayoutPaid, result) {
				result.Settled++
			}
		}
		s.metrics.RecordPayoutRun("settle", string(domain.PayoutPaid), result.Settled)
	}

	s.logger.Info().
		Time("ran_at", now).
		Int("released", result.Released).
		Int("settled", result.Settled).
		Bool("payout_day", result.PayoutDay).
		Int("errors", result.Errors).
		Msg("Payout cycle completed")

	return result, nil
}

// transition moves l to the target status and mirrors it on the local copy.
func (s *PayoutService) transition(ctx context.Context, l *domain.License, to domain.PayoutStatus, result *CycleResult) bool {
	err := s.licenseRepo.UpdatePayoutStatus(ctx, l.ID, l.PayoutStatus, to)
	switch {
	case err == nil:
		l.PayoutStatus = to
		return true
	case errors.Is(err, repository.ErrStaleState), errors.Is(err, domain.ErrLicenseNotFound):
		s.logger.Debug().Str("license_id", l.ID).Msg("license changed during payout cycle")
	default:
		result.Errors++
		s.logger.Error().Err(err).Str("license_id", l.ID).Str("to", string(to)).Msg("failed to update payout status")
	}
	return false
}

// UpdatePayoutMethodInput contains the data needed to change a payout method.
type UpdatePayoutMethodInput struct {
	Developer string
	Kind      domain.PayoutMethodKind
	Email     string

	// Code is the verification code sent to the developer.
	Code string
}

// UpdatePayoutMethod stores a developer's payout destination once the
// verification code matches.
func (s *PayoutService) UpdatePayoutMethod(ctx context.Context, input UpdatePayoutMethodInput) (*domain.PayoutMethod, error) {
	if input.Developer == "" {
		return nil, domain.ErrLoginRequired
	}
	if !input.Kind.Valid() {
		return nil, ErrInvalidPayoutMethod
	}
	email := strings.TrimSpace(input.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}
	if err := crypto.VerifyCode(s.config.VerificationCodeHash, input.Code); err != nil {
		if errors.Is(err, crypto.ErrCodeMismatch) {
			return nil, ErrInvalidVerificationCode
		}
		s.logger.Error().Err(err).Msg("failed to verify code")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	method := domain.PayoutMethod{Kind: input.Kind, Email: email}

	s.mu.Lock()
	s.methods[input.Developer] = method
	s.mu.Unlock()

	s.logger.Info().
		Str("developer", input.Developer).
		Str("kind", string(method.Kind)).
		Msg("Payout method updated")

	return &method, nil
}

// PayoutMethod returns a developer's payout destination.
func (s *PayoutService) PayoutMethod(developer string) (domain.PayoutMethod, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.methods[developer]
	return m, ok
}
