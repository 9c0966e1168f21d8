package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prn-tf/devehub/internal/domain"
	"github.com/prn-tf/devehub/internal/ledger"
	"github.com/prn-tf/devehub/internal/metrics"
	"github.com/prn-tf/devehub/internal/pkg/crypto"
	"github.com/prn-tf/devehub/internal/repository"
)

// maxKeyAttempts bounds the retries when a generated key collides.
const maxKeyAttempts = 16

// ReceiptLayout is the long date format printed on receipts.
const ReceiptLayout = "January 2, 2006"

// LicenseService handles license issuance and refunds.
type LicenseService struct {
	projectRepo repository.ProjectRepository
	licenseRepo repository.LicenseRepository
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewLicenseService creates a new LicenseService.
func NewLicenseService(
	projectRepo repository.ProjectRepository,
	licenseRepo repository.LicenseRepository,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *LicenseService {
	return &LicenseService{
		projectRepo: projectRepo,
		licenseRepo: licenseRepo,
		metrics:     m,
		logger:      logger.With().Str("service", "license").Logger(),
	}
}

// PurchaseInput contains the data needed to issue a license.
type PurchaseInput struct {
	ProjectID string
	Email     string
	Now       time.Time
}

// PurchaseOutput contains the issued license and the updated project.
type PurchaseOutput struct {
	License *domain.License
	Project *domain.Project
}

// Purchase issues a lifetime license for a project and records the sale.
func (s *LicenseService) Purchase(ctx context.Context, input PurchaseInput) (*PurchaseOutput, error) {
	if input.Email == "" {
		return nil, domain.ErrLoginRequired
	}

	project, err := s.projectRepo.GetByID(ctx, input.ProjectID)
	if err != nil {
		return nil, s.lookupError(err, "failed to get project", input.ProjectID)
	}

	owned, err := s.licenseRepo.ListByCustomer(ctx, input.Email)
	if err != nil {
		s.logger.Error().Err(err).Str("email", input.Email).Msg("failed to list licenses")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if ledger.Owns(project.ID, input.Email, owned) {
		return nil, domain.NewDomainError(domain.ErrAlreadyOwned, project.Name, project.ID)
	}

	license, err := s.issue(ctx, project, input.Email, input.Now)
	if err != nil {
		return nil, err
	}

	if err := s.projectRepo.RecordSale(ctx, project.ID, license.Amount); err != nil {
		s.logger.Error().Err(err).Str("project_id", project.ID).Msg("failed to record sale")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	project.Sales++
	project.Revenue += license.Amount

	s.metrics.RecordLicenseIssued(string(project.PricingTier), license.Amount.Cents())

	s.logger.Info().
		Str("license_id", license.ID).
		Str("key", license.Key).
		Str("project_id", project.ID).
		Str("email", input.Email).
		Stringer("amount", license.Amount).
		Msg("License issued")

	return &PurchaseOutput{License: license, Project: project}, nil
}

// issue allocates a unique key and stores the license.
func (s *LicenseService) issue(ctx context.Context, project *domain.Project, email string, now time.Time) (*domain.License, error) {
	for attempt := 0; attempt < maxKeyAttempts; attempt++ {
		number, err := crypto.GenerateLicenseNumber()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
		}
		key := domain.FormatLicenseKey(number, project.Name, true)

		exists, err := s.licenseRepo.ExistsByKey(ctx, key)
		if err != nil {
			s.logger.Error().Err(err).Msg("failed to check license key")
			return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
		}
		if exists {
			continue
		}

		license := domain.NewLicense(uuid.NewString(), key, project, email, now)
		err = s.licenseRepo.Create(ctx, license)
		if errors.Is(err, repository.ErrDuplicateKey) {
			continue
		}
		if err != nil {
			s.logger.Error().Err(err).Msg("failed to create license")
			return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
		}
		return license, nil
	}
	return nil, ErrKeyExhausted
}

// RefundInput contains the data needed for a purchaser refund.
type RefundInput struct {
	LicenseID string
	Email     string
	Now       time.Time
}

// Refund lets a purchaser refund their own license inside the refund window,
// once per project.
func (s *LicenseService) Refund(ctx context.Context, input RefundInput) (*domain.License, error) {
	license, err := s.licenseRepo.GetByID(ctx, input.LicenseID)
	if err != nil {
		return nil, s.lookupError(err, "failed to get license", input.LicenseID)
	}

	if !license.BelongsTo(input.Email) {
		return nil, domain.NewDomainError(domain.ErrForbidden, "license belongs to another purchaser", license.ID)
	}
	if license.IsRefunded() {
		return nil, domain.NewDomainError(domain.ErrAlreadyRefunded, license.Key, license.ID)
	}
	if !license.WithinRefundWindow(input.Now) {
		return nil, domain.NewDomainError(domain.ErrRefundWindowClosed,
			"deadline was "+domain.FormatDate(license.RefundDeadline()), license.ID)
	}

	history, err := s.licenseRepo.ListByCustomer(ctx, input.Email)
	if err != nil {
		s.logger.Error().Err(err).Str("email", input.Email).Msg("failed to list licenses")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if ledger.PreviouslyRefunded(license.ProjectID, input.Email, history) {
		return nil, domain.NewDomainError(domain.ErrRefundLimitReached, license.ProjectName, license.ID)
	}

	return s.markRefunded(ctx, license.ID, "purchaser")
}

// ForceRefund refunds any active license regardless of window or history.
func (s *LicenseService) ForceRefund(ctx context.Context, licenseID string) (*domain.License, error) {
	if _, err := s.licenseRepo.GetByID(ctx, licenseID); err != nil {
		return nil, s.lookupError(err, "failed to get license", licenseID)
	}
	return s.markRefunded(ctx, licenseID, "admin")
}

func (s *LicenseService) markRefunded(ctx context.Context, licenseID, initiator string) (*domain.License, error) {
	license, err := s.licenseRepo.MarkRefunded(ctx, licenseID)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyRefunded) {
			return nil, domain.NewDomainError(domain.ErrAlreadyRefunded, "", licenseID)
		}
		return nil, s.lookupError(err, "failed to refund license", licenseID)
	}

	s.metrics.RecordRefund(initiator)

	s.logger.Info().
		Str("license_id", license.ID).
		Str("project_id", license.ProjectID).
		Str("initiator", initiator).
		Stringer("amount", license.Amount).
		Msg("License refunded")

	return license, nil
}

// Get retrieves a license by ID.
func (s *LicenseService) Get(ctx context.Context, licenseID string) (*domain.License, error) {
	license, err := s.licenseRepo.GetByID(ctx, licenseID)
	if err != nil {
		return nil, s.lookupError(err, "failed to get license", licenseID)
	}
	return license, nil
}

// List returns every license, most recent first.
func (s *LicenseService) List(ctx context.Context) ([]*domain.License, error) {
	licenses, err := s.licenseRepo.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list licenses")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return licenses, nil
}

// ListForCustomer returns the purchaser's licenses, most recent first.
func (s *LicenseService) ListForCustomer(ctx context.Context, email string) ([]*domain.License, error) {
	licenses, err := s.licenseRepo.ListByCustomer(ctx, email)
	if err != nil {
		s.logger.Error().Err(err).Str("email", email).Msg("failed to list licenses")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return licenses, nil
}

// Receipt is the printable proof of a purchase.
type Receipt struct {
	Number  string               `json:"number"`
	Date    string               `json:"date"`
	BillTo  string               `json:"bill_to"`
	Item    string               `json:"item"`
	Key     string               `json:"key"`
	Type    string               `json:"type"`
	Total   domain.Money         `json:"total"`
	Status  domain.LicenseStatus `json:"status"`
	Project string               `json:"project_id"`
}

// ReceiptInput identifies the license and the requesting purchaser.
type ReceiptInput struct {
	LicenseID string
	Email     string
}

// Receipt builds the receipt of a license owned by the requester.
func (s *LicenseService) Receipt(ctx context.Context, input ReceiptInput) (*Receipt, error) {
	license, err := s.licenseRepo.GetByID(ctx, input.LicenseID)
	if err != nil {
		return nil, s.lookupError(err, "failed to get license", input.LicenseID)
	}
	if !license.BelongsTo(input.Email) {
		return nil, domain.NewDomainError(domain.ErrForbidden, "license belongs to another purchaser", license.ID)
	}

	return &Receipt{
		Number:  license.ID,
		Date:    license.PaymentDate.Format(ReceiptLayout),
		BillTo:  input.Email,
		Item:    license.ProjectName,
		Key:     license.Key,
		Type:    "Lifetime License",
		Total:   license.Amount,
		Status:  license.Status,
		Project: license.ProjectID,
	}, nil
}

// lookupError passes not-found domain errors through and wraps the rest.
func (s *LicenseService) lookupError(err error, msg, id string) error {
	if errors.Is(err, domain.ErrLicenseNotFound) || errors.Is(err, domain.ErrProjectNotFound) {
		return err
	}
	s.logger.Error().Err(err).Str("id", id).Msg(msg)
	return fmt.Errorf("%w: %v", ErrInternalError, err)
}
