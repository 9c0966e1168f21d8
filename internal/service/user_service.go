package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/devehub/internal/domain"
	"github.com/prn-tf/devehub/internal/metrics"
	"github.com/prn-tf/devehub/internal/repository"
)

// UserService handles user lifecycle operations.
type UserService struct {
	userRepo repository.UserRepository
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.UserRepository, m *metrics.Metrics, logger zerolog.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		metrics:  m,
		logger:   logger.With().Str("service", "user").Logger(),
	}
}

// DeleteUserInput contains the data needed to delete a user.
type DeleteUserInput struct {
	UserID string

	// Confirmed must be set; deletion is irreversible.
	Confirmed bool

	Now time.Time
}

// Delete removes a user that passes the lifecycle deletion check.
func (s *UserService) Delete(ctx context.Context, input DeleteUserInput) error {
	if !input.Confirmed {
		return domain.NewDomainError(domain.ErrConfirmationRequired, "user deletion", input.UserID)
	}

	user, err := s.userRepo.GetByID(ctx, input.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return err
		}
		s.logger.Error().Err(err).Str("user_id", input.UserID).Msg("failed to get user")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if !user.Deletable(input.Now) {
		reason := "user logged in within the last 6 months"
		if user.HasAssets() {
			reason = "user has purchases or uploads"
		}
		return domain.NewDomainError(domain.ErrUserNotDeletable, reason, user.ID)
	}

	if err := s.userRepo.Delete(ctx, user.ID); err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("failed to delete user")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.metrics.RecordUserDeleted()

	s.logger.Info().
		Str("user_id", user.ID).
		Str("email", user.Email).
		Time("last_login", user.LastLogin).
		Msg("User deleted")

	return nil
}

// List returns every user.
func (s *UserService) List(ctx context.Context) ([]*domain.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list users")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return users, nil
}
