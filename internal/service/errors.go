// Package service provides business logic services for DeveHub.
package service

import "errors"

// Common service errors.
var (
	// License errors
	ErrNotOwned     = errors.New("no active license for this project")
	ErrKeyExhausted = errors.New("could not allocate a unique license key")

	// Project errors
	ErrInvalidDirection = errors.New("invalid direction: must be up or down")
	ErrEmptyFeedback    = errors.New("feedback message is empty")

	// Payout errors
	ErrInvalidPayoutMethod     = errors.New("invalid payout method: must be stripe or paypal")
	ErrInvalidEmail            = errors.New("invalid email format")
	ErrInvalidVerificationCode = errors.New("invalid verification code")
	ErrCycleInProgress         = errors.New("payout cycle already running")

	// General errors
	ErrInternalError = errors.New("internal server error")
)
