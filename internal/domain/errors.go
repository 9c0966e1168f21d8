package domain

import (
	"errors"
	"fmt"
)

// Domain errors - these represent business rule violations.
// They are distinct from infrastructure errors (database, network, etc.).

var (
	// ===========================================
	// Project Errors
	// ===========================================

	// ErrProjectNotFound indicates the requested project does not exist.
	ErrProjectNotFound = errors.New("project not found")

	// ErrInvalidPricingTier indicates an unknown pricing tier.
	ErrInvalidPricingTier = errors.New("invalid pricing tier")

	// ErrInvalidProjectStatus indicates an unknown project lifecycle status.
	ErrInvalidProjectStatus = errors.New("invalid project status")

	// ErrInvalidAppType indicates an unknown application delivery type.
	ErrInvalidAppType = errors.New("invalid app type")

	// ErrInvalidInterval indicates an unknown billing interval.
	ErrInvalidInterval = errors.New("invalid billing interval")

	// ErrTooManyCategories indicates more than MaxCategories category tags.
	ErrTooManyCategories = errors.New("a project can have at most 3 categories")

	// ErrTooManyImages indicates more than MaxImages images.
	ErrTooManyImages = errors.New("a project can have at most 10 images")

	// ===========================================
	// License Errors
	// ===========================================

	// ErrLicenseNotFound indicates the requested license does not exist.
	ErrLicenseNotFound = errors.New("license not found")

	// ErrAlreadyOwned indicates the purchaser already holds an active license.
	ErrAlreadyOwned = errors.New("project is already owned")

	// ErrAlreadyRefunded indicates the license has already been refunded.
	ErrAlreadyRefunded = errors.New("license is already refunded")

	// ErrRefundWindowClosed indicates the 14-day refund window has passed.
	ErrRefundWindowClosed = errors.New("refund window has closed")

	// ErrRefundLimitReached indicates the purchaser already refunded this project once.
	ErrRefundLimitReached = errors.New("project was already refunded once by this purchaser")

	// ===========================================
	// User Errors
	// ===========================================

	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserNotDeletable indicates the user fails the lifecycle deletion check.
	ErrUserNotDeletable = errors.New("user is not eligible for deletion")

	// ErrConfirmationRequired indicates an irreversible action was not confirmed.
	ErrConfirmationRequired = errors.New("explicit confirmation is required")

	// ===========================================
	// Session Errors
	// ===========================================

	// ErrLoginRequired indicates the action needs a signed-in role.
	ErrLoginRequired = errors.New("login required")

	// ErrForbidden indicates the current role may not perform the action.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidRole indicates an unknown role name.
	ErrInvalidRole = errors.New("invalid role")

	// ErrInvalidCredential indicates an empty login credential.
	ErrInvalidCredential = errors.New("invalid credential")
)

// DomainError wraps a domain error with additional context.
type DomainError struct {
	// Err is the underlying domain error.
	Err error

	// Message provides additional context.
	Message string

	// Resource identifies the affected resource (e.g., license ID, project ID).
	Resource string
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Resource != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Err.Error(), e.Message, e.Resource)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error for errors.Is/errors.As.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError with context.
func NewDomainError(err error, message, resource string) *DomainError {
	return &DomainError{
		Err:      err,
		Message:  message,
		Resource: resource,
	}
}

// WrapError wraps an error with domain context if it's not already a DomainError.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return err
	}

	return &DomainError{
		Err:     err,
		Message: message,
	}
}
