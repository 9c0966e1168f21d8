package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/prn-tf/devehub/internal/deferred"
	"github.com/prn-tf/devehub/internal/domain"
	"github.com/prn-tf/devehub/internal/navigation"
	"github.com/prn-tf/devehub/internal/service"
)

// =============================================================================
// Response Bodies
// =============================================================================

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Status string       `json:"status"`
	Error  ErrorPayload `json:"error"`
}

// ErrorPayload describes a failed request.
type ErrorPayload struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// APIError is an HTTP-mapped failure.
type APIError struct {
	Code           string
	Message        string
	HTTPStatusCode int
}

// Error implements the error interface.
func (e APIError) Error() string {
	return e.Code + ": " + e.Message
}

// Common API errors.
var (
	ErrBadRequestBody = APIError{
		Code:           "InvalidRequestBody",
		Message:        "The request body is not valid JSON.",
		HTTPStatusCode: http.StatusBadRequest,
	}
	ErrNoSuchTask = APIError{
		Code:           "NoSuchTask",
		Message:        "The task does not exist or has expired.",
		HTTPStatusCode: http.StatusNotFound,
	}
	ErrTooManyRequests = APIError{
		Code:           "TooManyRequests",
		Message:        "Request rate exceeded.",
		HTTPStatusCode: http.StatusTooManyRequests,
	}
	ErrInternal = APIError{
		Code:           "InternalError",
		Message:        "We encountered an internal error. Please try again.",
		HTTPStatusCode: http.StatusInternalServerError,
	}
)

// =============================================================================
// Writers
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, apiErr APIError) {
	writeJSON(w, apiErr.HTTPStatusCode, ErrorResponse{
		Status: "error",
		Error: ErrorPayload{
			Code:      apiErr.Code,
			Message:   apiErr.Message,
			RequestID: middleware.GetReqID(r.Context()),
		},
	})
}

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return ErrBadRequestBody
	}
	return nil
}

// mapError converts domain and service errors to API errors.
func mapError(err error) APIError {
	var apiErr APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	status, code := http.StatusInternalServerError, "InternalError"
	switch {
	case errors.Is(err, domain.ErrProjectNotFound):
		status, code = http.StatusNotFound, "NoSuchProject"
	case errors.Is(err, domain.ErrLicenseNotFound):
		status, code = http.StatusNotFound, "NoSuchLicense"
	case errors.Is(err, domain.ErrUserNotFound):
		status, code = http.StatusNotFound, "NoSuchUser"

	case errors.Is(err, domain.ErrLoginRequired):
		status, code = http.StatusUnauthorized, "LoginRequired"
	case errors.Is(err, domain.ErrForbidden):
		status, code = http.StatusForbidden, "Forbidden"
	case errors.Is(err, service.ErrInvalidVerificationCode):
		status, code = http.StatusForbidden, "InvalidVerificationCode"

	case errors.Is(err, domain.ErrAlreadyOwned):
		status, code = http.StatusConflict, "AlreadyOwned"
	case errors.Is(err, domain.ErrAlreadyRefunded):
		status, code = http.StatusConflict, "AlreadyRefunded"
	case errors.Is(err, domain.ErrRefundLimitReached):
		status, code = http.StatusConflict, "RefundLimitReached"
	case errors.Is(err, domain.ErrUserNotDeletable):
		status, code = http.StatusConflict, "UserNotDeletable"
	case errors.Is(err, service.ErrCycleInProgress):
		status, code = http.StatusConflict, "PayoutCycleInProgress"
	case errors.Is(err, service.ErrNotOwned):
		status, code = http.StatusConflict, "NotOwned"
	case errors.Is(err, deferred.ErrCancelled):
		status, code = http.StatusConflict, "TaskCancelled"

	case errors.Is(err, domain.ErrRefundWindowClosed):
		status, code = http.StatusBadRequest, "RefundWindowClosed"
	case errors.Is(err, domain.ErrConfirmationRequired):
		status, code = http.StatusBadRequest, "ConfirmationRequired"
	case errors.Is(err, domain.ErrInvalidCredential):
		status, code = http.StatusBadRequest, "InvalidCredential"

	case errors.Is(err, domain.ErrInvalidRole),
		errors.Is(err, navigation.ErrUnknownView),
		errors.Is(err, domain.ErrInvalidPricingTier),
		errors.Is(err, domain.ErrInvalidProjectStatus),
		errors.Is(err, domain.ErrInvalidAppType),
		errors.Is(err, domain.ErrInvalidInterval),
		errors.Is(err, domain.ErrTooManyCategories),
		errors.Is(err, domain.ErrTooManyImages),
		errors.Is(err, service.ErrInvalidDirection),
		errors.Is(err, service.ErrEmptyFeedback),
		errors.Is(err, service.ErrInvalidPayoutMethod),
		errors.Is(err, service.ErrInvalidEmail):
		status, code = http.StatusUnprocessableEntity, "ValidationFailed"

	default:
		return ErrInternal
	}

	return APIError{Code: code, Message: err.Error(), HTTPStatusCode: status}
}
