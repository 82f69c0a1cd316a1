// Package errors provides custom error types for the bondfolio API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// Calculation errors raised by the fixed-income engine.
var (
	ErrInvalidDateRange     = &AppError{Code: "INVALID_DATE_RANGE", Message: "End date must be after start date", StatusCode: http.StatusBadRequest}
	ErrInvalidPrice         = &AppError{Code: "INVALID_PRICE", Message: "Price must be positive", StatusCode: http.StatusBadRequest}
	ErrInvalidTerms         = &AppError{Code: "INVALID_TERMS", Message: "Invalid security terms", StatusCode: http.StatusBadRequest}
	ErrSettlementOutOfRange = &AppError{Code: "SETTLEMENT_OUT_OF_RANGE", Message: "Settlement date is outside the life of the security", StatusCode: http.StatusBadRequest}
	ErrYieldNotConverged    = &AppError{Code: "YIELD_NOT_CONVERGED", Message: "Yield calculation did not converge", StatusCode: http.StatusUnprocessableEntity}
	ErrEmptySchedule        = &AppError{Code: "EMPTY_SCHEDULE", Message: "No cash flows remain after the settlement date", StatusCode: http.StatusUnprocessableEntity}
	ErrEmptyPortfolio       = &AppError{Code: "EMPTY_PORTFOLIO", Message: "Portfolio has no holdings with market value", StatusCode: http.StatusUnprocessableEntity}
)

// Security errors.
var (
	ErrSecurityNotFound  = &AppError{Code: "SECURITY_NOT_FOUND", Message: "Security not found", StatusCode: http.StatusNotFound}
	ErrDuplicateSecurity = &AppError{Code: "DUPLICATE_SECURITY", Message: "A security with this name and issuer already exists", StatusCode: http.StatusConflict}
	ErrSecurityInUse     = &AppError{Code: "SECURITY_IN_USE", Message: "Security is held in a portfolio", StatusCode: http.StatusConflict}
)

// Portfolio errors.
var (
	ErrPortfolioNotFound = &AppError{Code: "PORTFOLIO_NOT_FOUND", Message: "Portfolio not found", StatusCode: http.StatusNotFound}
	ErrHoldingNotFound   = &AppError{Code: "HOLDING_NOT_FOUND", Message: "Holding not found", StatusCode: http.StatusNotFound}
)

// Yield curve errors.
var (
	ErrYieldCurveNotFound = &AppError{Code: "YIELD_CURVE_NOT_FOUND", Message: "Yield curve not found", StatusCode: http.StatusNotFound}
)
