package dto

import (
	"net/http"

	"github.com/pharmstock/backend/internal/domain/shared"
)

// Wire-level error codes. Every error response carries exactly one of these
// in its envelope; clients are expected to branch on the code, never on the
// message text.
const (
	// Request and validation problems.
	ErrCodeValidation      = "ERR_VALIDATION"
	ErrCodeBadRequest      = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput    = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON     = "ERR_INVALID_JSON"
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"

	// Resource state.
	ErrCodeNotFound      = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	ErrCodeConflict      = "ERR_CONFLICT"

	// Stock rules.
	ErrCodeInsufficientStock = "ERR_INSUFFICIENT_STOCK"

	// Server-side failures.
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"
)

// statusByCode fixes the HTTP status the API contract promises for each wire
// code.
var statusByCode = map[string]int{
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeAlreadyExists: http.StatusConflict,
	ErrCodeConflict:      http.StatusConflict,

	ErrCodeInsufficientStock: http.StatusUnprocessableEntity,

	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,
}

// GetHTTPStatus returns the status for a wire code. Unknown codes resolve to
// 500 so a missing map entry can never weaken an error into a 2xx.
func GetHTTPStatus(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// domainCodeMapping translates the codes raised by the domain layer into
// their wire form.
var domainCodeMapping = map[string]string{
	shared.CodeValidation:        ErrCodeValidation,
	shared.CodeNotFound:          ErrCodeNotFound,
	shared.CodeConflict:          ErrCodeConflict,
	shared.CodeInsufficientStock: ErrCodeInsufficientStock,
}

// NormalizeErrorCode maps a domain error code to its wire form. Codes
// already in wire form, and codes without a mapping, pass through unchanged.
func NormalizeErrorCode(code string) string {
	if wire, ok := domainCodeMapping[code]; ok {
		return wire
	}
	return code
}
