package dto

import "net/http"

// Error codes returned in the response envelope. Format: ERR_<DESCRIPTION>

// General error codes
const (
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation and input error codes
const (
	ErrCodeValidation      = "ERR_VALIDATION"
	ErrCodeBadRequest      = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput    = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON     = "ERR_INVALID_JSON"
	ErrCodeInvalidCategory = "ERR_INVALID_CATEGORY"
	ErrCodeBodyTooLarge    = "ERR_BODY_TOO_LARGE"
)

// Authentication error codes
const (
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
)

// Resource error codes
const (
	ErrCodeNotFound       = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists  = "ERR_ALREADY_EXISTS"
	ErrCodeConflict       = "ERR_CONFLICT"
	ErrCodeSyncInProgress = "ERR_SYNC_IN_PROGRESS"
)

// Business rule error codes
const (
	ErrCodeInvalidState        = "ERR_INVALID_STATE"
	ErrCodeInsufficientStock   = "ERR_INSUFFICIENT_STOCK"
	ErrCodeMarketplaceInactive = "ERR_MARKETPLACE_INACTIVE"
)

// Upstream and rate limiting error codes
const (
	ErrCodeMarketplaceUnavailable = "ERR_MARKETPLACE_UNAVAILABLE"
	ErrCodeRateLimited            = "ERR_RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeInvalidCategory: http.StatusBadRequest,
	ErrCodeBodyTooLarge:    http.StatusRequestEntityTooLarge,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	ErrCodeNotFound:       http.StatusNotFound,
	ErrCodeAlreadyExists:  http.StatusConflict,
	ErrCodeConflict:       http.StatusConflict,
	ErrCodeSyncInProgress: http.StatusConflict,

	ErrCodeInvalidState:        http.StatusUnprocessableEntity,
	ErrCodeInsufficientStock:   http.StatusUnprocessableEntity,
	ErrCodeMarketplaceInactive: http.StatusUnprocessableEntity,

	ErrCodeMarketplaceUnavailable: http.StatusBadGateway,
	ErrCodeRateLimited:            http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status for code, or 500 when unknown
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// domainErrorCodes maps shared.DomainError codes to envelope codes
var domainErrorCodes = map[string]string{
	"NOT_FOUND":        ErrCodeNotFound,
	"ALREADY_EXISTS":   ErrCodeAlreadyExists,
	"INVALID_INPUT":    ErrCodeInvalidInput,
	"INVALID_STATE":    ErrCodeInvalidState,
	"INVALID_CATEGORY": ErrCodeInvalidCategory,
	"UNAUTHORIZED":     ErrCodeUnauthorized,
	"FORBIDDEN":        ErrCodeForbidden,
}

// NormalizeErrorCode converts a domain error code to its envelope code.
// Codes that are already in envelope form are returned as-is.
func NormalizeErrorCode(code string) string {
	if mapped, ok := domainErrorCodes[code]; ok {
		return mapped
	}
	return code
}
