package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	ErrCodeValidation         = "ERR_VALIDATION"
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	ErrCodeValidationFormat   = "ERR_VALIDATION_FORMAT"
	ErrCodeValidationRange    = "ERR_VALIDATION_RANGE"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
	// ErrCodeConcurrencyConflict is used when a row lock or version check fails
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	// ErrCodeDuplicateRequest is used when an idempotency key was already seen
	ErrCodeDuplicateRequest = "ERR_DUPLICATE_REQUEST"
)

// Ledger error codes
const (
	// ErrCodeInvalidAmount is used when an amount is zero or negative
	ErrCodeInvalidAmount = "ERR_INVALID_AMOUNT"
	// ErrCodeOverAllocation is used when a payment or invoice lacks capacity
	ErrCodeOverAllocation = "ERR_OVER_ALLOCATION"
	// ErrCodeAlreadyDirectlyBound is used when a directly bound payment is allocated
	ErrCodeAlreadyDirectlyBound = "ERR_ALREADY_DIRECTLY_BOUND"
	// ErrCodeNotLayaway is used when a plan targets a regular invoice
	ErrCodeNotLayaway = "ERR_NOT_LAYAWAY"
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
)

// Input error codes
const (
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON  = "ERR_INVALID_JSON"

	// ErrCodeRequestTooLarge is used when the body exceeds the size limit
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
	// ErrCodeRateLimited is used when a client exceeds its request budget
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,
	ErrCodeValidationRange:    http.StatusBadRequest,

	// Resource errors
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeDuplicateRequest:    http.StatusConflict,

	// Ledger errors
	ErrCodeInvalidAmount:        http.StatusBadRequest,
	ErrCodeOverAllocation:       http.StatusUnprocessableEntity,
	ErrCodeAlreadyDirectlyBound: http.StatusConflict,
	ErrCodeNotLayaway:           http.StatusUnprocessableEntity,
	ErrCodeInvalidState:         http.StatusConflict,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,

	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeRateLimited:     http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to API error codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":              ErrCodeNotFound,
	"CONFLICT":               ErrCodeConflict,
	"CONCURRENCY_CONFLICT":   ErrCodeConcurrencyConflict,
	"DUPLICATE_REQUEST":      ErrCodeDuplicateRequest,
	"INVALID_AMOUNT":         ErrCodeInvalidAmount,
	"OVER_ALLOCATION":        ErrCodeOverAllocation,
	"ALREADY_DIRECTLY_BOUND": ErrCodeAlreadyDirectlyBound,
	"NOT_LAYAWAY":            ErrCodeNotLayaway,
	"INVALID_INVOICE_STATE":  ErrCodeInvalidState,
	"INVALID_INPUT":          ErrCodeInvalidInput,
	"VALIDATION_ERROR":       ErrCodeValidation,
	"BAD_REQUEST":            ErrCodeBadRequest,
	"INTERNAL_ERROR":         ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to the API format.
// Codes already in the API format or unknown are returned as-is.
func NormalizeErrorCode(code string) string {
	if newCode, ok := DomainErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
