package shared

import (
	"errors"
	"fmt"
)

// DomainError is a business rule violation reported to the caller. Code is
// stable and machine readable; Details carries the values needed to render
// a precise message (available balance, requested amount, ids).
type DomainError struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Retryable bool           `json:"retryable,omitempty"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is matches any DomainError with the same code, so sentinel values work
// with errors.Is even after details were attached.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// WithDetail returns a copy of e carrying an additional detail
func (e *DomainError) WithDetail(key string, value any) *DomainError {
	cp := *e
	cp.Details = make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		cp.Details[k] = v
	}
	cp.Details[key] = value
	return &cp
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewDomainErrorf creates a domain error with a formatted message
func NewDomainErrorf(code, format string, args ...any) *DomainError {
	return NewDomainError(code, fmt.Sprintf(format, args...))
}

// Error codes shared across bounded contexts
const (
	CodeNotFound            = "NOT_FOUND"
	CodeInvalidInput        = "INVALID_INPUT"
	CodeConflict            = "CONFLICT"
	CodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	CodeDuplicateRequest    = "DUPLICATE_REQUEST"
)

// Common domain errors
var (
	ErrNotFound         = NewDomainError(CodeNotFound, "Resource not found")
	ErrInvalidInput     = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrConflict         = NewDomainError(CodeConflict, "Resource already exists")
	ErrDuplicateRequest = NewDomainError(CodeDuplicateRequest, "Request with this idempotency key was already processed")
	// ErrConcurrencyConflict is returned when a transaction lost a race for a
	// row lock or failed serialization. The same request can be reissued.
	ErrConcurrencyConflict = &DomainError{
		Code:      CodeConcurrencyConflict,
		Message:   "Resource was modified by another request, retry the operation",
		Retryable: true,
	}
)

// NotFound builds a NOT_FOUND error naming the missing resource
func NotFound(resource string, id int64) *DomainError {
	return NewDomainErrorf(CodeNotFound, "%s %d not found", resource, id).
		WithDetail("resource", resource).
		WithDetail("id", id)
}

// AsDomainError extracts a DomainError from err's chain
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// IsRetryable reports whether err signals a transient conflict the caller may retry
func IsRetryable(err error) bool {
	de, ok := AsDomainError(err)
	return ok && de.Retryable
}
