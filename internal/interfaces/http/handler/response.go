package handler

import "github.com/ledgerline/backend/internal/interfaces/http/dto"

// APIResponse is the typed form of dto.Response. Handler annotations and
// clients decoding a known payload use it.
type APIResponse[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data,omitempty"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
	Meta    *dto.Meta      `json:"meta,omitempty"`
}

// ErrorResponse is the body of every non-2xx ledger response
type ErrorResponse struct {
	Success bool           `json:"success" example:"false"`
	Error   *dto.ErrorInfo `json:"error"`
}
