package handler

import "github.com/wikimedia/wikimedia-cz-tracker/internal/interfaces/http/dto"

// APIResponse represents a generic API response for OpenAPI documentation
// @Description Standard API response wrapper with typed data field
type APIResponse[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data,omitempty"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
	Meta    *dto.Meta      `json:"meta,omitempty"`
}

// ErrorResponse represents an error API response for OpenAPI documentation
// @Description Standard error response
type ErrorResponse struct {
	Success bool           `json:"success" example:"false"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
}

// MessageResponse is a plain acknowledgement
// @Description Acknowledgement message
type MessageResponse struct {
	Message string `json:"message"`
}

// ScheduledResponse tells whether a background job was queued
// @Description Background job scheduling result
type ScheduledResponse struct {
	Scheduled bool `json:"scheduled"`
}
