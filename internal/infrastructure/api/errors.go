package api

import (
	"encoding/json"
	"net/http"
)

// ErrorCode represents standard API error codes.
type ErrorCode string

const (
	// ErrCodeInvalidRequest indicates a body that is not a JSON operation.
	ErrCodeInvalidRequest ErrorCode = "invalid_request"

	// ErrCodeValidationFailed indicates the operation failed schema or domain validation.
	ErrCodeValidationFailed ErrorCode = "validation_failed"

	// ErrCodeRequestTooLarge indicates the body exceeded the configured limit.
	ErrCodeRequestTooLarge ErrorCode = "request_too_large"

	// ErrCodeMethodNotAllowed indicates a method other than GET or POST.
	ErrCodeMethodNotAllowed ErrorCode = "method_not_allowed"

	// ErrCodeTransactionStartFailed indicates start_transaction exited non-zero.
	ErrCodeTransactionStartFailed ErrorCode = "transaction_start_failed"

	// ErrCodeStepFailed indicates a mutating call exited non-zero.
	ErrCodeStepFailed ErrorCode = "step_failed"

	// ErrCodeCommitFailed indicates commit_transaction exited non-zero.
	ErrCodeCommitFailed ErrorCode = "commit_failed"

	// ErrCodeTimeout indicates call_xrl did not finish in time.
	ErrCodeTimeout ErrorCode = "timeout"

	// ErrCodeInternalError indicates an internal server error.
	ErrCodeInternalError ErrorCode = "internal_error"
)

// APIError represents a structured API error response.
type APIError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ErrorResponse wraps an APIError for JSON responses.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// NewAPIError creates a new APIError with the given code and message.
func NewAPIError(code ErrorCode, message string) APIError {
	return APIError{
		Code:    code,
		Message: message,
	}
}

// WithDetails adds details to an APIError.
func (e APIError) WithDetails(details map[string]interface{}) APIError {
	e.Details = details
	return e
}

// WriteError writes an error response to the HTTP response writer.
func WriteError(w http.ResponseWriter, statusCode int, err APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: err})
}

// WriteInvalidRequest writes a 400 Bad Request error.
func WriteInvalidRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, NewAPIError(ErrCodeInvalidRequest, message))
}

// WriteValidationError writes a 400 Bad Request with validation details.
func WriteValidationError(w http.ResponseWriter, message string, details map[string]interface{}) {
	WriteError(w, http.StatusBadRequest, NewAPIError(ErrCodeValidationFailed, message).WithDetails(details))
}

// WriteRequestTooLarge writes a 413 Request Entity Too Large error.
func WriteRequestTooLarge(w http.ResponseWriter) {
	WriteError(w, http.StatusRequestEntityTooLarge, NewAPIError(ErrCodeRequestTooLarge, "request body too large"))
}

// WriteMethodNotAllowed writes a 405 Method Not Allowed error.
func WriteMethodNotAllowed(w http.ResponseWriter, method string) {
	w.Header().Set("Allow", "GET, POST")
	WriteError(w, http.StatusMethodNotAllowed, NewAPIError(ErrCodeMethodNotAllowed, method+" is not supported"))
}

// WriteInternalError writes a 500 Internal Server Error.
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, NewAPIError(ErrCodeInternalError, message))
}
