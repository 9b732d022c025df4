// Package response writes the JSON envelope used by every Popcorn endpoint.
// Huma operations get it through the API transformer; plain handlers (SSE, middleware) call these helpers.
package response

import (
	"log/slog"
	"net/http"

	json "github.com/goccy/go-json"

	domainerrors "github.com/popcornapp/popcorn-server/internal/errors"
)

// Version is the envelope format version.
const Version = 1

// Envelope is the response wrapper.
type Envelope struct {
	Version int        `json:"v"`
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

// ErrorBody describes a failed request.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// OK wraps data in a successful envelope.
func OK(data any) Envelope {
	return Envelope{Version: Version, Success: true, Data: data}
}

// Fail builds an error envelope.
func Fail(code, message string, details any) Envelope {
	return Envelope{
		Version: Version,
		Error:   &ErrorBody{Code: code, Message: message, Details: details},
	}
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil && logger != nil {
		logger.Error("Failed to encode JSON response", "error", err)
	}
}

// Success writes a 200 envelope.
func Success(w http.ResponseWriter, data any, logger *slog.Logger) {
	JSON(w, http.StatusOK, OK(data), logger)
}

// Error writes an error envelope.
func Error(w http.ResponseWriter, status int, code, message string, logger *slog.Logger) {
	JSON(w, status, Fail(code, message, nil), logger)
}

// BadRequest writes a 400 response.
func BadRequest(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusBadRequest, string(domainerrors.CodeValidation), message, logger)
}

// Unauthorized writes a 401 response.
func Unauthorized(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusUnauthorized, string(domainerrors.CodeUnauthorized), message, logger)
}

// Forbidden writes a 403 response.
func Forbidden(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusForbidden, string(domainerrors.CodeForbidden), message, logger)
}

// TooManyRequests writes a 429 response.
func TooManyRequests(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusTooManyRequests, "RATE_LIMITED", message, logger)
}

// httpError is implemented by store errors.
type httpError interface {
	error
	HTTPCode() int
	Kind() string
}

// StatusAndBody maps an error to its HTTP status and envelope body.
// Domain errors keep their code, store errors map through their HTTP code and anything else is a 500.
func StatusAndBody(err error) (int, ErrorBody) {
	var domainErr *domainerrors.Error
	if domainerrors.As(err, &domainErr) {
		return domainErr.HTTPStatus(), ErrorBody{
			Code:    string(domainErr.Code),
			Message: domainErr.Message,
			Details: domainErr.Details,
		}
	}

	var storeErr httpError
	if domainerrors.As(err, &storeErr) {
		return storeErr.HTTPCode(), ErrorBody{Code: storeErr.Kind(), Message: storeErr.Error()}
	}

	return http.StatusInternalServerError, ErrorBody{
		Code:    string(domainerrors.CodeInternal),
		Message: "internal server error",
	}
}

// HandleError writes the envelope for err, logging unexpected failures.
func HandleError(w http.ResponseWriter, err error, logger *slog.Logger) {
	status, body := StatusAndBody(err)
	if status >= http.StatusInternalServerError && logger != nil {
		logger.Error("Unhandled error", "error", err)
	}
	JSON(w, status, Envelope{Version: Version, Error: &body}, logger)
}
