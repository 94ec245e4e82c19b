// Package response provides standardized HTTP response formatting and error handling utilities.
package response

import (
	"encoding/json/v2"
	"log/slog"
	"net/http"

	"github.com/rankdeskapp/rankdesk-server/internal/errors"
	"github.com/rankdeskapp/rankdesk-server/internal/store"
)

// ListEnvelope is the wire shape of every list endpoint.
type ListEnvelope struct {
	Items      any              `json:"items"`
	Pagination store.Pagination `json:"pagination"`
}

// JSON writes a JSON response with the given status code using json/v2.
func JSON(w http.ResponseWriter, status int, payload any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.MarshalWrite(w, payload); err != nil {
		if logger != nil {
			logger.Error("Failed to encode JSON response", "error", err)
		}
	}
}

// Success writes a 200 OK response with the payload as-is.
func Success(w http.ResponseWriter, payload any, logger *slog.Logger) {
	JSON(w, http.StatusOK, payload, logger)
}

// List writes a 200 OK list envelope.
func List(w http.ResponseWriter, items any, pagination store.Pagination, logger *slog.Logger) {
	JSON(w, http.StatusOK, ListEnvelope{Items: items, Pagination: pagination}, logger)
}

// Mutation writes a mutation envelope: a message plus the affected
// resource under its own key.
func Mutation(w http.ResponseWriter, status int, message, key string, resource any, logger *slog.Logger) {
	payload := map[string]any{"message": message}
	if key != "" {
		payload[key] = resource
	}
	JSON(w, status, payload, logger)
}

// Message writes a bare message envelope.
func Message(w http.ResponseWriter, status int, message string, logger *slog.Logger) {
	JSON(w, status, map[string]string{"message": message}, logger)
}

// Error writes an error envelope with the given status code.
func Error(w http.ResponseWriter, status int, message string, logger *slog.Logger) {
	JSON(w, status, map[string]string{"message": message}, logger)
}

// Unauthorized writes a 401 Unauthorized response.
func Unauthorized(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusUnauthorized, message, logger)
}

// Forbidden writes a 403 Forbidden response.
func Forbidden(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusForbidden, message, logger)
}

// BadRequest writes a 400 Bad Request response.
func BadRequest(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusBadRequest, message, logger)
}

// NotFound writes a 404 Not Found response.
func NotFound(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusNotFound, message, logger)
}

// TooManyRequests writes a 429 Too Many Requests response.
func TooManyRequests(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusTooManyRequests, message, logger)
}

// InternalError writes a 500 Internal Server Error response.
func InternalError(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusInternalServerError, message, logger)
}

// HandleError writes an appropriate HTTP response based on the error
// type. Coded domain errors map to their HTTP status; anything else is
// a 500 with a generic message, the cause logged server-side only.
func HandleError(w http.ResponseWriter, err error, logger *slog.Logger) {
	var domainErr *errors.Error
	if errors.As(err, &domainErr) {
		if domainErr.Code == errors.CodeInternal && logger != nil {
			logger.Error("Internal error", "error", err)
		}
		Error(w, domainErr.HTTPStatus(), domainErr.Message, logger)
		return
	}

	if logger != nil {
		logger.Error("Unhandled error", "error", err)
	}
	InternalError(w, "internal server error", logger)
}
