package ratingapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrResolutionFailed is returned when every candidate read endpoint was
// tried without a usable answer. Distinct from a 404, which means the target
// simply has no ratings yet.
var ErrResolutionFailed = errors.New("ratingapi: all candidate endpoints failed")

// ErrMissingID is returned when a create/update succeeded but the response
// omitted the server-assigned rating id. The caller must fall back to a full
// refresh instead of guessing which cached record to patch.
var ErrMissingID = errors.New("ratingapi: mutation response missing rating id")

// ErrorKind classifies a failed call into the action the host UI should take.
type ErrorKind string

const (
	KindValidation      ErrorKind = "validation"
	KindUnauthenticated ErrorKind = "unauthenticated"
	KindForbidden       ErrorKind = "forbidden"
	KindDuplicate       ErrorKind = "duplicate_rating"
	KindNotFound        ErrorKind = "not_found"
	KindServer          ErrorKind = "server"
	KindNetwork         ErrorKind = "network"
)

// Error is a classified failure from the rating service.
type Error struct {
	Kind    ErrorKind
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("ratingapi: %s (status %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("ratingapi: %s: %s", e.Kind, e.Message)
}

// Retryable reports whether the failure is transient enough that the host
// should keep form state and offer a retry.
func (e *Error) Retryable() bool {
	return e.Kind == KindServer || e.Kind == KindNetwork
}

// AsError extracts a classified *Error from err, if any.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsKind reports whether err carries the given classification.
func IsKind(err error, kind ErrorKind) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.Kind == kind
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// classify maps a non-2xx response to the taxonomy. Some deployed shapes of
// the service reject a duplicate create with 400 and a prose message rather
// than 409, so the body text is consulted for those.
func classify(status int, body []byte) *Error {
	message := extractMessage(body)

	switch {
	case status == 401:
		return &Error{Kind: KindUnauthenticated, Status: status, Message: fallback(message, "authentication required")}
	case status == 403:
		return &Error{Kind: KindForbidden, Status: status, Message: fallback(message, "not allowed")}
	case status == 404:
		return &Error{Kind: KindNotFound, Status: status, Message: fallback(message, "resource not found")}
	case status == 409:
		return &Error{Kind: KindDuplicate, Status: status, Message: fallback(message, "rating already exists")}
	case status >= 400 && status < 500:
		if looksLikeDuplicate(message) {
			return &Error{Kind: KindDuplicate, Status: status, Message: message}
		}
		return &Error{Kind: KindValidation, Status: status, Message: fallback(message, "request rejected")}
	default:
		return &Error{Kind: KindServer, Status: status, Message: fallback(message, "service error")}
	}
}

func networkError(err error) *Error {
	return &Error{Kind: KindNetwork, Message: err.Error()}
}

func extractMessage(body []byte) string {
	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		return strings.TrimSpace(string(body))
	}
	if parsed.Message != "" {
		return parsed.Message
	}
	return parsed.Error
}

func looksLikeDuplicate(message string) bool {
	lower := strings.ToLower(message)
	return strings.Contains(lower, "already rated") || strings.Contains(lower, "already exists")
}

func fallback(message, def string) string {
	if message == "" {
		return def
	}
	return message
}
