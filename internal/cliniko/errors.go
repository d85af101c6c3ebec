package cliniko

import (
	"fmt"
	"net/http"
)

// ErrorKind classifies an upstream API failure.
type ErrorKind string

const (
	// KindNotFound means the requested entity does not exist upstream.
	KindNotFound ErrorKind = "not_found"
	// KindUnauthorized means the API key was missing, invalid, or lacks access.
	KindUnauthorized ErrorKind = "unauthorized"
	// KindRejected means the upstream service rejected the payload (validation failure).
	KindRejected ErrorKind = "rejected"
	// KindUnavailable means the upstream service could not be reached or returned a server error.
	KindUnavailable ErrorKind = "unavailable"
	// KindTimeout means the call exceeded the client's deadline.
	KindTimeout ErrorKind = "timeout"
	// KindUnknown covers unclassified upstream failures.
	KindUnknown ErrorKind = "unknown"
)

// Error is a classified failure from the practice-management API.
type Error struct {
	Kind    ErrorKind
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("cliniko: %s (status %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("cliniko: %s: %s", e.Kind, e.Message)
}

// kindForStatus maps an HTTP status code onto an error kind. Unmapped 4xx
// statuses degrade to KindUnknown so new upstream behaviors surface visibly
// instead of being silently folded into an existing category.
func kindForStatus(status int) ErrorKind {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return KindUnauthorized
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusUnprocessableEntity:
		return KindRejected
	case status == http.StatusTooManyRequests:
		return KindUnavailable
	case status >= 500:
		return KindUnavailable
	default:
		return KindUnknown
	}
}
