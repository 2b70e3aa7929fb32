package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds. Concrete errors wrap one of these so callers can use errors.Is.
var (
	// ErrConfiguration is returned for missing or invalid credentials and settings.
	ErrConfiguration = errors.New("configuration error")

	// ErrAuthentication is returned when a token or Kafka credential is absent or rejected.
	ErrAuthentication = errors.New("authentication failed")

	// ErrConnection is returned when the broker or the API cannot be reached.
	ErrConnection = errors.New("connection failed")

	// ErrDeserialization is returned when a payload is malformed.
	ErrDeserialization = errors.New("deserialization failed")

	// ErrNotFound is returned when a requested object, alert or cutout does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAPI is returned for any other non-2xx API response.
	ErrAPI = errors.New("api error")

	// ErrInvalidQuery is returned when query arguments are rejected before any request is made.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrNoMessage is returned when a stream poll times out without a record.
	ErrNoMessage = errors.New("no message")
)

// APIError is a non-2xx response from the REST service.
type APIError struct {
	StatusCode int
	Message    string
	Path       string
}

func (e *APIError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("api error (%d) %s: %s", e.StatusCode, e.Path, e.Message)
	}
	return fmt.Sprintf("api error (%d): %s", e.StatusCode, e.Message)
}

// Unwrap maps the status code onto an error kind.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return ErrAuthentication
	case http.StatusNotFound:
		return ErrNotFound
	}
	return ErrAPI
}

// DeserializationError reports the field path that failed validation.
type DeserializationError struct {
	Path   string // e.g. candidate.jd or prv_candidates[3].psfFluxErr
	Reason string
}

func (e *DeserializationError) Error() string {
	if e.Path == "" {
		return "deserialize: " + e.Reason
	}
	return fmt.Sprintf("deserialize %s: %s", e.Path, e.Reason)
}

func (e *DeserializationError) Unwrap() error {
	return ErrDeserialization
}
