package client

import "errors"

var (
	ErrUnavailable      = errors.New("server unavailable")
	ErrNotAuthenticated = errors.New("not logged in")
	// ErrSessionExpired is returned when the server rejects the stored
	// token. The session has already been cleared by then.
	ErrSessionExpired = errors.New("session expired, please log in again")
)

const genericErrorMessage = "Something went wrong"

// APIError is a non-2xx response other than a rejected session.
type APIError struct {
	Status  int
	Code    string // error kind, e.g. "validation_error"
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}
