package authservice

import (
	"errors"
	"fmt"
	"net/http"
)

// Failure taxonomy surfaced to the session layer
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrValidation         = errors.New("registration failed")
	ErrRefreshInvalid     = errors.New("failed to refresh token")
	ErrProfileFetchFailed = errors.New("failed to get user information")
	ErrNetwork            = errors.New("unable to reach the server")
	ErrServer             = errors.New("server error")
	ErrUnexpectedResponse = errors.New("unexpected response from server")
)

// APIError is a non-2xx response from the backend
type APIError struct {
	StatusCode int
	// Message is the backend's human readable reason, when it sent one
	Message string
	kinds   []error
}

func newAPIError(statusCode int, message string, kind error) *APIError {
	e := &APIError{StatusCode: statusCode, Message: message}
	if kind != nil {
		e.kinds = append(e.kinds, kind)
	}
	if statusCode >= http.StatusInternalServerError && kind != ErrServer {
		e.kinds = append(e.kinds, ErrServer)
	}
	return e
}

func (e *APIError) Error() string {
	reason := e.Message
	if reason == "" && len(e.kinds) > 0 {
		reason = e.kinds[0].Error()
	}
	if reason == "" {
		reason = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%d: %s", e.StatusCode, reason)
}

func (e *APIError) Unwrap() []error {
	return e.kinds
}

func networkError(err error) error {
	return fmt.Errorf("%w: %w", ErrNetwork, err)
}

// Message returns the text a form shows inline for err: the backend's
// message when there is one, otherwise the taxonomy description.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		if len(apiErr.kinds) > 0 {
			return apiErr.kinds[0].Error()
		}
	}
	for _, sentinel := range []error{
		ErrInvalidCredentials,
		ErrValidation,
		ErrRefreshInvalid,
		ErrProfileFetchFailed,
		ErrNetwork,
		ErrUnexpectedResponse,
		ErrServer,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}
