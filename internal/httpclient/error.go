package httpclient

import (
	goerrors "errors"
	"fmt"

	"github.com/flexprice/billing-notifier/internal/errors"
)

// maxBodyInMessage caps how much of a reply body ends up in an error string
const maxBodyInMessage = 512

// Error is a 4xx/5xx reply. It matches errors.ErrHTTPClient.
type Error struct {
	*errors.InternalError
	StatusCode int
	Response   []byte
}

func (e *Error) Unwrap() error {
	return e.InternalError
}

func (e *Error) Error() string {
	body := string(e.Response)
	if len(body) > maxBodyInMessage {
		body = body[:maxBodyInMessage] + "..."
	}
	return fmt.Sprintf("%s: status %d: %s", e.Code, e.StatusCode, body)
}

// IsServerError reports whether the remote side failed (5xx)
func (e *Error) IsServerError() bool {
	return e.StatusCode >= 500
}

// NewError creates a new HTTP client error
func NewError(statusCode int, response []byte) *Error {
	return &Error{
		InternalError: errors.New(errors.ErrCodeHTTPClient, fmt.Sprintf("unexpected status %d", statusCode)),
		StatusCode:    statusCode,
		Response:      response,
	}
}

// IsHTTPError checks if an error is an HTTP client error
func IsHTTPError(err error) (*Error, bool) {
	var httpErr *Error
	if goerrors.As(err, &httpErr) {
		return httpErr, true
	}
	return nil, false
}
