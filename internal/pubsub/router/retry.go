package router

import (
	"context"
	"net"
	"net/http"

	"github.com/flexprice/billing-notifier/internal/errors"
	"github.com/flexprice/billing-notifier/internal/httpclient"
	"github.com/flexprice/billing-notifier/internal/logger"
)

// shouldRetry reports whether a failed trigger is worth redelivering. Malformed
// payloads never become valid, so they go straight to the poison queue.
func shouldRetry(logger *logger.Logger, err error) bool {
	if httpErr, ok := httpclient.IsHTTPError(err); ok {
		switch httpErr.StatusCode {
		case http.StatusTooManyRequests,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			logger.Debugw("retrying due to HTTP error",
				"status_code", httpErr.StatusCode,
				"error", httpErr,
			)
			return true
		}
		logger.Debugw("non-retryable HTTP error",
			"status_code", httpErr.StatusCode,
			"error", httpErr,
		)
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		logger.Debugw("retrying due to network timeout", "error", netErr)
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	if errors.IsValidation(err) ||
		errors.IsNotFound(err) ||
		errors.IsConfiguration(err) {
		return false
	}

	return true
}
