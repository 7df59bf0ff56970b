package httpclient

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/flexprice/billing-notifier/internal/logger"
	ierr "github.com/flexprice/billing-notifier/internal/errors"
	"github.com/hashicorp/go-retryablehttp"
)

// Request is an outbound HTTP call
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

// Response is a successful (non 4xx/5xx) HTTP reply
type Response struct {
	StatusCode int
	Body       []byte
	Headers    map[string]string
}

// Client sends HTTP requests. Non 2xx/3xx replies come back as *Error.
type Client interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

// ClientConfig tunes the default client
type ClientConfig struct {
	Timeout    time.Duration
	MaxRetries int
}

// DefaultClient retries transport failures and 5xx replies with backoff
type DefaultClient struct {
	client *retryablehttp.Client
}

// NewDefaultClient builds a client. A zero timeout means 30s.
func NewDefaultClient(cfg ClientConfig, log *logger.Logger) Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.MaxRetries
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.HTTPClient.Timeout = cfg.Timeout
	rc.Logger = nil
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	if log != nil {
		rc.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
			if attempt > 0 {
				log.Debugw("retrying http request", "method", req.Method, "url", req.URL.String(), "attempt", attempt)
			}
		}
	}

	return &DefaultClient{client: rc}
}

// Send makes an HTTP request and returns the response
func (c *DefaultClient) Send(ctx context.Context, req *Request) (*Response, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Please check the request payload").
			Mark(ierr.ErrHTTPClient)
	}

	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Request to %s failed", httpReq.URL.Host).
			Mark(ierr.ErrHTTPClient)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Could not read the response body").
			Mark(ierr.ErrHTTPClient)
	}

	headers := make(map[string]string)
	for k, v := range resp.Header {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}

	if resp.StatusCode >= 400 {
		return nil, NewError(resp.StatusCode, respBody)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       respBody,
		Headers:    headers,
	}, nil
}
