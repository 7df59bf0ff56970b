package testutil

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/flexprice/billing-notifier/internal/httpclient"
)

// MockHTTPClient implements httpclient.Client with routes matched by URL suffix
type MockHTTPClient struct {
	mu       sync.RWMutex
	routes   map[string]MockResponse
	errors   map[string]error
	requests []*httpclient.Request
}

// MockResponse represents a mock HTTP response
type MockResponse struct {
	StatusCode int
	Body       []byte
	Headers    map[string]string
}

func NewMockHTTPClient() *MockHTTPClient {
	return &MockHTTPClient{
		routes: make(map[string]MockResponse),
		errors: make(map[string]error),
	}
}

// RegisterResponse registers a mock response for a URL suffix
func (m *MockHTTPClient) RegisterResponse(url string, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes[url] = resp
}

// RegisterJSONResponse registers a 200 reply carrying v as JSON
func (m *MockHTTPClient) RegisterJSONResponse(url string, v any) {
	body, _ := json.Marshal(v)
	m.RegisterResponse(url, MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
		Headers:    map[string]string{"Content-Type": "application/json"},
	})
}

// RegisterError makes every call to the URL suffix fail with err
func (m *MockHTTPClient) RegisterError(url string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[url] = err
}

// Send implements the httpclient.Client interface
func (m *MockHTTPClient) Send(ctx context.Context, req *httpclient.Request) (*httpclient.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for route, err := range m.errors {
		if strings.HasSuffix(req.URL, route) {
			return nil, err
		}
	}

	for route, resp := range m.routes {
		if !strings.HasSuffix(req.URL, route) {
			continue
		}
		if resp.StatusCode >= 400 {
			return nil, httpclient.NewError(resp.StatusCode, resp.Body)
		}
		return &httpclient.Response{
			StatusCode: resp.StatusCode,
			Body:       resp.Body,
			Headers:    resp.Headers,
		}, nil
	}

	return nil, httpclient.NewError(http.StatusNotFound, []byte("Not Found"))
}

// Requests returns every request sent so far
func (m *MockHTTPClient) Requests() []*httpclient.Request {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*httpclient.Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// CallCount returns how many requests hit the URL suffix
func (m *MockHTTPClient) CallCount(url string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, r := range m.requests {
		if strings.HasSuffix(r.URL, url) {
			n++
		}
	}
	return n
}

// Clear removes all registered responses and recorded requests
func (m *MockHTTPClient) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes = make(map[string]MockResponse)
	m.errors = make(map[string]error)
	m.requests = nil
}
