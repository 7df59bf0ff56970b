package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	ierr "github.com/flexprice/billing-notifier/internal/errors"
	"github.com/flexprice/billing-notifier/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "abc", r.Header.Get("Idempotency-Key"))
		assert.JSONEq(t, `{"a":1}`, string(body))
		w.Header().Set("X-Test", "yes")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewDefaultClient(ClientConfig{Timeout: time.Second}, logger.NewNopLogger())
	resp, err := c.Send(context.Background(), &Request{
		Method:  http.MethodPost,
		URL:     srv.URL,
		Headers: map[string]string{"Idempotency-Key": "abc"},
		Body:    []byte(`{"a":1}`),
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "yes", resp.Headers["X-Test"])
	assert.JSONEq(t, `{"ok":true}`, string(resp.Body))
}

func TestSendRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewDefaultClient(ClientConfig{Timeout: time.Second, MaxRetries: 3}, nil)
	_, err := c.Send(context.Background(), &Request{Method: http.MethodGet, URL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestSendClientError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"bad amount"}`))
	}))
	defer srv.Close()

	c := NewDefaultClient(ClientConfig{Timeout: time.Second}, nil)
	_, err := c.Send(context.Background(), &Request{Method: http.MethodPost, URL: srv.URL, Body: []byte(`{}`)})
	require.Error(t, err)

	httpErr, ok := IsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnprocessableEntity, httpErr.StatusCode)
	assert.False(t, httpErr.IsServerError())
	assert.True(t, ierr.IsHTTPClient(err))
	assert.Contains(t, err.Error(), "bad amount")
}
