package types

import (
	"context"
)

// ContextKey is a type for the keys of values stored in the context
type ContextKey string

const (
	CtxRequestID ContextKey = "ctx_request_id"
	CtxInvoiceID ContextKey = "ctx_invoice_id"
)

// HeaderRequestID carries the request id in and out of the API
const HeaderRequestID = "X-Request-ID"

func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(CtxRequestID).(string); ok {
		return requestID
	}
	return ""
}

// SetRequestID sets the request ID in the context
func SetRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, CtxRequestID, requestID)
}

// GetInvoiceID returns the invoice being processed, 0 if none
func GetInvoiceID(ctx context.Context) int64 {
	if id, ok := ctx.Value(CtxInvoiceID).(int64); ok {
		return id
	}
	return 0
}

// SetInvoiceID tags the context with the invoice being processed
func SetInvoiceID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, CtxInvoiceID, id)
}
