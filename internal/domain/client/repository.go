package client

import "context"

type Repository interface {
	// Get returns the client or an ErrNotFound marked error
	Get(ctx context.Context, id int64) (*Client, error)
}
