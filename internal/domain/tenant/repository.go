package tenant

import "context"

type Repository interface {
	Get(ctx context.Context, id int64) (*Tenant, error)
}
