package clientpackage

import "context"

// Repository exposes the subscription package a client is billed under
type Repository interface {
	// GetGraceDays returns the payment grace period in days, nil when the package
	// does not define one
	GetGraceDays(ctx context.Context, clientPackageID int64) (*int, error)
}
