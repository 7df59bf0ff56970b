package testutil

import (
	"context"

	"github.com/flexprice/billing-notifier/internal/types"
)

func SetupContext() context.Context {
	return types.SetRequestID(context.Background(), types.GenerateUUID())
}
