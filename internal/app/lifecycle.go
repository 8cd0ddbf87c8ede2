package app

import (
	"context"
	"os/signal"
	"syscall"
)

// SetupSignals returns a context canceled on SIGINT or SIGTERM. The returned
// function stops listening and should be deferred.
//
// Parameters:
//   - ctx: The parent context.
//
// Returns:
//   - context.Context: A context canceled on the first signal.
//   - context.CancelFunc: Stops the signal relay.
func SetupSignals(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
}
