package app

import (
	"context"
	"os/signal"
	"syscall"
	"time"
)

// A scan runs under two independent limits: the -timeout flag and the
// operator interrupting the process (Ctrl+C or SIGTERM). scanLifecycle
// arms both on a single context so the propagation workers see one
// cancellation signal regardless of which limit fired first.
type scanLifecycle struct {
	cancelTimeout context.CancelFunc
	stopSignals   context.CancelFunc
}

// newScanLifecycle derives a scan context from the parent: it expires
// after timeout and is canceled on SIGINT or SIGTERM. The returned
// lifecycle must be closed (typically via defer) to release the timer
// and restore the default signal disposition.
//
// Parameters:
//   - ctx: The parent context.
//   - timeout: The maximum scan duration.
//
// Returns:
//   - context.Context: The bounded scan context.
//   - *scanLifecycle: Handle releasing both limits.
func newScanLifecycle(ctx context.Context, timeout time.Duration) (context.Context, *scanLifecycle) {
	ctx, cancelTimeout := context.WithTimeout(ctx, timeout)
	ctx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)

	return ctx, &scanLifecycle{
		cancelTimeout: cancelTimeout,
		stopSignals:   stopSignals,
	}
}

// Close releases the timeout timer and stops signal delivery to the
// scan context. Safe to call on a lifecycle whose context already fired.
func (l *scanLifecycle) Close() {
	if l.stopSignals != nil {
		l.stopSignals()
	}
	if l.cancelTimeout != nil {
		l.cancelTimeout()
	}
}
