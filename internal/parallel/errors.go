// Package parallel provides small concurrency helpers shared by the
// scan orchestration code.
package parallel

import "sync"

// ErrorCollector records the first non-nil error reported by a group of
// goroutines. Unlike errgroup it never cancels anything: a scan keeps
// running the remaining work items and reports the first failure at the
// end. The zero value is ready to use.
type ErrorCollector struct {
	mu  sync.Mutex
	err error
}

// SetError records err if it is the first non-nil error seen. Later
// errors and nil values are ignored. Safe for concurrent use.
func (ec *ErrorCollector) SetError(err error) {
	if err == nil {
		return
	}
	ec.mu.Lock()
	defer ec.mu.Unlock()
	if ec.err == nil {
		ec.err = err
	}
}

// Err returns the first recorded error, or nil if none was reported.
func (ec *ErrorCollector) Err() error {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	return ec.err
}

// Reset clears the recorded error so the collector can be reused for a
// new batch of work.
func (ec *ErrorCollector) Reset() {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	ec.err = nil
}
