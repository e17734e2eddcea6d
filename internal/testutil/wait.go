package testutil

import (
	"testing"
	"time"
)

// WaitFor polls condition until it returns true or timeout elapses, failing
// the test with message on timeout.
//
// Usage:
//
//	testutil.WaitFor(t, 2*time.Second, "control to be re-enabled", func() bool {
//	    return mon.View().ControlEnabled
//	})
func WaitFor(t testing.TB, timeout time.Duration, message string, condition func() bool) {
	t.Helper()

	if condition() {
		return
	}

	tickerInterval := 10 * time.Millisecond
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(tickerInterval)
	defer ticker.Stop()

	attempts := 1
	for range ticker.C {
		attempts++
		if condition() {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("Timeout waiting for %s (waited %v, %d attempts)", message, timeout, attempts)
		}
	}
}
