// Package common holds small helpers shared across the pipeline commands.
package common

import (
	"context"
	"time"
)

// Retry runs fn up to attempts times, sleeping delay between failures and
// doubling it each round (capped at maxDelay). It returns nil on the first
// success, the last error once attempts are exhausted, or the context error
// if the caller gives up first.
func Retry(ctx context.Context, attempts int, delay, maxDelay time.Duration, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if maxDelay > 0 && delay > maxDelay {
			delay = maxDelay
		}
	}
	return err
}
