package httputil

import (
	"context"
	"errors"
	"time"
)

// Default retry policy for artwork and font downloads.
const (
	DefaultAttempts = 3
	DefaultDelay    = time.Second

	// maxDelay caps the wait between attempts.
	maxDelay = 8 * time.Second
)

// RetryableError marks a fetch failure worth another attempt, such as a
// dropped connection or a 429 or 5xx from the artwork host.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Transient wraps err as a [RetryableError]. It returns nil for nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// Retry calls fn until it succeeds, returns an error that is not a
// [RetryableError], or attempts run out. The wait between attempts starts
// at delay and doubles up to maxDelay. Cancelling ctx during a wait
// returns ctx.Err().
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	attempts = max(attempts, 1)
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil || !isRetryable(err) {
			return err
		}
		if i == attempts-1 {
			break
		}
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		delay = min(delay*2, maxDelay)
	}
	return err
}

func isRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}
