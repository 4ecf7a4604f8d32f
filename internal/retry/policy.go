// Package retry provides the bounded retry policy and data-stopped
// watchdog shared by every station driver.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/wxforge/wxforge/internal/types"
)

// Policy describes how an I/O call is retried. It is a plain value so
// drivers can be unit-tested without real I/O: inject a policy with zero
// delay and a fake classifier.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// Delay is the fixed wait between attempts.
	Delay time.Duration
	// Classify reports whether an error is worth retrying. A nil
	// classifier retries transient transport errors and vendor
	// rejections only.
	Classify func(error) bool
}

// HTTPDefault is the policy most vendor HTTP calls use: two attempts,
// two seconds apart.
var HTTPDefault = Policy{MaxAttempts: 2, Delay: 2 * time.Second}

// SerialDefault allows one bounded re-read after a framing failure.
var SerialDefault = Policy{MaxAttempts: 2, Delay: 500 * time.Millisecond}

func defaultClassify(err error) bool {
	return errors.Is(err, types.ErrTransientTransport) || errors.Is(err, types.ErrVendorRejection)
}

// Do runs fn under the policy. It returns nil as soon as one attempt
// succeeds, the last error once attempts are exhausted or the error is
// classified non-retryable, and ctx.Err() if cancelled while waiting.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	classify := p.Classify
	if classify == nil {
		classify = defaultClassify
	}

	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if !classify(err) {
			return err
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.Delay):
		}
	}
	return err
}

// Semaphore bounds outbound concurrency to a vendor. Size 1 serializes
// all calls, for vendors that error on concurrent requests.
type Semaphore chan struct{}

// NewSemaphore returns a counting semaphore with n slots.
func NewSemaphore(n int) Semaphore {
	if n < 1 {
		n = 1
	}
	return make(Semaphore, n)
}

// Acquire blocks until a slot is free or ctx is cancelled.
func (s Semaphore) Acquire(ctx context.Context) error {
	select {
	case s <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot.
func (s Semaphore) Release() {
	<-s
}
