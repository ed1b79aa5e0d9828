// Package retry wraps remote-store calls with the quota handling the
// Sheets API demands: a fixed post-call delay to smooth bursts, and a
// bounded backoff retry that fires only on quota-exceeded errors.
package retry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/api/googleapi"
)

// ErrRateLimited is returned once all attempts are exhausted and
// the final attempt still failed on quota. Handlers map it to 429.
var ErrRateLimited = errors.New("remote store rate limit exceeded")

// Policy is the injected retry configuration. MaxAttempts counts the
// initial call, so the default allows two retries.
type Policy struct {
	MaxAttempts   int
	Backoff       []time.Duration
	PostCallDelay time.Duration

	// sleep is replaced in tests to avoid real delays.
	sleep func(ctx context.Context, d time.Duration) error
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:   3,
		Backoff:       []time.Duration{2 * time.Second, 5 * time.Second},
		PostCallDelay: 500 * time.Millisecond,
	}
}

// Do invokes fn under the policy. A non-quota error propagates
// immediately; a quota error is retried after the scheduled backoff
// until attempts run out, then surfaces as ErrRateLimited wrapping the
// last failure.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	_, err := DoValue(ctx, p, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// DoValue is Do for calls that produce a result.
func DoValue[T any](ctx context.Context, p Policy, fn func() (T, error)) (T, error) {
	var zero T
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		var v T
		v, err = fn()
		if err == nil {
			// Smooth call bursts against the undocumented quota window.
			if serr := p.doSleep(ctx, p.PostCallDelay); serr != nil {
				return zero, serr
			}
			return v, nil
		}
		if !IsQuotaError(err) {
			return zero, err
		}
		if attempt < attempts-1 {
			if serr := p.doSleep(ctx, p.backoffFor(attempt)); serr != nil {
				return zero, serr
			}
		}
	}
	return zero, fmt.Errorf("%w: %v", ErrRateLimited, err)
}

func (p Policy) backoffFor(attempt int) time.Duration {
	if attempt < len(p.Backoff) {
		return p.Backoff[attempt]
	}
	if n := len(p.Backoff); n > 0 {
		return p.Backoff[n-1]
	}
	return 0
}

func (p Policy) doSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	if p.sleep != nil {
		return p.sleep(ctx, d)
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// IsQuotaError reports whether err is the remote store signalling
// quota exhaustion, either as HTTP 429 or as the "Quota exceeded"
// message Google attaches to rateLimitExceeded failures.
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		if gerr.Code == http.StatusTooManyRequests {
			return true
		}
	}
	return strings.Contains(err.Error(), "Quota exceeded") ||
		strings.Contains(err.Error(), "rateLimitExceeded")
}
