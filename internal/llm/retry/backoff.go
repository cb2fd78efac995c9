// Package retry implements the backoff policy and cancellation primitives
// from SPEC_FULL.md §4.8, grounded on the teacher's shutdown-timeout/retry
// patterns in internal/server/server.go generalized into a reusable,
// provider-independent helper instead of one hand-rolled loop per call site.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/Davincible/llm-gateway/internal/llm/llmerr"
)

// Policy describes exponential backoff: initial interval, growth multiplier,
// a ceiling on any single interval, and a ceiling on total elapsed time
// across the whole retry loop.
type Policy struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	MaxElapsed      time.Duration
}

// DefaultPolicy matches common LLM-provider guidance: start at 500ms, double
// up to 30s, give up after 2 minutes total.
func DefaultPolicy() Policy {
	return Policy{
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     30 * time.Second,
		Multiplier:      2.0,
		MaxElapsed:      2 * time.Minute,
	}
}

// ErrCancelled is returned when a sleep is interrupted by context
// cancellation rather than completing naturally.
var ErrCancelled = errors.New("retry: cancelled")

// Do runs op, retrying on llmerr.LlmError classified as retriable by
// IsRetriable, honoring Retry-After when the error carries one. The 401
// single-shot retry described in SPEC_FULL.md §4.2 happens *inside* op
// itself (in the HTTP executor); this loop is strictly the outer backoff
// loop and must never itself retry a 401.
func Do(ctx context.Context, policy Policy, op func(ctx context.Context) error) error {
	interval := policy.InitialInterval
	deadline := time.Now().Add(policy.MaxElapsed)

	for {
		err := op(ctx)
		if err == nil {
			return nil
		}

		var lerr *llmerr.LlmError
		if !errors.As(err, &lerr) || !lerr.IsRetriable() {
			return err
		}

		if time.Now().After(deadline) {
			return err
		}

		wait := interval
		if lerr.RetryAfter != nil && *lerr.RetryAfter > wait {
			wait = *lerr.RetryAfter
		}

		select {
		case <-ctx.Done():
			return ErrCancelled
		case <-time.After(wait):
		}

		interval = time.Duration(float64(interval) * policy.Multiplier)
		if interval > policy.MaxInterval {
			interval = policy.MaxInterval
		}
	}
}
