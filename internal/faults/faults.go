// Package faults defines the error taxonomy shared by providers and the sync
// orchestrator. Adapters tag failures with one of the sentinel markers; the
// batch loop classifies them into "count and continue" versus "abort the run".
package faults

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound: a lookup had no data. Not a failure; recorded as an
	// attempted-but-empty result.
	ErrNotFound = errors.New("not found")

	// ErrRateLimited: the provider asked us to back off. The same item is
	// retried after a bounded backoff, never skipped silently.
	ErrRateLimited = errors.New("rate limited")

	// ErrQuotaExhausted: the provider refuses further work for billing
	// reasons. Fatal for the whole run.
	ErrQuotaExhausted = errors.New("quota exhausted")

	// ErrMalformedResponse: an upstream returned something unparseable.
	// Treated as zero results for the item.
	ErrMalformedResponse = errors.New("malformed upstream response")

	// ErrStoreWrite: a persistence write failed. Per-item; the batch
	// continues.
	ErrStoreWrite = errors.New("store write failure")

	// ErrConfiguration: required configuration is missing. Fatal.
	ErrConfiguration = errors.New("configuration error")

	// ErrLockHeld: another sync run already holds the team lease.
	ErrLockHeld = errors.New("sync lock held")
)

// Wrap builds an error message carrying component context while tagging it
// with the provided marker for later classification.
func Wrap(marker error, component, operation string, err error) error {
	detail := buildDetail(component, operation)
	if marker == nil {
		marker = ErrStoreWrite
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

type rateLimited struct {
	detail     string
	retryAfter time.Duration
}

func (e *rateLimited) Error() string {
	if e.retryAfter > 0 {
		return fmt.Sprintf("%v: %s (retry after %s)", ErrRateLimited, e.detail, e.retryAfter)
	}
	return fmt.Sprintf("%v: %s", ErrRateLimited, e.detail)
}

func (e *rateLimited) Unwrap() error {
	return ErrRateLimited
}

// RateLimited builds a rate-limit error carrying the delay the provider asked
// for, when it sent one. A zero retryAfter means the provider named no delay
// and the caller falls back to its own backoff.
func RateLimited(component, operation string, retryAfter time.Duration) error {
	return &rateLimited{detail: buildDetail(component, operation), retryAfter: retryAfter}
}

// RetryAfter extracts the provider-requested delay from err, if it carries
// one.
func RetryAfter(err error) (time.Duration, bool) {
	var e *rateLimited
	if errors.As(err, &e) && e.retryAfter > 0 {
		return e.retryAfter, true
	}
	return 0, false
}

// IsFatal reports whether err must abort the whole run rather than being
// accumulated into per-item counters.
func IsFatal(err error) bool {
	return errors.Is(err, ErrQuotaExhausted) || errors.Is(err, ErrConfiguration)
}

// IsRetryable reports whether err warrants retrying the same item after a
// backoff.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

func buildDetail(component, operation string) string {
	parts := make([]string, 0, 2)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if len(parts) == 0 {
		return "provider failure"
	}
	return strings.Join(parts, ": ")
}
