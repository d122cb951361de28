// Lodestar: a multi-provider manga search engine with adaptive failover.
// Copyright (C) 2025 Lodestar contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package errors

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Category buckets an error for the failover bookkeeping: transient and
// rate-limited failures trigger cooldown and fallback, permanent ones are
// expected to recur until a manual reset, config errors exclude a provider
// at startup, and exhaustion means every provider was tried without success.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryTransient
	CategoryRateLimited
	CategoryPermanent
	CategoryConfig
	CategoryExhausted
)

func (c Category) String() string {
	switch c {
	case CategoryTransient:
		return "transient"
	case CategoryRateLimited:
		return "rate-limited"
	case CategoryPermanent:
		return "permanent"
	case CategoryConfig:
		return "config"
	case CategoryExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// RateLimitError wraps ErrRateLimit with the retry delay the provider asked
// for, so cooldown computation can honor it as a lower bound.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limit exceeded, retry after %s", e.RetryAfter)
	}
	return ErrRateLimit.Error()
}

func (e *RateLimitError) Is(target error) bool { return target == ErrRateLimit }

// ProviderError attaches the provider id and operation to a failure so logs
// and metrics can attribute it without parsing message strings.
type ProviderError struct {
	Provider string
	Op       string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %s: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Provider wraps err with provider attribution, passing nil through.
func Provider(providerID, op string, err error) error {
	if err == nil {
		return nil
	}
	return &ProviderError{Provider: providerID, Op: op, Err: err}
}

// FromStatus maps an HTTP response status to the error taxonomy. Statuses
// below 400 map to nil.
func FromStatus(status int, retryAfter time.Duration) error {
	switch {
	case status < 400:
		return nil
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusTooManyRequests:
		return &RateLimitError{RetryAfter: retryAfter}
	case status == http.StatusForbidden:
		return ErrBlocked
	case status == http.StatusRequestTimeout:
		return ErrTimeout
	case status >= 500:
		return fmt.Errorf("%w: status %d", ErrServerError, status)
	default:
		return fmt.Errorf("%w: status %d", ErrBadRequest, status)
	}
}

// Categorize places any error into the taxonomy. Unwrapped foreign errors
// (DNS failures, connection resets and the like) count as transient since
// retrying another provider is always the right response to them.
func Categorize(err error) Category {
	switch {
	case err == nil:
		return CategoryUnknown
	case Is(err, ErrRateLimit):
		return CategoryRateLimited
	case Is(err, ErrBlocked):
		return CategoryPermanent
	case Is(err, ErrUnsupported), Is(err, ErrInvalidInput), Is(err, ErrNoProvider):
		return CategoryConfig
	case Is(err, ErrTimeout), Is(err, ErrServerError), Is(err, ErrNetworkIssue),
		Is(err, context.DeadlineExceeded):
		return CategoryTransient
	case Is(err, ErrNotFound), Is(err, ErrBadRequest):
		return CategoryPermanent
	default:
		return CategoryTransient
	}
}

// RetryAfter extracts the provider-requested retry delay from a rate-limit
// error chain, returning false when the error carries none.
func RetryAfter(err error) (time.Duration, bool) {
	var rle *RateLimitError
	if As(err, &rle) && rle.RetryAfter > 0 {
		return rle.RetryAfter, true
	}
	return 0, false
}

// Retryable reports whether the same request could succeed against the same
// provider later. Permanent and config failures are not retryable.
func Retryable(err error) bool {
	switch Categorize(err) {
	case CategoryTransient, CategoryRateLimited:
		return true
	default:
		return false
	}
}
