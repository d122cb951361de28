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

package errors_test

import (
	"fmt"
	"testing"
	"time"

	"Lodestar/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromStatus(t *testing.T) {
	assert.NoError(t, errors.FromStatus(200, 0))
	assert.NoError(t, errors.FromStatus(304, 0))

	assert.ErrorIs(t, errors.FromStatus(404, 0), errors.ErrNotFound)
	assert.ErrorIs(t, errors.FromStatus(429, 0), errors.ErrRateLimit)
	assert.ErrorIs(t, errors.FromStatus(403, 0), errors.ErrBlocked)
	assert.ErrorIs(t, errors.FromStatus(408, 0), errors.ErrTimeout)
	assert.ErrorIs(t, errors.FromStatus(500, 0), errors.ErrServerError)
	assert.ErrorIs(t, errors.FromStatus(503, 0), errors.ErrServerError)
	assert.ErrorIs(t, errors.FromStatus(422, 0), errors.ErrBadRequest)
}

func TestRetryAfterPropagation(t *testing.T) {
	err := errors.FromStatus(429, 7*time.Second)
	require.Error(t, err)

	wrapped := fmt.Errorf("fetching page: %w", err)
	after, ok := errors.RetryAfter(wrapped)
	require.True(t, ok)
	assert.Equal(t, 7*time.Second, after)

	_, ok = errors.RetryAfter(errors.ErrTimeout)
	assert.False(t, ok)
}

func TestCategorize(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want errors.Category
	}{
		{"timeout", errors.ErrTimeout, errors.CategoryTransient},
		{"server", fmt.Errorf("wrapped: %w", errors.ErrServerError), errors.CategoryTransient},
		{"network", errors.ErrNetworkIssue, errors.CategoryTransient},
		{"rate limit", &errors.RateLimitError{RetryAfter: time.Second}, errors.CategoryRateLimited},
		{"blocked", errors.ErrBlocked, errors.CategoryPermanent},
		{"not found", errors.ErrNotFound, errors.CategoryPermanent},
		{"unsupported", errors.ErrUnsupported, errors.CategoryConfig},
		{"foreign", fmt.Errorf("connection reset by peer"), errors.CategoryTransient},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, errors.Categorize(tc.err))
		})
	}
}

func TestProviderError(t *testing.T) {
	err := errors.Provider("mgd", "search", errors.ErrServerError)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrServerError)
	assert.Contains(t, err.Error(), "mgd")
	assert.Contains(t, err.Error(), "search")

	var pe *errors.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "mgd", pe.Provider)

	assert.NoError(t, errors.Provider("mgd", "search", nil))
}

func TestRetryable(t *testing.T) {
	assert.True(t, errors.Retryable(errors.ErrTimeout))
	assert.True(t, errors.Retryable(&errors.RateLimitError{}))
	assert.False(t, errors.Retryable(errors.ErrBlocked))
	assert.False(t, errors.Retryable(errors.ErrUnsupported))
}
