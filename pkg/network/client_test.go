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

package network_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"Lodestar/pkg/errors"
	"Lodestar/pkg/logger"
	"Lodestar/pkg/network"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, retries int) *network.Client {
	t.Helper()
	c, err := network.NewClient(network.ClientConfig{
		Timeout:   5 * time.Second,
		UserAgent: "lodestar-test",
		Retries:   retries,
	}, network.NewRateLimiterService(time.Millisecond), logger.New(false, false))
	require.NoError(t, err)
	return c
}

func TestFetchJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "lodestar-test", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"title":"Naruto"}`))
	}))
	defer srv.Close()

	var out struct {
		Title string `json:"title"`
	}
	err := newTestClient(t, 0).FetchJSON(context.Background(), srv.URL, &out, nil)
	require.NoError(t, err)
	assert.Equal(t, "Naruto", out.Title)
}

func TestRetryOnServerError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	resp, err := newTestClient(t, 1).FetchWithRetries(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestNotFoundFailsImmediately(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient(t, 3).FetchWithRetries(context.Background(), srv.URL, nil)
	assert.ErrorIs(t, err, errors.ErrNotFound)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls), "4xx must not be retried")
}

func TestRateLimitCarriesRetryAfter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "3")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient(t, 0).FetchWithRetries(context.Background(), srv.URL, nil)
	require.Error(t, err)
	assert.True(t, errors.IsRateLimited(err))

	after, ok := errors.RetryAfter(err)
	require.True(t, ok)
	assert.Equal(t, 3*time.Second, after)
}

func TestProxyRequestedButMissing(t *testing.T) {
	_, err := newTestClient(t, 0).FetchWithRetries(context.Background(),
		"http://example.invalid", &network.RequestOptions{UseProxy: true})
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}
