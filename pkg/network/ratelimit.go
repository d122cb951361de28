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

package network

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterService spaces requests per key (usually the upstream host).
// Keys without an explicit limit get the default interval on first use.
type RateLimiterService struct {
	limiters     map[string]*rate.Limiter
	defaultEvery time.Duration
	mu           sync.Mutex
}

// NewRateLimiterService creates a rate limiter service with the given
// default per-key interval.
func NewRateLimiterService(defaultEvery time.Duration) *RateLimiterService {
	return &RateLimiterService{
		limiters:     make(map[string]*rate.Limiter),
		defaultEvery: defaultEvery,
	}
}

// SetLimit sets the minimum interval between requests for a key.
func (r *RateLimiterService) SetLimit(key string, every time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.limiters[key] = rate.NewLimiter(rate.Every(every), 1)
}

func (r *RateLimiterService) limiter(key string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.limiters[key]
	if !ok {
		l = rate.NewLimiter(rate.Every(r.defaultEvery), 1)
		r.limiters[key] = l
	}
	return l
}

// Wait blocks until the key's limiter admits a request or the context ends.
func (r *RateLimiterService) Wait(ctx context.Context, key string) error {
	return r.limiter(key).Wait(ctx)
}
