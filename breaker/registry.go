package breaker

import "sync"

// Registry owns one breaker per provider id, created lazily with a shared
// config.
type Registry struct {
	cfg      Config
	mu       sync.RWMutex
	breakers map[string]*Breaker
}

// Snapshot aggregates the registry for health reporting.
type Snapshot struct {
	Closed   int              `json:"closed"`
	Open     int              `json:"open"`
	HalfOpen int              `json:"half_open"`
	Breakers map[string]Stats `json:"breakers"`
}

// NewRegistry creates a registry handing out breakers with cfg.
func NewRegistry(cfg Config) *Registry {
	return &Registry{cfg: cfg, breakers: make(map[string]*Breaker)}
}

// Get returns the breaker for a provider id, creating it on first use.
func (r *Registry) Get(id string) *Breaker {
	r.mu.RLock()
	b, ok := r.breakers[id]
	r.mu.RUnlock()
	if ok {
		return b
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring the write lock.
	if b, ok := r.breakers[id]; ok {
		return b
	}

	b = New(r.cfg)
	r.breakers[id] = b
	return b
}

// Reset clears the breaker for one provider id, if present.
func (r *Registry) Reset(id string) {
	r.mu.RLock()
	b, ok := r.breakers[id]
	r.mu.RUnlock()

	if ok {
		b.Reset()
	}
}

// ResetAll clears every breaker.
func (r *Registry) ResetAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, b := range r.breakers {
		b.Reset()
	}
}

// Snapshot returns per-provider stats plus state counts.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := Snapshot{Breakers: make(map[string]Stats, len(r.breakers))}
	for id, b := range r.breakers {
		stats := b.Stats()
		snap.Breakers[id] = stats
		switch stats.State {
		case StateOpen.String():
			snap.Open++
		case StateHalfOpen.String():
			snap.HalfOpen++
		default:
			snap.Closed++
		}
	}
	return snap
}
