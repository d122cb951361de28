package breaker

import (
	"sync"
	"time"
)

// State is the circuit position for one provider.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "CLOSED"
	}
}

// Config holds the transition thresholds shared by every breaker.
type Config struct {
	FailureThreshold  int
	SuccessThreshold  int
	RecoveryTimeout   time.Duration
	MaxHalfOpenProbes int
}

// DefaultConfig returns the thresholds used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		FailureThreshold:  5,
		SuccessThreshold:  2,
		RecoveryTimeout:   60 * time.Second,
		MaxHalfOpenProbes: 3,
	}
}

// Breaker is a per-provider circuit breaker. CLOSED counts consecutive
// failures; OPEN rejects everything until the recovery timeout elapses,
// which is noticed lazily on the next read rather than by a timer;
// HALF_OPEN admits a bounded number of concurrent probes and falls back to
// OPEN on the first probe failure. No method blocks: each call takes the
// mutex for exactly one read-then-transition sequence.
type Breaker struct {
	cfg Config

	mu             sync.Mutex
	state          State
	consecFailures int
	consecSuccs    int
	openedAt       time.Time
	probes         int
	rejections     uint64
	totalSuccesses uint64
	totalFailures  uint64
}

// Stats is a point-in-time snapshot of a breaker.
type Stats struct {
	State               string    `json:"state"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	Successes           uint64    `json:"successes"`
	Failures            uint64    `json:"failures"`
	Rejections          uint64    `json:"rejections"`
	OpenedAt            time.Time `json:"opened_at,omitempty"`
}

// New creates a breaker in CLOSED with the given config.
func New(cfg Config) *Breaker {
	return &Breaker{cfg: cfg, state: StateClosed}
}

// refresh applies the lazy OPEN -> HALF_OPEN transition. Callers hold the mutex.
func (b *Breaker) refresh(now time.Time) {
	if b.state == StateOpen && now.Sub(b.openedAt) >= b.cfg.RecoveryTimeout {
		b.state = StateHalfOpen
		b.probes = 0
		b.consecSuccs = 0
	}
}

// CanExecute reports whether a call may go out right now. In HALF_OPEN a
// true return reserves one probe slot, released when the outcome is
// recorded; past the probe limit the call is rejected and counted.
func (b *Breaker) CanExecute() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refresh(time.Now())

	switch b.state {
	case StateClosed:
		return true
	case StateHalfOpen:
		if b.probes < b.cfg.MaxHalfOpenProbes {
			b.probes++
			return true
		}
		b.rejections++
		return false
	default:
		b.rejections++
		return false
	}
}

// RecordSuccess notes a successful call and may close a half-open circuit.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.totalSuccesses++

	switch b.state {
	case StateClosed:
		b.consecFailures = 0
	case StateHalfOpen:
		if b.probes > 0 {
			b.probes--
		}
		b.consecSuccs++
		if b.consecSuccs >= b.cfg.SuccessThreshold {
			b.state = StateClosed
			b.consecFailures = 0
			b.consecSuccs = 0
			b.probes = 0
		}
	case StateOpen:
		// A probe that was dispatched before the circuit reopened; stale.
	}
}

// RecordFailure notes a failed call, opening the circuit when the failure
// threshold is reached or immediately when a half-open probe fails.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.totalFailures++
	b.consecSuccs = 0

	switch b.state {
	case StateClosed:
		b.consecFailures++
		if b.consecFailures >= b.cfg.FailureThreshold {
			b.state = StateOpen
			b.openedAt = time.Now()
		}
	case StateHalfOpen:
		b.state = StateOpen
		b.openedAt = time.Now()
		b.probes = 0
	case StateOpen:
		b.consecFailures++
	}
}

// State returns the current state, applying the lazy recovery transition.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refresh(time.Now())
	return b.state
}

// Reset forces the breaker back to a fresh CLOSED state.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state = StateClosed
	b.consecFailures = 0
	b.consecSuccs = 0
	b.probes = 0
	b.openedAt = time.Time{}
}

// Stats snapshots the breaker counters.
func (b *Breaker) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refresh(time.Now())

	return Stats{
		State:               b.state.String(),
		ConsecutiveFailures: b.consecFailures,
		Successes:           b.totalSuccesses,
		Failures:            b.totalFailures,
		Rejections:          b.rejections,
		OpenedAt:            b.openedAt,
	}
}
