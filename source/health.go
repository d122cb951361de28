package source

import (
	"time"

	"Lodestar/breaker"
	"Lodestar/cache"
	"Lodestar/pkg/errors"
)

// Scoring weights. A provider with a perfect record, sub-second responses,
// and top static priority scores 100; the half-open penalty keeps a
// recovering provider slightly below a fully closed one with the same
// numbers.
const (
	successRateWeight  = 0.6
	failurePenaltyCap  = 25.0
	failurePenaltyStep = 5.0
	responseBonusMax   = 15.0
	fastResponse       = 1 * time.Second
	slowResponse       = 5 * time.Second
	priorityBonusMax   = 5.0
	halfOpenPenalty    = 10.0
)

// Metrics is the mutable health record of one provider. It is owned by the
// Manager and only ever mutated under the Manager lock.
type Metrics struct {
	Requests            int64
	Successes           int64
	Failures            int64
	TotalResponseTime   time.Duration
	ConsecutiveFailures int
	LastFailure         time.Time
	CooldownUntil       time.Time
}

// successRate is the percentage of settled attempts that succeeded. Empty
// results settle nothing, so they do not move it. A provider with no
// settled attempts rates 100 so that a fresh registry orders purely by
// static priority.
func (m *Metrics) successRate() float64 {
	settled := m.Successes + m.Failures
	if settled == 0 {
		return 100
	}
	return float64(m.Successes) / float64(settled) * 100
}

// avgResponse is the mean response time across successful attempts.
func (m *Metrics) avgResponse() time.Duration {
	if m.Successes == 0 {
		return 0
	}
	return m.TotalResponseTime / time.Duration(m.Successes)
}

func (m *Metrics) coolingDown(now time.Time) bool {
	return m.CooldownUntil.After(now)
}

// applyFailure records one failure and computes the exponential cooldown:
// base doubling per consecutive failure, capped at max, and never shorter
// than a rate-limit retry-after the provider sent along.
func (m *Metrics) applyFailure(err error, now time.Time, base, max time.Duration) {
	m.Requests++
	m.Failures++
	m.ConsecutiveFailures++
	m.LastFailure = now

	cooldown := base
	for i := 1; i < m.ConsecutiveFailures; i++ {
		cooldown *= 2
		if cooldown >= max {
			cooldown = max
			break
		}
	}
	if cooldown > max {
		cooldown = max
	}
	if after, ok := errors.RetryAfter(err); ok && after > cooldown {
		cooldown = after
	}
	m.CooldownUntil = now.Add(cooldown)
}

func (m *Metrics) applySuccess(elapsed time.Duration) {
	m.Requests++
	m.Successes++
	m.ConsecutiveFailures = 0
	m.TotalResponseTime += elapsed
}

// applyAttempt records an attempt that settled neither way (the provider
// answered but had no data).
func (m *Metrics) applyAttempt() {
	m.Requests++
}

// score derives the 0-100 health number used to order providers for
// fallback: success rate dominates, recent consecutive failures and slow
// responses pull it down, static priority nudges it up.
func (m *Metrics) score(priorityBonus float64, state breaker.State) float64 {
	s := successRateWeight * m.successRate()

	penalty := failurePenaltyStep * float64(m.ConsecutiveFailures)
	if penalty > failurePenaltyCap {
		penalty = failurePenaltyCap
	}
	s += failurePenaltyCap - penalty

	if m.Successes > 0 {
		avg := m.avgResponse()
		switch {
		case avg <= fastResponse:
			s += responseBonusMax
		case avg < slowResponse:
			s += responseBonusMax * float64(slowResponse-avg) / float64(slowResponse-fastResponse)
		}
	} else {
		s += responseBonusMax
	}

	s += priorityBonus
	if state == breaker.StateHalfOpen {
		s -= halfOpenPenalty
	}

	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

// ProviderHealth is one provider's row in the health report.
type ProviderHealth struct {
	ID                  string  `json:"id"`
	Name                string  `json:"name"`
	Available           bool    `json:"available"`
	State               string  `json:"state"`
	Score               float64 `json:"score"`
	SuccessRate         float64 `json:"success_rate"`
	Requests            int64   `json:"requests"`
	Successes           int64   `json:"successes"`
	Failures            int64   `json:"failures"`
	ConsecutiveFailures int     `json:"consecutive_failures"`
	AvgResponseMs       int64   `json:"avg_response_ms"`
	CooldownRemainingMs int64   `json:"cooldown_remaining_ms"`
	Rejections          uint64  `json:"rejections"`
	Rank                float64 `json:"rank"`
}

// Report is the full health snapshot returned by GetHealthReport.
type Report struct {
	GeneratedAt time.Time        `json:"generated_at"`
	Providers   []ProviderHealth `json:"providers"`
	Breakers    breaker.Snapshot `json:"breakers"`
	Caches      []cache.Stats    `json:"caches"`
}
