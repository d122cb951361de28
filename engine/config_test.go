package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"Lodestar/engine"
)

func TestDefaultConfig(t *testing.T) {
	cfg := engine.Default()

	assert.Equal(t, "Lodestar/1.0", cfg.UserAgent)
	assert.Equal(t, ":8080", cfg.APIAddr)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "anilist", cfg.Metadata.Primary)
	assert.Equal(t, "mal", cfg.Metadata.Authority)
	assert.Equal(t, 5, cfg.Source.FanOut)
	assert.NotZero(t, cfg.Breaker.FailureThreshold)
}

func TestLoadOverridesFromEnvironment(t *testing.T) {
	t.Setenv("LODESTAR_USER_AGENT", "Probe/2.0")
	t.Setenv("LODESTAR_HTTP_TIMEOUT", "5")
	t.Setenv("LODESTAR_PRIORITY", "mgd, cmk")
	t.Setenv("LODESTAR_BREAKER_FAILURES", "7")
	t.Setenv("LODESTAR_CONCURRENCY", "9")
	t.Setenv("LODESTAR_RATE_INTERVAL_MS", "250")
	t.Setenv("LODESTAR_VERBOSE", "true")
	t.Setenv("LODESTAR_ACTIVE_PROVIDER", "cmk")

	cfg := engine.Load()

	assert.Equal(t, "Probe/2.0", cfg.UserAgent)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, []string{"mgd", "cmk"}, cfg.Source.Priority)
	assert.Equal(t, 7, cfg.Breaker.FailureThreshold)
	assert.Equal(t, 9, cfg.Source.Concurrency)
	assert.Equal(t, 9, cfg.Search.Concurrency, "search shares the concurrency knob")
	assert.Equal(t, 250*time.Millisecond, cfg.RateEvery)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, "cmk", cfg.Source.ActiveProvider)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("LODESTAR_HTTP_TIMEOUT", "soon")
	t.Setenv("LODESTAR_BREAKER_FAILURES", "many")
	t.Setenv("LODESTAR_VERBOSE", "yep")

	cfg := engine.Load()
	def := engine.Default()

	assert.Equal(t, def.HTTPTimeout, cfg.HTTPTimeout)
	assert.Equal(t, def.Breaker.FailureThreshold, cfg.Breaker.FailureThreshold)
	assert.Equal(t, def.Verbose, cfg.Verbose)
}

func TestLoadListTrimsBlankEntries(t *testing.T) {
	t.Setenv("LODESTAR_DISABLED_PROVIDERS", "a,, b ,")

	cfg := engine.Load()

	assert.Equal(t, []string{"a", "b"}, cfg.DisabledProviders)
}
