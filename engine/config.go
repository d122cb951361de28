package engine

import (
	"os"
	"strconv"
	"strings"
	"time"

	"Lodestar/breaker"
	"Lodestar/metadata"
	"Lodestar/search"
	"Lodestar/source"
)

// Config holds every tunable the engine exposes. All fields have working
// defaults; Load overlays LODESTAR_* environment variables on top.
type Config struct {
	Verbose bool
	Debug   bool
	LogFile string

	// Shared HTTP client settings.
	UserAgent   string
	HTTPTimeout time.Duration
	Retries     int
	ProxyURL    string
	// RateEvery is the default politeness interval for hosts without an
	// explicit limit.
	RateEvery time.Duration

	// APIAddr is the listen address of the HTTP server.
	APIAddr string

	// DisabledProviders are skipped at registration time.
	DisabledProviders []string

	Source   source.Options
	Breaker  breaker.Config
	Search   search.Options
	Metadata metadata.Options
}

// Default returns the built-in configuration.
func Default() Config {
	cfg := Config{
		UserAgent:   "Lodestar/1.0",
		HTTPTimeout: 30 * time.Second,
		Retries:     3,
		RateEvery:   500 * time.Millisecond,
		APIAddr:     ":8080",
		Source:      source.DefaultOptions(),
		Breaker:     breaker.DefaultConfig(),
		Search:      search.DefaultOptions(),
		Metadata:    metadata.DefaultOptions(),
	}
	cfg.Metadata.Primary = "anilist"
	cfg.Metadata.Authority = "mal"
	return cfg
}

// Load reads configuration from environment variables with the defaults
// from Default.
func Load() Config {
	cfg := Default()

	cfg.Verbose = getEnvBool("LODESTAR_VERBOSE", cfg.Verbose)
	cfg.Debug = getEnvBool("LODESTAR_DEBUG", cfg.Debug)
	cfg.LogFile = getEnv("LODESTAR_LOG_FILE", cfg.LogFile)

	cfg.UserAgent = getEnv("LODESTAR_USER_AGENT", cfg.UserAgent)
	cfg.HTTPTimeout = getEnvSeconds("LODESTAR_HTTP_TIMEOUT", cfg.HTTPTimeout)
	cfg.Retries = getEnvInt("LODESTAR_HTTP_RETRIES", cfg.Retries)
	cfg.ProxyURL = getEnv("LODESTAR_PROXY", cfg.ProxyURL)
	cfg.RateEvery = getEnvMillis("LODESTAR_RATE_INTERVAL_MS", cfg.RateEvery)

	cfg.APIAddr = getEnv("LODESTAR_API_ADDR", cfg.APIAddr)
	cfg.DisabledProviders = getEnvList("LODESTAR_DISABLED_PROVIDERS", cfg.DisabledProviders)

	cfg.Source.ActiveProvider = getEnv("LODESTAR_ACTIVE_PROVIDER", cfg.Source.ActiveProvider)
	cfg.Source.Priority = getEnvList("LODESTAR_PRIORITY", cfg.Source.Priority)
	cfg.Source.BaseCooldown = getEnvSeconds("LODESTAR_BASE_COOLDOWN", cfg.Source.BaseCooldown)
	cfg.Source.MaxCooldown = getEnvSeconds("LODESTAR_MAX_COOLDOWN", cfg.Source.MaxCooldown)
	cfg.Source.Concurrency = getEnvInt("LODESTAR_CONCURRENCY", cfg.Source.Concurrency)
	cfg.Source.FanOut = getEnvInt("LODESTAR_FANOUT", cfg.Source.FanOut)
	cfg.Source.CacheEntries = getEnvInt("LODESTAR_CACHE_ENTRIES", cfg.Source.CacheEntries)
	cfg.Source.SearchTTL = getEnvSeconds("LODESTAR_SEARCH_TTL", cfg.Source.SearchTTL)
	cfg.Source.PopularTTL = getEnvSeconds("LODESTAR_POPULAR_TTL", cfg.Source.PopularTTL)
	cfg.Source.LatestTTL = getEnvSeconds("LODESTAR_LATEST_TTL", cfg.Source.LatestTTL)
	cfg.Source.ChaptersTTL = getEnvSeconds("LODESTAR_CHAPTERS_TTL", cfg.Source.ChaptersTTL)
	cfg.Source.PagesTTL = getEnvSeconds("LODESTAR_PAGES_TTL", cfg.Source.PagesTTL)

	cfg.Breaker.FailureThreshold = getEnvInt("LODESTAR_BREAKER_FAILURES", cfg.Breaker.FailureThreshold)
	cfg.Breaker.SuccessThreshold = getEnvInt("LODESTAR_BREAKER_SUCCESSES", cfg.Breaker.SuccessThreshold)
	cfg.Breaker.RecoveryTimeout = getEnvSeconds("LODESTAR_BREAKER_RECOVERY", cfg.Breaker.RecoveryTimeout)
	cfg.Breaker.MaxHalfOpenProbes = getEnvInt("LODESTAR_BREAKER_PROBES", cfg.Breaker.MaxHalfOpenProbes)

	cfg.Search.TTL = getEnvSeconds("LODESTAR_SMART_TTL", cfg.Search.TTL)
	cfg.Search.CacheEntries = getEnvInt("LODESTAR_CACHE_ENTRIES", cfg.Search.CacheEntries)
	cfg.Search.EnrichLimit = getEnvInt("LODESTAR_ENRICH_LIMIT", cfg.Search.EnrichLimit)
	cfg.Search.Concurrency = cfg.Source.Concurrency

	cfg.Metadata.Primary = getEnv("LODESTAR_META_PRIMARY", cfg.Metadata.Primary)
	cfg.Metadata.Authority = getEnv("LODESTAR_META_AUTHORITY", cfg.Metadata.Authority)
	cfg.Metadata.TTL = getEnvSeconds("LODESTAR_DETAILS_TTL", cfg.Metadata.TTL)
	cfg.Metadata.Concurrency = cfg.Source.Concurrency

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvSeconds(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return time.Duration(parsed) * time.Second
		}
	}
	return defaultValue
}

func getEnvMillis(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return time.Duration(parsed) * time.Millisecond
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated variable, trimming blanks.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
