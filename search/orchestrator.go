package search

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"Lodestar/cache"
	"Lodestar/metadata"
	"Lodestar/pkg/errors"
	"Lodestar/pkg/logger"
	"Lodestar/source"
)

// Enricher supplies cross-provider metadata for a title. Satisfied by
// *metadata.Manager.
type Enricher interface {
	GetByTitle(ctx context.Context, title string) (*metadata.Record, error)
}

// Options configures an Orchestrator.
type Options struct {
	// TTL for composed results. These are expensive (a full fan-out plus
	// enrichment), so they live longer than raw per-provider results.
	TTL          time.Duration
	CacheEntries int
	// EnrichLimit caps how many leading results are enriched per request.
	EnrichLimit int
	Concurrency int
	// DefaultLimit and MaxLimit bound the requested result count.
	DefaultLimit int
	MaxLimit     int
}

// DefaultOptions returns the options used when a field is left zero.
func DefaultOptions() Options {
	return Options{
		TTL:          time.Hour,
		CacheEntries: 256,
		EnrichLimit:  10,
		Concurrency:  5,
		DefaultLimit: 20,
		MaxLimit:     50,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.TTL <= 0 {
		o.TTL = def.TTL
	}
	if o.CacheEntries <= 0 {
		o.CacheEntries = def.CacheEntries
	}
	if o.EnrichLimit <= 0 {
		o.EnrichLimit = def.EnrichLimit
	}
	if o.Concurrency <= 0 {
		o.Concurrency = def.Concurrency
	}
	if o.DefaultLimit <= 0 {
		o.DefaultLimit = def.DefaultLimit
	}
	if o.MaxLimit <= 0 {
		o.MaxLimit = def.MaxLimit
	}
	return o
}

// Request is one smart-search invocation.
type Request struct {
	Query string
	// Limit truncates the unified results; zero means the default.
	Limit int
	// Providers restricts the fan-out to the named providers.
	Providers []string
	// Enrich attaches unified metadata to the leading results.
	Enrich bool
}

// Orchestrator fans a query out across providers, merges near-duplicate
// hits into unified results, optionally enriches them, and caches the
// composed answer.
type Orchestrator struct {
	opts     Options
	manager  *source.Manager
	enricher Enricher
	log      *logger.Service
	cache    *cache.Cache[[]Result]
}

// NewOrchestrator builds the orchestrator on top of the router. enricher
// may be nil, which disables enrichment regardless of the request flag.
func NewOrchestrator(manager *source.Manager, enricher Enricher, log *logger.Service, opts Options) *Orchestrator {
	opts = opts.withDefaults()
	return &Orchestrator{
		opts:     opts,
		manager:  manager,
		enricher: enricher,
		log:      log,
		cache:    cache.New[[]Result]("smartsearch", opts.CacheEntries, opts.TTL),
	}
}

func (o *Orchestrator) cacheKey(req Request, limit int) string {
	subset := append([]string(nil), req.Providers...)
	sort.Strings(subset)
	return cache.Key(
		"smart",
		strings.Join(subset, ","),
		cache.NormalizeQuery(req.Query),
		strconv.Itoa(limit),
		strconv.FormatBool(req.Enrich && o.enricher != nil),
	)
}

// Search runs the full pipeline: cache, fan-out, dedupe, truncate,
// enrich, cache. Provider failures during fan-out are absorbed by the
// router; per-title enrichment failures leave that result unenriched.
func (o *Orchestrator) Search(ctx context.Context, req Request) ([]Result, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", errors.ErrInvalidInput)
	}
	req.Query = query

	limit := req.Limit
	if limit <= 0 {
		limit = o.opts.DefaultLimit
	}
	if limit > o.opts.MaxLimit {
		limit = o.opts.MaxLimit
	}

	key := o.cacheKey(req, limit)
	if hit, ok := o.cache.Get(key); ok {
		return hit, nil
	}

	started := time.Now()
	raw := o.manager.SearchAll(ctx, query, 1, req.Providers)
	unified := Dedupe(raw)
	if len(unified) > limit {
		unified = unified[:limit]
	}

	if req.Enrich && o.enricher != nil {
		o.enrich(ctx, unified)
	}

	o.log.Debug("Smart search %q: %d providers answered, %d unified results in %s",
		query, len(raw), len(unified), time.Since(started).Round(time.Millisecond))

	if len(unified) > 0 {
		o.cache.Set(key, unified)
	}
	return unified, nil
}

// enrich decorates the leading results in place. Each title is enriched
// concurrently; a failed title is logged and left bare.
func (o *Orchestrator) enrich(ctx context.Context, results []Result) {
	n := len(results)
	if n > o.opts.EnrichLimit {
		n = o.opts.EnrichLimit
	}

	var g errgroup.Group
	g.SetLimit(o.opts.Concurrency)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			rec, err := o.enricher.GetByTitle(ctx, results[i].Title)
			if err != nil {
				o.log.Debug("Enrichment failed for %q: %v", results[i].Title, err)
				return nil
			}
			results[i].Metadata = rec
			if rec.CrossMappings() >= 2 {
				results[i].Confidence += confidenceEnrichBump
				if results[i].Confidence > 1 {
					results[i].Confidence = 1
				}
			}
			return nil
		})
	}
	g.Wait()
}

// CacheStats reports the composed-result cache counters.
func (o *Orchestrator) CacheStats() cache.Stats {
	return o.cache.Stats()
}
