package source

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"Lodestar/breaker"
	"Lodestar/cache"
	"Lodestar/pkg/errors"
	"Lodestar/pkg/logger"
	"Lodestar/providers"
	"Lodestar/reliability"
)

// Operation kinds, also used as cache key prefixes.
const (
	opSearch   = "search"
	opPopular  = "popular"
	opLatest   = "latest"
	opChapters = "chapters"
	opPages    = "pages"
)

// anyProvider marks cache entries produced by fallback routing rather than
// an explicit provider id.
const anyProvider = "*"

// Options configures a Manager. Zero values fall back to the defaults
// below, so callers only set what they care about.
type Options struct {
	// ActiveProvider is pinned to the front of the fallback order while it
	// is healthy.
	ActiveProvider string
	// Priority lists provider ids from most to least preferred. Providers
	// not listed rank after all listed ones, in registration order.
	Priority []string

	BaseCooldown time.Duration
	MaxCooldown  time.Duration

	// Concurrency bounds the parallel fan-out worker pool.
	Concurrency int
	// FanOut is how many top-ranked providers a parallel search queries
	// when the caller does not name a subset.
	FanOut int

	CacheEntries int
	SearchTTL    time.Duration
	PopularTTL   time.Duration
	LatestTTL    time.Duration
	ChaptersTTL  time.Duration
	PagesTTL     time.Duration
}

// DefaultOptions returns the options used when a field is left zero.
func DefaultOptions() Options {
	return Options{
		BaseCooldown: 30 * time.Second,
		MaxCooldown:  15 * time.Minute,
		Concurrency:  5,
		FanOut:       5,
		CacheEntries: 512,
		SearchTTL:    10 * time.Minute,
		PopularTTL:   15 * time.Minute,
		LatestTTL:    5 * time.Minute,
		ChaptersTTL:  30 * time.Minute,
		PagesTTL:     30 * time.Minute,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.BaseCooldown <= 0 {
		o.BaseCooldown = def.BaseCooldown
	}
	if o.MaxCooldown <= 0 {
		o.MaxCooldown = def.MaxCooldown
	}
	if o.Concurrency <= 0 {
		o.Concurrency = def.Concurrency
	}
	if o.FanOut <= 0 {
		o.FanOut = def.FanOut
	}
	if o.CacheEntries <= 0 {
		o.CacheEntries = def.CacheEntries
	}
	if o.SearchTTL <= 0 {
		o.SearchTTL = def.SearchTTL
	}
	if o.PopularTTL <= 0 {
		o.PopularTTL = def.PopularTTL
	}
	if o.LatestTTL <= 0 {
		o.LatestTTL = def.LatestTTL
	}
	if o.ChaptersTTL <= 0 {
		o.ChaptersTTL = def.ChaptersTTL
	}
	if o.PagesTTL <= 0 {
		o.PagesTTL = def.PagesTTL
	}
	return o
}

// ProviderResult carries one provider's slice of a parallel fan-out.
type ProviderResult struct {
	ProviderID   string            `json:"provider_id"`
	ProviderName string            `json:"provider_name"`
	Priority     int               `json:"priority"`
	Items        []providers.Manga `json:"items"`
}

// Manager owns the provider set and routes operations across it. Requests
// without an explicit provider id walk a health-ordered fallback list until
// one provider yields data; requests with an explicit id go straight to
// that provider. Either way every attempt is timed and settled into the
// per-provider health metrics, the provider's circuit breaker, and the
// reliability graph.
type Manager struct {
	opts     Options
	log      *logger.Service
	breakers *breaker.Registry
	graph    *reliability.Graph

	mu        sync.RWMutex
	providers map[string]providers.Provider
	order     []string
	metrics   map[string]*Metrics

	searchCache   *cache.Cache[[]providers.Manga]
	popularCache  *cache.Cache[[]providers.Manga]
	latestCache   *cache.Cache[[]providers.Manga]
	chaptersCache *cache.Cache[[]providers.ChapterInfo]
	pagesCache    *cache.Cache[[]providers.Page]
}

// NewManager builds a Manager around the given breaker registry and
// reliability graph. The registry and graph are shared with the engine so
// health reporting and resets see the same state the router mutates.
func NewManager(opts Options, breakers *breaker.Registry, graph *reliability.Graph, log *logger.Service) *Manager {
	opts = opts.withDefaults()
	return &Manager{
		opts:          opts,
		log:           log,
		breakers:      breakers,
		graph:         graph,
		providers:     make(map[string]providers.Provider),
		metrics:       make(map[string]*Metrics),
		searchCache:   cache.New[[]providers.Manga]("search", opts.CacheEntries, opts.SearchTTL),
		popularCache:  cache.New[[]providers.Manga]("popular", opts.CacheEntries, opts.PopularTTL),
		latestCache:   cache.New[[]providers.Manga]("latest", opts.CacheEntries, opts.LatestTTL),
		chaptersCache: cache.New[[]providers.ChapterInfo]("chapters", opts.CacheEntries, opts.ChaptersTTL),
		pagesCache:    cache.New[[]providers.Page]("pages", opts.CacheEntries, opts.PagesTTL),
	}
}

// Register adds a provider to the routing set. Registering the same id
// twice is a wiring bug and returns an error.
func (m *Manager) Register(p providers.Provider) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := p.ID()
	if _, exists := m.providers[id]; exists {
		return fmt.Errorf("%w: duplicate provider id %q", errors.ErrInvalidInput, id)
	}
	m.providers[id] = p
	m.order = append(m.order, id)
	m.metrics[id] = &Metrics{}
	m.graph.AddNode(id)
	return nil
}

// Get returns a registered provider by id.
func (m *Manager) Get(id string) (providers.Provider, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.providers[id]
	return p, ok
}

// All returns the registered providers sorted by static priority rank.
func (m *Manager) All() []providers.Provider {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]providers.Provider, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.providers[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return m.priorityRank(out[i].ID()) < m.priorityRank(out[j].ID())
	})
	return out
}

// PriorityRank reports a provider's position in the static priority list;
// unlisted providers rank after all listed ones in registration order.
func (m *Manager) PriorityRank(id string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.priorityRank(id)
}

func (m *Manager) priorityRank(id string) int {
	for i, pid := range m.opts.Priority {
		if pid == id {
			return i
		}
	}
	for i, pid := range m.order {
		if pid == id {
			return len(m.opts.Priority) + i
		}
	}
	return len(m.opts.Priority) + len(m.order)
}

// priorityBonus maps rank 0..n-1 onto priorityBonusMax..~0.
func (m *Manager) priorityBonus(id string) float64 {
	n := len(m.order)
	if n == 0 {
		return 0
	}
	rank := m.priorityRank(id)
	if rank >= n {
		rank = n - 1
	}
	return priorityBonusMax * float64(n-rank) / float64(n)
}

func supportsOp(p providers.Provider, op string) bool {
	switch op {
	case opPopular:
		return p.SupportsPopular()
	case opLatest:
		return p.SupportsLatest()
	default:
		return true
	}
}

// ordered computes the fallback order for one operation: the active
// provider first while it is healthy, then everything else by descending
// health score. When cooldowns and open circuits leave nothing to try, the
// ordering is recomputed ignoring both so the caller degrades to "try
// anyway" instead of returning nothing without a single attempt.
func (m *Manager) ordered(op string) []providers.Provider {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := time.Now()
	if out := m.orderedLocked(op, now, false); len(out) > 0 {
		return out
	}
	return m.orderedLocked(op, now, true)
}

func (m *Manager) orderedLocked(op string, now time.Time, ignoreGates bool) []providers.Provider {
	type scored struct {
		p     providers.Provider
		score float64
	}

	eligible := func(id string, p providers.Provider) (breaker.State, bool) {
		if !p.Available() || !supportsOp(p, op) {
			return breaker.StateClosed, false
		}
		st := m.breakers.Get(id).State()
		if ignoreGates {
			return st, true
		}
		if st == breaker.StateOpen || m.metrics[id].coolingDown(now) {
			return st, false
		}
		return st, true
	}

	var head providers.Provider
	if active := m.opts.ActiveProvider; active != "" {
		if p, ok := m.providers[active]; ok {
			if _, ok := eligible(active, p); ok {
				head = p
			}
		}
	}

	rest := make([]scored, 0, len(m.order))
	for _, id := range m.order {
		if head != nil && id == head.ID() {
			continue
		}
		p := m.providers[id]
		st, ok := eligible(id, p)
		if !ok {
			continue
		}
		rest = append(rest, scored{p: p, score: m.metrics[id].score(m.priorityBonus(id), st)})
	}

	sort.SliceStable(rest, func(i, j int) bool {
		if rest[i].score != rest[j].score {
			return rest[i].score > rest[j].score
		}
		return m.priorityRank(rest[i].p.ID()) < m.priorityRank(rest[j].p.ID())
	})

	out := make([]providers.Provider, 0, len(rest)+1)
	if head != nil {
		out = append(out, head)
	}
	for _, s := range rest {
		out = append(out, s.p)
	}
	return out
}

// settleSuccess records a timed, non-empty success everywhere it counts.
func (m *Manager) settleSuccess(id string, elapsed time.Duration) {
	m.mu.Lock()
	if met, ok := m.metrics[id]; ok {
		met.applySuccess(elapsed)
	}
	m.mu.Unlock()

	m.breakers.Get(id).RecordSuccess()
	m.graph.RecordSuccess(id)
}

// settleFailure records an error outcome. prev names the provider tried
// just before this one in a fallback walk; it is empty for direct calls
// and parallel fan-outs, where no fallback edge exists.
func (m *Manager) settleFailure(id, prev string, err error) {
	now := time.Now()
	m.mu.Lock()
	if met, ok := m.metrics[id]; ok {
		met.applyFailure(err, now, m.opts.BaseCooldown, m.opts.MaxCooldown)
	}
	m.mu.Unlock()

	m.breakers.Get(id).RecordFailure()
	if prev != "" {
		m.graph.RecordFallback(prev, id)
	}
}

// settleEmpty records an attempt that returned no data. The provider is
// reachable, so neither the breaker nor the health score moves.
func (m *Manager) settleEmpty(id string) {
	m.mu.Lock()
	if met, ok := m.metrics[id]; ok {
		met.applyAttempt()
	}
	m.mu.Unlock()
}

// runFallback walks the ordered provider list for op until one returns a
// non-empty result. Failures are absorbed into bookkeeping; exhaustion is
// a logged empty result, never an error.
func runFallback[T any](m *Manager, ctx context.Context, op string, invoke func(context.Context, providers.Provider) (T, error), count func(T) int) (T, string) {
	var zero T

	ordered := m.ordered(op)
	if len(ordered) == 0 {
		m.log.Warn("No providers registered for %s", op)
		return zero, ""
	}

	prev := ""
	for _, p := range ordered {
		id := p.ID()
		if !m.breakers.Get(id).CanExecute() {
			m.log.Debug("Breaker rejected %s for %s", id, op)
			continue
		}

		start := time.Now()
		result, err := invoke(ctx, p)
		elapsed := time.Since(start)

		if err != nil {
			m.settleFailure(id, prev, err)
			m.log.Warn("Provider %s failed %s after %s: %v", id, op, elapsed.Round(time.Millisecond), err)
			prev = id
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if count(result) == 0 {
			m.settleEmpty(id)
			m.log.Debug("Provider %s returned no results for %s", id, op)
			prev = id
			continue
		}

		m.settleSuccess(id, elapsed)
		m.log.Debug("Provider %s served %s in %s", id, op, elapsed.Round(time.Millisecond))
		return result, id
	}

	m.log.Warn("All providers exhausted for %s", op)
	return zero, ""
}

// runDirect executes op against one explicitly named provider. Unlike the
// fallback path the caller asked for this provider, so breaker rejections
// and provider errors surface as errors after being recorded.
func runDirect[T any](m *Manager, ctx context.Context, id, op string, invoke func(context.Context, providers.Provider) (T, error), count func(T) int) (T, error) {
	var zero T

	p, ok := m.Get(id)
	if !ok {
		return zero, fmt.Errorf("%w: %s", errors.ErrNoProvider, id)
	}
	if !p.Available() {
		return zero, fmt.Errorf("%w: %s", errors.ErrUnavailable, id)
	}
	if !supportsOp(p, op) {
		return zero, fmt.Errorf("%w: %s does not support %s", errors.ErrUnsupported, id, op)
	}
	if !m.breakers.Get(id).CanExecute() {
		return zero, fmt.Errorf("%w: circuit open for %s", errors.ErrUnavailable, id)
	}

	start := time.Now()
	result, err := invoke(ctx, p)
	elapsed := time.Since(start)

	if err != nil {
		m.settleFailure(id, "", err)
		return zero, errors.Provider(id, op, err)
	}
	if count(result) == 0 {
		m.settleEmpty(id)
		return zero, nil
	}

	m.settleSuccess(id, elapsed)
	return result, nil
}

func countManga(v []providers.Manga) int { return len(v) }

func countChapters(v []providers.ChapterInfo) int { return len(v) }

func countPages(v []providers.Page) int { return len(v) }

// Search routes a query across providers with fallback. providerID pins
// the call to one provider; leave it empty for adaptive routing.
func (m *Manager) Search(ctx context.Context, providerID, query string, page int) ([]providers.Manga, error) {
	invoke := func(ctx context.Context, p providers.Provider) ([]providers.Manga, error) {
		return p.Search(ctx, query, page)
	}

	if providerID != "" {
		key := cache.Key(opSearch, providerID, cache.NormalizeQuery(query), strconv.Itoa(page))
		if hit, ok := m.searchCache.Get(key); ok {
			return hit, nil
		}
		result, err := runDirect(m, ctx, providerID, opSearch, invoke, countManga)
		if err == nil && len(result) > 0 {
			m.searchCache.Set(key, result)
		}
		return result, err
	}

	key := cache.Key(opSearch, anyProvider, cache.NormalizeQuery(query), strconv.Itoa(page))
	if hit, ok := m.searchCache.Get(key); ok {
		return hit, nil
	}
	result, _ := runFallback(m, ctx, opSearch, invoke, countManga)
	if len(result) > 0 {
		m.searchCache.Set(key, result)
	}
	return result, nil
}

// Popular returns currently popular titles, routed like Search.
func (m *Manager) Popular(ctx context.Context, providerID string, page int) ([]providers.Manga, error) {
	invoke := func(ctx context.Context, p providers.Provider) ([]providers.Manga, error) {
		return p.Popular(ctx, page)
	}

	if providerID != "" {
		key := cache.Key(opPopular, providerID, strconv.Itoa(page))
		if hit, ok := m.popularCache.Get(key); ok {
			return hit, nil
		}
		result, err := runDirect(m, ctx, providerID, opPopular, invoke, countManga)
		if err == nil && len(result) > 0 {
			m.popularCache.Set(key, result)
		}
		return result, err
	}

	key := cache.Key(opPopular, anyProvider, strconv.Itoa(page))
	if hit, ok := m.popularCache.Get(key); ok {
		return hit, nil
	}
	result, _ := runFallback(m, ctx, opPopular, invoke, countManga)
	if len(result) > 0 {
		m.popularCache.Set(key, result)
	}
	return result, nil
}

// Latest returns recently updated titles, routed like Search.
func (m *Manager) Latest(ctx context.Context, providerID string, page int) ([]providers.Manga, error) {
	invoke := func(ctx context.Context, p providers.Provider) ([]providers.Manga, error) {
		return p.Latest(ctx, page)
	}

	if providerID != "" {
		key := cache.Key(opLatest, providerID, strconv.Itoa(page))
		if hit, ok := m.latestCache.Get(key); ok {
			return hit, nil
		}
		result, err := runDirect(m, ctx, providerID, opLatest, invoke, countManga)
		if err == nil && len(result) > 0 {
			m.latestCache.Set(key, result)
		}
		return result, err
	}

	key := cache.Key(opLatest, anyProvider, strconv.Itoa(page))
	if hit, ok := m.latestCache.Get(key); ok {
		return hit, nil
	}
	result, _ := runFallback(m, ctx, opLatest, invoke, countManga)
	if len(result) > 0 {
		m.latestCache.Set(key, result)
	}
	return result, nil
}

// Chapters lists a manga's chapters. Manga ids are provider-scoped, so the
// provider id is required and no fallback applies. The language filter is
// normalized to an ISO code so "English" and "en" share a cache entry.
func (m *Manager) Chapters(ctx context.Context, providerID, mangaID, language string) ([]providers.ChapterInfo, error) {
	language = providers.NormalizeLanguage(language)
	key := cache.Key(opChapters, providerID, mangaID, language)
	if hit, ok := m.chaptersCache.Get(key); ok {
		return hit, nil
	}
	result, err := runDirect(m, ctx, providerID, opChapters, func(ctx context.Context, p providers.Provider) ([]providers.ChapterInfo, error) {
		return p.Chapters(ctx, mangaID, language)
	}, countChapters)
	if err == nil && len(result) > 0 {
		m.chaptersCache.Set(key, result)
	}
	return result, err
}

// Pages lists a chapter's page images. Chapter ids are provider-scoped,
// so the provider id is required and no fallback applies.
func (m *Manager) Pages(ctx context.Context, providerID, chapterID string) ([]providers.Page, error) {
	key := cache.Key(opPages, providerID, chapterID)
	if hit, ok := m.pagesCache.Get(key); ok {
		return hit, nil
	}
	result, err := runDirect(m, ctx, providerID, opPages, func(ctx context.Context, p providers.Provider) ([]providers.Page, error) {
		return p.Pages(ctx, chapterID)
	}, countPages)
	if err == nil && len(result) > 0 {
		m.pagesCache.Set(key, result)
	}
	return result, err
}

// SearchAll queries several providers concurrently and returns every
// non-empty slice, keyed by provider. subset restricts the fan-out to the
// named providers; otherwise the top FanOut providers by current health
// order are queried. Providers whose breaker refuses execution are
// skipped. Per-provider outcomes settle into the same bookkeeping as the
// sequential path; no fallback edges are recorded because nothing falls
// back in a fan-out.
func (m *Manager) SearchAll(ctx context.Context, query string, page int, subset []string) []ProviderResult {
	var targets []providers.Provider
	if len(subset) > 0 {
		for _, id := range subset {
			p, ok := m.Get(id)
			if !ok {
				m.log.Warn("Unknown provider %s in fan-out subset", id)
				continue
			}
			if !p.Available() {
				continue
			}
			targets = append(targets, p)
		}
	} else {
		targets = m.ordered(opSearch)
		if len(targets) > m.opts.FanOut {
			targets = targets[:m.opts.FanOut]
		}
	}
	if len(targets) == 0 {
		m.log.Warn("No providers available for parallel search")
		return nil
	}

	var (
		resMu   sync.Mutex
		results []ProviderResult
	)
	var g errgroup.Group
	g.SetLimit(m.opts.Concurrency)

	for _, p := range targets {
		p := p
		g.Go(func() error {
			id := p.ID()
			if !m.breakers.Get(id).CanExecute() {
				m.log.Debug("Breaker rejected %s for parallel search", id)
				return nil
			}

			start := time.Now()
			items, err := p.Search(ctx, query, page)
			elapsed := time.Since(start)

			if err != nil {
				m.settleFailure(id, "", err)
				m.log.Warn("Provider %s failed parallel search: %v", id, err)
				return nil
			}
			if len(items) == 0 {
				m.settleEmpty(id)
				return nil
			}

			m.settleSuccess(id, elapsed)
			resMu.Lock()
			results = append(results, ProviderResult{
				ProviderID:   id,
				ProviderName: p.Name(),
				Priority:     m.PriorityRank(id),
				Items:        items,
			})
			resMu.Unlock()
			return nil
		})
	}
	g.Wait()

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Priority < results[j].Priority
	})
	return results
}

// Metrics returns a copy of one provider's health record.
func (m *Manager) Metrics(id string) (Metrics, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	met, ok := m.metrics[id]
	if !ok {
		return Metrics{}, false
	}
	return *met, true
}

// Report assembles the health snapshot: per-provider metrics joined with
// breaker state and the advisory reliability ranks, plus aggregate breaker
// and cache statistics.
func (m *Manager) Report() Report {
	ranks := m.graph.Ranks()
	snapshot := m.breakers.Snapshot()
	now := time.Now()

	m.mu.RLock()
	rows := make([]ProviderHealth, 0, len(m.order))
	for _, id := range m.order {
		p := m.providers[id]
		met := m.metrics[id]
		b := m.breakers.Get(id)
		state := b.State()
		st := b.Stats()

		remaining := time.Duration(0)
		if met.CooldownUntil.After(now) {
			remaining = met.CooldownUntil.Sub(now)
		}
		rows = append(rows, ProviderHealth{
			ID:                  id,
			Name:                p.Name(),
			Available:           p.Available(),
			State:               state.String(),
			Score:               met.score(m.priorityBonus(id), state),
			SuccessRate:         met.successRate(),
			Requests:            met.Requests,
			Successes:           met.Successes,
			Failures:            met.Failures,
			ConsecutiveFailures: met.ConsecutiveFailures,
			AvgResponseMs:       met.avgResponse().Milliseconds(),
			CooldownRemainingMs: remaining.Milliseconds(),
			Rejections:          st.Rejections,
			Rank:                ranks[id],
		})
	}
	m.mu.RUnlock()

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Score > rows[j].Score
	})

	return Report{
		GeneratedAt: now,
		Providers:   rows,
		Breakers:    snapshot,
		Caches:      m.CacheStats(),
	}
}

// CacheStats reports hit and eviction counters for every result cache.
func (m *Manager) CacheStats() []cache.Stats {
	return []cache.Stats{
		m.searchCache.Stats(),
		m.popularCache.Stats(),
		m.latestCache.Stats(),
		m.chaptersCache.Stats(),
		m.pagesCache.Stats(),
	}
}

// ResetProvider clears one provider's metrics and breaker. The reliability
// graph keeps its history; only a full reset discards it.
func (m *Manager) ResetProvider(id string) error {
	m.mu.Lock()
	if _, ok := m.providers[id]; !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", errors.ErrNoProvider, id)
	}
	m.metrics[id] = &Metrics{}
	m.mu.Unlock()

	m.breakers.Reset(id)
	m.log.Info("Reset health state for provider %s", id)
	return nil
}

// ResetAll clears every provider's metrics and breaker, drops all cached
// results, and resets the reliability graph.
func (m *Manager) ResetAll() {
	m.mu.Lock()
	ids := make([]string, len(m.order))
	copy(ids, m.order)
	for _, id := range ids {
		m.metrics[id] = &Metrics{}
	}
	m.mu.Unlock()

	m.breakers.ResetAll()
	m.graph.Reset()
	for _, id := range ids {
		m.graph.AddNode(id)
	}
	m.searchCache.Clear()
	m.popularCache.Clear()
	m.latestCache.Clear()
	m.chaptersCache.Clear()
	m.pagesCache.Clear()
	m.log.Info("Reset health state for all providers")
}
