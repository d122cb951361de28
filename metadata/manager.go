package metadata

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
	"golang.org/x/sync/errgroup"

	"Lodestar/cache"
	"Lodestar/pkg/errors"
	"Lodestar/pkg/logger"
)

// How many candidates to request when searching for a base match and for
// secondary matches.
const (
	primarySearchLimit   = 5
	secondarySearchLimit = 3
)

// Options configures a metadata Manager.
type Options struct {
	// Primary is queried first; its top match becomes the base record.
	// Primary providers are chosen for the quality of their cross-provider
	// id mappings. Empty means first registered.
	Primary string
	// Authority supplies structural truth (chapter/volume counts). When
	// the base record already maps the authority's id, the record is
	// fetched by id instead of a second search.
	Authority string

	Concurrency  int
	CacheEntries int
	TTL          time.Duration
}

// DefaultOptions returns the options used when a field is left zero.
func DefaultOptions() Options {
	return Options{
		Concurrency:  4,
		CacheEntries: 256,
		TTL:          time.Hour,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.Concurrency <= 0 {
		o.Concurrency = def.Concurrency
	}
	if o.CacheEntries <= 0 {
		o.CacheEntries = def.CacheEntries
	}
	if o.TTL <= 0 {
		o.TTL = def.TTL
	}
	return o
}

// Manager queries a set of metadata providers and folds their answers into
// one unified record per series.
type Manager struct {
	opts  Options
	log   *logger.Service
	cache *cache.Cache[*Record]

	mu        sync.RWMutex
	providers []Provider
	byID      map[string]Provider
}

// NewManager builds an empty manager; register providers before use.
func NewManager(opts Options, log *logger.Service) *Manager {
	opts = opts.withDefaults()
	return &Manager{
		opts:  opts,
		log:   log,
		cache: cache.New[*Record]("details", opts.CacheEntries, opts.TTL),
		byID:  make(map[string]Provider),
	}
}

// Register adds a metadata provider. Duplicate ids are a wiring bug.
func (m *Manager) Register(p Provider) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := p.ID()
	if _, exists := m.byID[id]; exists {
		return fmt.Errorf("%w: duplicate metadata provider id %q", errors.ErrInvalidInput, id)
	}
	m.byID[id] = p
	m.providers = append(m.providers, p)
	return nil
}

// Providers returns the registered providers in registration order.
func (m *Manager) Providers() []Provider {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Provider(nil), m.providers...)
}

func (m *Manager) provider(id string) Provider {
	if id == "" {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.byID[id]
}

// ordered returns the base-match attempt order: the primary first, then
// everyone else as registered.
func (m *Manager) orderedProviders() []Provider {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Provider, 0, len(m.providers))
	if primary, ok := m.byID[m.opts.Primary]; ok {
		out = append(out, primary)
	}
	for _, p := range m.providers {
		if len(out) > 0 && p.ID() == out[0].ID() {
			continue
		}
		out = append(out, p)
	}
	return out
}

// GetByTitle assembles the unified record for a series title: the primary
// provider's top match becomes the base, the authority is fetched by
// mapped id when possible, every remaining provider is searched in
// parallel, and all matches merge into the base. Providers that error are
// skipped; the call fails only when no provider produced a base match.
func (m *Manager) GetByTitle(ctx context.Context, title string) (*Record, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: empty title", errors.ErrInvalidInput)
	}

	key := cache.Key("details", "title", cache.NormalizeQuery(title))
	if hit, ok := m.cache.Get(key); ok {
		return hit.Clone(), nil
	}

	ordered := m.orderedProviders()
	if len(ordered) == 0 {
		return nil, fmt.Errorf("%w: no metadata providers registered", errors.ErrNoProvider)
	}

	var (
		base         *Record
		baseProvider string
	)
	for _, p := range ordered {
		recs, err := p.SearchByTitle(ctx, title, primarySearchLimit)
		if err != nil {
			m.log.Debug("Metadata provider %s search failed for %q: %v", p.ID(), title, err)
			continue
		}
		if rec := bestMatch(recs, title); rec != nil {
			base = rec
			baseProvider = p.ID()
			break
		}
	}
	if base == nil {
		return nil, fmt.Errorf("%w: no metadata match for %q", errors.ErrNotFound, title)
	}

	merged := map[string]bool{baseProvider: true}

	// Structural authority: prefer the direct id fetch over a second search
	// when the base record already maps the authority's id.
	if auth := m.provider(m.opts.Authority); auth != nil && !merged[auth.ID()] {
		if nativeID, ok := base.IDs[auth.ID()]; ok {
			rec, err := auth.GetByID(ctx, nativeID)
			if err != nil {
				m.log.Debug("Metadata authority %s fetch failed for id %s: %v", auth.ID(), nativeID, err)
			} else if rec != nil {
				base.Merge(rec, true)
				merged[auth.ID()] = true
			}
		}
	}

	type match struct {
		order      int
		providerID string
		rec        *Record
	}
	var (
		matchMu sync.Mutex
		matches []match
	)
	var g errgroup.Group
	g.SetLimit(m.opts.Concurrency)

	for i, p := range ordered {
		if merged[p.ID()] {
			continue
		}
		i, p := i, p
		g.Go(func() error {
			recs, err := p.SearchByTitle(ctx, title, secondarySearchLimit)
			if err != nil {
				m.log.Debug("Metadata provider %s search failed for %q: %v", p.ID(), title, err)
				return nil
			}
			rec := bestMatch(recs, title)
			if rec == nil {
				return nil
			}
			matchMu.Lock()
			matches = append(matches, match{order: i, providerID: p.ID(), rec: rec})
			matchMu.Unlock()
			return nil
		})
	}
	g.Wait()

	// Merge in provider order so the composed record does not depend on
	// network timing.
	sort.Slice(matches, func(i, j int) bool { return matches[i].order < matches[j].order })
	for _, hit := range matches {
		base.Merge(hit.rec, hit.providerID == m.opts.Authority)
	}

	base.MergedAt = time.Now()
	m.cache.Set(key, base)
	return base.Clone(), nil
}

// GetByID fetches one provider's record directly by its native id.
func (m *Manager) GetByID(ctx context.Context, providerID, nativeID string) (*Record, error) {
	p := m.provider(providerID)
	if p == nil {
		return nil, fmt.Errorf("%w: %s", errors.ErrNoProvider, providerID)
	}

	key := cache.Key("details", providerID, nativeID)
	if hit, ok := m.cache.Get(key); ok {
		return hit.Clone(), nil
	}

	rec, err := p.GetByID(ctx, nativeID)
	if err != nil {
		return nil, errors.Provider(providerID, "metadata", err)
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: %s/%s", errors.ErrNotFound, providerID, nativeID)
	}

	m.cache.Set(key, rec)
	return rec.Clone(), nil
}

// bestMatch picks the candidate whose title (or synonym) sits closest to
// the requested one. Providers already rank by relevance, so this only
// reorders; a lone candidate is always taken.
func bestMatch(recs []*Record, title string) *Record {
	want := strings.ToLower(strings.TrimSpace(title))
	var (
		best      *Record
		bestScore = -1
	)
	for _, rec := range recs {
		if rec == nil {
			continue
		}
		score := titleScore(rec.Title, want)
		for _, syn := range rec.Synonyms {
			if s := titleScore(syn, want); s > score {
				score = s
			}
		}
		if score > bestScore {
			best = rec
			bestScore = score
		}
	}
	return best
}

func titleScore(candidate, want string) int {
	got := strings.ToLower(strings.TrimSpace(candidate))
	if got == "" {
		return 0
	}
	if got == want {
		return 100
	}
	score := fuzzy.Ratio(got, want)
	if s := fuzzy.TokenSetRatio(got, want); s > score {
		score = s
	}
	return score
}

// CacheStats reports the details cache counters.
func (m *Manager) CacheStats() cache.Stats {
	return m.cache.Stats()
}
