package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"Lodestar/breaker"
	"Lodestar/metadata"
	"Lodestar/pkg/errors"
	"Lodestar/pkg/logger"
	"Lodestar/pkg/network"
	"Lodestar/providers"
	"Lodestar/reliability"
	"Lodestar/search"
	"Lodestar/source"
)

// Engine is the central component wiring the shared services together:
// one HTTP client, one breaker registry, one reliability graph, and the
// routing, metadata and search layers built on top of them.
type Engine struct {
	Config   Config
	Logger   *logger.Service
	Limiter  *network.RateLimiterService
	Client   *network.Client
	Breakers *breaker.Registry
	Graph    *reliability.Graph
	Sources  *source.Manager
	Metadata *metadata.Manager
	Smart    *search.Orchestrator
}

// New creates an Engine from the given configuration. Providers are not
// registered here; call RegisterProvider for each one after construction.
func New(cfg Config) (*Engine, error) {
	if cfg.LogFile == "" {
		if homeDir, err := os.UserHomeDir(); err == nil {
			cfg.LogFile = filepath.Join(homeDir, ".lodestar", "logs", "lodestar.log")
		}
	}

	log := logger.New(cfg.Verbose, cfg.Debug)
	log.LogFile = cfg.LogFile

	limiter := network.NewRateLimiterService(cfg.RateEvery)
	client, err := network.NewClient(network.ClientConfig{
		Timeout:   cfg.HTTPTimeout,
		UserAgent: cfg.UserAgent,
		Retries:   cfg.Retries,
		ProxyURL:  cfg.ProxyURL,
	}, limiter, log)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	breakers := breaker.NewRegistry(cfg.Breaker)
	graph := reliability.NewGraph()
	sources := source.NewManager(cfg.Source, breakers, graph, log)
	meta := metadata.NewManager(cfg.Metadata, log)
	smart := search.NewOrchestrator(sources, meta, log, cfg.Search)

	e := &Engine{
		Config:   cfg,
		Logger:   log,
		Limiter:  limiter,
		Client:   client,
		Breakers: breakers,
		Graph:    graph,
		Sources:  sources,
		Metadata: meta,
		Smart:    smart,
	}
	log.Info("Engine initialized")
	return e, nil
}

// RegisterProvider initializes a provider and adds it to the routing set.
// A provider that is disabled by configuration is skipped silently; one
// that needs a proxy the client does not have, or whose initialization
// fails, is logged and excluded, and the reason comes back as an error the
// caller may ignore.
func (e *Engine) RegisterProvider(ctx context.Context, p providers.Provider) error {
	id := p.ID()
	for _, disabled := range e.Config.DisabledProviders {
		if disabled == id {
			e.Logger.Info("Provider %s disabled by configuration", id)
			return nil
		}
	}
	if p.NeedsProxy() && !e.Client.HasProxy() {
		e.Logger.Warn("Provider %s needs a proxy and none is configured, skipping", id)
		return fmt.Errorf("provider %s: %w: proxy required", id, errors.ErrUnavailable)
	}
	if err := p.Initialize(ctx); err != nil {
		e.Logger.Warn("Provider %s failed to initialize, skipping: %v", id, err)
		return fmt.Errorf("provider %s: initialize: %w", id, err)
	}
	if s, ok := p.(interface{ SetAvailable(bool) }); ok {
		s.SetAvailable(true)
	}
	if err := e.Sources.Register(p); err != nil {
		return err
	}
	e.Logger.Debug("Provider %s registered", id)
	return nil
}

// RegisterMetadataProvider adds a metadata source. The disabled list is
// shared with manga providers.
func (e *Engine) RegisterMetadataProvider(p metadata.Provider) error {
	id := p.ID()
	for _, disabled := range e.Config.DisabledProviders {
		if disabled == id {
			e.Logger.Info("Metadata provider %s disabled by configuration", id)
			return nil
		}
	}
	return e.Metadata.Register(p)
}

// Providers returns the registered manga providers in priority order.
func (e *Engine) Providers() []providers.Provider {
	return e.Sources.All()
}

// Search queries one provider when providerID is set, otherwise walks the
// ordered providers until one returns results.
func (e *Engine) Search(ctx context.Context, providerID, query string, page int) ([]providers.Manga, error) {
	return e.Sources.Search(ctx, providerID, query, page)
}

// Popular lists popular manga, with the same routing rules as Search.
func (e *Engine) Popular(ctx context.Context, providerID string, page int) ([]providers.Manga, error) {
	return e.Sources.Popular(ctx, providerID, page)
}

// Latest lists recently updated manga, with the same routing rules as Search.
func (e *Engine) Latest(ctx context.Context, providerID string, page int) ([]providers.Manga, error) {
	return e.Sources.Latest(ctx, providerID, page)
}

// Chapters lists the chapters of a manga on one provider.
func (e *Engine) Chapters(ctx context.Context, providerID, mangaID, language string) ([]providers.ChapterInfo, error) {
	return e.Sources.Chapters(ctx, providerID, mangaID, language)
}

// Pages lists the page images of a chapter on one provider.
func (e *Engine) Pages(ctx context.Context, providerID, chapterID string) ([]providers.Page, error) {
	return e.Sources.Pages(ctx, providerID, chapterID)
}

// SmartSearch fans the query out, deduplicates across providers and
// optionally enriches the leading results with external metadata.
func (e *Engine) SmartSearch(ctx context.Context, req search.Request) ([]search.Result, error) {
	return e.Smart.Search(ctx, req)
}

// MangaDetails composes a metadata record for a title from the registered
// metadata providers.
func (e *Engine) MangaDetails(ctx context.Context, title string) (*metadata.Record, error) {
	return e.Metadata.GetByTitle(ctx, title)
}

// HealthReport returns the live health snapshot of every provider plus the
// breaker and cache counters of all services.
func (e *Engine) HealthReport() source.Report {
	rep := e.Sources.Report()
	rep.Caches = append(rep.Caches, e.Smart.CacheStats(), e.Metadata.CacheStats())
	return rep
}

// ResetProvider clears the health state of one provider.
func (e *Engine) ResetProvider(id string) error {
	return e.Sources.ResetProvider(id)
}

// ResetAll clears all health state and caches.
func (e *Engine) ResetAll() {
	e.Sources.ResetAll()
}

// Shutdown flushes state that should not outlive the process. Caches are
// in-memory only, so this is bookkeeping and a final log line.
func (e *Engine) Shutdown() {
	for _, st := range e.HealthReport().Caches {
		e.Logger.Debug("Cache %s: %d entries, %d hits, %d misses", st.Name, st.Entries, st.Hits, st.Misses)
	}
	e.Logger.Info("Engine shutdown complete")
}
