package search_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"Lodestar/breaker"
	"Lodestar/metadata"
	"Lodestar/pkg/errors"
	"Lodestar/pkg/logger"
	"Lodestar/providers"
	"Lodestar/reliability"
	"Lodestar/search"
	"Lodestar/source"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	providers.Base
	results []providers.Manga
	err     error

	mu    sync.Mutex
	count int
}

func newStub(id string, results ...providers.Manga) *stubProvider {
	s := &stubProvider{results: results}
	s.Base = providers.NewBase(providers.Info{ID: id, Name: "Stub " + id})
	s.SetAvailable(true)
	return s
}

func (s *stubProvider) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

func (s *stubProvider) Search(ctx context.Context, query string, page int) ([]providers.Manga, error) {
	s.mu.Lock()
	s.count++
	s.mu.Unlock()
	return s.results, s.err
}

func (s *stubProvider) Popular(ctx context.Context, page int) ([]providers.Manga, error) {
	return nil, errors.ErrUnsupported
}

func (s *stubProvider) Latest(ctx context.Context, page int) ([]providers.Manga, error) {
	return nil, errors.ErrUnsupported
}

func (s *stubProvider) Chapters(ctx context.Context, mangaID, language string) ([]providers.ChapterInfo, error) {
	return nil, nil
}

func (s *stubProvider) Pages(ctx context.Context, chapterID string) ([]providers.Page, error) {
	return nil, nil
}

type stubEnricher struct {
	records map[string]*metadata.Record
	err     error

	mu     sync.Mutex
	titles []string
}

func (e *stubEnricher) GetByTitle(ctx context.Context, title string) (*metadata.Record, error) {
	e.mu.Lock()
	e.titles = append(e.titles, title)
	e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	rec, ok := e.records[title]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return rec, nil
}

func (e *stubEnricher) enriched() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.titles)
}

func newOrchestrator(t *testing.T, enricher search.Enricher, opts search.Options, stubs ...*stubProvider) (*search.Orchestrator, *source.Manager) {
	t.Helper()
	log := logger.New(false, false)
	mgr := source.NewManager(source.Options{}, breaker.NewRegistry(breaker.DefaultConfig()), reliability.NewGraph(), log)
	for _, s := range stubs {
		require.NoError(t, mgr.Register(s))
	}
	return search.NewOrchestrator(mgr, enricher, log, opts), mgr
}

func TestSmartSearchMergesAcrossProviders(t *testing.T) {
	a := newStub("mgd", providers.Manga{ID: "m1", Title: "Chainsaw Man"})
	b := newStub("cmk", providers.Manga{ID: "c1", Title: "Chainsaw Man!"})
	orch, _ := newOrchestrator(t, nil, search.Options{}, a, b)

	results, err := orch.Search(context.Background(), search.Request{Query: "chainsaw man"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Len(t, results[0].Sources, 2)
	assert.Equal(t, "mgd", results[0].Primary.ProviderID)
}

func TestSmartSearchRespectsLimit(t *testing.T) {
	a := newStub("mgd",
		providers.Manga{ID: "1", Title: "Berserk"},
		providers.Manga{ID: "2", Title: "Vagabond"},
		providers.Manga{ID: "3", Title: "Vinland Saga"},
		providers.Manga{ID: "4", Title: "Monster"},
	)
	orch, _ := newOrchestrator(t, nil, search.Options{}, a)

	results, err := orch.Search(context.Background(), search.Request{Query: "seinen", Limit: 2})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSmartSearchCachesComposedResult(t *testing.T) {
	a := newStub("mgd", providers.Manga{ID: "1", Title: "Berserk"})
	orch, _ := newOrchestrator(t, nil, search.Options{}, a)

	_, err := orch.Search(context.Background(), search.Request{Query: "berserk"})
	require.NoError(t, err)
	_, err = orch.Search(context.Background(), search.Request{Query: "  BERSERK "})
	require.NoError(t, err)
	assert.Equal(t, 1, a.calls())

	// A different provider subset is a different cache entry.
	_, err = orch.Search(context.Background(), search.Request{Query: "berserk", Providers: []string{"mgd"}})
	require.NoError(t, err)
	assert.Equal(t, 2, a.calls())
}

func TestSmartSearchEmptyResultNotCached(t *testing.T) {
	a := newStub("mgd")
	orch, _ := newOrchestrator(t, nil, search.Options{}, a)

	results, err := orch.Search(context.Background(), search.Request{Query: "nothing"})
	require.NoError(t, err)
	assert.Empty(t, results)

	_, err = orch.Search(context.Background(), search.Request{Query: "nothing"})
	require.NoError(t, err)
	assert.Equal(t, 2, a.calls())
}

func TestSmartSearchEnrichesLeadingResults(t *testing.T) {
	a := newStub("mgd",
		providers.Manga{ID: "1", Title: "One Piece"},
		providers.Manga{ID: "2", Title: "Naruto"},
	)
	enricher := &stubEnricher{records: map[string]*metadata.Record{
		"One Piece": {
			IDs:   map[string]string{"anilist": "30013", "mal": "13"},
			Title: "One Piece",
		},
	}}
	orch, _ := newOrchestrator(t, enricher, search.Options{}, a)

	results, err := orch.Search(context.Background(), search.Request{Query: "shonen", Enrich: true})
	require.NoError(t, err)
	require.Len(t, results, 2)

	var onePiece, naruto *search.Result
	for i := range results {
		switch results[i].Title {
		case "One Piece":
			onePiece = &results[i]
		case "Naruto":
			naruto = &results[i]
		}
	}
	require.NotNil(t, onePiece)
	require.NotNil(t, naruto)

	require.NotNil(t, onePiece.Metadata)
	// Two cross-provider mappings earn the confidence bump: 0.5 + 0.2.
	assert.InDelta(t, 0.7, onePiece.Confidence, 1e-9)

	// The unmatched title is left bare, not failed.
	assert.Nil(t, naruto.Metadata)
	assert.InDelta(t, 0.5, naruto.Confidence, 1e-9)

	assert.Equal(t, 2, enricher.enriched())
}

func TestSmartSearchEnrichLimitCapsLookups(t *testing.T) {
	a := newStub("mgd",
		providers.Manga{ID: "1", Title: "Berserk"},
		providers.Manga{ID: "2", Title: "Vagabond"},
		providers.Manga{ID: "3", Title: "Monster"},
	)
	enricher := &stubEnricher{err: errors.ErrServerError}
	orch, _ := newOrchestrator(t, enricher, search.Options{EnrichLimit: 1}, a)

	results, err := orch.Search(context.Background(), search.Request{Query: "seinen", Enrich: true})
	require.NoError(t, err)
	assert.Len(t, results, 3)
	assert.Equal(t, 1, enricher.enriched())
}

func TestSmartSearchWithoutEnricher(t *testing.T) {
	a := newStub("mgd", providers.Manga{ID: "1", Title: "Berserk"})
	orch, _ := newOrchestrator(t, nil, search.Options{}, a)

	results, err := orch.Search(context.Background(), search.Request{Query: "berserk", Enrich: true})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Nil(t, results[0].Metadata)
}

func TestSmartSearchEmptyQuery(t *testing.T) {
	orch, _ := newOrchestrator(t, nil, search.Options{}, newStub("mgd"))
	_, err := orch.Search(context.Background(), search.Request{Query: "   "})
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestSmartSearchProviderSubset(t *testing.T) {
	a := newStub("mgd", providers.Manga{ID: "1", Title: "Berserk"})
	b := newStub("cmk", providers.Manga{ID: "2", Title: "Berserk"})
	orch, _ := newOrchestrator(t, nil, search.Options{}, a, b)

	results, err := orch.Search(context.Background(), search.Request{Query: "berserk", Providers: []string{"cmk"}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "cmk", results[0].Primary.ProviderID)
	assert.Zero(t, a.calls())
}

func TestSmartSearchTTLExpires(t *testing.T) {
	a := newStub("mgd", providers.Manga{ID: "1", Title: "Berserk"})
	orch, _ := newOrchestrator(t, nil, search.Options{TTL: 40 * time.Millisecond}, a)

	_, err := orch.Search(context.Background(), search.Request{Query: "berserk"})
	require.NoError(t, err)
	time.Sleep(60 * time.Millisecond)
	_, err = orch.Search(context.Background(), search.Request{Query: "berserk"})
	require.NoError(t, err)
	assert.Equal(t, 2, a.calls())
}
