package engine_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Lodestar/engine"
	"Lodestar/pkg/errors"
	"Lodestar/providers"
)

type stubSource struct {
	providers.Base
	initErr error
	items   []providers.Manga
}

func newStubSource(id string, needsProxy bool) *stubSource {
	return &stubSource{
		Base: providers.NewBase(providers.Info{
			ID:              id,
			Name:            id,
			SupportsPopular: true,
			SupportsLatest:  true,
			NeedsProxy:      needsProxy,
		}),
		items: []providers.Manga{{ID: id + "-m1", Title: "Stub " + id}},
	}
}

func (s *stubSource) Initialize(ctx context.Context) error { return s.initErr }

func (s *stubSource) Search(ctx context.Context, query string, page int) ([]providers.Manga, error) {
	return s.items, nil
}

func (s *stubSource) Popular(ctx context.Context, page int) ([]providers.Manga, error) {
	return s.items, nil
}

func (s *stubSource) Latest(ctx context.Context, page int) ([]providers.Manga, error) {
	return s.items, nil
}

func (s *stubSource) Chapters(ctx context.Context, mangaID, language string) ([]providers.ChapterInfo, error) {
	return []providers.ChapterInfo{{ID: mangaID + "-c1", Number: 1}}, nil
}

func (s *stubSource) Pages(ctx context.Context, chapterID string) ([]providers.Page, error) {
	return []providers.Page{{Index: 0, URL: "https://example.com/p0.png"}}, nil
}

func newTestEngine(t *testing.T, mutate func(*engine.Config)) *engine.Engine {
	t.Helper()
	cfg := engine.Default()
	cfg.LogFile = filepath.Join(t.TempDir(), "test.log")
	if mutate != nil {
		mutate(&cfg)
	}
	e, err := engine.New(cfg)
	require.NoError(t, err)
	return e
}

func TestNewWiresServices(t *testing.T) {
	e := newTestEngine(t, nil)

	assert.NotNil(t, e.Logger)
	assert.NotNil(t, e.Client)
	assert.NotNil(t, e.Breakers)
	assert.NotNil(t, e.Graph)
	assert.NotNil(t, e.Sources)
	assert.NotNil(t, e.Metadata)
	assert.NotNil(t, e.Smart)
	assert.False(t, e.Client.HasProxy())
}

func TestNewRejectsBadProxyURL(t *testing.T) {
	cfg := engine.Default()
	cfg.LogFile = filepath.Join(t.TempDir(), "test.log")
	cfg.ProxyURL = "://not-a-url"

	_, err := engine.New(cfg)
	assert.Error(t, err)
}

func TestRegisterProviderMakesItRoutable(t *testing.T) {
	e := newTestEngine(t, nil)
	p := newStubSource("alpha", false)

	require.NoError(t, e.RegisterProvider(context.Background(), p))

	assert.True(t, p.Available(), "registration flips availability on")
	require.Len(t, e.Providers(), 1)

	results, err := e.Search(context.Background(), "", "stub", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "alpha-m1", results[0].ID)
}

func TestRegisterProviderInitFailureExcludes(t *testing.T) {
	e := newTestEngine(t, nil)
	p := newStubSource("broken", false)
	p.initErr = errors.ErrNetworkIssue

	err := e.RegisterProvider(context.Background(), p)
	assert.ErrorIs(t, err, errors.ErrNetworkIssue)
	assert.Empty(t, e.Providers())
	assert.False(t, p.Available())
}

func TestRegisterProviderProxyRequiredWithoutProxy(t *testing.T) {
	e := newTestEngine(t, nil)
	p := newStubSource("proxied", true)

	err := e.RegisterProvider(context.Background(), p)
	assert.ErrorIs(t, err, errors.ErrUnavailable)
	assert.Empty(t, e.Providers())
}

func TestRegisterProviderDisabledSkipsSilently(t *testing.T) {
	e := newTestEngine(t, func(cfg *engine.Config) {
		cfg.DisabledProviders = []string{"muted"}
	})
	p := newStubSource("muted", false)

	assert.NoError(t, e.RegisterProvider(context.Background(), p))
	assert.Empty(t, e.Providers())
}

func TestRegisterProviderDuplicateID(t *testing.T) {
	e := newTestEngine(t, nil)
	require.NoError(t, e.RegisterProvider(context.Background(), newStubSource("dup", false)))

	err := e.RegisterProvider(context.Background(), newStubSource("dup", false))
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestHealthReportCoversAllCaches(t *testing.T) {
	e := newTestEngine(t, nil)
	require.NoError(t, e.RegisterProvider(context.Background(), newStubSource("alpha", false)))

	rep := e.HealthReport()

	require.Len(t, rep.Providers, 1)
	names := make([]string, 0, len(rep.Caches))
	for _, st := range rep.Caches {
		names = append(names, st.Name)
	}
	assert.Contains(t, names, "search")
	assert.Contains(t, names, "smartsearch")
	assert.Contains(t, names, "details")
}
