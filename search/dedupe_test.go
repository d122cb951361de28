package search_test

import (
	"testing"

	"Lodestar/providers"
	"Lodestar/search"
	"Lodestar/source"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTitle(t *testing.T) {
	cases := map[string]string{
		"The One Piece!":      "one piece",
		"  A  Silent   Voice": "silent voice",
		"Dr. STONE":           "dr stone",
		"one piece":           "one piece",
		"An Empty Name":       "empty name",
		"":                    "",
	}
	for in, want := range cases {
		assert.Equal(t, want, search.NormalizeTitle(in), "input %q", in)
	}
}

func providerResult(id string, priority int, items ...providers.Manga) source.ProviderResult {
	return source.ProviderResult{
		ProviderID:   id,
		ProviderName: "Fake " + id,
		Priority:     priority,
		Items:        items,
	}
}

func TestDedupeCollapsesNearDuplicates(t *testing.T) {
	raw := []source.ProviderResult{
		providerResult("mgd", 0, providers.Manga{ID: "m1", Title: "One Piece", Cover: "https://img/mgd.jpg"}),
		providerResult("cmk", 1, providers.Manga{ID: "c1", Title: "One Piece!!", AltTitles: []string{"ワンピース"}}),
	}

	results := search.Dedupe(raw)
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, "One Piece", r.Title)
	assert.Equal(t, "mgd", r.Primary.ProviderID)
	assert.Equal(t, "m1", r.Primary.MangaID)

	require.Len(t, r.Sources, 2)
	assert.Equal(t, "mgd", r.Sources[0].ProviderID)
	assert.Equal(t, "cmk", r.Sources[1].ProviderID)

	assert.Contains(t, r.AltTitles, "ワンピース")
	assert.Equal(t, "https://img/mgd.jpg", r.Cover)
	assert.InDelta(t, 0.6, r.Confidence, 1e-9)
}

func TestDedupeTokenSetCatchesSubtitleEditions(t *testing.T) {
	raw := []source.ProviderResult{
		providerResult("mgd", 0, providers.Manga{ID: "m1", Title: "One Piece"}),
		providerResult("cmk", 1, providers.Manga{ID: "c1", Title: "One Piece Colored"}),
	}
	results := search.Dedupe(raw)
	assert.Len(t, results, 1)
}

func TestDedupeKeepsDistinctSeries(t *testing.T) {
	raw := []source.ProviderResult{
		providerResult("mgd", 0,
			providers.Manga{ID: "m1", Title: "One Piece"},
			providers.Manga{ID: "m2", Title: "One Punch Man"},
		),
	}
	results := search.Dedupe(raw)
	require.Len(t, results, 2)
	assert.NotEqual(t, results[0].Title, results[1].Title)
}

func TestDedupeDeterministicAcrossInputOrder(t *testing.T) {
	a := providerResult("mgd", 0,
		providers.Manga{ID: "m1", Title: "Berserk"},
		providers.Manga{ID: "m2", Title: "Vagabond"},
	)
	b := providerResult("cmk", 1,
		providers.Manga{ID: "c1", Title: "Berserk!"},
		providers.Manga{ID: "c2", Title: "Vinland Saga"},
	)

	first := search.Dedupe([]source.ProviderResult{a, b})
	second := search.Dedupe([]source.ProviderResult{b, a})
	assert.Equal(t, first, second)
}

func TestDedupePrimaryByStaticPriority(t *testing.T) {
	// The better-priority provider appears later in the raw slices; it
	// must still win the primary slot.
	raw := []source.ProviderResult{
		providerResult("cmk", 1, providers.Manga{ID: "c1", Title: "Berserk"}),
		providerResult("mgd", 0, providers.Manga{ID: "m1", Title: "Berserk"}),
	}
	results := search.Dedupe(raw)
	require.Len(t, results, 1)
	assert.Equal(t, "mgd", results[0].Primary.ProviderID)
}

func TestDedupeSingleSourceConfidence(t *testing.T) {
	raw := []source.ProviderResult{
		providerResult("mgd", 0, providers.Manga{ID: "m1", Title: "Solo"}),
	}
	results := search.Dedupe(raw)
	require.Len(t, results, 1)
	assert.InDelta(t, 0.5, results[0].Confidence, 1e-9)
	assert.Empty(t, results[0].AltTitles)
}

func TestDedupeEmptyInput(t *testing.T) {
	assert.Empty(t, search.Dedupe(nil))
}
