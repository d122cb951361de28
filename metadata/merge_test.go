package metadata_test

import (
	"testing"

	"Lodestar/metadata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeUnionsIDsAndTaxonomies(t *testing.T) {
	base := &metadata.Record{
		IDs:    map[string]string{"anilist": "30013"},
		Title:  "One Piece",
		Genres: []string{"Action", "Adventure"},
		Tags:   []string{"Pirates"},
	}
	other := &metadata.Record{
		IDs:    map[string]string{"mal": "13", "anilist": "999"},
		Title:  "ONE PIECE",
		Genres: []string{"action", "Fantasy"},
		Themes: []string{"Friendship"},
	}

	base.Merge(other, false)

	assert.Equal(t, "30013", base.IDs["anilist"], "existing mapping wins")
	assert.Equal(t, "13", base.IDs["mal"])
	assert.Equal(t, []string{"Action", "Adventure", "Fantasy"}, base.Genres)
	assert.Equal(t, []string{"Pirates"}, base.Tags)
	assert.Equal(t, []string{"Friendship"}, base.Themes)
	// Case-insensitively equal titles do not become synonyms.
	assert.Empty(t, base.Synonyms)
}

func TestMergeDifferingTitleBecomesSynonym(t *testing.T) {
	base := &metadata.Record{Title: "Attack on Titan"}
	base.Merge(&metadata.Record{Title: "Shingeki no Kyojin"}, false)
	assert.Equal(t, "Attack on Titan", base.Title)
	assert.Equal(t, []string{"Shingeki no Kyojin"}, base.Synonyms)
}

func TestMergeRatingsKeptPerProviderWithAggregate(t *testing.T) {
	base := &metadata.Record{
		Ratings:   map[string]metadata.Rating{"anilist": {Score: 8.8}},
		Aggregate: 8.8,
	}
	other := &metadata.Record{
		Ratings: map[string]metadata.Rating{"mal": {Score: 9.2, Votes: 300000}},
	}

	base.Merge(other, false)

	require.Len(t, base.Ratings, 2)
	assert.Equal(t, 8.8, base.Ratings["anilist"].Score)
	assert.Equal(t, 9.2, base.Ratings["mal"].Score)
	assert.InDelta(t, 9.0, base.Aggregate, 1e-9)
}

func TestMergeAuthoritativeStructuralOverwrite(t *testing.T) {
	base := &metadata.Record{Chapters: 140, Volumes: 14}

	// A non-authoritative disagreement does not move settled counts.
	base.Merge(&metadata.Record{Chapters: 160, Volumes: 16}, false)
	assert.Equal(t, 140, base.Chapters)
	assert.Equal(t, 14, base.Volumes)

	// The authority's counts overwrite even settled ones.
	base.Merge(&metadata.Record{Chapters: 150, Volumes: 15}, true)
	assert.Equal(t, 150, base.Chapters)
	assert.Equal(t, 15, base.Volumes)

	// But an authority with no data does not erase anything.
	base.Merge(&metadata.Record{}, true)
	assert.Equal(t, 150, base.Chapters)
}

func TestMergeFirstNonEmptyFillsGaps(t *testing.T) {
	base := &metadata.Record{}
	base.Merge(&metadata.Record{Chapters: 12, Status: "ongoing", Synopsis: "A story."}, false)
	assert.Equal(t, 12, base.Chapters)
	assert.Equal(t, "ongoing", base.Status)
	assert.Equal(t, "A story.", base.Synopsis)

	base.Merge(&metadata.Record{Status: "completed", Synopsis: "Another."}, false)
	assert.Equal(t, "ongoing", base.Status)
	assert.Equal(t, "A story.", base.Synopsis)
}

func TestMergePopularitySummed(t *testing.T) {
	base := &metadata.Record{Popularity: 1000}
	base.Merge(&metadata.Record{Popularity: 250}, false)
	base.Merge(&metadata.Record{Popularity: 50}, true)
	assert.Equal(t, int64(1300), base.Popularity)
}

func TestMergeCoverReplacedOnlyWhileDefault(t *testing.T) {
	base := &metadata.Record{Cover: "https://cdn.myanimelist.net/img/sp/icon/questionmark_23.gif"}

	base.Merge(&metadata.Record{Cover: "https://img.example/real.jpg"}, false)
	assert.Equal(t, "https://img.example/real.jpg", base.Cover)

	// Once a real cover is in place it stays.
	base.Merge(&metadata.Record{Cover: "https://img.example/other.jpg"}, false)
	assert.Equal(t, "https://img.example/real.jpg", base.Cover)
}

func TestMergeLinksUnionedByURL(t *testing.T) {
	base := &metadata.Record{Links: []metadata.Link{{Site: "AniList", URL: "https://anilist.co/manga/30013"}}}
	base.Merge(&metadata.Record{Links: []metadata.Link{
		{Site: "Official Site", URL: "https://one-piece.com"},
		{Site: "Duplicate", URL: "https://anilist.co/manga/30013"},
	}}, false)

	require.Len(t, base.Links, 2)
	assert.Equal(t, "https://one-piece.com", base.Links[1].URL)
}

func TestCloneIsIndependent(t *testing.T) {
	orig := &metadata.Record{
		IDs:      map[string]string{"anilist": "1"},
		Synonyms: []string{"alt"},
		Ratings:  map[string]metadata.Rating{"anilist": {Score: 8}},
	}
	clone := orig.Clone()
	clone.IDs["mal"] = "2"
	clone.Synonyms = append(clone.Synonyms, "changed")
	clone.Ratings["mal"] = metadata.Rating{Score: 9}

	assert.NotContains(t, orig.IDs, "mal")
	assert.Equal(t, []string{"alt"}, orig.Synonyms)
	assert.Len(t, orig.Ratings, 1)
}
