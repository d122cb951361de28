package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnilistRecordMapping(t *testing.T) {
	var m anilistMedia
	m.ID = 30013
	m.IDMal = 13
	m.Title.English = "One Piece"
	m.Title.Romaji = "One Piece"
	m.Title.Native = "ワンピース"
	m.Synonyms = []string{"OP"}
	m.Genres = []string{"Action", "Adventure"}
	m.Tags = []struct {
		Name string `json:"name"`
	}{{Name: "Pirates"}}
	m.AverageScore = 88
	m.Popularity = 250000
	m.Chapters = 1090
	m.Status = "RELEASING"
	m.Description = "<i>Gold Roger</i> was the Pirate King.<br>His death started it all."
	m.CoverImage.ExtraLarge = "https://img.anili.st/xl.jpg"
	m.SiteURL = "https://anilist.co/manga/30013"

	rec := anilistRecord(&m)

	assert.Equal(t, "30013", rec.IDs["anilist"])
	assert.Equal(t, "13", rec.IDs["mal"])
	assert.Equal(t, "One Piece", rec.Title)
	// Romaji equals the title and is dropped; native and synonyms survive.
	assert.Equal(t, []string{"ワンピース", "OP"}, rec.Synonyms)
	assert.Equal(t, []string{"Pirates"}, rec.Tags)
	assert.InDelta(t, 8.8, rec.Ratings["anilist"].Score, 1e-9)
	assert.Equal(t, "ongoing", rec.Status)
	assert.Equal(t, "Gold Roger was the Pirate King.\nHis death started it all.", rec.Synopsis)
	assert.Equal(t, "https://img.anili.st/xl.jpg", rec.Cover)

	require.NotEmpty(t, rec.Links)
	assert.Equal(t, "https://anilist.co/manga/30013", rec.Links[len(rec.Links)-1].URL)
}

func TestJikanRecordMapping(t *testing.T) {
	var m jikanManga
	m.MalID = 13
	m.URL = "https://myanimelist.net/manga/13/One_Piece"
	m.Title = "One Piece"
	m.TitleEnglish = "One Piece"
	m.TitleJapanese = "ワンピース"
	m.Titles = []struct {
		Type  string `json:"type"`
		Title string `json:"title"`
	}{{Type: "Synonym", Title: "OP"}, {Type: "Default", Title: "One Piece"}}
	m.Chapters = 1102
	m.Volumes = 108
	m.Status = "Publishing"
	m.Score = 9.22
	m.ScoredBy = 350000
	m.Members = 500000
	m.Genres = []struct {
		Name string `json:"name"`
	}{{Name: "Action"}}
	m.Themes = []struct {
		Name string `json:"name"`
	}{{Name: "Pirates"}}
	m.Images.JPG.LargeImageURL = "https://cdn.myanimelist.net/images/manga/large.jpg"

	rec := jikanRecord(&m)

	assert.Equal(t, "13", rec.IDs["mal"])
	assert.Equal(t, "One Piece", rec.Title)
	assert.NotContains(t, rec.Synonyms, "One Piece")
	assert.Contains(t, rec.Synonyms, "ワンピース")
	assert.Contains(t, rec.Synonyms, "OP")
	assert.Equal(t, 1102, rec.Chapters)
	assert.Equal(t, 108, rec.Volumes)
	assert.Equal(t, "ongoing", rec.Status)
	assert.Equal(t, 9.22, rec.Ratings["mal"].Score)
	assert.Equal(t, int64(350000), rec.Ratings["mal"].Votes)
	assert.Equal(t, int64(500000), rec.Popularity)
	assert.Equal(t, []string{"Pirates"}, rec.Themes)
	assert.Equal(t, "https://cdn.myanimelist.net/images/manga/large.jpg", rec.Cover)
}

func TestKitsuRecordMapping(t *testing.T) {
	var m kitsuManga
	m.ID = "41"
	m.Attributes.Slug = "one-piece"
	m.Attributes.CanonicalTitle = "One Piece"
	m.Attributes.Titles.En = "One Piece"
	m.Attributes.Titles.JaJp = "ワンピース"
	m.Attributes.AbbreviatedTitles = []string{"OP"}
	m.Attributes.AverageRating = "84.93"
	m.Attributes.UserCount = 90000
	m.Attributes.Status = "current"
	m.Attributes.ChapterCount = 1090
	m.Attributes.PosterImage.Original = "https://media.kitsu.io/poster.jpg"

	rec := kitsuRecord(&m)

	assert.Equal(t, "41", rec.IDs["kitsu"])
	assert.Equal(t, "One Piece", rec.Title)
	assert.InDelta(t, 8.493, rec.Ratings["kitsu"].Score, 1e-9)
	assert.Equal(t, "ongoing", rec.Status)
	assert.Equal(t, int64(90000), rec.Popularity)
	assert.Contains(t, rec.Synonyms, "ワンピース")
	assert.Contains(t, rec.Synonyms, "OP")
	assert.Equal(t, "https://media.kitsu.io/poster.jpg", rec.Cover)
	require.Len(t, rec.Links, 1)
	assert.Equal(t, "https://kitsu.io/manga/one-piece", rec.Links[0].URL)
}

func TestStatusMappingsFallThrough(t *testing.T) {
	assert.Equal(t, "", anilistStatus("SOMETHING_NEW"))
	assert.Equal(t, "", jikanStatus(""))
	assert.Equal(t, "upcoming", kitsuStatus("tba"))
	assert.Equal(t, "cancelled", anilistStatus("CANCELLED"))
}

func TestIsDefaultCover(t *testing.T) {
	assert.True(t, isDefaultCover(""))
	assert.True(t, isDefaultCover("https://cdn.myanimelist.net/img/sp/icon/questionmark_23.gif"))
	assert.False(t, isDefaultCover("https://img.example/cover.jpg"))
}

func TestBestMatchPrefersCloserTitle(t *testing.T) {
	recs := []*Record{
		{Title: "One Piece: Ace's Story"},
		{Title: "One Piece"},
		{Title: "One Piece Party"},
	}
	assert.Equal(t, "One Piece", bestMatch(recs, "one piece").Title)
}

func TestBestMatchConsidersSynonyms(t *testing.T) {
	recs := []*Record{
		{Title: "Totally Different"},
		{Title: "Shingeki no Kyojin", Synonyms: []string{"Attack on Titan"}},
	}
	assert.Equal(t, "Shingeki no Kyojin", bestMatch(recs, "Attack on Titan").Title)
}

func TestBestMatchTakesLoneCandidate(t *testing.T) {
	recs := []*Record{{Title: "Backup Base"}}
	assert.Equal(t, "Backup Base", bestMatch(recs, "anything").Title)
	assert.Nil(t, bestMatch(nil, "anything"))
	assert.Nil(t, bestMatch([]*Record{nil}, "anything"))
}
