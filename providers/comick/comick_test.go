package comick

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSearchQueryValues(t *testing.T) {
	q := searchQuery(2)
	assert.Equal(t, "50", q.Get("limit"))
	assert.Equal(t, "2", q.Get("page"))
	assert.Equal(t, "true", q.Get("tachiyomi"))

	assert.Equal(t, "1", searchQuery(0).Get("page"), "page floor is 1")
}

func TestMangaFromComic(t *testing.T) {
	var item comic
	item.HID = "h1x2"
	item.Title = "Vinland Saga"
	item.Desc = "Viking epic."
	item.Status = 1
	item.CoverURL = "https://meo.comick.pictures/abc.jpg"
	item.LastChapter = 212
	item.MDTitles = []struct {
		Title string `json:"title"`
	}{{Title: "Vinland Saga"}, {Title: "ヴィンランド・サガ"}}

	m := mangaFromComic(item)

	assert.Equal(t, "h1x2", m.ID)
	assert.Equal(t, "Vinland Saga", m.Title)
	assert.Equal(t, "ongoing", m.Status)
	assert.Equal(t, "https://meo.comick.pictures/abc.jpg", m.Cover)
	assert.Equal(t, []string{"ヴィンランド・サガ"}, m.AltTitles, "main title is not repeated")
	assert.Equal(t, float64(212), m.ChapterCount)
}

func TestMangaFromComicCoverFallsBackToB2Key(t *testing.T) {
	var item comic
	item.HID = "h9"
	item.Title = "Untracked"
	item.MDCovers = []struct {
		B2Key string `json:"b2key"`
	}{{B2Key: "k3y.png"}}

	m := mangaFromComic(item)

	assert.Equal(t, "https://meo.comick.pictures/k3y.png", m.Cover)
}

func TestStatusName(t *testing.T) {
	assert.Equal(t, "ongoing", statusName(1))
	assert.Equal(t, "completed", statusName(2))
	assert.Equal(t, "cancelled", statusName(3))
	assert.Equal(t, "hiatus", statusName(4))
	assert.Equal(t, "", statusName(0))
}
