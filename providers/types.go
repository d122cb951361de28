package providers

import (
	"context"
	"time"
)

// Provider defines the capability interface every manga source implements.
// The optional operations (Popular, Latest) are guarded by the matching
// Supports flag; calling an unsupported one returns ErrUnsupported rather
// than panicking. Providers are registered once at startup and treated as
// read-only afterwards, so the methods must be safe for concurrent use.
type Provider interface {
	ID() string
	Name() string
	Description() string
	SiteURL() string

	Available() bool
	SupportsPopular() bool
	SupportsLatest() bool
	NeedsProxy() bool

	Initialize(ctx context.Context) error

	Search(ctx context.Context, query string, page int) ([]Manga, error)
	Popular(ctx context.Context, page int) ([]Manga, error)
	Latest(ctx context.Context, page int) ([]Manga, error)
	Chapters(ctx context.Context, mangaID, language string) ([]ChapterInfo, error)
	Pages(ctx context.Context, chapterID string) ([]Page, error)
}

// Manga represents basic manga information as one provider reports it.
type Manga struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Cover        string   `json:"cover,omitempty"`
	Description  string   `json:"description,omitempty"`
	Authors      []string `json:"authors,omitempty"`
	Status       string   `json:"status,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	AltTitles    []string `json:"alt_titles,omitempty"`
	ChapterCount float64  `json:"chapter_count,omitempty"`
}

// ChapterInfo represents chapter metadata
type ChapterInfo struct {
	ID       string    `json:"id"`
	Title    string    `json:"title,omitempty"`
	Number   float64   `json:"number"`
	Language string    `json:"language,omitempty"`
	Date     time.Time `json:"date,omitempty"`
}

// Page represents a single manga page
type Page struct {
	Index    int    `json:"index"`
	URL      string `json:"url"`
	Filename string `json:"filename,omitempty"`
}
