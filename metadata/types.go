package metadata

import (
	"context"
	"strings"
	"time"
)

// Rating is one provider's score normalized to a 0-10 scale.
type Rating struct {
	Score float64 `json:"score"`
	Votes int64   `json:"votes,omitempty"`
}

// Link is an external reference attached to a record.
type Link struct {
	Site string `json:"site"`
	URL  string `json:"url"`
}

// Record is the unified metadata document assembled across providers. IDs
// maps metadata provider ids to their native series ids; the rest of the
// fields follow the aggregation rules in Merge.
type Record struct {
	IDs        map[string]string `json:"ids"`
	Title      string            `json:"title"`
	Synonyms   []string          `json:"synonyms,omitempty"`
	Genres     []string          `json:"genres,omitempty"`
	Tags       []string          `json:"tags,omitempty"`
	Themes     []string          `json:"themes,omitempty"`
	Ratings    map[string]Rating `json:"ratings,omitempty"`
	Aggregate  float64           `json:"aggregate_rating,omitempty"`
	Popularity int64             `json:"popularity,omitempty"`
	Chapters   int               `json:"chapters,omitempty"`
	Volumes    int               `json:"volumes,omitempty"`
	Status     string            `json:"status,omitempty"`
	Synopsis   string            `json:"synopsis,omitempty"`
	Cover      string            `json:"cover,omitempty"`
	Banner     string            `json:"banner,omitempty"`
	Links      []Link            `json:"links,omitempty"`
	MergedAt   time.Time         `json:"merged_at,omitempty"`
}

// Provider is the capability interface a metadata source implements.
type Provider interface {
	ID() string
	Name() string
	SearchByTitle(ctx context.Context, title string, limit int) ([]*Record, error)
	GetByID(ctx context.Context, id string) (*Record, error)
}

// CrossMappings counts how many provider ids the record carries; two or
// more means the series was matched across providers and the mapping can
// be trusted.
func (r *Record) CrossMappings() int {
	return len(r.IDs)
}

// isDefaultCover reports whether a cover URL is missing or one of the
// placeholder images providers serve for series without artwork.
func isDefaultCover(url string) bool {
	if url == "" {
		return true
	}
	return strings.Contains(url, "questionmark") || strings.Contains(url, "apple-touch-icon")
}
