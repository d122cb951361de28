package metadata

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"Lodestar/pkg/errors"
	"Lodestar/pkg/logger"
	"Lodestar/pkg/network"
)

const (
	jikanBase    = "https://api.jikan.moe/v4"
	jikanRateKey = "jikan"
)

// Jikan queries the unofficial MyAnimeList REST API. MAL chapter and
// volume counts are curated by staff, which is why this provider is the
// default structural authority.
type Jikan struct {
	client *network.Client
	log    *logger.Service
}

// NewJikan wires a Jikan provider onto the shared HTTP client.
func NewJikan(client *network.Client, log *logger.Service) *Jikan {
	// Public Jikan allows 3 requests per second; stay under it.
	client.Limiter.SetLimit(jikanRateKey, 400*time.Millisecond)
	return &Jikan{client: client, log: log}
}

func (j *Jikan) ID() string   { return "mal" }
func (j *Jikan) Name() string { return "MyAnimeList" }

type jikanManga struct {
	MalID  int    `json:"mal_id"`
	URL    string `json:"url"`
	Images struct {
		JPG struct {
			ImageURL      string `json:"image_url"`
			LargeImageURL string `json:"large_image_url"`
		} `json:"jpg"`
	} `json:"images"`
	Title         string `json:"title"`
	TitleEnglish  string `json:"title_english"`
	TitleJapanese string `json:"title_japanese"`
	Titles        []struct {
		Type  string `json:"type"`
		Title string `json:"title"`
	} `json:"titles"`
	Chapters int     `json:"chapters"`
	Volumes  int     `json:"volumes"`
	Status   string  `json:"status"`
	Score    float64 `json:"score"`
	ScoredBy int64   `json:"scored_by"`
	Members  int64   `json:"members"`
	Synopsis string  `json:"synopsis"`
	Genres   []struct {
		Name string `json:"name"`
	} `json:"genres"`
	Themes []struct {
		Name string `json:"name"`
	} `json:"themes"`
	Demographics []struct {
		Name string `json:"name"`
	} `json:"demographics"`
}

type jikanSearchResponse struct {
	Data []jikanManga `json:"data"`
}

type jikanSingleResponse struct {
	Data *jikanManga `json:"data"`
}

func (j *Jikan) SearchByTitle(ctx context.Context, title string, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = primarySearchLimit
	}
	params := url.Values{}
	params.Set("q", title)
	params.Set("limit", strconv.Itoa(limit))

	var resp jikanSearchResponse
	err := j.client.FetchJSON(ctx, jikanBase+"/manga?"+params.Encode(), &resp, &network.RequestOptions{RateKey: jikanRateKey})
	if err != nil {
		return nil, err
	}

	out := make([]*Record, 0, len(resp.Data))
	for i := range resp.Data {
		out = append(out, jikanRecord(&resp.Data[i]))
	}
	return out, nil
}

func (j *Jikan) GetByID(ctx context.Context, id string) (*Record, error) {
	if _, err := strconv.Atoi(id); err != nil {
		return nil, fmt.Errorf("%w: mal id %q", errors.ErrInvalidInput, id)
	}

	var resp jikanSingleResponse
	err := j.client.FetchJSON(ctx, jikanBase+"/manga/"+id, &resp, &network.RequestOptions{RateKey: jikanRateKey})
	if err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("%w: mal/%s", errors.ErrNotFound, id)
	}
	return jikanRecord(resp.Data), nil
}

func jikanRecord(m *jikanManga) *Record {
	title := m.TitleEnglish
	if title == "" {
		title = m.Title
	}

	rec := &Record{
		IDs:        map[string]string{"mal": strconv.Itoa(m.MalID)},
		Title:      title,
		Popularity: m.Members,
		Chapters:   m.Chapters,
		Volumes:    m.Volumes,
		Status:     jikanStatus(m.Status),
		Synopsis:   m.Synopsis,
	}

	for _, alt := range []string{m.Title, m.TitleJapanese} {
		if alt != "" {
			rec.Synonyms = unionStrings(rec.Synonyms, alt)
		}
	}
	for _, t := range m.Titles {
		if t.Type == "Synonym" {
			rec.Synonyms = unionStrings(rec.Synonyms, t.Title)
		}
	}
	// The display title is not its own synonym.
	rec.Synonyms = without(rec.Synonyms, title)

	for _, g := range m.Genres {
		rec.Genres = unionStrings(rec.Genres, g.Name)
	}
	for _, t := range m.Themes {
		rec.Themes = unionStrings(rec.Themes, t.Name)
	}
	for _, d := range m.Demographics {
		rec.Tags = unionStrings(rec.Tags, d.Name)
	}

	if m.Score > 0 {
		rec.Ratings = map[string]Rating{"mal": {Score: m.Score, Votes: m.ScoredBy}}
		rec.Aggregate = aggregateRating(rec.Ratings)
	}

	rec.Cover = m.Images.JPG.LargeImageURL
	if rec.Cover == "" {
		rec.Cover = m.Images.JPG.ImageURL
	}

	if m.URL != "" {
		rec.Links = []Link{{Site: "MyAnimeList", URL: m.URL}}
	}
	return rec
}

func jikanStatus(status string) string {
	switch status {
	case "Publishing":
		return "ongoing"
	case "Finished":
		return "completed"
	case "On Hiatus":
		return "hiatus"
	case "Discontinued":
		return "cancelled"
	case "Upcoming", "Not yet published":
		return "upcoming"
	default:
		return ""
	}
}

// without removes s from list, matching case-insensitively.
func without(list []string, s string) []string {
	out := list[:0]
	for _, v := range list {
		if !strings.EqualFold(v, s) {
			out = append(out, v)
		}
	}
	return out
}
