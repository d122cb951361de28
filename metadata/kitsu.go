package metadata

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"Lodestar/pkg/errors"
	"Lodestar/pkg/logger"
	"Lodestar/pkg/network"
)

const (
	kitsuBase    = "https://kitsu.io/api/edge"
	kitsuRateKey = "kitsu"
)

// Kitsu queries the Kitsu JSON:API. It mostly contributes alternate
// titles, library popularity, and artwork.
type Kitsu struct {
	client *network.Client
	log    *logger.Service
}

// NewKitsu wires a Kitsu provider onto the shared HTTP client.
func NewKitsu(client *network.Client, log *logger.Service) *Kitsu {
	client.Limiter.SetLimit(kitsuRateKey, 500*time.Millisecond)
	return &Kitsu{client: client, log: log}
}

func (k *Kitsu) ID() string   { return "kitsu" }
func (k *Kitsu) Name() string { return "Kitsu" }

func kitsuHeaders() http.Header {
	h := make(http.Header)
	h.Set("Accept", "application/vnd.api+json")
	h.Set("Content-Type", "application/vnd.api+json")
	return h
}

type kitsuManga struct {
	ID         string `json:"id"`
	Attributes struct {
		Slug           string `json:"slug"`
		CanonicalTitle string `json:"canonicalTitle"`
		Titles         struct {
			En   string `json:"en"`
			EnJp string `json:"en_jp"`
			JaJp string `json:"ja_jp"`
		} `json:"titles"`
		AbbreviatedTitles []string `json:"abbreviatedTitles"`
		Synopsis          string   `json:"synopsis"`
		AverageRating     string   `json:"averageRating"`
		UserCount         int64    `json:"userCount"`
		Status            string   `json:"status"`
		ChapterCount      int      `json:"chapterCount"`
		VolumeCount       int      `json:"volumeCount"`
		PosterImage       struct {
			Large    string `json:"large"`
			Original string `json:"original"`
		} `json:"posterImage"`
		CoverImage struct {
			Original string `json:"original"`
		} `json:"coverImage"`
	} `json:"attributes"`
}

type kitsuSearchResponse struct {
	Data []kitsuManga `json:"data"`
}

type kitsuSingleResponse struct {
	Data *kitsuManga `json:"data"`
}

func (k *Kitsu) SearchByTitle(ctx context.Context, title string, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = primarySearchLimit
	}
	params := url.Values{}
	params.Set("filter[text]", title)
	params.Set("page[limit]", strconv.Itoa(limit))

	var resp kitsuSearchResponse
	err := k.client.FetchJSON(ctx, kitsuBase+"/manga?"+params.Encode(), &resp, &network.RequestOptions{
		RateKey: kitsuRateKey,
		Headers: kitsuHeaders(),
	})
	if err != nil {
		return nil, err
	}

	out := make([]*Record, 0, len(resp.Data))
	for i := range resp.Data {
		out = append(out, kitsuRecord(&resp.Data[i]))
	}
	return out, nil
}

func (k *Kitsu) GetByID(ctx context.Context, id string) (*Record, error) {
	var resp kitsuSingleResponse
	err := k.client.FetchJSON(ctx, kitsuBase+"/manga/"+url.PathEscape(id), &resp, &network.RequestOptions{
		RateKey: kitsuRateKey,
		Headers: kitsuHeaders(),
	})
	if err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("%w: kitsu/%s", errors.ErrNotFound, id)
	}
	return kitsuRecord(resp.Data), nil
}

func kitsuRecord(m *kitsuManga) *Record {
	attrs := &m.Attributes

	title := attrs.Titles.En
	if title == "" {
		title = attrs.CanonicalTitle
	}
	if title == "" {
		title = attrs.Titles.EnJp
	}

	rec := &Record{
		IDs:        map[string]string{"kitsu": m.ID},
		Title:      title,
		Popularity: attrs.UserCount,
		Chapters:   attrs.ChapterCount,
		Volumes:    attrs.VolumeCount,
		Status:     kitsuStatus(attrs.Status),
		Synopsis:   attrs.Synopsis,
		Banner:     attrs.CoverImage.Original,
	}

	for _, alt := range []string{attrs.CanonicalTitle, attrs.Titles.EnJp, attrs.Titles.JaJp} {
		if alt != "" {
			rec.Synonyms = unionStrings(rec.Synonyms, alt)
		}
	}
	rec.Synonyms = unionStrings(rec.Synonyms, attrs.AbbreviatedTitles...)
	rec.Synonyms = without(rec.Synonyms, title)

	if attrs.AverageRating != "" {
		if score, err := strconv.ParseFloat(attrs.AverageRating, 64); err == nil && score > 0 {
			rec.Ratings = map[string]Rating{"kitsu": {Score: score / 10}}
			rec.Aggregate = aggregateRating(rec.Ratings)
		}
	}

	rec.Cover = attrs.PosterImage.Original
	if rec.Cover == "" {
		rec.Cover = attrs.PosterImage.Large
	}

	if attrs.Slug != "" {
		rec.Links = []Link{{Site: "Kitsu", URL: "https://kitsu.io/manga/" + attrs.Slug}}
	}
	return rec
}

func kitsuStatus(status string) string {
	switch status {
	case "current":
		return "ongoing"
	case "finished":
		return "completed"
	case "tba", "unreleased", "upcoming":
		return "upcoming"
	default:
		return ""
	}
}
