package metadata

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"Lodestar/pkg/errors"
	"Lodestar/pkg/logger"
	"Lodestar/pkg/network"
)

const (
	anilistEndpoint = "https://graphql.anilist.co"
	anilistRateKey  = "anilist"
)

const anilistMediaFields = `
id
idMal
title { romaji english native }
synonyms
genres
tags { name }
averageScore
popularity
chapters
volumes
status
description
coverImage { extraLarge large }
bannerImage
externalLinks { site url }
siteUrl`

var (
	anilistSearchQuery = fmt.Sprintf(
		`query ($search: String, $perPage: Int) { Page(perPage: $perPage) { media(search: $search, type: MANGA) { %s } } }`,
		anilistMediaFields)
	anilistByIDQuery = fmt.Sprintf(
		`query ($id: Int) { Media(id: $id, type: MANGA) { %s } }`,
		anilistMediaFields)
)

// AniList queries the AniList GraphQL API. It is the best cross-id mapper
// of the bundled providers because media records carry the MAL id.
type AniList struct {
	client *network.Client
	log    *logger.Service
}

// NewAniList wires an AniList provider onto the shared HTTP client.
func NewAniList(client *network.Client, log *logger.Service) *AniList {
	client.Limiter.SetLimit(anilistRateKey, 700*time.Millisecond)
	return &AniList{client: client, log: log}
}

func (a *AniList) ID() string   { return "anilist" }
func (a *AniList) Name() string { return "AniList" }

type anilistMedia struct {
	ID    int `json:"id"`
	IDMal int `json:"idMal"`
	Title struct {
		Romaji  string `json:"romaji"`
		English string `json:"english"`
		Native  string `json:"native"`
	} `json:"title"`
	Synonyms []string `json:"synonyms"`
	Genres   []string `json:"genres"`
	Tags     []struct {
		Name string `json:"name"`
	} `json:"tags"`
	AverageScore int    `json:"averageScore"`
	Popularity   int64  `json:"popularity"`
	Chapters     int    `json:"chapters"`
	Volumes      int    `json:"volumes"`
	Status       string `json:"status"`
	Description  string `json:"description"`
	CoverImage   struct {
		ExtraLarge string `json:"extraLarge"`
		Large      string `json:"large"`
	} `json:"coverImage"`
	BannerImage   string `json:"bannerImage"`
	ExternalLinks []struct {
		Site string `json:"site"`
		URL  string `json:"url"`
	} `json:"externalLinks"`
	SiteURL string `json:"siteUrl"`
}

type anilistEnvelope struct {
	Data struct {
		Page struct {
			Media []anilistMedia `json:"media"`
		} `json:"Page"`
		Media *anilistMedia `json:"Media"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

type graphqlPayload struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

func (a *AniList) query(ctx context.Context, query string, variables map[string]interface{}) (*anilistEnvelope, error) {
	payload := graphqlPayload{Query: query, Variables: variables}
	var resp anilistEnvelope
	err := a.client.PostJSON(ctx, anilistEndpoint, payload, &resp, &network.RequestOptions{RateKey: anilistRateKey})
	if err != nil {
		return nil, err
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("%w: anilist: %s", errors.ErrServerError, resp.Errors[0].Message)
	}
	return &resp, nil
}

func (a *AniList) SearchByTitle(ctx context.Context, title string, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = primarySearchLimit
	}
	resp, err := a.query(ctx, anilistSearchQuery, map[string]interface{}{
		"search":  title,
		"perPage": limit,
	})
	if err != nil {
		return nil, err
	}

	out := make([]*Record, 0, len(resp.Data.Page.Media))
	for i := range resp.Data.Page.Media {
		out = append(out, anilistRecord(&resp.Data.Page.Media[i]))
	}
	return out, nil
}

func (a *AniList) GetByID(ctx context.Context, id string) (*Record, error) {
	numeric, err := strconv.Atoi(id)
	if err != nil {
		return nil, fmt.Errorf("%w: anilist id %q", errors.ErrInvalidInput, id)
	}
	resp, err := a.query(ctx, anilistByIDQuery, map[string]interface{}{"id": numeric})
	if err != nil {
		return nil, err
	}
	if resp.Data.Media == nil {
		return nil, fmt.Errorf("%w: anilist/%s", errors.ErrNotFound, id)
	}
	return anilistRecord(resp.Data.Media), nil
}

func anilistRecord(m *anilistMedia) *Record {
	title := m.Title.English
	if title == "" {
		title = m.Title.Romaji
	}
	if title == "" {
		title = m.Title.Native
	}

	rec := &Record{
		IDs:        map[string]string{"anilist": strconv.Itoa(m.ID)},
		Title:      title,
		Genres:     append([]string(nil), m.Genres...),
		Popularity: m.Popularity,
		Chapters:   m.Chapters,
		Volumes:    m.Volumes,
		Status:     anilistStatus(m.Status),
		Synopsis:   stripMarkup(m.Description),
		Banner:     m.BannerImage,
	}
	if m.IDMal > 0 {
		rec.IDs["mal"] = strconv.Itoa(m.IDMal)
	}

	for _, alt := range []string{m.Title.Romaji, m.Title.Native} {
		if alt != "" && !strings.EqualFold(alt, title) {
			rec.Synonyms = unionStrings(rec.Synonyms, alt)
		}
	}
	rec.Synonyms = unionStrings(rec.Synonyms, m.Synonyms...)

	for _, tag := range m.Tags {
		rec.Tags = unionStrings(rec.Tags, tag.Name)
	}

	if m.AverageScore > 0 {
		rec.Ratings = map[string]Rating{"anilist": {Score: float64(m.AverageScore) / 10}}
		rec.Aggregate = aggregateRating(rec.Ratings)
	}

	rec.Cover = m.CoverImage.ExtraLarge
	if rec.Cover == "" {
		rec.Cover = m.CoverImage.Large
	}

	for _, link := range m.ExternalLinks {
		rec.Links = unionLinks(rec.Links, []Link{{Site: link.Site, URL: link.URL}})
	}
	if m.SiteURL != "" {
		rec.Links = unionLinks(rec.Links, []Link{{Site: "AniList", URL: m.SiteURL}})
	}
	return rec
}

func anilistStatus(status string) string {
	switch status {
	case "RELEASING":
		return "ongoing"
	case "FINISHED":
		return "completed"
	case "NOT_YET_RELEASED":
		return "upcoming"
	case "CANCELLED":
		return "cancelled"
	case "HIATUS":
		return "hiatus"
	default:
		return ""
	}
}

// stripMarkup removes the light HTML AniList embeds in descriptions.
var markupReplacer = strings.NewReplacer(
	"<br>", "\n", "<br/>", "\n", "<br />", "\n",
	"<i>", "", "</i>", "",
	"<b>", "", "</b>", "",
	"<em>", "", "</em>", "",
	"<strong>", "", "</strong>", "",
)

func stripMarkup(s string) string {
	return strings.TrimSpace(markupReplacer.Replace(s))
}
