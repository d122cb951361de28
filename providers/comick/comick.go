package comick

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"Lodestar/pkg/logger"
	"Lodestar/pkg/network"
	"Lodestar/providers"
)

const (
	apiBase   = "https://api.comick.fun"
	imageBase = "https://meo.comick.pictures"
	rateKey   = "api.comick.fun"

	searchLimit  = 50
	chapterLimit = 100
)

// Provider is the Comick source. The API has no manga-level latest feed
// (its news endpoint lists chapters), so SupportsLatest stays off.
type Provider struct {
	providers.Base
	client *network.Client
	log    *logger.Service
}

// New creates the Comick provider.
func New(client *network.Client, log *logger.Service) *Provider {
	client.Limiter.SetLimit(rateKey, time.Second)
	return &Provider{
		Base: providers.NewBase(providers.Info{
			ID:              "cmk",
			Name:            "Comick",
			Description:     "Community comic reader with broad scanlation coverage",
			SiteURL:         "https://comick.io",
			SupportsPopular: true,
		}),
		client: client,
		log:    log,
	}
}

// Search queries /v1.0/search by title.
func (p *Provider) Search(ctx context.Context, query string, page int) ([]providers.Manga, error) {
	q := searchQuery(page)
	if query != "" {
		q.Set("q", query)
	}
	return p.list(ctx, q)
}

// Popular lists comics by follower count through the search endpoint.
func (p *Provider) Popular(ctx context.Context, page int) ([]providers.Manga, error) {
	q := searchQuery(page)
	q.Set("sort", "follow")
	return p.list(ctx, q)
}

// Chapters walks the paginated chapter list of a comic. An empty language
// returns every translation.
func (p *Provider) Chapters(ctx context.Context, mangaID, language string) ([]providers.ChapterInfo, error) {
	var all []providers.ChapterInfo
	for page := 1; ; page++ {
		q := url.Values{}
		q.Set("limit", strconv.Itoa(chapterLimit))
		q.Set("page", strconv.Itoa(page))
		if language != "" {
			q.Set("lang", language)
		}

		var resp chapterList
		u := fmt.Sprintf("%s/comic/%s/chapters?%s", apiBase, url.PathEscape(mangaID), q.Encode())
		if err := p.client.FetchJSON(ctx, u, &resp, &network.RequestOptions{RateKey: rateKey}); err != nil {
			return nil, err
		}
		if len(resp.Chapters) == 0 {
			break
		}

		for _, item := range resp.Chapters {
			var number float64
			if item.Chap != "" {
				if n, err := strconv.ParseFloat(item.Chap, 64); err == nil {
					number = n
				}
			}
			all = append(all, providers.ChapterInfo{
				ID:       item.HID,
				Title:    providers.ChapterTitle(item.Title, item.Vol, item.Chap),
				Number:   number,
				Language: item.Lang,
				Date:     item.CreatedAt,
			})
		}

		if len(resp.Chapters) < chapterLimit {
			break
		}
	}
	return all, nil
}

// Pages resolves page image URLs from the chapter detail endpoint.
func (p *Provider) Pages(ctx context.Context, chapterID string) ([]providers.Page, error) {
	var resp chapterDetail
	u := fmt.Sprintf("%s/chapter/%s", apiBase, url.PathEscape(chapterID))
	if err := p.client.FetchJSON(ctx, u, &resp, &network.RequestOptions{RateKey: rateKey}); err != nil {
		return nil, err
	}

	pages := make([]providers.Page, len(resp.Chapter.MDImages))
	for i, img := range resp.Chapter.MDImages {
		pages[i] = providers.Page{
			Index:    i,
			URL:      imageBase + "/" + img.B2Key,
			Filename: img.Name,
		}
	}
	return pages, nil
}

func (p *Provider) list(ctx context.Context, q url.Values) ([]providers.Manga, error) {
	var resp []comic
	u := apiBase + "/v1.0/search?" + q.Encode()
	if err := p.client.FetchJSON(ctx, u, &resp, &network.RequestOptions{RateKey: rateKey}); err != nil {
		return nil, err
	}
	out := make([]providers.Manga, 0, len(resp))
	for _, item := range resp {
		out = append(out, mangaFromComic(item))
	}
	return out, nil
}

// searchQuery builds shared listing parameters. tachiyomi=true makes the
// API inline full cover URLs.
func searchQuery(page int) url.Values {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(searchLimit))
	q.Set("page", strconv.Itoa(max(page, 1)))
	q.Set("tachiyomi", "true")
	return q
}

func mangaFromComic(item comic) providers.Manga {
	m := providers.Manga{
		ID:          item.HID,
		Title:       item.Title,
		Description: item.Desc,
		Cover:       item.CoverURL,
		Status:      statusName(item.Status),
	}
	for _, alt := range item.MDTitles {
		if alt.Title != "" && alt.Title != item.Title {
			m.AltTitles = append(m.AltTitles, alt.Title)
		}
	}
	if m.Cover == "" && len(item.MDCovers) > 0 && item.MDCovers[0].B2Key != "" {
		m.Cover = imageBase + "/" + item.MDCovers[0].B2Key
	}
	if item.LastChapter > 0 {
		m.ChapterCount = item.LastChapter
	}
	return m
}

// statusName maps the numeric status the API uses.
func statusName(status int) string {
	switch status {
	case 1:
		return "ongoing"
	case 2:
		return "completed"
	case 3:
		return "cancelled"
	case 4:
		return "hiatus"
	default:
		return ""
	}
}

// Response shapes for the endpoints in use.

type comic struct {
	HID         string  `json:"hid"`
	Slug        string  `json:"slug"`
	Title       string  `json:"title"`
	Desc        string  `json:"desc"`
	Status      int     `json:"status"`
	CoverURL    string  `json:"cover_url"`
	LastChapter float64 `json:"last_chapter"`
	MDTitles    []struct {
		Title string `json:"title"`
	} `json:"md_titles"`
	MDCovers []struct {
		B2Key string `json:"b2key"`
	} `json:"md_covers"`
}

type chapterList struct {
	Chapters []struct {
		HID       string    `json:"hid"`
		Chap      string    `json:"chap"`
		Title     string    `json:"title"`
		Vol       string    `json:"vol"`
		Lang      string    `json:"lang"`
		CreatedAt time.Time `json:"created_at"`
	} `json:"chapters"`
	Total int `json:"total"`
}

type chapterDetail struct {
	Chapter struct {
		MDImages []struct {
			B2Key string `json:"b2key"`
			Name  string `json:"name"`
		} `json:"md_images"`
	} `json:"chapter"`
}
