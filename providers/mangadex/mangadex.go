package mangadex

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"Lodestar/pkg/logger"
	"Lodestar/pkg/network"
	"Lodestar/providers"
)

const (
	apiBase   = "https://api.mangadex.org"
	coverBase = "https://uploads.mangadex.org/covers"
	rateKey   = "api.mangadex.org"

	// listLimit is the page size for search and listing endpoints; 100 is
	// the API maximum.
	listLimit = 100
	// feedLimit pages the chapter feed.
	feedLimit = 100
)

// contentRatings are all requested so results match what the site shows.
var contentRatings = []string{"safe", "suggestive", "erotica", "pornographic"}

// Provider is the MangaDex source backed by the public JSON API.
type Provider struct {
	providers.Base
	client *network.Client
	log    *logger.Service

	// servers are image hosts for page URLs, first entry preferred.
	servers []string
}

// New creates the MangaDex provider.
func New(client *network.Client, log *logger.Service) *Provider {
	client.Limiter.SetLimit(rateKey, 2*time.Second)
	return &Provider{
		Base: providers.NewBase(providers.Info{
			ID:              "mgd",
			Name:            "MangaDex",
			Description:     "World's largest manga community and scanlation site",
			SiteURL:         "https://mangadex.org",
			SupportsPopular: true,
			SupportsLatest:  true,
		}),
		client:  client,
		log:     log,
		servers: []string{"https://uploads.mangadex.org/data/"},
	}
}

// Initialize seeds the image server network with a known mirror.
func (p *Provider) Initialize(ctx context.Context) error {
	p.servers = append(p.servers, "https://cache.ayaya.red/mdah/data/")
	p.log.Debug("MangaDex network seeds: [ %s ]", strings.Join(p.servers, ", "))
	return nil
}

// Search queries /manga ordered by relevance.
func (p *Provider) Search(ctx context.Context, query string, page int) ([]providers.Manga, error) {
	q := listQuery(page)
	if query != "" {
		q.Set("title", query)
	}
	q.Set("order[relevance]", "desc")
	return p.list(ctx, q)
}

// Popular lists manga by follower count.
func (p *Provider) Popular(ctx context.Context, page int) ([]providers.Manga, error) {
	q := listQuery(page)
	q.Set("order[followedCount]", "desc")
	return p.list(ctx, q)
}

// Latest lists manga by most recent chapter upload.
func (p *Provider) Latest(ctx context.Context, page int) ([]providers.Manga, error) {
	q := listQuery(page)
	q.Set("order[latestUploadedChapter]", "desc")
	return p.list(ctx, q)
}

// Chapters walks the paginated chapter feed of a manga. An empty language
// returns every translation.
func (p *Provider) Chapters(ctx context.Context, mangaID, language string) ([]providers.ChapterInfo, error) {
	var all []providers.ChapterInfo
	for offset := 0; ; offset += feedLimit {
		q := url.Values{}
		q.Set("limit", strconv.Itoa(feedLimit))
		q.Set("offset", strconv.Itoa(offset))
		q.Set("order[chapter]", "asc")
		for _, rating := range contentRatings {
			q.Add("contentRating[]", rating)
		}
		if language != "" {
			q.Add("translatedLanguage[]", language)
		}

		var resp feedResponse
		u := fmt.Sprintf("%s/manga/%s/feed?%s", apiBase, url.PathEscape(mangaID), q.Encode())
		if err := p.client.FetchJSON(ctx, u, &resp, requestOptions()); err != nil {
			return nil, err
		}
		if len(resp.Data) == 0 {
			break
		}

		for _, item := range resp.Data {
			var number float64
			if item.Attributes.Chapter != "" {
				if n, err := strconv.ParseFloat(item.Attributes.Chapter, 64); err == nil {
					number = n
				}
			}
			all = append(all, providers.ChapterInfo{
				ID:       item.ID,
				Title:    providers.ChapterTitle(item.Attributes.Title, item.Attributes.Volume, item.Attributes.Chapter),
				Number:   number,
				Language: item.Attributes.TranslatedLanguage,
				Date:     item.Attributes.PublishAt,
			})
		}

		if len(resp.Data) < feedLimit {
			break
		}
	}
	return all, nil
}

// Pages resolves the page image URLs of a chapter via the at-home server.
func (p *Provider) Pages(ctx context.Context, chapterID string) ([]providers.Page, error) {
	var resp pagesResponse
	u := fmt.Sprintf("%s/at-home/server/%s", apiBase, url.PathEscape(chapterID))
	if err := p.client.FetchJSON(ctx, u, &resp, requestOptions()); err != nil {
		return nil, err
	}
	return pageURLs(resp, p.servers), nil
}

func (p *Provider) list(ctx context.Context, q url.Values) ([]providers.Manga, error) {
	var resp listResponse
	u := apiBase + "/manga?" + q.Encode()
	if err := p.client.FetchJSON(ctx, u, &resp, requestOptions()); err != nil {
		return nil, err
	}
	out := make([]providers.Manga, 0, len(resp.Data))
	for _, item := range resp.Data {
		out = append(out, mangaFromData(item))
	}
	return out, nil
}

func requestOptions() *network.RequestOptions {
	h := make(http.Header)
	h.Set("Referer", "https://mangadex.org")
	return &network.RequestOptions{RateKey: rateKey, Headers: h}
}

// listQuery builds the shared query values for listing endpoints. The
// reference expansions fill covers and author names in one round trip.
func listQuery(page int) url.Values {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(listLimit))
	if page > 1 {
		q.Set("offset", strconv.Itoa((page-1)*listLimit))
	}
	for _, rating := range contentRatings {
		q.Add("contentRating[]", rating)
	}
	q.Add("includes[]", "cover_art")
	q.Add("includes[]", "author")
	q.Add("includes[]", "artist")
	return q
}

func mangaFromData(item mangaData) providers.Manga {
	m := providers.Manga{
		ID:          item.ID,
		Title:       bestTitle(item.Attributes.Title),
		Description: bestDescription(item.Attributes.Description),
		Status:      item.Attributes.Status,
	}

	for _, alt := range item.Attributes.AltTitles {
		for _, title := range alt {
			if title != "" {
				m.AltTitles = append(m.AltTitles, title)
				break
			}
		}
	}

	for _, t := range item.Attributes.Tags {
		if name := t.Attributes.Name["en"]; name != "" {
			m.Tags = append(m.Tags, name)
		}
	}

	seen := make(map[string]bool)
	for _, rel := range item.Relationships {
		switch rel.Type {
		case "author", "artist":
			if name := rel.Attributes.Name; name != "" && !seen[name] {
				seen[name] = true
				m.Authors = append(m.Authors, name)
			}
		case "cover_art":
			if rel.Attributes.FileName != "" && m.Cover == "" {
				m.Cover = fmt.Sprintf("%s/%s/%s.256.jpg", coverBase, item.ID, rel.Attributes.FileName)
			}
		}
	}

	return m
}

// bestTitle prefers English, then Japanese, then anything non-empty.
func bestTitle(titles map[string]string) string {
	if t := titles["en"]; t != "" {
		return t
	}
	if t := titles["ja"]; t != "" {
		return t
	}
	for _, t := range titles {
		if t != "" {
			return t
		}
	}
	return ""
}

func bestDescription(descriptions map[string]string) string {
	if d := descriptions["en"]; d != "" {
		return d
	}
	for _, d := range descriptions {
		if d != "" {
			return d
		}
	}
	return ""
}

// pageURLs composes image URLs from the at-home response. The reported
// base URL wins; the static server network is the fallback.
func pageURLs(resp pagesResponse, servers []string) []providers.Page {
	base := ""
	if resp.BaseURL != "" {
		base = strings.TrimSuffix(resp.BaseURL, "/") + "/data/"
	} else if len(servers) > 0 {
		base = servers[0]
	}

	pages := make([]providers.Page, len(resp.Chapter.Data))
	for i, file := range resp.Chapter.Data {
		pages[i] = providers.Page{
			Index:    i,
			URL:      base + resp.Chapter.Hash + "/" + file,
			Filename: file,
		}
	}
	return pages
}

// Response shapes for the endpoints in use.

type relationship struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Attributes struct {
		Name     string `json:"name"`
		FileName string `json:"fileName"`
	} `json:"attributes"`
}

type mangaTag struct {
	Attributes struct {
		Name map[string]string `json:"name"`
	} `json:"attributes"`
}

type mangaData struct {
	ID         string `json:"id"`
	Attributes struct {
		Title       map[string]string   `json:"title"`
		AltTitles   []map[string]string `json:"altTitles"`
		Description map[string]string   `json:"description"`
		Status      string              `json:"status"`
		Tags        []mangaTag          `json:"tags"`
	} `json:"attributes"`
	Relationships []relationship `json:"relationships"`
}

type listResponse struct {
	Data   []mangaData `json:"data"`
	Total  int         `json:"total"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}

type feedResponse struct {
	Data []struct {
		ID         string `json:"id"`
		Attributes struct {
			Title              string    `json:"title"`
			Chapter            string    `json:"chapter"`
			Volume             string    `json:"volume"`
			TranslatedLanguage string    `json:"translatedLanguage"`
			PublishAt          time.Time `json:"publishAt"`
		} `json:"attributes"`
	} `json:"data"`
	Total int `json:"total"`
}

type pagesResponse struct {
	BaseURL string `json:"baseUrl"`
	Chapter struct {
		Hash string   `json:"hash"`
		Data []string `json:"data"`
	} `json:"chapter"`
}
