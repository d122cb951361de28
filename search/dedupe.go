package search

import (
	"sort"
	"strings"
	"unicode"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"Lodestar/metadata"
	"Lodestar/providers"
	"Lodestar/source"
)

// Titles are duplicates when the best of the three fuzzy ratios over their
// normalized forms reaches this score.
const similarityThreshold = 85

// Confidence bounds: a unified result starts at base plus a step per extra
// source, and enrichment with a trusted cross-provider mapping adds a
// fixed bump. Capped at 1.
const (
	confidenceBase       = 0.5
	confidencePerSource  = 0.1
	confidenceSourceCap  = 0.8
	confidenceEnrichBump = 0.2
)

// SourceOption is one provider's copy of a unified result.
type SourceOption struct {
	ProviderID string `json:"provider_id"`
	MangaID    string `json:"manga_id"`
	Title      string `json:"title"`
	Priority   int    `json:"priority"`
}

// Result is one deduplicated search hit: a primary pick, every provider
// that carries the series, and optionally the enriched metadata record.
type Result struct {
	Title      string           `json:"title"`
	Primary    SourceOption     `json:"primary"`
	Sources    []SourceOption   `json:"sources"`
	AltTitles  []string         `json:"alt_titles,omitempty"`
	Cover      string           `json:"cover,omitempty"`
	Confidence float64          `json:"confidence"`
	Metadata   *metadata.Record `json:"metadata,omitempty"`
}

// NormalizeTitle lowercases, strips punctuation, collapses whitespace, and
// drops a leading article so fuzzy comparison sees only the words that
// matter.
func NormalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	t := strings.Join(strings.Fields(b.String()), " ")
	for _, article := range []string{"the ", "an ", "a "} {
		if strings.HasPrefix(t, article) {
			t = strings.TrimPrefix(t, article)
			break
		}
	}
	return t
}

// similarTitles applies the duplicate test: maximum of plain, token-sort
// and token-set ratio against the threshold.
func similarTitles(a, b string) bool {
	if a == "" || b == "" {
		return a == b
	}
	if a == b {
		return true
	}
	best := fuzzy.Ratio(a, b)
	if s := fuzzy.TokenSortRatio(a, b); s > best {
		best = s
	}
	if s := fuzzy.TokenSetRatio(a, b); s > best {
		best = s
	}
	return best >= similarityThreshold
}

type candidate struct {
	providerID string
	priority   int
	item       providers.Manga
	norm       string
}

// Dedupe clusters raw per-provider results into unified results. Grouping
// compares each candidate against the seed of every existing group; the
// input is pre-sorted so the outcome does not depend on provider response
// order. Within a group the best static priority becomes primary, the
// rest become source options, and all distinct titles union into the
// alternates.
func Dedupe(raw []source.ProviderResult) []Result {
	var candidates []candidate
	for _, pr := range raw {
		for _, item := range pr.Items {
			candidates = append(candidates, candidate{
				providerID: pr.ProviderID,
				priority:   pr.Priority,
				item:       item,
				norm:       NormalizeTitle(item.Title),
			})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := &candidates[i], &candidates[j]
		if a.priority != b.priority {
			return a.priority < b.priority
		}
		if a.providerID != b.providerID {
			return a.providerID < b.providerID
		}
		return a.norm < b.norm
	})

	type group struct {
		seed    string
		members []*candidate
	}
	var groups []*group
	for i := range candidates {
		c := &candidates[i]
		placed := false
		for _, g := range groups {
			if similarTitles(c.norm, g.seed) {
				g.members = append(g.members, c)
				placed = true
				break
			}
		}
		if !placed {
			groups = append(groups, &group{seed: c.norm, members: []*candidate{c}})
		}
	}

	out := make([]Result, 0, len(groups))
	for _, g := range groups {
		out = append(out, buildResult(g.members))
	}
	return out
}

func buildResult(members []*candidate) Result {
	primary := members[0]
	for _, m := range members[1:] {
		if m.priority < primary.priority {
			primary = m
		}
	}

	res := Result{
		Title: primary.item.Title,
		Primary: SourceOption{
			ProviderID: primary.providerID,
			MangaID:    primary.item.ID,
			Title:      primary.item.Title,
			Priority:   primary.priority,
		},
		Cover:      primary.item.Cover,
		Confidence: baseConfidence(countProviders(members)),
	}

	seenAlt := map[string]bool{primary.norm: true}
	addAlt := func(title string) {
		norm := NormalizeTitle(title)
		if title == "" || seenAlt[norm] {
			return
		}
		seenAlt[norm] = true
		res.AltTitles = append(res.AltTitles, title)
	}

	for _, m := range members {
		res.Sources = append(res.Sources, SourceOption{
			ProviderID: m.providerID,
			MangaID:    m.item.ID,
			Title:      m.item.Title,
			Priority:   m.priority,
		})
		addAlt(m.item.Title)
		for _, alt := range m.item.AltTitles {
			addAlt(alt)
		}
		if res.Cover == "" {
			res.Cover = m.item.Cover
		}
	}

	sort.SliceStable(res.Sources, func(i, j int) bool {
		if res.Sources[i].Priority != res.Sources[j].Priority {
			return res.Sources[i].Priority < res.Sources[j].Priority
		}
		return res.Sources[i].ProviderID < res.Sources[j].ProviderID
	})
	return res
}

// countProviders counts distinct providers in a group; two copies from the
// same provider are one source for confidence purposes.
func countProviders(members []*candidate) int {
	seen := make(map[string]bool, len(members))
	for _, m := range members {
		seen[m.providerID] = true
	}
	return len(seen)
}

func baseConfidence(sources int) float64 {
	c := confidenceBase + confidencePerSource*float64(sources-1)
	if c > confidenceSourceCap {
		c = confidenceSourceCap
	}
	return c
}
