package metadata

import "strings"

// Merge folds other into r. authoritative marks other as the structural
// authority whose chapter and volume counts overwrite r's; every other
// field follows fixed aggregation rules:
//
//   - id mappings, genres, tags, themes, synonyms and links are unioned
//   - ratings are kept per provider and the aggregate is recomputed
//   - popularity counters are summed
//   - non-authoritative structural fields and text fill first-non-empty
//   - the cover is replaced only while r still has a placeholder
func (r *Record) Merge(other *Record, authoritative bool) {
	if other == nil {
		return
	}

	if r.IDs == nil {
		r.IDs = make(map[string]string)
	}
	for provider, id := range other.IDs {
		if _, ok := r.IDs[provider]; !ok {
			r.IDs[provider] = id
		}
	}

	if r.Title == "" {
		r.Title = other.Title
	} else if other.Title != "" && !strings.EqualFold(r.Title, other.Title) {
		r.Synonyms = unionStrings(r.Synonyms, other.Title)
	}
	r.Synonyms = unionStrings(r.Synonyms, other.Synonyms...)
	r.Genres = unionStrings(r.Genres, other.Genres...)
	r.Tags = unionStrings(r.Tags, other.Tags...)
	r.Themes = unionStrings(r.Themes, other.Themes...)

	if len(other.Ratings) > 0 {
		if r.Ratings == nil {
			r.Ratings = make(map[string]Rating)
		}
		for provider, rating := range other.Ratings {
			if _, ok := r.Ratings[provider]; !ok {
				r.Ratings[provider] = rating
			}
		}
	}
	r.Aggregate = aggregateRating(r.Ratings)

	r.Popularity += other.Popularity

	if authoritative {
		if other.Chapters > 0 {
			r.Chapters = other.Chapters
		}
		if other.Volumes > 0 {
			r.Volumes = other.Volumes
		}
	} else {
		if r.Chapters == 0 {
			r.Chapters = other.Chapters
		}
		if r.Volumes == 0 {
			r.Volumes = other.Volumes
		}
	}

	if r.Status == "" {
		r.Status = other.Status
	}
	if r.Synopsis == "" {
		r.Synopsis = other.Synopsis
	}
	if r.Banner == "" {
		r.Banner = other.Banner
	}
	if isDefaultCover(r.Cover) && !isDefaultCover(other.Cover) {
		r.Cover = other.Cover
	}

	r.Links = unionLinks(r.Links, other.Links)
}

// unionStrings appends the additions not already present, matching
// case-insensitively and preserving the casing seen first.
func unionStrings(dst []string, add ...string) []string {
	seen := make(map[string]bool, len(dst))
	for _, s := range dst {
		seen[strings.ToLower(s)] = true
	}
	for _, s := range add {
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if seen[key] {
			continue
		}
		seen[key] = true
		dst = append(dst, s)
	}
	return dst
}

// unionLinks merges by URL.
func unionLinks(dst, add []Link) []Link {
	seen := make(map[string]bool, len(dst))
	for _, l := range dst {
		seen[l.URL] = true
	}
	for _, l := range add {
		if l.URL == "" || seen[l.URL] {
			continue
		}
		seen[l.URL] = true
		dst = append(dst, l)
	}
	return dst
}

func aggregateRating(ratings map[string]Rating) float64 {
	if len(ratings) == 0 {
		return 0
	}
	var sum float64
	for _, r := range ratings {
		sum += r.Score
	}
	return sum / float64(len(ratings))
}

// Clone deep-copies a record so cached documents are never aliased by
// callers that go on to merge into them.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	out.IDs = make(map[string]string, len(r.IDs))
	for k, v := range r.IDs {
		out.IDs[k] = v
	}
	if r.Ratings != nil {
		out.Ratings = make(map[string]Rating, len(r.Ratings))
		for k, v := range r.Ratings {
			out.Ratings[k] = v
		}
	}
	out.Synonyms = append([]string(nil), r.Synonyms...)
	out.Genres = append([]string(nil), r.Genres...)
	out.Tags = append([]string(nil), r.Tags...)
	out.Themes = append([]string(nil), r.Themes...)
	out.Links = append([]Link(nil), r.Links...)
	return &out
}
