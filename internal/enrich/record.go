package enrich

import (
	"fmt"
	"net/url"
	"strings"
)

// MediaType is the display label stored and serialized for a record. The
// wire values match what the collection UI and legacy exports use.
type MediaType string

const (
	TypeMovie      MediaType = "Movie"
	TypeTVSeries   MediaType = "TV Series"
	TypeBook       MediaType = "Book"
	TypeComic      MediaType = "Comic"
	TypeShortDrama MediaType = "Short Drama"
	TypeMusic      MediaType = "Music"
	TypeOther      MediaType = "Other"
)

// DefaultStatus is stamped on every freshly enriched record.
const DefaultStatus = "To Watch"

// ParseMediaType maps the model's free-form type strings onto a known
// label. Models emit all sorts of spellings ("tv", "Film", "TV show"), so
// anything unrecognized lands on Other rather than failing.
func ParseMediaType(raw string) MediaType {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "movie", "film":
		return TypeMovie
	case "tv series", "tvseries", "tv", "tv show", "series", "show", "drama", "anime":
		return TypeTVSeries
	case "book", "novel":
		return TypeBook
	case "comic", "manga", "manhwa", "graphic novel":
		return TypeComic
	case "short drama", "shortdrama", "short":
		return TypeShortDrama
	case "music", "album", "song":
		return TypeMusic
	default:
		return TypeOther
	}
}

// PlaceholderURL is the deterministic fallback poster for a type. Same
// type, same URL, so the UI can recognize and later replace placeholders.
func (t MediaType) PlaceholderURL() string {
	label := string(t)
	if label == "" {
		label = string(TypeOther)
	}
	return fmt.Sprintf("https://placehold.co/300x450/1f2430/e8e8e8?text=%s", url.QueryEscape(label))
}

// MediaRecord is one enriched title. Field names follow the camelCase
// shape the collection store and exports already speak.
type MediaRecord struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Type             MediaType `json:"type"`
	DirectorOrAuthor string    `json:"directorOrAuthor"`
	Cast             []string  `json:"cast,omitempty"`
	Description      string    `json:"description"`
	ReleaseDate      string    `json:"releaseDate"`
	IsOngoing        bool      `json:"isOngoing"`
	LatestUpdateInfo string    `json:"latestUpdateInfo,omitempty"`
	PosterURL        string    `json:"posterUrl"`
	UserRating       float64   `json:"userRating,omitempty"`
	Status           string    `json:"status"`
	AddedAt          string    `json:"addedAt"`
}

// normalizeTitle builds the dedupe and cache key for a title.
func normalizeTitle(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(title)), " ")
}
