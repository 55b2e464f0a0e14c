package enrich

import (
	"mediatrack/internal/ai"
	"mediatrack/internal/search"
)

const defaultSystemPrompt = `You are a media recommendation assistant. The user asks about movies, TV series, books, comics, short dramas or music. Use the web_search tool when you need current information. Always answer with a JSON array of objects, no prose, where each object has the fields: "title", "type" (one of "Movie", "TV Series", "Book", "Comic", "Short Drama", "Music", "Other"), "directorOrAuthor", "cast" (array of strings), "description" (2-3 sentences), "releaseDate", "isOngoing" (boolean) and "latestUpdateInfo" (latest episode/chapter if ongoing, otherwise empty).`

const defaultTrendingPrompt = `List 10 titles that are trending right now across movies, TV series, books and comics. Prefer releases from the last few months.`

const defaultUpdatePrompt = `For each of the following ongoing titles, find the most recent episode, chapter or volume released. Answer with a JSON array of objects with the fields "title" and "latestUpdateInfo".`

// Snapshot is the settings state one pipeline call runs under. It is read
// once at the start of the call and never mutated, so a call's behavior is
// a function of its inputs alone.
type Snapshot struct {
	AI     ai.Config
	Search search.Config

	// SearchEnabled attaches the web_search tool to every completion
	// request. ForceSearch does the same for a single call even when the
	// global toggle is off, for queries that need grounding.
	SearchEnabled bool
	ForceSearch   bool

	OMDbAPIKey string

	// Prompt overrides. Empty means the built-in default.
	SystemPrompt   string
	TrendingPrompt string
	UpdatePrompt   string
}

func (s Snapshot) searchActive() bool {
	return s.SearchEnabled || s.ForceSearch
}

func (s Snapshot) systemPrompt() string {
	if s.SystemPrompt != "" {
		return s.SystemPrompt
	}
	return defaultSystemPrompt
}

func (s Snapshot) trendingPrompt() string {
	if s.TrendingPrompt != "" {
		return s.TrendingPrompt
	}
	return defaultTrendingPrompt
}

func (s Snapshot) updatePrompt() string {
	if s.UpdatePrompt != "" {
		return s.UpdatePrompt
	}
	return defaultUpdatePrompt
}
