package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractRecords_FencedArray(t *testing.T) {
	answer := "Here you go: ```json\n[{\"title\":\"A\"}]\n``` hope that helps"

	recs := ExtractRecords(answer)
	require.Len(t, recs, 1)
	assert.Equal(t, "A", recs[0].Title)
}

func TestExtractRecords_ArrayEmbeddedInProse(t *testing.T) {
	answer := `Sure! Based on my search: [{"title":"Dune","type":"Movie","releaseDate":"2021"}] Let me know if you want more.`

	recs := ExtractRecords(answer)
	require.Len(t, recs, 1)
	assert.Equal(t, "Dune", recs[0].Title)
	assert.Equal(t, TypeMovie, recs[0].Type)
	assert.Equal(t, "2021", recs[0].ReleaseDate)
}

func TestExtractRecords_TruncatedRecovery(t *testing.T) {
	answer := `[{"title":"A"},{"title":"B`

	recs := ExtractRecords(answer)
	require.Len(t, recs, 1)
	assert.Equal(t, "A", recs[0].Title)
}

func TestExtractRecords_NoStructuredData(t *testing.T) {
	assert.Empty(t, ExtractRecords("Sorry, I cannot help."))
	assert.Empty(t, ExtractRecords(""))
	assert.Empty(t, ExtractRecords("```\n\n```"))
}

func TestExtractRecords_BareObjectWrapped(t *testing.T) {
	recs := ExtractRecords(`{"title":"Solo","type":"Music"}`)
	require.Len(t, recs, 1)
	assert.Equal(t, TypeMusic, recs[0].Type)
}

func TestExtractRecords_FullRecord(t *testing.T) {
	answer := `[{
		"title": "One Piece",
		"type": "Comic",
		"directorOrAuthor": "Eiichiro Oda",
		"cast": ["Luffy", "Zoro", ""],
		"description": "Pirate adventure.",
		"releaseDate": "1997",
		"isOngoing": true,
		"latestUpdateInfo": "Chapter 1120"
	}]`

	recs := ExtractRecords(answer)
	require.Len(t, recs, 1)
	rec := recs[0]
	assert.Equal(t, "One Piece", rec.Title)
	assert.Equal(t, TypeComic, rec.Type)
	assert.Equal(t, "Eiichiro Oda", rec.DirectorOrAuthor)
	assert.Equal(t, []string{"Luffy", "Zoro"}, rec.Cast)
	assert.True(t, rec.IsOngoing)
	assert.Equal(t, "Chapter 1120", rec.LatestUpdateInfo)
}

func TestExtractRecords_FieldAliases(t *testing.T) {
	recs := ExtractRecords(`[{"title":"Dune","author":"Frank Herbert","year":"1965","type":"Book"}]`)
	require.Len(t, recs, 1)
	assert.Equal(t, "Frank Herbert", recs[0].DirectorOrAuthor)
	assert.Equal(t, "1965", recs[0].ReleaseDate)
}

func TestExtractRecords_SkipsTitlelessEntries(t *testing.T) {
	recs := ExtractRecords(`[{"title":"A"},{"description":"no title"},{"title":"  "}]`)
	require.Len(t, recs, 1)
	assert.Equal(t, "A", recs[0].Title)
}

func TestParseMediaType(t *testing.T) {
	cases := []struct {
		in   string
		want MediaType
	}{
		{"Movie", TypeMovie},
		{"film", TypeMovie},
		{"TV Series", TypeTVSeries},
		{"tv show", TypeTVSeries},
		{"anime", TypeTVSeries},
		{"Book", TypeBook},
		{"manga", TypeComic},
		{"Short Drama", TypeShortDrama},
		{"album", TypeMusic},
		{"videogame", TypeOther},
		{"", TypeOther},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ParseMediaType(tc.in), "input %q", tc.in)
	}
}

func TestPlaceholderURL(t *testing.T) {
	assert.Equal(t,
		"https://placehold.co/300x450/1f2430/e8e8e8?text=Movie",
		TypeMovie.PlaceholderURL())
	assert.Equal(t,
		"https://placehold.co/300x450/1f2430/e8e8e8?text=TV+Series",
		TypeTVSeries.PlaceholderURL())
	assert.Equal(t, TypeOther.PlaceholderURL(), MediaType("").PlaceholderURL())
}
