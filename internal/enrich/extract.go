package enrich

import (
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// arrayPattern grabs the first [ { ... } ] shaped substring greedily, so a
// complete array embedded in prose is found in one step.
var arrayPattern = regexp.MustCompile(`(?s)\[\s*\{.*\}\s*\]`)

var fenceMarker = regexp.MustCompile("```[a-zA-Z]*")

// ExtractRecords recovers media records from the model's free-text answer.
// Models wrap JSON in prose and markdown fences and sometimes get cut off
// mid-array, so parsing is two-stage: strict parse first, then truncate at
// the last complete object and close the array. Anything unrecoverable
// yields an empty list, never an error.
func ExtractRecords(answer string) []MediaRecord {
	candidate := locateCandidate(answer)
	if candidate == "" {
		return nil
	}

	if recs := parseRecords(candidate); recs != nil {
		return recs
	}

	if i := strings.LastIndex(candidate, "}"); i >= 0 {
		if recs := parseRecords(candidate[:i+1] + "]"); recs != nil {
			return recs
		}
	}
	return nil
}

// locateCandidate isolates the JSON-looking portion of the answer. A bare
// object is wrapped into a single-element array so both shapes parse the
// same way downstream.
func locateCandidate(answer string) string {
	if m := arrayPattern.FindString(answer); m != "" {
		return m
	}

	s := fenceMarker.ReplaceAllString(answer, "")
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	switch s[0] {
	case '[':
		return s
	case '{':
		return "[" + s + "]"
	default:
		return ""
	}
}

func parseRecords(candidate string) []MediaRecord {
	if !gjson.Valid(candidate) {
		return nil
	}
	parsed := gjson.Parse(candidate)
	if !parsed.IsArray() {
		return nil
	}

	var recs []MediaRecord
	for _, item := range parsed.Array() {
		if rec, ok := recordFromJSON(item); ok {
			recs = append(recs, rec)
		}
	}
	if recs == nil {
		return nil
	}
	return recs
}

// recordFromJSON builds one record from an untyped model object, tolerating
// the field spellings models actually produce.
func recordFromJSON(item gjson.Result) (MediaRecord, bool) {
	if !item.IsObject() {
		return MediaRecord{}, false
	}
	title := strings.TrimSpace(item.Get("title").String())
	if title == "" {
		return MediaRecord{}, false
	}

	rec := MediaRecord{
		Title:            title,
		Type:             ParseMediaType(item.Get("type").String()),
		DirectorOrAuthor: firstString(item, "directorOrAuthor", "director", "author"),
		Description:      item.Get("description").String(),
		ReleaseDate:      firstString(item, "releaseDate", "year"),
		IsOngoing:        item.Get("isOngoing").Bool(),
		LatestUpdateInfo: item.Get("latestUpdateInfo").String(),
		PosterURL:        firstString(item, "posterUrl", "poster"),
		UserRating:       item.Get("userRating").Float(),
	}
	for _, member := range item.Get("cast").Array() {
		if name := strings.TrimSpace(member.String()); name != "" {
			rec.Cast = append(rec.Cast, name)
		}
	}
	return rec, true
}

func firstString(item gjson.Result, keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(item.Get(key).String()); v != "" {
			return v
		}
	}
	return ""
}
