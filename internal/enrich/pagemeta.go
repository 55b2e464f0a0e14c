package enrich

import (
	"net/url"
	"strings"
)

// metaImageAttrs are the social-preview attributes checked in order.
var metaImageAttrs = []string{
	`property="og:image"`,
	`property='og:image'`,
	`name="og:image"`,
	`name='og:image'`,
	`property="og:image:url"`,
	`property='og:image:url'`,
	`property="og:image:secure_url"`,
	`property='og:image:secure_url'`,
	`name="twitter:image"`,
	`name='twitter:image'`,
	`property="twitter:image"`,
	`property='twitter:image'`,
}

// htmlMetaImage pulls the social-preview image out of an HTML page, or ""
// when the page carries none.
func htmlMetaImage(body string) string {
	lower := strings.ToLower(body)
	for _, attr := range metaImageAttrs {
		i := strings.Index(lower, attr)
		if i < 0 {
			continue
		}
		start := strings.LastIndex(lower[:i], "<meta")
		if start < 0 {
			start = i
		}
		end := strings.IndexByte(lower[start:], '>')
		if end < 0 {
			end = len(lower) - start
		}
		if v := metaContent(body[start : start+end]); v != "" {
			return v
		}
	}
	return ""
}

// metaContent reads the content attribute out of one meta tag.
func metaContent(tag string) string {
	lower := strings.ToLower(tag)
	i := strings.Index(lower, "content=")
	if i < 0 {
		return ""
	}
	rest := tag[i+len("content="):]
	if rest == "" {
		return ""
	}
	quote := rest[0]
	if quote != '"' && quote != '\'' {
		return ""
	}
	rest = rest[1:]
	end := strings.IndexByte(rest, quote)
	if end < 0 {
		return ""
	}
	return strings.TrimSpace(rest[:end])
}

// resolveImageURL makes a possibly relative image reference absolute
// against the page it came from.
func resolveImageURL(page, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	base, err := url.Parse(page)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(r).String()
}
