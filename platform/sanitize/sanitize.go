// Package sanitize strips markup from free-text fields before they are stored.
package sanitize

import (
	"strings"

	"golang.org/x/net/html"
)

// Text removes HTML tags from s, decodes entities and trims the result.
// Script and style bodies are dropped. Tags that only appear after entity
// decoding are stripped as well.
func Text(s string) string {
	out := strip(s)
	if strings.Contains(out, "<") {
		out = strip(out)
	}
	return strings.TrimSpace(out)
}

// TextPtr is Text for optional fields.
func TextPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := Text(*s)
	return &v
}

func strip(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}

	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	raw := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			if raw == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken:
			if isRawTag(z) {
				raw++
			}
		case html.EndTagToken:
			if isRawTag(z) && raw > 0 {
				raw--
			}
		}
	}
}

func isRawTag(z *html.Tokenizer) bool {
	name, _ := z.TagName()
	switch string(name) {
	case "script", "style":
		return true
	}
	return false
}
