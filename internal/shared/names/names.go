// Package names normalizes person names for display and storage.
package names

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Title collapses whitespace and title-cases each word, so "  mary  ANN o'neil"
// becomes "Mary Ann O'neil". A Caser is stateful, so one is built per call.
func Title(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	caser := cases.Title(language.English)
	return caser.String(strings.Join(fields, " "))
}
