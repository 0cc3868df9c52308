package utils

import (
	"strings"

	"github.com/gosimple/slug"
	"github.com/gosimple/unidecode"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TitleCase capitalises each word ("drink water" -> "Drink Water").
func TitleCase(s string) string {
	return cases.Title(language.English).String(strings.TrimSpace(s))
}

// Handle derives a URL-safe character handle from a display name.
func Handle(name string) string {
	h := slug.Make(name)
	if h == "" {
		return "adventurer"
	}
	return h
}

// Prefix returns the first n runes of s.
func Prefix(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Fold lowercases s and transliterates it to ASCII so keyword matching
// ignores accents and typographic quotes.
func Fold(s string) string {
	return strings.ToLower(unidecode.Unidecode(s))
}
