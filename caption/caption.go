// Package caption resolves human-readable names for caption languages and normalises user locales.
package caption

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// DisplayName returns the English name for an ISO language code, or "" when none is known.
func DisplayName(code string) string {
	if code == "" {
		return ""
	}
	tag, err := language.Parse(code)
	if err != nil {
		return ""
	}
	return display.English.Languages().Name(tag)
}

// Label builds "<language name> (<subtype>)", using the raw code when no name is known.
func Label(code, subtype string) string {
	name := DisplayName(code)
	if name == "" {
		name = code
	}
	return name + " (" + subtype + ")"
}

// NormalizeLocale lower-cases a locale and truncates it at the first '-' or '_'.
// "fr-FR" and "fr_FR.UTF-8" both become "fr".
func NormalizeLocale(locale string) string {
	l := strings.ToLower(locale)
	if i := strings.IndexAny(l, "-_"); i != -1 {
		l = l[:i]
	}
	return l
}
