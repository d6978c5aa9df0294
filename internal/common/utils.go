package common

import (
	"strings"
	"unicode"
)

// SplitList splits a query list on commas and whitespace, dropping empty items.
// "a, b c" and "a%20b,c" (once decoded) both yield [a b c].
func SplitList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}

// HasAny returns true if s contains any of the substrings.
func HasAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
