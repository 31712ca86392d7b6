package warroom

import (
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

var mentionPattern = regexp.MustCompile(`@([A-Za-z0-9_-]+)`)

// ExtractMentions returns the lowercased ids mentioned in text, in first
// seen order without duplicates, restricted to valid. An @ only starts a
// mention at the beginning of the text or after a character that cannot be
// part of an address, so "bob@codex.io" mentions nobody.
func ExtractMentions(text string, valid []string) []string {
	var ids []string
	for _, m := range mentionPattern.FindAllStringSubmatchIndex(text, -1) {
		if !atBoundary(text, m[0]) {
			continue
		}
		id := strings.ToLower(text[m[2]:m[3]])
		if slices.Contains(ids, id) || !slices.Contains(valid, id) {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func atBoundary(text string, at int) bool {
	if at == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:at])
	switch {
	case unicode.IsLetter(r), unicode.IsDigit(r):
		return false
	case r == '_', r == '-', r == '.', r == '@':
		return false
	}
	return true
}
