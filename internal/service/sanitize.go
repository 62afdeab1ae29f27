package service

import (
	"html"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

// strictPolicy strips every element. Script and style content is dropped.
var strictPolicy = bluemonday.StrictPolicy()

// stripMarkup removes all markup and returns plain, unescaped text. Output
// is escaped again by the templates.
func stripMarkup(s string) string {
	return html.UnescapeString(strictPolicy.Sanitize(s))
}

// stripControl removes control characters. Tabs become spaces, and so do
// line feeds unless keepNewlines is set.
func stripControl(s string, keepNewlines bool) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' && keepNewlines:
			return r
		case r == '\t', r == '\n':
			return ' '
		case unicode.IsControl(r), r == unicode.ReplacementChar:
			return -1
		}
		return r
	}, s)
}

// SanitizeName strips markup and collapses all whitespace to single spaces.
func SanitizeName(s string) string {
	s = stripControl(stripMarkup(s), false)
	return strings.Join(strings.Fields(s), " ")
}

// SanitizeMessage strips markup but keeps line breaks. Trailing spaces on
// each line are removed.
func SanitizeMessage(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = stripControl(stripMarkup(s), true)

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRightFunc(line, unicode.IsSpace)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// SanitizeEmail trims s and drops every character that cannot appear in an
// unquoted address.
func SanitizeEmail(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("!#$%&'*+/=?^_`{|}~.-@", r) {
			return r
		}
		return -1
	}, s)
}
