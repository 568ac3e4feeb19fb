package utils

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Capitalize upper-cases the first rune of s.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// FormatDate renders an RFC 3339 timestamp as "January 2, 2006". Unparseable input is returned as is.
func FormatDate(ts string) string {
	t, err := parseTimestamp(ts)
	if err != nil {
		return ts
	}
	return t.Format("January 2, 2006")
}

func FormatDateTime(ts string) string {
	t, err := parseTimestamp(ts)
	if err != nil {
		return ts
	}
	return t.Format("January 2, 2006 3:04 PM")
}

func parseTimestamp(ts string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, strings.TrimSpace(ts))
}
