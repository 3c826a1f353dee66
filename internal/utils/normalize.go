package utils

import (
	"errors"
	"regexp"
	"strings"
	"time"
	_ "time/tzdata"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var wsRe = regexp.MustCompile(`\s+`)

var (
	ErrInvalidDateKey  = errors.New("invalid date key")
	ErrInvalidTimezone = errors.New("invalid timezone")
)

const DateKeyLayout = "2006-01-02"

// NormalizeName trims, NFC-normalizes and collapses inner whitespace.
func NormalizeName(s string) string {
	s = norm.NFC.String(strings.TrimSpace(s))
	return wsRe.ReplaceAllString(s, " ")
}

// NormalizeCode trims and upper-cases a user-typed code.
func NormalizeCode(s string) string {
	return cases.Upper(language.Und).String(strings.TrimSpace(s))
}

// TruncateRunes cuts s to at most max characters without splitting a rune.
func TruncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}

// ParseDateKey validates a YYYY-MM-DD calendar date.
func ParseDateKey(s string) (time.Time, error) {
	t, err := time.Parse(DateKeyLayout, s)
	if err != nil {
		return time.Time{}, ErrInvalidDateKey
	}
	return t, nil
}

// LocalDateKey returns the calendar date of now in the given IANA zone.
// An empty zone means UTC.
func LocalDateKey(now time.Time, tz string) (string, error) {
	loc := time.UTC
	if tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return "", ErrInvalidTimezone
		}
		loc = l
	}
	return now.In(loc).Format(DateKeyLayout), nil
}
