package utils

import (
	"time"

	"github.com/dustin/go-humanize"
)

// FormatCount renders n with thousands separators, e.g. 1234567 -> "1,234,567".
func FormatCount(n int64) string {
	return humanize.Comma(n)
}

// FormatDate renders a calendar date, or "-" for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02")
}

// FormatAge describes t relative to now, e.g. "3 days ago".
func FormatAge(t, now time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// Truncate shortens s to at most n runes, marking the cut with "…".
func Truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 {
		return ""
	}
	if len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
