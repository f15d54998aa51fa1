// Package cli provides formatting and rendering utilities for terminal
// output.
package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormatUnixTime renders a REAL-seconds timestamp from the session log as
// local wall-clock time.
func FormatUnixTime(secs float64) string {
	if secs == 0 {
		return "-"
	}
	t := time.Unix(0, int64(secs*float64(time.Second)))
	return t.Local().Format("2006-01-02 15:04:05")
}

// FormatAge renders how long ago a REAL-seconds timestamp was, relative to
// now. e.g. "3m ago", "2h ago", "5d ago".
func FormatAge(secs float64, now time.Time) string {
	if secs == 0 {
		return "-"
	}
	d := now.Sub(time.Unix(0, int64(secs*float64(time.Second))))
	if d < 0 {
		d = 0
	}

	switch {
	case d >= 24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours())/24)
	case d >= time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d >= time.Minute:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	default:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	}
}

// TruncateQuery shortens recorded query text for table display, collapsing
// newlines first.
func TruncateQuery(q string, max int) string {
	q = strings.Join(strings.Fields(q), " ")
	if max <= 3 || len(q) <= max {
		return q
	}
	return q[:max-3] + "..."
}

// FormatCount adds comma separators to an integer.
func FormatCount(n int64) string {
	if n < 0 {
		return "-" + FormatCount(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// CompletedMarker renders an entry's completion state for table display.
func CompletedMarker(completed bool) string {
	if completed {
		return "done"
	}
	return "PENDING"
}
