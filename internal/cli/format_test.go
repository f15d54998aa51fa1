package cli

import (
	"testing"
	"time"
)

func TestFormatAge(t *testing.T) {
	now := time.Unix(10_000_000, 0)

	cases := []struct {
		secs float64
		want string
	}{
		{0, "-"},
		{9_999_990, "10s ago"},
		{9_999_000, "16m ago"},
		{9_990_000, "2h ago"},
		{9_000_000, "11d ago"},
	}
	for _, tc := range cases {
		if got := FormatAge(tc.secs, now); got != tc.want {
			t.Errorf("FormatAge(%.0f) = %q, want %q", tc.secs, got, tc.want)
		}
	}
}

func TestTruncateQuery(t *testing.T) {
	if got := TruncateQuery("SELECT\n  *\nFROM t;", 40); got != "SELECT * FROM t;" {
		t.Errorf("collapse = %q, want single line", got)
	}
	if got := TruncateQuery("SELECT something long FROM somewhere;", 20); got != "SELECT something ..." {
		t.Errorf("truncate = %q, want 20 chars with ellipsis", got)
	}
	if got := TruncateQuery("short", 20); got != "short" {
		t.Errorf("short = %q, want unchanged", got)
	}
}

func TestFormatCount(t *testing.T) {
	cases := map[int64]string{
		0:       "0",
		999:     "999",
		1000:    "1,000",
		1234567: "1,234,567",
		-4200:   "-4,200",
	}
	for n, want := range cases {
		if got := FormatCount(n); got != want {
			t.Errorf("FormatCount(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestCompletedMarker(t *testing.T) {
	if CompletedMarker(true) != "done" || CompletedMarker(false) != "PENDING" {
		t.Fatal("CompletedMarker labels changed")
	}
}
