package isodur_test

import (
	"testing"
	"time"

	"github.com/kallihansen/jobplane/internal/isodur"
)

func TestParse(t *testing.T) {
	cases := map[string]time.Duration{
		"PT60S":   60 * time.Second,
		"PT1M":    time.Minute,
		"PT1H30M": 90 * time.Minute,
		"PT90S":   90 * time.Second,
		"PT0S":    0,
	}
	for in, want := range cases {
		got, err := isodur.Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("Parse(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParse_Rejects(t *testing.T) {
	for _, in := range []string{"P1D", "60S", "PT", "PTxS", "PT5"} {
		if _, err := isodur.Parse(in); err == nil {
			t.Fatalf("Parse(%q): expected error", in)
		}
	}
}

func TestFormat_RoundTrips(t *testing.T) {
	for _, d := range []time.Duration{0, 30 * time.Second, 90 * time.Second, time.Hour + 30*time.Minute} {
		s := isodur.Format(d)
		got, err := isodur.Parse(s)
		if err != nil {
			t.Fatalf("Parse(Format(%v)=%q): %v", d, s, err)
		}
		if got != d {
			t.Fatalf("round trip %v -> %q -> %v", d, s, got)
		}
	}
}
