// Package isodur converts between time.Duration and the ISO-8601 duration
// literals (e.g. "PT60S", "PT5M") used on the wire for lease durations.
// time.Duration's own JSON encoding is a nanosecond integer, which is not
// what the HTTP API exposes to callers.
package isodur

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Parse accepts a restricted ISO-8601 duration: the "PT" time-designator
// form with any combination of hours, minutes, and seconds components
// (PT1H30M, PT90S, PT1H). Date components (P1D, P1Y) are rejected — lease
// durations never run that long.
func Parse(s string) (time.Duration, error) {
	orig := s
	if !strings.HasPrefix(s, "PT") {
		return 0, fmt.Errorf("isodur: %q is not a PT-prefixed duration", orig)
	}
	s = s[2:]
	if s == "" {
		return 0, fmt.Errorf("isodur: %q has no duration component", orig)
	}

	var total time.Duration
	var num strings.Builder
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9' || c == '.':
			num.WriteRune(c)
		case c == 'H', c == 'M', c == 'S':
			if num.Len() == 0 {
				return 0, fmt.Errorf("isodur: %q has a unit with no value", orig)
			}
			v, err := strconv.ParseFloat(num.String(), 64)
			if err != nil {
				return 0, fmt.Errorf("isodur: %q: %w", orig, err)
			}
			switch c {
			case 'H':
				total += time.Duration(v * float64(time.Hour))
			case 'M':
				total += time.Duration(v * float64(time.Minute))
			case 'S':
				total += time.Duration(v * float64(time.Second))
			}
			num.Reset()
		default:
			return 0, fmt.Errorf("isodur: %q has unsupported character %q", orig, c)
		}
	}
	if num.Len() > 0 {
		return 0, fmt.Errorf("isodur: %q has a trailing value with no unit", orig)
	}
	return total, nil
}

// Format renders d as a PT-prefixed ISO-8601 duration using whole hours and
// minutes and a seconds component that may be fractional ("PT1.5S"),
// omitting zero components. A zero duration formats as "PT0S".
func Format(d time.Duration) string {
	if d < 0 {
		return "-" + Format(-d)
	}
	if d == 0 {
		return "PT0S"
	}

	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute

	var b strings.Builder
	b.WriteString("PT")
	if hours > 0 {
		fmt.Fprintf(&b, "%dH", hours)
	}
	if minutes > 0 {
		fmt.Fprintf(&b, "%dM", minutes)
	}
	remSeconds := d.Seconds()
	if remSeconds > 0 || (hours == 0 && minutes == 0) {
		if remSeconds == float64(int64(remSeconds)) {
			fmt.Fprintf(&b, "%dS", int64(remSeconds))
		} else {
			fmt.Fprintf(&b, "%gS", remSeconds)
		}
	}
	return b.String()
}
