// Package duration parses and formats durations with day and week units
// on top of Go's standard set. Config values like "30d" or "2w" and the
// usual "90s"/"12h" forms all go through Parse.
package duration

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

const (
	// Day is 24 hours.
	Day = 24 * time.Hour
	// Week is 7 days.
	Week = 7 * Day
)

var units = map[string]time.Duration{
	"ns": time.Nanosecond,
	"us": time.Microsecond,
	"µs": time.Microsecond,
	"ms": time.Millisecond,
	"s":  time.Second,
	"m":  time.Minute,
	"h":  time.Hour,
	"d":  Day,
	"w":  Week,
}

// Parse parses a duration string. Compound values concatenate terms
// ("1w2d12h"); whitespace between terms is tolerated. A bare number is
// rejected so a config typo does not silently become nanoseconds.
func Parse(s string) (time.Duration, error) {
	orig := s
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("duration: empty string")
	}

	neg := false
	if s[0] == '-' || s[0] == '+' {
		neg = s[0] == '-'
		s = strings.TrimSpace(s[1:])
	}

	var total time.Duration
	for s != "" {
		value, rest, err := scanNumber(s)
		if err != nil {
			return 0, fmt.Errorf("duration: %q: %w", orig, err)
		}
		unit, rest := scanUnit(rest)
		mult, ok := units[strings.ToLower(unit)]
		if !ok {
			if unit == "" {
				return 0, fmt.Errorf("duration: %q: missing unit", orig)
			}
			return 0, fmt.Errorf("duration: %q: unknown unit %q", orig, unit)
		}
		total += time.Duration(value * float64(mult))
		s = strings.TrimSpace(rest)
	}

	if neg {
		total = -total
	}
	return total, nil
}

// MustParse is Parse for literals; it panics on error.
func MustParse(s string) time.Duration {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

func scanNumber(s string) (float64, string, error) {
	i := 0
	dot := false
	for i < len(s) {
		c := s[i]
		if c == '.' && !dot {
			dot = true
			i++
			continue
		}
		if c < '0' || c > '9' {
			break
		}
		i++
	}
	if i == 0 || (i == 1 && dot) {
		return 0, s, fmt.Errorf("expected a number at %q", s)
	}
	var value float64
	if _, err := fmt.Sscanf(s[:i], "%g", &value); err != nil {
		return 0, s, err
	}
	return value, s[i:], nil
}

func scanUnit(s string) (string, string) {
	i := 0
	for i < len(s) {
		if s[i] >= 0x80 {
			// µ is the only multi-byte rune a unit can start with.
			if strings.HasPrefix(s[i:], "µ") {
				i += len("µ")
				continue
			}
			break
		}
		if !unicode.IsLetter(rune(s[i])) {
			break
		}
		i++
	}
	return s[:i], s[i:]
}

// Format renders a duration using the largest fitting units, weeks down
// to seconds, omitting zero components. Sub-second durations fall back
// to Go's own formatting; a sub-second remainder after whole seconds is
// dropped since config values never carry one.
func Format(d time.Duration) string {
	if d == 0 {
		return "0s"
	}

	var b strings.Builder
	if d < 0 {
		b.WriteByte('-')
		d = -d
	}
	if d < time.Second {
		b.WriteString(d.String())
		return b.String()
	}

	steps := []struct {
		unit string
		size time.Duration
	}{
		{"w", Week},
		{"d", Day},
		{"h", time.Hour},
		{"m", time.Minute},
		{"s", time.Second},
	}
	for _, step := range steps {
		if n := d / step.size; n > 0 {
			fmt.Fprintf(&b, "%d%s", n, step.unit)
			d -= n * step.size
		}
	}
	return b.String()
}
