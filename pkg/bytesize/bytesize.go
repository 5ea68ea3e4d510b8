// Package bytesize parses and formats byte counts with binary (1024)
// units. Config values like "5MB" or "512k" go through Parse; a bare
// number is taken as bytes.
package bytesize

import (
	"fmt"
	"strconv"
	"strings"
)

// Size is a byte count.
type Size int64

const (
	B  Size = 1
	KB      = 1024 * B
	MB      = 1024 * KB
	GB      = 1024 * MB
	TB      = 1024 * GB
)

var unitNames = []struct {
	name string
	size Size
}{
	{"TB", TB},
	{"GB", GB},
	{"MB", MB},
	{"KB", KB},
	{"B", B},
}

// Parse parses a byte size string: a number followed by an optional
// unit (B, KB/K/KiB, MB/M/MiB, GB/G/GiB, TB/T/TiB, case-insensitive),
// with optional whitespace between them. No unit means bytes.
func Parse(s string) (Size, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, fmt.Errorf("bytesize: empty string")
	}

	split := len(trimmed)
	for i, c := range trimmed {
		if (c < '0' || c > '9') && c != '.' {
			split = i
			break
		}
	}
	numPart := trimmed[:split]
	unitPart := strings.TrimSpace(trimmed[split:])

	value, err := strconv.ParseFloat(numPart, 64)
	if err != nil {
		return 0, fmt.Errorf("bytesize: %q: invalid number", s)
	}

	mult := B
	if unitPart != "" {
		u := strings.ToLower(unitPart)
		u = strings.TrimSuffix(u, "ib")
		u = strings.TrimSuffix(u, "b")
		switch u {
		case "":
			mult = B
		case "k":
			mult = KB
		case "m":
			mult = MB
		case "g":
			mult = GB
		case "t":
			mult = TB
		default:
			return 0, fmt.Errorf("bytesize: %q: unknown unit %q", s, unitPart)
		}
	}

	return Size(value * float64(mult)), nil
}

// MustParse is Parse for literals; it panics on error.
func MustParse(s string) Size {
	size, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return size
}

// Format renders a size using the largest unit that divides it to a
// value of at least one, with up to two decimals.
func Format(s Size) string {
	if s == 0 {
		return "0B"
	}

	prefix := ""
	if s < 0 {
		prefix = "-"
		s = -s
	}

	for _, u := range unitNames {
		if s < u.size {
			continue
		}
		v := float64(s) / float64(u.size)
		if v == float64(int64(v)) {
			return fmt.Sprintf("%s%d%s", prefix, int64(v), u.name)
		}
		return prefix + strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".") + u.name
	}
	return fmt.Sprintf("%s%dB", prefix, int64(s))
}

// Int64 returns the size in bytes.
func (s Size) Int64() int64 {
	return int64(s)
}

// String renders the size human-readably.
func (s Size) String() string {
	return Format(s)
}
