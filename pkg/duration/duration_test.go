package duration

import (
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"30s", 30 * time.Second},
		{"90m", 90 * time.Minute},
		{"12h", 12 * time.Hour},
		{"1d", Day},
		{"30d", 30 * Day},
		{"2w", 2 * Week},
		{"1w2d12h", Week + 2*Day + 12*time.Hour},
		{"1w 2d 12h", Week + 2*Day + 12*time.Hour},
		{"1.5h", 90 * time.Minute},
		{"0.5d", 12 * time.Hour},
		{"-2d", -2 * Day},
		{"+3h", 3 * time.Hour},
		{"250ms", 250 * time.Millisecond},
		{"10µs", 10 * time.Microsecond},
		{"  7d  ", 7 * Day},
	}

	for _, tt := range tests {
		got, err := Parse(tt.in)
		if err != nil {
			t.Errorf("Parse(%q): unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParse_Errors(t *testing.T) {
	for _, in := range []string{"", "   ", "30", "d", "5fortnights", "abc", "1h2"} {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q): expected error", in)
		}
	}
}

func TestMustParse(t *testing.T) {
	if got := MustParse("2d"); got != 2*Day {
		t.Errorf("MustParse(2d) = %v", got)
	}

	defer func() {
		if recover() == nil {
			t.Error("MustParse with a bad value should panic")
		}
	}()
	MustParse("nope")
}

func TestFormat(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0s"},
		{30 * time.Second, "30s"},
		{90 * time.Minute, "1h30m"},
		{24 * time.Hour, "1d"},
		{48 * time.Hour, "2d"},
		{Week, "1w"},
		{Week + 2*Day + 12*time.Hour, "1w2d12h"},
		{-2 * Day, "-2d"},
		{250 * time.Millisecond, "250ms"},
	}

	for _, tt := range tests {
		if got := Format(tt.in); got != tt.want {
			t.Errorf("Format(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	for _, in := range []string{"30s", "12h", "1d", "2w", "1w2d12h"} {
		d, err := Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", in, err)
		}
		if got := Format(d); got != in {
			t.Errorf("Format(Parse(%q)) = %q", in, got)
		}
	}
}
