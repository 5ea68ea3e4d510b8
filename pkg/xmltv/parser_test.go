package xmltv

import (
	"bytes"
	"compress/gzip"
	"strings"
	"testing"
	"time"

	dsbzip2 "github.com/dsnet/compress/bzip2"
	"github.com/ulikunitz/xz"
)

const sampleXMLTV = `<?xml version="1.0" encoding="UTF-8"?>
<tv>
  <channel id="bbc1">
    <display-name lang="en">BBC One</display-name>
    <icon src="http://example.com/bbc1.png"/>
  </channel>
  <channel id="nolang">
    <display-name>No Lang</display-name>
  </channel>
  <channel id="noname">
    <icon src="http://example.com/x.png"/>
  </channel>
  <channel>
    <display-name>No ID</display-name>
  </channel>
  <programme channel="bbc1" start="20240101120000 +0000" stop="20240101130000 +0000">
    <title>Morning News</title>
    <desc>Headlines and weather.</desc>
    <category>News</category>
  </programme>
  <programme channel="bbc1" start="20240101130000 +0000">
    <title>No Stop Time</title>
  </programme>
  <programme channel="bbc1" start="20240101140000 +0000" stop="20240101150000 +0000">
    <desc>missing title, dropped</desc>
  </programme>
  <programme start="20240101150000 +0000" stop="20240101160000 +0000">
    <title>No Channel</title>
  </programme>
</tv>`

func parseSample(t *testing.T, doc string) ([]*Channel, []*Programme) {
	t.Helper()

	var channels []*Channel
	var programmes []*Programme
	p := &Parser{
		DefaultLang: "en",
		OnChannel: func(c *Channel) error {
			channels = append(channels, c)
			return nil
		},
		OnProgramme: func(prog *Programme) error {
			programmes = append(programmes, prog)
			return nil
		},
	}
	if err := p.Parse(strings.NewReader(doc)); err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	return channels, programmes
}

func TestParse_ChannelGating(t *testing.T) {
	channels, _ := parseSample(t, sampleXMLTV)

	if len(channels) != 2 {
		t.Fatalf("expected 2 channels, got %d", len(channels))
	}
	if channels[0].ID != "bbc1" || channels[0].DisplayName != "BBC One" {
		t.Errorf("unexpected first channel: %+v", channels[0])
	}
	if channels[0].Lang != "en" {
		t.Errorf("expected lang en, got %q", channels[0].Lang)
	}
	if channels[0].Icon != "http://example.com/bbc1.png" {
		t.Errorf("unexpected icon: %q", channels[0].Icon)
	}
	// Missing lang falls back to the configured default.
	if channels[1].Lang != "en" {
		t.Errorf("expected default lang, got %q", channels[1].Lang)
	}
}

func TestParse_ProgrammeGating(t *testing.T) {
	_, programmes := parseSample(t, sampleXMLTV)

	if len(programmes) != 2 {
		t.Fatalf("expected 2 programmes, got %d", len(programmes))
	}
	if programmes[0].Title != "Morning News" {
		t.Errorf("unexpected title: %q", programmes[0].Title)
	}
	if programmes[0].Description != "Headlines and weather." || programmes[0].Category != "News" {
		t.Errorf("optional fields not captured: %+v", programmes[0])
	}
}

func TestParse_MissingStopEqualsStart(t *testing.T) {
	_, programmes := parseSample(t, sampleXMLTV)

	noStop := programmes[1]
	if noStop.Title != "No Stop Time" {
		t.Fatalf("unexpected programme: %+v", noStop)
	}
	if !noStop.Stop.Equal(noStop.Start) {
		t.Errorf("expected stop == start, got start=%v stop=%v", noStop.Start, noStop.Stop)
	}
}

func TestNormalizeTime(t *testing.T) {
	fallback := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	p := &Parser{Now: func() time.Time { return fallback }}

	want := time.Date(2024, 1, 1, 12, 0, 0, 0, time.FixedZone("", 3*3600))

	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"canonical", "20240101120000 +0300", want},
		{"missing space before offset", "20240101120000+0300", want},
		{"digits only ignores offset", "20240101120000", time.Date(2024, 1, 1, 12, 0, 0, 0, time.Local)},
		{"trailing junk after digits", "20240101120000zzz", time.Date(2024, 1, 1, 12, 0, 0, 0, time.Local)},
		{"unparseable falls back to now", "not a date", fallback},
		{"empty falls back to now", "", fallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.normalizeTime(tt.input)
			if !got.Equal(tt.want) {
				t.Errorf("normalizeTime(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeTime_NeverAborts(t *testing.T) {
	// A feed full of junk dates still yields every programme.
	doc := `<tv>
  <programme channel="c1" start="garbage" stop="alsogarbage"><title>A</title></programme>
  <programme channel="c1" start="20240101120000 +0000"><title>B</title></programme>
</tv>`

	// start="garbage" is still a present attribute, so the entry is kept
	// with a fallback instant.
	_, programmes := parseSample(t, doc)
	if len(programmes) != 2 {
		t.Fatalf("expected 2 programmes, got %d", len(programmes))
	}
}

func TestParseCompressed_Gzip(t *testing.T) {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write([]byte(sampleXMLTV)); err != nil {
		t.Fatal(err)
	}
	if err := gw.Close(); err != nil {
		t.Fatal(err)
	}

	channels, programmes, err := ParseAll(&buf, "en")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(channels) != 2 || len(programmes) != 2 {
		t.Errorf("got %d channels, %d programmes", len(channels), len(programmes))
	}
}

func TestParseCompressed_Bzip2(t *testing.T) {
	var buf bytes.Buffer
	bw, err := dsbzip2.NewWriter(&buf, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := bw.Write([]byte(sampleXMLTV)); err != nil {
		t.Fatal(err)
	}
	if err := bw.Close(); err != nil {
		t.Fatal(err)
	}

	channels, _, err := ParseAll(&buf, "en")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(channels) != 2 {
		t.Errorf("got %d channels", len(channels))
	}
}

func TestParseCompressed_XZ(t *testing.T) {
	var buf bytes.Buffer
	xw, err := xz.NewWriter(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := xw.Write([]byte(sampleXMLTV)); err != nil {
		t.Fatal(err)
	}
	if err := xw.Close(); err != nil {
		t.Fatal(err)
	}

	channels, _, err := ParseAll(&buf, "en")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(channels) != 2 {
		t.Errorf("got %d channels", len(channels))
	}
}

func TestParseCompressed_Plain(t *testing.T) {
	channels, programmes, err := ParseAll(strings.NewReader(sampleXMLTV), "en")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(channels) != 2 || len(programmes) != 2 {
		t.Errorf("got %d channels, %d programmes", len(channels), len(programmes))
	}
}
