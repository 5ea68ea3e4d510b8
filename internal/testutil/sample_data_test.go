package testutil

import (
	"strings"
	"testing"
	"time"
)

func TestChannelNamesAreDeterministic(t *testing.T) {
	if ChannelName(3) != ChannelName(3) {
		t.Error("channel names must be deterministic")
	}
	if ChannelName(0) == ChannelName(1) {
		t.Error("adjacent channels must differ")
	}
	if !strings.Contains(ChannelID(0), ".") {
		t.Errorf("unexpected channel id %q", ChannelID(0))
	}
}

func TestSampleChannels(t *testing.T) {
	channels := SampleChannels("t1", 5)
	if len(channels) != 5 {
		t.Fatalf("expected 5 channels, got %d", len(channels))
	}
	for i, ch := range channels {
		if ch.TenantID != "t1" {
			t.Errorf("channel %d missing tenant", i)
		}
		if ch.OrderIndex != i {
			t.Errorf("channel %d has order %d", i, ch.OrderIndex)
		}
		if ch.EpgID != "" {
			t.Errorf("channel %d should start unmapped", i)
		}
	}
}

func TestSamplePlaylistAndXMLTVAgree(t *testing.T) {
	playlist := SamplePlaylist(3)
	feed := SampleXMLTV(3, 2, time.Date(2026, 8, 30, 6, 0, 0, 0, time.UTC))

	for i := 0; i < 3; i++ {
		id := ChannelID(i)
		if !strings.Contains(playlist, `tvg-id="`+id+`"`) {
			t.Errorf("playlist missing tvg-id %q", id)
		}
		if !strings.Contains(feed, `<channel id="`+id+`"`) {
			t.Errorf("feed missing channel %q", id)
		}
	}
	if strings.Count(feed, "<programme") != 6 {
		t.Errorf("expected 6 programmes, got %d", strings.Count(feed, "<programme"))
	}
}

func TestSampleScheduleEntries(t *testing.T) {
	start := time.Date(2026, 8, 30, 6, 0, 0, 0, time.UTC)
	entries := SampleScheduleEntries("newsfirst.one", 4, start)
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if !entries[i].Start.Equal(entries[i-1].End) {
			t.Errorf("entry %d not back-to-back", i)
		}
		if entries[i].ProgramID == entries[i-1].ProgramID {
			t.Errorf("entry %d duplicates program id", i)
		}
	}
}
