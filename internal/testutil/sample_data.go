// Package testutil provides test utilities including sample data generation.
package testutil

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/guidesync/guidesync/internal/models"
)

// Fictional broadcasters for test data. Real brand names are never used.
var (
	Broadcasters = []string{
		"StreamCast",
		"ViewMedia",
		"AeroVision",
		"GlobalStream",
		"NationalNet",
		"SportsCentral",
		"CinemaMax",
		"NewsFirst",
	}

	ChannelVariants = []string{
		"One",
		"Two",
		"Prime",
		"Plus",
		"Gold",
		"Extra",
	}

	ProgramTitles = []string{
		"Morning Briefing",
		"Midday Report",
		"The Quiz Hour",
		"Kitchen Stories",
		"Wildlife Diaries",
		"Evening News",
		"Prime Drama",
		"Late Night Live",
	}
)

// ChannelName returns a deterministic fictional channel name for an
// index.
func ChannelName(i int) string {
	b := Broadcasters[i%len(Broadcasters)]
	v := ChannelVariants[(i/len(Broadcasters))%len(ChannelVariants)]
	return b + " " + v
}

// ChannelID returns the guide channel id matching ChannelName(i).
func ChannelID(i int) string {
	return strings.ToLower(strings.ReplaceAll(ChannelName(i), " ", "."))
}

// SampleChannels builds n catalog channels for a tenant, unmapped and
// in order.
func SampleChannels(tenantID string, n int) []*models.Channel {
	channels := make([]*models.Channel, 0, n)
	for i := 0; i < n; i++ {
		name := ChannelName(i)
		slug := strings.ToLower(strings.ReplaceAll(name, " ", "-"))
		channels = append(channels, &models.Channel{
			TenantID:   tenantID,
			Slug:       slug,
			Name:       name,
			GroupTitle: "Test",
			StreamURL:  fmt.Sprintf("http://streams.invalid/%s.m3u8", slug),
			OrderIndex: i,
		})
	}
	return channels
}

// SamplePlaylist renders an M3U playlist with n entries whose tvg-ids
// match SampleXMLTV's channel ids.
func SamplePlaylist(n int) string {
	var sb strings.Builder
	sb.WriteString("#EXTM3U\n")
	for i := 0; i < n; i++ {
		name := ChannelName(i)
		id := ChannelID(i)
		fmt.Fprintf(&sb, "#EXTINF:-1 tvg-id=%q tvg-name=%q group-title=\"Test\",%s\n", id, name, name)
		fmt.Fprintf(&sb, "http://streams.invalid/%s.m3u8\n", id)
	}
	return sb.String()
}

// SampleXMLTV renders an XMLTV document with n channels and
// programsPerChannel back-to-back hour-long programmes starting at
// start.
func SampleXMLTV(n, programsPerChannel int, start time.Time) string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n<tv>\n")

	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "  <channel id=%q>\n    <display-name>%s</display-name>\n  </channel>\n",
			ChannelID(i), ChannelName(i))
	}

	const layout = "20060102150405 -0700"
	for i := 0; i < n; i++ {
		for p := 0; p < programsPerChannel; p++ {
			from := start.Add(time.Duration(p) * time.Hour)
			to := from.Add(time.Hour)
			fmt.Fprintf(&sb, "  <programme channel=%q start=%q stop=%q>\n    <title>%s</title>\n  </programme>\n",
				ChannelID(i), from.Format(layout), to.Format(layout),
				ProgramTitles[(i+p)%len(ProgramTitles)])
		}
	}

	sb.WriteString("</tv>\n")
	return sb.String()
}

// SampleScheduleEntries builds back-to-back hour-long entries for one
// guide channel starting at start.
func SampleScheduleEntries(channelID string, n int, start time.Time) []*models.ScheduleEntry {
	entries := make([]*models.ScheduleEntry, 0, n)
	for i := 0; i < n; i++ {
		from := start.Add(time.Duration(i) * time.Hour)
		entries = append(entries, &models.ScheduleEntry{
			ProgramID: models.DeriveProgramID(channelID, from),
			ChannelID: channelID,
			Start:     from,
			End:       from.Add(time.Hour),
			Title:     ProgramTitles[i%len(ProgramTitles)],
		})
	}
	return entries
}

// RandomPort returns a port in the dynamic range for test servers that
// need a fixed listen address.
func RandomPort() int {
	return 49152 + rand.Intn(16000)
}
