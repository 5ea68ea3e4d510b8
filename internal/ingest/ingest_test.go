package ingest

import (
	"strings"
	"testing"

	"github.com/guidesync/guidesync/pkg/m3u"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateFilename(t *testing.T) {
	assert.NoError(t, ValidateFilename("channels.m3u"))
	assert.NoError(t, ValidateFilename("channels.M3U8"))
	assert.ErrorIs(t, ValidateFilename("channels.txt"), ErrUnsupportedExtension)
	assert.ErrorIs(t, ValidateFilename("channels"), ErrUnsupportedExtension)
	assert.ErrorIs(t, ValidateFilename("channels.m3u.bak"), ErrUnsupportedExtension)
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "CNN", "cnn"},
		{"spaces", "BBC One", "bbc-one"},
		{"punctuation run", "Sky  --  Sports+", "sky-sports"},
		{"leading trailing", "  (HD) Movies!  ", "hd-movies"},
		{"digits kept", "Channel 4", "channel-4"},
		{"unicode stripped", "Télé 5", "t-l-5"},
		{"empty", "", "channel"},
		{"only symbols", "***", "channel"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestDecodeText(t *testing.T) {
	assert.Equal(t, "#EXTM3U", DecodeText([]byte("#EXTM3U")))

	// Invalid UTF-8 bytes are replaced instead of failing.
	got := DecodeText([]byte{'a', 0xff, 'b'})
	assert.Contains(t, got, "a")
	assert.Contains(t, got, "b")
	assert.True(t, strings.Contains(got, "�"))
}

func TestBuildPreviewsNameFallback(t *testing.T) {
	entries := []*m3u.Entry{
		{Title: "BBC One", TvgName: "ignored", URL: "http://s/1"},
		{TvgName: "CNN International", URL: "http://s/2"},
		{TvgID: "fox.us", URL: "http://s/3"},
		{URL: "http://s/4"},
	}
	previews := BuildPreviews(entries)
	require.Len(t, previews, 4)
	assert.Equal(t, "BBC One", previews[0].Name)
	assert.Equal(t, "CNN International", previews[1].Name)
	assert.Equal(t, "fox.us", previews[2].Name)
	assert.Equal(t, "Channel", previews[3].Name)
}

func TestBuildPreviewsIdentifiers(t *testing.T) {
	entries := []*m3u.Entry{
		{TvgID: "bbc1", Title: "BBC One", URL: "http://s/1"},
		{Title: "Sky Sports", URL: "http://s/2"},
	}
	previews := BuildPreviews(entries)
	require.Len(t, previews, 2)
	assert.Equal(t, "bbc1", previews[0].ID)
	assert.Equal(t, "sky-sports", previews[1].ID)
}

func TestBuildPreviewsCollisionSuffixes(t *testing.T) {
	entries := []*m3u.Entry{
		{Title: "CNN", URL: "http://s/1"},
		{Title: "CNN", URL: "http://s/2"},
		{Title: "CNN", URL: "http://s/3"},
	}
	previews := BuildPreviews(entries)
	require.Len(t, previews, 3)
	assert.Equal(t, "cnn", previews[0].ID)
	assert.Equal(t, "cnn-1", previews[1].ID)
	assert.Equal(t, "cnn-2", previews[2].ID)

	// Same input yields the same ids on every run.
	again := BuildPreviews(entries)
	assert.Equal(t, previews, again)
}

func TestBuildPreviewsSuffixAvoidsExplicitIDs(t *testing.T) {
	entries := []*m3u.Entry{
		{Title: "News", URL: "http://s/1"},
		{TvgID: "news-1", Title: "News", URL: "http://s/2"},
		{TvgID: "news-1", Title: "Other", URL: "http://s/3"},
		{Title: "News", URL: "http://s/4"},
	}
	previews := BuildPreviews(entries)
	require.Len(t, previews, 4)

	ids := make(map[string]bool)
	for _, p := range previews {
		assert.False(t, ids[p.ID], "duplicate id %q", p.ID)
		ids[p.ID] = true
	}
	assert.Equal(t, "news", previews[0].ID)
	assert.Equal(t, "news-1", previews[1].ID)
	assert.Equal(t, "news-1-1", previews[2].ID)
	assert.Equal(t, "news-2", previews[3].ID)
}

func TestChannelsFromPreviews(t *testing.T) {
	previews := []ChannelPreview{
		{ID: "bbc1", Name: "BBC One", Group: "UK", LogoURL: "http://l/1.png", StreamURL: "http://s/1"},
		{ID: "cnn", Name: "CNN", StreamURL: "http://s/2"},
	}

	all := ChannelsFromPreviews("tenant-a", previews, nil)
	require.Len(t, all, 2)
	assert.Equal(t, "tenant-a", all[0].TenantID)
	assert.Equal(t, "bbc1", all[0].Slug)
	assert.Equal(t, "UK", all[0].GroupTitle)
	assert.Equal(t, 0, all[0].OrderIndex)
	assert.Equal(t, 1, all[1].OrderIndex)

	// Selection keeps playlist order indexes stable.
	some := ChannelsFromPreviews("tenant-a", previews, []string{"cnn"})
	require.Len(t, some, 1)
	assert.Equal(t, "cnn", some[0].Slug)
	assert.Equal(t, 1, some[0].OrderIndex)
}
