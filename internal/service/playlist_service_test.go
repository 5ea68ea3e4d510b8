package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/guidesync/guidesync/internal/ingest"
	"github.com/guidesync/guidesync/internal/testutil"
	"github.com/guidesync/guidesync/pkg/httpclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePlaylist = `#EXTM3U
#EXTINF:-1 tvg-id="bbc1" tvg-logo="http://img/bbc1.png" group-title="UK",BBC One
http://stream.example.com/bbc1.m3u8
#EXTINF:-1,CNN
http://stream.example.com/cnn.m3u8
`

func newPlaylistService(repos testRepos) *PlaylistService {
	client := httpclient.New(httpclient.Config{Timeout: 5 * time.Second})
	return NewPlaylistService(repos.channels, client)
}

func TestPlaylistService_Preview(t *testing.T) {
	repos := setupTestRepos(t)
	svc := newPlaylistService(repos)

	result, err := svc.Preview("channels.m3u", []byte(samplePlaylist))
	require.NoError(t, err)

	assert.Equal(t, 2, result.EntriesParsed)
	require.Len(t, result.Previews, 2)
	assert.Equal(t, "bbc1", result.Previews[0].ID)
	assert.Equal(t, "cnn", result.Previews[1].ID)
	assert.Equal(t, 0, result.Upserted)

	// Nothing persisted by a preview.
	count, err := repos.channels.CountByTenant(context.Background(), "t1")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestPlaylistService_PreviewRejectsExtension(t *testing.T) {
	svc := newPlaylistService(setupTestRepos(t))

	_, err := svc.Preview("channels.txt", []byte(samplePlaylist))
	assert.ErrorIs(t, err, ingest.ErrUnsupportedExtension)
}

func TestPlaylistService_Import(t *testing.T) {
	repos := setupTestRepos(t)
	svc := newPlaylistService(repos)
	ctx := context.Background()

	result, err := svc.Import(ctx, "t1", "channels.m3u8", []byte(samplePlaylist), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Upserted)

	channels, err := repos.channels.ListByTenant(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, channels, 2)
	assert.Equal(t, "bbc1", channels[0].Slug)
	assert.Equal(t, "UK", channels[0].GroupTitle)
	assert.Equal(t, "http://img/bbc1.png", channels[0].LogoURL)
}

func TestPlaylistService_ImportSelection(t *testing.T) {
	repos := setupTestRepos(t)
	svc := newPlaylistService(repos)
	ctx := context.Background()

	result, err := svc.Import(ctx, "t1", "channels.m3u", []byte(samplePlaylist), []string{"cnn"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Upserted)

	channels, err := repos.channels.ListByTenant(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, channels, 1)
	assert.Equal(t, "cnn", channels[0].Slug)
}

func TestPlaylistService_ImportBulk(t *testing.T) {
	repos := setupTestRepos(t)
	svc := newPlaylistService(repos)
	ctx := context.Background()

	result, err := svc.Import(ctx, "t1", "bulk.m3u", []byte(testutil.SamplePlaylist(20)), nil)
	require.NoError(t, err)
	assert.Equal(t, 20, result.EntriesParsed)
	assert.Equal(t, 20, result.Upserted)

	channels, err := repos.channels.ListByTenant(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, channels, 20)

	// Playlist order is preserved in the catalog.
	for i, ch := range channels {
		assert.Equal(t, testutil.ChannelName(i), ch.Name)
		assert.Equal(t, i, ch.OrderIndex)
	}
}

func TestPlaylistService_ImportURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(samplePlaylist))
	}))
	defer server.Close()

	repos := setupTestRepos(t)
	svc := newPlaylistService(repos)
	ctx := context.Background()

	result, err := svc.ImportURL(ctx, "t1", server.URL+"/get.php?type=m3u", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Upserted)
}

func TestPlaylistService_ImportURLFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer server.Close()

	svc := newPlaylistService(setupTestRepos(t))
	_, err := svc.ImportURL(context.Background(), "t1", server.URL, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
}
