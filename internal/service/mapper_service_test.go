package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/guidesync/guidesync/internal/config"
	"github.com/guidesync/guidesync/internal/fetchcache"
	"github.com/guidesync/guidesync/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMapperService(t *testing.T, repos testRepos) *MapperService {
	t.Helper()

	fetcher := fetchcache.New(fetchcache.Config{
		Dir:     t.TempDir(),
		Timeout: 5 * time.Second,
	})
	return NewMapperService(
		repos.sources, repos.channels, fetcher,
		config.ReconcileConfig{SyncThreshold: 0.8, AutoMapThreshold: 0.6},
		"en",
	)
}

func TestMapperService_AutoMapProposesWithoutPersisting(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleFeed))
	}))
	defer server.Close()

	repos := setupTestRepos(t)
	ctx := context.Background()
	source := createSource(t, repos, server.URL)

	require.NoError(t, repos.channels.UpsertBatch(ctx, []*models.Channel{
		{TenantID: "t1", Slug: "bbc-one", Name: "BBC One", StreamURL: "http://s/1"},
		{TenantID: "t1", Slug: "local", Name: "Local Access TV", StreamURL: "http://s/2"},
	}))

	svc := newMapperService(t, repos)
	proposals, err := svc.AutoMap(ctx, "t1", source.ID)
	require.NoError(t, err)

	require.Len(t, proposals, 1)
	assert.Equal(t, "bbc1", proposals[0].EpgID)
	assert.Equal(t, "BBC One", proposals[0].ChannelName)
	assert.InDelta(t, 1.0, proposals[0].Score, 0.001)

	// Proposals alone change nothing.
	unmapped, err := repos.channels.ListUnmapped(ctx, "t1")
	require.NoError(t, err)
	assert.Len(t, unmapped, 2)

	// Apply commits them.
	applied, err := svc.Apply(ctx, "t1", proposals)
	require.NoError(t, err)
	assert.Equal(t, 1, applied)

	unmapped, err = repos.channels.ListUnmapped(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, unmapped, 1)
	assert.Equal(t, "local", unmapped[0].Slug)
}

func TestMapperService_SetMapping(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()

	channel := &models.Channel{TenantID: "t1", Slug: "cnn", Name: "CNN", StreamURL: "http://s/1"}
	require.NoError(t, repos.channels.Create(ctx, channel))

	svc := newMapperService(t, repos)

	require.NoError(t, svc.SetMapping(ctx, "t1", channel.ID, "cnn.us"))
	got, err := repos.channels.GetByID(ctx, channel.ID)
	require.NoError(t, err)
	assert.Equal(t, "cnn.us", got.EpgID)

	// Clearing unmaps.
	require.NoError(t, svc.SetMapping(ctx, "t1", channel.ID, ""))
	unmapped, err := repos.channels.ListUnmapped(ctx, "t1")
	require.NoError(t, err)
	assert.Len(t, unmapped, 1)
}

func TestMapperService_SetMappingWrongTenant(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()

	channel := &models.Channel{TenantID: "t1", Slug: "cnn", Name: "CNN", StreamURL: "http://s/1"}
	require.NoError(t, repos.channels.Create(ctx, channel))

	svc := newMapperService(t, repos)
	err := svc.SetMapping(ctx, "other-tenant", channel.ID, "cnn.us")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
