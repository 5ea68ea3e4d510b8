package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/guidesync/guidesync/internal/models"
	"github.com/guidesync/guidesync/internal/service"
	"github.com/stretchr/testify/assert"
)

type fakeLister struct {
	sources []*models.EpgSource
	err     error
}

func (f *fakeLister) ListEnabled(ctx context.Context) ([]*models.EpgSource, error) {
	return f.sources, f.err
}

type fakeSyncer struct {
	mu      sync.Mutex
	calls   []service.SyncRequest
	failFor map[string]error
	block   chan struct{}
}

func (f *fakeSyncer) Sync(ctx context.Context, req service.SyncRequest) (*service.SyncResult, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	if err := f.failFor[req.SourceID.String()]; err != nil {
		return nil, err
	}
	return &service.SyncResult{}, nil
}

func enabledSource(name string) *models.EpgSource {
	return &models.EpgSource{
		BaseModel: models.BaseModel{ID: models.NewULID()},
		Name:      name,
		URL:       "http://feeds.example.com/" + name + ".xml",
	}
}

func TestScheduler_RunAllSyncsEachSource(t *testing.T) {
	a, b := enabledSource("a"), enabledSource("b")
	syncer := &fakeSyncer{}
	s := New(&fakeLister{sources: []*models.EpgSource{a, b}}, syncer, "t1", nil)

	s.RunAll(context.Background())

	assert.Len(t, syncer.calls, 2)
	assert.Equal(t, a.ID, syncer.calls[0].SourceID)
	assert.Equal(t, b.ID, syncer.calls[1].SourceID)
	assert.Equal(t, "t1", syncer.calls[0].TenantID)
}

func TestScheduler_RunAllContinuesPastFailures(t *testing.T) {
	a, b := enabledSource("a"), enabledSource("b")
	syncer := &fakeSyncer{failFor: map[string]error{
		a.ID.String(): errors.New("feed gone"),
	}}
	s := New(&fakeLister{sources: []*models.EpgSource{a, b}}, syncer, "t1", nil)

	s.RunAll(context.Background())

	// The second source still syncs after the first fails.
	assert.Len(t, syncer.calls, 2)
}

func TestScheduler_OverlappingPassesCollapse(t *testing.T) {
	a := enabledSource("a")
	syncer := &fakeSyncer{block: make(chan struct{})}
	s := New(&fakeLister{sources: []*models.EpgSource{a}}, syncer, "t1", nil)

	done := make(chan struct{})
	go func() {
		s.RunAll(context.Background())
		close(done)
	}()

	// Wait until the first pass holds the running flag.
	for {
		s.mu.Lock()
		running := s.running
		s.mu.Unlock()
		if running {
			break
		}
	}

	// A second trigger while the first is blocked is a no-op.
	s.RunAll(context.Background())

	close(syncer.block)
	<-done

	assert.Len(t, syncer.calls, 1)
}

func TestScheduler_StartRejectsBadSpec(t *testing.T) {
	s := New(&fakeLister{}, &fakeSyncer{}, "t1", nil)
	err := s.Start("not a cron spec")
	assert.Error(t, err)
}
