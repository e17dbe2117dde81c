package syncer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawtrack/walks-backend-go/internal/config"
	"github.com/pawtrack/walks-backend-go/internal/database"
	"github.com/pawtrack/walks-backend-go/internal/metrics"
	"github.com/pawtrack/walks-backend-go/internal/models"
	"github.com/pawtrack/walks-backend-go/internal/repository"
)

var t0 = time.Date(2026, 5, 12, 9, 0, 0, 0, time.UTC)

// fakeRemote records every upsert in arrival order and can be told to
// fail batches containing specific ids.
type fakeRemote struct {
	order   []string // "walk:<id>", "points:<n>", "events:<n>"
	walkIDs []string
	points  map[string]int // point id -> times received
	events  map[string]int
	failIDs map[string]bool
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		points:  map[string]int{},
		events:  map[string]int{},
		failIDs: map[string]bool{},
	}
}

func (f *fakeRemote) UpsertWalk(_ context.Context, walk models.Walk) error {
	if f.failIDs[walk.ID] {
		return errors.New("remote unavailable")
	}
	f.order = append(f.order, "walk:"+walk.ID)
	f.walkIDs = append(f.walkIDs, walk.ID)
	return nil
}

func (f *fakeRemote) UpsertTrackPoints(_ context.Context, points []models.TrackPoint) error {
	for _, p := range points {
		if f.failIDs[p.ID] {
			return errors.New("remote unavailable")
		}
	}
	for _, p := range points {
		f.points[p.ID]++
	}
	f.order = append(f.order, fmt.Sprintf("points:%d", len(points)))
	return nil
}

func (f *fakeRemote) UpsertStopEvents(_ context.Context, events []models.StopEvent) error {
	for _, ev := range events {
		if f.failIDs[ev.ID] {
			return errors.New("remote unavailable")
		}
	}
	for _, ev := range events {
		f.events[ev.ID]++
	}
	f.order = append(f.order, fmt.Sprintf("events:%d", len(events)))
	return nil
}

func newTestEngine(t *testing.T, remote RemoteSync, batchSize int) (*Engine, *repository.Store) {
	t.Helper()
	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "walks.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := repository.NewStore(db)
	cfg := config.DefaultSyncConfig()
	cfg.BatchSize = batchSize
	m := metrics.New(prometheus.NewRegistry())
	return NewEngine(cfg, store.Queue, remote, m), store
}

func seedWalk(t *testing.T, store *repository.Store, nPoints, nEvents int) models.Walk {
	t.Helper()
	walk := models.Walk{
		ID:        uuid.NewString(),
		UserID:    "user-1",
		DogIDs:    []string{"dog-1"},
		StartedAt: t0,
	}
	require.NoError(t, store.PutWalk(walk))

	points := make([]models.TrackPoint, nPoints)
	for i := range points {
		points[i] = models.TrackPoint{
			ID:        uuid.NewString(),
			WalkID:    walk.ID,
			Lat:       45.07,
			Lon:       7.68,
			TS:        t0.Add(time.Duration(i) * 5 * time.Second),
			AccuracyM: 8,
			Seq:       int64(i),
		}
	}
	require.NoError(t, store.PutTrackPoints(points))

	events := make([]models.StopEvent, nEvents)
	for i := range events {
		start := t0.Add(time.Duration(i) * time.Minute)
		events[i] = models.StopEvent{
			ID:         uuid.NewString(),
			WalkID:     walk.ID,
			TsStart:    start,
			TsEnd:      start.Add(10 * time.Second),
			Lat:        45.07,
			Lon:        7.68,
			RadiusM:    2.5,
			Label:      models.LabelSniff,
			Confidence: 0.8,
			Score:      0.2,
			Provenance: models.ProvenanceAuto,
		}
	}
	require.NoError(t, store.PutStopEvents(events))
	return walk
}

func TestDrainUploadsEverythingInDependencyOrder(t *testing.T) {
	remote := newFakeRemote()
	engine, store := newTestEngine(t, remote, 100)
	walk := seedWalk(t, store, 5, 2)

	failed := engine.drain(context.Background())
	assert.False(t, failed)

	// walk first, then one points batch, then one events batch
	require.Len(t, remote.order, 3)
	assert.Equal(t, "walk:"+walk.ID, remote.order[0])
	assert.Equal(t, "points:5", remote.order[1])
	assert.Equal(t, "events:2", remote.order[2])

	counts, err := store.Queue.PendingCounts()
	require.NoError(t, err)
	assert.Empty(t, counts)

	got, err := store.Walks.Get(walk.ID)
	require.NoError(t, err)
	assert.True(t, got.Synced)
}

func TestDrainSplitsLargeBatches(t *testing.T) {
	remote := newFakeRemote()
	engine, store := newTestEngine(t, remote, 3)
	seedWalk(t, store, 7, 0)

	failed := engine.drain(context.Background())
	assert.False(t, failed)

	// 7 points with batch size 3: batches of 3, 3, 1
	assert.Equal(t, []string{"points:3", "points:3", "points:1"}, remote.order[1:])
	assert.Len(t, remote.points, 7)
}

func TestFailedBatchIsIsolated(t *testing.T) {
	remote := newFakeRemote()
	engine, store := newTestEngine(t, remote, 2)
	seedWalk(t, store, 6, 0)

	points, err := store.Points.ListByWalk(walkID(t, store))
	require.NoError(t, err)
	require.Len(t, points, 6)

	// poison the second batch only
	remote.failIDs[points[2].ID] = true

	failed := engine.drain(context.Background())
	assert.True(t, failed)

	// batches 1 and 3 landed; batch 2 stayed queued
	assert.Len(t, remote.points, 4)
	counts, err := store.Queue.PendingCounts()
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[models.EntityTrackPoint])

	// recovery pass ships the rest
	remote.failIDs = map[string]bool{}
	failed = engine.drain(context.Background())
	assert.False(t, failed)
	assert.Len(t, remote.points, 6)

	counts, err = store.Queue.PendingCounts()
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestWalkFailureDoesNotBlockOtherWalks(t *testing.T) {
	remote := newFakeRemote()
	engine, store := newTestEngine(t, remote, 100)
	w1 := seedWalk(t, store, 0, 0)
	w2 := seedWalk(t, store, 0, 0)
	remote.failIDs[w1.ID] = true

	failed := engine.drain(context.Background())
	assert.True(t, failed)
	assert.Equal(t, []string{w2.ID}, remote.walkIDs)

	counts, err := store.Queue.PendingCounts()
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[models.EntityWalk])
}

func TestReplayedUpsertsStayIdempotent(t *testing.T) {
	remote := newFakeRemote()
	engine, store := newTestEngine(t, remote, 100)
	seedWalk(t, store, 3, 1)

	require.False(t, engine.drain(context.Background()))
	// a second pass over an empty queue sends nothing
	require.False(t, engine.drain(context.Background()))

	for id, n := range remote.points {
		assert.Equal(t, 1, n, "point %s uploaded more than once", id)
	}
	for id, n := range remote.events {
		assert.Equal(t, 1, n, "event %s uploaded more than once", id)
	}
	assert.Len(t, remote.walkIDs, 1)
}

func TestTriggerCoalesces(t *testing.T) {
	remote := newFakeRemote()
	engine, _ := newTestEngine(t, remote, 100)

	// many triggers against a stopped loop collapse into one pending signal
	for i := 0; i < 10; i++ {
		engine.Trigger()
	}
	assert.Len(t, engine.trigger, 1)
}

func TestStartStopDrainsOnTrigger(t *testing.T) {
	remote := newFakeRemote()
	engine, store := newTestEngine(t, remote, 100)
	walk := seedWalk(t, store, 2, 0)

	engine.Start(context.Background())
	engine.Trigger()

	require.Eventually(t, func() bool {
		got, err := store.Walks.Get(walk.ID)
		return err == nil && got.Synced
	}, 5*time.Second, 10*time.Millisecond)

	engine.Stop()
	assert.Contains(t, remote.order, "walk:"+walk.ID)
}

// walkID returns the id of the only walk in the store.
func walkID(t *testing.T, store *repository.Store) string {
	t.Helper()
	walks, _, err := store.Walks.List(models.WalkFilter{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, walks, 1)
	return walks[0].ID
}
