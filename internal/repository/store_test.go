package repository

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawtrack/walks-backend-go/internal/database"
	"github.com/pawtrack/walks-backend-go/internal/models"
)

var t0 = time.Date(2026, 5, 12, 9, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "walks.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db)
}

func testWalk() models.Walk {
	return models.Walk{
		ID:        uuid.NewString(),
		UserID:    "user-1",
		DogIDs:    []string{"dog-1", "dog-2"},
		StartedAt: t0,
	}
}

func testPoint(walkID string, seq int64, ts time.Time) models.TrackPoint {
	speed := 0.8
	return models.TrackPoint{
		ID:        uuid.NewString(),
		WalkID:    walkID,
		Lat:       45.07,
		Lon:       7.68,
		TS:        ts,
		AccuracyM: 8,
		SpeedMPS:  &speed,
		Seq:       seq,
	}
}

func testEvent(walkID string, start time.Time) models.StopEvent {
	return models.StopEvent{
		ID:         uuid.NewString(),
		WalkID:     walkID,
		TsStart:    start,
		TsEnd:      start.Add(8 * time.Second),
		Lat:        45.07,
		Lon:        7.68,
		RadiusM:    3.1,
		Label:      models.LabelSniff,
		Confidence: 0.8,
		Score:      0.25,
		Provenance: models.ProvenanceAuto,
	}
}

func TestPutWalkEnqueuesAndRoundTrips(t *testing.T) {
	s := newTestStore(t)
	walk := testWalk()

	require.NoError(t, s.PutWalk(walk))

	got, err := s.Walks.Get(walk.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, walk.UserID, got.UserID)
	assert.Equal(t, walk.DogIDs, got.DogIDs)
	assert.True(t, walk.StartedAt.Equal(got.StartedAt))
	assert.Nil(t, got.EndedAt)
	assert.False(t, got.Synced)

	counts, err := s.Queue.PendingCounts()
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[models.EntityWalk])
}

func TestGetMissingWalk(t *testing.T) {
	s := newTestStore(t)
	got, err := s.Walks.Get("nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPointOrderingBreaksTiesByInsertion(t *testing.T) {
	s := newTestStore(t)
	walk := testWalk()
	require.NoError(t, s.PutWalk(walk))

	// two points share a timestamp; seq must keep them in arrival order
	p0 := testPoint(walk.ID, 0, t0)
	p1 := testPoint(walk.ID, 1, t0.Add(time.Second))
	p2 := testPoint(walk.ID, 2, t0.Add(time.Second))
	require.NoError(t, s.PutTrackPoints([]models.TrackPoint{p2, p0, p1}))

	points, err := s.Points.ListByWalk(walk.ID)
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, p0.ID, points[0].ID)
	assert.Equal(t, p1.ID, points[1].ID)
	assert.Equal(t, p2.ID, points[2].ID)
	require.NotNil(t, points[0].SpeedMPS)
	assert.Equal(t, 0.8, *points[0].SpeedMPS)
}

func TestMarkSyncedFlipsAndDequeues(t *testing.T) {
	s := newTestStore(t)
	walk := testWalk()
	require.NoError(t, s.PutWalk(walk))
	p := testPoint(walk.ID, 0, t0)
	require.NoError(t, s.PutTrackPoints([]models.TrackPoint{p}))

	require.NoError(t, s.Queue.MarkSynced(models.EntityWalk, []string{walk.ID}))
	require.NoError(t, s.Queue.MarkSynced(models.EntityTrackPoint, []string{p.ID}))

	got, err := s.Walks.Get(walk.ID)
	require.NoError(t, err)
	assert.True(t, got.Synced)

	counts, err := s.Queue.PendingCounts()
	require.NoError(t, err)
	assert.Empty(t, counts)

	unsynced, err := s.Queue.ListUnsyncedPoints(100, 0)
	require.NoError(t, err)
	assert.Empty(t, unsynced)
}

func TestDeleteWalkCascades(t *testing.T) {
	s := newTestStore(t)
	walk := testWalk()
	require.NoError(t, s.PutWalk(walk))
	require.NoError(t, s.PutTrackPoints([]models.TrackPoint{testPoint(walk.ID, 0, t0)}))
	require.NoError(t, s.PutStopEvents([]models.StopEvent{testEvent(walk.ID, t0)}))

	require.NoError(t, s.Walks.Delete(walk.ID))

	points, err := s.Points.ListByWalk(walk.ID)
	require.NoError(t, err)
	assert.Empty(t, points)

	events, err := s.Events.ListByWalk(walk.ID)
	require.NoError(t, err)
	assert.Empty(t, events)

	// no orphaned queue rows either
	counts, err := s.Queue.PendingCounts()
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestUpdateLabelMakesEventUserOwned(t *testing.T) {
	s := newTestStore(t)
	walk := testWalk()
	require.NoError(t, s.PutWalk(walk))
	ev := testEvent(walk.ID, t0)
	require.NoError(t, s.PutStopEvents([]models.StopEvent{ev}))
	require.NoError(t, s.Queue.MarkSynced(models.EntityStopEvent, []string{ev.ID}))

	require.NoError(t, s.Events.UpdateLabel(ev.ID, models.LabelPee))

	got, err := s.Events.Get(ev.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LabelPee, got.Label)
	assert.Equal(t, models.ProvenanceUser, got.Provenance)
	assert.Equal(t, 1.0, got.Confidence)
	assert.False(t, got.Synced) // relabeling goes back on the queue

	assert.Error(t, s.Events.UpdateLabel("missing", models.LabelPee))
}

func TestReplaceAutoPreservesUserEvents(t *testing.T) {
	s := newTestStore(t)
	walk := testWalk()
	require.NoError(t, s.PutWalk(walk))

	auto := testEvent(walk.ID, t0)
	edited := testEvent(walk.ID, t0.Add(time.Minute))
	require.NoError(t, s.PutStopEvents([]models.StopEvent{auto, edited}))
	require.NoError(t, s.Events.UpdateLabel(edited.ID, models.LabelPoop))

	replacement := testEvent(walk.ID, t0.Add(2*time.Minute))
	require.NoError(t, s.Events.ReplaceAuto(walk.ID, []models.StopEvent{replacement}))

	events, err := s.Events.ListByWalk(walk.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)

	byID := map[string]models.StopEvent{}
	for _, e := range events {
		byID[e.ID] = e
	}
	assert.NotContains(t, byID, auto.ID)
	assert.Contains(t, byID, replacement.ID)

	// the user-edited event survived verbatim
	survivor, ok := byID[edited.ID]
	require.True(t, ok)
	assert.Equal(t, models.LabelPoop, survivor.Label)
	assert.Equal(t, models.ProvenanceUser, survivor.Provenance)
	assert.Equal(t, 1.0, survivor.Confidence)

	// the dropped auto event left no queue row behind
	counts, err := s.Queue.PendingCounts()
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[models.EntityStopEvent])
}

func TestUpdateDerivedRequeuesWalk(t *testing.T) {
	s := newTestStore(t)
	walk := testWalk()
	require.NoError(t, s.PutWalk(walk))
	require.NoError(t, s.Queue.MarkSynced(models.EntityWalk, []string{walk.ID}))

	endedAt := t0.Add(20 * time.Minute)
	require.NoError(t, s.UpdateWalkDerived(walk.ID, &endedAt, 1423.5, 1200, 95))

	got, err := s.Walks.Get(walk.ID)
	require.NoError(t, err)
	require.NotNil(t, got.EndedAt)
	assert.True(t, endedAt.Equal(*got.EndedAt))
	assert.Equal(t, 1423.5, got.DistanceM)
	assert.Equal(t, 1200.0, got.DurationS)
	assert.Equal(t, 95.0, got.SniffTimeS)
	assert.False(t, got.Synced)

	assert.Error(t, s.UpdateWalkDerived("missing", nil, 0, 0, 0))
}
