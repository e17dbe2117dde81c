package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawtrack/walks-backend-go/internal/models"
)

var t0 = time.Date(2026, 5, 12, 9, 0, 0, 0, time.UTC)

func TestWriteGPX(t *testing.T) {
	walk := &models.Walk{ID: "walk-1", StartedAt: t0}
	points := []models.TrackPoint{
		{ID: "p1", WalkID: walk.ID, Lat: 45.0703, Lon: 7.6869, TS: t0},
		{ID: "p2", WalkID: walk.ID, Lat: 45.0704, Lon: 7.6870, TS: t0.Add(5 * time.Second)},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteGPX(&buf, walk, points))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "<?xml"))
	assert.Contains(t, out, `<gpx version="1.1"`)
	assert.Contains(t, out, `xmlns="http://www.topografix.com/GPX/1/1"`)
	assert.Contains(t, out, `lat="45.0703"`)
	assert.Contains(t, out, `lon="7.687"`)
	assert.Contains(t, out, "<time>2026-05-12T09:00:00Z</time>")
	assert.Equal(t, 2, strings.Count(out, "<trkpt"))
}

func TestWriteGPXEmptyTrack(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteGPX(&buf, &models.Walk{StartedAt: t0}, nil))
	assert.Contains(t, buf.String(), "<trkseg>")
}

func TestBundleRoundTrip(t *testing.T) {
	speed := 1.2
	ended := t0.Add(30 * time.Minute)
	bundle := &Bundle{
		Walks: []models.Walk{{
			ID:        "walk-1",
			UserID:    "user-1",
			DogIDs:    []string{"dog-1"},
			StartedAt: t0,
			EndedAt:   &ended,
			DistanceM: 1834.2,
			DurationS: 1800,
		}},
		TrackPoints: []models.TrackPoint{{
			ID:        "p1",
			WalkID:    "walk-1",
			Lat:       45.07,
			Lon:       7.68,
			TS:        t0,
			AccuracyM: 8,
			SpeedMPS:  &speed,
		}},
		StopEvents: []models.StopEvent{{
			ID:         "e1",
			WalkID:     "walk-1",
			TsStart:    t0.Add(time.Minute),
			TsEnd:      t0.Add(70 * time.Second),
			Lat:        45.07,
			Lon:        7.68,
			RadiusM:    2.4,
			Label:      models.LabelSniff,
			Confidence: 0.8,
			Score:      0.22,
			Provenance: models.ProvenanceAuto,
		}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, bundle))

	got, err := ReadJSON(&buf)
	require.NoError(t, err)
	require.Len(t, got.Walks, 1)
	assert.Equal(t, bundle.Walks[0].ID, got.Walks[0].ID)
	assert.True(t, bundle.Walks[0].StartedAt.Equal(got.Walks[0].StartedAt))
	require.NotNil(t, got.Walks[0].EndedAt)
	assert.True(t, ended.Equal(*got.Walks[0].EndedAt))

	require.Len(t, got.TrackPoints, 1)
	require.NotNil(t, got.TrackPoints[0].SpeedMPS)
	assert.Equal(t, speed, *got.TrackPoints[0].SpeedMPS)

	require.Len(t, got.StopEvents, 1)
	assert.Equal(t, bundle.StopEvents[0].Label, got.StopEvents[0].Label)
	assert.Equal(t, bundle.StopEvents[0].Provenance, got.StopEvents[0].Provenance)
}

func TestReadJSONRejectsGarbage(t *testing.T) {
	_, err := ReadJSON(strings.NewReader("not json"))
	assert.Error(t, err)
}
