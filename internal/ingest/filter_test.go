package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pawtrack/walks-backend-go/internal/config"
	"github.com/pawtrack/walks-backend-go/internal/models"
)

var t0 = time.Date(2026, 5, 12, 9, 0, 0, 0, time.UTC)

func fixAt(lat, lon float64, ts time.Time, accuracy float64) models.Fix {
	return models.Fix{Lat: lat, Lon: lon, AccuracyM: accuracy, TS: ts}
}

func TestFilterRejectsLowAccuracy(t *testing.T) {
	f := NewFixFilter(config.DefaultFilterConfig())

	ok, reason := f.Accept(fixAt(45.0, 7.0, t0, 55))
	assert.False(t, ok)
	assert.Equal(t, models.RejectAccuracy, reason)

	// the rejected fix must not have become "previous": this one is fine
	ok, _ = f.Accept(fixAt(45.0, 7.0, t0.Add(time.Second), 10))
	assert.True(t, ok)
}

func TestFilterRejectsTeleport(t *testing.T) {
	f := NewFixFilter(config.DefaultFilterConfig())

	ok, _ := f.Accept(fixAt(45.0, 7.0, t0, 10))
	assert.True(t, ok)

	// ~150m north, 2s later: 75 m/s is not a walking dog
	ok, reason := f.Accept(fixAt(45.0+150.0/111320.0, 7.0, t0.Add(2*time.Second), 10))
	assert.False(t, ok)
	assert.Equal(t, models.RejectTeleport, reason)
}

func TestFilterAcceptsFastButPlausible(t *testing.T) {
	f := NewFixFilter(config.DefaultFilterConfig())

	ok, _ := f.Accept(fixAt(45.0, 7.0, t0, 10))
	assert.True(t, ok)

	// ~150m in 30s is a brisk 5 m/s: long jump, but there was time for it
	ok, reason := f.Accept(fixAt(45.0+150.0/111320.0, 7.0, t0.Add(30*time.Second), 10))
	assert.True(t, ok, reason)
}

func TestFilterRejectsOutOfOrder(t *testing.T) {
	f := NewFixFilter(config.DefaultFilterConfig())

	ok, _ := f.Accept(fixAt(45.0, 7.0, t0, 10))
	assert.True(t, ok)

	ok, reason := f.Accept(fixAt(45.0, 7.0, t0.Add(-time.Second), 10))
	assert.False(t, ok)
	assert.Equal(t, models.RejectOutOfOrder, reason)
}

func TestFilterKeepsShortSteps(t *testing.T) {
	f := NewFixFilter(config.DefaultFilterConfig())

	ts := t0
	lat := 45.0
	for i := 0; i < 10; i++ {
		ok, reason := f.Accept(fixAt(lat, 7.0, ts, 8))
		assert.True(t, ok, reason)
		lat += 1.0 / 111320.0 // ~1m steps
		ts = ts.Add(time.Second)
	}
}
