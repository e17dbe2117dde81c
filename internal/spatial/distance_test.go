package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineDistance(t *testing.T) {
	// Jakarta to Bandung is roughly 115-120 km
	d := HaversineDistance(-6.2, 106.816, -6.9175, 107.6191)
	assert.InDelta(t, 118000, d, 15000)

	// ~1.113m per 1e-5 degrees of latitude
	d = HaversineDistance(0, 0, 0.00001, 0)
	assert.InDelta(t, 1.113, d, 0.01)

	assert.Zero(t, HaversineDistance(45.0, 7.0, 45.0, 7.0))
}

func TestBearing(t *testing.T) {
	assert.InDelta(t, 0, Bearing(0, 0, 1, 0), 0.01)    // due north
	assert.InDelta(t, 90, Bearing(0, 0, 0, 1), 0.01)   // due east
	assert.InDelta(t, 180, Bearing(1, 0, 0, 0), 0.01)  // due south
	assert.InDelta(t, 270, Bearing(0, 1, 0, 0), 0.01)  // due west
}

func TestAngleDiffDeg(t *testing.T) {
	assert.Equal(t, 0.0, AngleDiffDeg(90, 90))
	assert.Equal(t, 90.0, AngleDiffDeg(0, 90))
	// wraps across north: 350 -> 10 is 20 degrees, not 340
	assert.Equal(t, 20.0, AngleDiffDeg(350, 10))
	assert.Equal(t, 180.0, AngleDiffDeg(0, 180))
}

func TestCentroid(t *testing.T) {
	lat, lon := Centroid([]float64{1, 2, 3}, []float64{10, 20, 30})
	assert.Equal(t, 2.0, lat)
	assert.Equal(t, 20.0, lon)

	lat, lon = Centroid(nil, nil)
	assert.Zero(t, lat)
	assert.Zero(t, lon)
}
