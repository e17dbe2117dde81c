package ingest

import (
	"github.com/google/uuid"

	"github.com/pawtrack/walks-backend-go/internal/config"
	"github.com/pawtrack/walks-backend-go/internal/models"
	"github.com/pawtrack/walks-backend-go/internal/spatial"
)

// TrackBuilder turns accepted fixes into ordered track points for one walk
// and maintains the running distance. Building a point and committing it
// are separate steps so the cumulative distance only advances after the
// point was durably written.
type TrackBuilder struct {
	cfg    config.FilterConfig
	walkID string

	last      *models.TrackPoint
	distanceM float64
	seq       int64
}

// NewTrackBuilder creates a builder for the given walk.
func NewTrackBuilder(walkID string, cfg config.FilterConfig) *TrackBuilder {
	return &TrackBuilder{cfg: cfg, walkID: walkID}
}

// Next materializes the accepted fix as the walk's next track point. The
// builder's own state does not change until Commit.
func (b *TrackBuilder) Next(fix models.Fix) models.TrackPoint {
	return models.TrackPoint{
		ID:        uuid.NewString(),
		WalkID:    b.walkID,
		Lat:       fix.Lat,
		Lon:       fix.Lon,
		TS:        fix.TS,
		AccuracyM: fix.AccuracyM,
		SpeedMPS:  fix.SpeedMPS,
		Seq:       b.seq,
	}
}

// Commit records a durably written point. The haversine increment from the
// previous point is added to the running distance only when it is within
// the jump ceiling and large enough not to be stationary GPS jitter.
func (b *TrackBuilder) Commit(p models.TrackPoint) {
	if b.last != nil {
		inc := spatial.HaversineDistance(b.last.Lat, b.last.Lon, p.Lat, p.Lon)
		if inc <= b.cfg.JumpCeilingM && inc > b.cfg.MinMovementM {
			b.distanceM += inc
		}
	}
	last := p
	b.last = &last
	b.seq = p.Seq + 1
}

// DistanceM returns the cumulative walk distance in meters.
func (b *TrackBuilder) DistanceM() float64 {
	return b.distanceM
}

// PointCount returns how many points have been committed.
func (b *TrackBuilder) PointCount() int64 {
	return b.seq
}
