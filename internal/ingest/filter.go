package ingest

import (
	"github.com/pawtrack/walks-backend-go/internal/config"
	"github.com/pawtrack/walks-backend-go/internal/models"
	"github.com/pawtrack/walks-backend-go/internal/spatial"
)

// FixFilter is the sole gate between the device location stream and the
// rest of the pipeline. It rejects fixes with unacceptable accuracy and
// implausible jumps, keeping only the previous accepted fix as state.
type FixFilter struct {
	cfg  config.FilterConfig
	prev *models.Fix
}

// NewFixFilter creates a filter with the given thresholds.
func NewFixFilter(cfg config.FilterConfig) *FixFilter {
	return &FixFilter{cfg: cfg}
}

// Accept applies the filter rules in order. It returns true when the fix is
// accepted; otherwise false plus the reject reason. Rejected fixes leave
// the filter state untouched.
func (f *FixFilter) Accept(fix models.Fix) (bool, string) {
	if fix.AccuracyM > f.cfg.AccuracyCeilingM {
		return false, models.RejectAccuracy
	}

	if f.prev != nil {
		dt := fix.TS.Sub(f.prev.TS).Seconds()
		if dt <= 0 {
			return false, models.RejectOutOfOrder
		}

		dist := spatial.HaversineDistance(f.prev.Lat, f.prev.Lon, fix.Lat, fix.Lon)
		// A long jump is only implausible when there was not enough time
		// to cover it at a fast but real pace. Genuinely quick movement
		// (a sprinting dog, a short car hop) passes.
		if dist > f.cfg.JumpCeilingM && dt < dist/f.cfg.MaxPlausibleSpeed {
			return false, models.RejectTeleport
		}
	}

	prev := fix
	f.prev = &prev
	return true, ""
}
