package segment

import (
	"github.com/google/uuid"

	"github.com/pawtrack/walks-backend-go/internal/config"
	"github.com/pawtrack/walks-backend-go/internal/models"
	"github.com/pawtrack/walks-backend-go/internal/spatial"
)

// Segmenter detects stop events in a stream of accepted track points using
// a two-state machine: while successive points stay at or below the stop
// speed they accumulate into a run; the first faster point closes the run,
// which is then evaluated and either emitted as a StopEvent or discarded.
//
// The segmenter is a pure function of the point sequence plus thresholds.
// It never looks at previously persisted events; preserving user-edited
// events on re-runs is the persistence layer's job.
type Segmenter struct {
	cfg  config.SegmenterConfig
	run  []models.TrackPoint
	prev *models.TrackPoint
}

// New creates a segmenter with the given thresholds.
func New(cfg config.SegmenterConfig) *Segmenter {
	return &Segmenter{cfg: cfg}
}

// Feed consumes the next point in stream order. It returns a StopEvent when
// this point closes a qualifying run, nil otherwise.
func (s *Segmenter) Feed(p models.TrackPoint) *models.StopEvent {
	speed := s.pointSpeed(p)
	prev := p
	s.prev = &prev

	if speed <= s.cfg.MaxStopSpeedMPS {
		s.run = append(s.run, p)
		return nil
	}

	return s.closeRun()
}

// Flush closes any open run at end of stream, so a stop still active when
// the walk ends is not lost.
func (s *Segmenter) Flush() *models.StopEvent {
	s.prev = nil
	return s.closeRun()
}

// Run evaluates a complete point sequence in one pass (batch mode, used
// when re-deriving events for an already recorded walk).
func Run(cfg config.SegmenterConfig, points []models.TrackPoint) []models.StopEvent {
	s := New(cfg)
	var events []models.StopEvent
	for _, p := range points {
		if ev := s.Feed(p); ev != nil {
			events = append(events, *ev)
		}
	}
	if ev := s.Flush(); ev != nil {
		events = append(events, *ev)
	}
	return events
}

// pointSpeed returns the device-reported speed, or estimates it from the
// distance and elapsed time since the previous point when absent.
func (s *Segmenter) pointSpeed(p models.TrackPoint) float64 {
	if p.SpeedMPS != nil {
		return *p.SpeedMPS
	}
	if s.prev == nil {
		return 0
	}
	dt := p.TS.Sub(s.prev.TS).Seconds()
	if dt <= 0 {
		return 0
	}
	return spatial.HaversineDistance(s.prev.Lat, s.prev.Lon, p.Lat, p.Lon) / dt
}

// closeRun evaluates and clears the open run, if any.
func (s *Segmenter) closeRun() *models.StopEvent {
	if len(s.run) == 0 {
		return nil
	}
	run := s.run
	s.run = nil
	return s.evaluate(run)
}

// evaluate turns a closed run into a StopEvent, or nil when the run is too
// short to qualify.
func (s *Segmenter) evaluate(run []models.TrackPoint) *models.StopEvent {
	first := run[0]
	last := run[len(run)-1]

	durationS := last.TS.Sub(first.TS).Seconds()
	if durationS < s.cfg.MinStopDurationS || len(run) < s.cfg.MinPointsForStop {
		return nil
	}

	lats := make([]float64, len(run))
	lons := make([]float64, len(run))
	for i, p := range run {
		lats[i] = p.Lat
		lons[i] = p.Lon
	}
	centLat, centLon := spatial.Centroid(lats, lons)

	radiusM := 2.0
	for _, p := range run {
		if d := spatial.HaversineDistance(centLat, centLon, p.Lat, p.Lon); d > radiusM {
			radiusM = d
		}
	}

	jitter := headingJitter(run)

	var speedSum float64
	for _, p := range run {
		if p.SpeedMPS != nil {
			speedSum += *p.SpeedMPS
		}
	}
	avgSpeed := speedSum / float64(len(run))

	label, confidence := s.classify(durationS, avgSpeed, jitter)

	return &models.StopEvent{
		ID:         uuid.NewString(),
		WalkID:     first.WalkID,
		TsStart:    first.TS,
		TsEnd:      last.TS,
		Lat:        centLat,
		Lon:        centLon,
		RadiusM:    radiusM,
		Label:      label,
		Confidence: confidence,
		Score:      (durationS / 60) * (1 + jitter/90),
		Provenance: models.ProvenanceAuto,
	}
}

// classify labels a qualifying run. The jitter check runs before the wait
// check: when both would match, erratic slow movement reads as sniffing.
func (s *Segmenter) classify(durationS, avgSpeed, jitter float64) (string, float64) {
	if jitter > s.cfg.HighJitterDeg && avgSpeed < s.cfg.MaxStopSpeedMPS {
		confidence := 0.5 + jitter/100
		if confidence > 0.9 {
			confidence = 0.9
		}
		return models.LabelSniff, confidence
	}
	if avgSpeed < s.cfg.WaitMaxSpeedMPS && durationS > s.cfg.WaitMinDurationS {
		return models.LabelWait, 0.7
	}
	return models.LabelSniff, 0.5
}

// headingJitter is the mean absolute smallest-angle bearing change across
// consecutive point triples, in degrees. Zero for runs of fewer than three
// points.
func headingJitter(run []models.TrackPoint) float64 {
	if len(run) < 3 {
		return 0
	}
	var sum float64
	for i := 1; i < len(run)-1; i++ {
		b1 := spatial.Bearing(run[i-1].Lat, run[i-1].Lon, run[i].Lat, run[i].Lon)
		b2 := spatial.Bearing(run[i].Lat, run[i].Lon, run[i+1].Lat, run[i+1].Lon)
		sum += spatial.AngleDiffDeg(b1, b2)
	}
	return sum / float64(len(run)-2)
}
