package models

import "time"

// Stop event labels. Auto-detection only ever emits sniff or wait; pee,
// poop and free-form labels come from user relabeling.
const (
	LabelSniff = "sniff"
	LabelWait  = "wait"
	LabelPee   = "pee"
	LabelPoop  = "poop"
)

// StopEvent provenance. User-edited events are authoritative: a re-run of
// the segmenter may only ever replace auto rows.
const (
	ProvenanceAuto = "auto"
	ProvenanceUser = "user"
)

// StopEvent is a derived behavioral annotation over a low-speed run of
// track points. Confidence is in [0,1]; 1 is reserved for user-confirmed
// labels (Provenance == ProvenanceUser).
type StopEvent struct {
	ID         string    `json:"id" db:"id"`
	WalkID     string    `json:"walkId" db:"walk_id"`
	TsStart    time.Time `json:"tsStart" db:"ts_start_ms"`
	TsEnd      time.Time `json:"tsEnd" db:"ts_end_ms"`
	Lat        float64   `json:"latitude" db:"latitude"`
	Lon        float64   `json:"longitude" db:"longitude"`
	RadiusM    float64   `json:"radiusM" db:"radius_m"`
	Label      string    `json:"label" db:"label"`
	Confidence float64   `json:"confidence" db:"confidence"`
	Score      float64   `json:"score" db:"score"`
	Provenance string    `json:"provenance" db:"provenance"`
	Synced     bool      `json:"-" db:"synced"`
}

// UserEdited reports whether the event carries a human-confirmed label.
func (e *StopEvent) UserEdited() bool {
	return e.Provenance == ProvenanceUser
}

// DurationS returns the event duration in seconds.
func (e *StopEvent) DurationS() float64 {
	return e.TsEnd.Sub(e.TsStart).Seconds()
}
