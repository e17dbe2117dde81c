package models

import "time"

// TrackPoint is a persisted, accepted fix belonging to exactly one walk.
// Points are immutable once written and ordered by (TS, Seq) within a walk;
// Seq breaks timestamp ties by insertion order.
type TrackPoint struct {
	ID        string    `json:"id" db:"id"`
	WalkID    string    `json:"walkId" db:"walk_id"`
	Lat       float64   `json:"latitude" db:"latitude"`
	Lon       float64   `json:"longitude" db:"longitude"`
	TS        time.Time `json:"ts" db:"ts_ms"`
	AccuracyM float64   `json:"accuracyM" db:"accuracy_m"`
	SpeedMPS  *float64  `json:"speedMps,omitempty" db:"speed_mps"`
	Seq       int64     `json:"seq" db:"seq"`
	Synced    bool      `json:"-" db:"synced"`
}
