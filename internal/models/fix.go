package models

import "time"

// Fix is a single raw location sample from the device location service.
// It is ephemeral: only fixes accepted by the filter are persisted, as
// track points.
type Fix struct {
	Lat       float64   `json:"latitude"`
	Lon       float64   `json:"longitude"`
	AccuracyM float64   `json:"accuracyM"`
	TS        time.Time `json:"ts"`
	SpeedMPS  *float64  `json:"speedMps,omitempty"` // nil when the device supplies no speed
}

// Reject reasons reported by the fix filter.
const (
	RejectAccuracy   = "accuracy"
	RejectTeleport   = "teleport"
	RejectOutOfOrder = "out_of_order"
)
