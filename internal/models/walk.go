package models

import "time"

// Walk is the aggregate root for one recording session. IDs are generated
// on the client so records created offline keep a stable identity through
// sync. DistanceM and SniffTimeS are derived and only grow while the walk
// is open; they are frozen once EndedAt is set.
type Walk struct {
	ID         string     `json:"id" db:"id"`
	UserID     string     `json:"userId" db:"user_id"`
	DogIDs     []string   `json:"dogIds" db:"dog_ids"`
	StartedAt  time.Time  `json:"startedAt" db:"started_at_ms"`
	EndedAt    *time.Time `json:"endedAt,omitempty" db:"ended_at_ms"`
	DistanceM  float64    `json:"distanceM" db:"distance_m"`
	DurationS  float64    `json:"durationS" db:"duration_s"`
	SniffTimeS float64    `json:"sniffTimeS" db:"sniff_time_s"`
	Synced     bool       `json:"-" db:"synced"`
}

// Open reports whether the walk is still recording.
func (w *Walk) Open() bool {
	return w.EndedAt == nil
}

// WalkFilter represents filter parameters for querying walks.
type WalkFilter struct {
	StartTime int64 `form:"startTime"` // Unix milliseconds
	EndTime   int64 `form:"endTime"`   // Unix milliseconds
	Page      int   `form:"page"`
	PageSize  int   `form:"pageSize"`
}
