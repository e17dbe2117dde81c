package models

import "time"

// Entity types carried by the sync queue, in drain order.
const (
	EntityWalk       = "walk"
	EntityTrackPoint = "track_point"
	EntityStopEvent  = "stop_event"
)

// Queue operations. Everything going to the remote authority is an
// idempotent upsert keyed by the local id, so creates and updates share
// one op.
const (
	OpUpsert = "upsert"
)

// SyncRecord is the local bookkeeping row for one pending mutation. It is
// never transmitted: every unsynced walk/point/event has exactly one, and
// a successful upsert deletes it in the same transaction that flips the
// entity's synced flag.
type SyncRecord struct {
	EntityType string    `json:"entityType" db:"entity_type"`
	EntityID   string    `json:"entityId" db:"entity_id"`
	Op         string    `json:"op" db:"op"`
	EnqueuedAt time.Time `json:"enqueuedAt" db:"enqueued_at_ms"`
}
