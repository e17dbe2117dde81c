package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/pawtrack/walks-backend-go/internal/models"
)

// Store bundles the per-entity repositories over one database handle and
// exposes the combined surface the recorder and sync engine write through.
type Store struct {
	Walks  *WalkRepository
	Points *PointRepository
	Events *EventRepository
	Queue  *SyncRepository

	db *sql.DB
}

// NewStore creates the repository bundle.
func NewStore(db *sql.DB) *Store {
	return &Store{
		Walks:  NewWalkRepository(db),
		Points: NewPointRepository(db),
		Events: NewEventRepository(db),
		Queue:  NewSyncRepository(db),
		db:     db,
	}
}

// PutWalk implements ingest.Store.
func (s *Store) PutWalk(walk models.Walk) error { return s.Walks.Put(walk) }

// PutTrackPoints implements ingest.Store.
func (s *Store) PutTrackPoints(points []models.TrackPoint) error { return s.Points.PutBatch(points) }

// PutStopEvents implements ingest.Store.
func (s *Store) PutStopEvents(events []models.StopEvent) error { return s.Events.PutBatch(events) }

// UpdateWalkDerived implements ingest.Store.
func (s *Store) UpdateWalkDerived(id string, endedAt *time.Time, distanceM, durationS, sniffTimeS float64) error {
	return s.Walks.UpdateDerived(id, endedAt, distanceM, durationS, sniffTimeS)
}

// enqueue inserts (or refreshes) the sync queue row for an entity inside
// the caller's transaction. Every local mutation goes through this in the
// same transaction as the entity write.
func enqueue(tx *sql.Tx, entityType, entityID string) error {
	_, err := tx.Exec(`
		INSERT OR REPLACE INTO sync_queue (entity_type, entity_id, op, enqueued_at_ms)
		VALUES (?, ?, ?, ?)`,
		entityType, entityID, models.OpUpsert, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to enqueue %s %s: %w", entityType, entityID, err)
	}
	return nil
}

// ms converts a time to the unix-millisecond representation used in the
// schema; fromMs converts back.
func ms(t time.Time) int64 { return t.UnixMilli() }

func fromMs(v int64) time.Time { return time.UnixMilli(v) }
