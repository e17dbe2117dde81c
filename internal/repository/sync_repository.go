package repository

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/pawtrack/walks-backend-go/internal/database"
	"github.com/pawtrack/walks-backend-go/internal/models"
)

// SyncRepository serves the sync engine: unsynced batches out, atomic
// synced-flag flips in.
type SyncRepository struct {
	db *sql.DB
}

// NewSyncRepository creates a new sync repository.
func NewSyncRepository(db *sql.DB) *SyncRepository {
	return &SyncRepository{db: db}
}

// entityTables maps queue entity types to their tables.
var entityTables = map[string]string{
	models.EntityWalk:       "walks",
	models.EntityTrackPoint: "track_points",
	models.EntityStopEvent:  "stop_events",
}

// ListUnsyncedWalks returns unsynced walks in start order.
func (r *SyncRepository) ListUnsyncedWalks(limit, offset int) ([]models.Walk, error) {
	rows, err := r.db.Query(`
		SELECT id, user_id, dog_ids, started_at_ms, ended_at_ms,
			distance_m, duration_s, sniff_time_s, synced
		FROM walks
		WHERE synced = 0
		ORDER BY started_at_ms ASC
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query unsynced walks: %w", err)
	}
	defer rows.Close()

	var walks []models.Walk
	for rows.Next() {
		walk, err := scanWalk(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan unsynced walk: %w", err)
		}
		walks = append(walks, *walk)
	}
	return walks, rows.Err()
}

// ListUnsyncedPoints returns a batch of unsynced track points in walk and
// timestamp order.
func (r *SyncRepository) ListUnsyncedPoints(limit, offset int) ([]models.TrackPoint, error) {
	rows, err := r.db.Query(`
		SELECT id, walk_id, latitude, longitude, ts_ms, accuracy_m, speed_mps, seq, synced
		FROM track_points
		WHERE synced = 0
		ORDER BY walk_id ASC, ts_ms ASC, seq ASC
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query unsynced points: %w", err)
	}
	defer rows.Close()

	return scanPoints(rows)
}

// ListUnsyncedEvents returns a batch of unsynced stop events.
func (r *SyncRepository) ListUnsyncedEvents(limit, offset int) ([]models.StopEvent, error) {
	rows, err := r.db.Query(`
		SELECT id, walk_id, ts_start_ms, ts_end_ms, latitude, longitude,
			radius_m, label, confidence, score, provenance, synced
		FROM stop_events
		WHERE synced = 0
		ORDER BY walk_id ASC, ts_start_ms ASC
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query unsynced events: %w", err)
	}
	defer rows.Close()

	var events []models.StopEvent
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan unsynced event: %w", err)
		}
		events = append(events, *ev)
	}
	return events, rows.Err()
}

// MarkSynced flips the synced flag for the given entities and deletes their
// sync queue rows, atomically. A batch is either fully acknowledged or not
// at all.
func (r *SyncRepository) MarkSynced(entityType string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	table, ok := entityTables[entityType]
	if !ok {
		return fmt.Errorf("unknown entity type %q", entityType)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]interface{}, 0, len(ids)+1)
	for _, id := range ids {
		args = append(args, id)
	}

	return database.Transaction(r.db, func(tx *sql.Tx) error {
		query := fmt.Sprintf("UPDATE %s SET synced = 1 WHERE id IN (%s)", table, placeholders)
		if _, err := tx.Exec(query, args...); err != nil {
			return fmt.Errorf("failed to mark %s synced: %w", entityType, err)
		}

		query = fmt.Sprintf("DELETE FROM sync_queue WHERE entity_type = ? AND entity_id IN (%s)", placeholders)
		if _, err := tx.Exec(query, append([]interface{}{entityType}, args...)...); err != nil {
			return fmt.Errorf("failed to dequeue %s records: %w", entityType, err)
		}
		return nil
	})
}

// PendingCounts returns the number of queued records per entity type.
func (r *SyncRepository) PendingCounts() (map[string]int64, error) {
	rows, err := r.db.Query(`
		SELECT entity_type, COUNT(*)
		FROM sync_queue
		GROUP BY entity_type`)
	if err != nil {
		return nil, fmt.Errorf("failed to count pending records: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var entityType string
		var count int64
		if err := rows.Scan(&entityType, &count); err != nil {
			return nil, fmt.Errorf("failed to scan pending count: %w", err)
		}
		counts[entityType] = count
	}
	return counts, rows.Err()
}
