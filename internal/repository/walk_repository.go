package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pawtrack/walks-backend-go/internal/database"
	"github.com/pawtrack/walks-backend-go/internal/models"
)

// WalkRepository handles database operations for walks.
type WalkRepository struct {
	db *sql.DB
}

// NewWalkRepository creates a new walk repository.
func NewWalkRepository(db *sql.DB) *WalkRepository {
	return &WalkRepository{db: db}
}

// Put upserts a walk and its sync queue row in one transaction, so the walk
// can never exist locally without being scheduled for sync.
func (r *WalkRepository) Put(walk models.Walk) error {
	dogIDs, err := json.Marshal(walk.DogIDs)
	if err != nil {
		return fmt.Errorf("failed to encode dog ids: %w", err)
	}

	return database.Transaction(r.db, func(tx *sql.Tx) error {
		var endedAt *int64
		if walk.EndedAt != nil {
			v := ms(*walk.EndedAt)
			endedAt = &v
		}
		_, err := tx.Exec(`
			INSERT OR REPLACE INTO walks
				(id, user_id, dog_ids, started_at_ms, ended_at_ms,
				 distance_m, duration_s, sniff_time_s, synced)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0)`,
			walk.ID, walk.UserID, string(dogIDs), ms(walk.StartedAt), endedAt,
			walk.DistanceM, walk.DurationS, walk.SniffTimeS)
		if err != nil {
			return fmt.Errorf("failed to insert walk: %w", err)
		}
		return enqueue(tx, models.EntityWalk, walk.ID)
	})
}

// UpdateDerived updates the walk's derived fields (and closure time when
// endedAt is non-nil) and re-queues the walk for sync.
func (r *WalkRepository) UpdateDerived(id string, endedAt *time.Time, distanceM, durationS, sniffTimeS float64) error {
	return database.Transaction(r.db, func(tx *sql.Tx) error {
		var endedAtMs *int64
		if endedAt != nil {
			v := ms(*endedAt)
			endedAtMs = &v
		}
		res, err := tx.Exec(`
			UPDATE walks
			SET ended_at_ms = COALESCE(?, ended_at_ms),
				distance_m = ?, duration_s = ?, sniff_time_s = ?, synced = 0
			WHERE id = ?`,
			endedAtMs, distanceM, durationS, sniffTimeS, id)
		if err != nil {
			return fmt.Errorf("failed to update walk %s: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check walk update: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("walk %s not found", id)
		}
		return enqueue(tx, models.EntityWalk, id)
	})
}

// Get retrieves a single walk by ID. Returns nil when the walk does not
// exist.
func (r *WalkRepository) Get(id string) (*models.Walk, error) {
	row := r.db.QueryRow(`
		SELECT id, user_id, dog_ids, started_at_ms, ended_at_ms,
			distance_m, duration_s, sniff_time_s, synced
		FROM walks WHERE id = ?`, id)

	walk, err := scanWalk(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get walk: %w", err)
	}
	return walk, nil
}

// List retrieves walks with filtering and pagination, newest first.
func (r *WalkRepository) List(filter models.WalkFilter) ([]models.Walk, int64, error) {
	var conditions []string
	var args []interface{}

	if filter.StartTime > 0 {
		conditions = append(conditions, "started_at_ms >= ?")
		args = append(args, filter.StartTime)
	}
	if filter.EndTime > 0 {
		conditions = append(conditions, "started_at_ms <= ?")
		args = append(args, filter.EndTime)
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := r.db.QueryRow("SELECT COUNT(*) FROM walks"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count walks: %w", err)
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 100
	}
	if filter.PageSize > 1000 {
		filter.PageSize = 1000
	}
	offset := (filter.Page - 1) * filter.PageSize

	query := `
		SELECT id, user_id, dog_ids, started_at_ms, ended_at_ms,
			distance_m, duration_s, sniff_time_s, synced
		FROM walks` + where + " ORDER BY started_at_ms DESC LIMIT ? OFFSET ?"
	args = append(args, filter.PageSize, offset)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query walks: %w", err)
	}
	defer rows.Close()

	var walks []models.Walk
	for rows.Next() {
		walk, err := scanWalk(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan walk: %w", err)
		}
		walks = append(walks, *walk)
	}

	return walks, total, rows.Err()
}

// Delete removes a walk; its points and events go with it (foreign key
// cascade), and all related sync queue rows are purged in the same
// transaction.
func (r *WalkRepository) Delete(id string) error {
	return database.Transaction(r.db, func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			DELETE FROM sync_queue
			WHERE (entity_type = ? AND entity_id = ?)
				OR (entity_type = ? AND entity_id IN (SELECT id FROM track_points WHERE walk_id = ?))
				OR (entity_type = ? AND entity_id IN (SELECT id FROM stop_events WHERE walk_id = ?))`,
			models.EntityWalk, id,
			models.EntityTrackPoint, id,
			models.EntityStopEvent, id)
		if err != nil {
			return fmt.Errorf("failed to purge sync queue for walk %s: %w", id, err)
		}

		if _, err := tx.Exec("DELETE FROM walks WHERE id = ?", id); err != nil {
			return fmt.Errorf("failed to delete walk %s: %w", id, err)
		}
		return nil
	})
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanWalk(s scanner) (*models.Walk, error) {
	var w models.Walk
	var dogIDs string
	var startedAtMs int64
	var endedAtMs sql.NullInt64

	err := s.Scan(&w.ID, &w.UserID, &dogIDs, &startedAtMs, &endedAtMs,
		&w.DistanceM, &w.DurationS, &w.SniffTimeS, &w.Synced)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(dogIDs), &w.DogIDs); err != nil {
		return nil, fmt.Errorf("failed to decode dog ids: %w", err)
	}
	w.StartedAt = fromMs(startedAtMs)
	if endedAtMs.Valid {
		t := fromMs(endedAtMs.Int64)
		w.EndedAt = &t
	}
	return &w, nil
}
