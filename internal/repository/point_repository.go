package repository

import (
	"database/sql"
	"fmt"

	"github.com/pawtrack/walks-backend-go/internal/database"
	"github.com/pawtrack/walks-backend-go/internal/models"
)

// PointRepository handles database operations for track points.
type PointRepository struct {
	db *sql.DB
}

// NewPointRepository creates a new point repository.
func NewPointRepository(db *sql.DB) *PointRepository {
	return &PointRepository{db: db}
}

// PutBatch inserts track points and their sync queue rows in one
// transaction: either the whole batch is durable and queued, or none of it
// is.
func (r *PointRepository) PutBatch(points []models.TrackPoint) error {
	if len(points) == 0 {
		return nil
	}

	return database.Transaction(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO track_points
				(id, walk_id, latitude, longitude, ts_ms, accuracy_m, speed_mps, seq, synced)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0)`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, p := range points {
			var speed sql.NullFloat64
			if p.SpeedMPS != nil {
				speed = sql.NullFloat64{Float64: *p.SpeedMPS, Valid: true}
			}
			if _, err := stmt.Exec(p.ID, p.WalkID, p.Lat, p.Lon, ms(p.TS),
				p.AccuracyM, speed, p.Seq); err != nil {
				return fmt.Errorf("failed to insert track point %s: %w", p.ID, err)
			}
			if err := enqueue(tx, models.EntityTrackPoint, p.ID); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListByWalk retrieves a walk's track points ordered by timestamp, with
// insertion order breaking ties.
func (r *PointRepository) ListByWalk(walkID string) ([]models.TrackPoint, error) {
	rows, err := r.db.Query(`
		SELECT id, walk_id, latitude, longitude, ts_ms, accuracy_m, speed_mps, seq, synced
		FROM track_points
		WHERE walk_id = ?
		ORDER BY ts_ms ASC, seq ASC`, walkID)
	if err != nil {
		return nil, fmt.Errorf("failed to query track points: %w", err)
	}
	defer rows.Close()

	return scanPoints(rows)
}

func scanPoints(rows *sql.Rows) ([]models.TrackPoint, error) {
	var points []models.TrackPoint
	for rows.Next() {
		var p models.TrackPoint
		var tsMs int64
		var speed sql.NullFloat64
		if err := rows.Scan(&p.ID, &p.WalkID, &p.Lat, &p.Lon, &tsMs,
			&p.AccuracyM, &speed, &p.Seq, &p.Synced); err != nil {
			return nil, fmt.Errorf("failed to scan track point: %w", err)
		}
		p.TS = fromMs(tsMs)
		if speed.Valid {
			v := speed.Float64
			p.SpeedMPS = &v
		}
		points = append(points, p)
	}
	return points, rows.Err()
}
