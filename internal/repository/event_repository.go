package repository

import (
	"database/sql"
	"fmt"

	"github.com/pawtrack/walks-backend-go/internal/database"
	"github.com/pawtrack/walks-backend-go/internal/models"
)

// EventRepository handles database operations for stop events.
type EventRepository struct {
	db *sql.DB
}

// NewEventRepository creates a new event repository.
func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

// PutBatch inserts stop events and their sync queue rows in one
// transaction.
func (r *EventRepository) PutBatch(events []models.StopEvent) error {
	if len(events) == 0 {
		return nil
	}
	return database.Transaction(r.db, func(tx *sql.Tx) error {
		return insertEvents(tx, events)
	})
}

// Get retrieves a single stop event by ID. Returns nil when the event does
// not exist.
func (r *EventRepository) Get(id string) (*models.StopEvent, error) {
	row := r.db.QueryRow(`
		SELECT id, walk_id, ts_start_ms, ts_end_ms, latitude, longitude,
			radius_m, label, confidence, score, provenance, synced
		FROM stop_events WHERE id = ?`, id)

	ev, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stop event: %w", err)
	}
	return ev, nil
}

// ListByWalk retrieves a walk's stop events, most notable first.
func (r *EventRepository) ListByWalk(walkID string) ([]models.StopEvent, error) {
	rows, err := r.db.Query(`
		SELECT id, walk_id, ts_start_ms, ts_end_ms, latitude, longitude,
			radius_m, label, confidence, score, provenance, synced
		FROM stop_events
		WHERE walk_id = ?
		ORDER BY score DESC, ts_start_ms ASC`, walkID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stop events: %w", err)
	}
	defer rows.Close()

	var events []models.StopEvent
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stop event: %w", err)
		}
		events = append(events, *ev)
	}
	return events, rows.Err()
}

// UpdateLabel applies a user relabel: the event becomes user-owned with
// full confidence and goes back on the sync queue. User-owned events are
// from then on invisible to ReplaceAuto.
func (r *EventRepository) UpdateLabel(id, label string) error {
	return database.Transaction(r.db, func(tx *sql.Tx) error {
		res, err := tx.Exec(`
			UPDATE stop_events
			SET label = ?, provenance = ?, confidence = 1, synced = 0
			WHERE id = ?`,
			label, models.ProvenanceUser, id)
		if err != nil {
			return fmt.Errorf("failed to relabel stop event %s: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check relabel: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("stop event %s not found", id)
		}
		return enqueue(tx, models.EntityStopEvent, id)
	})
}

// ReplaceAuto atomically swaps a walk's auto-detected events for a fresh
// segmenter output. The provenance predicate in the DELETE is what makes
// overwriting a user-edited event structurally impossible rather than
// merely checked.
func (r *EventRepository) ReplaceAuto(walkID string, events []models.StopEvent) error {
	return database.Transaction(r.db, func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			DELETE FROM sync_queue
			WHERE entity_type = ?
				AND entity_id IN (
					SELECT id FROM stop_events WHERE walk_id = ? AND provenance = ?
				)`,
			models.EntityStopEvent, walkID, models.ProvenanceAuto)
		if err != nil {
			return fmt.Errorf("failed to purge queued auto events: %w", err)
		}

		_, err = tx.Exec(`DELETE FROM stop_events WHERE walk_id = ? AND provenance = ?`,
			walkID, models.ProvenanceAuto)
		if err != nil {
			return fmt.Errorf("failed to delete auto events: %w", err)
		}

		return insertEvents(tx, events)
	})
}

func insertEvents(tx *sql.Tx, events []models.StopEvent) error {
	if len(events) == 0 {
		return nil
	}
	stmt, err := tx.Prepare(`
		INSERT INTO stop_events
			(id, walk_id, ts_start_ms, ts_end_ms, latitude, longitude,
			 radius_m, label, confidence, score, provenance, synced)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, ev := range events {
		if _, err := stmt.Exec(ev.ID, ev.WalkID, ms(ev.TsStart), ms(ev.TsEnd),
			ev.Lat, ev.Lon, ev.RadiusM, ev.Label, ev.Confidence, ev.Score,
			ev.Provenance); err != nil {
			return fmt.Errorf("failed to insert stop event %s: %w", ev.ID, err)
		}
		if err := enqueue(tx, models.EntityStopEvent, ev.ID); err != nil {
			return err
		}
	}
	return nil
}

func scanEvent(s scanner) (*models.StopEvent, error) {
	var ev models.StopEvent
	var startMs, endMs int64
	err := s.Scan(&ev.ID, &ev.WalkID, &startMs, &endMs, &ev.Lat, &ev.Lon,
		&ev.RadiusM, &ev.Label, &ev.Confidence, &ev.Score, &ev.Provenance, &ev.Synced)
	if err != nil {
		return nil, err
	}
	ev.TsStart = fromMs(startMs)
	ev.TsEnd = fromMs(endMs)
	return &ev, nil
}
