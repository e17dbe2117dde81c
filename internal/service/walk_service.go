package service

import (
	"errors"
	"fmt"
	"log"

	"github.com/pawtrack/walks-backend-go/internal/config"
	"github.com/pawtrack/walks-backend-go/internal/export"
	"github.com/pawtrack/walks-backend-go/internal/models"
	"github.com/pawtrack/walks-backend-go/internal/repository"
	"github.com/pawtrack/walks-backend-go/internal/segment"
)

// ErrWalkNotFound is returned when the requested walk does not exist.
var ErrWalkNotFound = errors.New("walk not found")

// WalkService handles business logic for recorded walks: detail reads,
// exports, deletion and retroactive re-segmentation.
type WalkService struct {
	store  *repository.Store
	segCfg config.SegmenterConfig
}

// NewWalkService creates a new walk service.
func NewWalkService(store *repository.Store, segCfg config.SegmenterConfig) *WalkService {
	return &WalkService{store: store, segCfg: segCfg}
}

// List retrieves walks with filtering and pagination.
func (s *WalkService) List(filter models.WalkFilter) ([]models.Walk, int64, error) {
	return s.store.Walks.List(filter)
}

// WalkDetail is a walk with its ordered points and events.
type WalkDetail struct {
	Walk        models.Walk         `json:"walk"`
	TrackPoints []models.TrackPoint `json:"trackPoints"`
	StopEvents  []models.StopEvent  `json:"stopEvents"`
}

// Detail retrieves a walk together with its track points and stop events.
func (s *WalkService) Detail(walkID string) (*WalkDetail, error) {
	walk, err := s.store.Walks.Get(walkID)
	if err != nil {
		return nil, err
	}
	if walk == nil {
		return nil, ErrWalkNotFound
	}

	points, err := s.store.Points.ListByWalk(walkID)
	if err != nil {
		return nil, err
	}
	events, err := s.store.Events.ListByWalk(walkID)
	if err != nil {
		return nil, err
	}

	return &WalkDetail{Walk: *walk, TrackPoints: points, StopEvents: events}, nil
}

// Delete removes a walk and everything it owns.
func (s *WalkService) Delete(walkID string) error {
	walk, err := s.store.Walks.Get(walkID)
	if err != nil {
		return err
	}
	if walk == nil {
		return ErrWalkNotFound
	}
	return s.store.Walks.Delete(walkID)
}

// Resegment re-derives a walk's stop events from its stored points (batch
// mode). Only auto-detected events are replaced; user-edited ones survive
// verbatim. The walk's sniff time is recomputed from the resulting event
// set and the walk goes back on the sync queue.
func (s *WalkService) Resegment(walkID string) ([]models.StopEvent, error) {
	walk, err := s.store.Walks.Get(walkID)
	if err != nil {
		return nil, err
	}
	if walk == nil {
		return nil, ErrWalkNotFound
	}

	points, err := s.store.Points.ListByWalk(walkID)
	if err != nil {
		return nil, err
	}

	candidates := segment.Run(s.segCfg, points)
	if err := s.store.Events.ReplaceAuto(walkID, candidates); err != nil {
		return nil, fmt.Errorf("failed to replace auto events: %w", err)
	}

	events, err := s.store.Events.ListByWalk(walkID)
	if err != nil {
		return nil, err
	}

	var sniffTimeS float64
	for _, ev := range events {
		if ev.Label == models.LabelSniff {
			sniffTimeS += ev.DurationS()
		}
	}
	if err := s.store.Walks.UpdateDerived(walkID, nil,
		walk.DistanceM, walk.DurationS, sniffTimeS); err != nil {
		return nil, err
	}

	log.Printf("[WalkService] Resegmented walk %s: %d candidate events, %d total after merge",
		walkID, len(candidates), len(events))
	return events, nil
}

// Bundle assembles the JSON export bundle for one walk.
func (s *WalkService) Bundle(walkID string) (*export.Bundle, error) {
	detail, err := s.Detail(walkID)
	if err != nil {
		return nil, err
	}
	return &export.Bundle{
		Walks:       []models.Walk{detail.Walk},
		TrackPoints: detail.TrackPoints,
		StopEvents:  detail.StopEvents,
	}, nil
}

// ErrEventNotFound is returned when the requested stop event does not
// exist.
var ErrEventNotFound = errors.New("stop event not found")

// RelabelEvent applies a user-authored label to a stop event and refreshes
// the owning walk's sniff time, since the label change can move time in or
// out of the sniff bucket.
func (s *WalkService) RelabelEvent(eventID, label string) (*models.StopEvent, error) {
	ev, err := s.store.Events.Get(eventID)
	if err != nil {
		return nil, err
	}
	if ev == nil {
		return nil, ErrEventNotFound
	}

	if err := s.store.Events.UpdateLabel(eventID, label); err != nil {
		return nil, err
	}

	walk, err := s.store.Walks.Get(ev.WalkID)
	if err != nil {
		return nil, err
	}
	if walk != nil {
		events, err := s.store.Events.ListByWalk(ev.WalkID)
		if err != nil {
			return nil, err
		}
		var sniffTimeS float64
		for _, e := range events {
			if e.Label == models.LabelSniff {
				sniffTimeS += e.DurationS()
			}
		}
		if err := s.store.Walks.UpdateDerived(walk.ID, nil,
			walk.DistanceM, walk.DurationS, sniffTimeS); err != nil {
			return nil, err
		}
	}

	return s.store.Events.Get(eventID)
}
