package ingest

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pawtrack/walks-backend-go/internal/config"
	"github.com/pawtrack/walks-backend-go/internal/metrics"
	"github.com/pawtrack/walks-backend-go/internal/models"
	"github.com/pawtrack/walks-backend-go/internal/segment"
)

var (
	// ErrWalkOpen is returned by StartWalk while a recording is active;
	// the device supports exactly one open walk.
	ErrWalkOpen = errors.New("a walk is already being recorded")
	// ErrNoOpenWalk is returned when no recording is active.
	ErrNoOpenWalk = errors.New("no walk is being recorded")
)

// LocationSource is the platform adapter delivering raw fixes. The channel
// closes when the stream ends; Err reports the terminal stream error, if
// any (permission denied, service unavailable).
type LocationSource interface {
	Fixes() <-chan models.Fix
	Err() error
}

// Store is the slice of the durable store the recorder writes through.
type Store interface {
	PutWalk(walk models.Walk) error
	PutTrackPoints(points []models.TrackPoint) error
	PutStopEvents(events []models.StopEvent) error
	UpdateWalkDerived(id string, endedAt *time.Time, distanceM, durationS, sniffTimeS float64) error
}

// Recorder owns the ingestion pipeline for the single open walk: a bounded
// fix channel feeding one consumer goroutine that exclusively holds the
// filter, track builder and segmenter state. Producers only ever touch the
// channel.
type Recorder struct {
	cfg   *config.Config
	store Store
	m     *metrics.Metrics

	mu      sync.RWMutex
	session *walkSession
	lastErr error
}

// walkSession is the per-walk state, owned by the consumer goroutine from
// the first fix until the channel is drained.
type walkSession struct {
	walk    models.Walk
	fixes   chan models.Fix
	done    chan struct{}
	filter  *FixFilter
	builder *TrackBuilder
	seg     *segment.Segmenter

	sniffTimeS float64
}

// NewRecorder creates a recorder writing through the given store.
func NewRecorder(cfg *config.Config, store Store, m *metrics.Metrics) *Recorder {
	return &Recorder{cfg: cfg, store: store, m: m}
}

// StartWalk opens a new recording session. The walk row is written (and
// queued for sync) before any fix is accepted, so even an empty walk
// reaches the remote authority.
func (r *Recorder) StartWalk(userID string, dogIDs []string) (*models.Walk, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session != nil {
		return nil, ErrWalkOpen
	}

	walk := models.Walk{
		ID:        uuid.NewString(),
		UserID:    userID,
		DogIDs:    dogIDs,
		StartedAt: time.Now(),
	}
	if err := r.store.PutWalk(walk); err != nil {
		return nil, fmt.Errorf("failed to persist walk: %w", err)
	}

	s := &walkSession{
		walk:    walk,
		fixes:   make(chan models.Fix, r.cfg.IngestBuffer),
		done:    make(chan struct{}),
		filter:  NewFixFilter(r.cfg.Filter),
		builder: NewTrackBuilder(walk.ID, r.cfg.Filter),
		seg:     segment.New(r.cfg.Segmenter),
	}
	r.session = s
	r.lastErr = nil
	go r.consume(s)

	log.Printf("[Recorder] Walk %s started (user=%s)", walk.ID, userID)
	return &walk, nil
}

// Push queues a raw fix for the open walk. It blocks briefly when the
// ingest buffer is full (backpressure) and fails when no walk is open.
func (r *Recorder) Push(fix models.Fix) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.session == nil {
		return ErrNoOpenWalk
	}
	r.session.fixes <- fix
	return nil
}

// Attach pumps a location source into the recorder until the source ends.
// A terminal stream error is fatal to the session and surfaced via Err.
func (r *Recorder) Attach(source LocationSource) {
	go func() {
		for fix := range source.Fixes() {
			if err := r.Push(fix); err != nil {
				return
			}
		}
		if err := source.Err(); err != nil {
			r.fail(fmt.Errorf("location stream ended: %w", err))
		}
	}()
}

// StopWalk ends the open session. Ingestion stops immediately but the
// consumer drains queued fixes and closes any stop run still open, so the
// final stop event is not lost. The returned walk carries the frozen
// derived fields.
func (r *Recorder) StopWalk() (*models.Walk, error) {
	r.mu.Lock()
	s := r.session
	if s == nil {
		r.mu.Unlock()
		return nil, ErrNoOpenWalk
	}
	r.session = nil
	close(s.fixes)
	r.mu.Unlock()

	<-s.done

	endedAt := time.Now()
	s.walk.EndedAt = &endedAt
	s.walk.DistanceM = s.builder.DistanceM()
	s.walk.DurationS = endedAt.Sub(s.walk.StartedAt).Seconds()
	s.walk.SniffTimeS = s.sniffTimeS

	if err := r.store.UpdateWalkDerived(s.walk.ID, s.walk.EndedAt,
		s.walk.DistanceM, s.walk.DurationS, s.walk.SniffTimeS); err != nil {
		return nil, fmt.Errorf("failed to finalize walk: %w", err)
	}

	log.Printf("[Recorder] Walk %s stopped: %.1fm over %.0fs, %.0fs sniffing",
		s.walk.ID, s.walk.DistanceM, s.walk.DurationS, s.walk.SniffTimeS)
	return &s.walk, nil
}

// Recording reports whether a walk is open.
func (r *Recorder) Recording() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.session != nil
}

// Err returns the terminal stream or persistence error of the current or
// last session, if any.
func (r *Recorder) Err() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastErr
}

func (r *Recorder) fail(err error) {
	r.mu.Lock()
	r.lastErr = err
	r.mu.Unlock()
	log.Printf("[Recorder] %v", err)
}

// consume is the single consumer goroutine: it exclusively owns the
// filter/builder/segmenter state for the session.
func (r *Recorder) consume(s *walkSession) {
	defer close(s.done)

	for fix := range s.fixes {
		r.handleFix(s, fix)
	}

	// End of stream: a stop still in progress at walk end is closed here.
	if ev := s.seg.Flush(); ev != nil {
		r.persistEvent(s, ev)
	}
}

func (r *Recorder) handleFix(s *walkSession, fix models.Fix) {
	r.m.FixesReceived.Inc()

	ok, reason := s.filter.Accept(fix)
	if !ok {
		r.m.FixesRejected.WithLabelValues(reason).Inc()
		return
	}
	r.m.FixesAccepted.Inc()

	point := s.builder.Next(fix)
	if err := r.store.PutTrackPoints([]models.TrackPoint{point}); err != nil {
		// The point was not durably written: neither the distance nor the
		// segmenter may see it, or memory and disk would disagree.
		r.fail(fmt.Errorf("failed to persist track point: %w", err))
		return
	}
	s.builder.Commit(point)

	if ev := s.seg.Feed(point); ev != nil {
		r.persistEvent(s, ev)
	}
}

func (r *Recorder) persistEvent(s *walkSession, ev *models.StopEvent) {
	if err := r.store.PutStopEvents([]models.StopEvent{*ev}); err != nil {
		r.fail(fmt.Errorf("failed to persist stop event: %w", err))
		return
	}
	r.m.StopsDetected.WithLabelValues(ev.Label).Inc()
	if ev.Label == models.LabelSniff {
		s.sniffTimeS += ev.DurationS()
	}

	// Keep the durable aggregates fresh so a crash mid-walk loses nothing
	// already derived.
	if err := r.store.UpdateWalkDerived(s.walk.ID, nil,
		s.builder.DistanceM(), time.Since(s.walk.StartedAt).Seconds(), s.sniffTimeS); err != nil {
		r.fail(fmt.Errorf("failed to update walk aggregates: %w", err))
	}
}
