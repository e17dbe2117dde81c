package syncer

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/pawtrack/walks-backend-go/internal/config"
	"github.com/pawtrack/walks-backend-go/internal/metrics"
	"github.com/pawtrack/walks-backend-go/internal/models"
)

// Queue is the slice of the durable store the engine drains.
type Queue interface {
	ListUnsyncedWalks(limit, offset int) ([]models.Walk, error)
	ListUnsyncedPoints(limit, offset int) ([]models.TrackPoint, error)
	ListUnsyncedEvents(limit, offset int) ([]models.StopEvent, error)
	MarkSynced(entityType string, ids []string) error
	PendingCounts() (map[string]int64, error)
}

// RemoteSync is the transport to the remote authority. All three calls are
// idempotent upserts keyed by the local entity id, which is what makes
// at-least-once delivery safe.
type RemoteSync interface {
	UpsertWalk(ctx context.Context, walk models.Walk) error
	UpsertTrackPoints(ctx context.Context, points []models.TrackPoint) error
	UpsertStopEvents(ctx context.Context, events []models.StopEvent) error
}

// Engine drains unsynced records to the remote authority in dependency
// order: walks first (later entities reference them), then points and
// events in fixed-size batches. A failed batch stays queued and the drain
// moves on; the whole pass is retried on the next trigger or, after a
// failure, on a capped exponential backoff timer.
//
// Only one pass runs at a time. Triggers arriving mid-pass coalesce into a
// single follow-up pass.
type Engine struct {
	cfg    config.SyncConfig
	queue  Queue
	remote RemoteSync
	m      *metrics.Metrics

	trigger chan struct{}
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewEngine creates a sync engine. Call Start to begin draining.
func NewEngine(cfg config.SyncConfig, queue Queue, remote RemoteSync, m *metrics.Metrics) *Engine {
	return &Engine{
		cfg:     cfg,
		queue:   queue,
		remote:  remote,
		m:       m,
		trigger: make(chan struct{}, 1),
	}
}

// Start launches the engine's background loop.
func (e *Engine) Start(ctx context.Context) {
	ctx, e.cancel = context.WithCancel(ctx)
	e.wg.Add(1)
	go e.run(ctx)
}

// Stop cancels the engine and waits for the in-flight batch, if any, to
// finish. No new batch starts after cancellation.
func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
	}
	e.wg.Wait()
}

// Trigger requests a drain pass. Used on connectivity regained and on
// explicit flushes (walk stop). Never blocks: a trigger during a running
// pass simply schedules one more.
func (e *Engine) Trigger() {
	select {
	case e.trigger <- struct{}{}:
	default:
	}
}

// PendingCounts reports queued records per entity type, for the
// user-facing "pending sync" indicator.
func (e *Engine) PendingCounts() (map[string]int64, error) {
	return e.queue.PendingCounts()
}

func (e *Engine) run(ctx context.Context) {
	defer e.wg.Done()

	backoff := e.cfg.InitialBackoff
	retry := time.NewTimer(0)
	if !retry.Stop() {
		<-retry.C
	}

	var periodic <-chan time.Time
	if e.cfg.FlushInterval > 0 {
		ticker := time.NewTicker(e.cfg.FlushInterval)
		defer ticker.Stop()
		periodic = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-e.trigger:
		case <-retry.C:
		case <-periodic:
		}

		if failed := e.drain(ctx); failed {
			// Unbounded retries, exponential backoff capped at the
			// configured maximum.
			retry.Reset(backoff)
			backoff *= 2
			if backoff > e.cfg.MaxBackoff {
				backoff = e.cfg.MaxBackoff
			}
		} else {
			backoff = e.cfg.InitialBackoff
		}
	}
}

// drain performs one full pass and reports whether anything failed.
func (e *Engine) drain(ctx context.Context) bool {
	failed := false

	// Walks go up individually: a points batch must never reach the
	// remote before the walk it references.
	offset := 0
	for ctx.Err() == nil {
		walks, err := e.queue.ListUnsyncedWalks(e.cfg.BatchSize, offset)
		if err != nil {
			log.Printf("[SyncEngine] Failed to read unsynced walks: %v", err)
			return true
		}
		if len(walks) == 0 {
			break
		}
		for _, walk := range walks {
			if ctx.Err() != nil {
				return failed
			}
			e.m.SyncBatchesAttempted.Inc()
			if err := e.remote.UpsertWalk(ctx, walk); err != nil {
				e.m.SyncBatchesFailed.Inc()
				log.Printf("[SyncEngine] Failed to upsert walk %s: %v", walk.ID, err)
				failed = true
				offset++
				continue
			}
			if err := e.queue.MarkSynced(models.EntityWalk, []string{walk.ID}); err != nil {
				log.Printf("[SyncEngine] Failed to mark walk %s synced: %v", walk.ID, err)
				failed = true
				offset++
				continue
			}
			e.m.SyncBatchesSucceeded.Inc()
		}
	}

	if e.drainPoints(ctx) {
		failed = true
	}
	if e.drainEvents(ctx) {
		failed = true
	}

	e.updatePendingGauge()
	return failed
}

func (e *Engine) drainPoints(ctx context.Context) bool {
	failed := false
	offset := 0
	for ctx.Err() == nil {
		points, err := e.queue.ListUnsyncedPoints(e.cfg.BatchSize, offset)
		if err != nil {
			log.Printf("[SyncEngine] Failed to read unsynced points: %v", err)
			return true
		}
		if len(points) == 0 {
			break
		}

		e.m.SyncBatchesAttempted.Inc()
		if err := e.remote.UpsertTrackPoints(ctx, points); err != nil {
			// The whole batch stays queued; skip past it and keep
			// draining independent batches.
			e.m.SyncBatchesFailed.Inc()
			log.Printf("[SyncEngine] Track point batch failed (%d points): %v", len(points), err)
			failed = true
			offset += len(points)
			continue
		}

		ids := make([]string, len(points))
		for i, p := range points {
			ids[i] = p.ID
		}
		if err := e.queue.MarkSynced(models.EntityTrackPoint, ids); err != nil {
			log.Printf("[SyncEngine] Failed to mark points synced: %v", err)
			failed = true
			offset += len(points)
			continue
		}
		e.m.SyncBatchesSucceeded.Inc()
	}
	return failed
}

func (e *Engine) drainEvents(ctx context.Context) bool {
	failed := false
	offset := 0
	for ctx.Err() == nil {
		events, err := e.queue.ListUnsyncedEvents(e.cfg.BatchSize, offset)
		if err != nil {
			log.Printf("[SyncEngine] Failed to read unsynced events: %v", err)
			return true
		}
		if len(events) == 0 {
			break
		}

		e.m.SyncBatchesAttempted.Inc()
		if err := e.remote.UpsertStopEvents(ctx, events); err != nil {
			e.m.SyncBatchesFailed.Inc()
			log.Printf("[SyncEngine] Stop event batch failed (%d events): %v", len(events), err)
			failed = true
			offset += len(events)
			continue
		}

		ids := make([]string, len(events))
		for i, ev := range events {
			ids[i] = ev.ID
		}
		if err := e.queue.MarkSynced(models.EntityStopEvent, ids); err != nil {
			log.Printf("[SyncEngine] Failed to mark events synced: %v", err)
			failed = true
			offset += len(events)
			continue
		}
		e.m.SyncBatchesSucceeded.Inc()
	}
	return failed
}

func (e *Engine) updatePendingGauge() {
	counts, err := e.queue.PendingCounts()
	if err != nil {
		log.Printf("[SyncEngine] Failed to read pending counts: %v", err)
		return
	}
	var total int64
	for _, c := range counts {
		total += c
	}
	e.m.PendingSync.Set(float64(total))
}
