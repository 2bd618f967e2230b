package services

import (
	"context"
	"sync"

	"github.com/desertthunder/igsky/internal/models"
)

const (
	trackerBuffer  = 64
	historyLimit   = 512
	cancelledLabel = "cancellation requested"
)

// ChannelTracker implements [Tracker] over a buffered snapshot channel.
//
// Snapshots are delivered in emission order; when a consumer falls behind the
// oldest pending snapshot is evicted so the newest always lands. Pause,
// Resume, and Cancel only flip advisory flags; the posting pipeline checks
// them between items.
type ChannelTracker struct {
	mu        sync.Mutex
	updates   chan models.ProgressSnapshot
	current   models.ProgressSnapshot
	history   []models.ProgressSnapshot
	paused    bool
	cancelled bool
}

// NewChannelTracker creates an idle tracker.
func NewChannelTracker() *ChannelTracker {
	return &ChannelTracker{
		updates: make(chan models.ProgressSnapshot, trackerBuffer),
		current: models.ProgressSnapshot{Status: models.StatusIdle},
	}
}

// Updates returns the live snapshot stream.
func (t *ChannelTracker) Updates() <-chan models.ProgressSnapshot { return t.updates }

// Start begins a run over the given totals: the stream moves through starting
// into processing. Restarting clears the paused and cancelled flags but keeps
// history from prior runs.
func (t *ChannelTracker) Start(ctx context.Context, totalItems, totalMedia int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.paused = false
	t.cancelled = false

	t.current = models.ProgressSnapshot{
		TotalItems: totalItems,
		TotalMedia: totalMedia,
		Status:     models.StatusStarting,
	}
	t.emit()

	if ctx.Err() != nil {
		t.cancelled = true
		return
	}

	t.current.Status = models.StatusProcessing
	t.emit()
}

// Pause suspends progress; the stream stays open.
func (t *ChannelTracker) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.paused || t.current.Status != models.StatusProcessing {
		return
	}
	t.paused = true
	t.current.Status = models.StatusPaused
	t.emit()
}

// Resume continues a paused run.
func (t *ChannelTracker) Resume() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.paused {
		return
	}
	t.paused = false
	t.current.Status = models.StatusProcessing
	t.emit()
}

// Cancel requests cooperative cancellation. The final status is written by
// the pipeline once it observes the flag at an item boundary.
func (t *ChannelTracker) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancelled {
		return
	}
	t.cancelled = true
	t.paused = false
	t.current.Operation = cancelledLabel
	t.emit()
}

// Cancelled reports whether cancellation has been requested.
func (t *ChannelTracker) Cancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelled
}

// Paused reports whether the run is paused.
func (t *ChannelTracker) Paused() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.paused
}

// Update merges a partial snapshot into the current one and emits it.
func (t *ChannelTracker) Update(patch models.Patch) {
	t.mu.Lock()
	defer t.mu.Unlock()
	next := t.current.Merge(patch)
	if next == t.current {
		return
	}
	t.current = next
	t.emit()
}

// Current returns the latest snapshot.
func (t *ChannelTracker) Current() models.ProgressSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// History returns prior snapshots in emission order.
func (t *ChannelTracker) History() []models.ProgressSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]models.ProgressSnapshot, len(t.history))
	copy(out, t.history)
	return out
}

// emit records the current snapshot and pushes it onto the stream, evicting
// the oldest pending snapshot when the consumer lags. Callers hold the lock.
func (t *ChannelTracker) emit() {
	t.history = append(t.history, t.current)
	if len(t.history) > historyLimit {
		t.history = t.history[len(t.history)-historyLimit:]
	}

	for {
		select {
		case t.updates <- t.current:
			return
		default:
		}
		select {
		case <-t.updates:
		default:
		}
	}
}

var _ Tracker = (*ChannelTracker)(nil)
