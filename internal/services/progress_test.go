package services

import (
	"context"
	"testing"

	"github.com/desertthunder/igsky/internal/models"
)

// drainTracker collects every snapshot currently buffered on the stream.
func drainTracker(t *ChannelTracker) []models.ProgressSnapshot {
	var out []models.ProgressSnapshot
	for {
		select {
		case s := <-t.Updates():
			out = append(out, s)
		default:
			return out
		}
	}
}

func TestChannelTracker_Start(t *testing.T) {
	tr := NewChannelTracker()

	if got := tr.Current().Status; got != models.StatusIdle {
		t.Errorf("new tracker should be idle, got %s", got)
	}

	tr.Start(context.Background(), 10, 25)

	got := drainTracker(tr)
	if len(got) != 2 {
		t.Fatalf("expected starting then processing, got %d snapshots", len(got))
	}
	if got[0].Status != models.StatusStarting || got[1].Status != models.StatusProcessing {
		t.Errorf("unexpected statuses: %s, %s", got[0].Status, got[1].Status)
	}
	if got[0].TotalItems != 10 || got[0].TotalMedia != 25 {
		t.Errorf("totals not carried: %+v", got[0])
	}
}

func TestChannelTracker_StartCancelledContext(t *testing.T) {
	tr := NewChannelTracker()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tr.Start(ctx, 5, 5)

	if !tr.Cancelled() {
		t.Error("start under a cancelled context should mark the run cancelled")
	}
	if got := tr.Current().Status; got != models.StatusStarting {
		t.Errorf("run must not reach processing, got %s", got)
	}
}

func TestChannelTracker_Update(t *testing.T) {
	tr := NewChannelTracker()
	tr.Start(context.Background(), 3, 3)
	drainTracker(tr)

	tr.Update(models.Patch{CurrentItem: models.Int(1), Operation: models.Str("uploading photo")})

	current := tr.Current()
	if current.CurrentItem != 1 || current.Operation != "uploading photo" {
		t.Errorf("patch not merged: %+v", current)
	}
	if current.Status != models.StatusProcessing {
		t.Errorf("unpatched fields must survive the merge, got %s", current.Status)
	}

	// An equal merge emits nothing.
	before := len(tr.History())
	tr.Update(models.Patch{CurrentItem: models.Int(1)})
	if len(tr.History()) != before {
		t.Error("no-op patch should not emit")
	}
	if got := drainTracker(tr); len(got) != 1 {
		t.Errorf("expected exactly the one real update on the stream, got %d", len(got))
	}
}

func TestChannelTracker_PauseResume(t *testing.T) {
	tr := NewChannelTracker()

	// Pause before any run is a no-op.
	tr.Pause()
	if tr.Paused() {
		t.Error("cannot pause an idle tracker")
	}

	tr.Start(context.Background(), 3, 3)
	tr.Pause()
	if !tr.Paused() {
		t.Error("expected paused")
	}
	if got := tr.Current().Status; got != models.StatusPaused {
		t.Errorf("expected paused status, got %s", got)
	}

	// Double-pausing emits nothing extra.
	before := len(tr.History())
	tr.Pause()
	if len(tr.History()) != before {
		t.Error("repeated pause should not emit")
	}

	tr.Resume()
	if tr.Paused() {
		t.Error("expected resumed")
	}
	if got := tr.Current().Status; got != models.StatusProcessing {
		t.Errorf("resume should return to processing, got %s", got)
	}

	// Resume without a pause is a no-op.
	before = len(tr.History())
	tr.Resume()
	if len(tr.History()) != before {
		t.Error("resume while running should not emit")
	}
}

func TestChannelTracker_Cancel(t *testing.T) {
	tr := NewChannelTracker()
	tr.Start(context.Background(), 3, 3)
	tr.Pause()

	tr.Cancel()
	if !tr.Cancelled() {
		t.Error("expected cancelled flag")
	}
	if tr.Paused() {
		t.Error("cancel should clear the paused flag")
	}
	if got := tr.Current().Operation; got != cancelledLabel {
		t.Errorf("expected cancellation label, got %q", got)
	}

	// Cancel is advisory: status stays until the pipeline writes the final one.
	if got := tr.Current().Status; got == models.StatusCompleted || got == models.StatusError {
		t.Errorf("cancel must not write a terminal status, got %s", got)
	}

	before := len(tr.History())
	tr.Cancel()
	if len(tr.History()) != before {
		t.Error("repeated cancel should not emit")
	}

	// A new run clears the flag.
	tr.Start(context.Background(), 1, 1)
	if tr.Cancelled() {
		t.Error("restart should clear the cancelled flag")
	}
}

func TestChannelTracker_History(t *testing.T) {
	tr := NewChannelTracker()
	tr.Start(context.Background(), 2, 2)
	tr.Update(models.Patch{CurrentItem: models.Int(1)})
	tr.Update(models.Patch{CurrentItem: models.Int(2), Status: models.Stat(models.StatusCompleted)})

	history := tr.History()
	if len(history) != 4 {
		t.Fatalf("expected 4 snapshots in history, got %d", len(history))
	}
	if history[len(history)-1].Status != models.StatusCompleted {
		t.Errorf("history should end with the terminal snapshot, got %+v", history[len(history)-1])
	}

	// History is a copy.
	history[0].CurrentItem = 99
	if tr.History()[0].CurrentItem == 99 {
		t.Error("history must not alias internal state")
	}
}

func TestChannelTracker_DropOldest(t *testing.T) {
	tr := NewChannelTracker()
	tr.Start(context.Background(), trackerBuffer*2, 0)

	for i := 1; i <= trackerBuffer*2; i++ {
		tr.Update(models.Patch{CurrentItem: models.Int(i)})
	}

	got := drainTracker(tr)
	if len(got) != trackerBuffer {
		t.Fatalf("stream should hold at most %d snapshots, got %d", trackerBuffer, len(got))
	}
	if last := got[len(got)-1]; last.CurrentItem != trackerBuffer*2 {
		t.Errorf("newest snapshot must survive eviction, got item %d", last.CurrentItem)
	}
}
