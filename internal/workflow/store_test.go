package workflow

import (
	"reflect"
	"testing"

	"github.com/desertthunder/igsky/internal/models"
)

func completeAll(s *Store) {
	for i := 0; i < StepCount; i++ {
		s.CompleteStep(i)
	}
}

// drain empties a subscription channel and returns the number of pending
// snapshots plus the last one observed.
func drain(ch <-chan WorkflowState) (int, WorkflowState) {
	var last WorkflowState
	n := 0
	for {
		select {
		case state := <-ch:
			last = state
			n++
		default:
			return n, last
		}
	}
}

func TestNewStore(t *testing.T) {
	store := NewStore()
	state := store.Snapshot()

	if state.CurrentStep != 0 {
		t.Errorf("expected current step 0, got %d", state.CurrentStep)
	}
	for i, step := range state.Steps {
		if step.Completed {
			t.Errorf("step %d should start incomplete", i)
		}
		if step.ID != StepOrder[i] {
			t.Errorf("step %d: expected id %s, got %s", i, StepOrder[i], step.ID)
		}
	}
	if state.Progress.Status != models.StatusIdle {
		t.Errorf("expected idle progress, got %s", state.Progress.Status)
	}

	cfg := state.Config
	if !cfg.IncludeLikes || !cfg.IncludeComments {
		t.Error("likes and comments should be included by default")
	}
	if cfg.MediaQuality != models.QualityMedium {
		t.Errorf("expected medium quality default, got %s", cfg.MediaQuality)
	}
	if cfg.BatchSize != 10 {
		t.Errorf("expected batch size 10, got %d", cfg.BatchSize)
	}
	if cfg.DateRange.Start != nil || cfg.DateRange.End != nil {
		t.Error("date range should default to unbounded")
	}
}

func TestNavigation(t *testing.T) {
	t.Run("AdvanceGatedOnCompletion", func(t *testing.T) {
		store := NewStore()

		store.Advance()
		if got := store.Snapshot().CurrentStep; got != 0 {
			t.Errorf("advance on incomplete step should no-op, got index %d", got)
		}

		store.CompleteStep(0)
		store.Advance()
		if got := store.Snapshot().CurrentStep; got != 1 {
			t.Errorf("expected index 1 after completing step 0, got %d", got)
		}
	})

	t.Run("RetreatFloorsAtZero", func(t *testing.T) {
		store := NewStore()
		store.CompleteStep(0)
		store.Advance()

		store.Retreat()
		if got := store.Snapshot().CurrentStep; got != 0 {
			t.Errorf("expected index 0 after retreat, got %d", got)
		}
		store.Retreat()
		if got := store.Snapshot().CurrentStep; got != 0 {
			t.Errorf("retreat at 0 should no-op, got %d", got)
		}
	})

	t.Run("RetreatKeepsCompletion", func(t *testing.T) {
		store := NewStore()
		store.CompleteStep(0)
		store.Advance()
		store.Retreat()

		if !store.Snapshot().Steps[0].Completed {
			t.Error("navigating back must not un-complete a step")
		}
	})

	t.Run("ClampAtSentinel", func(t *testing.T) {
		store := NewStore()
		completeAll(store)

		for i := 0; i < StepCount; i++ {
			store.Advance()
		}
		if got := store.Snapshot().CurrentStep; got != StepCount {
			t.Fatalf("expected sentinel index %d, got %d", StepCount, got)
		}

		ch, cancel := store.Subscribe()
		defer cancel()
		drain(ch)

		store.Advance()
		if got := store.Snapshot().CurrentStep; got != StepCount {
			t.Errorf("advance past sentinel should clamp, got %d", got)
		}
		if n, _ := drain(ch); n != 0 {
			t.Errorf("clamped advance must not notify, got %d snapshots", n)
		}
	})
}

func TestCompleteStep(t *testing.T) {
	t.Run("Idempotent", func(t *testing.T) {
		store := NewStore()
		store.CompleteStep(2)

		ch, cancel := store.Subscribe()
		defer cancel()
		drain(ch)

		store.CompleteStep(2)
		if n, _ := drain(ch); n != 0 {
			t.Errorf("re-completing a step must not notify, got %d snapshots", n)
		}
	})

	t.Run("IgnoresOutOfRange", func(t *testing.T) {
		store := NewStore()
		before := store.Snapshot()
		store.CompleteStep(-1)
		store.CompleteStep(StepCount)
		if !reflect.DeepEqual(before, store.Snapshot()) {
			t.Error("out-of-range indices must leave state untouched")
		}
	})

	t.Run("UndoStepReverts", func(t *testing.T) {
		store := NewStore()
		store.CompleteStep(IdxBlueskyAuth)
		store.SetStepData(IdxBlueskyAuth, "session-data")
		store.AddStepWarning(IdxBlueskyAuth, "token near expiry")

		store.UndoStep(IdxBlueskyAuth)
		step := store.Snapshot().Steps[IdxBlueskyAuth]
		if step.Completed {
			t.Error("undo should clear completion")
		}
		if step.Data != nil || len(step.Warnings) != 0 || len(step.Errors) != 0 {
			t.Error("undo should clear data, errors, and warnings")
		}
		if step.ID != StepBlueskyAuth {
			t.Errorf("undo must preserve step identity, got %s", step.ID)
		}
	})
}

func TestDedup(t *testing.T) {
	t.Run("StepDataStructuralEquality", func(t *testing.T) {
		store := NewStore()
		ch, cancel := store.Subscribe()
		defer cancel()
		drain(ch)

		payload := map[string]int{"posts": 42}
		store.SetStepData(0, payload)
		if n, _ := drain(ch); n != 1 {
			t.Fatalf("first write should notify once, got %d", n)
		}

		// Distinct value, equal structure: must not commit.
		store.SetStepData(0, map[string]int{"posts": 42})
		if n, _ := drain(ch); n != 0 {
			t.Errorf("structurally equal write must not notify, got %d", n)
		}

		store.SetStepData(0, map[string]int{"posts": 43})
		if n, _ := drain(ch); n != 1 {
			t.Errorf("changed write should notify once, got %d", n)
		}
	})

	t.Run("StepProgress", func(t *testing.T) {
		store := NewStore()
		ch, cancel := store.Subscribe()
		defer cancel()
		drain(ch)

		store.SetStepProgress(3, 50)
		store.SetStepProgress(3, 50)
		if n, _ := drain(ch); n != 1 {
			t.Errorf("repeated progress write should notify once, got %d", n)
		}
		if got := store.Snapshot().Steps[3].Progress; got != 50 {
			t.Errorf("expected progress 50, got %d", got)
		}
	})

	t.Run("ProgressClamped", func(t *testing.T) {
		store := NewStore()
		store.SetStepProgress(0, 250)
		if got := store.Snapshot().Steps[0].Progress; got != 100 {
			t.Errorf("expected clamp to 100, got %d", got)
		}
		store.SetStepProgress(0, -5)
		if got := store.Snapshot().Steps[0].Progress; got != 0 {
			t.Errorf("expected clamp to 0, got %d", got)
		}
	})

	t.Run("ErrorsAndWarnings", func(t *testing.T) {
		store := NewStore()

		store.AddStepError(1, "bad creds")
		store.AddStepError(1, "bad creds")
		store.AddStepError(1, "network down")
		store.AddStepWarning(1, "slow response")
		store.AddStepWarning(1, "slow response")

		step := store.Snapshot().Steps[1]
		if len(step.Errors) != 2 {
			t.Errorf("expected 2 distinct errors, got %v", step.Errors)
		}
		if len(step.Warnings) != 1 {
			t.Errorf("expected 1 distinct warning, got %v", step.Warnings)
		}
		if step.Errors[0] != "bad creds" || step.Errors[1] != "network down" {
			t.Errorf("errors should preserve append order, got %v", step.Errors)
		}
	})
}

func TestReset(t *testing.T) {
	store := NewStore()
	completeAll(store)
	store.Advance()
	store.SetStepData(0, "archive.zip")
	store.AddStepError(3, "upload failed")
	store.SetImported([]models.Post{{ID: "p1"}})
	store.SetSession(&models.Session{Handle: "user.bsky.social"})
	store.LogError(ErrNetwork, "PDS unreachable")

	store.Reset()

	fresh := NewStore().Snapshot()
	if !reflect.DeepEqual(store.Snapshot(), fresh) {
		t.Error("reset state should deep-equal a freshly constructed store's state")
	}

	t.Run("NotifiesUnconditionally", func(t *testing.T) {
		store := NewStore()
		ch, cancel := store.Subscribe()
		defer cancel()
		drain(ch)

		// State is already pristine; reset must still notify.
		store.Reset()
		if n, _ := drain(ch); n != 1 {
			t.Errorf("reset should always notify, got %d snapshots", n)
		}
	})
}

func TestSubscribe(t *testing.T) {
	t.Run("ReplaysLatestOnAttach", func(t *testing.T) {
		store := NewStore()
		store.CompleteStep(0)
		store.Advance()
		store.SetStepData(1, "creds")

		ch, cancel := store.Subscribe()
		defer cancel()

		first := <-ch
		if first.CurrentStep != 1 {
			t.Errorf("new subscriber should see latest state, got index %d", first.CurrentStep)
		}
		if first.Steps[1].Data != "creds" {
			t.Errorf("new subscriber should see latest step data, got %v", first.Steps[1].Data)
		}
	})

	t.Run("DeliversInCommitOrder", func(t *testing.T) {
		store := NewStore()
		ch, cancel := store.Subscribe()
		defer cancel()
		drain(ch)

		store.SetStepProgress(0, 10)
		store.SetStepProgress(0, 20)
		store.SetStepProgress(0, 30)

		want := []int{10, 20, 30}
		for _, pct := range want {
			state := <-ch
			if state.Steps[0].Progress != pct {
				t.Fatalf("expected progress %d, got %d", pct, state.Steps[0].Progress)
			}
		}
	})

	t.Run("SnapshotIsIsolated", func(t *testing.T) {
		store := NewStore()
		store.AddStepError(0, "first")

		snap := store.Snapshot()
		snap.Steps[0].Errors[0] = "mutated"
		snap.CurrentStep = 3

		state := store.Snapshot()
		if state.Steps[0].Errors[0] != "first" {
			t.Error("mutating a snapshot must not affect the store")
		}
		if state.CurrentStep != 0 {
			t.Error("mutating a snapshot must not affect navigation")
		}
	})

	t.Run("UnsubscribeCloses", func(t *testing.T) {
		store := NewStore()
		ch, cancel := store.Subscribe()
		cancel()
		cancel() // double-cancel is safe

		if _, ok := <-ch; ok {
			// replayed initial snapshot
			if _, ok := <-ch; ok {
				t.Error("channel should be closed after unsubscribe")
			}
		}
	})
}

func TestNarrowViews(t *testing.T) {
	t.Run("StepIndexView", func(t *testing.T) {
		store := NewStore()
		ch, cancel := store.SubscribeStep()
		defer cancel()

		if got := <-ch; got != 0 {
			t.Fatalf("expected initial index 0, got %d", got)
		}

		// Mutations that do not change the index stay silent on this view.
		store.CompleteStep(0)
		store.SetStepData(0, "x")
		select {
		case got := <-ch:
			t.Fatalf("index view should not fire for non-index changes, got %d", got)
		default:
		}

		store.Advance()
		if got := <-ch; got != 1 {
			t.Errorf("expected index 1, got %d", got)
		}
	})

	t.Run("CompletionVectorView", func(t *testing.T) {
		store := NewStore()
		ch, cancel := store.SubscribeCompletions()
		defer cancel()
		<-ch

		store.SetStepProgress(0, 30)
		select {
		case <-ch:
			t.Fatal("completion view should not fire for progress changes")
		default:
		}

		store.CompleteStep(0)
		done := <-ch
		if !done[0] || done[1] {
			t.Errorf("expected only step 0 complete, got %v", done)
		}
	})
}

func TestErrorLog(t *testing.T) {
	store := NewStore()
	store.LogError(ErrValidation, "missing posts_1.json")
	store.LogError(ErrNetwork, "timeout")
	store.LogError(ErrNetwork, "timeout") // workflow log is append-only, not deduped

	log := store.Snapshot().ErrorLog
	if len(log) != 3 {
		t.Fatalf("expected 3 log entries, got %d", len(log))
	}
	if log[0].Category != ErrValidation || log[1].Category != ErrNetwork {
		t.Errorf("unexpected categories: %v", log)
	}
	for _, entry := range log {
		if entry.At.IsZero() {
			t.Error("log entries should be timestamped")
		}
	}
}

func TestFullTraversal(t *testing.T) {
	store := NewStore()

	for i := 0; i < StepCount; i++ {
		if got := store.Snapshot().CurrentStep; got != i {
			t.Fatalf("expected index %d, got %d", i, got)
		}
		store.CompleteStep(i)
		store.Advance()
	}

	state := store.Snapshot()
	if state.CurrentStep != StepCount {
		t.Errorf("expected sentinel index %d after full traversal, got %d", StepCount, state.CurrentStep)
	}
	if !state.Finished() {
		t.Error("workflow should report finished past the final step")
	}
	for i, step := range state.Steps {
		if !step.Completed {
			t.Errorf("step %d should be completed", i)
		}
	}
}

func TestProgressMerge(t *testing.T) {
	store := NewStore()
	store.SetProgress(models.ProgressSnapshot{
		TotalItems: 40,
		TotalMedia: 90,
		Status:     models.StatusStarting,
	})

	store.MergeProgress(models.Patch{
		CurrentItem: models.Int(3),
		Status:      models.Stat(models.StatusProcessing),
		Operation:   models.Str("uploading media"),
	})

	p := store.Snapshot().Progress
	if p.CurrentItem != 3 || p.TotalItems != 40 || p.TotalMedia != 90 {
		t.Errorf("merge should preserve unset fields, got %+v", p)
	}
	if p.Status != models.StatusProcessing || p.Operation != "uploading media" {
		t.Errorf("merge should apply set fields, got %+v", p)
	}

	t.Run("EqualMergeDoesNotNotify", func(t *testing.T) {
		ch, cancel := store.Subscribe()
		defer cancel()
		drain(ch)

		store.MergeProgress(models.Patch{CurrentItem: models.Int(3)})
		if n, _ := drain(ch); n != 0 {
			t.Errorf("no-op merge must not notify, got %d", n)
		}
	})
}
