package workflow

import (
	"reflect"
	"sync"
	"time"

	"github.com/desertthunder/igsky/internal/models"
)

// subBuffer sizes each subscriber channel. When a subscriber falls this far
// behind, the oldest pending snapshot is dropped so the newest always lands.
const subBuffer = 64

// Store is the single authority over [WorkflowState].
//
// All operations are safe for concurrent use; engine goroutines and the UI
// event loop may report into the same store. Operations never return errors:
// out-of-range step indices and unsatisfied preconditions are silent no-ops,
// matching the trusted-caller contract of the wizard.
type Store struct {
	mu       sync.Mutex
	state    WorkflowState
	subs     map[int]chan WorkflowState
	stepSubs map[int]chan int
	doneSubs map[int]chan [StepCount]bool
	nextID   int
}

// NewStore creates a store holding a fresh default [WorkflowState].
func NewStore() *Store {
	return &Store{
		state:    NewWorkflowState(),
		subs:     make(map[int]chan WorkflowState),
		stepSubs: make(map[int]chan int),
		doneSubs: make(map[int]chan [StepCount]bool),
	}
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() WorkflowState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Subscribe attaches an observer to every committed state change. The latest
// snapshot is replayed immediately; later snapshots arrive in commit order.
// The returned func detaches the observer and closes the channel.
func (s *Store) Subscribe() (<-chan WorkflowState, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan WorkflowState, subBuffer)
	ch <- s.state.Clone()
	s.subs[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(ch)
		}
	}
}

// SubscribeStep attaches an observer to the current step index only,
// deduplicated by index equality.
func (s *Store) SubscribeStep() (<-chan int, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan int, subBuffer)
	ch <- s.state.CurrentStep
	s.stepSubs[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.stepSubs[id]; ok {
			delete(s.stepSubs, id)
			close(ch)
		}
	}
}

// SubscribeCompletions attaches an observer to the per-step completion
// vector only, deduplicated by vector equality.
func (s *Store) SubscribeCompletions() (<-chan [StepCount]bool, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan [StepCount]bool, subBuffer)
	ch <- s.state.Completions()
	s.doneSubs[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.doneSubs[id]; ok {
			delete(s.doneSubs, id)
			close(ch)
		}
	}
}

// Advance moves to the next step when the active step is completed.
// No-op when the active step is incomplete or the index already sits at the
// past-the-end sentinel: the index is clamped to [0, StepCount].
func (s *Store) Advance() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.CurrentStep >= StepCount {
		return
	}
	if !s.state.Steps[s.state.CurrentStep].Completed {
		return
	}
	next := s.state.Clone()
	next.CurrentStep++
	s.commit(next)
}

// Retreat moves to the previous step. No-op at index zero.
func (s *Store) Retreat() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.CurrentStep == 0 {
		return
	}
	next := s.state.Clone()
	next.CurrentStep--
	s.commit(next)
}

// CompleteStep marks step i completed. Idempotent: completing an already
// completed step commits nothing. Completion is monotonic; only [Store.Reset]
// or [Store.UndoStep] clears it.
func (s *Store) CompleteStep(i int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i < 0 || i >= StepCount || s.state.Steps[i].Completed {
		return
	}
	next := s.state.Clone()
	next.Steps[i].Completed = true
	s.commit(next)
}

// UndoStep is the explicit per-step reset, e.g. logging out clears the auth
// step. It reverts completion and drops the step's data, errors, warnings,
// and progress.
func (s *Store) UndoStep(i int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i < 0 || i >= StepCount {
		return
	}
	next := s.state.Clone()
	next.Steps[i] = StepState{ID: StepOrder[i]}
	s.commit(next)
}

// SetStepData replaces the payload for step i. Writes structurally equal to
// the step's current payload commit nothing.
func (s *Store) SetStepData(i int, data any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i < 0 || i >= StepCount {
		return
	}
	if reflect.DeepEqual(s.state.Steps[i].Data, data) {
		return
	}
	next := s.state.Clone()
	next.Steps[i].Data = data
	s.commit(next)
}

// SetStepProgress sets step i's progress percentage, clamped to 0..100.
func (s *Store) SetStepProgress(i, pct int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i < 0 || i >= StepCount {
		return
	}
	if pct < 0 {
		pct = 0
	} else if pct > 100 {
		pct = 100
	}
	if s.state.Steps[i].Progress == pct {
		return
	}
	next := s.state.Clone()
	next.Steps[i].Progress = pct
	s.commit(next)
}

// AddStepError appends msg to step i's error list unless already present.
func (s *Store) AddStepError(i int, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendStepMessage(i, msg, false)
}

// AddStepWarning appends msg to step i's warning list unless already present.
func (s *Store) AddStepWarning(i int, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendStepMessage(i, msg, true)
}

func (s *Store) appendStepMessage(i int, msg string, warning bool) {
	if i < 0 || i >= StepCount {
		return
	}
	existing := s.state.Steps[i].Errors
	if warning {
		existing = s.state.Steps[i].Warnings
	}
	for _, m := range existing {
		if m == msg {
			return
		}
	}
	next := s.state.Clone()
	if warning {
		next.Steps[i].Warnings = append(next.Steps[i].Warnings, msg)
	} else {
		next.Steps[i].Errors = append(next.Steps[i].Errors, msg)
	}
	s.commit(next)
}

// SetImported replaces the raw imported posts.
func (s *Store) SetImported(posts []models.Post) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.state.Clone()
	next.Imported = posts
	s.commit(next)
}

// SetPrepared replaces the processed posts ready for publishing.
func (s *Store) SetPrepared(posts []models.PreparedPost) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.state.Clone()
	next.Prepared = posts
	s.commit(next)
}

// SetSession stores the authenticated session handle; nil clears it.
func (s *Store) SetSession(session *models.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.state.Clone()
	next.Session = session
	s.commit(next)
}

// SetConfig replaces the migration configuration.
func (s *Store) SetConfig(cfg models.MigrationConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.state.Clone()
	next.Config = cfg
	s.commit(next)
}

// SetProgress replaces the workflow-wide progress snapshot.
func (s *Store) SetProgress(p models.ProgressSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.state.Clone()
	next.Progress = p
	s.commit(next)
}

// MergeProgress applies a partial progress update.
func (s *Store) MergeProgress(p models.Patch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.state.Clone()
	next.Progress = next.Progress.Merge(p)
	s.commit(next)
}

// LogError appends a workflow-level error record. The log is append-only;
// entries survive step navigation and are cleared only by [Store.Reset].
func (s *Store) LogError(category ErrorCategory, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.state.Clone()
	next.ErrorLog = append(next.ErrorLog, ErrorEntry{
		At:       time.Now().UTC(),
		Category: category,
		Message:  msg,
	})
	s.commit(next)
}

// Reset replaces the entire state with a fresh default instance and notifies
// unconditionally, even when the state was already pristine.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = NewWorkflowState()
	s.broadcast()
}

// commit installs next as the current state and notifies subscribers, unless
// next is structurally equal to the current state. Returns whether a commit
// happened. Callers must hold the lock.
func (s *Store) commit(next WorkflowState) bool {
	if reflect.DeepEqual(s.state, next) {
		return false
	}
	prevStep := s.state.CurrentStep
	prevDone := s.state.Completions()

	s.state = next

	for _, ch := range s.subs {
		deliver(ch, s.state.Clone())
	}
	if s.state.CurrentStep != prevStep {
		for _, ch := range s.stepSubs {
			deliver(ch, s.state.CurrentStep)
		}
	}
	if done := s.state.Completions(); done != prevDone {
		for _, ch := range s.doneSubs {
			deliver(ch, done)
		}
	}
	return true
}

// broadcast notifies every subscriber with the current state regardless of
// equality. Used by Reset. Callers must hold the lock.
func (s *Store) broadcast() {
	for _, ch := range s.subs {
		deliver(ch, s.state.Clone())
	}
	for _, ch := range s.stepSubs {
		deliver(ch, s.state.CurrentStep)
	}
	for _, ch := range s.doneSubs {
		deliver(ch, s.state.Completions())
	}
}

// deliver pushes v onto ch, evicting the oldest pending value when the
// buffer is full so a slow subscriber still observes the newest state.
func deliver[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
