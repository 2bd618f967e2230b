package workflow

import (
	"time"

	"github.com/desertthunder/igsky/internal/models"
)

// StepCount is the fixed number of wizard steps. CurrentStep may reach
// StepCount exactly, the past-the-end sentinel after the final step completes.
const StepCount = 5

// StepID identifies one of the five fixed wizard steps.
type StepID string

const (
	StepContentUpload      StepID = "content-upload"
	StepBlueskyAuth        StepID = "bluesky-auth"
	StepMigrationConfig    StepID = "migration-config"
	StepMigrationExecution StepID = "migration-execution"
	StepCompletion         StepID = "completion"
)

// StepOrder lists the step identities in wizard order. Indices into
// [WorkflowState.Steps] follow this order.
var StepOrder = [StepCount]StepID{
	StepContentUpload,
	StepBlueskyAuth,
	StepMigrationConfig,
	StepMigrationExecution,
	StepCompletion,
}

// Step indices, for callers that address steps positionally.
const (
	IdxContentUpload = iota
	IdxBlueskyAuth
	IdxMigrationConfig
	IdxMigrationExecution
	IdxCompletion
)

// StepState holds the per-step bookkeeping the store maintains.
type StepState struct {
	ID        StepID
	Completed bool
	Data      any // Step-specific payload, opaque to the store
	Errors    []string
	Warnings  []string
	Progress  int // 0..100
}

// ErrorCategory classifies workflow-level error log entries.
type ErrorCategory string

const (
	ErrValidation ErrorCategory = "validation"
	ErrNetwork    ErrorCategory = "network"
	ErrAuth       ErrorCategory = "auth"
	ErrProcessing ErrorCategory = "processing"
)

// ErrorEntry is one record in the workflow-wide error log, distinct from the
// per-step error lists.
type ErrorEntry struct {
	At       time.Time
	Category ErrorCategory
	Message  string
}

// WorkflowState is the complete wizard state. The store replaces it wholesale
// on every transition; consumers treat received snapshots as immutable.
type WorkflowState struct {
	CurrentStep int
	Steps       [StepCount]StepState
	Imported    []models.Post
	Prepared    []models.PreparedPost
	Session     *models.Session
	Config      models.MigrationConfig
	Progress    models.ProgressSnapshot
	ErrorLog    []ErrorEntry
}

// NewWorkflowState constructs the default state a fresh wizard starts from.
// The result is deterministic: resetting a store yields a state deep-equal to
// a newly constructed one.
func NewWorkflowState() WorkflowState {
	var steps [StepCount]StepState
	for i, id := range StepOrder {
		steps[i] = StepState{ID: id}
	}
	return WorkflowState{
		Steps:    steps,
		Config:   models.DefaultMigrationConfig(),
		Progress: models.ProgressSnapshot{Status: models.StatusIdle},
	}
}

// Completions returns the per-step completion vector.
func (s WorkflowState) Completions() [StepCount]bool {
	var done [StepCount]bool
	for i, step := range s.Steps {
		done[i] = step.Completed
	}
	return done
}

// Finished reports whether the wizard has advanced past the final step.
func (s WorkflowState) Finished() bool { return s.CurrentStep >= StepCount }

// Clone returns a deep copy safe to hand to subscribers.
func (s WorkflowState) Clone() WorkflowState {
	out := s
	for i := range out.Steps {
		out.Steps[i].Errors = cloneStrings(s.Steps[i].Errors)
		out.Steps[i].Warnings = cloneStrings(s.Steps[i].Warnings)
	}
	if s.Imported != nil {
		out.Imported = make([]models.Post, len(s.Imported))
		copy(out.Imported, s.Imported)
	}
	if s.Prepared != nil {
		out.Prepared = make([]models.PreparedPost, len(s.Prepared))
		copy(out.Prepared, s.Prepared)
	}
	if s.Session != nil {
		session := *s.Session
		out.Session = &session
	}
	if s.ErrorLog != nil {
		out.ErrorLog = make([]ErrorEntry, len(s.ErrorLog))
		copy(out.ErrorLog, s.ErrorLog)
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
