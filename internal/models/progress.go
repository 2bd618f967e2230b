package models

// Status enumerates the lifecycle of a migration execution.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusStarting   Status = "starting"
	StatusProcessing Status = "processing"
	StatusPaused     Status = "paused"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// ProgressSnapshot is a point-in-time view of migration execution progress.
//
// Items count whole posts; media counts individual photo/video uploads within
// the current run.
type ProgressSnapshot struct {
	CurrentItem  int
	TotalItems   int
	CurrentMedia int
	TotalMedia   int
	Status       Status
	ETA          string // Human-readable estimate, e.g. "about 2 minutes"
	Operation    string // Label for the in-flight operation, empty when idle
}

// Patch carries partial progress updates. Nil fields leave the snapshot's
// current value untouched.
type Patch struct {
	CurrentItem  *int
	TotalItems   *int
	CurrentMedia *int
	TotalMedia   *int
	Status       *Status
	ETA          *string
	Operation    *string
}

// Merge applies a patch and returns the updated snapshot.
func (s ProgressSnapshot) Merge(p Patch) ProgressSnapshot {
	if p.CurrentItem != nil {
		s.CurrentItem = *p.CurrentItem
	}
	if p.TotalItems != nil {
		s.TotalItems = *p.TotalItems
	}
	if p.CurrentMedia != nil {
		s.CurrentMedia = *p.CurrentMedia
	}
	if p.TotalMedia != nil {
		s.TotalMedia = *p.TotalMedia
	}
	if p.Status != nil {
		s.Status = *p.Status
	}
	if p.ETA != nil {
		s.ETA = *p.ETA
	}
	if p.Operation != nil {
		s.Operation = *p.Operation
	}
	return s
}

// Int returns a pointer to v for use in a [Patch].
func Int(v int) *int { return &v }

// Str returns a pointer to v for use in a [Patch].
func Str(v string) *string { return &v }

// Stat returns a pointer to v for use in a [Patch].
func Stat(v Status) *Status { return &v }
