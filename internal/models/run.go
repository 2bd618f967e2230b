package models

import (
	"fmt"
	"time"
)

// RunStatus enumerates the lifecycle states of a migration run.
type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
	RunCancelled RunStatus = "cancelled"
)

var runStatuses = map[RunStatus]bool{
	RunPending:   true,
	RunRunning:   true,
	RunCompleted: true,
	RunFailed:    true,
	RunCancelled: true,
}

// MigrationRun records a single migration from an Instagram export to a Bluesky account.
//
// Implements [Model]. Fields are private and exposed through accessors so the
// repository layer controls mutation of identity and timestamps.
type MigrationRun struct {
	id            string
	sequence      int
	accountDID    string
	accountHandle string
	status        RunStatus
	postsTotal    int
	postsMigrated int
	postsFailed   int
	errorMessage  string
	startedAt     *time.Time
	completedAt   *time.Time
	createdAt     time.Time
	updatedAt     time.Time
	deletedAt     *time.Time
}

// NewMigrationRun creates a pending run for the given account.
func NewMigrationRun(did, handle string, total int) *MigrationRun {
	now := time.Now().UTC()
	return &MigrationRun{
		accountDID:    did,
		accountHandle: handle,
		status:        RunPending,
		postsTotal:    total,
		createdAt:     now,
		updatedAt:     now,
	}
}

func (m *MigrationRun) ID() string            { return m.id }
func (m *MigrationRun) Sequence() int         { return m.sequence }
func (m *MigrationRun) AccountDID() string    { return m.accountDID }
func (m *MigrationRun) AccountHandle() string { return m.accountHandle }
func (m *MigrationRun) Status() RunStatus     { return m.status }
func (m *MigrationRun) PostsTotal() int       { return m.postsTotal }
func (m *MigrationRun) PostsMigrated() int    { return m.postsMigrated }
func (m *MigrationRun) PostsFailed() int      { return m.postsFailed }
func (m *MigrationRun) ErrorMessage() string  { return m.errorMessage }
func (m *MigrationRun) StartedAt() *time.Time { return m.startedAt }
func (m *MigrationRun) CreatedAt() time.Time  { return m.createdAt }
func (m *MigrationRun) UpdatedAt() time.Time  { return m.updatedAt }

// CompletedAt returns when the run finished, or nil while in flight.
func (m *MigrationRun) CompletedAt() *time.Time { return m.completedAt }

// DeletedAt returns the soft-delete timestamp, or nil for live rows.
func (m *MigrationRun) DeletedAt() *time.Time { return m.deletedAt }

// SetID assigns the unique identifier. Called once by the repository on create.
func (m *MigrationRun) SetID(id string) { m.id = id }

// SetSequence assigns the human-readable ordering number.
func (m *MigrationRun) SetSequence(seq int) { m.sequence = seq }

// Start marks the run as in flight.
func (m *MigrationRun) Start() {
	now := time.Now().UTC()
	m.status = RunRunning
	m.startedAt = &now
	m.touch()
}

// Finish records final counts and a terminal status.
func (m *MigrationRun) Finish(status RunStatus, migrated, failed int, errMsg string) {
	now := time.Now().UTC()
	m.status = status
	m.postsMigrated = migrated
	m.postsFailed = failed
	m.errorMessage = errMsg
	m.completedAt = &now
	m.touch()
}

// MarkDeleted soft-deletes the run.
func (m *MigrationRun) MarkDeleted() {
	now := time.Now().UTC()
	m.deletedAt = &now
	m.touch()
}

func (m *MigrationRun) touch() { m.updatedAt = time.Now().UTC() }

// Validate checks the run's data before persistence.
func (m *MigrationRun) Validate() error {
	if m.accountHandle == "" {
		return fmt.Errorf("migration run requires an account handle")
	}
	if !runStatuses[m.status] {
		return fmt.Errorf("invalid run status: %s", m.status)
	}
	if m.postsTotal < 0 || m.postsMigrated < 0 || m.postsFailed < 0 {
		return fmt.Errorf("post counts cannot be negative")
	}
	if m.postsMigrated+m.postsFailed > m.postsTotal {
		return fmt.Errorf("migrated (%d) + failed (%d) exceeds total (%d)", m.postsMigrated, m.postsFailed, m.postsTotal)
	}
	return nil
}

// Hydrate restores a run from persisted columns. Used by repository scans only.
func (m *MigrationRun) Hydrate(id string, sequence int, did, handle string, status RunStatus, total, migrated, failed int, errMsg string, startedAt, completedAt *time.Time, createdAt, updatedAt time.Time, deletedAt *time.Time) {
	m.id = id
	m.sequence = sequence
	m.accountDID = did
	m.accountHandle = handle
	m.status = status
	m.postsTotal = total
	m.postsMigrated = migrated
	m.postsFailed = failed
	m.errorMessage = errMsg
	m.startedAt = startedAt
	m.completedAt = completedAt
	m.createdAt = createdAt
	m.updatedAt = updatedAt
	m.deletedAt = deletedAt
}
