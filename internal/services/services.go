// package services defines the capability contracts for the migration wizard
//
// Instagram export import, Bluesky publishing, progress tracking
package services

import (
	"context"
	"time"

	"github.com/desertthunder/igsky/internal/models"
)

// Importer defines the content-import contract: reading an Instagram data
// export and turning it into posts ready for migration.
//
// Validate and Process are independently callable; Process does not require a
// prior successful Validate, though callers conventionally sequence them.
// Both may take significant wall-clock time on large archives and accept a
// context for cancellation.
type Importer interface {
	// Validate inspects the export at the given paths (archive or unpacked
	// directory) and reports item/media counts plus any shape problems.
	Validate(ctx context.Context, paths []string) (*models.ValidationResult, error)

	// Parse reads the export and returns the raw posts, oldest first.
	Parse(ctx context.Context, paths []string) ([]models.Post, error)

	// Process parses the export and returns posts prepared for publishing.
	Process(ctx context.Context, paths []string) ([]models.PreparedPost, error)

	// EstimateDuration returns a human-readable estimate for migrating the
	// given posts, e.g. "about 3 minutes".
	EstimateDuration(posts []models.Post) string

	// FilterByDateRange returns the posts whose creation time falls within
	// [start, end]. Nil endpoints are unbounded.
	FilterByDateRange(posts []models.Post, start, end *time.Time) []models.Post

	// ValidateMediaFiles partitions media paths into usable files and files
	// rejected with a reason.
	ValidateMediaFiles(paths []string) *models.MediaValidation

	// Name returns the name of the import source (e.g., "Instagram")
	Name() string
}

// Publisher defines the remote-posting contract against a Bluesky PDS.
//
// Operations fail by returning errors. None are idempotent at the remote end:
// calling CreatePost twice creates two posts, so callers must not retry
// blindly.
type Publisher interface {
	// Authenticate performs a full session-creating login and returns the
	// session handle on success.
	Authenticate(ctx context.Context, identifier, secret string) (*models.Session, error)

	// ValidateCredentials is a cheap local pre-check of credential shape,
	// distinct from a full Authenticate round trip.
	ValidateCredentials(identifier, secret string) error

	// TestConnection verifies the current session is still usable.
	TestConnection(ctx context.Context) error

	// CreatePost publishes a prepared post, uploading its media, and returns
	// the URL of the created post.
	CreatePost(ctx context.Context, post models.PreparedPost) (string, error)

	// AccountInfo fetches the authenticated account's profile.
	AccountInfo(ctx context.Context) (*models.Account, error)

	// Name returns the name of the destination service (e.g., "Bluesky")
	Name() string
}

// Tracker defines the progress-tracking contract for a migration run.
//
// Updates exposes a live, restartable stream of snapshots: one update per
// item at minimum, delivered in order. Pause, Resume, and Cancel are
// advisory; workers check them between items, never mid-item.
type Tracker interface {
	// Updates returns the live snapshot stream. The stream survives
	// Pause/Resume/Cancel; a new Start restarts it from idle.
	Updates() <-chan models.ProgressSnapshot

	// Start begins a run over the given totals, moving the stream through
	// starting into processing.
	Start(ctx context.Context, totalItems, totalMedia int)

	// Pause suspends progress without terminating the stream.
	Pause()

	// Resume continues a paused run.
	Resume()

	// Cancel requests cooperative cancellation of the run.
	Cancel()

	// Cancelled reports whether cancellation has been requested.
	Cancelled() bool

	// Paused reports whether the run is currently paused.
	Paused() bool

	// Update merges a partial snapshot into the current one and emits it.
	Update(patch models.Patch)

	// Current returns the latest snapshot.
	Current() models.ProgressSnapshot

	// History returns prior snapshots in emission order.
	History() []models.ProgressSnapshot
}
