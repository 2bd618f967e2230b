package models

import (
	"time"
)

// MediaKind enumerates the media types found in an Instagram export.
type MediaKind string

const (
	MediaPhoto MediaKind = "photo"
	MediaVideo MediaKind = "video"
)

// MediaQuality selects the quality tier used when re-encoding media for upload.
type MediaQuality string

const (
	QualityLow    MediaQuality = "low"
	QualityMedium MediaQuality = "medium"
	QualityHigh   MediaQuality = "high"
)

// MediaFile represents a single photo or video attached to a post.
type MediaFile struct {
	URI     string    // Path within the export archive or on disk
	Kind    MediaKind // photo or video
	Size    int64     // Size in bytes, 0 when unknown
	TakenAt time.Time // Capture timestamp when present
}

// Post represents a post parsed from an Instagram data export.
type Post struct {
	ID        string
	Caption   string
	TakenAt   time.Time
	Media     []MediaFile
	LikeCount int
	Comments  []string
}

// PreparedPost is a post transformed and ready for publishing to Bluesky.
type PreparedPost struct {
	Source    Post
	Text      string      // Caption adjusted to the destination's length limit
	Media     []MediaFile // Filtered to supported media types
	Quality   MediaQuality
	CreatedAt time.Time // Original creation time carried onto the new record
}

// ValidationResult summarizes an export archive validation pass.
type ValidationResult struct {
	Valid      bool
	PostCount  int
	MediaCount int
	Warnings   []string
	Errors     []string
}

// MediaProblem describes a media file rejected during validation.
type MediaProblem struct {
	Path   string
	Reason string
}

// MediaValidation partitions media files into usable and rejected sets.
type MediaValidation struct {
	Valid   []string
	Invalid []MediaProblem
}

// Session is an authenticated Bluesky session handle.
type Session struct {
	DID        string
	Handle     string
	AccessJWT  string
	RefreshJWT string
	Service    string // Base URL of the PDS the session was created against
	CreatedAt  time.Time
}

// Account represents a Bluesky account profile.
type Account struct {
	DID         string
	Handle      string
	DisplayName string
	Description string
	Avatar      string
	Followers   int
	Follows     int
	Posts       int
}

// DateRange bounds post selection by creation time. Nil endpoints are unbounded.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

// Contains reports whether t falls within the range.
func (r DateRange) Contains(t time.Time) bool {
	if r.Start != nil && t.Before(*r.Start) {
		return false
	}
	if r.End != nil && t.After(*r.End) {
		return false
	}
	return true
}

// MigrationConfig holds the user-selected filters and batching options for a run.
type MigrationConfig struct {
	IncludeLikes    bool
	IncludeComments bool
	DateRange       DateRange
	MediaQuality    MediaQuality
	BatchSize       int
}

// DefaultMigrationConfig returns the configuration applied to a fresh workflow.
func DefaultMigrationConfig() MigrationConfig {
	return MigrationConfig{
		IncludeLikes:    true,
		IncludeComments: true,
		MediaQuality:    QualityMedium,
		BatchSize:       10,
	}
}
