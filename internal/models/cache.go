package models

import (
	"fmt"
	"time"
)

// CachedPost is a migrated post persisted alongside its run for history and
// report output.
//
// Implements [Model].
type CachedPost struct {
	id         string
	runID      string
	caption    string
	takenAt    time.Time
	mediaCount int
	likeCount  int
	postedURL  string
	createdAt  time.Time
	updatedAt  time.Time
}

// NewCachedPost creates a cache entry linking a source post to the run that
// migrated it. postedURL may be empty for posts that failed to migrate.
func NewCachedPost(runID string, source Post, postedURL string) *CachedPost {
	now := time.Now().UTC()
	return &CachedPost{
		runID:      runID,
		caption:    source.Caption,
		takenAt:    source.TakenAt,
		mediaCount: len(source.Media),
		likeCount:  source.LikeCount,
		postedURL:  postedURL,
		createdAt:  now,
		updatedAt:  now,
	}
}

func (p *CachedPost) ID() string           { return p.id }
func (p *CachedPost) RunID() string        { return p.runID }
func (p *CachedPost) Caption() string      { return p.caption }
func (p *CachedPost) TakenAt() time.Time   { return p.takenAt }
func (p *CachedPost) MediaCount() int      { return p.mediaCount }
func (p *CachedPost) LikeCount() int       { return p.likeCount }
func (p *CachedPost) PostedURL() string    { return p.postedURL }
func (p *CachedPost) CreatedAt() time.Time { return p.createdAt }
func (p *CachedPost) UpdatedAt() time.Time { return p.updatedAt }

// SetID assigns the unique identifier. Called once by the repository on create.
func (p *CachedPost) SetID(id string) { p.id = id }

// SetPostedURL records the destination URL after a successful migration.
func (p *CachedPost) SetPostedURL(url string) {
	p.postedURL = url
	p.updatedAt = time.Now().UTC()
}

// Validate checks the cache entry before persistence.
func (p *CachedPost) Validate() error {
	if p.runID == "" {
		return fmt.Errorf("cached post requires a run id")
	}
	if p.mediaCount < 0 || p.likeCount < 0 {
		return fmt.Errorf("counts cannot be negative")
	}
	return nil
}

// Hydrate restores a cached post from persisted columns. Used by repository scans only.
func (p *CachedPost) Hydrate(id, runID, caption string, takenAt time.Time, mediaCount, likeCount int, postedURL string, createdAt, updatedAt time.Time) {
	p.id = id
	p.runID = runID
	p.caption = caption
	p.takenAt = takenAt
	p.mediaCount = mediaCount
	p.likeCount = likeCount
	p.postedURL = postedURL
	p.createdAt = createdAt
	p.updatedAt = updatedAt
}
