// In-memory demo implementations of [Importer] and [Publisher]
//
// Selected when the app runs with demo mode enabled, and used as lightweight
// fixtures in tests. They satisfy the exact same contracts as the real
// Instagram/Bluesky services.
package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/desertthunder/igsky/internal/models"
	"github.com/desertthunder/igsky/internal/shared"
)

// DemoImporter implements [Importer] over a fixed set of sample posts.
type DemoImporter struct {
	posts []models.Post
}

// NewDemoImporter creates an importer serving sample posts.
func NewDemoImporter() *DemoImporter {
	base := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)
	posts := make([]models.Post, 0, 6)
	for i := 0; i < 6; i++ {
		posts = append(posts, models.Post{
			ID:      fmt.Sprintf("demo-%d", i+1),
			Caption: fmt.Sprintf("Sample post #%d from the demo export", i+1),
			TakenAt: base.AddDate(0, i, 0),
			Media: []models.MediaFile{
				{URI: fmt.Sprintf("media/posts/demo_%d.jpg", i+1), Kind: models.MediaPhoto},
			},
			LikeCount: (i + 1) * 7,
		})
	}
	return &DemoImporter{posts: posts}
}

func (d *DemoImporter) Name() string { return "Instagram (demo)" }

func (d *DemoImporter) Validate(ctx context.Context, paths []string) (*models.ValidationResult, error) {
	media := 0
	for _, post := range d.posts {
		media += len(post.Media)
	}
	return &models.ValidationResult{
		Valid:      true,
		PostCount:  len(d.posts),
		MediaCount: media,
		Warnings:   []string{"demo mode: using sample posts, no archive was read"},
	}, nil
}

func (d *DemoImporter) Process(ctx context.Context, paths []string) ([]models.PreparedPost, error) {
	prepared := make([]models.PreparedPost, 0, len(d.posts))
	for _, post := range d.posts {
		prepared = append(prepared, PreparePost(post, models.QualityMedium))
	}
	return prepared, nil
}

func (d *DemoImporter) Parse(ctx context.Context, paths []string) ([]models.Post, error) {
	out := make([]models.Post, len(d.posts))
	copy(out, d.posts)
	return out, nil
}

func (d *DemoImporter) EstimateDuration(posts []models.Post) string {
	return (&InstagramImporter{}).EstimateDuration(posts)
}

func (d *DemoImporter) FilterByDateRange(posts []models.Post, start, end *time.Time) []models.Post {
	return (&InstagramImporter{}).FilterByDateRange(posts, start, end)
}

func (d *DemoImporter) ValidateMediaFiles(paths []string) *models.MediaValidation {
	result := &models.MediaValidation{}
	result.Valid = append(result.Valid, paths...)
	return result
}

// DemoPublisher implements [Publisher] without touching the network.
//
// Any well-formed credential pair authenticates; created posts are assigned
// sequential fake URLs.
type DemoPublisher struct {
	mu      sync.Mutex
	session *models.Session
	created []string
}

// NewDemoPublisher creates an offline publisher.
func NewDemoPublisher() *DemoPublisher {
	return &DemoPublisher{}
}

func (d *DemoPublisher) Name() string { return "Bluesky (demo)" }

func (d *DemoPublisher) ValidateCredentials(identifier, secret string) error {
	if identifier == "" || secret == "" {
		return fmt.Errorf("%w: identifier and app password are required", shared.ErrMissingCredentials)
	}
	return nil
}

func (d *DemoPublisher) Authenticate(ctx context.Context, identifier, secret string) (*models.Session, error) {
	if err := d.ValidateCredentials(identifier, secret); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.session = &models.Session{
		DID:       "did:plc:demo0000000000000000000",
		Handle:    identifier,
		AccessJWT: "demo-access-token",
		Service:   "demo://local",
		CreatedAt: time.Now().UTC(),
	}
	return d.session, nil
}

func (d *DemoPublisher) TestConnection(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.session == nil {
		return shared.ErrNotAuthenticated
	}
	return nil
}

func (d *DemoPublisher) CreatePost(ctx context.Context, post models.PreparedPost) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.session == nil {
		return "", shared.ErrNotAuthenticated
	}
	url := fmt.Sprintf("https://bsky.app/profile/%s/post/demo%d", d.session.Handle, len(d.created)+1)
	d.created = append(d.created, url)
	return url, nil
}

// Created returns the URLs of all posts created so far.
func (d *DemoPublisher) Created() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.created))
	copy(out, d.created)
	return out
}

func (d *DemoPublisher) AccountInfo(ctx context.Context) (*models.Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.session == nil {
		return nil, shared.ErrNotAuthenticated
	}
	return &models.Account{
		DID:         d.session.DID,
		Handle:      d.session.Handle,
		DisplayName: "Demo Account",
		Description: "Offline demo account",
		Posts:       len(d.created),
	}, nil
}

var (
	_ Importer  = (*DemoImporter)(nil)
	_ Importer  = (*InstagramImporter)(nil)
	_ Publisher = (*DemoPublisher)(nil)
	_ Publisher = (*BlueskyService)(nil)
)
