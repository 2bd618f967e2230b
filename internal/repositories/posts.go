package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/igsky/internal/models"
	"github.com/desertthunder/igsky/internal/shared"
)

// PostRepository implements models.Repository[*models.CachedPost] for the
// per-run post cache.
type PostRepository struct {
	db *sql.DB
}

// NewPostRepository creates a new PostRepository with the given database connection
func NewPostRepository(db *sql.DB) *PostRepository {
	return &PostRepository{db: db}
}

// Create inserts a cached post with a generated ID
func (r *PostRepository) Create(post *models.CachedPost) error {
	post.SetID(shared.GenerateID())

	if err := post.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO posts (
			id, run_id, caption, taken_at, media_count, like_count,
			posted_url, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		post.ID(),
		post.RunID(),
		post.Caption(),
		post.TakenAt(),
		post.MediaCount(),
		post.LikeCount(),
		nullableString(post.PostedURL()),
		post.CreatedAt(),
		post.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}

	return nil
}

// Get retrieves a cached post by ID
func (r *PostRepository) Get(id string) (*models.CachedPost, error) {
	return scanPost(r.db.QueryRow(postSelect+" WHERE id = ?", id))
}

// Update modifies an existing cached post
func (r *PostRepository) Update(post *models.CachedPost) error {
	if err := post.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		UPDATE posts
		SET caption = ?, posted_url = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query,
		post.Caption(),
		nullableString(post.PostedURL()),
		time.Now().UTC(),
		post.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("post not found: %s", post.ID())
	}

	return nil
}

// Delete removes a cached post by ID
func (r *PostRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM posts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("post not found: %s", id)
	}

	return nil
}

// List retrieves cached posts matching the given criteria. Supported
// criteria: run_id.
func (r *PostRepository) List(criteria map[string]any) ([]*models.CachedPost, error) {
	query := postSelect
	args := []any{}

	if runID, ok := criteria["run_id"].(string); ok && runID != "" {
		query += " WHERE run_id = ?"
		args = append(args, runID)
	}

	query += " ORDER BY taken_at ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	defer rows.Close()

	var posts []*models.CachedPost
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return posts, nil
}

const postSelect = `
	SELECT
		id, run_id, caption, taken_at, media_count, like_count,
		posted_url, created_at, updated_at
	FROM posts`

// scanPost scans a posts row into a [models.CachedPost]
func scanPost(row rowScanner) (*models.CachedPost, error) {
	var (
		id         string
		runID      string
		caption    sql.NullString
		takenAt    sql.NullTime
		mediaCount int
		likeCount  int
		postedURL  sql.NullString
		createdAt  time.Time
		updatedAt  time.Time
	)

	err := row.Scan(
		&id, &runID, &caption, &takenAt, &mediaCount, &likeCount,
		&postedURL, &createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("post not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan post: %w", err)
	}

	post := &models.CachedPost{}
	post.Hydrate(id, runID, caption.String, takenAt.Time, mediaCount, likeCount, postedURL.String, createdAt, updatedAt)
	return post, nil
}
