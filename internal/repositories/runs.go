package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/igsky/internal/models"
	"github.com/desertthunder/igsky/internal/shared"
)

// RunRepository implements models.Repository[*models.MigrationRun] for run history.
//
// Handles migration run CRUD operations with soft delete support and
// status-based queries.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a new migration run into the database with generated ID and sequence
func (r *RunRepository) Create(run *models.MigrationRun) error {
	sequence, err := NextSequence(r.db, "runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	run.SetID(shared.GenerateID())
	run.SetSequence(sequence)

	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO runs (
			id, sequence, account_did, account_handle, status,
			posts_total, posts_migrated, posts_failed, error_message,
			started_at, completed_at, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		run.ID(),
		run.Sequence(),
		nullableString(run.AccountDID()),
		run.AccountHandle(),
		string(run.Status()),
		run.PostsTotal(),
		run.PostsMigrated(),
		run.PostsFailed(),
		nullableString(run.ErrorMessage()),
		run.StartedAt(),
		run.CompletedAt(),
		run.CreatedAt(),
		run.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	return nil
}

// Get retrieves a migration run by ID, excluding soft-deleted runs
func (r *RunRepository) Get(id string) (*models.MigrationRun, error) {
	query := runSelect + " WHERE id = ? AND deleted_at IS NULL"
	return scanRun(r.db.QueryRow(query, id))
}

// GetBySequence retrieves a migration run by its human-readable number.
func (r *RunRepository) GetBySequence(sequence int) (*models.MigrationRun, error) {
	query := runSelect + " WHERE sequence = ? AND deleted_at IS NULL"
	return scanRun(r.db.QueryRow(query, sequence))
}

// Latest retrieves the most recent run, excluding soft-deleted runs.
func (r *RunRepository) Latest() (*models.MigrationRun, error) {
	query := runSelect + " WHERE deleted_at IS NULL ORDER BY sequence DESC LIMIT 1"
	return scanRun(r.db.QueryRow(query))
}

// Update modifies an existing migration run in the database
func (r *RunRepository) Update(run *models.MigrationRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		UPDATE runs
		SET status = ?, posts_total = ?, posts_migrated = ?, posts_failed = ?,
			error_message = ?, started_at = ?, completed_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		string(run.Status()),
		run.PostsTotal(),
		run.PostsMigrated(),
		run.PostsFailed(),
		nullableString(run.ErrorMessage()),
		run.StartedAt(),
		run.CompletedAt(),
		run.UpdatedAt(),
		run.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrRunNotFound, run.ID())
	}

	return nil
}

// Delete soft-deletes a migration run by ID
func (r *RunRepository) Delete(id string) error {
	query := `
		UPDATE runs
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrRunNotFound, id)
	}

	return nil
}

// List retrieves all migration runs matching the given criteria, excluding
// soft-deleted runs. Supported criteria: status, account_handle.
func (r *RunRepository) List(criteria map[string]any) ([]*models.MigrationRun, error) {
	query := runSelect + " WHERE deleted_at IS NULL"
	args := []any{}

	if status, ok := criteria["status"].(string); ok && status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}

	if handle, ok := criteria["account_handle"].(string); ok && handle != "" {
		query += " AND account_handle = ?"
		args = append(args, handle)
	}

	query += " ORDER BY sequence DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.MigrationRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

const runSelect = `
	SELECT
		id, sequence, account_did, account_handle, status,
		posts_total, posts_migrated, posts_failed, error_message,
		started_at, completed_at, created_at, updated_at, deleted_at
	FROM runs`

// rowScanner abstracts sql.Row and sql.Rows so one scan path serves both.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanRun scans a runs row into a [models.MigrationRun]
func scanRun(row rowScanner) (*models.MigrationRun, error) {
	var (
		id            string
		sequence      int
		accountDID    sql.NullString
		accountHandle string
		status        string
		postsTotal    int
		postsMigrated int
		postsFailed   int
		errorMessage  sql.NullString
		startedAt     sql.NullTime
		completedAt   sql.NullTime
		createdAt     time.Time
		updatedAt     time.Time
		deletedAt     sql.NullTime
	)

	err := row.Scan(
		&id, &sequence, &accountDID, &accountHandle, &status,
		&postsTotal, &postsMigrated, &postsFailed, &errorMessage,
		&startedAt, &completedAt, &createdAt, &updatedAt, &deletedAt,
	)
	if err == sql.ErrNoRows {
		return nil, shared.ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	run := &models.MigrationRun{}
	run.Hydrate(
		id, sequence,
		accountDID.String, accountHandle,
		models.RunStatus(status),
		postsTotal, postsMigrated, postsFailed,
		errorMessage.String,
		nullableTime(startedAt), nullableTime(completedAt),
		createdAt, updatedAt,
		nullableTime(deletedAt),
	)
	return run, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
