package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/igsky/internal/models"
	"github.com/desertthunder/igsky/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func createRun(t *testing.T, repo *RunRepository, handle string) *models.MigrationRun {
	t.Helper()
	run := models.NewMigrationRun("did:plc:abc123", handle, 10)
	if err := repo.Create(run); err != nil {
		t.Fatalf("failed to create run: %v", err)
	}
	return run
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	first, err := NextSequence(db, "runs")
	if err != nil {
		t.Fatalf("failed to get sequence: %v", err)
	}
	second, err := NextSequence(db, "runs")
	if err != nil {
		t.Fatalf("failed to get sequence: %v", err)
	}

	if first != 1 || second != 2 {
		t.Errorf("sequence should increment from 1, got %d then %d", first, second)
	}
}

func TestRunRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)
		run := createRun(t, repo, "alice.bsky.social")

		if run.ID() == "" {
			t.Error("run ID should be set after creation")
		}
		if run.Sequence() != 1 {
			t.Errorf("first run should get sequence 1, got %d", run.Sequence())
		}
	})

	t.Run("CreateInvalid", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)
		run := models.NewMigrationRun("did:plc:abc123", "", 10) // missing handle

		if err := repo.Create(run); err == nil {
			t.Error("expected validation error")
		}
	})

	t.Run("Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)
		created := createRun(t, repo, "alice.bsky.social")

		got, err := repo.Get(created.ID())
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if got.AccountHandle() != "alice.bsky.social" || got.PostsTotal() != 10 {
			t.Errorf("unexpected run: %+v", got)
		}
		if got.Status() != models.RunPending {
			t.Errorf("expected pending status, got %s", got.Status())
		}
		if got.StartedAt() != nil || got.CompletedAt() != nil {
			t.Error("fresh run should have no start/completion timestamps")
		}
	})

	t.Run("GetMissing", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)
		if _, err := repo.Get("nope"); !errors.Is(err, shared.ErrRunNotFound) {
			t.Errorf("expected ErrRunNotFound, got %v", err)
		}
	})

	t.Run("GetBySequence", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)
		createRun(t, repo, "alice.bsky.social")
		second := createRun(t, repo, "bob.bsky.social")

		got, err := repo.GetBySequence(2)
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if got.ID() != second.ID() {
			t.Errorf("expected run %s, got %s", second.ID(), got.ID())
		}
	})

	t.Run("UpdateLifecycle", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)
		run := createRun(t, repo, "alice.bsky.social")

		run.Start()
		if err := repo.Update(run); err != nil {
			t.Fatalf("failed to update run: %v", err)
		}

		run.Finish(models.RunCompleted, 8, 2, "2 of 10 posts failed")
		if err := repo.Update(run); err != nil {
			t.Fatalf("failed to finish run: %v", err)
		}

		got, err := repo.Get(run.ID())
		if err != nil {
			t.Fatal(err)
		}
		if got.Status() != models.RunCompleted {
			t.Errorf("expected completed, got %s", got.Status())
		}
		if got.PostsMigrated() != 8 || got.PostsFailed() != 2 {
			t.Errorf("counts not persisted: migrated=%d failed=%d", got.PostsMigrated(), got.PostsFailed())
		}
		if got.StartedAt() == nil || got.CompletedAt() == nil {
			t.Error("lifecycle timestamps should be persisted")
		}
		if got.ErrorMessage() != "2 of 10 posts failed" {
			t.Errorf("unexpected error message %q", got.ErrorMessage())
		}
	})

	t.Run("SoftDelete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)
		run := createRun(t, repo, "alice.bsky.social")

		if err := repo.Delete(run.ID()); err != nil {
			t.Fatalf("failed to delete run: %v", err)
		}
		if _, err := repo.Get(run.ID()); !errors.Is(err, shared.ErrRunNotFound) {
			t.Errorf("deleted run should not be retrievable, got %v", err)
		}
		if err := repo.Delete(run.ID()); !errors.Is(err, shared.ErrRunNotFound) {
			t.Errorf("double delete should report not found, got %v", err)
		}

		// Row still exists, just flagged.
		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM runs WHERE id = ?", run.ID()).Scan(&count); err != nil {
			t.Fatal(err)
		}
		if count != 1 {
			t.Error("soft delete should keep the row")
		}
	})

	t.Run("List", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)
		first := createRun(t, repo, "alice.bsky.social")
		second := createRun(t, repo, "bob.bsky.social")

		first.Finish(models.RunFailed, 0, 10, "service unavailable")
		if err := repo.Update(first); err != nil {
			t.Fatal(err)
		}

		all, err := repo.List(nil)
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(all) != 2 {
			t.Fatalf("expected 2 runs, got %d", len(all))
		}
		if all[0].ID() != second.ID() {
			t.Error("runs should be listed newest first")
		}

		failed, err := repo.List(map[string]any{"status": string(models.RunFailed)})
		if err != nil {
			t.Fatal(err)
		}
		if len(failed) != 1 || failed[0].ID() != first.ID() {
			t.Errorf("status filter broken: %d runs", len(failed))
		}

		byHandle, err := repo.List(map[string]any{"account_handle": "bob.bsky.social"})
		if err != nil {
			t.Fatal(err)
		}
		if len(byHandle) != 1 || byHandle[0].ID() != second.ID() {
			t.Errorf("handle filter broken: %d runs", len(byHandle))
		}
	})

	t.Run("Latest", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)
		if _, err := repo.Latest(); !errors.Is(err, shared.ErrRunNotFound) {
			t.Errorf("empty table should report not found, got %v", err)
		}

		createRun(t, repo, "alice.bsky.social")
		second := createRun(t, repo, "alice.bsky.social")

		got, err := repo.Latest()
		if err != nil {
			t.Fatal(err)
		}
		if got.ID() != second.ID() {
			t.Error("latest should return the newest run")
		}
	})
}

func TestPostRepository(t *testing.T) {
	source := models.Post{
		Caption:   "beach day",
		TakenAt:   time.Date(2023, 6, 12, 12, 0, 0, 0, time.UTC),
		Media:     []models.MediaFile{{URI: "a.jpg", Kind: models.MediaPhoto}},
		LikeCount: 12,
	}

	t.Run("CreateAndGet", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		runs := NewRunRepository(db)
		run := createRun(t, runs, "alice.bsky.social")

		repo := NewPostRepository(db)
		post := models.NewCachedPost(run.ID(), source, "https://bsky.app/profile/alice.bsky.social/post/abc")
		if err := repo.Create(post); err != nil {
			t.Fatalf("failed to create post: %v", err)
		}

		got, err := repo.Get(post.ID())
		if err != nil {
			t.Fatalf("failed to get post: %v", err)
		}
		if got.Caption() != "beach day" || got.MediaCount() != 1 || got.LikeCount() != 12 {
			t.Errorf("unexpected post: %+v", got)
		}
		if got.PostedURL() == "" {
			t.Error("posted URL should be persisted")
		}
	})

	t.Run("RequiresRun", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewPostRepository(db)
		post := models.NewCachedPost("", source, "")
		if err := repo.Create(post); err == nil {
			t.Error("expected validation error for missing run id")
		}
	})

	t.Run("ListByRun", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		runs := NewRunRepository(db)
		first := createRun(t, runs, "alice.bsky.social")
		second := createRun(t, runs, "alice.bsky.social")

		repo := NewPostRepository(db)
		older := source
		older.TakenAt = source.TakenAt.AddDate(0, -1, 0)

		for _, entry := range []struct {
			runID string
			post  models.Post
		}{
			{first.ID(), source},
			{first.ID(), older},
			{second.ID(), source},
		} {
			if err := repo.Create(models.NewCachedPost(entry.runID, entry.post, "")); err != nil {
				t.Fatal(err)
			}
		}

		posts, err := repo.List(map[string]any{"run_id": first.ID()})
		if err != nil {
			t.Fatalf("failed to list posts: %v", err)
		}
		if len(posts) != 2 {
			t.Fatalf("expected 2 posts for the run, got %d", len(posts))
		}
		if posts[0].TakenAt().After(posts[1].TakenAt()) {
			t.Error("posts should be listed oldest first")
		}
	})

	t.Run("UpdateURL", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		runs := NewRunRepository(db)
		run := createRun(t, runs, "alice.bsky.social")

		repo := NewPostRepository(db)
		post := models.NewCachedPost(run.ID(), source, "")
		if err := repo.Create(post); err != nil {
			t.Fatal(err)
		}

		post.SetPostedURL("https://bsky.app/profile/alice.bsky.social/post/xyz")
		if err := repo.Update(post); err != nil {
			t.Fatalf("failed to update post: %v", err)
		}

		got, err := repo.Get(post.ID())
		if err != nil {
			t.Fatal(err)
		}
		if got.PostedURL() != "https://bsky.app/profile/alice.bsky.social/post/xyz" {
			t.Errorf("URL not updated: %q", got.PostedURL())
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		runs := NewRunRepository(db)
		run := createRun(t, runs, "alice.bsky.social")

		repo := NewPostRepository(db)
		post := models.NewCachedPost(run.ID(), source, "")
		if err := repo.Create(post); err != nil {
			t.Fatal(err)
		}

		if err := repo.Delete(post.ID()); err != nil {
			t.Fatalf("failed to delete post: %v", err)
		}
		if _, err := repo.Get(post.ID()); err == nil {
			t.Error("deleted post should not be retrievable")
		}
	})
}
