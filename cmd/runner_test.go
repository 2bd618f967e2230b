package main

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/igsky/internal/models"
	"github.com/desertthunder/igsky/internal/repositories"
	"github.com/desertthunder/igsky/internal/shared"
	"github.com/desertthunder/igsky/internal/tasks"
	tu "github.com/desertthunder/igsky/internal/testing"
	"github.com/desertthunder/igsky/internal/workflow"
)

func samplePosts(n int) []models.Post {
	posts := make([]models.Post, 0, n)
	for i := 0; i < n; i++ {
		posts = append(posts, models.Post{
			ID:      "post-" + string(rune('a'+i)),
			Caption: "Caption",
			TakenAt: time.Date(2023, time.Month(i+1), 1, 12, 0, 0, 0, time.UTC),
			Media:   []models.MediaFile{{URI: "media/p.jpg", Kind: models.MediaPhoto}},
		})
	}
	return posts
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			importer := &tu.MockImporter{}
			publisher := &tu.MockPublisher{}

			runner := NewRunner(RunnerOpts{
				Config:    config,
				Logger:    logger,
				Output:    output,
				Importer:  importer,
				Publisher: publisher,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.importer != importer {
				t.Error("expected importer to be set")
			}
			if runner.publisher != publisher {
				t.Error("expected publisher to be set")
			}
			if runner.engine == nil {
				t.Error("expected engine to be constructed")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.tracker == nil {
				t.Error("expected default tracker to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if !strings.Contains(output.String(), `{"key":"value"}`) {
				t.Errorf("expected compact JSON, got %s", output.String())
			}
		})

		t.Run("fails on failing writer", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err == nil {
				t.Error("expected write error")
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		runner.writePlain("hello %s\n", "world")
		runner.writePlainln("second")
		runner.writePlainHeader("Header")

		result := output.String()
		for _, want := range []string{"hello world\n", "\nsecond\n", "Header"} {
			if !strings.Contains(result, want) {
				t.Errorf("expected output to contain %q, got %s", want, result)
			}
		}
	})
}

func TestRunSteps(t *testing.T) {
	posts := samplePosts(3)
	importer := &tu.MockImporter{Posts: posts}
	publisher := &tu.MockPublisher{}
	output := &bytes.Buffer{}

	runner := NewRunner(RunnerOpts{
		Importer:  importer,
		Publisher: publisher,
		Output:    output,
	})

	store := workflow.NewStore()
	progressCh := make(chan tasks.ProgressUpdate, 100)

	result, err := runner.runSteps(context.Background(), store, "export.zip", "alice.bsky.social", "abcd-efgh-ijkl-mnop", progressCh, 2)
	close(progressCh)

	if err != nil {
		t.Fatalf("runSteps failed: %v", err)
	}
	if result.Migrated != 3 {
		t.Errorf("expected 3 migrated posts, got %d", result.Migrated)
	}

	snapshot := store.Snapshot()
	for i := 0; i < 4; i++ {
		if !snapshot.Steps[i].Completed {
			t.Errorf("expected step %d to be completed", i)
		}
	}
}

func TestCachePosts(t *testing.T) {
	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()
	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	runRepo := repositories.NewRunRepository(db)
	postRepo := repositories.NewPostRepository(db)

	run := models.NewMigrationRun("did:plc:abc123", "alice.bsky.social", 2)
	if err := runRepo.Create(run); err != nil {
		t.Fatalf("failed to create run: %v", err)
	}

	posts := samplePosts(2)
	store := workflow.NewStore()
	store.SetPrepared([]models.PreparedPost{
		{Source: posts[0], Text: posts[0].Caption, CreatedAt: posts[0].TakenAt},
		{Source: posts[1], Text: posts[1].Caption, CreatedAt: posts[1].TakenAt},
	})

	result := &tasks.ExecutionResult{
		Total:    2,
		Migrated: 1,
		Failed:   1,
		Posted:   []tasks.PostSuccess{{PostID: posts[0].ID, URL: "https://bsky.app/profile/alice.bsky.social/post/abc"}},
		Failures: []tasks.PostFailure{{PostID: posts[1].ID, Error: "boom"}},
	}

	runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})
	runner.cachePosts(store, runRepo, postRepo, result)

	cached, err := postRepo.List(map[string]any{"run_id": run.ID()})
	if err != nil {
		t.Fatalf("failed to list cached posts: %v", err)
	}
	if len(cached) != 2 {
		t.Fatalf("expected 2 cached posts, got %d", len(cached))
	}

	migrated := 0
	for _, post := range cached {
		if post.PostedURL() != "" {
			migrated++
		}
	}
	if migrated != 1 {
		t.Errorf("expected exactly 1 cached post with a URL, got %d", migrated)
	}
}
