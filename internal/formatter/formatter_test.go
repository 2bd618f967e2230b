package formatter

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/igsky/internal/models"
)

func sampleRun(t *testing.T) *models.MigrationRun {
	t.Helper()
	run := models.NewMigrationRun("did:plc:abc123", "alice.bsky.social", 3)
	run.SetID("run-1")
	run.SetSequence(7)
	run.Start()
	run.Finish(models.RunCompleted, 2, 1, "1 of 3 posts failed")
	return run
}

func samplePosts(runID string) []*models.CachedPost {
	migrated := models.NewCachedPost(runID, models.Post{
		Caption:   "beach day",
		TakenAt:   time.Date(2023, 6, 12, 12, 0, 0, 0, time.UTC),
		Media:     []models.MediaFile{{URI: "a.jpg"}},
		LikeCount: 12,
	}, "https://bsky.app/profile/alice.bsky.social/post/abc")

	failed := models.NewCachedPost(runID, models.Post{
		Caption: "lost one",
		TakenAt: time.Date(2023, 7, 1, 9, 0, 0, 0, time.UTC),
	}, "")

	return []*models.CachedPost{migrated, failed}
}

func TestReportToCSV(t *testing.T) {
	run := sampleRun(t)
	data, err := ReportToCSV(run, samplePosts(run.ID()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(records))
	}
	if records[0][0] != "Caption" || records[0][5] != "URL" {
		t.Errorf("unexpected header: %v", records[0])
	}
	if records[1][4] != "migrated" || records[2][4] != "failed" {
		t.Errorf("unexpected statuses: %v / %v", records[1], records[2])
	}
	if records[1][5] == "" {
		t.Error("migrated row should carry its URL")
	}
}

func TestReportToMarkdown(t *testing.T) {
	run := sampleRun(t)
	data, err := ReportToMarkdown(run, samplePosts(run.ID()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := string(data)

	for _, want := range []string{
		"# Migration run #7",
		"@alice.bsky.social",
		"2 migrated, 1 failed of 3",
		"> 1 of 3 posts failed",
		"## Posts",
		"[view](https://bsky.app/profile/alice.bsky.social/post/abc)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q:\n%s", want, out)
		}
	}
}

func TestReportToMarkdown_NoPosts(t *testing.T) {
	run := sampleRun(t)
	data, err := ReportToMarkdown(run, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(string(data), "## Posts") {
		t.Error("posts section should be omitted when there are none")
	}
}

func TestReportToText(t *testing.T) {
	run := sampleRun(t)
	data, err := ReportToText(run, samplePosts(run.ID()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := string(data)

	if !strings.Contains(out, "Run #7 (@alice.bsky.social)") {
		t.Errorf("missing run header:\n%s", out)
	}
	if !strings.Contains(out, "[migrated]") || !strings.Contains(out, "[failed]") {
		t.Errorf("missing per-post statuses:\n%s", out)
	}
}

func TestReportToJSON(t *testing.T) {
	run := sampleRun(t)
	data, err := ReportToJSON(run, samplePosts(run.ID()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var report map[string]any
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if report["sequence"] != float64(7) {
		t.Errorf("unexpected sequence %v", report["sequence"])
	}
	if report["account_handle"] != "alice.bsky.social" {
		t.Errorf("unexpected handle %v", report["account_handle"])
	}
	posts, ok := report["posts"].([]any)
	if !ok || len(posts) != 2 {
		t.Fatalf("expected 2 posts in report, got %v", report["posts"])
	}
}

func TestWriteReport(t *testing.T) {
	run := sampleRun(t)
	posts := samplePosts(run.ID())

	tests := []struct {
		format string
		ext    string
	}{
		{"csv", ".csv"},
		{"markdown", ".md"},
		{"txt", ".txt"},
		{"json", ".json"},
		{"", ".json"},
	}

	for _, tt := range tests {
		t.Run("format_"+tt.format, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "report"+tt.ext)
			written, err := WriteReport(run, posts, tt.format, path)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if written != path {
				t.Errorf("expected %s, got %s", path, written)
			}
			info, err := os.Stat(written)
			if err != nil {
				t.Fatalf("report file missing: %v", err)
			}
			if info.Size() == 0 {
				t.Error("report file is empty")
			}
		})
	}

	t.Run("default path", func(t *testing.T) {
		t.Chdir(t.TempDir())

		written, err := WriteReport(run, posts, "json", "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if written != "run_7_report.json" {
			t.Errorf("unexpected default path %s", written)
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		if _, err := WriteReport(run, posts, "xml", ""); err == nil {
			t.Error("expected an error for unknown format")
		}
	})
}
