// package formatter provides functions to export migration run reports to
// various formats (CSV, Markdown, JSON, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/desertthunder/igsky/internal/models"
	"github.com/desertthunder/igsky/internal/shared"
)

// timeOrDash renders an optional timestamp for report output.
func timeOrDash(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(time.RFC3339)
}

// postStatus renders a cached post's outcome.
func postStatus(post *models.CachedPost) string {
	if post.PostedURL() == "" {
		return "failed"
	}
	return "migrated"
}

// ReportToCSV converts a run and its posts to CSV with columns:
// Caption, TakenAt, Media, Likes, Status, URL
func ReportToCSV(run *models.MigrationRun, posts []*models.CachedPost) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Caption", "TakenAt", "Media", "Likes", "Status", "URL"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, post := range posts {
		record := []string{
			post.Caption(),
			post.TakenAt().Format(time.RFC3339),
			strconv.Itoa(post.MediaCount()),
			strconv.Itoa(post.LikeCount()),
			postStatus(post),
			post.PostedURL(),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ReportToMarkdown converts a run and its posts to Markdown
func ReportToMarkdown(run *models.MigrationRun, posts []*models.CachedPost) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# Migration run #%d\n\n", run.Sequence()))
	buf.WriteString(fmt.Sprintf("**Account**: @%s\n", run.AccountHandle()))
	buf.WriteString(fmt.Sprintf("**Status**: %s\n", run.Status()))
	buf.WriteString(fmt.Sprintf("**Posts**: %d migrated, %d failed of %d\n", run.PostsMigrated(), run.PostsFailed(), run.PostsTotal()))
	buf.WriteString(fmt.Sprintf("**Started**: %s\n", timeOrDash(run.StartedAt())))
	buf.WriteString(fmt.Sprintf("**Completed**: %s\n\n", timeOrDash(run.CompletedAt())))

	if run.ErrorMessage() != "" {
		buf.WriteString(fmt.Sprintf("> %s\n\n", run.ErrorMessage()))
	}

	if len(posts) == 0 {
		return buf.Bytes(), nil
	}

	buf.WriteString("## Posts\n\n")
	for i, post := range posts {
		caption := post.Caption()
		if caption == "" {
			caption = "(no caption)"
		}
		line := fmt.Sprintf("%d. %s (%s", i+1, caption, post.TakenAt().Format("2006-01-02"))
		if post.MediaCount() > 0 {
			line += fmt.Sprintf(", %d media", post.MediaCount())
		}
		line += ")"
		if url := post.PostedURL(); url != "" {
			line += fmt.Sprintf(" - [view](%s)", url)
		} else {
			line += " - failed"
		}
		buf.WriteString(line + "\n")
	}

	return buf.Bytes(), nil
}

// ReportToText converts a run and its posts to plain text
func ReportToText(run *models.MigrationRun, posts []*models.CachedPost) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Run #%d (@%s)\n", run.Sequence(), run.AccountHandle()))
	buf.WriteString(fmt.Sprintf("Status: %s\n", run.Status()))
	buf.WriteString(fmt.Sprintf("Posts: %d migrated, %d failed of %d\n", run.PostsMigrated(), run.PostsFailed(), run.PostsTotal()))
	if run.ErrorMessage() != "" {
		buf.WriteString(fmt.Sprintf("Note: %s\n", run.ErrorMessage()))
	}
	buf.WriteString("\n")

	for i, post := range posts {
		caption := post.Caption()
		if caption == "" {
			caption = "(no caption)"
		}
		buf.WriteString(fmt.Sprintf("%d. [%s] %s %s\n", i+1, postStatus(post), post.TakenAt().Format("2006-01-02"), caption))
		if url := post.PostedURL(); url != "" {
			buf.WriteString(fmt.Sprintf("   %s\n", url))
		}
	}

	return buf.Bytes(), nil
}

// runReport is the JSON report payload.
type runReport struct {
	Sequence      int          `json:"sequence"`
	AccountDID    string       `json:"account_did,omitempty"`
	AccountHandle string       `json:"account_handle"`
	Status        string       `json:"status"`
	PostsTotal    int          `json:"posts_total"`
	PostsMigrated int          `json:"posts_migrated"`
	PostsFailed   int          `json:"posts_failed"`
	ErrorMessage  string       `json:"error_message,omitempty"`
	StartedAt     *time.Time   `json:"started_at,omitempty"`
	CompletedAt   *time.Time   `json:"completed_at,omitempty"`
	Posts         []reportPost `json:"posts,omitempty"`
}

type reportPost struct {
	Caption    string    `json:"caption,omitempty"`
	TakenAt    time.Time `json:"taken_at"`
	MediaCount int       `json:"media_count"`
	LikeCount  int       `json:"like_count"`
	Status     string    `json:"status"`
	URL        string    `json:"url,omitempty"`
}

// ReportToJSON converts a run and its posts to an indented JSON document
func ReportToJSON(run *models.MigrationRun, posts []*models.CachedPost) ([]byte, error) {
	report := runReport{
		Sequence:      run.Sequence(),
		AccountDID:    run.AccountDID(),
		AccountHandle: run.AccountHandle(),
		Status:        string(run.Status()),
		PostsTotal:    run.PostsTotal(),
		PostsMigrated: run.PostsMigrated(),
		PostsFailed:   run.PostsFailed(),
		ErrorMessage:  run.ErrorMessage(),
		StartedAt:     run.StartedAt(),
		CompletedAt:   run.CompletedAt(),
	}
	for _, post := range posts {
		report.Posts = append(report.Posts, reportPost{
			Caption:    post.Caption(),
			TakenAt:    post.TakenAt(),
			MediaCount: post.MediaCount(),
			LikeCount:  post.LikeCount(),
			Status:     postStatus(post),
			URL:        post.PostedURL(),
		})
	}
	return shared.MarshalJSON(report, true)
}

// WriteReport renders a run report in the given format and writes it to path.
//
// Format is one of csv, markdown, json, txt (default json). An empty path
// defaults to run_{sequence}_report.{ext}.
func WriteReport(run *models.MigrationRun, posts []*models.CachedPost, format, path string) (string, error) {
	var (
		data []byte
		err  error
		ext  string
	)

	switch format {
	case "csv":
		data, err = ReportToCSV(run, posts)
		ext = "csv"
	case "markdown", "md":
		data, err = ReportToMarkdown(run, posts)
		ext = "md"
	case "txt", "text":
		data, err = ReportToText(run, posts)
		ext = "txt"
	case "json", "":
		data, err = ReportToJSON(run, posts)
		ext = "json"
	default:
		return "", fmt.Errorf("%w: unknown report format %q", shared.ErrInvalidArgument, format)
	}
	if err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}

	if path == "" {
		path = fmt.Sprintf("run_%d_report.%s", run.Sequence(), ext)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}
