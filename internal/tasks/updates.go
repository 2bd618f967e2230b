package tasks

import (
	"fmt"

	"github.com/desertthunder/igsky/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	ValidateExport Phase = iota
	ParseExport
	Authenticate
	PreparePosts
	CreatePosts
	Summarize
)

func (p Phase) String() string {
	switch p {
	case ValidateExport:
		return "validate_export"
	case ParseExport:
		return "parse_export"
	case Authenticate:
		return "authenticate"
	case PreparePosts:
		return "prepare_posts"
	case CreatePosts:
		return "create_posts"
	case Summarize:
		return "summarize"
	default:
		return ""
	}
}

func validatingUpdate(paths []string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ValidateExport,
		Step:    1,
		Total:   2,
		Message: fmt.Sprintf("Validating export (%d path(s))...", len(paths)),
	}
}

func parsedUpdate(validation *models.ValidationResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ParseExport,
		Step:    2,
		Total:   2,
		Message: fmt.Sprintf("Found %d posts with %d media files", validation.PostCount, validation.MediaCount),
		Data:    validation,
	}
}

func authenticatingUpdate(identifier string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Authenticate,
		Step:    1,
		Total:   2,
		Message: fmt.Sprintf("Authenticating %s...", identifier),
	}
}

func authenticatedUpdate(session *models.Session) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Authenticate,
		Step:    2,
		Total:   2,
		Message: fmt.Sprintf("Signed in as @%s", session.Handle),
		Data:    session,
	}
}

func preparingUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PreparePosts,
		Step:    1,
		Total:   2,
		Message: fmt.Sprintf("Preparing %d posts...", total),
	}
}

func preparedUpdate(kept, skipped int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PreparePosts,
		Step:    2,
		Total:   2,
		Message: fmt.Sprintf("Prepared %d posts (%d filtered out)", kept, skipped),
	}
}

func postingUpdate(step, total int, post models.PreparedPost) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePosts,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Posting %s", step, total, postLabel(post)),
	}
}

func postedUpdate(step, total int, post models.PreparedPost, url string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePosts,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s", step, total, postLabel(post)),
		Data:    url,
	}
}

func postFailedUpdate(step, total int, post models.PreparedPost, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePosts,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, postLabel(post), err),
	}
}

func summaryUpdate(result *ExecutionResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Summarize,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Migrated %d/%d posts (%d failed)", result.Migrated, result.Total, result.Failed),
		Data:    result,
	}
}

// postLabel derives a short display label from a prepared post's text.
func postLabel(post models.PreparedPost) string {
	text := post.Text
	if text == "" {
		if len(post.Media) > 0 {
			return fmt.Sprintf("untitled post (%d media)", len(post.Media))
		}
		return "untitled post"
	}
	runes := []rune(text)
	if len(runes) > 40 {
		return string(runes[:40]) + "..."
	}
	return text
}
