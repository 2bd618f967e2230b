package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/desertthunder/igsky/internal/models"
	"github.com/desertthunder/igsky/internal/tasks"
	"github.com/desertthunder/igsky/internal/workflow"
)

var stepLabels = [workflow.StepCount]string{
	"Upload",
	"Sign in",
	"Configure",
	"Migrate",
	"Done",
}

func nextQuality(q models.MediaQuality) models.MediaQuality {
	switch q {
	case models.QualityLow:
		return models.QualityMedium
	case models.QualityMedium:
		return models.QualityHigh
	default:
		return models.QualityLow
	}
}

// renderBreadcrumb draws the five-step trail with completion marks.
func (m *Model) renderBreadcrumb() string {
	parts := make([]string, 0, workflow.StepCount)
	for i, label := range stepLabels {
		entry := fmt.Sprintf("%d. %s", i+1, label)
		switch {
		case m.state.Steps[i].Completed:
			entry = styles.ok.Render(entry + " ✓")
		case i == m.state.CurrentStep:
			entry = styles.title.Render(entry)
		default:
			entry = styles.help.Render(entry)
		}
		parts = append(parts, entry)
	}
	return strings.Join(parts, "  ")
}

func (m *Model) renderUpload() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Import your Instagram export"))
	b.WriteString("\n\nPath to the export archive or directory:\n\n")
	b.WriteString(m.pathInput.View())
	b.WriteString("\n")

	if m.busy {
		b.WriteString("\n" + styles.warn.Render("Validating export..."))
	}
	if m.err != nil {
		b.WriteString("\n" + styles.err.Render("Error: "+m.err.Error()))
	}

	step := m.state.Steps[workflow.IdxContentUpload]
	if v, ok := step.Data.(*models.ValidationResult); ok && v != nil && v.Valid {
		b.WriteString("\n" + styles.ok.Render(fmt.Sprintf("Found %d posts with %d media files", v.PostCount, v.MediaCount)))
	}
	for _, warning := range step.Warnings {
		b.WriteString("\n" + styles.warn.Render("warning: "+warning))
	}

	b.WriteString("\n\n" + m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.quit}))
	return b.String()
}

func (m *Model) renderAuth() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Connect your Bluesky account"))
	b.WriteString("\n\nHandle or DID:\n")
	b.WriteString(m.handleInput.View())
	b.WriteString("\n\nApp password:\n")
	b.WriteString(m.passwordInput.View())
	b.WriteString("\n")

	if m.busy {
		b.WriteString("\n" + styles.warn.Render("Signing in..."))
	}
	if m.err != nil {
		b.WriteString("\n" + styles.err.Render("Error: "+m.err.Error()))
	}
	if m.state.Session != nil {
		b.WriteString("\n" + styles.ok.Render("Signed in as @"+m.state.Session.Handle))
	}

	b.WriteString("\n\n" + m.help.ShortHelpView([]key.Binding{m.keys.tab, m.keys.enter, m.keys.back}))
	return b.String()
}

func (m *Model) renderConfig() string {
	cfg := m.state.Config
	lines := [configOptionCount]string{
		"Include like counts    " + checkbox(cfg.IncludeLikes),
		"Include comment counts " + checkbox(cfg.IncludeComments),
		fmt.Sprintf("Media quality          ‹%s›", cfg.MediaQuality),
		"Start migration",
	}

	var b strings.Builder
	b.WriteString(styles.title.Render("Configure the migration"))
	b.WriteString(fmt.Sprintf("\n\n%d posts imported\n\n", len(m.state.Imported)))

	for i, line := range lines {
		cursor := "  "
		if configOption(i) == m.cursor {
			cursor = styles.title.Render("> ")
			line = styles.title.Render(line)
		}
		b.WriteString(cursor + line + "\n")
	}

	if m.busy {
		b.WriteString("\n" + styles.warn.Render("Preparing posts..."))
	}
	if m.err != nil {
		b.WriteString("\n" + styles.err.Render("Error: "+m.err.Error()))
	}

	b.WriteString("\n" + m.help.ShortHelpView([]key.Binding{m.keys.up, m.keys.down, m.keys.toggle, m.keys.enter, m.keys.back}))
	return b.String()
}

func (m *Model) renderExecution() string {
	p := m.state.Progress

	var b strings.Builder
	b.WriteString(styles.title.Render("Migrating posts"))
	b.WriteString("\n\n")
	b.WriteString(progressBar(p.CurrentItem, p.TotalItems, 40))
	b.WriteString(fmt.Sprintf(" %d/%d posts\n", p.CurrentItem, p.TotalItems))

	switch p.Status {
	case models.StatusPaused:
		b.WriteString("\n" + styles.warn.Render("Paused"))
	case models.StatusError:
		b.WriteString("\n" + styles.err.Render("Stopped"))
	default:
		if p.Operation != "" {
			b.WriteString("\n" + p.Operation)
		}
	}
	if p.ETA != "" {
		b.WriteString("\n" + styles.help.Render("ETA: "+p.ETA))
	}
	if m.lastProgress.Message != "" {
		b.WriteString("\n" + styles.help.Render(m.lastProgress.Message))
	}

	failures := m.state.Steps[workflow.IdxMigrationExecution].Errors
	if n := len(failures); n > 0 {
		b.WriteString("\n" + styles.err.Render(fmt.Sprintf("%d failed", n)))
		b.WriteString("\n" + styles.err.Render("  "+failures[n-1]))
	}

	b.WriteString("\n\n" + m.help.ShortHelpView([]key.Binding{m.keys.pause, m.keys.resume, m.keys.cancel, m.keys.quit}))
	return b.String()
}

func (m *Model) renderCompletion() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Migration complete"))
	b.WriteString("\n\n")

	result := m.result
	if result == nil {
		if data, ok := m.state.Steps[workflow.IdxCompletion].Data.(*tasks.ExecutionResult); ok && data != nil {
			result = data
		}
	}
	if result == nil {
		b.WriteString("No migration has run yet.\n")
	} else {
		b.WriteString(summaryLines(result.Total, result.Migrated, result.Failed, result.Cancelled))
		for i, posted := range result.Posted {
			if i >= 5 {
				b.WriteString(styles.help.Render(fmt.Sprintf("  ...and %d more\n", len(result.Posted)-i)))
				break
			}
			b.WriteString("  " + posted.URL + "\n")
		}
	}

	if m.err != nil {
		b.WriteString("\n" + styles.err.Render("Error: "+m.err.Error()))
	}

	b.WriteString("\n" + styles.help.Render("Run `igsky report` for a full summary."))
	b.WriteString("\n\n" + m.help.ShortHelpView([]key.Binding{m.keys.restart, m.keys.quit}))
	return b.String()
}

func summaryLines(total, migrated, failed int, cancelled bool) string {
	var b strings.Builder
	b.WriteString(styles.ok.Render(fmt.Sprintf("Migrated %d of %d posts", migrated, total)) + "\n")
	if failed > 0 {
		b.WriteString(styles.err.Render(fmt.Sprintf("%d posts failed", failed)) + "\n")
	}
	if cancelled {
		b.WriteString(styles.warn.Render("Run was cancelled before finishing.") + "\n")
	}
	return b.String()
}

func checkbox(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}

func progressBar(current, total, width int) string {
	if total <= 0 {
		return "[" + strings.Repeat("░", width) + "]"
	}
	filled := current * width / total
	if filled > width {
		filled = width
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]"
}
