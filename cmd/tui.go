package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/igsky/internal/repositories"
	"github.com/desertthunder/igsky/internal/shared"
	"github.com/desertthunder/igsky/internal/ui"
	"github.com/desertthunder/igsky/internal/workflow"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive migration wizard.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if r.importer == nil || r.publisher == nil {
		return fmt.Errorf("%w: services not initialized", shared.ErrServiceUnavailable)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	logPath := r.config.App.LogFile
	if logPath == "" {
		logPath = "./tmp/igsky-tui.log"
	}
	fileLogger, err := shared.NewFileLogger(logPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()
	r.engine.AttachRuns(repositories.NewRunRepository(db))

	store := workflow.NewStore()
	model := ui.NewModel(ctx, store, r.engine)
	defer model.Close()

	p := tea.NewProgram(model)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
