package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/igsky/internal/formatter"
	"github.com/desertthunder/igsky/internal/models"
	"github.com/desertthunder/igsky/internal/repositories"
	"github.com/urfave/cli/v3"
)

// runRow is the JSON projection of a persisted run.
type runRow struct {
	Run       int    `json:"run"`
	Account   string `json:"account"`
	Status    string `json:"status"`
	Total     int    `json:"total"`
	Migrated  int    `json:"migrated"`
	Failed    int    `json:"failed"`
	StartedAt string `json:"started_at,omitempty"`
	Error     string `json:"error,omitempty"`
}

// History lists persisted migration runs, newest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	criteria := map[string]any{}
	if status := cmd.String("status"); status != "" {
		criteria["status"] = status
	}

	runs, err := repositories.NewRunRepository(db).List(criteria)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if cmd.Bool("json") {
		rows := make([]runRow, 0, len(runs))
		for _, run := range runs {
			rows = append(rows, toRunRow(run))
		}
		return r.writeJSON(rows, cmd.Bool("pretty"))
	}

	if len(runs) == 0 {
		r.writePlain("No migration runs recorded yet.\n")
		return nil
	}

	r.writePlainHeader("Migration History")
	for _, run := range runs {
		r.writePlain("#%d  @%s  %s  %d/%d migrated", run.Sequence(), run.AccountHandle(), run.Status(), run.PostsMigrated(), run.PostsTotal())
		if run.PostsFailed() > 0 {
			r.writePlain("  (%d failed)", run.PostsFailed())
		}
		if startedAt := run.StartedAt(); startedAt != nil {
			r.writePlain("  %s", startedAt.Format(time.DateTime))
		}
		r.writePlain("\n")
		if msg := run.ErrorMessage(); msg != "" {
			r.writePlain("    %s\n", msg)
		}
	}
	return nil
}

// Report writes a formatted report for a run, defaulting to the latest.
func (r *Runner) Report(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	runRepo := repositories.NewRunRepository(db)

	var run *models.MigrationRun
	if sequence := cmd.Int("run"); sequence > 0 {
		run, err = runRepo.GetBySequence(sequence)
	} else {
		run, err = runRepo.Latest()
	}
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}

	posts, err := repositories.NewPostRepository(db).List(map[string]any{"run_id": run.ID()})
	if err != nil {
		return fmt.Errorf("failed to load run posts: %w", err)
	}

	path, err := formatter.WriteReport(run, posts, cmd.String("format"), cmd.String("output"))
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	r.logger.Info("report written", "run", run.Sequence(), "path", path)
	r.writePlain("✓ Report for run #%d written to %s\n", run.Sequence(), path)
	return nil
}

func toRunRow(run *models.MigrationRun) runRow {
	row := runRow{
		Run:      run.Sequence(),
		Account:  run.AccountHandle(),
		Status:   string(run.Status()),
		Total:    run.PostsTotal(),
		Migrated: run.PostsMigrated(),
		Failed:   run.PostsFailed(),
		Error:    run.ErrorMessage(),
	}
	if startedAt := run.StartedAt(); startedAt != nil {
		row.StartedAt = startedAt.Format(time.RFC3339)
	}
	return row
}
