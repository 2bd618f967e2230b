package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/igsky/internal/models"
	"github.com/desertthunder/igsky/internal/repositories"
	"github.com/desertthunder/igsky/internal/shared"
	"github.com/desertthunder/igsky/internal/tasks"
	"github.com/desertthunder/igsky/internal/workflow"
	"github.com/urfave/cli/v3"
)

// MigrateRun drives the full wizard headlessly: validate and import the
// export, authenticate, prepare, then post with live progress output. Results
// are persisted to the run history database.
func (r *Runner) MigrateRun(ctx context.Context, cmd *cli.Command) error {
	exportPath := cmd.String("export")
	if exportPath == "" {
		exportPath = r.config.Export.Path
	}
	if exportPath == "" {
		return fmt.Errorf("%w: export path (--export or config.toml export.path)", shared.ErrMissingArgument)
	}

	identifier := cmd.String("identifier")
	if identifier == "" {
		identifier = r.config.Bluesky.Identifier
	}
	secret := cmd.String("app-password")
	if secret == "" {
		secret = r.config.Bluesky.AppPassword
	}
	if identifier == "" || secret == "" {
		return fmt.Errorf("%w: identifier and app password (flags or config.toml [bluesky])", shared.ErrMissingCredentials)
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	runRepo := repositories.NewRunRepository(db)
	postRepo := repositories.NewPostRepository(db)
	r.engine.AttachRuns(runRepo)

	store := workflow.NewStore()

	cfg, err := migrationConfig(r.config, cmd)
	if err != nil {
		return err
	}
	store.SetConfig(cfg)

	r.writePlain("Migrating %s → @%s\n\n", exportPath, identifier)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.ValidateExport, tasks.ParseExport:
				r.writePlain("📦 %s\n", update.Message)
			case tasks.Authenticate:
				r.writePlain("🔑 %s\n", update.Message)
			case tasks.PreparePosts:
				r.writePlain("🛠  %s\n", update.Message)
			case tasks.CreatePosts:
				r.writePlain("   %s\n", update.Message)
			case tasks.Summarize:
				r.writePlain("\n%s\n", update.Message)
			}
		}
	}()

	result, runErr := r.runSteps(ctx, store, exportPath, identifier, secret, progressCh, cmd.Int("workers"))
	close(progressCh)
	<-done

	if result != nil {
		r.cachePosts(store, runRepo, postRepo, result)
		r.summarize(result)
	}
	return runErr
}

func (r *Runner) runSteps(ctx context.Context, store *workflow.Store, exportPath, identifier, secret string, progressCh chan tasks.ProgressUpdate, workers int) (*tasks.ExecutionResult, error) {
	if _, err := r.engine.RunImport(ctx, store, []string{exportPath}, progressCh); err != nil {
		return nil, err
	}
	store.Advance()

	if _, err := r.engine.RunAuth(ctx, store, identifier, secret, progressCh); err != nil {
		return nil, err
	}
	store.Advance()

	if _, err := r.engine.RunPrepare(ctx, store, progressCh); err != nil {
		return nil, err
	}
	store.Advance()

	return r.engine.RunExecution(ctx, store, progressCh, tasks.PostOpts{
		NumWorkers: workers,
		RateLimit:  r.config.Export.RateLimit,
	})
}

// cachePosts records every attempted post against the run just persisted, so
// reports can show per-post outcomes later.
func (r *Runner) cachePosts(store *workflow.Store, runRepo *repositories.RunRepository, postRepo *repositories.PostRepository, result *tasks.ExecutionResult) {
	run, err := runRepo.Latest()
	if err != nil {
		r.logger.Warn("run record not found, skipping post cache", "error", err)
		return
	}

	urls := make(map[string]string, len(result.Posted))
	for _, posted := range result.Posted {
		urls[posted.PostID] = posted.URL
	}

	for _, prepared := range store.Snapshot().Prepared {
		cached := models.NewCachedPost(run.ID(), prepared.Source, urls[prepared.Source.ID])
		if err := postRepo.Create(cached); err != nil {
			r.logger.Warn("failed to cache post", "post", prepared.Source.ID, "error", err)
		}
	}
}

func (r *Runner) summarize(result *tasks.ExecutionResult) {
	r.writePlain("\n")
	r.writePlainHeader("Migration Summary")
	r.writePlain("Migrated: %d/%d posts\n", result.Migrated, result.Total)
	if result.Failed > 0 {
		r.writePlain("Failed: %d posts\n", result.Failed)
		for _, failure := range result.Failures {
			r.writePlain("  - %s: %s\n", failure.PostID, failure.Error)
		}
	}
	if result.Cancelled {
		r.writePlain("Run was cancelled before finishing.\n")
	}
	if len(result.Posted) > 0 {
		r.writePlainln("Created posts:")
		for _, posted := range result.Posted {
			r.writePlain("  %s\n", posted.URL)
		}
	}
	r.writePlain("\nRun `igsky report` for a full report.\n")
}

// migrationConfig builds the run configuration from config.toml defaults
// overlaid with command-line flags.
func migrationConfig(config *shared.Config, cmd *cli.Command) (models.MigrationConfig, error) {
	cfg := models.DefaultMigrationConfig()

	if config.Migration.MediaQuality != "" {
		cfg.MediaQuality = models.MediaQuality(config.Migration.MediaQuality)
	}
	if config.Migration.BatchSize > 0 {
		cfg.BatchSize = config.Migration.BatchSize
	}
	cfg.IncludeLikes = config.Migration.IncludeLikes && !cmd.Bool("no-likes")
	cfg.IncludeComments = config.Migration.IncludeComments && !cmd.Bool("no-comments")

	if from := cmd.String("from"); from != "" {
		start, err := time.Parse("2006-01-02", from)
		if err != nil {
			return cfg, fmt.Errorf("%w: --from %q (want YYYY-MM-DD)", shared.ErrInvalidFlag, from)
		}
		cfg.DateRange.Start = &start
	}
	if to := cmd.String("to"); to != "" {
		end, err := time.Parse("2006-01-02", to)
		if err != nil {
			return cfg, fmt.Errorf("%w: --to %q (want YYYY-MM-DD)", shared.ErrInvalidFlag, to)
		}
		end = end.Add(24*time.Hour - time.Second)
		cfg.DateRange.End = &end
	}

	return cfg, nil
}
