package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/desertthunder/igsky/internal/shared"
	"github.com/urfave/cli/v3"
)

// Validate inspects an export archive and prints counts, warnings, and a
// duration estimate without touching the destination.
func (r *Runner) Validate(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		path = r.config.Export.Path
	}
	if path == "" {
		return fmt.Errorf("%w: export path (argument or config.toml export.path)", shared.ErrMissingArgument)
	}

	r.logger.Info("validating export", "path", path)

	result, err := r.importer.Validate(ctx, []string{path})
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Export Validation")
	if result.Valid {
		r.writePlain("✓ Export looks valid\n")
	} else {
		r.writePlain("✗ Export is not usable\n")
	}
	r.writePlain("Posts: %d\n", result.PostCount)
	r.writePlain("Media files: %d\n", result.MediaCount)

	for _, msg := range result.Errors {
		r.writePlain("  error: %s\n", msg)
	}
	for _, msg := range result.Warnings {
		r.writePlain("  warning: %s\n", msg)
	}

	if !result.Valid {
		return fmt.Errorf("%w: %s", shared.ErrInvalidExport, path)
	}

	posts, err := r.importer.Parse(ctx, []string{path})
	if err != nil {
		return err
	}
	r.writePlain("Estimated migration time: %s\n", r.importer.EstimateDuration(posts))

	if cmd.Bool("media") {
		if info, err := os.Stat(path); err != nil || !info.IsDir() {
			r.writePlain("\nSkipping media check: %s is not an unpacked directory\n", path)
			return nil
		}

		mediaPaths := make([]string, 0, result.MediaCount)
		for _, post := range posts {
			for _, media := range post.Media {
				mediaPaths = append(mediaPaths, filepath.Join(path, media.URI))
			}
		}

		check := r.importer.ValidateMediaFiles(mediaPaths)
		r.writePlainln("Media check: %d usable, %d rejected", len(check.Valid), len(check.Invalid))
		for _, problem := range check.Invalid {
			r.writePlain("  %s: %s\n", problem.Path, problem.Reason)
		}
	}

	return nil
}
