package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/desertthunder/igsky/internal/services"
	"github.com/desertthunder/igsky/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	var importer services.Importer
	var publisher services.Publisher

	if config.App.Demo {
		importer = services.NewDemoImporter()
		publisher = services.NewDemoPublisher()
	} else {
		importer = services.NewInstagramImporter()
		publisher = services.NewBlueskyService(config.Bluesky.Service, http.DefaultClient)
	}

	runner := NewRunner(RunnerOpts{
		Config:    config,
		Importer:  importer,
		Publisher: publisher,
		Logger:    logger,
	})

	app := &cli.Command{
		Name:    "igsky",
		Usage:   "Migrate an Instagram export to a Bluesky account",
		Version: "0.3.0",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "demo",
				Usage: "Use in-memory demo services instead of real backends",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("demo") {
				runner.UseDemo()
			}
			return ctx, nil
		},
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}
