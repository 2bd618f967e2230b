// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand handles setup operations for configuration and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize configuration and database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}

// validateCommand inspects an Instagram export without migrating it.
func validateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "Validate an Instagram export archive or directory",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "path"},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
			&cli.BoolFlag{
				Name:  "media",
				Usage: "Also check each referenced media file",
			},
		},
		Action: r.Validate,
	}
}

// authCommand handles Bluesky authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage Bluesky authentication",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Authenticate with an app password",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "identifier",
						Usage: "Handle or DID (defaults to config.toml)",
					},
					&cli.StringFlag{
						Name:  "app-password",
						Usage: "App password (defaults to config.toml)",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "whoami",
				Usage:  "Show the authenticated account profile",
				Action: r.AuthWhoami,
			},
			{
				Name:   "logout",
				Usage:  "Discard the current session",
				Action: r.AuthLogout,
			},
		},
	}
}

// migrateCommand runs the full migration headlessly.
func migrateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Run the full Instagram → Bluesky migration",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "export",
				Usage: "Path to the export archive or directory (defaults to config.toml)",
			},
			&cli.StringFlag{
				Name:  "identifier",
				Usage: "Handle or DID (defaults to config.toml)",
			},
			&cli.StringFlag{
				Name:  "app-password",
				Usage: "App password (defaults to config.toml)",
			},
			&cli.StringFlag{
				Name:  "from",
				Usage: "Only migrate posts on or after this date (YYYY-MM-DD)",
			},
			&cli.StringFlag{
				Name:  "to",
				Usage: "Only migrate posts on or before this date (YYYY-MM-DD)",
			},
			&cli.BoolFlag{
				Name:  "no-likes",
				Usage: "Omit like counts from captions",
			},
			&cli.BoolFlag{
				Name:  "no-comments",
				Usage: "Omit comment counts from captions",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Number of concurrent upload workers",
				Value: 3,
			},
		},
		Action: r.MigrateRun,
	}
}

// historyCommand lists persisted migration runs.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List past migration runs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "status",
				Usage: "Filter by run status (pending, running, completed, failed, cancelled)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.History,
	}
}

// reportCommand exports a run summary via the formatter.
func reportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "Write a report for a migration run",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "run",
				Usage: "Run number to report on (defaults to the latest)",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Report format: csv, markdown, txt, or json",
				Value:   "markdown",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file path",
			},
		},
		Action: r.Report,
	}
}

// tuiCommand returns the top-level TUI command for the interactive wizard.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "wizard"},
		Usage:   "Launch the interactive migration wizard",
		Action:  r.TUI,
	}
}
