package main

import (
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/igsky/internal/services"
	"github.com/desertthunder/igsky/internal/shared"
	"github.com/desertthunder/igsky/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config    *shared.Config
	importer  services.Importer
	publisher services.Publisher
	tracker   services.Tracker
	logger    *log.Logger
	output    io.Writer
	engine    *tasks.MigrationEngine
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config    *shared.Config
	Importer  services.Importer
	Publisher services.Publisher
	Tracker   services.Tracker
	Logger    *log.Logger
	Output    io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Tracker == nil {
		opts.Tracker = services.NewChannelTracker()
	}

	engine := tasks.NewMigrationEngine(opts.Importer, opts.Publisher, opts.Tracker)
	engine.SetLogger(opts.Logger)

	return &Runner{
		config:    opts.Config,
		importer:  opts.Importer,
		publisher: opts.Publisher,
		tracker:   opts.Tracker,
		logger:    opts.Logger,
		output:    opts.Output,
		engine:    engine,
	}
}

// SetLogger swaps the runner's and engine's logger.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
	r.engine.SetLogger(l)
}

// UseDemo swaps in the in-memory demo services.
func (r *Runner) UseDemo() {
	r.importer = services.NewDemoImporter()
	r.publisher = services.NewDemoPublisher()
	r.engine = tasks.NewMigrationEngine(r.importer, r.publisher, r.tracker)
	r.engine.SetLogger(r.logger)
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, validateCommand, authCommand, migrateCommand, historyCommand, reportCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// openDatabase opens the configured SQLite file and ensures the schema is current.
func (r *Runner) openDatabase() (*sql.DB, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
