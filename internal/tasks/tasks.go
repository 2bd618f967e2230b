package tasks

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/igsky/internal/models"
	"github.com/desertthunder/igsky/internal/services"
	"github.com/desertthunder/igsky/internal/shared"
	"github.com/desertthunder/igsky/internal/workflow"
	"golang.org/x/time/rate"
)

// ImportResult contains all data from the import step.
type ImportResult struct {
	Validation *models.ValidationResult // Archive validation outcome
	Posts      []models.Post            // Parsed posts, oldest first
	Estimate   string                   // Human-readable migration duration estimate
}

// PrepareResult contains the outcome of the preparation step.
type PrepareResult struct {
	Prepared []models.PreparedPost // Posts ready for publishing
	Skipped  int                   // Posts removed by the date-range filter
}

// PostFailure records a single post that could not be created.
type PostFailure struct {
	PostID string // Source post identifier
	Error  string
}

// PostSuccess records a created post and its public URL.
type PostSuccess struct {
	PostID string
	URL    string
}

// ExecutionResult contains all data from the execution step.
type ExecutionResult struct {
	Total     int           // Posts attempted
	Migrated  int           // Posts created on the destination
	Failed    int           // Posts that errored
	Cancelled bool          // True when the run stopped on a cancellation request
	Posted    []PostSuccess // Created posts with their public URLs
	Failures  []PostFailure // Per-post failure details
}

// PostOpts contains tuning for the posting pipeline.
type PostOpts struct {
	NumWorkers int     // Concurrent posting workers (default: 3, capped at 5)
	RateLimit  float64 // Requests per second against the PDS (default: 3)
}

// RunRecorder persists migration runs. Satisfied by repositories.RunRepository.
// Persistence failures are logged, never fatal to a migration in flight.
type RunRecorder interface {
	Create(run *models.MigrationRun) error
	Update(run *models.MigrationRun) error
}

// postJob pairs a prepared post with its position in the run.
type postJob struct {
	index int
	post  models.PreparedPost
}

// postResult is the outcome of one posting attempt.
type postResult struct {
	index int
	post  models.PreparedPost
	url   string
	err   error
}

// MigrationEngine drives the wizard's step controllers. Each RunX method
// calls the domain services and records outcomes into the given store; the
// store stays the single authority on wizard state.
type MigrationEngine struct {
	importer  services.Importer
	publisher services.Publisher
	tracker   services.Tracker
	runs      RunRecorder
	logger    *log.Logger
}

// NewMigrationEngine creates an engine over the given service implementations.
func NewMigrationEngine(importer services.Importer, publisher services.Publisher, tracker services.Tracker) *MigrationEngine {
	return &MigrationEngine{
		importer:  importer,
		publisher: publisher,
		tracker:   tracker,
		logger:    shared.NewLogger(nil),
	}
}

// AttachRuns enables run-history persistence.
func (e *MigrationEngine) AttachRuns(r RunRecorder) { e.runs = r }

// SetLogger replaces the engine's logger.
func (e *MigrationEngine) SetLogger(l *log.Logger) {
	if l != nil {
		e.logger = l
	}
}

// Tracker returns the engine's progress tracker for UI consumption.
func (e *MigrationEngine) Tracker() services.Tracker { return e.tracker }

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *MigrationEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

// RunImport validates and parses the export, records the outcome into the
// upload step, and completes it when validation passed.
func (e *MigrationEngine) RunImport(ctx context.Context, store *workflow.Store, paths []string, progress chan<- ProgressUpdate) (*ImportResult, error) {
	if e.importer == nil {
		return nil, fmt.Errorf("%w: importer not initialized", shared.ErrServiceUnavailable)
	}

	e.sendProgress(progress, validatingUpdate(paths))
	store.SetStepProgress(workflow.IdxContentUpload, 10)

	validation, err := e.importer.Validate(ctx, paths)
	if err != nil {
		store.AddStepError(workflow.IdxContentUpload, err.Error())
		store.LogError(workflow.ErrValidation, err.Error())
		return nil, err
	}

	for _, warning := range validation.Warnings {
		store.AddStepWarning(workflow.IdxContentUpload, warning)
	}
	for _, msg := range validation.Errors {
		store.AddStepError(workflow.IdxContentUpload, msg)
	}
	store.SetStepData(workflow.IdxContentUpload, validation)

	if !validation.Valid {
		store.LogError(workflow.ErrValidation, strings.Join(validation.Errors, "; "))
		return &ImportResult{Validation: validation}, fmt.Errorf("%w: %s", shared.ErrInvalidExport, strings.Join(validation.Errors, "; "))
	}

	store.SetStepProgress(workflow.IdxContentUpload, 50)

	posts, err := e.importer.Parse(ctx, paths)
	if err != nil {
		store.AddStepError(workflow.IdxContentUpload, err.Error())
		store.LogError(workflow.ErrProcessing, err.Error())
		return &ImportResult{Validation: validation}, err
	}

	result := &ImportResult{
		Validation: validation,
		Posts:      posts,
		Estimate:   e.importer.EstimateDuration(posts),
	}

	store.SetImported(posts)
	store.SetStepProgress(workflow.IdxContentUpload, 100)
	store.CompleteStep(workflow.IdxContentUpload)

	e.sendProgress(progress, parsedUpdate(validation))
	e.logger.Info("export imported", "posts", len(posts), "media", validation.MediaCount, "estimate", result.Estimate)
	return result, nil
}

// RunAuth pre-checks credentials locally, authenticates against the
// destination, and completes the auth step.
func (e *MigrationEngine) RunAuth(ctx context.Context, store *workflow.Store, identifier, secret string, progress chan<- ProgressUpdate) (*models.Session, error) {
	if e.publisher == nil {
		return nil, fmt.Errorf("%w: publisher not initialized", shared.ErrServiceUnavailable)
	}

	if err := e.publisher.ValidateCredentials(identifier, secret); err != nil {
		store.AddStepError(workflow.IdxBlueskyAuth, err.Error())
		store.LogError(workflow.ErrValidation, err.Error())
		return nil, err
	}

	e.sendProgress(progress, authenticatingUpdate(identifier))

	session, err := e.publisher.Authenticate(ctx, identifier, secret)
	if err != nil {
		store.AddStepError(workflow.IdxBlueskyAuth, err.Error())
		store.LogError(workflow.ErrAuth, err.Error())
		return nil, err
	}

	store.SetSession(session)
	store.SetStepData(workflow.IdxBlueskyAuth, session.Handle)
	store.SetStepProgress(workflow.IdxBlueskyAuth, 100)
	store.CompleteStep(workflow.IdxBlueskyAuth)

	e.sendProgress(progress, authenticatedUpdate(session))
	e.logger.Info("authenticated", "handle", session.Handle, "did", session.DID)
	return session, nil
}

// Logout clears the session and reopens the auth step.
func (e *MigrationEngine) Logout(store *workflow.Store) {
	store.SetSession(nil)
	store.UndoStep(workflow.IdxBlueskyAuth)
	e.logger.Info("logged out")
}

// RunPrepare applies the workflow's migration config to the imported posts
// and completes the config step.
func (e *MigrationEngine) RunPrepare(ctx context.Context, store *workflow.Store, progress chan<- ProgressUpdate) (*PrepareResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snap := store.Snapshot()
	if len(snap.Imported) == 0 {
		store.AddStepError(workflow.IdxMigrationConfig, "nothing to prepare: import an export first")
		return nil, shared.ErrNoPosts
	}

	cfg := snap.Config
	e.sendProgress(progress, preparingUpdate(len(snap.Imported)))

	posts := e.importer.FilterByDateRange(snap.Imported, cfg.DateRange.Start, cfg.DateRange.End)
	skipped := len(snap.Imported) - len(posts)

	prepared := make([]models.PreparedPost, 0, len(posts))
	for _, post := range posts {
		source := post
		source.Caption = captionWithEngagement(post, cfg)
		prepared = append(prepared, services.PreparePost(source, cfg.MediaQuality))
	}

	result := &PrepareResult{Prepared: prepared, Skipped: skipped}

	store.SetPrepared(prepared)
	store.SetStepData(workflow.IdxMigrationConfig, cfg)
	store.SetStepProgress(workflow.IdxMigrationConfig, 100)
	store.CompleteStep(workflow.IdxMigrationConfig)

	e.sendProgress(progress, preparedUpdate(len(prepared), skipped))
	e.logger.Info("posts prepared", "kept", len(prepared), "skipped", skipped, "quality", cfg.MediaQuality)
	return result, nil
}

// RunExecution posts the prepared posts through a rate-limited worker pool,
// reporting into both the tracker and the store. Per-post failures do not
// abort the run; cancellation is honored at item boundaries.
func (e *MigrationEngine) RunExecution(ctx context.Context, store *workflow.Store, progress chan<- ProgressUpdate, opts PostOpts) (*ExecutionResult, error) {
	if e.publisher == nil {
		return nil, fmt.Errorf("%w: publisher not initialized", shared.ErrServiceUnavailable)
	}

	snap := store.Snapshot()
	if snap.Session == nil {
		return nil, shared.ErrNotAuthenticated
	}
	if len(snap.Prepared) == 0 {
		store.AddStepError(workflow.IdxMigrationExecution, "nothing to migrate: prepare posts first")
		return nil, shared.ErrNoPosts
	}

	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 3
	}
	if opts.NumWorkers > 5 {
		opts.NumWorkers = 5
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 3.0
	}

	prepared := snap.Prepared
	total := len(prepared)
	totalMedia := 0
	for _, post := range prepared {
		totalMedia += len(post.Media)
	}

	run := e.recordRunStart(snap.Session, total)

	if e.tracker != nil {
		e.tracker.Start(ctx, total, totalMedia)
	}
	store.MergeProgress(models.Patch{
		TotalItems: models.Int(total),
		TotalMedia: models.Int(totalMedia),
		Status:     models.Stat(models.StatusProcessing),
		Operation:  models.Str("creating posts"),
	})

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan postJob, total)
	results := make(chan postResult, total)

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.postWorker(ctx, &wg, jobs, results)
	}

	cancelled := false
	go func() {
		defer close(jobs)
		for i, post := range prepared {
			if e.waitWhilePaused(ctx) != nil {
				return
			}
			if e.tracker != nil && e.tracker.Cancelled() {
				return
			}
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			e.sendProgress(progress, postingUpdate(i+1, total, post))
			jobs <- postJob{index: i, post: post}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	result := &ExecutionResult{Total: total}
	completed := 0
	for res := range results {
		completed++
		if res.err != nil {
			result.Failed++
			failure := PostFailure{PostID: res.post.Source.ID, Error: res.err.Error()}
			result.Failures = append(result.Failures, failure)
			store.AddStepError(workflow.IdxMigrationExecution, fmt.Sprintf("%s: %v", postLabel(res.post), res.err))
			store.LogError(workflow.ErrNetwork, res.err.Error())
			e.sendProgress(progress, postFailedUpdate(completed, total, res.post, res.err))
		} else {
			result.Migrated++
			result.Posted = append(result.Posted, PostSuccess{PostID: res.post.Source.ID, URL: res.url})
			e.sendProgress(progress, postedUpdate(completed, total, res.post, res.url))
		}

		pct := completed * 100 / total
		store.SetStepProgress(workflow.IdxMigrationExecution, pct)
		patch := models.Patch{
			CurrentItem: models.Int(completed),
			Operation:   models.Str(postLabel(res.post)),
		}
		store.MergeProgress(patch)
		if e.tracker != nil {
			e.tracker.Update(patch)
		}
	}

	if e.tracker != nil && e.tracker.Cancelled() {
		cancelled = true
	}
	if ctx.Err() != nil {
		cancelled = true
	}
	result.Cancelled = cancelled

	e.finishRun(run, result)
	e.finishProgress(store, result)

	store.SetStepData(workflow.IdxMigrationExecution, result)
	store.SetStepData(workflow.IdxCompletion, result)
	if !cancelled {
		store.CompleteStep(workflow.IdxMigrationExecution)
	}

	e.sendProgress(progress, summaryUpdate(result))
	e.logger.Info("execution finished", "migrated", result.Migrated, "failed", result.Failed, "cancelled", cancelled)

	if result.Migrated == 0 && result.Failed > 0 {
		return result, fmt.Errorf("%w: no posts were created", shared.ErrAPIRequest)
	}
	return result, nil
}

// postWorker is a worker goroutine that creates posts from the jobs channel.
func (e *MigrationEngine) postWorker(ctx context.Context, wg *sync.WaitGroup, jobs <-chan postJob, results chan<- postResult) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		url, err := e.publisher.CreatePost(ctx, job.post)
		results <- postResult{index: job.index, post: job.post, url: url, err: err}
	}
}

// waitWhilePaused blocks at an item boundary while the tracker is paused.
func (e *MigrationEngine) waitWhilePaused(ctx context.Context) error {
	if e.tracker == nil {
		return nil
	}
	for e.tracker.Paused() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
	return nil
}

// recordRunStart persists a pending run and marks it running.
func (e *MigrationEngine) recordRunStart(session *models.Session, total int) *models.MigrationRun {
	if e.runs == nil {
		return nil
	}
	run := models.NewMigrationRun(session.DID, session.Handle, total)
	if err := e.runs.Create(run); err != nil {
		e.logger.Warn("failed to record run", "error", err)
		return nil
	}
	run.Start()
	if err := e.runs.Update(run); err != nil {
		e.logger.Warn("failed to mark run running", "error", err)
	}
	return run
}

// finishRun writes the run's terminal status.
func (e *MigrationEngine) finishRun(run *models.MigrationRun, result *ExecutionResult) {
	if e.runs == nil || run == nil {
		return
	}

	status := models.RunCompleted
	errMsg := ""
	switch {
	case result.Cancelled:
		status = models.RunCancelled
		errMsg = "cancelled before all posts were created"
	case result.Migrated == 0 && result.Failed > 0:
		status = models.RunFailed
		errMsg = result.Failures[0].Error
	case result.Failed > 0:
		errMsg = fmt.Sprintf("%d of %d posts failed", result.Failed, result.Total)
	}

	run.Finish(status, result.Migrated, result.Failed, errMsg)
	if err := e.runs.Update(run); err != nil {
		e.logger.Warn("failed to finish run record", "error", err)
	}
}

// finishProgress writes the terminal progress snapshot.
func (e *MigrationEngine) finishProgress(store *workflow.Store, result *ExecutionResult) {
	status := models.StatusCompleted
	operation := fmt.Sprintf("migrated %d/%d posts", result.Migrated, result.Total)
	switch {
	case result.Cancelled:
		status = models.StatusError
		operation = fmt.Sprintf("cancelled after %d/%d posts", result.Migrated+result.Failed, result.Total)
	case result.Migrated == 0 && result.Failed > 0:
		status = models.StatusError
	}

	patch := models.Patch{Status: models.Stat(status), Operation: models.Str(operation)}
	store.MergeProgress(patch)
	if e.tracker != nil {
		e.tracker.Update(patch)
	}
}

// captionWithEngagement appends like/comment counts to the caption when the
// config asks for them and the export carried any.
func captionWithEngagement(post models.Post, cfg models.MigrationConfig) string {
	var footer []string
	if cfg.IncludeLikes && post.LikeCount > 0 {
		footer = append(footer, fmt.Sprintf("♥ %d", post.LikeCount))
	}
	if cfg.IncludeComments && len(post.Comments) > 0 {
		footer = append(footer, fmt.Sprintf("%d comments", len(post.Comments)))
	}
	if len(footer) == 0 {
		return post.Caption
	}
	if post.Caption == "" {
		return strings.Join(footer, " · ")
	}
	return post.Caption + "\n\n" + strings.Join(footer, " · ")
}
