package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/phrazzld/quizimport/internal/config"
	"github.com/phrazzld/quizimport/internal/generation"
	"github.com/phrazzld/quizimport/internal/ingest"
	"github.com/phrazzld/quizimport/internal/platform/llm"
	"github.com/phrazzld/quizimport/internal/platform/memory"
	"github.com/phrazzld/quizimport/internal/platform/postgres"
	"github.com/phrazzld/quizimport/internal/redact"
	"github.com/phrazzld/quizimport/internal/service"
	"github.com/phrazzld/quizimport/internal/service/auth"
	"github.com/phrazzld/quizimport/internal/store"
	"github.com/phrazzld/quizimport/internal/task"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	jobs      store.JobStore
	questions store.QuestionStore
	settings  store.SettingsStore

	// jwtService is nil when auth.jwt_secret is empty.
	jwtService    auth.JWTService
	completer     generation.Completer
	janitor       *ingest.Janitor
	scheduler     *ingest.Scheduler
	importService service.ImportService

	taskRunner  *task.TaskRunner
	janitorCron *cron.Cron
}

// appOption customizes application construction.
type appOption func(*application)

// withCompleter replaces the configured LLM provider.
func withCompleter(c generation.Completer) appOption {
	return func(app *application) {
		app.completer = c
	}
}

// newApplication creates a new application instance with all dependencies initialized.
// db may be nil when the memory driver is configured.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB, opts ...appOption) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}
	for _, opt := range opts {
		opt(app)
	}

	if err := app.setupStores(); err != nil {
		return nil, err
	}

	if cfg.Auth.JWTSecret != "" {
		var err error
		app.jwtService, err = auth.NewJWTService(cfg.Auth)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
		}
		logger.Info("JWT authentication enabled", "token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)
	} else {
		logger.Warn("auth.jwt_secret is empty; import API is unauthenticated")
	}

	if app.completer == nil {
		var err error
		app.completer, err = llm.NewCompleter(ctx, logger.With("component", "llm_completer"), cfg.LLM)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize LLM completer: %w", err)
		}
	}

	app.janitor = ingest.NewJanitor(app.jobs, ingest.JanitorConfig{
		Timeout:         cfg.Import.Timeout(),
		Retention:       cfg.Import.Retention(),
		MaxFinishedKeep: cfg.Import.FinishedKeep(),
	}, logger)

	processor := ingest.NewProcessor(app.completer, app.questions, ingest.ProcessorConfig{
		MaxRetries: cfg.Import.MaxRetries(),
		BaseDelay:  cfg.Import.RetryBaseDelay(),
	}, logger)

	app.scheduler = ingest.NewScheduler(app.jobs, app.questions, app.settings, processor, app.janitor,
		ingest.SchedulerConfig{
			DefaultMaxConcurrent: cfg.Import.DefaultMaxConcurrent,
			DefaultBatchDelay:    time.Duration(cfg.Import.DefaultBatchDelaySeconds) * time.Second,
			DefaultChunkSize:     cfg.Import.DefaultChunkSize,
		}, logger)

	var err error
	app.taskRunner, err = setupTaskRunner(app)
	if err != nil {
		return nil, fmt.Errorf("failed to setup task runner: %w", err)
	}

	app.importService, err = service.NewImportService(app.jobs, app.taskRunner, app.scheduler, app.janitor, logger)
	if err != nil {
		app.taskRunner.Stop()
		return nil, fmt.Errorf("failed to create import service: %w", err)
	}

	if cfg.Import.JanitorSchedule != "" {
		app.janitorCron, err = app.janitor.Schedule(cfg.Import.JanitorSchedule)
		if err != nil {
			app.taskRunner.Stop()
			return nil, err
		}
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// setupStores selects the storage backend for database.driver.
func (app *application) setupStores() error {
	switch {
	case app.config.Database.Driver == driverMemory:
		app.jobs = memory.NewJobStore()
		app.questions = memory.NewQuestionStore()
		app.settings = memory.NewSettingsStore()
	case app.db != nil:
		app.jobs = postgres.NewPostgresJobStore(app.db, app.logger)
		app.questions = postgres.NewPostgresQuestionStore(app.db, app.logger)
		app.settings = postgres.NewPostgresSettingsStore(app.db, app.logger)
	default:
		return fmt.Errorf("database driver %q requires an open connection", app.config.Database.Driver)
	}
	return nil
}

// Run serves HTTP until ctx is cancelled, then shuts everything down.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()
	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// setupTaskRunner initializes and starts the background task processor.
func setupTaskRunner(app *application) (*task.TaskRunner, error) {
	taskRunner := task.NewTaskRunner(task.TaskRunnerConfig{
		QueueSize:   app.config.Task.QueueSize,
		WorkerCount: app.config.Task.WorkerCount,
	}, app.logger)
	taskRunner.SetErrorHandler(failTaskJob(app.logger))

	if err := taskRunner.Start(); err != nil {
		return nil, fmt.Errorf("failed to start task runner: %w", err)
	}
	return taskRunner, nil
}

// failTaskJob fails the job behind a task that returned an error or panicked
// instead of leaving it processing until the janitor timeout. Jobs the
// scheduler already finished are left unchanged.
func failTaskJob(logger *slog.Logger) func(task.Task, error) {
	return func(t task.Task, err error) {
		logger.Warn("import task failed",
			"job_token", t.ID(),
			"task_type", t.Type(),
			"error", redact.Error(err))
		if d, ok := t.(task.Discarder); ok {
			d.Discard(context.Background(), "import task failed: "+redact.Secrets(err.Error()))
		}
	}
}

// cleanup handles graceful shutdown of application resources. Jobs still
// queued are discarded and later reclaimed by the janitor.
func (app *application) cleanup() {
	if app.janitorCron != nil {
		<-app.janitorCron.Stop().Done()
	}

	if app.taskRunner != nil {
		app.taskRunner.Stop()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
