package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/leadwire-api/internal/config"
	"github.com/phrazzld/leadwire-api/internal/domain/ranking"
	"github.com/phrazzld/leadwire-api/internal/events"
	"github.com/phrazzld/leadwire-api/internal/generation"
	"github.com/phrazzld/leadwire-api/internal/platform/cache"
	"github.com/phrazzld/leadwire-api/internal/platform/gemini"
	"github.com/phrazzld/leadwire-api/internal/platform/postgres"
	"github.com/phrazzld/leadwire-api/internal/service"
	"github.com/phrazzld/leadwire-api/internal/service/auth"
	"github.com/phrazzld/leadwire-api/internal/store"
	"github.com/phrazzld/leadwire-api/internal/task"
)

// drainTimeout bounds how long shutdown waits for in-flight analyses.
const drainTimeout = 30 * time.Second

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	articleStore    store.ArticleStore
	preferenceStore store.PreferenceStore

	tokenValidator auth.TokenValidator
	analyzer       generation.Analyzer
	analysisCache  cache.AnalysisCache
	closeCache     func() error
	scorer         ranking.Service

	ingestionService  service.IngestionService
	feedService       service.FeedService
	preferenceService service.PreferenceService

	eventEmitter *events.InMemoryEventEmitter
	dispatcher   *task.Dispatcher
}

// newApplication creates a new application instance with all dependencies initialized.
// It accepts core dependencies like configuration, logger, and database connection that
// must be established before application initialization.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.tokenValidator, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT validator: %w", err)
	}

	app.articleStore = postgres.NewPostgresArticleStore(db, logger)
	app.preferenceStore = postgres.NewPostgresPreferenceStore(db, logger)

	app.analyzer, err = gemini.NewAnalyzer(ctx, logger.With("component", "llm_analyzer"), cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM analyzer: %w", err)
	}
	logger.Info("LLM analyzer initialized", "model", cfg.LLM.ModelName)

	app.analysisCache, app.closeCache, err = cache.New(ctx, cfg.Cache, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize analysis cache: %w", err)
	}

	app.dispatcher, err = task.NewDispatcher(task.DispatcherConfig{
		Name:          "analysis",
		MaxConcurrent: cfg.Dispatcher.MaxConcurrent,
		TaskTimeout:   time.Duration(cfg.Dispatcher.TaskTimeoutSeconds) * time.Second,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create dispatcher: %w", err)
	}

	app.scorer = ranking.NewServiceWithParams(ranking.NewParams(ranking.ParamsConfig{
		Dampening:       cfg.Scoring.Dampening,
		ReasonThreshold: cfg.Scoring.ReasonThreshold,
		MaxReasons:      cfg.Scoring.MaxReasons,
	}))

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	feedback, err := service.NewFeedbackHandler(
		app.preferenceStore,
		ranking.NewFixedStepLearner(cfg.Scoring.LearningStep),
		logger,
		service.WithTransactions(db),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create feedback handler: %w", err)
	}
	app.eventEmitter.RegisterHandler(feedback)

	app.ingestionService, err = service.NewIngestionService(
		app.articleStore,
		app.analyzer,
		app.analysisCache,
		app.dispatcher,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ingestion service: %w", err)
	}

	app.feedService, err = service.NewFeedService(app.articleStore, app.preferenceStore, app.scorer, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create feed service: %w", err)
	}

	app.preferenceService, err = service.NewPreferenceService(
		app.preferenceStore,
		app.articleStore,
		app.eventEmitter,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create preference service: %w", err)
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.dispatcher != nil {
		ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
		if err := app.dispatcher.Drain(ctx); err != nil {
			stats := app.dispatcher.Stats()
			app.logger.Warn("Dispatcher did not drain before shutdown",
				"error", err,
				"pending", stats.Pending,
				"in_flight", stats.InFlight)
		}
		cancel()
	}

	if app.closeCache != nil {
		if err := app.closeCache(); err != nil {
			app.logger.Error("Error closing analysis cache", "error", err)
		}
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
