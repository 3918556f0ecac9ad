package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"evaluator-backend/internal/evaluation"
	"evaluator-backend/internal/evaluations"
	"evaluator-backend/internal/llm"
	"evaluator-backend/internal/llm/gemini"
	"evaluator-backend/internal/llm/openai"
	"evaluator-backend/internal/questions"
	"evaluator-backend/internal/queue"
	"evaluator-backend/internal/services/health"
	"evaluator-backend/internal/shared/config"
	"evaluator-backend/internal/shared/metrics"
	"evaluator-backend/internal/shared/server"
	"evaluator-backend/internal/shared/server/middleware"
	"evaluator-backend/internal/shared/storage/db"
	"evaluator-backend/internal/shared/storage/object"
	localstore "evaluator-backend/internal/shared/storage/object/local"
	s3store "evaluator-backend/internal/shared/storage/object/s3"
	"evaluator-backend/internal/shared/telemetry"
)

const defaultOpenAIModel = "gpt-4o-mini"

// ErrUnknownProvider is returned for an LLM_PROVIDER no client exists for.
var ErrUnknownProvider = errors.New("unknown llm provider")

// App holds shared dependencies for every binary.
type App struct {
	Config             config.Config
	Router             *gin.Engine
	DB                 *sql.DB
	Store              object.Store
	Queue              queue.Client
	Registry           *questions.Registry
	Engine             *evaluation.Engine
	EvaluationsRepo    evaluations.Repo
	EvaluationsService *evaluations.Service
	Processor          EvaluationProcessor
	Handler            *evaluations.Handler
	Health             *health.Service
}

// EvaluationProcessor allows callers to override evaluation processing for tests.
type EvaluationProcessor interface {
	ProcessEvaluation(ctx context.Context, evaluationID string) error
}

// Build prepares shared dependencies and the HTTP router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queueClient, err := buildQueue(ctx, cfg)
	if err != nil {
		return nil, err
	}

	registry, err := BuildRegistry(cfg)
	if err != nil {
		return nil, err
	}

	client, err := BuildLLMClient(ctx, cfg)
	if err != nil {
		if !errors.Is(err, llm.ErrMissingCredential) || !isDevLike(cfg.Env) {
			return nil, err
		}
		telemetry.Warn("bootstrap.llm_unconfigured", map[string]any{"provider": cfg.LLMProvider, "error": err.Error()})
		client = unconfiguredClient{err: err}
	}

	engine, err := BuildEngine(client, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:   cfg,
		DB:       sqlDB,
		Store:    store,
		Queue:    queueClient,
		Registry: registry,
		Engine:   engine,
	}
	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:      app.Config,
		Evaluations: app.Handler,
		Health:      app.Health,
		Limiter:     middleware.NewRateLimiter(nil),
	})
	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Info("bootstrap.memory_repo", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, db.ErrNoDatabaseURL
	}

	var (
		sqlDB *sql.DB
		err   error
	)
	if db.IsLambdaRuntime() {
		sqlDB, err = db.Shared(ctx, cfg.DatabaseURL, db.OptionsFor(db.ProfileLambda))
	} else {
		sqlDB, err = db.Connect(ctx, cfg.DatabaseURL, db.OptionsFor(db.ProfileServer))
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repo", map[string]any{"reason": "database connect failed", "error": err.Error()})
			return nil, nil
		}
		return nil, err
	}

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.Store, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(ctx context.Context, cfg config.Config) (queue.Client, error) {
	if strings.TrimSpace(cfg.EvalQueueURL) == "" {
		return nil, nil
	}
	api, err := queue.NewSQSAPI(ctx, cfg.AWSRegion)
	if err != nil {
		return nil, err
	}
	return queue.NewSQSClient(api, cfg.EvalQueueURL)
}

// BuildRegistry returns the built-in question sets plus any sets from QUESTION_SETS_FILE.
func BuildRegistry(cfg config.Config) (*questions.Registry, error) {
	registry := questions.NewRegistry()
	if path := strings.TrimSpace(cfg.QuestionSetsFile); path != "" {
		if err := registry.LoadFile(path); err != nil {
			return nil, fmt.Errorf("load question sets: %w", err)
		}
	}
	return registry, nil
}

// BuildLLMClient constructs the provider client named by cfg.LLMProvider.
func BuildLLMClient(ctx context.Context, cfg config.Config) (llm.Client, error) {
	settings := llm.Settings{
		Model:       cfg.LLMModel,
		BaseURL:     cfg.LLMBaseURL,
		MaxTokens:   cfg.LLMMaxTokens,
		Temperature: cfg.LLMTemperature,
		Timeout:     cfg.LLMTimeout,
	}
	switch cfg.LLMProvider {
	case "openai":
		if strings.TrimSpace(settings.Model) == "" {
			settings.Model = defaultOpenAIModel
		}
		return openai.NewClient(cfg.LLMAPIKey, settings)
	case "gemini":
		return gemini.NewClient(ctx, cfg.LLMAPIKey, settings)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.LLMProvider)
	}
}

// BuildEngine wraps client in an engine that logs through telemetry and records metrics.
func BuildEngine(client llm.Client, cfg config.Config) (*evaluation.Engine, error) {
	opts := []evaluation.Option{
		evaluation.WithLogger(telemetry.Logger()),
		evaluation.WithObserver(metrics.EngineObserver{}),
	}
	if cfg.DualSequential {
		opts = append(opts, evaluation.WithSequentialDual(cfg.DualDelay))
	}
	return evaluation.New(client, cfg.LLMProvider, opts...)
}

func buildServices(app *App) {
	var repo evaluations.Repo
	if app.DB != nil {
		repo = &evaluations.PGRepo{DB: app.DB}
	} else {
		repo = evaluations.NewMemoryRepo()
	}

	model := app.Config.LLMModel
	if model == "" && app.Config.LLMProvider == "openai" {
		model = defaultOpenAIModel
	}

	svc := &evaluations.Service{
		Repo:     repo,
		Engine:   app.Engine,
		Registry: app.Registry,
		Store:    app.Store,
		Queue:    app.Queue,
		Model:    model,
	}

	app.EvaluationsRepo = repo
	app.EvaluationsService = svc
	app.Processor = svc
	app.Handler = evaluations.NewHandler(svc)
	app.Health = health.NewService(app.DB, app.Config.LLMProvider, app.Queue != nil)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

// unconfiguredClient lets a dev server start without a key; every evaluation fails as provider unavailable.
type unconfiguredClient struct {
	err error
}

func (c unconfiguredClient) Complete(context.Context, []llm.Turn) (string, error) {
	return "", c.err
}
