package app

import (
	"context"
	"log/slog"
	"os"
	"time"

	"studylog/internal/catalog"
	"studylog/internal/middleware"
	"studylog/internal/providers"
	"studylog/internal/ratelimit"
	"studylog/internal/repository"
	"studylog/internal/services"
	"studylog/internal/storage"
	"studylog/internal/thumbnail"
	"studylog/internal/tracing"
	"studylog/pkg/auth"
	"studylog/pkg/config"

	"github.com/gin-gonic/gin"
)

type Application struct {
	Config   *config.Config
	Engine   *gin.Engine
	Catalog  *catalog.Catalog
	Uploads  services.UploadService
	Deletes  services.DeleteService
	Records  services.RecordsService
	Pipeline *thumbnail.Pipeline
	Store    storage.FileStore
	Sessions *auth.Sessions
	Logger   *slog.Logger
	TZ       *time.Location
	Limiter  ratelimit.Limiter

	TracingShutdown func(context.Context) error

	generator      thumbnail.Generator
	cancelPipeline context.CancelFunc
}

// ApplicationOption configures the Application before wiring completes.
type ApplicationOption func(*Application) error

// WithThumbnailGenerator swaps the frame generator (tests use a fake to
// avoid shelling out to ffmpeg).
func WithThumbnailGenerator(gen thumbnail.Generator) ApplicationOption {
	return func(a *Application) error {
		a.generator = gen
		return nil
	}
}

func NewApplication(cfg *config.Config, opts ...ApplicationOption) (*Application, error) {
	redisClient := providers.NewRedisProvider(cfg.RedisAddr, cfg.RedisPassword)
	limiter := ratelimit.NewTokenBucketLimiter(redisClient)

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		loc = time.FixedZone("UTC", 0)
	}

	level := new(slog.LevelVar)
	switch cfg.LogLevel {
	case "debug":
		level.Set(slog.LevelDebug)
	case "warn":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	default:
		level.Set(slog.LevelInfo)
	}
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	if cfg.LogFormat == "text" {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}
	logger := slog.New(handler).With("service", "studylog", "env", cfg.Env)
	slog.SetDefault(logger)

	store, err := storage.NewLocalStore(cfg.UploadsDir, cfg.ThumbnailsDir)
	if err != nil {
		return nil, err
	}
	cat := catalog.Default()
	repo := repository.NewRecordRepository(redisClient, loc)
	sessions := auth.NewSessions(cfg.SessionSecret, time.Duration(cfg.SessionTTLHours)*time.Hour, time.Now)

	uploads := services.NewUploadService(cat, repo, store, logger, loc, time.Now, cfg.MaxFilesPerTask)
	deletes := services.NewDeleteService(cat, repo, store, logger, loc, time.Now)
	records := services.NewRecordsService(repo)

	engine := gin.New()
	engine.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(logger))
	if cfg.TracingEnabled {
		engine.Use(middleware.Tracing("studylog"))
	}

	app := &Application{
		Config:   cfg,
		Engine:   engine,
		Catalog:  cat,
		Uploads:  uploads,
		Deletes:  deletes,
		Records:  records,
		Store:    store,
		Sessions: sessions,
		Logger:   logger,
		TZ:       loc,
		Limiter:  limiter,
	}

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	if app.generator == nil {
		app.generator = thumbnail.NewFFmpegGenerator("")
	}
	app.Pipeline = thumbnail.NewPipeline(app.generator, store, repo, logger, cfg.ThumbnailWorkers)

	pipelineCtx, cancel := context.WithCancel(context.Background())
	app.cancelPipeline = cancel
	app.Pipeline.Start(pipelineCtx)

	return app, nil
}

// Shutdown drains background work; safe to call once on exit.
func (a *Application) Shutdown(ctx context.Context) {
	if a.cancelPipeline != nil {
		a.cancelPipeline()
	}
	if a.Pipeline != nil {
		a.Pipeline.Close()
	}
	if a.TracingShutdown != nil {
		_ = a.TracingShutdown(ctx)
	}
}

// SetupTracing installs the OTLP exporter according to config.
func (a *Application) SetupTracing(ctx context.Context) error {
	shutdown, err := tracing.Setup(ctx, tracing.Config{
		Enabled:      a.Config.TracingEnabled,
		ServiceName:  "studylog",
		OTLPEndpoint: a.Config.OTLPEndpoint,
		OTLPInsecure: a.Config.OTLPInsecure,
		SampleRatio:  a.Config.TraceSampleRatio,
	}, a.Logger)
	if err != nil {
		return err
	}
	a.TracingShutdown = shutdown
	return nil
}
