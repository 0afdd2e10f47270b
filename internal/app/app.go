package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	apphttp "github.com/yungbote/survey-backend/internal/http"
	httpH "github.com/yungbote/survey-backend/internal/http/handlers"
	"github.com/yungbote/survey-backend/internal/observability"
	"github.com/yungbote/survey-backend/internal/platform/envutil"
	"github.com/yungbote/survey-backend/internal/platform/logger"
	"github.com/yungbote/survey-backend/internal/services"
)

type App struct {
	Log        *logger.Logger
	Cfg        Config
	Metrics    *observability.Metrics
	Submission services.SubmissionService
	Server     *apphttp.Server

	storage      *storageProvider
	otelShutdown func(context.Context) error
}

// New loads .env when present, reads the environment and wires every component.
func New(ctx context.Context) (*App, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)
	a, err := NewWithConfig(ctx, log, cfg)
	if err != nil {
		log.Sync()
		return nil, err
	}
	return a, nil
}

func NewWithConfig(ctx context.Context, log *logger.Logger, cfg Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: observability.DefaultServiceName,
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})
	metrics := observability.Init(log)

	storage, err := resolveStorage(ctx, log, cfg)
	if err != nil {
		return nil, fmt.Errorf("init survey storage: %w", err)
	}

	mailer, err := resolveMailer(ctx, log, cfg)
	if err != nil {
		_ = storage.Close()
		return nil, fmt.Errorf("init mailer: %w", err)
	}

	notifierCfg := cfg.Notifier
	notifierCfg.Metrics = metrics
	notifier := services.NewNotifier(log, mailer, notifierCfg)
	submission := services.NewSubmissionService(log, storage.Store, notifier, services.WithSubmissionMetrics(metrics))

	server := apphttp.NewServer(log, cfg.Addr(), apphttp.RouterConfig{
		Log:           log,
		ServiceName:   observability.DefaultServiceName,
		CORSOrigins:   cfg.CORSOrigins,
		Metrics:       metrics,
		SurveyHandler: httpH.NewSurveyHandler(log, submission),
		HealthHandler: httpH.NewHealthHandler(),
	}, cfg.ShutdownTimeout)

	return &App{
		Log:          log,
		Cfg:          cfg,
		Metrics:      metrics,
		Submission:   submission,
		Server:       server,
		storage:      storage,
		otelShutdown: otelShutdown,
	}, nil
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	g, gctx := errgroup.WithContext(ctx)

	a.Metrics.StartDBCollector(gctx, a.Log, a.storage.DB)
	a.Metrics.StartRedisCollector(gctx, a.Log, a.storage.Redis)

	g.Go(func() error {
		return a.Server.Run(gctx)
	})
	return g.Wait()
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if err := a.storage.Close(); err != nil {
		a.Log.Warn("Closing survey storage failed", "error", err)
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), a.Cfg.ShutdownTimeout)
		defer cancel()
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
	}
	a.Log.Sync()
}
