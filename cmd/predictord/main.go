package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/heartcheck/heartcheck/internal/application/usecase"
	"github.com/heartcheck/heartcheck/internal/domain/port"
	"github.com/heartcheck/heartcheck/internal/domain/service"
	"github.com/heartcheck/heartcheck/internal/infrastructure/artifact"
	"github.com/heartcheck/heartcheck/internal/infrastructure/config"
	"github.com/heartcheck/heartcheck/internal/infrastructure/dataset"
	infrakafka "github.com/heartcheck/heartcheck/internal/infrastructure/kafka"
	"github.com/heartcheck/heartcheck/internal/infrastructure/memory"
	"github.com/heartcheck/heartcheck/internal/infrastructure/ml"
	infrapg "github.com/heartcheck/heartcheck/internal/infrastructure/postgres"
	"github.com/heartcheck/heartcheck/internal/infrastructure/report"
	"github.com/heartcheck/heartcheck/internal/infrastructure/telemetry"
	grpcpresentation "github.com/heartcheck/heartcheck/internal/presentation/grpc"
	"github.com/heartcheck/heartcheck/internal/presentation/rest"
	"github.com/heartcheck/heartcheck/pkg/auth"
	pkgkafka "github.com/heartcheck/heartcheck/pkg/kafka"
	"github.com/heartcheck/heartcheck/pkg/observability"
	pg "github.com/heartcheck/heartcheck/pkg/postgres"
)

const serviceName = "predictord"

func main() {
	if err := run(); err != nil {
		slog.Error("predictord failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := observability.InitLogger(observability.LogConfig{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: serviceName,
	})
	logger.Info("starting predictord",
		"grpc_port", cfg.GRPCPort,
		"http_port", cfg.HTTPPort,
		"artifact_dir", cfg.ArtifactDir,
	)

	shutdownTracer, err := observability.InitTracer(ctx, observability.TracingConfig{
		ServiceName: serviceName,
		Endpoint:    cfg.OTLPEndpoint,
		Insecure:    true,
		SampleRatio: cfg.TraceSampleRatio,
	})
	if err != nil {
		logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
	} else {
		defer func() { _ = shutdownTracer(context.Background()) }()
	}

	meterProvider, metricsHandler, err := observability.InitMetrics(observability.MetricsConfig{ServiceName: serviceName})
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	defer func() { _ = meterProvider.Shutdown(context.Background()) }()

	instruments, err := telemetry.New(meterProvider)
	if err != nil {
		return fmt.Errorf("create instruments: %w", err)
	}

	// Record store and run history: PostgreSQL when configured, memory otherwise.
	var (
		records port.RecordStore
		runs    port.TrainingRunRepository
	)
	if cfg.Postgres.Enabled() {
		dbCtx, dbCancel := context.WithTimeout(ctx, 10*time.Second)
		pool, err := pg.NewPool(dbCtx, cfg.Postgres)
		dbCancel()
		if err != nil {
			return err
		}
		defer pool.Close()
		logger.Info("connected to database", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)

		if cfg.MigrationsDir != "" {
			if err := pg.RunMigrations(cfg.Postgres.DSN(), cfg.MigrationsDir, logger); err != nil {
				return err
			}
		}
		records = infrapg.NewRecordStore(pool)
		runs = infrapg.NewTrainingRunRepository(pool)
	} else {
		logger.Warn("no database configured, records and training runs are kept in memory")
		records = memory.NewRecordStore()
		runs = memory.NewTrainingRunRepository()
	}

	// Artifacts and the served engine.
	if err := os.MkdirAll(cfg.ArtifactDir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	artifacts, err := artifact.NewStore(cfg.ArtifactDir, ml.NewCodec(), logger)
	if err != nil {
		return err
	}
	holder := service.NewEngineHolder(func(ctx context.Context) (*service.Engine, error) {
		b, err := artifacts.Load(ctx)
		if err != nil {
			return nil, err
		}
		return service.NewEngine(b)
	}, logger)
	// A missing or corrupt model leaves the holder FAILED; /readyz reports it
	// and a retrain recovers.
	_ = holder.Reload(ctx)

	// Event publishing.
	var publisher port.EventPublisher = infrakafka.NewLogPublisher(logger)
	var producer *pkgkafka.Producer
	if cfg.Kafka.Enabled() {
		producer, err = pkgkafka.NewProducer(cfg.Kafka)
		if err != nil {
			return fmt.Errorf("create kafka producer: %w", err)
		}
		defer producer.Close()
		publisher = infrakafka.NewPublisher(producer, infrakafka.Topics{
			Training: cfg.TrainingTopic,
			Alerts:   cfg.AlertsTopic,
		}, logger)
	}

	// Wire use cases.
	pipeline := usecase.NewTrainingPipeline(usecase.TrainingDeps{
		Records:       records,
		Artifacts:     artifacts,
		Runs:          runs,
		Renderer:      report.NewRenderer(),
		Publisher:     publisher,
		Holder:        holder,
		Trainers:      ml.NewTrainer,
		Instruments:   instruments,
		Logger:        logger,
		DefaultKind:   cfg.ModelKindValue(),
		DefaultPolicy: cfg.PolicyValue(),
	})
	uc := grpcpresentation.UseCases{
		Predict:          usecase.NewPredict(holder, publisher, instruments, logger),
		PredictBatch:     usecase.NewPredictBatch(holder, publisher, instruments, logger),
		Retrain:          usecase.NewRetrain(pipeline, dataset.NewReader()),
		RetrainFromStore: usecase.NewRetrainFromStore(pipeline),
		GetTrainingRun:   usecase.NewGetTrainingRun(runs),
		GetModelInfo:     usecase.NewGetModelInfo(holder, records),
	}

	jwtService, err := newJWTService(cfg)
	if err != nil {
		return err
	}

	// gRPC server.
	grpcHandler := grpcpresentation.NewPredictionServiceHandler(uc, logger)
	grpcServer, err := grpcpresentation.NewServer(grpcHandler, grpcpresentation.ServerConfig{
		Address:    cfg.GRPCAddress(),
		TLS:        cfg.TLS,
		Reflection: cfg.Environment == "development",
	}, jwtService, logger)
	if err != nil {
		return err
	}

	// HTTP server (health checks, metrics, latest report).
	httpMux := http.NewServeMux()
	rest.NewHealthHandler(holder, usecase.NewGetReport(artifacts), metricsHandler, logger).RegisterRoutes(httpMux)
	httpServer := &http.Server{
		Addr:         cfg.HTTPAddress(),
		Handler:      httpMux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := grpcServer.Start(); err != nil {
			return fmt.Errorf("gRPC server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("HTTP server starting", "address", cfg.HTTPAddress())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Another replica, or the CLI, may commit new artifacts.
	if cfg.WatchArtifacts {
		watcher, err := artifact.NewWatcher(cfg.ArtifactDir, 0, holder.Reload, logger)
		if err != nil {
			return err
		}
		g.Go(func() error { return watcher.Run(gctx) })
	}
	if cfg.Kafka.Enabled() {
		consumer, err := pkgkafka.NewConsumer(cfg.Kafka, cfg.TrainingTopic, infrakafka.NewReloadHandler(holder.Reload, logger), logger)
		if err != nil {
			return fmt.Errorf("create kafka consumer: %w", err)
		}
		defer consumer.Close()
		g.Go(func() error { return consumer.Start(gctx) })
	}

	logger.Info("predictord started",
		"grpc_address", cfg.GRPCAddress(),
		"http_address", cfg.HTTPAddress(),
		"environment", cfg.Environment,
		"engine", holder.Status().State,
	)

	// Wait for shutdown signal or the first failing component.
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down predictord")

		grpcServer.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "error", err)
		}
		return nil
	})

	err = g.Wait()
	logger.Info("predictord stopped")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func newJWTService(cfg *config.Config) (*auth.JWTService, error) {
	if !cfg.AuthEnabled() {
		return nil, nil
	}
	publicKey, err := auth.LoadKeyFromFile(cfg.JWTPublicKeyFile)
	if err != nil {
		return nil, err
	}
	return auth.NewJWTService(auth.JWTConfig{
		Secret:       cfg.JWTSecret,
		PublicKeyPEM: publicKey,
		Issuer:       cfg.JWTIssuer,
	})
}
