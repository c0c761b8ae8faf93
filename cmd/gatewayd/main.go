package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/heartcheck/heartcheck/internal/gateway/config"
	"github.com/heartcheck/heartcheck/internal/gateway/handler"
	"github.com/heartcheck/heartcheck/internal/gateway/middleware"
	"github.com/heartcheck/heartcheck/internal/gateway/proxy"
	"github.com/heartcheck/heartcheck/pkg/auth"
	"github.com/heartcheck/heartcheck/pkg/observability"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid gateway configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.InitLogger(observability.LogConfig{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: "gatewayd",
	})

	logger.Info("starting gateway", "port", cfg.HTTPPort, "predictor", cfg.PredictorAddr)

	meterProvider, metricsHandler, err := observability.InitMetrics(observability.MetricsConfig{ServiceName: "gatewayd"})
	if err != nil {
		logger.Error("failed to initialize metrics", "error", err)
		os.Exit(1)
	}
	defer func() { _ = meterProvider.Shutdown(context.Background()) }()

	// The gateway only validates tokens; they are issued elsewhere.
	var jwtService *auth.JWTService
	if cfg.AuthEnabled() {
		publicKey, err := auth.LoadKeyFromFile(cfg.JWTPublicKeyFile)
		if err != nil {
			logger.Error("failed to load JWT public key file", "error", err)
			os.Exit(1)
		}
		jwtService, err = auth.NewJWTService(auth.JWTConfig{
			Secret:       cfg.JWTSecret,
			PublicKeyPEM: publicKey,
			Issuer:       cfg.JWTIssuer,
		})
		if err != nil {
			logger.Error("failed to initialize JWT service", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Warn("no JWT key configured, retrain routes are unauthenticated")
	}

	// Connect to the prediction service. The connection is lazy.
	predictor, err := proxy.Dial(cfg.PredictorAddr, cfg.PredictorTLS, proxy.RetryConfig{
		MaxTries:        cfg.RetryMaxTries,
		InitialInterval: cfg.RetryInitial,
	}, logger)
	if err != nil {
		logger.Error("failed to create prediction service client", "error", err)
		os.Exit(1)
	}
	defer predictor.Close()

	if err := predictor.CheckHealth(ctx); err != nil {
		logger.Warn("prediction service not reachable yet", "error", err)
	}

	// Routes.
	mux := http.NewServeMux()
	handler.New(predictor, handler.Options{
		JWT:            jwtService,
		MaxUploadBytes: cfg.MaxUploadBytes,
		RequestTimeout: cfg.RequestTimeout,
		RetrainTimeout: cfg.RetrainTimeout,
		Metrics:        metricsHandler,
	}, logger).RegisterRoutes(mux)

	// Build middleware chain (applied in reverse order).
	rateLimiter := middleware.NewPerClientRateLimiter(cfg.RateLimit)
	var h http.Handler = mux
	h = middleware.LoggingMiddleware(logger)(h)
	h = middleware.PerClientRateLimitMiddleware(rateLimiter)(h)
	h = middleware.CORSMiddleware(cfg.CORSOrigins)(h)

	server := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.RetrainTimeout + 10*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("server error", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	logger.Info("gateway stopped")
}
