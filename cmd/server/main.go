package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/tendant/chi-demo/app"
	"github.com/tendant/per-object-storage/pkg/perobject/api"
	"github.com/tendant/per-object-storage/pkg/perobject/config"
	"github.com/tendant/per-object-storage/pkg/perobject/simhost"
)

// Config holds process-level settings read before the server config.
type Config struct {
	EnvPrefix       string        `env:"POS_ENV_PREFIX" env-default:"POS_"`
	ShutdownTimeout time.Duration `env:"POS_SHUTDOWN_TIMEOUT" env-default:"10s"`
	RequestTimeout  time.Duration `env:"POS_REQUEST_TIMEOUT" env-default:"60s"`
}

func main() {
	// Load .env file if it exists (silently ignore if not found)
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		slog.Error("Failed to read configuration", "err", err)
		os.Exit(1)
	}

	serverConfig, err := config.Load(config.WithEnv(cfg.EnvPrefix))
	if err != nil {
		slog.Error("Failed to load server configuration", "err", err)
		os.Exit(1)
	}

	logger := serverConfig.Logger()
	slog.SetDefault(logger)

	ctx := context.Background()
	archive, closeArchive, err := serverConfig.BuildArchive(ctx)
	if err != nil {
		logger.Error("Failed to build archive", "err", err)
		os.Exit(1)
	}
	defer closeArchive()

	svc, err := serverConfig.BuildService(logger, archive)
	if err != nil {
		logger.Error("Failed to build service", "err", err)
		os.Exit(1)
	}
	defer svc.Close()

	host := simhost.New(svc, logger)
	handler := api.NewHandler(svc, host,
		api.WithJWTSecret(serverConfig.JWTSecret),
		api.WithHandlerLogger(logger),
	)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	app.RoutesHealthz(r)
	app.RoutesHealthzReady(r)

	r.Mount("/api/v1", handler.Routes())

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", serverConfig.Port),
		Handler: r,
	}

	go func() {
		logger.Info("Per-object storage server starting",
			"port", serverConfig.Port,
			"env", serverConfig.Environment,
			"archive", serverConfig.Archive.Type,
			"field", serverConfig.FieldName,
			"auth", serverConfig.JWTSecret != "",
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server error", "err", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "err", err)
	}

	logger.Info("Server exiting")
}
