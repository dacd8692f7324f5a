package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"blogapi/internal/api"
	"blogapi/internal/api/middleware"
	"blogapi/internal/config"
	"blogapi/pkg/factory"
	"blogapi/pkg/logger"
	"blogapi/pkg/tracing"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.LogLevel(cfg.LogLevel), nil)
	log.Info("Starting blog API", map[string]interface{}{"env": cfg.AppEnv, "version": version})

	ctx := context.Background()

	shutdownTracing, err := tracing.Init(ctx, "blogapi", cfg.Tracing.Endpoint)
	if err != nil {
		log.Fatal("Tracing could not be initialized", map[string]interface{}{"error": err.Error()})
	}

	appFactory, err := factory.NewFactory(ctx, cfg, log)
	if err != nil {
		log.Fatal("Application could not be initialized", map[string]interface{}{"error": err.Error()})
	}

	auth := appFactory.GetAuthenticator()

	mux := http.NewServeMux()
	api.NewUserHandler(appFactory.GetUserService(), auth, cfg.Auth.TokenTTL, cfg.Auth.CookieSecure, log).RegisterRoutes(mux)
	api.NewBlogHandler(appFactory.GetBlogService(), auth, log).RegisterRoutes(mux)
	api.NewCategoryHandler(appFactory.GetCategoryService(), auth, log).RegisterRoutes(mux)
	api.NewHealthHandler(appFactory.GetHealthChecks(), version, log).RegisterRoutes(mux)
	if cfg.MetricsEnabled {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	handler := middleware.Chain(
		middleware.MetricsMiddleware(mux),
		middleware.Recover(log),
		middleware.CORS(cfg.Server.CORSOrigin),
		middleware.TracingMiddleware,
		middleware.Logging(log),
	)

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening", map[string]interface{}{"port": cfg.Server.Port})

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server", map[string]interface{}{})

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", map[string]interface{}{"error": err.Error()})
	}
	if err := appFactory.Close(shutdownCtx); err != nil {
		log.Error("Closing connections failed", map[string]interface{}{"error": err.Error()})
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("Tracing shutdown failed", map[string]interface{}{"error": err.Error()})
	}

	log.Info("Server stopped", map[string]interface{}{})
}
