package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/newsforge/forecast-image-service/internal/cache"
	"github.com/newsforge/forecast-image-service/internal/client"
	"github.com/newsforge/forecast-image-service/internal/config"
	"github.com/newsforge/forecast-image-service/internal/forecast"
	httphandler "github.com/newsforge/forecast-image-service/internal/http"
	"github.com/newsforge/forecast-image-service/internal/observability"
	"github.com/newsforge/forecast-image-service/internal/scheduler"
	"github.com/newsforge/forecast-image-service/internal/service"
)

func main() {
	// Optional .env for local development; real deployments set env directly.
	_ = godotenv.Load()

	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	provider, err := client.NewOpenWeatherClient(
		cfg.WeatherAPIKey,
		cfg.GeocodeURL,
		cfg.SummaryURL,
		cfg.Country,
		cfg.ProviderTimeout,
	)
	if err != nil {
		logger.Fatal("weather client", zap.Error(err))
	}

	var store cache.Store
	var memcacheCloser *cache.MemcachedStore
	switch cfg.CacheBackend {
	case "memcached":
		mc, err := cache.NewMemcachedStore(cfg.MemcachedAddrs, cfg.MemcachedTimeout, cfg.MemcachedMaxIdleConns)
		if err != nil {
			logger.Fatal("memcached store", zap.Error(err))
		}
		memcacheCloser = mc
		store = mc
		logger.Info("cache backend: memcached", zap.String("addrs", cfg.MemcachedAddrs))
	default:
		store = cache.NewInMemoryStore()
		logger.Info("cache backend: in_memory")
	}

	fetcher := forecast.NewFetcher(provider, logger)
	forecasts := service.NewForecastService(fetcher, store, service.Options{
		PostalCodes:   cfg.PostalCodes,
		DefaultWidth:  cfg.DefaultWidth,
		DefaultHeight: cfg.DefaultHeight,
		CacheTTL:      cfg.CacheTTL,
		IssueWeekday:  cfg.IssueWeekday,
		Horizon:       cfg.Horizon,
	}, logger)

	refresher := scheduler.New(forecasts, cfg.RefreshInterval, cfg.RefreshJobTimeout, logger)
	if err := refresher.Start(); err != nil {
		logger.Fatal("scheduler", zap.Error(err))
	}
	defer refresher.Stop()

	var cachePing func() error
	if memcacheCloser != nil {
		cachePing = memcacheCloser.Ping
	}
	handler := httphandler.NewHandler(forecasts, logger, cachePing)

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}

	router := mux.NewRouter()
	router.Use(httphandler.CorrelationIDMiddleware(logger))
	router.Use(httphandler.MetricsMiddleware)
	router.HandleFunc("/health", handler.GetHealth).Methods("GET")
	router.Handle("/metrics", observability.MetricsHandler())
	forecastRouter := router.PathPrefix("/forecast").Subrouter()
	forecastRouter.Use(httphandler.RateLimitMiddleware(limiter))
	forecastRouter.Use(httphandler.TimeoutMiddleware(cfg.RequestTimeout))
	forecastRouter.HandleFunc("", handler.GetForecastImage).Methods("GET")

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", ":"+cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	stop()

	logger.Info("graceful shutdown triggered")
	refresher.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	if memcacheCloser != nil {
		if err := memcacheCloser.Close(); err != nil {
			logger.Error("memcached close", zap.Error(err))
		}
	}
	logger.Info("shutdown complete")
}
