package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"extsync/internal/adapters/cache"
	"extsync/internal/adapters/httpclient"
	"extsync/internal/adapters/postgres"
	"extsync/internal/api"
	"extsync/internal/config"
	"extsync/internal/platform/db"
	httpserver "extsync/internal/platform/http"
	"extsync/internal/rate"
	"extsync/internal/rate/handler"
	"extsync/internal/tracking"

	"github.com/sirupsen/logrus"
)

// Run wires the application components, starts the HTTP server and both
// sync schedulers.
func Run() error {
	appCfg, err := config.Init()
	if err != nil {
		return err
	}
	// Logger
	logrus.SetOutput(os.Stdout)
	cfgLevel := appCfg.Logging.Level
	if parsedLvl, parseErr := logrus.ParseLevel(cfgLevel); parseErr != nil {
		logrus.SetLevel(logrus.InfoLevel)
	} else {
		logrus.SetLevel(parsedLvl)
	}
	logrus.Info("✅ Config initialization successful")

	// Root context bound to OS signals for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Bounded context for startup operations (DB connect)
	startupCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// DB pool
	pool, err := db.CreatePoolAndPing(startupCtx, appCfg.DbServer)
	if err != nil {
		logrus.WithError(err).Error("Error connecting to db")
		return err
	}
	defer pool.Close()
	logrus.Info("✅ Postgres connection successful")

	// Shared TTL cache
	ttlCache, err := cache.New(appCfg.Cache.MaxItems)
	if err != nil {
		logrus.WithError(err).Error("Failed to create cache")
		return err
	}
	defer ttlCache.Close()

	// Base HTTP client (configurable timeout)
	httpTimeout := time.Duration(appCfg.HTTPClient.TimeoutSeconds) * time.Second
	if httpTimeout <= 0 {
		httpTimeout = 30 * time.Second
	}
	baseHTTPClient := &http.Client{Timeout: httpTimeout}

	// External clients
	if appCfg.RatesAPI.BaseURL == "" {
		return fmt.Errorf("rates api base url is required")
	}
	ratesClient := httpclient.NewDailyRatesClient(
		baseHTTPClient,
		appCfg.RatesAPI.BaseURL,
		appCfg.RatesAPI.BaseCurrency,
		appCfg.RatesAPI.RetryAttempts,
		time.Duration(appCfg.RatesAPI.RetryBaseDelayMS)*time.Millisecond,
	)
	if appCfg.TrackingAPI.BaseURL == "" || appCfg.TrackingAPI.Token == "" {
		return fmt.Errorf("tracking api base url and token are required")
	}
	trackingClient := httpclient.NewPostalTrackingClient(
		baseHTTPClient,
		appCfg.TrackingAPI.BaseURL,
		appCfg.TrackingAPI.Token,
		time.Duration(appCfg.TrackingAPI.CooldownSeconds)*time.Second,
	)

	// Repositories
	rateRepo := postgres.NewRateRepository(pool)
	cachedRateRepo := rate.NewCachedRateRepository(
		rateRepo,
		ttlCache,
		time.Duration(appCfg.Cache.PointTTLMinutes)*time.Minute,
		time.Duration(appCfg.Cache.RangeTTLMinutes)*time.Minute,
	)
	packageRepo := postgres.NewPackageRepository(pool)
	eventRepo := postgres.NewTrackingEventRepository(pool)

	// Services
	rateService := rate.NewService(ratesClient, cachedRateRepo, appCfg.RatesAPI.BaseCurrency)
	limiter := tracking.NewTokenBucketLimiter(appCfg.TrackingAPI.RPS, appCfg.TrackingAPI.Burst)
	trackingService := tracking.NewService(
		trackingClient, packageRepo, eventRepo, ttlCache, limiter,
		time.Duration(appCfg.TrackingAPI.CacheTTLSeconds)*time.Second,
	)
	poller := tracking.NewPoller(packageRepo, trackingService)

	// Schedulers
	rateScheduler := rate.NewScheduler(rateService, time.Duration(appCfg.Scheduler.RateUpdateIntervalMin)*time.Minute)
	defer func() {
		if shutDownErr := rateScheduler.Shutdown(); shutDownErr != nil {
			logrus.Errorf("Rate scheduler shutdown error: %v", shutDownErr)
		}
	}()
	if startErr := rateScheduler.Start(ctx); startErr != nil {
		logrus.WithError(startErr).Error("Failed to start rate scheduler")
		return startErr
	}

	trackingScheduler := tracking.NewScheduler(
		poller,
		time.Duration(appCfg.TrackingAPI.PollIntervalMin)*time.Minute,
		appCfg.TrackingAPI.PollLimit,
		nil,
	)
	defer func() {
		if shutDownErr := trackingScheduler.Shutdown(); shutDownErr != nil {
			logrus.Errorf("Tracking scheduler shutdown error: %v", shutDownErr)
		}
	}()
	if startErr := trackingScheduler.Start(ctx); startErr != nil {
		logrus.WithError(startErr).Error("Failed to start tracking scheduler")
		return startErr
	}
	logrus.Info("✅ Schedulers activation successful")

	// Handlers and router
	rateHandler := handler.NewRateHandler(rateService)
	router := api.NewRouter(rateHandler)

	logrus.Info("Starting http server")
	// Block until context is canceled, then perform graceful shutdown.
	if serverErr := httpserver.Start(ctx, appCfg.HTTPServer, router); serverErr != nil {
		stop()
		logrus.Errorf("HTTP server error: %v", serverErr)
		return serverErr
	}
	return nil
}
