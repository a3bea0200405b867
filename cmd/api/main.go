package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"formnotif/internal/config"
	"formnotif/internal/dispatch"
	"formnotif/internal/httpapi"
	"formnotif/internal/httpserver"
	"formnotif/internal/logging"
	"formnotif/internal/observability"
	"formnotif/internal/providers/starsender"
	"formnotif/internal/service"
	"formnotif/internal/store/backend"
)

func main() {
	cfg, err := config.LoadAPI()
	if err != nil {
		slog.Error("api config load failed", "err", err)
		os.Exit(1)
	}
	logger := logging.Init("api", cfg.LogFormat, cfg.LogLevel)

	settings, err := config.LoadSettings(cfg.SettingsFile, cfg.StarsenderAPIKey)
	if err != nil {
		logger.Error("api settings load failed", "err", err)
		os.Exit(1)
	}
	if err := settings.Complete(); err != nil {
		logger.Warn("notifications will be skipped until settings are complete", "err", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logs, err := backend.Open(ctx, cfg.LogStorage)
	if err != nil {
		logger.Error("api log store init failed", "err", err)
		os.Exit(1)
	}
	defer logs.Close()
	go logs.RunPruner(ctx, time.Hour)

	observability.Register(prometheus.DefaultRegisterer)

	client := starsender.New(settings.APIKey, cfg.StarsenderBaseURL)
	client.HTTP.Timeout = cfg.StarsenderTimeout
	sender := &starsender.Guarded{
		Next:    client,
		Limiter: rate.NewLimiter(rate.Limit(cfg.StarsenderRPS), cfg.StarsenderBurst),
		Breaker: starsender.NewBreaker("starsender"),
	}
	loc := config.Location(cfg.Timezone)

	svc := &service.SubmissionService{
		Dispatcher: dispatch.New(settings, sender, logs.Store, loc, logger),
		Store:      logs.Store,
	}

	limiter := httpserver.NewClientLimiter(cfg.ConnectionTestsPerMinute)
	limiter.TrustProxy = cfg.TrustProxyHeaders

	s := httpserver.New()
	api := &httpserver.API{
		Svc:      svc,
		Settings: settings,
		Client:   func(key string) httpserver.Starsender { return client.WithAPIKey(key) },
		Limiter:  limiter,
		SiteName: cfg.SiteName,
		Location: loc,
	}
	api.Register(s.Mux)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           s.Mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	ops := &http.Server{
		Addr:    ":" + cfg.MetricsPort,
		Handler: httpapi.New(prometheus.DefaultGatherer, logs.Ready).Mux,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info("api shutdown", "signal", sig.String())
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = ops.Shutdown(shutdownCtx)
		_ = srv.Shutdown(shutdownCtx)
	}()

	go func() {
		logger.Info("api ops listening", "port", cfg.MetricsPort)
		if err := ops.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("api ops server failed", "err", err)
		}
	}()

	logger.Info("api listening", "port", cfg.Port, "log_store", logs.Name, "enabled_forms", settings.EnabledForms)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("api server failed", "err", err)
		os.Exit(1)
	}
}
