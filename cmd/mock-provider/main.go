package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"formnotif/internal/config"
	"formnotif/internal/httpserver"
	"formnotif/internal/logging"
)

func main() {
	cfg, err := config.LoadMockProvider()
	if err != nil {
		slog.Error("mock provider config load failed", "err", err)
		os.Exit(1)
	}
	logger := logging.Init("mock-provider", cfg.LogFormat, "info")

	s := newServer(cfg)
	router := httpserver.New().Mux
	s.register(router)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Info("mock provider listening", "port", cfg.Port, "outcome_mode", s.mode)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("mock provider server failed", "err", err)
		os.Exit(1)
	}
}
