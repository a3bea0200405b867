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

	"formnotif/internal/awsutil"
	"formnotif/internal/config"
	"formnotif/internal/httpapi"
	"formnotif/internal/httpserver"
	"formnotif/internal/logging"
	"formnotif/internal/observability"
	sqsqueue "formnotif/internal/queue/sqs"
	"formnotif/internal/service"
)

func main() {
	cfg, err := config.LoadWebhook()
	if err != nil {
		slog.Error("webhook config load failed", "err", err)
		os.Exit(1)
	}
	logger := logging.Init("webhook", cfg.LogFormat, cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sqsClient, err := awsutil.NewSQSClient(ctx, cfg.AWSRegion, cfg.LocalstackEndpoint)
	if err != nil {
		logger.Error("webhook sqs client init failed", "err", err)
		os.Exit(1)
	}

	observability.Register(prometheus.DefaultRegisterer)

	s := httpserver.New()
	wh := &httpserver.Webhook{
		Svc: &service.SubmissionService{
			Queue: &sqsqueue.Producer{SQS: sqsClient, QueueURL: cfg.SQSQueueURL, FIFO: cfg.SQSFIFO},
		},
		Secret: cfg.WebhookSecret,
	}
	wh.Register(s.Mux)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           s.Mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	ops := &http.Server{
		Addr:    ":" + cfg.MetricsPort,
		Handler: httpapi.New(prometheus.DefaultGatherer).Mux,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info("webhook shutdown", "signal", sig.String())
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = ops.Shutdown(shutdownCtx)
		_ = srv.Shutdown(shutdownCtx)
	}()

	go func() {
		if err := ops.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("webhook ops server failed", "err", err)
		}
	}()

	logger.Info("webhook listening", "port", cfg.Port, "fifo", cfg.SQSFIFO)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("webhook server failed", "err", err)
		os.Exit(1)
	}
}
