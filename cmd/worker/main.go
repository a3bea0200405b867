package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"formnotif/internal/awsutil"
	"formnotif/internal/config"
	"formnotif/internal/dispatch"
	"formnotif/internal/httpapi"
	"formnotif/internal/logging"
	"formnotif/internal/observability"
	"formnotif/internal/providers/starsender"
	sqsqueue "formnotif/internal/queue/sqs"
	"formnotif/internal/store/backend"
	workerproc "formnotif/internal/worker"
)

func main() {
	cfg, err := config.LoadWorker()
	if err != nil {
		slog.Error("worker config load failed", "err", err)
		os.Exit(1)
	}
	logger := logging.Init("worker", cfg.LogFormat, cfg.LogLevel)

	settings, err := config.LoadSettings(cfg.SettingsFile, cfg.StarsenderAPIKey)
	if err != nil {
		logger.Error("worker settings load failed", "err", err)
		os.Exit(1)
	}
	if err := settings.Complete(); err != nil {
		logger.Warn("notifications will be skipped until settings are complete", "err", err)
	}

	// Use a root ctx we can cancel
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logs, err := backend.Open(ctx, cfg.LogStorage)
	if err != nil {
		logger.Error("worker log store init failed", "err", err)
		os.Exit(1)
	}
	defer logs.Close()
	go logs.RunPruner(ctx, time.Hour)

	sqsClient, err := awsutil.NewSQSClient(ctx, cfg.AWSRegion, cfg.LocalstackEndpoint)
	if err != nil {
		logger.Error("worker sqs client init failed", "err", err)
		os.Exit(1)
	}
	queueReady := func(c context.Context) error {
		_, err := sqsClient.GetQueueAttributes(c, &sqs.GetQueueAttributesInput{
			QueueUrl:       &cfg.SQSQueueURL,
			AttributeNames: []types.QueueAttributeName{types.QueueAttributeNameQueueArn},
		})
		return err
	}

	startupCtx, startupCancel := context.WithTimeout(ctx, 3*time.Second)
	defer startupCancel()
	if err := queueReady(startupCtx); err != nil {
		logger.Error("sqs not reachable", "err", err)
		os.Exit(1)
	}

	observability.Register(prometheus.DefaultRegisterer)

	healthSrv := &http.Server{
		Addr:    ":" + cfg.MetricsPort,
		Handler: httpapi.New(prometheus.DefaultGatherer, logs.Ready, queueReady).Mux,
	}
	healthErrCh := make(chan error, 1)
	go func() {
		logger.Info("worker health listening", "port", cfg.MetricsPort)
		healthErrCh <- healthSrv.ListenAndServe()
	}()

	client := starsender.New(settings.APIKey, cfg.StarsenderBaseURL)
	client.HTTP.Timeout = cfg.StarsenderTimeout
	sender := &starsender.Guarded{
		Next:    client,
		Limiter: rate.NewLimiter(rate.Limit(cfg.StarsenderRPS), cfg.StarsenderBurst),
		Breaker: starsender.NewBreaker("starsender"),
	}
	processor := &workerproc.Processor{
		Dispatcher: dispatch.New(settings, sender, logs.Store, config.Location(cfg.Timezone), logger),
		Logger:     logger,
	}

	consumer := &sqsqueue.Consumer{
		SQS: sqsClient, QueueURL: cfg.SQSQueueURL,
		WaitTimeSeconds:   cfg.SQSWaitTime,
		MaxMessages:       cfg.SQSMaxMsgs,
		VisibilityTimeout: cfg.SQSVizTimeout,
	}

	pollErrCh := make(chan error, 1)
	go func() {
		logger.Info("worker starting poll", "queue_url", cfg.SQSQueueURL, "concurrency", cfg.WorkerConcurrency)
		pollErrCh <- consumer.PollConcurrent(ctx, cfg.WorkerConcurrency, func(ctx context.Context, job sqsqueue.SubmissionJob) error {
			start := time.Now()
			err := processor.Process(ctx, job)
			status := "ok"
			if err != nil {
				status = "error"
			}
			logger.Info("worker job finish",
				"submission_id", job.Event.Entry.ID,
				"status", status,
				"duration", time.Since(start),
				"err", err,
			)
			return err
		})
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-pollErrCh:
		if err != nil && err != context.Canceled {
			logger.Error("worker poll failed", "err", err)
			os.Exit(1)
		}
	case err := <-healthErrCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("worker health server failed", "err", err)
			os.Exit(1)
		}
	case sig := <-sigCh:
		logger.Info("worker shutdown", "signal", sig.String())
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = healthSrv.Shutdown(shutdownCtx)

	select {
	case <-pollErrCh:
	case <-time.After(10 * time.Second):
		logger.Info("worker shutdown timeout waiting for poll loop")
	}
}
