package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/notifyhub/event-notifications/internal/api"
	"github.com/notifyhub/event-notifications/internal/config"
	"github.com/notifyhub/event-notifications/internal/db"
	"github.com/notifyhub/event-notifications/internal/dispatch"
	"github.com/notifyhub/event-notifications/internal/metrics"
	"github.com/notifyhub/event-notifications/internal/queue"
	"github.com/notifyhub/event-notifications/internal/realtime"
	"github.com/notifyhub/event-notifications/internal/repository"
	"github.com/notifyhub/event-notifications/internal/scheduler"
	"github.com/notifyhub/event-notifications/internal/service"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync() //nolint:errcheck

	// ---- configuration ----
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	// ---- database ----
	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	logger.Info("database migrations applied")

	// ---- core dependencies ----
	q := queue.New()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg, q.Len)

	notificationRepo := repository.NewPgNotificationRepository(pool)
	subscriptionRepo := repository.NewPgSubscriptionRepository(pool)

	producer := realtime.NewProducer(subscriptionRepo, realtime.PassthroughSigner{}, q, logger)

	svcs := api.Services{
		Polling:       service.NewPollingService(notificationRepo, cfg.DefaultMaxEvents, logger),
		Creation:      service.NewCreationService(notificationRepo, producer, logger),
		Subscriptions: service.NewSubscriptionService(subscriptionRepo),
	}

	// ---- push dispatch ----
	sender := dispatch.NewWebhookSender(cfg.CallbackTimeout, cfg.SendRateLimit)
	onBatch, onSent, onFailed := m.DispatchHooks()
	job := dispatch.NewJob(q, sender, nil, cfg.DispatchPoolSize, cfg.DrainSlotWait, logger, dispatch.MetricHooks{
		OnBatch:  onBatch,
		OnSent:   onSent,
		OnFailed: onFailed,
	})

	sched := scheduler.NewIntervalScheduler(logger)
	activator := scheduler.NewActivator(sched, cfg.DispatchFallbackInterval, logger)
	identity := scheduler.JobIdentity{Group: cfg.DispatchJobGroup, Name: cfg.DispatchJobName}
	if _, err := activator.Activate(cfg.DispatchCron, identity, job.Run); err != nil {
		// A scheduler-level failure leaves push delivery inactive; polling
		// still works, so log loudly instead of aborting.
		logger.Error("failed to activate dispatch schedule", zap.Error(err))
	}

	// ---- HTTP server ----
	router := api.NewRouter(svcs, q, reg, func() { m.PollsServed.Inc() }, logger)
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Start server in a goroutine so it does not block the shutdown listener.
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// ---- graceful shutdown ----
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer shutdownCancel()

	// 1. Stop accepting new HTTP requests.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	// 2. Remove the dispatch trigger and join any in-flight run. Items still
	// queued after this are lost; the queue is declared non-durable and the
	// polling path remains the catch-up mechanism.
	if err := sched.Stop(shutdownCtx); err != nil {
		logger.Error("scheduler shutdown timed out", zap.Error(err))
	}

	logger.Info("server stopped cleanly")
}
