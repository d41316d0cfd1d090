// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/propagators/b3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/zipkin"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/AccelByte/extend-ranked-queue/pkg/config"
	"github.com/AccelByte/extend-ranked-queue/pkg/envelope"
	"github.com/AccelByte/extend-ranked-queue/pkg/metrics"
	"github.com/AccelByte/extend-ranked-queue/pkg/models"
	"github.com/AccelByte/extend-ranked-queue/pkg/notify"
	"github.com/AccelByte/extend-ranked-queue/pkg/service"
	"github.com/AccelByte/extend-ranked-queue/pkg/store"
)

func main() {
	logrus.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.WithError(err).Warn("unknown log level, using info")
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := setupTracing(cfg.ZipkinURL)
	if err != nil {
		logrus.WithError(err).Fatal("failed to set up tracing")
	}
	defer shutdownTracing()

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer client.Close()
	if err := client.Ping(ctx).Err(); err != nil {
		logrus.WithError(err).WithField("addr", cfg.RedisAddr).Fatal("failed to connect to redis")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svc := service.New(cfg, client, service.Collaborators{
		Notifier:    notify.LogNotifier{},
		Broadcaster: notify.NewRedisBroadcaster(store.New(client, cfg.Namespace, cfg.StoreMaxAttempts)),
		Metrics:     metrics.NewMetrics(registry),
	})

	bootScope := envelope.NewRootScope(ctx, "bootstrap", "")
	err = svc.Bootstrap(bootScope)
	bootScope.Finish()
	if err != nil {
		logrus.WithError(err).Fatal("failed to bootstrap queue")
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		logrus.WithError(err).Fatal("failed to create scheduler")
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(cfg.CycleInterval()),
		gocron.NewTask(func() { runCycle(ctx, svc) }),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		logrus.WithError(err).Fatal("failed to schedule matchmaking cycle")
	}
	scheduler.Start()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Error("metrics server stopped")
		}
	}()

	logrus.WithFields(logrus.Fields{
		"namespace":     cfg.Namespace,
		"cycleInterval": cfg.CycleInterval().String(),
		"metricsAddr":   cfg.MetricsAddr,
	}).Info("ranked queue started")

	<-ctx.Done()
	logrus.Info("shutting down")

	if err := scheduler.Shutdown(); err != nil {
		logrus.WithError(err).Warn("scheduler shutdown")
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("metrics server shutdown")
	}
}

func runCycle(ctx context.Context, svc *service.Service) {
	scope := envelope.NewRootScope(ctx, "scheduledCycle", "")
	defer scope.Finish()

	_, err := svc.RunCycle(scope)
	switch {
	case errors.Is(err, models.ErrLocked):
		scope.Log.Info("previous cycle still running, skipped")
	case err != nil:
		scope.Log.WithError(err).Error("matchmaking cycle failed")
	}
}

// setupTracing installs the B3 propagator, and a zipkin exporting tracer provider when url is set.
func setupTracing(url string) (func(), error) {
	otel.SetTextMapPropagator(b3.New())
	if url == "" {
		return func() {}, nil
	}

	exporter, err := zipkin.New(url)
	if err != nil {
		return nil, err
	}
	provider := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(provider)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			logrus.WithError(err).Warn("tracer provider shutdown")
		}
	}, nil
}
