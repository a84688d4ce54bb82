package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/aarelaponin/govstack-processing-server-sub000/internal/metrics"
	"github.com/aarelaponin/govstack-processing-server-sub000/internal/registration"
	"github.com/aarelaponin/govstack-processing-server-sub000/internal/server"
	"github.com/aarelaponin/govstack-processing-server-sub000/internal/store"
)

func runServe(e *env, args []string) int {
	fs := e.flags("serve")
	addr := fs.String("addr", ":8080", "listen address")
	mappingPath := fs.String("mapping", "", "mapping document (required)")
	serviceID := fs.String("service", "", "expected service id")
	rulesPath := fs.String("rules", "", "validation rule document; validation is disabled when empty")
	redisAddr := fs.String("redis", "", "Redis address; records are kept in memory when empty")
	redisPassword := fs.String("redis-password", "", "Redis password")
	redisDB := fs.Int("redis-db", 0, "Redis database")
	keyPrefix := fs.String("key-prefix", "", "Redis key prefix")
	bodyLimit := fs.Int("body-limit", server.DefaultBodyLimit, "largest accepted request body in bytes")
	shutdownTimeout := fs.Duration("shutdown-timeout", 10*time.Second, "graceful shutdown timeout")

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	if *mappingPath == "" {
		_, _ = fmt.Fprintln(e.stderr, "serve: -mapping is required")
		return exitUsage
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var storeOpts []store.Option
	if *keyPrefix != "" {
		storeOpts = append(storeOpts, store.WithKeyPrefix(*keyPrefix))
	}

	var sub store.Submitter = store.NewMemoryStore(storeOpts...)

	if *redisAddr != "" {
		client := store.NewRedisClient(*redisAddr, *redisPassword, *redisDB)
		defer func() { _ = client.Close() }()

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := client.Ping(pingCtx).Err()

		cancel()

		if err != nil {
			return e.fail(fmt.Errorf("connect to redis %s: %w", *redisAddr, err))
		}

		sub = store.NewRedisStore(client, storeOpts...)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m, err := metrics.New(reg)
	if err != nil {
		return e.fail(err)
	}

	svc, err := registration.Load(*mappingPath, *rulesPath, *serviceID, sub,
		registration.WithLogger(e.logger), registration.WithMetrics(m))
	if err != nil {
		return e.fail(err)
	}

	srv := server.New(registration.NewRegistry(svc),
		server.WithLogger(e.logger),
		server.WithGatherer(reg),
		server.WithBodyLimit(*bodyLimit))

	errCh := make(chan error, 1)

	go func() { errCh <- srv.Listen(*addr) }()

	select {
	case err := <-errCh:
		return e.fail(err)
	case <-ctx.Done():
	}

	e.logger.Info("Shutting down", "timeout", *shutdownTimeout)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), *shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return e.fail(err)
	}

	return exitOK
}
