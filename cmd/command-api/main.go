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

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"github.com/todo-1m/tasklist/internal/app/commandapi"
	"github.com/todo-1m/tasklist/internal/app/labelstore"
	"github.com/todo-1m/tasklist/internal/app/query"
	"github.com/todo-1m/tasklist/internal/platform/dbpool"
	"github.com/todo-1m/tasklist/internal/platform/env"
	"github.com/todo-1m/tasklist/internal/platform/logging"
	"github.com/todo-1m/tasklist/internal/platform/metrics"
	"github.com/todo-1m/tasklist/internal/platform/natsutil"
	platformotel "github.com/todo-1m/tasklist/internal/platform/otel"
	"github.com/todo-1m/tasklist/internal/platform/redisclient"
)

func main() {
	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg env.CommandAPI
	if err := env.Load(&cfg); err != nil {
		log.Fatal(err)
	}
	logger := logging.Setup("command-api", cfg.Telemetry.LogLevel, cfg.Telemetry.LogFormat)

	shutdownTracing, err := platformotel.Setup(runCtx, "command-api", cfg.Telemetry.OTLPEndpoint)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = shutdownTracing(context.Background()) }()
	metrics.Serve(cfg.Telemetry.MetricsAddr)

	pool, err := dbpool.New(runCtx, cfg.Postgres)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()
	if err := dbpool.WaitReady(runCtx, pool, cfg.Postgres.ReadyTimeout); err != nil {
		log.Fatal(err)
	}

	rdb, err := redisclient.New(runCtx, cfg.Redis)
	if err != nil {
		// Reads still work from Postgres alone.
		logger.WithError(err).Warn("redis unavailable, serving views without cache")
	}
	if rdb != nil {
		defer rdb.Close()
	}

	views := query.NewReader(query.NewViewRepository(pool), query.NewViewCache(rdb, cfg.Redis.ViewTTL))
	labels := labelstore.NewCached(labelstore.NewRepository(pool), rdb, cfg.Redis.LabelTTL)

	client, err := natsutil.ConnectJetStreamWithRetry(cfg.NATS.URL, cfg.NATS.ConnectTimeout)
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	publisher := natsutil.JetStreamPublisher{JS: client.JS}
	service := commandapi.NewService(publisher.Publish)
	handler := commandapi.NewHandler(service, views, labels, cfg.UIOrigin)
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := checkReadiness(r.Context(), pool, client); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/", handler.Router())

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.WithField("addr", cfg.Addr).Info("command API listening")
	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		log.Fatal(err)
	case <-runCtx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
	}
}

func checkReadiness(ctx context.Context, pool *pgxpool.Pool, client *natsutil.Client) error {
	if err := client.Ready(); err != nil {
		return err
	}

	checkCtx, cancel := context.WithTimeout(ctx, 1500*time.Millisecond)
	defer cancel()
	if err := pool.Ping(checkCtx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}
	return nil
}
