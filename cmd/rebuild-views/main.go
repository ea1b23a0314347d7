package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/todo-1m/tasklist/internal/app/datasink"
	"github.com/todo-1m/tasklist/internal/app/query"
	"github.com/todo-1m/tasklist/internal/eventlog"
	"github.com/todo-1m/tasklist/internal/platform/dbpool"
	"github.com/todo-1m/tasklist/internal/platform/env"
	"github.com/todo-1m/tasklist/internal/platform/logging"
	"github.com/todo-1m/tasklist/internal/platform/redisclient"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg env.RebuildViews
	if err := env.Load(&cfg); err != nil {
		log.Fatal(err)
	}
	logger := logging.Setup("rebuild-views", cfg.Telemetry.LogLevel, cfg.Telemetry.LogFormat)

	pool, err := dbpool.New(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	eventStore := eventlog.NewPostgresStore(pool)
	viewStore := datasink.NewPostgresStore(pool)
	if err := dbpool.WaitReady(ctx, pool, cfg.Postgres.ReadyTimeout, eventStore.EnsureSchema, viewStore.EnsureSchema); err != nil {
		log.Fatal(err)
	}

	var cache datasink.ViewCache
	rdb, err := redisclient.New(ctx, cfg.Redis)
	if err != nil {
		logger.WithError(err).Warn("redis unavailable, cached views are left until they expire")
	} else {
		defer rdb.Close()
		cache = query.NewViewCache(rdb, cfg.Redis.ViewTTL)
	}

	rebuilder := datasink.NewRebuilder(eventStore, viewStore, cache, cfg.PageSize)
	if _, err := rebuilder.Run(ctx); err != nil {
		log.Fatal(err)
	}
}
