package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"github.com/todo-1m/tasklist/internal/app/datasink"
	"github.com/todo-1m/tasklist/internal/app/labelstore"
	"github.com/todo-1m/tasklist/internal/app/query"
	"github.com/todo-1m/tasklist/internal/messaging"
	"github.com/todo-1m/tasklist/internal/platform/dbpool"
	"github.com/todo-1m/tasklist/internal/platform/env"
	"github.com/todo-1m/tasklist/internal/platform/logging"
	"github.com/todo-1m/tasklist/internal/platform/metrics"
	"github.com/todo-1m/tasklist/internal/platform/natsutil"
	platformotel "github.com/todo-1m/tasklist/internal/platform/otel"
	"github.com/todo-1m/tasklist/internal/platform/redisclient"
)

const outOfOrderRetryDelay = 250 * time.Millisecond

func main() {
	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg env.DataSink
	if err := env.Load(&cfg); err != nil {
		log.Fatal(err)
	}
	logger := logging.Setup("data-sink", cfg.Telemetry.LogLevel, cfg.Telemetry.LogFormat)

	shutdownTracing, err := platformotel.Setup(runCtx, "data-sink", cfg.Telemetry.OTLPEndpoint)
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

	store := datasink.NewPostgresStore(pool)
	if err := dbpool.WaitReady(runCtx, pool, cfg.Postgres.ReadyTimeout, store.EnsureSchema); err != nil {
		log.Fatal(err)
	}

	rdb, err := redisclient.New(runCtx, cfg.Redis)
	if err != nil {
		logger.WithError(err).Warn("redis unavailable, views will not be pushed to cache")
	}
	if rdb != nil {
		defer rdb.Close()
	}
	labels := labelstore.NewCached(labelstore.NewRepository(pool), rdb, cfg.Redis.LabelTTL)
	service := datasink.NewService(store, labels, query.NewViewCache(rdb, cfg.Redis.ViewTTL))

	client, err := natsutil.ConnectJetStreamWithRetry(cfg.NATS.URL, cfg.NATS.ConnectTimeout)
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	sub, err := client.JS.QueueSubscribe(messaging.EventSubjects, cfg.QueueGroup, func(msg *nats.Msg) {
		ctx := platformotel.Extract(runCtx, msg.Header)
		ctx, cancel := context.WithTimeout(ctx, cfg.HandleTimeout)
		defer cancel()

		eventSeq := natsutil.StreamSequence(msg)
		res, err := service.Handle(ctx, msg.Data, eventSeq)
		if err != nil {
			entry := logger.WithError(err).WithFields(log.Fields{"subject": msg.Subject, "seq": eventSeq})
			switch {
			case errors.Is(err, datasink.ErrInvalidEventPayload),
				errors.Is(err, datasink.ErrUnsupportedEventType):
				entry.Warn("discarding event")
				_ = msg.Term()
			case errors.Is(err, datasink.ErrOutOfOrder):
				entry.Debug("predecessor not applied yet")
				_ = msg.NakWithDelay(outOfOrderRetryDelay)
			default:
				entry.Error("event projection failed")
				_ = msg.Nak()
			}
			return
		}
		logger.WithFields(log.Fields{
			"seq":     eventSeq,
			"skipped": res.Skipped,
			"views":   len(res.Views),
		}).Debug("event projected")
		_ = msg.Ack()
	}, nats.ManualAck())
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = sub.Drain() }()

	logger.WithField("subject", sub.Subject).Info("data sink listening")
	<-runCtx.Done()
}
