package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"github.com/todo-1m/tasklist/internal/app/domainengine"
	"github.com/todo-1m/tasklist/internal/eventlog"
	"github.com/todo-1m/tasklist/internal/messaging"
	"github.com/todo-1m/tasklist/internal/platform/dbpool"
	"github.com/todo-1m/tasklist/internal/platform/env"
	"github.com/todo-1m/tasklist/internal/platform/logging"
	"github.com/todo-1m/tasklist/internal/platform/metrics"
	"github.com/todo-1m/tasklist/internal/platform/natsutil"
	platformotel "github.com/todo-1m/tasklist/internal/platform/otel"
)

func main() {
	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg env.DomainEngine
	if err := env.Load(&cfg); err != nil {
		log.Fatal(err)
	}
	logger := logging.Setup("domain-engine", cfg.Telemetry.LogLevel, cfg.Telemetry.LogFormat)

	shutdownTracing, err := platformotel.Setup(runCtx, "domain-engine", cfg.Telemetry.OTLPEndpoint)
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

	store := eventlog.NewPostgresStore(pool)
	if err := dbpool.WaitReady(runCtx, pool, cfg.Postgres.ReadyTimeout, store.EnsureSchema); err != nil {
		log.Fatal(err)
	}

	client, err := natsutil.ConnectJetStreamWithRetry(cfg.NATS.URL, cfg.NATS.ConnectTimeout)
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	publisher := natsutil.JetStreamPublisher{JS: client.JS}
	service := domainengine.NewService(store, publisher.Publish)

	sub, err := client.JS.QueueSubscribe(messaging.CommandSubjects, cfg.QueueGroup, func(msg *nats.Msg) {
		ctx := platformotel.Extract(runCtx, msg.Header)
		ctx, cancel := context.WithTimeout(ctx, cfg.HandleTimeout)
		defer cancel()

		res, err := service.Handle(ctx, msg.Subject, msg.Data)
		if err != nil {
			entry := logger.WithError(err).WithField("subject", msg.Subject)
			switch {
			case errors.Is(err, domainengine.ErrInvalidCommandPayload),
				errors.Is(err, domainengine.ErrUnsupportedCommand),
				errors.Is(err, domainengine.ErrCorruptHistory):
				entry.Warn("discarding command")
				_ = msg.Term()
			case errors.Is(err, eventlog.ErrConcurrentAppend):
				entry.Info("aggregate moved on, retrying command")
				_ = msg.Nak()
			default:
				entry.Error("command processing failed")
				_ = msg.Nak()
			}
			return
		}
		logger.WithFields(log.Fields{
			"subject": msg.Subject,
			"outcome": res.Outcome,
			"events":  len(res.Events),
		}).Debug("command handled")
		_ = msg.Ack()
	}, nats.ManualAck())
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = sub.Drain() }()

	logger.WithField("subject", sub.Subject).Info("domain engine listening")
	<-runCtx.Done()
}
