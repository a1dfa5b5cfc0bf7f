package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"Futures/internal/brokers/nats"
	"Futures/internal/config"
	"Futures/internal/domain/models"

	natsgo "github.com/nats-io/nats.go"
)

// ledger_consumer tails the LEDGER stream and writes an audit line per committed mutation.
func main() {
	cfg := config.MustLoad()

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("starting ledger consumer", slog.String("env", cfg.Env), slog.String("durable", cfg.NatsCfg.Durable))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	nc, err := natsgo.Connect(cfg.NatsCfg.URL)
	if err != nil {
		log.Error("ledger consumer nats.Connect err", "err", err)
		os.Exit(1)
	}
	defer nc.Drain()

	js, err := nc.JetStream()
	if err != nil {
		log.Error("ledger consumer jetstream creating err", "err", err)
		os.Exit(1)
	}
	if err := nats.EnsureStreams(js); err != nil {
		log.Error("ledger consumer EnsureStreams err", "err", err)
		os.Exit(1)
	}

	consumer := nats.NewConsumer(log, js, cfg.NatsCfg.Durable, func(_ context.Context, e models.LedgerEvent) error {
		log.Info("ledger event",
			slog.String("type", string(e.Type)),
			slog.Int64("user_id", e.UserId),
			slog.Int64("position_id", e.PositionId),
			slog.String("amount", e.Amount.String()),
			slog.String("balance", e.Balance.String()),
			slog.Int64("stars", e.Stars),
		)
		return nil
	})

	if err := consumer.Run(ctx); err != nil {
		log.Error("ledger consumer stopped with error", "err", err)
		os.Exit(1)
	}
}
