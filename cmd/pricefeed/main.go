package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"Futures/internal/brokers/nats"
	"Futures/internal/config"
	"Futures/internal/pricefeed"
	"Futures/internal/storage/redis"

	natsgo "github.com/nats-io/nats.go"
)

const (
	envLocal = "local"
	envDev   = "dev"
)

// pricefeed pulls market prices and fans them out to redis and the PRICES stream,
// where app instances running with the nats feed mode pick them up.
func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)
	log.Info("starting price feed", slog.String("env", cfg.Env), slog.String("mode", cfg.PriceFeed.Mode))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	book := pricefeed.NewBook()

	nc, err := natsgo.Connect(cfg.NatsCfg.URL)
	if err != nil {
		log.Error("failed to connect to nats", "err", err)
		os.Exit(1)
	}
	defer nc.Drain()

	publisher, err := nats.New(log, nc)
	if err != nil {
		log.Error("failed to init jetstream", "err", err)
		os.Exit(1)
	}
	book.Subscribe(publisher)

	var cache *redis.Redis
	if cfg.RedisCfg.Enabled {
		cache = redis.New(log, cfg.RedisCfg)
		defer cache.Close()
		if err := cache.Ping(ctx); err != nil {
			log.Warn("redis unavailable, price cache disabled", "err", err)
			cache = nil
		} else {
			book.Subscribe(cache)
		}
	}

	if err := run(ctx, log, cfg.PriceFeed, book, cache); err != nil {
		log.Error("price feed stopped with error", "err", err)
		os.Exit(1)
	}
	log.Info("price feed stopped")
}

func run(ctx context.Context, log *slog.Logger, cfg config.PriceFeedConfig, book *pricefeed.Book, cache *redis.Redis) error {
	if cfg.Mode != "binance" {
		if err := book.Seed(pricefeed.MockPrices()); err != nil {
			return err
		}
		return pricefeed.NewMockFeed(log, book, cfg.Seed, cfg.Interval, cfg.Volatility).Run(ctx)
	}

	snapshot := pricefeed.NewBinanceSnapshot(log, cfg.BaseURL)
	if prices, err := snapshot.GetPrices(ctx); err == nil && cache != nil {
		if err := cache.SavePrices(ctx, prices); err != nil {
			log.Warn("failed to cache snapshot", "err", err)
		}
	}
	if err := book.Seed(snapshot.Initial(ctx)); err != nil {
		return err
	}
	return pricefeed.NewStream(log, book, cfg.StreamURL).Run(ctx)
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal, envDev:
		log = slog.New(
			slog.NewJSONHandler(
				os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(
				os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}
