package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"Futures/internal/brokers/nats"
	"Futures/internal/config"
	"Futures/internal/metrics"
	"Futures/internal/orderbook"
	"Futures/internal/pricefeed"
	"Futures/internal/services/ledger"
	"Futures/internal/services/trade"
	"Futures/internal/session"
	"Futures/internal/storage"
	"Futures/internal/storage/memory"
	"Futures/internal/storage/postgres"
	"Futures/internal/storage/redis"
	"Futures/internal/storage/sqlite"
	"Futures/internal/tournament"
	handler "Futures/transport"

	"github.com/go-playground/validator/v10"
	natsgo "github.com/nats-io/nats.go"
	"golang.org/x/sync/errgroup"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)
	log.Info("starting application", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, log, cfg); err != nil {
		log.Error("application stopped with error", "err", err)
		os.Exit(1)
	}
	log.Info("application stopped")
}

func run(ctx context.Context, log *slog.Logger, cfg *config.Config) error {
	m := metrics.New("futures")

	store, closeStore, err := openStorage(ctx, log, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	var nc *natsgo.Conn
	if cfg.NatsCfg.Enabled || cfg.PriceFeed.Mode == "nats" {
		nc, err = natsgo.Connect(cfg.NatsCfg.URL)
		if err != nil {
			return fmt.Errorf("connect to nats: %w", err)
		}
		defer nc.Drain()
		log.Info("connected to nats broker", "url", cfg.NatsCfg.URL)
	}

	opts := []ledger.Option{ledger.WithRecorder(m)}
	book := pricefeed.NewBook(m)

	if cfg.NatsCfg.Enabled {
		publisher, err := nats.New(log, nc)
		if err != nil {
			return fmt.Errorf("init jetstream: %w", err)
		}
		opts = append(opts, ledger.WithPublisher(publisher))
		// relayed prices already come from the broker
		if cfg.PriceFeed.Mode != "nats" {
			book.Subscribe(publisher)
		}
	}

	var cached pricefeed.PriceSource
	if cfg.RedisCfg.Enabled {
		cache := redis.New(log, cfg.RedisCfg)
		defer cache.Close()
		if err := cache.Ping(ctx); err != nil {
			log.Warn("redis unavailable, price cache disabled", "err", err)
		} else {
			book.Subscribe(cache)
			cached = cache
		}
	}

	runFeed, err := preparePriceFeed(ctx, log, cfg.PriceFeed, book, nc, cached)
	if err != nil {
		return err
	}

	l := ledger.New(log, store, tournament.DefaultCatalog(), ledger.NewConfig(cfg.Ledger), opts...)
	defer l.Close()

	tradeService := trade.New(log, l, book)
	validate := validator.New()
	limiter := handler.NewRateLimiter(log, cfg.HTTPServer.RateLimit, cfg.HTTPServer.RateBurst)

	router := handler.NewRouter(handler.RouterOptions{
		Resolver:       session.NewResolver(cfg.Session.DevUserID),
		Limiter:        limiter,
		AllowedOrigins: cfg.HTTPServer.AllowedOrigins,
		Metrics:        m,
		MetricsHandler: m.Handler(),
	}, handler.Handlers{
		Account:    handler.NewAccountHandler(log, l),
		Trade:      handler.NewTradeHandler(log, tradeService, validate),
		Tournament: handler.NewTournamentHandler(log, l, tournament.Leaderboard),
		Market:     handler.NewMarketHandler(log, book, orderbook.New(time.Now().UnixNano(), orderbook.DefaultDepth, orderbook.DefaultSpread)),
	})

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return runFeed(gctx)
	})
	g.Go(func() error {
		limiter.Cleanup(gctx)
		return nil
	})
	g.Go(func() error {
		log.Info("starting server", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// preparePriceFeed seeds the book before the server takes requests and returns the feed loop.
func preparePriceFeed(ctx context.Context, log *slog.Logger, cfg config.PriceFeedConfig, book *pricefeed.Book, nc *natsgo.Conn, cached pricefeed.PriceSource) (func(context.Context) error, error) {
	log = log.With("feed", cfg.Mode)

	switch cfg.Mode {
	case "binance":
		snapshot := pricefeed.NewBinanceSnapshot(log, cfg.BaseURL)
		if err := book.Seed(snapshot.Initial(ctx)); err != nil {
			return nil, err
		}
		return pricefeed.NewStream(log, book, cfg.StreamURL).Run, nil
	case "nats":
		// the feed process keeps the cache warm, so start from its last prices
		if err := book.Seed(pricefeed.CachedPrices(ctx, log, cached, pricefeed.MockPrices())); err != nil {
			return nil, err
		}
		return pricefeed.NewRelay(log, book, nc, pricefeed.PriceSubjects).Run, nil
	default:
		if err := book.Seed(pricefeed.MockPrices()); err != nil {
			return nil, err
		}
		return pricefeed.NewMockFeed(log, book, cfg.Seed, cfg.Interval, cfg.Volatility).Run, nil
	}
}

func openStorage(ctx context.Context, log *slog.Logger, cfg *config.Config) (storage.Store, func(), error) {
	switch cfg.Storage.Driver {
	case "sqlite":
		s, err := sqlite.New(log, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	case "postgres":
		dsn := cfg.PostgresCfg.DSN()
		if err := postgres.Migrate(log, dsn); err != nil {
			return nil, nil, err
		}
		s, err := postgres.New(ctx, log, dsn)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case "memory", "":
		return memory.New(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal, envDev:
		log = slog.New(
			slog.NewJSONHandler(
				os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(
				os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(
				os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}
