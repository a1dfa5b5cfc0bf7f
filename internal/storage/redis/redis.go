package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"Futures/internal/config"
	"Futures/internal/domain/models"
	"Futures/internal/pricefeed"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
)

const (
	prefix     = "futures:price"
	defaultTTL = 10 * time.Minute
)

// Redis caches the latest price per ticker so that several processes can share one feed.
type Redis struct {
	client *redis.Client
	log    *slog.Logger
	ttl    time.Duration
}

func New(log *slog.Logger, redisConfig config.RedisConfig) *Redis {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     redisConfig.Host + ":" + strconv.Itoa(redisConfig.Port),
		Password: redisConfig.Password,
		DB:       redisConfig.Db,
	})
	return NewWithClient(log, redisClient, redisConfig.PriceTTL)
}

func NewWithClient(log *slog.Logger, client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Redis{
		client: client,
		log:    log,
		ttl:    ttl,
	}
}

func (s *Redis) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Redis) Close() error {
	return s.client.Close()
}

func (s *Redis) SavePrices(ctx context.Context, prices []models.PriceResponse) error {
	const op = "redis.SavePrices"

	pipe := s.client.Pipeline()
	for _, priceResp := range prices {
		value, err := json.Marshal(priceResp.Price)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		pipe.Set(ctx, key(priceResp.Symbol), value, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		s.log.Error("failed to save prices", "op", op, "err", err)
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetPrice returns the cached price of ticker ("BTCUSDT", "BTC/USDT" or "BTC").
func (s *Redis) GetPrice(ctx context.Context, ticker string) (string, error) {
	const op = "redis.GetPrice"

	symbol := strings.ReplaceAll(ticker, "/", "")
	if asset, ok := models.ParseAsset(symbol); ok {
		symbol = asset.Ticker()
	}

	data, err := s.client.Get(ctx, key(symbol)).Result()
	if errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("%s: %w: %s", op, pricefeed.ErrPriceUnavailable, symbol)
	}
	if err != nil {
		s.log.Error("failed to get price", "op", op, "symbol", symbol, "err", err)
		return "", fmt.Errorf("%s: %w", op, err)
	}

	var price string
	if err := json.Unmarshal([]byte(data), &price); err != nil {
		s.log.Error("failed to unmarshal price", "op", op, "data", data, "err", err)
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return price, nil
}

// Price makes the cache usable as a price source.
func (s *Redis) Price(ctx context.Context, asset models.Asset) (decimal.Decimal, error) {
	raw, err := s.GetPrice(ctx, string(asset))
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(raw)
}

// OnQuote writes every book update through to the cache.
func (s *Redis) OnQuote(ctx context.Context, q models.Quote) {
	err := s.SavePrices(ctx, []models.PriceResponse{{Symbol: q.Asset.Ticker(), Price: q.Price.String()}})
	if err != nil {
		s.log.Warn("price cache write failed", "asset", q.Asset, "err", err)
	}
}

func key(symbol string) string {
	return fmt.Sprintf("%s:%s", prefix, strings.ToUpper(symbol))
}
