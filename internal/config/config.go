package config

import (
	"flag"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Env         string           `yaml:"env" env:"ENV" env-default:"local"`
	HTTPServer  HTTPServerConfig `yaml:"http_server"`
	Ledger      LedgerConfig     `yaml:"ledger"`
	Session     SessionConfig    `yaml:"session"`
	Storage     StorageConfig    `yaml:"storage"`
	PostgresCfg PostgresConfig   `yaml:"postgres"`
	RedisCfg    RedisConfig      `yaml:"redis"`
	NatsCfg     NatsConfig       `yaml:"nats"`
	PriceFeed   PriceFeedConfig  `yaml:"price_feed"`
}

type HTTPServerConfig struct {
	Address        string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:8080"`
	Timeout        time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout    time.Duration `yaml:"idle_timeout" env-default:"60s"`
	RateLimit      float64       `yaml:"rate_limit" env-default:"20"`
	RateBurst      int           `yaml:"rate_burst" env-default:"40"`
	AllowedOrigins []string      `yaml:"allowed_origins" env-default:"*"`
}

// LedgerConfig holds the ledger settings. Unset money values fall back to the ledger defaults.
type LedgerConfig struct {
	StartingBalance decimal.Decimal `yaml:"starting_balance"`
	StartingStars   int64           `yaml:"starting_stars" env-default:"5"`
	FaucetClick     decimal.Decimal `yaml:"faucet_click"`
	FaucetMax       decimal.Decimal `yaml:"faucet_max"`
	Workers         int             `yaml:"workers" env-default:"0"`
	QueueSize       int             `yaml:"queue_size" env-default:"1024"`
	NodeID          int64           `yaml:"node_id" env:"NODE_ID" env-default:"0"`
}

type SessionConfig struct {
	DevUserID int64 `yaml:"dev_user_id" env-default:"12345"`
}

type StorageConfig struct {
	Driver     string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"memory"`
	SQLitePath string `yaml:"sqlite_path" env-default:"./data/futures.db"`
}

type PostgresConfig struct {
	Host     string `yaml:"host" env:"POSTGRES_HOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"POSTGRES_PORT" env-default:"5432"`
	Username string `yaml:"username" env:"POSTGRES_USER"`
	Password string `yaml:"password" env:"POSTGRES_PASSWORD"`
	Database string `yaml:"database" env:"POSTGRES_DB"`
	SSLMode  string `yaml:"ssl_mode" env-default:"disable"`
}

type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Host     string        `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port     int           `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Db       int           `yaml:"db"`
	Password string        `yaml:"password" env:"REDIS_PASSWORD"`
	PriceTTL time.Duration `yaml:"price_ttl" env-default:"10m"`
}

type NatsConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url" env:"NATS_URL" env-default:"nats://localhost:4222"`
	Durable string `yaml:"durable" env-default:"LEDGER_CONSUMER"`
}

type PriceFeedConfig struct {
	// mock, binance or nats
	Mode       string        `yaml:"mode" env:"PRICE_FEED_MODE" env-default:"mock"`
	Seed       int64         `yaml:"seed" env-default:"1"`
	Interval   time.Duration `yaml:"interval" env-default:"2s"`
	Volatility float64       `yaml:"volatility" env-default:"0.002"`
	BaseURL    string        `yaml:"binance_base_url"`
	StreamURL  string        `yaml:"binance_stream_url"`
}

// DSN builds a postgres:// URL, accepted both by pgx and by the migrations driver.
func (c PostgresConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Username, c.Password),
		Host:     c.Host + ":" + strconv.Itoa(c.Port),
		Path:     "/" + c.Database,
		RawQuery: "sslmode=" + c.SSLMode,
	}
	return u.String()
}

func MustLoad() *Config {
	// a missing .env is fine
	_ = godotenv.Load()

	path := fetchConfigPath()
	if path == "" {
		panic("config file is empty")
	}

	return MustLoadByPath(path)
}

func MustLoadByPath(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err.Error())
	}
	return cfg
}

func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found %s", path)
	}

	var config Config
	if err := cleanenv.ReadConfig(path, &config); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return &config, nil
}

func fetchConfigPath() string {
	var res string

	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	return res
}
