package pricefeed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"Futures/internal/domain/models"
	"Futures/internal/pnl"

	"github.com/shopspring/decimal"
)

var (
	ErrPriceUnavailable = errors.New("price unavailable")
	ErrInvalidPrice     = errors.New("invalid price")
	ErrUnknownSymbol    = errors.New("unknown symbol")
)

// Listener is notified after every accepted price update.
type Listener interface {
	OnQuote(ctx context.Context, q models.Quote)
}

type ListenerFunc func(ctx context.Context, q models.Quote)

func (f ListenerFunc) OnQuote(ctx context.Context, q models.Quote) {
	f(ctx, q)
}

// Book keeps the latest and the session-open price for every asset.
type Book struct {
	mu        sync.RWMutex
	latest    map[models.Asset]decimal.Decimal
	initial   map[models.Asset]decimal.Decimal
	updatedAt map[models.Asset]time.Time
	listeners []Listener
	now       func() time.Time
}

func NewBook(listeners ...Listener) *Book {
	return &Book{
		latest:    make(map[models.Asset]decimal.Decimal),
		initial:   make(map[models.Asset]decimal.Decimal),
		updatedAt: make(map[models.Asset]time.Time),
		listeners: listeners,
		now:       time.Now,
	}
}

func (b *Book) Subscribe(l Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, l)
}

// Seed resets both the initial and the latest price of every given asset.
func (b *Book) Seed(prices map[models.Asset]decimal.Decimal) error {
	const op = "pricefeed.Seed"

	for asset, price := range prices {
		if err := check(asset, price); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	ts := b.now().UTC()
	for asset, price := range prices {
		b.initial[asset] = price
		b.latest[asset] = price
		b.updatedAt[asset] = ts
	}
	return nil
}

// Update records a new price. The first price seen for an asset also becomes its initial price.
func (b *Book) Update(ctx context.Context, asset models.Asset, price decimal.Decimal) error {
	const op = "pricefeed.Update"

	if err := check(asset, price); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	b.mu.Lock()
	if _, ok := b.initial[asset]; !ok {
		b.initial[asset] = price
	}
	b.latest[asset] = price
	b.updatedAt[asset] = b.now().UTC()
	q := b.quoteLocked(asset)
	listeners := b.listeners
	b.mu.Unlock()

	for _, l := range listeners {
		l.OnQuote(ctx, q)
	}
	return nil
}

// UpdateTicker applies a tick in the wire shape used by Binance and the NATS relay.
func (b *Book) UpdateTicker(ctx context.Context, pr models.PriceResponse) error {
	const op = "pricefeed.UpdateTicker"

	asset, ok := models.ParseAsset(pr.Symbol)
	if !ok {
		return fmt.Errorf("%s: %w %q", op, ErrUnknownSymbol, pr.Symbol)
	}
	price, err := decimal.NewFromString(pr.Price)
	if err != nil {
		return fmt.Errorf("%s: %w: %w", op, ErrInvalidPrice, err)
	}
	return b.Update(ctx, asset, price)
}

// Price is the current price of asset. It satisfies the trade service's price source.
func (b *Book) Price(_ context.Context, asset models.Asset) (decimal.Decimal, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	p, ok := b.latest[asset]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrPriceUnavailable, asset)
	}
	return p, nil
}

func (b *Book) Quote(asset models.Asset) (models.Quote, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if _, ok := b.latest[asset]; !ok {
		return models.Quote{}, fmt.Errorf("%w: %s", ErrPriceUnavailable, asset)
	}
	return b.quoteLocked(asset), nil
}

// Quotes returns the known quotes in asset registry order.
func (b *Book) Quotes() []models.Quote {
	b.mu.RLock()
	defer b.mu.RUnlock()

	res := make([]models.Quote, 0, len(b.latest))
	for _, asset := range models.Assets() {
		if _, ok := b.latest[asset]; ok {
			res = append(res, b.quoteLocked(asset))
		}
	}
	return res
}

// Prices is a snapshot of the latest prices.
func (b *Book) Prices() map[models.Asset]decimal.Decimal {
	b.mu.RLock()
	defer b.mu.RUnlock()

	res := make(map[models.Asset]decimal.Decimal, len(b.latest))
	for a, p := range b.latest {
		res[a] = p
	}
	return res
}

func (b *Book) quoteLocked(asset models.Asset) models.Quote {
	price := b.latest[asset]
	initial := b.initial[asset]
	return models.Quote{
		Asset:         asset,
		Price:         price,
		InitialPrice:  initial,
		ChangePercent: pnl.ChangePercent(price, initial),
		UpdatedAt:     b.updatedAt[asset],
	}
}

func check(asset models.Asset, price decimal.Decimal) error {
	if !asset.Valid() {
		return fmt.Errorf("%w %q", ErrUnknownSymbol, asset)
	}
	if !price.IsPositive() {
		return fmt.Errorf("%w: %s must be positive, got %s", ErrInvalidPrice, asset, price)
	}
	return nil
}

// MockPrices are the fallback base prices.
func MockPrices() map[models.Asset]decimal.Decimal {
	res := make(map[models.Asset]decimal.Decimal)
	for _, asset := range models.Assets() {
		info, _ := models.LookupAsset(asset)
		res[asset] = info.MockPrice
	}
	return res
}
