package pricefeed

import (
	"context"
	"testing"

	"Futures/internal/domain/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapSource map[models.Asset]decimal.Decimal

func (m mapSource) Price(_ context.Context, asset models.Asset) (decimal.Decimal, error) {
	p, ok := m[asset]
	if !ok {
		return decimal.Zero, ErrPriceUnavailable
	}
	return p, nil
}

func TestCachedPrices_FallsBackPerAsset(t *testing.T) {
	src := mapSource{models.BTC: decimal.NewFromInt(100000)}

	seed := CachedPrices(context.Background(), discardLogger(), src, MockPrices())

	require.Len(t, seed, len(models.Assets()))
	assert.True(t, seed[models.BTC].Equal(decimal.NewFromInt(100000)))
	assert.True(t, seed[models.ETH].Equal(MockPrices()[models.ETH]))
	assert.True(t, seed[models.SOL].Equal(MockPrices()[models.SOL]))
}

func TestCachedPrices_NilSource(t *testing.T) {
	seed := CachedPrices(context.Background(), discardLogger(), nil, MockPrices())
	assert.Equal(t, MockPrices(), seed)
}

func TestBook_RelayedTickAfterCachedSeed(t *testing.T) {
	ctx := context.Background()
	book := NewBook()
	src := mapSource{models.BTC: decimal.NewFromInt(100000)}
	require.NoError(t, book.Seed(CachedPrices(ctx, discardLogger(), src, MockPrices())))

	// before any tick the served price is the cached one, not the mock base
	p, err := book.Price(ctx, models.BTC)
	require.NoError(t, err)
	assert.True(t, p.Equal(decimal.NewFromInt(100000)))

	require.NoError(t, book.UpdateTicker(ctx, models.PriceResponse{Symbol: "BTCUSDT", Price: "100100"}))

	q, err := book.Quote(models.BTC)
	require.NoError(t, err)
	assert.True(t, q.InitialPrice.Equal(decimal.NewFromInt(100000)))
	assert.True(t, q.ChangePercent.Equal(decimal.RequireFromString("0.1")), q.ChangePercent.String())
}
