package sqlite

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"Futures/internal/domain/models"
	"Futures/internal/storage"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *Storage {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "test.db")

	s, err := New(slog.New(slog.NewTextHandler(io.Discard, nil)), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStorage_LoadMissing(t *testing.T) {
	s := setupTestDB(t)
	_, err := s.Load(context.Background(), 1)
	require.ErrorIs(t, err, storage.ErrAccountNotFound)
}

func TestStorage_SaveAndLoad(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()
	openedAt := time.Date(2024, 5, 1, 12, 30, 0, 123456789, time.UTC)

	acc := models.Account{
		UserId:  42,
		Balance: decimal.RequireFromString("8999.123456789"),
		Stars:   3,
		Positions: []models.Position{
			{Id: 20, Asset: models.ETH, Direction: models.Short, EntryPrice: decimal.RequireFromString("3500.5"), Size: decimal.NewFromInt(500), OpenedAt: openedAt},
			{Id: 10, Asset: models.BTC, Direction: models.Long, EntryPrice: decimal.NewFromInt(68000), Size: decimal.RequireFromString("500.876543211"), OpenedAt: openedAt.Add(time.Second)},
		},
		Tournaments: []int64{3, 1},
	}
	require.NoError(t, s.Save(ctx, acc))

	got, err := s.Load(ctx, 42)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(acc.Balance))
	assert.Equal(t, int64(3), got.Stars)
	assert.Equal(t, []int64{3, 1}, got.Tournaments)

	// insertion order survives, not id order
	require.Len(t, got.Positions, 2)
	assert.Equal(t, int64(20), got.Positions[0].Id)
	assert.Equal(t, models.Short, got.Positions[0].Direction)
	assert.True(t, got.Positions[0].EntryPrice.Equal(decimal.RequireFromString("3500.5")))
	assert.True(t, got.Positions[0].OpenedAt.Equal(openedAt))
	assert.True(t, got.Positions[1].Size.Equal(decimal.RequireFromString("500.876543211")))
}

func TestStorage_SaveReplaces(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	acc := models.Account{
		UserId:    1,
		Balance:   decimal.NewFromInt(9000),
		Stars:     5,
		Positions: []models.Position{{Id: 1, Asset: models.SOL, Direction: models.Long, EntryPrice: decimal.NewFromInt(150), Size: decimal.NewFromInt(1000)}},
	}
	require.NoError(t, s.Save(ctx, acc))

	acc.Positions = nil
	acc.Balance = decimal.NewFromInt(10100)
	require.NoError(t, s.Save(ctx, acc))

	got, err := s.Load(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, got.Positions)
	assert.Empty(t, got.Tournaments)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(10100)))

	_, err = s.Load(ctx, 2)
	require.ErrorIs(t, err, storage.ErrAccountNotFound)
}
