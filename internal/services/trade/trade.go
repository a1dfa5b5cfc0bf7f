package trade

import (
	"context"
	"fmt"
	"log/slog"

	"Futures/internal/domain/models"
	"Futures/internal/pnl"
	"Futures/internal/services/ledger"

	"github.com/shopspring/decimal"
)

// PriceSource is the trusted market price used for opening and settling positions.
type PriceSource interface {
	Price(ctx context.Context, asset models.Asset) (decimal.Decimal, error)
}

type Ledger interface {
	GetAccount(ctx context.Context, userId int64) (models.Account, error)
	OpenPosition(ctx context.Context, userId int64, order models.OpenOrder) (models.Account, error)
	SettlePosition(ctx context.Context, userId, positionId int64, settle ledger.Settler) (models.Account, decimal.Decimal, error)
}

// Trade runs market orders: prices always come from the server's price source, never from the caller.
type Trade struct {
	log    *slog.Logger
	ledger Ledger
	prices PriceSource
}

func New(log *slog.Logger, ledger Ledger, prices PriceSource) *Trade {
	return &Trade{
		log:    log,
		ledger: ledger,
		prices: prices,
	}
}

func (t *Trade) OpenTradeDeal(ctx context.Context,
	userId int64,
	asset models.Asset,
	direction models.Direction,
	size decimal.Decimal) (models.Account, models.Position, error) {
	const op = "trade.OpenTradeDeal"

	if !asset.Valid() || !direction.Valid() {
		return models.Account{}, models.Position{}, fmt.Errorf("%s: %w", op, ledger.ErrInvalidInput)
	}

	entryPrice, err := t.prices.Price(ctx, asset)
	if err != nil {
		t.log.Error("failed to get entry price", "op", op, "asset", asset, "err", err)
		return models.Account{}, models.Position{}, fmt.Errorf("%s: %w", op, err)
	}

	acc, err := t.ledger.OpenPosition(ctx, userId, models.OpenOrder{
		Asset:      asset,
		Direction:  direction,
		EntryPrice: entryPrice,
		Size:       size,
	})
	if err != nil {
		return models.Account{}, models.Position{}, fmt.Errorf("%s: %w", op, err)
	}

	pos := acc.Positions[len(acc.Positions)-1]
	t.log.Info("position opened", "op", op, "user_id", userId, "position_id", pos.Id,
		"asset", asset, "direction", direction, "entry_price", entryPrice, "size", size)
	return acc, pos, nil
}

// CloseTradeDeal closes the position at the current market price and returns the realized PnL.
func (t *Trade) CloseTradeDeal(ctx context.Context, userId, positionId int64) (models.Account, decimal.Decimal, error) {
	const op = "trade.CloseTradeDeal"

	acc, realized, err := t.ledger.SettlePosition(ctx, userId, positionId,
		func(ctx context.Context, p models.Position) (decimal.Decimal, error) {
			closePrice, err := t.prices.Price(ctx, p.Asset)
			if err != nil {
				return decimal.Zero, err
			}
			return pnl.Realized(p, closePrice), nil
		})
	if err != nil {
		return models.Account{}, decimal.Zero, fmt.Errorf("%s: %w", op, err)
	}

	t.log.Info("position closed", "op", op, "user_id", userId, "position_id", positionId, "pnl", realized)
	return acc, realized, nil
}

// Portfolio values every open position at the current price. A position whose asset has
// no price yet is shown at its entry price.
func (t *Trade) Portfolio(ctx context.Context, userId int64) (models.Portfolio, error) {
	const op = "trade.Portfolio"

	acc, err := t.ledger.GetAccount(ctx, userId)
	if err != nil {
		return models.Portfolio{}, fmt.Errorf("%s: %w", op, err)
	}

	prices := make(map[models.Asset]decimal.Decimal)
	views := make([]models.PositionView, 0, len(acc.Positions))
	for _, p := range acc.Positions {
		current, ok := prices[p.Asset]
		if !ok {
			current, err = t.prices.Price(ctx, p.Asset)
			if err != nil {
				t.log.Debug("no price for position", "op", op, "asset", p.Asset, "err", err)
				current = p.EntryPrice
			} else {
				prices[p.Asset] = current
			}
		}
		views = append(views, models.PositionView{
			Position:      p,
			CurrentPrice:  current,
			UnrealizedPnl: pnl.Unrealized(p, current),
		})
	}

	return models.Portfolio{
		Account:       acc,
		Positions:     views,
		UnrealizedPnl: pnl.Total(acc.Positions, prices),
	}, nil
}
