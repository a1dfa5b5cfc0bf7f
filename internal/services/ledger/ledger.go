package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"Futures/internal/config"
	"Futures/internal/domain/models"
	"Futures/internal/storage"
	"Futures/internal/tournament"
	"Futures/pkg/idgen"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrPositionNotFound    = errors.New("position not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrStorageUnavailable  = errors.New("storage unavailable")
	ErrFaucetLimit         = errors.New("faucet limit reached")
	ErrAlreadyJoined       = tournament.ErrAlreadyJoined
	ErrInsufficientStars   = tournament.ErrInsufficientStars
)

type Config struct {
	StartingBalance decimal.Decimal
	StartingStars   int64
	FaucetClick     decimal.Decimal
	FaucetMax       decimal.Decimal
	Workers         int
	QueueSize       int
	NodeID          int64
}

func DefaultConfig() Config {
	return Config{
		StartingBalance: decimal.NewFromInt(10000),
		StartingStars:   5,
		FaucetClick:     decimal.NewFromInt(100),
		FaucetMax:       decimal.NewFromInt(100000),
		Workers:         runtime.NumCPU(),
		QueueSize:       1024,
	}
}

// NewConfig overlays configured settings on DefaultConfig. Zero values keep the default.
func NewConfig(s config.LedgerConfig) Config {
	cfg := DefaultConfig()
	if s.StartingBalance.IsPositive() {
		cfg.StartingBalance = s.StartingBalance
	}
	if s.StartingStars > 0 {
		cfg.StartingStars = s.StartingStars
	}
	if s.FaucetClick.IsPositive() {
		cfg.FaucetClick = s.FaucetClick
	}
	if s.FaucetMax.IsPositive() {
		cfg.FaucetMax = s.FaucetMax
	}
	if s.Workers > 0 {
		cfg.Workers = s.Workers
	}
	if s.QueueSize > 0 {
		cfg.QueueSize = s.QueueSize
	}
	cfg.NodeID = s.NodeID
	return cfg
}

// EventPublisher receives every committed mutation.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event models.LedgerEvent) error
}

// Recorder counts operation outcomes.
type Recorder interface {
	ObserveLedgerOp(op, outcome string)
}

// Settler returns the realized PnL for a position that is about to be closed.
type Settler func(ctx context.Context, p models.Position) (decimal.Decimal, error)

type Option func(*Ledger)

func WithPublisher(p EventPublisher) Option {
	return func(l *Ledger) { l.publisher = p }
}

func WithRecorder(r Recorder) Option {
	return func(l *Ledger) { l.recorder = r }
}

// Ledger owns balances, stars and open positions. Mutations for one user are serialized;
// each one works on a copy of the account and commits it with a single Save.
type Ledger struct {
	log        *slog.Logger
	store      storage.Store
	catalog    *tournament.Catalog
	cfg        Config
	ids        *idgen.Generator
	dispatcher *dispatcher
	publisher  EventPublisher
	recorder   Recorder
	now        func() time.Time
}

func New(log *slog.Logger, store storage.Store, catalog *tournament.Catalog, cfg Config, opts ...Option) *Ledger {
	l := &Ledger{
		log:        log,
		store:      store,
		catalog:    catalog,
		cfg:        cfg,
		ids:        idgen.New(cfg.NodeID),
		dispatcher: newDispatcher(cfg.Workers, cfg.QueueSize),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Close stops the workers after the queued operations have run.
func (l *Ledger) Close() {
	l.dispatcher.stop()
}

func (l *Ledger) Tournaments() []models.Tournament {
	return l.catalog.List()
}

// GetAccount returns the user's account, creating it with the starting balance and stars
// on first use.
func (l *Ledger) GetAccount(ctx context.Context, userId int64) (models.Account, error) {
	const op = "ledger.GetAccount"

	var res models.Account
	err := l.dispatcher.run(ctx, userId, func(ctx context.Context) error {
		acc, created, err := l.load(ctx, userId)
		if err != nil {
			return err
		}
		if created {
			if err := l.save(ctx, acc); err != nil {
				return err
			}
			l.log.Info("account created", "op", op, "user_id", userId, "balance", acc.Balance, "stars", acc.Stars)
		}
		res = acc.Clone()
		return nil
	})
	if err != nil {
		l.log.Error("failed to get account", "op", op, "user_id", userId, "err", err)
		return models.Account{}, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

func (l *Ledger) OpenPosition(ctx context.Context, userId int64, order models.OpenOrder) (models.Account, error) {
	const op = "ledger.OpenPosition"

	if err := validateOrder(order); err != nil {
		l.observe(op, err)
		l.log.Info("rejected order", "op", op, "user_id", userId, "err", err)
		return models.Account{}, fmt.Errorf("%s: %w", op, err)
	}

	return l.exec(ctx, op, userId, func(_ context.Context, acc *models.Account) (*models.LedgerEvent, error) {
		if order.Size.GreaterThan(acc.Balance) {
			l.log.Info("insufficient balance for order", "op", op, "user_id", userId, "balance", acc.Balance, "size", order.Size)
			return nil, ErrInsufficientBalance
		}

		pos := models.Position{
			Id:         l.nextPositionId(*acc),
			Asset:      order.Asset,
			Direction:  order.Direction,
			EntryPrice: order.EntryPrice,
			Size:       order.Size,
			OpenedAt:   l.now().UTC(),
		}
		acc.Balance = acc.Balance.Sub(order.Size)
		acc.Positions = append(acc.Positions, pos)

		return &models.LedgerEvent{
			Type:       models.EventPositionOpened,
			PositionId: pos.Id,
			Asset:      pos.Asset,
			Amount:     pos.Size,
		}, nil
	})
}

// ClosePosition removes the position and credits size + realizedPnl. The PnL is taken as given;
// network-facing callers go through SettlePosition instead.
func (l *Ledger) ClosePosition(ctx context.Context, userId, positionId int64, realizedPnl decimal.Decimal) (models.Account, error) {
	acc, _, err := l.closePosition(ctx, "ledger.ClosePosition", userId, positionId,
		func(context.Context, models.Position) (decimal.Decimal, error) {
			return realizedPnl, nil
		})
	return acc, err
}

// SettlePosition closes the position with the PnL computed by settle, which runs while the
// user's account is locked and sees the stored position.
func (l *Ledger) SettlePosition(ctx context.Context, userId, positionId int64, settle Settler) (models.Account, decimal.Decimal, error) {
	return l.closePosition(ctx, "ledger.SettlePosition", userId, positionId, settle)
}

func (l *Ledger) closePosition(ctx context.Context, op string, userId, positionId int64, settle Settler) (models.Account, decimal.Decimal, error) {
	var realized decimal.Decimal
	acc, err := l.exec(ctx, op, userId, func(ctx context.Context, acc *models.Account) (*models.LedgerEvent, error) {
		idx, ok := acc.FindPosition(positionId)
		if !ok {
			l.log.Info("position not found", "op", op, "user_id", userId, "position_id", positionId)
			return nil, ErrPositionNotFound
		}
		pos := acc.Positions[idx]

		pnl, err := settle(ctx, pos)
		if err != nil {
			return nil, err
		}

		acc.Positions = append(acc.Positions[:idx], acc.Positions[idx+1:]...)
		acc.Balance = acc.Balance.Add(pos.Size).Add(pnl)
		realized = pnl

		return &models.LedgerEvent{
			Type:       models.EventPositionClosed,
			PositionId: pos.Id,
			Asset:      pos.Asset,
			Amount:     pnl,
		}, nil
	})
	if err != nil {
		return models.Account{}, decimal.Zero, err
	}
	return acc, realized, nil
}

func (l *Ledger) JoinTournament(ctx context.Context, userId, tournamentId int64) (models.Account, error) {
	const op = "ledger.JoinTournament"

	t, ok := l.catalog.Get(tournamentId)
	if !ok {
		err := fmt.Errorf("%w: %w %d", ErrInvalidInput, tournament.ErrUnknownTournament, tournamentId)
		l.observe(op, err)
		return models.Account{}, fmt.Errorf("%s: %w", op, err)
	}

	return l.exec(ctx, op, userId, func(_ context.Context, acc *models.Account) (*models.LedgerEvent, error) {
		if err := tournament.Join(acc, t); err != nil {
			l.log.Info("tournament join rejected", "op", op, "user_id", userId, "tournament_id", t.Id, "err", err)
			return nil, err
		}
		return &models.LedgerEvent{
			Type:         models.EventTournamentJoined,
			TournamentId: t.Id,
			Amount:       decimal.NewFromInt(t.EntryFee),
		}, nil
	})
}

// ClaimFaucet tops the balance up by the click value, never past the faucet maximum.
func (l *Ledger) ClaimFaucet(ctx context.Context, userId int64) (models.Account, error) {
	const op = "ledger.ClaimFaucet"

	return l.exec(ctx, op, userId, func(_ context.Context, acc *models.Account) (*models.LedgerEvent, error) {
		if acc.Balance.GreaterThanOrEqual(l.cfg.FaucetMax) {
			return nil, ErrFaucetLimit
		}
		credit := decimal.Min(l.cfg.FaucetClick, l.cfg.FaucetMax.Sub(acc.Balance))
		acc.Balance = acc.Balance.Add(credit)

		return &models.LedgerEvent{
			Type:   models.EventFaucetClaimed,
			Amount: credit,
		}, nil
	})
}

type mutation func(ctx context.Context, acc *models.Account) (*models.LedgerEvent, error)

func (l *Ledger) exec(ctx context.Context, op string, userId int64, fn mutation) (models.Account, error) {
	var res models.Account
	err := l.dispatcher.run(ctx, userId, func(ctx context.Context) error {
		acc, _, err := l.load(ctx, userId)
		if err != nil {
			return err
		}

		work := acc.Clone()
		event, err := fn(ctx, &work)
		if err != nil {
			return err
		}
		if err := l.save(ctx, work); err != nil {
			return err
		}
		res = work.Clone()

		if event != nil {
			l.publish(ctx, *event, work)
		}
		return nil
	})
	l.observe(op, err)
	if err != nil {
		if errors.Is(err, ErrStorageUnavailable) || errors.Is(err, ErrStopped) {
			l.log.Error("ledger operation failed", "op", op, "user_id", userId, "err", err)
		}
		return models.Account{}, fmt.Errorf("%s: %w", op, err)
	}

	l.log.Debug("ledger operation applied", "op", op, "user_id", userId, "balance", res.Balance, "stars", res.Stars)
	return res, nil
}

func (l *Ledger) load(ctx context.Context, userId int64) (models.Account, bool, error) {
	acc, err := l.store.Load(ctx, userId)
	if errors.Is(err, storage.ErrAccountNotFound) {
		return l.newAccount(userId), true, nil
	}
	if err != nil {
		return models.Account{}, false, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return acc, false, nil
}

func (l *Ledger) save(ctx context.Context, acc models.Account) error {
	if err := l.store.Save(ctx, acc); err != nil {
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return nil
}

func (l *Ledger) newAccount(userId int64) models.Account {
	return models.Account{
		UserId:      userId,
		Balance:     l.cfg.StartingBalance,
		Stars:       l.cfg.StartingStars,
		Positions:   []models.Position{},
		Tournaments: []int64{},
	}
}

func (l *Ledger) nextPositionId(acc models.Account) int64 {
	for {
		id := l.ids.Next()
		if _, taken := acc.FindPosition(id); !taken {
			return id
		}
	}
}

func (l *Ledger) publish(ctx context.Context, event models.LedgerEvent, acc models.Account) {
	if l.publisher == nil {
		return
	}

	event.Id = uuid.New()
	event.UserId = acc.UserId
	event.Balance = acc.Balance
	event.Stars = acc.Stars
	event.CreatedAt = l.now().UTC()

	// the mutation is already committed, a lost event is only logged
	if err := l.publisher.PublishEvent(ctx, event); err != nil {
		l.log.Warn("failed to publish ledger event", "type", event.Type, "user_id", event.UserId, "err", err)
	}
}

func (l *Ledger) observe(op string, err error) {
	if l.recorder == nil {
		return
	}
	l.recorder.ObserveLedgerOp(op, Outcome(err))
}

// Outcome is a short label for err, used in metrics.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, ErrPositionNotFound):
		return "position_not_found"
	case errors.Is(err, ErrAlreadyJoined):
		return "already_joined"
	case errors.Is(err, ErrInsufficientStars):
		return "insufficient_stars"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrFaucetLimit):
		return "faucet_limit"
	case errors.Is(err, ErrStorageUnavailable):
		return "storage_unavailable"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}

func validateOrder(order models.OpenOrder) error {
	switch {
	case !order.Asset.Valid():
		return fmt.Errorf("%w: unknown asset %q", ErrInvalidInput, order.Asset)
	case !order.Direction.Valid():
		return fmt.Errorf("%w: unknown direction %q", ErrInvalidInput, order.Direction)
	case !order.Size.IsPositive():
		return fmt.Errorf("%w: size must be positive", ErrInvalidInput)
	case !order.EntryPrice.IsPositive():
		return fmt.Errorf("%w: entry price must be positive", ErrInvalidInput)
	}
	return nil
}
