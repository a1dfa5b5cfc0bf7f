package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"Futures/internal/domain/models"
	"Futures/internal/storage"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

//go:embed migrations/*.sql
var migrations embed.FS

type Storage struct {
	db  *pgxpool.Pool
	log *slog.Logger
}

func New(ctx context.Context, log *slog.Logger, connString string) (*Storage, error) {
	const op = "postgresql.New"

	db, err := pgxpool.New(ctx, connString)
	if err != nil {
		log.Error("Failed to connect to database", "op", op, "err", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		log.Error("Failed to ping database", "op", op, "err", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{db: db, log: log}, nil
}

// Migrate applies the embedded schema migrations. connString must be a postgres:// URL.
func Migrate(log *slog.Logger, connString string) error {
	const op = "postgresql.Migrate"

	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, connString)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%s: %w", op, err)
	}

	version, dirty, _ := m.Version()
	log.Info("migrations applied", "op", op, "version", version, "dirty", dirty)
	return nil
}

func (s *Storage) Close() {
	s.db.Close()
}

func (s *Storage) Load(ctx context.Context, userId int64) (models.Account, error) {
	const op = "postgresql.Load"

	acc := models.Account{UserId: userId}
	var balance string
	err := s.db.QueryRow(ctx, `SELECT balance::text, stars FROM accounts WHERE user_id = $1`, userId).
		Scan(&balance, &acc.Stars)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Account{}, storage.ErrAccountNotFound
	}
	if err != nil {
		s.log.Error("Failed to load account", "op", op, "user_id", userId, "err", err)
		return models.Account{}, fmt.Errorf("%s: %w", op, err)
	}
	if acc.Balance, err = decimal.NewFromString(balance); err != nil {
		return models.Account{}, fmt.Errorf("%s: balance: %w", op, err)
	}

	if acc.Positions, err = s.positions(ctx, userId); err != nil {
		return models.Account{}, fmt.Errorf("%s: %w", op, err)
	}
	if acc.Tournaments, err = s.tournaments(ctx, userId); err != nil {
		return models.Account{}, fmt.Errorf("%s: %w", op, err)
	}
	return acc, nil
}

func (s *Storage) positions(ctx context.Context, userId int64) ([]models.Position, error) {
	const queryPositions = `
        SELECT id, asset, direction, entry_price::text, size::text, opened_at
        FROM positions
        WHERE user_id = $1
        ORDER BY seq`

	rows, err := s.db.Query(ctx, queryPositions, userId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []models.Position{}
	for rows.Next() {
		var (
			p                              models.Position
			asset, direction, entry, size string
			openedAt                       time.Time
		)
		if err := rows.Scan(&p.Id, &asset, &direction, &entry, &size, &openedAt); err != nil {
			return nil, err
		}
		p.Asset = models.Asset(asset)
		p.Direction = models.Direction(direction)
		p.OpenedAt = openedAt.UTC()
		if p.EntryPrice, err = decimal.NewFromString(entry); err != nil {
			return nil, fmt.Errorf("position %d entry price: %w", p.Id, err)
		}
		if p.Size, err = decimal.NewFromString(size); err != nil {
			return nil, fmt.Errorf("position %d size: %w", p.Id, err)
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

func (s *Storage) tournaments(ctx context.Context, userId int64) ([]int64, error) {
	rows, err := s.db.Query(ctx, `SELECT tournament_id FROM tournament_entries WHERE user_id = $1 ORDER BY seq`, userId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		res = append(res, id)
	}
	return res, rows.Err()
}

// Save replaces the stored account, its positions and tournament entries in one transaction.
func (s *Storage) Save(ctx context.Context, acc models.Account) (err error) {
	const op = "postgresql.Save"

	tx, err := s.db.Begin(ctx)
	if err != nil {
		s.log.Error("Failed to begin transaction", "op", op, "err", err)
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	const queryUpsertAccount = `
        INSERT INTO accounts(user_id, balance, stars)
        VALUES ($1, $2, $3)
        ON CONFLICT (user_id) DO UPDATE
        SET balance = EXCLUDED.balance, stars = EXCLUDED.stars`

	if _, err = tx.Exec(ctx, queryUpsertAccount, acc.UserId, acc.Balance, acc.Stars); err != nil {
		return fmt.Errorf("%s: upsert account: %w", op, err)
	}

	if _, err = tx.Exec(ctx, `DELETE FROM positions WHERE user_id = $1`, acc.UserId); err != nil {
		return fmt.Errorf("%s: clear positions: %w", op, err)
	}
	if len(acc.Positions) > 0 {
		batch := &pgx.Batch{}
		for i, p := range acc.Positions {
			batch.Queue(`
                INSERT INTO positions(user_id, id, seq, asset, direction, entry_price, size, opened_at)
                VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				acc.UserId, p.Id, i, string(p.Asset), string(p.Direction), p.EntryPrice, p.Size, p.OpenedAt)
		}
		if err = tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("%s: insert positions: %w", op, err)
		}
	}

	if _, err = tx.Exec(ctx, `DELETE FROM tournament_entries WHERE user_id = $1`, acc.UserId); err != nil {
		return fmt.Errorf("%s: clear tournaments: %w", op, err)
	}
	for i, id := range acc.Tournaments {
		if _, err = tx.Exec(ctx, `INSERT INTO tournament_entries(user_id, tournament_id, seq) VALUES ($1, $2, $3)`,
			acc.UserId, id, i); err != nil {
			return fmt.Errorf("%s: insert tournament %d: %w", op, id, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		s.log.Error("Failed to commit transaction", "op", op, "err", err)
		return fmt.Errorf("%s: commit: %w", op, err)
	}

	s.log.Debug("account saved", "op", op, "user_id", acc.UserId, "balance", acc.Balance)
	return nil
}
