package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"Futures/internal/domain/models"
	"Futures/internal/storage"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	user_id INTEGER PRIMARY KEY,
	balance TEXT NOT NULL,
	stars INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS positions (
	user_id INTEGER NOT NULL REFERENCES accounts(user_id) ON DELETE CASCADE,
	id INTEGER NOT NULL,
	seq INTEGER NOT NULL,
	asset TEXT NOT NULL,
	direction TEXT NOT NULL,
	entry_price TEXT NOT NULL,
	size TEXT NOT NULL,
	opened_at TEXT NOT NULL,
	PRIMARY KEY (user_id, id)
);

CREATE TABLE IF NOT EXISTS tournament_entries (
	user_id INTEGER NOT NULL REFERENCES accounts(user_id) ON DELETE CASCADE,
	tournament_id INTEGER NOT NULL,
	seq INTEGER NOT NULL,
	PRIMARY KEY (user_id, tournament_id)
);
`

// Storage keeps accounts in a single SQLite file. Decimals are stored as text so no
// precision is lost.
type Storage struct {
	db  *sql.DB
	log *slog.Logger
}

func New(log *slog.Logger, path string) (*Storage, error) {
	const op = "sqlite.New"

	if path == "" {
		path = "./data/futures.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%s: create data dir: %w", op, err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: ping: %w", op, err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: init schema: %w", op, err)
	}

	log.Info("sqlite storage ready", "op", op, "path", path)
	return &Storage{db: db, log: log}, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) Load(ctx context.Context, userId int64) (models.Account, error) {
	const op = "sqlite.Load"

	acc := models.Account{UserId: userId}
	var balance string
	err := s.db.QueryRowContext(ctx, `SELECT balance, stars FROM accounts WHERE user_id = ?`, userId).
		Scan(&balance, &acc.Stars)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Account{}, storage.ErrAccountNotFound
	}
	if err != nil {
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
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, asset, direction, entry_price, size, opened_at
		FROM positions WHERE user_id = ? ORDER BY seq`, userId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []models.Position{}
	for rows.Next() {
		var (
			p                       models.Position
			entry, size, openedAtTs string
		)
		if err := rows.Scan(&p.Id, &p.Asset, &p.Direction, &entry, &size, &openedAtTs); err != nil {
			return nil, err
		}
		if p.EntryPrice, err = decimal.NewFromString(entry); err != nil {
			return nil, fmt.Errorf("position %d entry price: %w", p.Id, err)
		}
		if p.Size, err = decimal.NewFromString(size); err != nil {
			return nil, fmt.Errorf("position %d size: %w", p.Id, err)
		}
		if p.OpenedAt, err = time.Parse(time.RFC3339Nano, openedAtTs); err != nil {
			return nil, fmt.Errorf("position %d opened_at: %w", p.Id, err)
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

func (s *Storage) tournaments(ctx context.Context, userId int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT tournament_id FROM tournament_entries WHERE user_id = ? ORDER BY seq`, userId)
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

// Save replaces the stored account in one transaction.
func (s *Storage) Save(ctx context.Context, acc models.Account) (err error) {
	const op = "sqlite.Save"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin: %w", op, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO accounts(user_id, balance, stars) VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET balance = excluded.balance, stars = excluded.stars`,
		acc.UserId, acc.Balance.String(), acc.Stars); err != nil {
		return fmt.Errorf("%s: upsert account: %w", op, err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM positions WHERE user_id = ?`, acc.UserId); err != nil {
		return fmt.Errorf("%s: clear positions: %w", op, err)
	}
	for i, p := range acc.Positions {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO positions(user_id, id, seq, asset, direction, entry_price, size, opened_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			acc.UserId, p.Id, i, string(p.Asset), string(p.Direction),
			p.EntryPrice.String(), p.Size.String(), p.OpenedAt.UTC().Format(time.RFC3339Nano)); err != nil {
			return fmt.Errorf("%s: insert position %d: %w", op, p.Id, err)
		}
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM tournament_entries WHERE user_id = ?`, acc.UserId); err != nil {
		return fmt.Errorf("%s: clear tournaments: %w", op, err)
	}
	for i, id := range acc.Tournaments {
		if _, err = tx.ExecContext(ctx, `INSERT INTO tournament_entries(user_id, tournament_id, seq) VALUES (?, ?, ?)`,
			acc.UserId, id, i); err != nil {
			return fmt.Errorf("%s: insert tournament %d: %w", op, id, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}
	s.log.Debug("account saved", "op", op, "user_id", acc.UserId, "positions", len(acc.Positions))
	return nil
}
