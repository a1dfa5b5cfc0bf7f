// Package storage defines the account store contract shared by the memory, sqlite and postgres backends.
package storage

import (
	"context"
	"errors"

	"Futures/internal/domain/models"
)

var ErrAccountNotFound = errors.New("account not found")

// Store loads and saves whole accounts. Save must be atomic: either the full account is
// persisted or nothing is. Callers serialize access per user id.
type Store interface {
	Load(ctx context.Context, userId int64) (models.Account, error)
	Save(ctx context.Context, account models.Account) error
}
