package memory

import (
	"context"
	"sync"

	"Futures/internal/domain/models"
	"Futures/internal/storage"
)

// Storage keeps accounts for the lifetime of the process.
type Storage struct {
	mu       sync.RWMutex
	accounts map[int64]models.Account
}

func New() *Storage {
	return &Storage{
		accounts: make(map[int64]models.Account),
	}
}

func (s *Storage) Load(_ context.Context, userId int64) (models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.accounts[userId]
	if !ok {
		return models.Account{}, storage.ErrAccountNotFound
	}
	return acc.Clone(), nil
}

func (s *Storage) Save(_ context.Context, account models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accounts[account.UserId] = account.Clone()
	return nil
}

func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts)
}
