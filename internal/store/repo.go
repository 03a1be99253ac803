package store

import (
	"context"
	"errors"

	"github.com/ykvlv/water-reminder-bot/internal/domain"
)

// ErrNotFound is returned when no row exists for a chat.
var ErrNotFound = errors.New("user not found")

// Repo defines storage operations for per-chat reminder preferences.
type Repo interface {
	EnsureUser(ctx context.Context, chatID int64) (*domain.User, error)
	GetUser(ctx context.Context, chatID int64) (*domain.User, error)
	GetActive(ctx context.Context, chatID int64) (bool, error)
	GetFrequency(ctx context.Context, chatID int64) (hours int, ok bool, err error)
	SetActive(ctx context.Context, chatID int64, active bool) error
	// SetFrequency stores the frequency and marks the user active.
	SetFrequency(ctx context.Context, chatID int64, hours int) error
	ListActive(ctx context.Context) ([]domain.User, error)
	Close() error
}
