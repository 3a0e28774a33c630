package repository

import (
	"context"
	"errors"

	"carpark_manager/internal/domain"
)

var ErrNotFound = errors.New("record not found")
var ErrDuplicateEntry = errors.New("record already exists")

// ErrNoSavedState means the store holds no car park yet. Callers fall back
// to creating a fresh one; this is not a failure.
var ErrNoSavedState = errors.New("no saved car park state")

// CarParkRepository persists the whole aggregate. Save mirrors the
// current in-memory state (the store is not an audit log); Load rebuilds
// the newest saved state.
type CarParkRepository interface {
	Save(ctx context.Context, park *domain.CarPark) error
	Load(ctx context.Context, now domain.Clock) (*domain.CarPark, error)
}

// UserRepository is the attendant account store.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindAll(ctx context.Context) ([]domain.User, error)
}
