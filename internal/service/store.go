package service

import (
	"context"

	"github.com/busseva/busseva-backend/internal/model"
)

// AdminStore is the credential store backing authentication.
// Implementations return repository.ErrNotFound for unknown admins.
type AdminStore interface {
	GetByID(ctx context.Context, id int64) (*model.Admin, error)
	GetByUsername(ctx context.Context, username string) (*model.Admin, error)
	CreateIfAbsent(ctx context.Context, a *model.Admin) (bool, error)
	UpdatePassword(ctx context.Context, username, passwordHash string) error
}

// BusStore is the route record store.
// Implementations return repository.ErrNotFound and repository.ErrDuplicateKey.
type BusStore interface {
	ListAll(ctx context.Context) ([]model.Bus, error)
	GetByNumber(ctx context.Context, busNumber string) (*model.Bus, error)
	ListByNumbers(ctx context.Context, numbers []string) ([]model.Bus, error)
	SearchByRoute(ctx context.Context, text string) ([]model.Bus, error)
	Create(ctx context.Context, b *model.Bus) error
	Update(ctx context.Context, busNumber string, p model.BusPatch) (*model.Bus, string, error)
	Delete(ctx context.Context, busNumber string) (string, error)
}
