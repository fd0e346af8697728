package interfaces

import (
	"context"

	"safetravel/internal/models"
)

type VaultRepository interface {
	ListShared(ctx context.Context) ([]*models.VaultEntry, error)
	SaveShared(ctx context.Context, entries []*models.VaultEntry) error
	ListPrivate(ctx context.Context) ([]*models.VaultEntry, error)
	SavePrivate(ctx context.Context, entries []*models.VaultEntry) error

	GetPrivateAccessCode(ctx context.Context) (string, error)
	SavePrivateAccessCode(ctx context.Context, code string) error
}
