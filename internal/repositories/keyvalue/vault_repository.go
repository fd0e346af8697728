package keyvalue

import (
	"context"

	"safetravel/internal/models"
	"safetravel/internal/repositories/interfaces"
	"safetravel/internal/utils"
	"safetravel/pkg/kv"
)

type vaultRepository struct {
	store kv.Store
}

func NewVaultRepository(store kv.Store) interfaces.VaultRepository {
	return &vaultRepository{store: store}
}

func (r *vaultRepository) ListShared(ctx context.Context) ([]*models.VaultEntry, error) {
	return r.list(ctx, utils.KeySharedVault)
}

func (r *vaultRepository) SaveShared(ctx context.Context, entries []*models.VaultEntry) error {
	return r.saveAll(ctx, utils.KeySharedVault, entries)
}

func (r *vaultRepository) ListPrivate(ctx context.Context) ([]*models.VaultEntry, error) {
	return r.list(ctx, utils.KeyPrivateVault)
}

func (r *vaultRepository) SavePrivate(ctx context.Context, entries []*models.VaultEntry) error {
	return r.saveAll(ctx, utils.KeyPrivateVault, entries)
}

// GetPrivateAccessCode returns "" when no code has been generated yet.
func (r *vaultRepository) GetPrivateAccessCode(ctx context.Context) (string, error) {
	var code string
	if err := load(ctx, r.store, utils.KeyPrivateAccessCode, &code); err != nil {
		return "", err
	}
	return code, nil
}

func (r *vaultRepository) SavePrivateAccessCode(ctx context.Context, code string) error {
	return save(ctx, r.store, utils.KeyPrivateAccessCode, code)
}

func (r *vaultRepository) list(ctx context.Context, key string) ([]*models.VaultEntry, error) {
	var entries []*models.VaultEntry
	if err := load(ctx, r.store, key, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *vaultRepository) saveAll(ctx context.Context, key string, entries []*models.VaultEntry) error {
	if entries == nil {
		entries = []*models.VaultEntry{}
	}
	return save(ctx, r.store, key, entries)
}
