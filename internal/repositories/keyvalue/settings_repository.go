package keyvalue

import (
	"context"

	"safetravel/internal/models"
	"safetravel/internal/repositories/interfaces"
	"safetravel/internal/utils"
	"safetravel/pkg/kv"
)

type settingsRepository struct {
	store kv.Store
}

func NewSettingsRepository(store kv.Store) interfaces.SettingsRepository {
	return &settingsRepository{store: store}
}

func (r *settingsRepository) Get(ctx context.Context) (*models.UserSettings, error) {
	var settings *models.UserSettings
	if err := load(ctx, r.store, utils.KeyUserSettings, &settings); err != nil {
		return models.DefaultUserSettings(), err
	}
	if settings == nil {
		return models.DefaultUserSettings(), nil
	}
	return settings, nil
}

func (r *settingsRepository) Save(ctx context.Context, settings *models.UserSettings) error {
	return save(ctx, r.store, utils.KeyUserSettings, settings)
}

// GetProfile returns nil when onboarding has not stored a profile.
func (r *settingsRepository) GetProfile(ctx context.Context) (*models.UserProfile, error) {
	var profile *models.UserProfile
	if err := load(ctx, r.store, utils.KeyUserProfile, &profile); err != nil {
		return nil, err
	}
	return profile, nil
}

func (r *settingsRepository) SaveProfile(ctx context.Context, profile *models.UserProfile) error {
	return save(ctx, r.store, utils.KeyUserProfile, profile)
}

func (r *settingsRepository) GetPreference(ctx context.Context, key string) (string, error) {
	var value string
	if err := load(ctx, r.store, key, &value); err != nil {
		return "", err
	}
	return value, nil
}

func (r *settingsRepository) SavePreference(ctx context.Context, key, value string) error {
	return save(ctx, r.store, key, value)
}
