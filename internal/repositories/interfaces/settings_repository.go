package interfaces

import (
	"context"

	"safetravel/internal/models"
)

type SettingsRepository interface {
	// Get returns stored settings, or the defaults when none were saved.
	Get(ctx context.Context) (*models.UserSettings, error)
	Save(ctx context.Context, settings *models.UserSettings) error

	GetProfile(ctx context.Context) (*models.UserProfile, error)
	SaveProfile(ctx context.Context, profile *models.UserProfile) error

	// GetPreference returns "" when the key was never written.
	GetPreference(ctx context.Context, key string) (string, error)
	SavePreference(ctx context.Context, key, value string) error
}
