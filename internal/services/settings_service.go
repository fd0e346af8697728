package services

import (
	"context"
	"fmt"
	"strings"

	"safetravel/internal/models"
	"safetravel/internal/repositories/interfaces"
	"safetravel/internal/utils"
	"safetravel/pkg/logger"
)

type SettingsService interface {
	GetSettings(ctx context.Context) (*models.UserSettings, error)
	UpdateSettings(ctx context.Context, settings *models.UserSettings) error

	GetProfile(ctx context.Context) (*models.UserProfile, error)
	UpdateProfile(ctx context.Context, profile *models.UserProfile) error

	GetTheme(ctx context.Context) (string, error)
	SetTheme(ctx context.Context, theme string) error
	GetLanguage(ctx context.Context) (string, error)
	SetLanguage(ctx context.Context, language string) error
}

var validThemes = map[string]bool{"light": true, "dark": true, "system": true}

type settingsService struct {
	settingsRepo    interfaces.SettingsRepository
	defaultLanguage string
	logger          *logger.Logger
}

func NewSettingsService(settingsRepo interfaces.SettingsRepository, defaultLanguage string, log *logger.Logger) SettingsService {
	if log == nil {
		log = logger.NewNop()
	}
	if defaultLanguage == "" {
		defaultLanguage = "en"
	}
	return &settingsService{
		settingsRepo:    settingsRepo,
		defaultLanguage: defaultLanguage,
		logger:          log.WithComponent("settings"),
	}
}

func (s *settingsService) GetSettings(ctx context.Context) (*models.UserSettings, error) {
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to load settings, using defaults")
		return models.DefaultUserSettings(), nil
	}
	return settings, nil
}

func (s *settingsService) UpdateSettings(ctx context.Context, settings *models.UserSettings) error {
	if settings == nil {
		return fmt.Errorf("missing settings: %w", ErrInvalidInput)
	}
	if strings.TrimSpace(settings.VoiceCommand) == "" {
		return fmt.Errorf("voice command must not be empty: %w", ErrInvalidInput)
	}
	if settings.SpeedThreshold <= 0 {
		return fmt.Errorf("speed threshold must be positive: %w", ErrInvalidInput)
	}
	if settings.DataRetentionDays <= 0 {
		return fmt.Errorf("data retention must be at least one day: %w", ErrInvalidInput)
	}

	if err := s.settingsRepo.Save(ctx, settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

func (s *settingsService) GetProfile(ctx context.Context) (*models.UserProfile, error) {
	profile, err := s.settingsRepo.GetProfile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return profile, nil
}

func (s *settingsService) UpdateProfile(ctx context.Context, profile *models.UserProfile) error {
	if profile == nil || strings.TrimSpace(profile.Name) == "" {
		return fmt.Errorf("profile name is required: %w", ErrInvalidInput)
	}
	if profile.ID == "" {
		profile.ID = utils.NewID()
	}
	if err := s.settingsRepo.SaveProfile(ctx, profile); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

func (s *settingsService) GetTheme(ctx context.Context) (string, error) {
	theme, err := s.settingsRepo.GetPreference(ctx, utils.KeyTheme)
	if err != nil {
		return "", fmt.Errorf("failed to load theme: %w", err)
	}
	if theme == "" {
		return "system", nil
	}
	return theme, nil
}

func (s *settingsService) SetTheme(ctx context.Context, theme string) error {
	if !validThemes[theme] {
		return fmt.Errorf("unknown theme %q: %w", theme, ErrInvalidInput)
	}
	if err := s.settingsRepo.SavePreference(ctx, utils.KeyTheme, theme); err != nil {
		return fmt.Errorf("failed to save theme: %w", err)
	}
	return nil
}

func (s *settingsService) GetLanguage(ctx context.Context) (string, error) {
	language, err := s.settingsRepo.GetPreference(ctx, utils.KeyLanguage)
	if err != nil {
		return "", fmt.Errorf("failed to load language: %w", err)
	}
	if language == "" {
		return s.defaultLanguage, nil
	}
	return language, nil
}

func (s *settingsService) SetLanguage(ctx context.Context, language string) error {
	language = strings.ToLower(strings.TrimSpace(language))
	if len(language) != 2 {
		return fmt.Errorf("language must be a two-letter code: %w", ErrInvalidInput)
	}
	if err := s.settingsRepo.SavePreference(ctx, utils.KeyLanguage, language); err != nil {
		return fmt.Errorf("failed to save language: %w", err)
	}
	return nil
}
