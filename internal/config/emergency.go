package config

import (
	"time"

	"safetravel/internal/utils"
)

type EmergencyConfig struct {
	AccessCodeLength    int           `yaml:"access_code_length"`
	PrivateCodeLength   int           `yaml:"private_code_length"`
	LenientAccessCode   bool          `yaml:"lenient_access_code"`
	LocationTimeout     time.Duration `yaml:"location_timeout"`
	LocationMaxAge      time.Duration `yaml:"location_max_age"`
	TrackInterval       time.Duration `yaml:"track_interval"`
	TrackDistanceMeters float64       `yaml:"track_distance_meters"`
	NotifyTimeout       time.Duration `yaml:"notify_timeout"`
	VoiceRestartDelay   time.Duration `yaml:"voice_restart_delay"`
	PrivateVaultTTL     time.Duration `yaml:"private_vault_ttl"`
	SharedVaultTTL      time.Duration `yaml:"shared_vault_ttl"`
	CleanupSchedule     string        `yaml:"cleanup_schedule"`
	NotifySharedContent bool          `yaml:"notify_shared_content"`
	MediaMaxImageWidth  uint          `yaml:"media_max_image_width"`
}

func loadEmergencyConfig() *EmergencyConfig {
	return &EmergencyConfig{
		AccessCodeLength:    getEnvAsInt("EMERGENCY_ACCESS_CODE_LENGTH", utils.EmergencyAccessCodeLength),
		PrivateCodeLength:   getEnvAsInt("PRIVATE_ACCESS_CODE_LENGTH", utils.PrivateAccessCodeLength),
		LenientAccessCode:   getEnvAsBool("EMERGENCY_LENIENT_ACCESS_CODE", false),
		LocationTimeout:     getEnvAsDuration("LOCATION_TIMEOUT", utils.LocationFetchTimeout),
		LocationMaxAge:      getEnvAsDuration("LOCATION_MAX_AGE", utils.LocationFixMaximumAge),
		TrackInterval:       getEnvAsDuration("LOCATION_TRACK_INTERVAL", utils.LocationTrackInterval),
		TrackDistanceMeters: getEnvAsFloat64("LOCATION_TRACK_DISTANCE_METERS", utils.LocationTrackDistanceM),
		NotifyTimeout:       getEnvAsDuration("NOTIFY_TIMEOUT", utils.NotificationTimeout),
		VoiceRestartDelay:   getEnvAsDuration("VOICE_RESTART_DELAY", utils.VoiceRestartDelay),
		PrivateVaultTTL:     getEnvAsDuration("PRIVATE_VAULT_TTL", utils.PrivateVaultRetention),
		SharedVaultTTL:      getEnvAsDuration("SHARED_VAULT_TTL", utils.SharedVaultRetention),
		CleanupSchedule:     getEnv("CLEANUP_SCHEDULE", utils.DefaultCleanupSchedule),
		NotifySharedContent: getEnvAsBool("NOTIFY_SHARED_CONTENT", true),
		MediaMaxImageWidth:  uint(getEnvAsInt("MEDIA_MAX_IMAGE_WIDTH", 1280)),
	}
}
