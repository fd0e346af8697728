package utils

import "time"

// Application Constants
const (
	AppName = "SafeTravel"

	// Access codes
	EmergencyAccessCodeLength = 4
	PrivateAccessCodeLength   = 6

	// Location
	LocationFetchTimeout    = 15 * time.Second
	LocationTrackInterval   = 10 * time.Second
	LocationTrackDistanceM  = 10.0
	LocationFixMaximumAge   = 10 * time.Second
	OpenStreetMapZoomLevel  = 16
	DefaultRecentSpeedHours = 24

	// Speed detection
	MetersPerSecondToKMH   = 3.6
	DefaultSpeedThreshold  = 50.0 // km/h
	DefaultVoiceCommand    = "emergency help"
	VoiceRestartDelay      = 1 * time.Second
	DefaultRetentionDays   = 7
	PrivateVaultRetention  = 7 * 24 * time.Hour
	SharedVaultRetention   = 30 * 24 * time.Hour
	DefaultCleanupSchedule = "@hourly"

	// Notification
	NotificationTimeout = 30 * time.Second
)

// Durable store keys
const (
	KeyUserProfile       = "user_profile"
	KeyEmergencyContacts = "emergency_contacts"
	KeyEmergencySessions = "emergency_sessions"
	KeyUserSettings      = "user_settings"
	KeyPrivateVault      = "private_vault_entries"
	KeySharedVault       = "shared_vault_entries"
	KeySpeedLog          = "speed_detection_data"
	KeyMessageLog        = "outbound_messages"
	KeyTheme             = "app_theme"
	KeyLanguage          = "app_language"
	KeyPrivateAccessCode = "private_access_code"
)

// Event Types
const (
	EventSessionStarted      = "session_started"
	EventSessionEnded        = "session_ended"
	EventMediaEnabled        = "media_recording_enabled"
	EventContactsNotified    = "contacts_notified"
	EventSessionStartRefused = "session_start_refused"
)

// Geographic Constants
const (
	EarthRadiusKM     = 6371.0
	EarthRadiusMeters = 6371000.0
)
