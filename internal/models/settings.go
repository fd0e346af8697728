package models

import "safetravel/internal/utils"

type LocationTrackingMode string

const (
	TrackingAlways LocationTrackingMode = "always"
	TrackingManual LocationTrackingMode = "manual"
	TrackingVoice  LocationTrackingMode = "voice"
)

type UserSettings struct {
	VoiceCommandEnabled        bool                 `json:"voice_command_enabled" bson:"voice_command_enabled"`
	VoiceCommand               string               `json:"voice_command" bson:"voice_command"`
	AutoPhotoCapture           bool                 `json:"auto_photo_capture" bson:"auto_photo_capture"`
	AutoVideoRecording         bool                 `json:"auto_video_recording" bson:"auto_video_recording"`
	LocationSharingEnabled     bool                 `json:"location_sharing_enabled" bson:"location_sharing_enabled"`
	DataRetentionDays          int                  `json:"data_retention_days" bson:"data_retention_days"`
	EmergencyMode              bool                 `json:"emergency_mode" bson:"emergency_mode"`
	LocationTrackingMode       LocationTrackingMode `json:"location_tracking_mode,omitempty" bson:"location_tracking_mode,omitempty"`
	SpeedDetectionEnabled      bool                 `json:"speed_detection_enabled" bson:"speed_detection_enabled"`
	SpeedThreshold             float64              `json:"speed_threshold" bson:"speed_threshold"` // km/h
	WhatsAppIntegrationEnabled bool                 `json:"whatsapp_integration_enabled" bson:"whatsapp_integration_enabled"`
}

// DefaultUserSettings is used whenever no settings have been stored yet or
// the stored value cannot be read.
func DefaultUserSettings() *UserSettings {
	return &UserSettings{
		VoiceCommandEnabled:        true,
		VoiceCommand:               utils.DefaultVoiceCommand,
		AutoPhotoCapture:           true,
		AutoVideoRecording:         false,
		LocationSharingEnabled:     true,
		DataRetentionDays:          utils.DefaultRetentionDays,
		EmergencyMode:              false,
		LocationTrackingMode:       TrackingManual,
		SpeedDetectionEnabled:      true,
		SpeedThreshold:             utils.DefaultSpeedThreshold,
		WhatsAppIntegrationEnabled: true,
	}
}
