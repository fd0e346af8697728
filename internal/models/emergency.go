package models

import (
	"time"
)

type TriggerType string

const (
	TriggerManual TriggerType = "manual"
	TriggerVoice  TriggerType = "voice"
	TriggerAuto   TriggerType = "auto"
	TriggerSpeed  TriggerType = "speed"
)

func (t TriggerType) IsValid() bool {
	switch t {
	case TriggerManual, TriggerVoice, TriggerAuto, TriggerSpeed:
		return true
	}
	return false
}

// EmergencySession is one continuous emergency episode from trigger to
// explicit end. Locations, photos, videos and voice notes are append-only.
type EmergencySession struct {
	ID                    string         `json:"id" bson:"id"`
	StartTime             time.Time      `json:"start_time" bson:"start_time"`
	EndTime               *time.Time     `json:"end_time,omitempty" bson:"end_time,omitempty"`
	Locations             []LocationData `json:"locations" bson:"locations"`
	Photos                []string       `json:"photos" bson:"photos"`
	Videos                []string       `json:"videos" bson:"videos"`
	VoiceNotes            []string       `json:"voice_notes" bson:"voice_notes"`
	IsActive              bool           `json:"is_active" bson:"is_active"`
	Trigger               TriggerType    `json:"trigger" bson:"trigger"`
	ContactsNotified      []string       `json:"contacts_notified" bson:"contacts_notified"`
	MediaRecordingEnabled bool           `json:"media_recording_enabled" bson:"media_recording_enabled"`
	MessagesSent          []string       `json:"messages_sent" bson:"messages_sent"`
	EmergencyAccessCode   string         `json:"emergency_access_code" bson:"emergency_access_code"`
}

// LastLocation returns the most recent fix, or nil when the trail is empty.
func (s *EmergencySession) LastLocation() *LocationData {
	if s == nil || len(s.Locations) == 0 {
		return nil
	}
	last := s.Locations[len(s.Locations)-1]
	return &last
}

// Clone returns a deep copy so callers never share slices with the engine.
func (s *EmergencySession) Clone() *EmergencySession {
	if s == nil {
		return nil
	}
	c := *s
	c.Locations = append([]LocationData(nil), s.Locations...)
	c.Photos = append([]string(nil), s.Photos...)
	c.Videos = append([]string(nil), s.Videos...)
	c.VoiceNotes = append([]string(nil), s.VoiceNotes...)
	c.ContactsNotified = append([]string(nil), s.ContactsNotified...)
	c.MessagesSent = append([]string(nil), s.MessagesSent...)
	if s.EndTime != nil {
		end := *s.EndTime
		c.EndTime = &end
	}
	return &c
}
