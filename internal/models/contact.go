package models

import (
	"time"
)

type PushPlatform string

const (
	PushPlatformFCM  PushPlatform = "fcm"
	PushPlatformAPNS PushPlatform = "apns"
)

// EmergencyContact is a trusted person who may later authenticate by phone
// number. Only ID is unique.
type EmergencyContact struct {
	ID             string       `json:"id" bson:"id"`
	Name           string       `json:"name" bson:"name"`
	Phone          string       `json:"phone" bson:"phone"`
	WhatsAppNumber string       `json:"whatsapp_number,omitempty" bson:"whatsapp_number,omitempty"`
	Email          string       `json:"email,omitempty" bson:"email,omitempty"`
	Relationship   string       `json:"relationship" bson:"relationship"`
	IsPrimary      bool         `json:"is_primary" bson:"is_primary"`
	PushToken      string       `json:"push_token,omitempty" bson:"push_token,omitempty"`
	PushPlatform   PushPlatform `json:"push_platform,omitempty" bson:"push_platform,omitempty"`
	CreatedAt      time.Time    `json:"created_at" bson:"created_at"`
}

// HasReachableNumber reports whether an outbound text can be addressed.
func (c *EmergencyContact) HasReachableNumber() bool {
	return c.WhatsAppNumber != "" || c.Phone != ""
}
