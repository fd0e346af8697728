package models

import (
	"time"
)

type MessageStatus string

const (
	MessageStatusPending MessageStatus = "pending"
	MessageStatusSent    MessageStatus = "sent"
	MessageStatusFailed  MessageStatus = "failed"
)

type MessageChannel string

const (
	ChannelWhatsApp MessageChannel = "whatsapp"
	ChannelSMS      MessageChannel = "sms"
	ChannelPush     MessageChannel = "push"
)

// OutboundMessage is a message log entry, one per contact per send attempt.
type OutboundMessage struct {
	ID         string         `json:"id" bson:"id"`
	ContactID  string         `json:"contact_id" bson:"contact_id"`
	SessionID  string         `json:"session_id,omitempty" bson:"session_id,omitempty"`
	Channel    MessageChannel `json:"channel" bson:"channel"`
	Message    string         `json:"message" bson:"message"`
	MediaURLs  []string       `json:"media_urls" bson:"media_urls"`
	ProviderID string         `json:"provider_id,omitempty" bson:"provider_id,omitempty"`
	Error      string         `json:"error,omitempty" bson:"error,omitempty"`
	SentAt     time.Time      `json:"sent_at" bson:"sent_at"`
	Status     MessageStatus  `json:"status" bson:"status"`
}
