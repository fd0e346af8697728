package models

import (
	"time"
)

type VaultEntryType string

const (
	VaultEntryText  VaultEntryType = "text"
	VaultEntryPhoto VaultEntryType = "photo"
	VaultEntryVoice VaultEntryType = "voice"
)

func (t VaultEntryType) IsValid() bool {
	switch t {
	case VaultEntryText, VaultEntryPhoto, VaultEntryVoice:
		return true
	}
	return false
}

type VaultEntry struct {
	ID          string         `json:"id" bson:"id"`
	Type        VaultEntryType `json:"type" bson:"type"`
	Title       string         `json:"title" bson:"title"`
	Content     string         `json:"content" bson:"content"`
	Description string         `json:"description,omitempty" bson:"description,omitempty"`
	Flagged     bool           `json:"flagged" bson:"flagged"`
	IsPrivate   bool           `json:"is_private" bson:"is_private"`
	CreatedAt   time.Time      `json:"created_at" bson:"created_at"`
	ExpiresAt   *time.Time     `json:"expires_at,omitempty" bson:"expires_at,omitempty"`
}

// IsExpired reports whether the entry is eligible for purge at now. Flagged
// private entries never expire.
func (e *VaultEntry) IsExpired(now time.Time) bool {
	if e.IsPrivate && e.Flagged {
		return false
	}
	if e.ExpiresAt == nil {
		return false
	}
	return !e.ExpiresAt.After(now)
}
