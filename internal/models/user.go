package models

import (
	"time"
)

type UserProfile struct {
	ID                string             `json:"id" bson:"id"`
	Name              string             `json:"name" bson:"name"`
	Phone             string             `json:"phone" bson:"phone"`
	Email             string             `json:"email" bson:"email"`
	EmergencyContacts []EmergencyContact `json:"emergency_contacts" bson:"emergency_contacts"`
	Settings          UserSettings       `json:"settings" bson:"settings"`
	CreatedAt         time.Time          `json:"created_at" bson:"created_at"`
}
