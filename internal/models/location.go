package models

import (
	"time"
)

// LocationData is a single position fix.
type LocationData struct {
	ID        string    `json:"id" bson:"id"`
	Latitude  float64   `json:"latitude" bson:"latitude"`
	Longitude float64   `json:"longitude" bson:"longitude"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
	Accuracy  *float64  `json:"accuracy,omitempty" bson:"accuracy,omitempty"`
	Address   string    `json:"address,omitempty" bson:"address,omitempty"`
}
