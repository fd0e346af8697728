package models

import (
	"time"
)

// SpeedSample is one entry of the append-only speed log.
type SpeedSample struct {
	Speed            float64      `json:"speed" bson:"speed"` // km/h
	Timestamp        time.Time    `json:"timestamp" bson:"timestamp"`
	Location         LocationData `json:"location" bson:"location"`
	IsAboveThreshold bool         `json:"is_above_threshold" bson:"is_above_threshold"`
}
