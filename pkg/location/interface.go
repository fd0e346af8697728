// Package location provides position readings on demand and as cancellable
// tracking subscriptions.
package location

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrUnavailable is returned when location services are disabled or no
	// reading arrives before the deadline.
	ErrUnavailable = errors.New("location unavailable")
	// ErrPermissionDenied is returned when the user has not granted access.
	ErrPermissionDenied = errors.New("location permission denied")
)

// Sampler is the platform geolocation source.
type Sampler interface {
	// CurrentLocation returns one reading. Callers bound the wait with ctx.
	CurrentLocation(ctx context.Context) (*Reading, error)
	// StartTracking subscribes to a stream of readings filtered by opts.
	StartTracking(ctx context.Context, opts TrackingOptions) (*Subscription, error)
}

type Reading struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  *float64  `json:"accuracy,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Address   string    `json:"address,omitempty"`
}

// TrackingOptions throttle a subscription. A reading is delivered when both
// MinInterval has elapsed and the position moved MinDistanceMeters since the
// previously delivered reading. The first reading is always delivered.
type TrackingOptions struct {
	MinInterval       time.Duration
	MinDistanceMeters float64
	Buffer            int
}
