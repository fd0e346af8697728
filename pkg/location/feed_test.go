package location

import (
	"context"
	"errors"
	"testing"
	"time"

	"safetravel/pkg/maps"
)

func TestFeedCurrentLocationWaitsForPublish(t *testing.T) {
	f := NewFeed(10 * time.Second)

	go func() {
		time.Sleep(10 * time.Millisecond)
		f.Publish(Reading{Latitude: 1, Longitude: 2})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	r, err := f.CurrentLocation(ctx)
	if err != nil {
		t.Fatalf("CurrentLocation: %v", err)
	}
	if r.Latitude != 1 || r.Longitude != 2 {
		t.Errorf("reading = %+v", r)
	}
}

func TestFeedCurrentLocationUsesFreshCache(t *testing.T) {
	f := NewFeed(10 * time.Second)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f.nowF = func() time.Time { return now }
	f.Publish(Reading{Latitude: 5, Longitude: 6, Timestamp: now.Add(-5 * time.Second)})

	r, err := f.CurrentLocation(context.Background())
	if err != nil {
		t.Fatalf("CurrentLocation: %v", err)
	}
	if r.Latitude != 5 {
		t.Errorf("Latitude = %v, want 5", r.Latitude)
	}
}

func TestFeedCurrentLocationTimesOut(t *testing.T) {
	f := NewFeed(time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := f.CurrentLocation(ctx); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestFeedSoftFailures(t *testing.T) {
	f := NewFeed(time.Second)
	f.SetEnabled(false)
	if _, err := f.StartTracking(context.Background(), TrackingOptions{}); !errors.Is(err, ErrUnavailable) {
		t.Errorf("disabled: err = %v", err)
	}

	f.SetEnabled(true)
	f.SetPermitted(false)
	if _, err := f.CurrentLocation(context.Background()); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("denied: err = %v", err)
	}
}

func TestFeedTrackingThrottle(t *testing.T) {
	f := NewFeed(time.Second)
	sub, err := f.StartTracking(context.Background(), TrackingOptions{
		MinInterval:       10 * time.Second,
		MinDistanceMeters: 10,
	})
	if err != nil {
		t.Fatalf("StartTracking: %v", err)
	}
	defer sub.Stop()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f.Publish(Reading{Latitude: 0, Longitude: 0, Timestamp: base})
	// too soon
	f.Publish(Reading{Latitude: 0.01, Longitude: 0, Timestamp: base.Add(5 * time.Second)})
	// too close (about 1m)
	f.Publish(Reading{Latitude: 0.00001, Longitude: 0, Timestamp: base.Add(20 * time.Second)})
	// admitted
	f.Publish(Reading{Latitude: 0.01, Longitude: 0, Timestamp: base.Add(30 * time.Second)})

	got := drain(sub.C)
	if len(got) != 2 {
		t.Fatalf("delivered %d readings, want 2", len(got))
	}
	if !got[1].Timestamp.Equal(base.Add(30 * time.Second)) {
		t.Errorf("second reading at %v", got[1].Timestamp)
	}
}

func TestSubscriptionStopClosesChannel(t *testing.T) {
	f := NewFeed(time.Second)
	sub, err := f.StartTracking(context.Background(), TrackingOptions{})
	if err != nil {
		t.Fatalf("StartTracking: %v", err)
	}
	if f.Active() != 1 {
		t.Fatalf("Active = %d, want 1", f.Active())
	}

	sub.Stop()
	sub.Stop()

	if _, ok := <-sub.C; ok {
		t.Error("channel still open after Stop")
	}
	if f.Active() != 0 {
		t.Errorf("Active = %d after Stop, want 0", f.Active())
	}
}

type stubGeocoder struct {
	address string
	err     error
}

func (s stubGeocoder) ReverseGeocode(ctx context.Context, lat, lng float64) (*maps.GeocodeResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &maps.GeocodeResponse{Results: []maps.GeocodeResult{{Address: s.address}}}, nil
}

func TestGeocodingSampler(t *testing.T) {
	f := NewFeed(time.Minute)
	f.Publish(Reading{Latitude: 1, Longitude: 1})

	g := NewGeocodingSampler(f, stubGeocoder{address: "1 Main St"})
	r, err := g.CurrentLocation(context.Background())
	if err != nil {
		t.Fatalf("CurrentLocation: %v", err)
	}
	if r.Address != "1 Main St" {
		t.Errorf("Address = %q", r.Address)
	}

	failing := NewGeocodingSampler(f, stubGeocoder{err: errors.New("quota")})
	r, err = failing.CurrentLocation(context.Background())
	if err != nil {
		t.Fatalf("CurrentLocation: %v", err)
	}
	if r.Address != "" {
		t.Errorf("Address = %q, want empty on geocode failure", r.Address)
	}
}

func drain(c <-chan Reading) []Reading {
	var out []Reading
	for {
		select {
		case r := <-c:
			out = append(out, r)
		default:
			return out
		}
	}
}
