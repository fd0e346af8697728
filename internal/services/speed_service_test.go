package services

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"safetravel/internal/models"
	"safetravel/pkg/location"
)

// metersNorth is the latitude delta of d meters along a meridian.
func metersNorth(d float64) float64 {
	return d / 6371000.0 * 180 / math.Pi
}

func TestObserveComputesSpeed(t *testing.T) {
	env := newTestEnv()
	speed := NewSpeedService(nil, env.settingsRepo, env.speedRepo, nil)
	ctx := context.Background()
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if sample := speed.Observe(ctx, models.LocationData{Latitude: 0, Longitude: 0, Timestamp: t0}); sample != nil {
		t.Fatalf("first fix produced %+v, want nil", sample)
	}

	sample := speed.Observe(ctx, models.LocationData{Latitude: metersNorth(1000), Longitude: 0, Timestamp: t0.Add(100 * time.Second)})
	if sample == nil {
		t.Fatal("second fix produced no sample")
	}
	if math.Abs(sample.Speed-36.0) > 0.01 {
		t.Errorf("speed = %.4f km/h, want 36.0", sample.Speed)
	}
	if sample.IsAboveThreshold {
		t.Error("36 km/h flagged above the default 50 km/h threshold")
	}

	fast := speed.Observe(ctx, models.LocationData{Latitude: metersNorth(3000), Longitude: 0, Timestamp: t0.Add(200 * time.Second)})
	if fast == nil || math.Abs(fast.Speed-72.0) > 0.01 || !fast.IsAboveThreshold {
		t.Errorf("fast sample = %+v, want 72 km/h above threshold", fast)
	}

	logged, _ := env.speedRepo.List(ctx)
	if len(logged) != 2 {
		t.Errorf("speed log has %d samples, want 2", len(logged))
	}
}

func TestObserveSkipsNonPositiveElapsed(t *testing.T) {
	env := newTestEnv()
	speed := NewSpeedService(nil, env.settingsRepo, env.speedRepo, nil)
	ctx := context.Background()
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	speed.Observe(ctx, models.LocationData{Latitude: 0, Longitude: 0, Timestamp: t0})
	if s := speed.Observe(ctx, models.LocationData{Latitude: metersNorth(10), Timestamp: t0}); s != nil {
		t.Errorf("identical timestamps produced %+v", s)
	}
	if s := speed.Observe(ctx, models.LocationData{Latitude: metersNorth(20), Timestamp: t0.Add(-time.Second)}); s != nil {
		t.Errorf("inverted timestamps produced %+v", s)
	}

	logged, _ := env.speedRepo.List(ctx)
	if len(logged) != 0 {
		t.Errorf("speed log has %d samples, want 0", len(logged))
	}
}

func TestStartMonitoringRespectsSettings(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	settings := models.DefaultUserSettings()
	settings.SpeedDetectionEnabled = false
	if err := env.settingsRepo.Save(ctx, settings); err != nil {
		t.Fatalf("save settings: %v", err)
	}

	feed := location.NewFeed(time.Second)
	speed := NewSpeedService(feed, env.settingsRepo, env.speedRepo, nil)
	if speed.StartMonitoring(ctx, nil) {
		t.Error("StartMonitoring succeeded with speed detection disabled")
	}
	if speed.IsMonitoring() || feed.Active() != 0 {
		t.Error("monitoring is running although it was refused")
	}
}

func TestStartMonitoringUnavailable(t *testing.T) {
	env := newTestEnv()
	feed := location.NewFeed(time.Second)
	feed.SetPermitted(false)

	speed := NewSpeedService(feed, env.settingsRepo, env.speedRepo, nil)
	if speed.StartMonitoring(context.Background(), nil) {
		t.Error("StartMonitoring succeeded without location permission")
	}
}

func TestMonitoringDeliversSamples(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	settings := models.DefaultUserSettings()
	settings.SpeedThreshold = 30
	if err := env.settingsRepo.Save(ctx, settings); err != nil {
		t.Fatalf("save settings: %v", err)
	}

	feed := location.NewFeed(time.Second)
	speed := NewSpeedService(feed, env.settingsRepo, env.speedRepo, nil)

	var (
		mu      sync.Mutex
		samples []*models.SpeedSample
	)
	if !speed.StartMonitoring(ctx, func(s *models.SpeedSample) {
		mu.Lock()
		samples = append(samples, s)
		mu.Unlock()
	}) {
		t.Fatal("StartMonitoring returned false")
	}
	if speed.StartMonitoring(ctx, nil) {
		t.Error("second StartMonitoring returned true")
	}

	t0 := time.Now()
	feed.Publish(location.Reading{Latitude: 0, Longitude: 0, Timestamp: t0})
	feed.Publish(location.Reading{Latitude: metersNorth(1000), Longitude: 0, Timestamp: t0.Add(100 * time.Second)})

	waitFor(t, "speed sample", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(samples) == 1
	})
	mu.Lock()
	got := samples[0]
	mu.Unlock()
	if math.Abs(got.Speed-36.0) > 0.01 || !got.IsAboveThreshold {
		t.Errorf("sample = %+v, want 36 km/h above the 30 km/h threshold", got)
	}

	speed.StopMonitoring()
	if speed.IsMonitoring() || feed.Active() != 0 {
		t.Error("monitoring still running after StopMonitoring")
	}
}

func TestStoppedSubscriptionFixesAreDropped(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	feed := location.NewFeed(time.Second)
	svc := NewSpeedService(feed, env.settingsRepo, env.speedRepo, nil).(*speedService)

	if !svc.StartMonitoring(ctx, nil) {
		t.Fatal("StartMonitoring returned false")
	}
	svc.mu.Lock()
	old := svc.sub
	svc.mu.Unlock()
	svc.StopMonitoring()

	t0 := time.Now()
	svc.observe(ctx, models.LocationData{Latitude: 0, Longitude: 0, Timestamp: t0}, old)
	if got := svc.observe(ctx, models.LocationData{Latitude: metersNorth(1000), Timestamp: t0.Add(100 * time.Second)}, old); got != nil {
		t.Errorf("observe after stop = %+v, want nil", got)
	}
	svc.mu.Lock()
	last := svc.last
	svc.mu.Unlock()
	if last != nil {
		t.Errorf("last fix = %+v after stop, want nil", last)
	}

	if !svc.StartMonitoring(ctx, nil) {
		t.Fatal("restart returned false")
	}
	defer svc.StopMonitoring()
	svc.observe(ctx, models.LocationData{Latitude: 0, Longitude: 0, Timestamp: t0}, old)
	svc.mu.Lock()
	last = svc.last
	svc.mu.Unlock()
	if last != nil {
		t.Error("fix from the previous subscription seeded the new one")
	}

	samples, err := env.speedRepo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(samples) != 0 {
		t.Errorf("speed log has %d samples, want 0", len(samples))
	}
}

func TestRecentSamples(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	for _, age := range []time.Duration{time.Hour, 23 * time.Hour, 30 * time.Hour} {
		if err := env.speedRepo.Append(ctx, &models.SpeedSample{Speed: 10, Timestamp: now.Add(-age)}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	svc := NewSpeedService(nil, env.settingsRepo, env.speedRepo, nil)
	svc.(*speedService).nowF = fixedClock(now)

	recent, err := svc.RecentSamples(ctx, 0)
	if err != nil {
		t.Fatalf("RecentSamples: %v", err)
	}
	if len(recent) != 2 {
		t.Errorf("RecentSamples(default) = %d samples, want 2", len(recent))
	}

	recent, _ = svc.RecentSamples(ctx, 2)
	if len(recent) != 1 {
		t.Errorf("RecentSamples(2h) = %d samples, want 1", len(recent))
	}
}
