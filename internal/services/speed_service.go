package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"safetravel/internal/models"
	"safetravel/internal/repositories/interfaces"
	"safetravel/internal/utils"
	"safetravel/pkg/location"
	"safetravel/pkg/logger"
)

// SpeedService estimates speed from consecutive location fixes. It is either
// idle or monitoring.
type SpeedService interface {
	// StartMonitoring subscribes to the location stream. It reports false
	// when speed detection is disabled in settings or tracking is
	// unavailable, and when monitoring is already running.
	StartMonitoring(ctx context.Context, callback func(*models.SpeedSample)) bool
	StopMonitoring()
	IsMonitoring() bool
	// Observe feeds one fix through the estimator. It returns nil when no
	// sample could be derived (first fix, or non-positive elapsed time).
	Observe(ctx context.Context, loc models.LocationData) *models.SpeedSample
	RecentSamples(ctx context.Context, hours int) ([]*models.SpeedSample, error)
}

type speedService struct {
	sampler      location.Sampler
	settingsRepo interfaces.SettingsRepository
	speedRepo    interfaces.SpeedLogRepository
	logger       *logger.Logger
	nowF         func() time.Time

	mu        sync.Mutex
	sub       *location.Subscription
	last      *models.LocationData
	threshold float64
	callback  func(*models.SpeedSample)
}

func NewSpeedService(
	sampler location.Sampler,
	settingsRepo interfaces.SettingsRepository,
	speedRepo interfaces.SpeedLogRepository,
	log *logger.Logger,
) SpeedService {
	if log == nil {
		log = logger.NewNop()
	}
	return &speedService{
		sampler:      sampler,
		settingsRepo: settingsRepo,
		speedRepo:    speedRepo,
		logger:       log.WithComponent("speed"),
		nowF:         time.Now,
		threshold:    utils.DefaultSpeedThreshold,
	}
}

func (s *speedService) StartMonitoring(ctx context.Context, callback func(*models.SpeedSample)) bool {
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to load settings, using defaults")
		settings = models.DefaultUserSettings()
	}
	if !settings.SpeedDetectionEnabled {
		s.logger.Info("Speed detection disabled in settings")
		return false
	}
	if s.sampler == nil {
		return false
	}

	s.mu.Lock()
	if s.sub != nil {
		s.mu.Unlock()
		return false
	}
	s.mu.Unlock()

	sub, err := s.sampler.StartTracking(context.Background(), location.TrackingOptions{})
	if err != nil {
		if errors.Is(err, location.ErrPermissionDenied) || errors.Is(err, location.ErrUnavailable) {
			s.logger.WithError(err).Warn("Speed monitoring unavailable")
		} else {
			s.logger.WithError(err).Error("Failed to start speed monitoring")
		}
		return false
	}

	s.mu.Lock()
	if s.sub != nil {
		s.mu.Unlock()
		sub.Stop()
		return false
	}
	s.sub = sub
	s.last = nil
	s.threshold = settings.SpeedThreshold
	s.callback = callback
	s.mu.Unlock()

	go func() {
		for reading := range sub.C {
			s.observe(context.Background(), toLocationData(&reading), sub)
		}
	}()

	s.logger.WithField("threshold_kmh", settings.SpeedThreshold).Info("Speed monitoring started")
	return true
}

func (s *speedService) StopMonitoring() {
	s.mu.Lock()
	sub := s.sub
	s.sub = nil
	s.last = nil
	s.callback = nil
	s.mu.Unlock()

	if sub != nil {
		sub.Stop()
		s.logger.Info("Speed monitoring stopped")
	}
}

func (s *speedService) IsMonitoring() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sub != nil
}

func (s *speedService) Observe(ctx context.Context, loc models.LocationData) *models.SpeedSample {
	return s.observe(ctx, loc, nil)
}

// observe drops fixes delivered by sub once sub is no longer the active
// subscription. A nil sub is never dropped.
func (s *speedService) observe(ctx context.Context, loc models.LocationData, sub *location.Subscription) *models.SpeedSample {
	s.mu.Lock()
	if sub != nil && s.sub != sub {
		s.mu.Unlock()
		return nil
	}
	prev := s.last
	current := loc
	s.last = &current
	threshold := s.threshold
	callback := s.callback
	s.mu.Unlock()

	if prev == nil {
		return nil
	}

	distance := utils.CalculateDistanceMeters(prev.Latitude, prev.Longitude, loc.Latitude, loc.Longitude)
	speed, ok := utils.SpeedKMH(distance, loc.Timestamp.Sub(prev.Timestamp).Seconds())
	if !ok {
		return nil
	}

	sample := &models.SpeedSample{
		Speed:            speed,
		Timestamp:        loc.Timestamp,
		Location:         loc,
		IsAboveThreshold: speed > threshold,
	}

	if err := s.speedRepo.Append(ctx, sample); err != nil {
		s.logger.WithError(err).Error("Failed to persist speed sample")
	}
	if callback != nil {
		callback(sample)
	}
	return sample
}

func (s *speedService) RecentSamples(ctx context.Context, hours int) ([]*models.SpeedSample, error) {
	if hours <= 0 {
		hours = utils.DefaultRecentSpeedHours
	}

	samples, err := s.speedRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load speed samples: %w", err)
	}

	cutoff := s.nowF().Add(-time.Duration(hours) * time.Hour)
	recent := make([]*models.SpeedSample, 0, len(samples))
	for _, sample := range samples {
		if sample.Timestamp.After(cutoff) {
			recent = append(recent, sample)
		}
	}
	return recent, nil
}
