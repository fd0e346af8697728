package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"safetravel/internal/config"
	"safetravel/internal/models"
	"safetravel/internal/repositories/interfaces"
	"safetravel/internal/utils"
	"safetravel/pkg/location"
	"safetravel/pkg/logger"
)

// EmergencyService owns the single current-session slot. Every trigger source
// starts sessions through it, and every mutation is guarded by the current
// session id and written through to the store.
type EmergencyService interface {
	StartSession(ctx context.Context, trigger models.TriggerType) (string, error)
	StartSessionWithMedia(ctx context.Context, trigger models.TriggerType) (string, error)
	EnableMediaRecording(ctx context.Context, sessionID string)
	EndSession(ctx context.Context, sessionID string)
	GetActiveSession() *models.EmergencySession

	AddLocation(ctx context.Context, sessionID string, loc models.LocationData)
	AddPhoto(ctx context.Context, sessionID, ref string)
	AddVideo(ctx context.Context, sessionID, ref string)
	AddVoiceNote(ctx context.Context, sessionID, ref string)

	// HandleVoiceCommand reacts to a matched voice phrase: it starts a voice
	// session, or enables media recording on the one already running.
	HandleVoiceCommand(ctx context.Context, transcript string)
	// HandleSpeedSample starts a speed session on an above-threshold sample
	// when no session is active.
	HandleSpeedSample(ctx context.Context, sample *models.SpeedSample)

	// Close stops location tracking without ending the session.
	Close()
}

// MediaCapture is the platform camera and microphone. Captured files come
// back through MediaService.
type MediaCapture interface {
	StartPhotoCapture(ctx context.Context, sessionID string) error
	StartVideoRecording(ctx context.Context, sessionID string) error
	StopCapture(sessionID string)
}

type emergencyService struct {
	sessionRepo  interfaces.SessionRepository
	contactRepo  interfaces.ContactRepository
	settingsRepo interfaces.SettingsRepository
	sampler      location.Sampler
	notifier     NotificationService
	capture      MediaCapture
	config       *config.EmergencyConfig
	logger       *logger.Logger
	nowF         func() time.Time

	mu       sync.Mutex
	current  *models.EmergencySession
	starting bool
	tracking *location.Subscription
	notifyWG sync.WaitGroup
}

func NewEmergencyService(
	cfg *config.EmergencyConfig,
	sessionRepo interfaces.SessionRepository,
	contactRepo interfaces.ContactRepository,
	settingsRepo interfaces.SettingsRepository,
	sampler location.Sampler,
	notifier NotificationService,
	capture MediaCapture,
	log *logger.Logger,
) EmergencyService {
	if log == nil {
		log = logger.NewNop()
	}
	return &emergencyService{
		sessionRepo:  sessionRepo,
		contactRepo:  contactRepo,
		settingsRepo: settingsRepo,
		sampler:      sampler,
		notifier:     notifier,
		capture:      capture,
		config:       cfg,
		logger:       log.WithComponent("emergency"),
		nowF:         time.Now,
	}
}

func (s *emergencyService) StartSession(ctx context.Context, trigger models.TriggerType) (string, error) {
	if !trigger.IsValid() {
		err := fmt.Errorf("unknown trigger %q: %w", trigger, ErrInvalidInput)
		s.logger.WithError(err).Warn("Refusing to start emergency session")
		return "", err
	}

	s.mu.Lock()
	if s.current != nil || s.starting {
		activeID := ""
		if s.current != nil {
			activeID = s.current.ID
		}
		s.mu.Unlock()
		s.logger.LogSessionEvent(activeID, utils.EventSessionStartRefused, map[string]interface{}{
			"trigger": string(trigger),
		})
		return "", ErrSessionActive
	}
	s.starting = true
	s.mu.Unlock()

	session := &models.EmergencySession{
		ID:                  utils.NewID(),
		StartTime:           s.nowF(),
		Locations:           []models.LocationData{},
		Photos:              []string{},
		Videos:              []string{},
		VoiceNotes:          []string{},
		IsActive:            true,
		Trigger:             trigger,
		ContactsNotified:    []string{},
		MessagesSent:        []string{},
		EmergencyAccessCode: utils.GenerateNumericCode(s.config.AccessCodeLength),
	}
	if loc := s.fetchLocation(ctx); loc != nil {
		session.Locations = append(session.Locations, *loc)
	}

	s.mu.Lock()
	s.starting = false
	if err := s.sessionRepo.Save(ctx, session); err != nil {
		s.mu.Unlock()
		s.logger.WithSessionID(session.ID).WithError(err).Error("Failed to persist new emergency session")
		return "", fmt.Errorf("failed to start emergency session: %w", err)
	}
	s.current = session
	s.mu.Unlock()

	s.logger.LogSessionEvent(session.ID, utils.EventSessionStarted, map[string]interface{}{
		"trigger":   string(trigger),
		"locations": len(session.Locations),
	})

	s.startTracking(session.ID)
	s.notifyContacts(session.ID)

	return session.ID, nil
}

func (s *emergencyService) StartSessionWithMedia(ctx context.Context, trigger models.TriggerType) (string, error) {
	id, err := s.StartSession(ctx, trigger)
	if err != nil {
		return "", err
	}
	s.EnableMediaRecording(ctx, id)
	return id, nil
}

func (s *emergencyService) EnableMediaRecording(ctx context.Context, sessionID string) {
	changed := s.mutate(ctx, sessionID, "enable media recording", func(session *models.EmergencySession) bool {
		session.MediaRecordingEnabled = true
		return true
	})
	if !changed {
		return
	}
	s.logger.LogSessionEvent(sessionID, utils.EventMediaEnabled, nil)

	if s.capture == nil {
		return
	}

	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		s.logger.WithSessionID(sessionID).WithError(err).Warn("Failed to load settings, using defaults")
		settings = models.DefaultUserSettings()
	}
	if settings.AutoPhotoCapture {
		if err := s.capture.StartPhotoCapture(ctx, sessionID); err != nil {
			s.logger.WithSessionID(sessionID).WithError(err).Warn("Photo capture did not start")
		}
	}
	if settings.AutoVideoRecording {
		if err := s.capture.StartVideoRecording(ctx, sessionID); err != nil {
			s.logger.WithSessionID(sessionID).WithError(err).Warn("Video recording did not start")
		}
	}
}

func (s *emergencyService) EndSession(ctx context.Context, sessionID string) {
	s.mu.Lock()
	if s.current == nil || s.current.ID != sessionID {
		s.mu.Unlock()
		return
	}

	end := s.nowF()
	s.current.IsActive = false
	s.current.EndTime = &end
	if err := s.sessionRepo.Save(ctx, s.current); err != nil {
		s.logger.WithSessionID(sessionID).WithError(err).Error("Failed to persist ended session")
	}

	tracking := s.tracking
	s.tracking = nil
	s.current = nil
	s.mu.Unlock()

	tracking.Stop()
	if s.capture != nil {
		s.capture.StopCapture(sessionID)
	}

	s.logger.LogSessionEvent(sessionID, utils.EventSessionEnded, nil)
}

func (s *emergencyService) GetActiveSession() *models.EmergencySession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

func (s *emergencyService) AddLocation(ctx context.Context, sessionID string, loc models.LocationData) {
	s.mutate(ctx, sessionID, "add location", func(session *models.EmergencySession) bool {
		if last := session.LastLocation(); last != nil && loc.Timestamp.Before(last.Timestamp) {
			s.logger.WithSessionID(sessionID).Debug("Dropping out-of-order location fix")
			return false
		}
		if loc.ID == "" {
			loc.ID = utils.NewID()
		}
		session.Locations = append(session.Locations, loc)
		return true
	})
}

func (s *emergencyService) AddPhoto(ctx context.Context, sessionID, ref string) {
	s.mutate(ctx, sessionID, "add photo", func(session *models.EmergencySession) bool {
		session.Photos = append(session.Photos, ref)
		return true
	})
}

func (s *emergencyService) AddVideo(ctx context.Context, sessionID, ref string) {
	s.mutate(ctx, sessionID, "add video", func(session *models.EmergencySession) bool {
		session.Videos = append(session.Videos, ref)
		return true
	})
}

func (s *emergencyService) AddVoiceNote(ctx context.Context, sessionID, ref string) {
	s.mutate(ctx, sessionID, "add voice note", func(session *models.EmergencySession) bool {
		session.VoiceNotes = append(session.VoiceNotes, ref)
		return true
	})
}

func (s *emergencyService) HandleVoiceCommand(ctx context.Context, transcript string) {
	if active := s.GetActiveSession(); active != nil {
		s.logger.WithSessionID(active.ID).Info("Voice command received during active session")
		s.EnableMediaRecording(ctx, active.ID)
		return
	}

	s.logger.WithField("transcript", strings.TrimSpace(transcript)).Info("Voice command triggered emergency")
	if _, err := s.StartSessionWithMedia(ctx, models.TriggerVoice); err != nil && !errors.Is(err, ErrSessionActive) {
		s.logger.WithError(err).Error("Voice triggered session failed to start")
	}
}

func (s *emergencyService) HandleSpeedSample(ctx context.Context, sample *models.SpeedSample) {
	if sample == nil || !sample.IsAboveThreshold {
		return
	}
	if s.GetActiveSession() != nil {
		return
	}

	s.logger.WithField("speed_kmh", sample.Speed).Warn("Speed threshold exceeded")
	if _, err := s.StartSession(ctx, models.TriggerSpeed); err != nil && !errors.Is(err, ErrSessionActive) {
		s.logger.WithError(err).Error("Speed triggered session failed to start")
	}
}

func (s *emergencyService) Close() {
	s.mu.Lock()
	tracking := s.tracking
	s.tracking = nil
	s.mu.Unlock()
	tracking.Stop()
	s.notifyWG.Wait()
}

// mutate applies fn to the current session when sessionID matches it and
// persists the whole session if fn reports a change.
func (s *emergencyService) mutate(ctx context.Context, sessionID, op string, fn func(*models.EmergencySession) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil || s.current.ID != sessionID {
		return false
	}
	if !fn(s.current) {
		return false
	}
	if err := s.sessionRepo.Save(ctx, s.current); err != nil {
		s.logger.WithSessionID(sessionID).WithError(err).Errorf("Failed to persist session after %s", op)
	}
	return true
}

func (s *emergencyService) fetchLocation(ctx context.Context) *models.LocationData {
	if s.sampler == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.LocationTimeout)
	defer cancel()

	reading, err := s.sampler.CurrentLocation(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("Starting session without an initial location")
		return nil
	}
	loc := toLocationData(reading)
	return &loc
}

func (s *emergencyService) startTracking(sessionID string) {
	if s.sampler == nil {
		return
	}

	sub, err := s.sampler.StartTracking(context.Background(), location.TrackingOptions{
		MinInterval:       s.config.TrackInterval,
		MinDistanceMeters: s.config.TrackDistanceMeters,
	})
	if err != nil {
		s.logger.WithSessionID(sessionID).WithError(err).Warn("Location tracking unavailable")
		return
	}

	s.mu.Lock()
	if s.current == nil || s.current.ID != sessionID {
		s.mu.Unlock()
		sub.Stop()
		return
	}
	s.tracking = sub
	s.mu.Unlock()

	go func() {
		for reading := range sub.C {
			s.AddLocation(context.Background(), sessionID, toLocationData(&reading))
		}
	}()
}

// notifyContacts runs the dispatcher as a detached task. The caller waits at
// most NotifyTimeout; the outcome is only logged and recorded on the session.
func (s *emergencyService) notifyContacts(sessionID string) {
	if s.notifier == nil {
		return
	}

	snapshot := s.GetActiveSession()
	if snapshot == nil || snapshot.ID != sessionID {
		return
	}

	done := make(chan struct{})
	s.notifyWG.Add(1)
	go func() {
		defer s.notifyWG.Done()
		defer close(done)

		ctx, cancel := context.WithTimeout(context.Background(), s.config.NotifyTimeout)
		defer cancel()

		contacts, err := s.contactRepo.List(ctx)
		if err != nil {
			s.logger.WithSessionID(sessionID).WithError(err).Error("Failed to load emergency contacts")
			return
		}
		if len(contacts) == 0 {
			s.logger.WithSessionID(sessionID).Warn("No emergency contacts to notify")
			return
		}

		result := s.notifier.NotifyEmergency(ctx, snapshot, contacts)
		s.mutate(ctx, sessionID, "record notifications", func(session *models.EmergencySession) bool {
			session.ContactsNotified = append([]string{}, result.Attempted...)
			session.MessagesSent = append(session.MessagesSent, result.Sent...)
			return true
		})
		s.logger.LogSessionEvent(sessionID, utils.EventContactsNotified, map[string]interface{}{
			"contacts": len(result.Attempted),
			"failed":   result.Failed,
		})
	}()

	select {
	case <-done:
	case <-time.After(s.config.NotifyTimeout):
		s.logger.WithSessionID(sessionID).Warn("Contact notification still running, continuing")
	}
}

func toLocationData(r *location.Reading) models.LocationData {
	return models.LocationData{
		ID:        utils.NewID(),
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		Timestamp: r.Timestamp,
		Accuracy:  r.Accuracy,
		Address:   r.Address,
	}
}
