package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"safetravel/internal/models"
	"safetravel/internal/repositories/interfaces"
	"safetravel/pkg/logger"
	"safetravel/pkg/speech"
)

// VoiceService watches the speech stream for the configured trigger phrase.
type VoiceService interface {
	// StartListening reports false, without error, when voice commands are
	// disabled in settings, the platform has no speech recognition, or the
	// detector is already running.
	StartListening(ctx context.Context, callback func(transcript string)) (bool, error)
	StopListening()
	IsListening() bool
	// Matches reports whether transcript contains the configured phrase.
	Matches(ctx context.Context, transcript string) bool
}

type voiceService struct {
	recognizer   speech.Recognizer
	settingsRepo interfaces.SettingsRepository
	restartDelay time.Duration
	logger       *logger.Logger

	mu        sync.Mutex
	listening bool
	cancel    context.CancelFunc
	gen       int
}

func NewVoiceService(
	recognizer speech.Recognizer,
	settingsRepo interfaces.SettingsRepository,
	restartDelay time.Duration,
	log *logger.Logger,
) VoiceService {
	if log == nil {
		log = logger.NewNop()
	}
	return &voiceService{
		recognizer:   recognizer,
		settingsRepo: settingsRepo,
		restartDelay: restartDelay,
		logger:       log.WithComponent("voice"),
	}
}

func (s *voiceService) StartListening(ctx context.Context, callback func(transcript string)) (bool, error) {
	if s.recognizer == nil {
		return false, nil
	}

	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to load settings, using defaults")
		settings = models.DefaultUserSettings()
	}
	if !settings.VoiceCommandEnabled {
		s.logger.Info("Voice commands disabled in settings")
		return false, nil
	}

	s.mu.Lock()
	if s.listening {
		s.mu.Unlock()
		return false, nil
	}
	runCtx, cancel := context.WithCancel(context.Background())
	s.listening = true
	s.cancel = cancel
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	events, err := s.recognizer.Start(runCtx)
	if err != nil {
		s.stop(gen)
		if errors.Is(err, speech.ErrUnavailable) {
			s.logger.Info("Voice recognition not available on this platform")
			return false, nil
		}
		return false, err
	}

	go s.run(runCtx, gen, events, callback)
	s.logger.Info("Voice recognition started")
	return true, nil
}

func (s *voiceService) StopListening() {
	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()
	s.stop(gen)
}

func (s *voiceService) IsListening() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listening
}

func (s *voiceService) Matches(ctx context.Context, transcript string) bool {
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to load settings, using defaults")
		settings = models.DefaultUserSettings()
	}

	phrase := strings.ToLower(strings.TrimSpace(settings.VoiceCommand))
	if phrase == "" {
		return false
	}
	return strings.Contains(strings.ToLower(transcript), phrase)
}

// run consumes streams until stopped or permission is denied, reopening the
// stream restartDelay after each end.
func (s *voiceService) run(ctx context.Context, gen int, events <-chan speech.Event, callback func(string)) {
	defer s.stop(gen)

	for {
		if denied := s.consume(ctx, events, callback); denied {
			s.logger.Warn("Microphone access denied, voice recognition will not restart")
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.restartDelay):
		}

		var err error
		events, err = s.recognizer.Start(ctx)
		if err != nil {
			if errors.Is(err, speech.ErrPermissionDenied) {
				s.logger.Warn("Microphone access denied, voice recognition will not restart")
				return
			}
			if errors.Is(err, speech.ErrUnavailable) || ctx.Err() != nil {
				return
			}
			s.logger.WithError(err).Error("Failed to restart voice recognition")
			events = nil
		}
	}
}

// consume drains one stream. It reports true when the stream ended because
// permission was denied.
func (s *voiceService) consume(ctx context.Context, events <-chan speech.Event, callback func(string)) bool {
	if events == nil {
		return false
	}

	for ev := range events {
		switch {
		case errors.Is(ev.Err, speech.ErrPermissionDenied):
			return true
		case errors.Is(ev.Err, speech.ErrNoSpeech):
			s.logger.Debug("No speech detected, continuing to listen")
		case ev.Err != nil:
			s.logger.WithError(ev.Err).Error("Voice recognition error")
		case ev.Final && ev.Transcript != "":
			if s.Matches(ctx, ev.Transcript) && callback != nil {
				callback(ev.Transcript)
			}
		}
	}
	return false
}

// stop ends the listening run identified by gen. A stale gen is ignored so a
// finished run never clears a newer one.
func (s *voiceService) stop(gen int) {
	s.mu.Lock()
	if s.gen != gen || !s.listening {
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	s.listening = false
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}
