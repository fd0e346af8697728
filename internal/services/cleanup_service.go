package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"safetravel/internal/models"
	"safetravel/internal/repositories/interfaces"
	"safetravel/internal/utils"
	"safetravel/pkg/logger"
)

// cronParser accepts standard 5-field expressions and @descriptors.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// CleanupService applies data retention: old sessions and speed samples, and
// expired vault entries.
type CleanupService interface {
	Run(ctx context.Context) (*CleanupReport, error)
	// Start runs Run on the given cron schedule until Stop.
	Start(schedule string) error
	Stop()
}

type CleanupReport struct {
	SessionsRemoved      int       `json:"sessions_removed"`
	SpeedSamplesRemoved  int       `json:"speed_samples_removed"`
	PrivateEntriesPurged int       `json:"private_entries_purged"`
	SharedEntriesPurged  int       `json:"shared_entries_purged"`
	RanAt                time.Time `json:"ran_at"`
}

// ActiveSessionSource reports the session that must survive retention.
type ActiveSessionSource interface {
	GetActiveSession() *models.EmergencySession
}

type cleanupService struct {
	sessionRepo  interfaces.SessionRepository
	speedRepo    interfaces.SpeedLogRepository
	vaultRepo    interfaces.VaultRepository
	settingsRepo interfaces.SettingsRepository
	active       ActiveSessionSource
	logger       *logger.Logger
	nowF         func() time.Time

	mu        sync.Mutex
	scheduler *cron.Cron
}

func NewCleanupService(
	sessionRepo interfaces.SessionRepository,
	speedRepo interfaces.SpeedLogRepository,
	vaultRepo interfaces.VaultRepository,
	settingsRepo interfaces.SettingsRepository,
	active ActiveSessionSource,
	log *logger.Logger,
) CleanupService {
	if log == nil {
		log = logger.NewNop()
	}
	return &cleanupService{
		sessionRepo:  sessionRepo,
		speedRepo:    speedRepo,
		vaultRepo:    vaultRepo,
		settingsRepo: settingsRepo,
		active:       active,
		logger:       log.WithComponent("cleanup"),
		nowF:         time.Now,
	}
}

func (s *cleanupService) Run(ctx context.Context) (*CleanupReport, error) {
	now := s.nowF()
	report := &CleanupReport{RanAt: now}

	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to load settings, using default retention")
		settings = models.DefaultUserSettings()
	}
	days := settings.DataRetentionDays
	if days <= 0 {
		days = utils.DefaultRetentionDays
	}
	cutoff := utils.DaysAgo(now, days)

	activeID := ""
	if s.active != nil {
		if session := s.active.GetActiveSession(); session != nil {
			activeID = session.ID
		}
	}

	if report.SessionsRemoved, err = s.pruneSessions(ctx, cutoff, activeID); err != nil {
		return report, err
	}
	if report.SpeedSamplesRemoved, err = s.pruneSpeedLog(ctx, cutoff); err != nil {
		return report, err
	}
	if report.PrivateEntriesPurged, err = s.purgeVault(ctx, now, true); err != nil {
		return report, err
	}
	if report.SharedEntriesPurged, err = s.purgeVault(ctx, now, false); err != nil {
		return report, err
	}

	s.logger.WithFields(map[string]interface{}{
		"sessions":        report.SessionsRemoved,
		"speed_samples":   report.SpeedSamplesRemoved,
		"private_entries": report.PrivateEntriesPurged,
		"shared_entries":  report.SharedEntriesPurged,
		"retention_days":  days,
	}).Info("Retention cleanup finished")

	return report, nil
}

func (s *cleanupService) Start(schedule string) error {
	if schedule == "" {
		schedule = utils.DefaultCleanupSchedule
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scheduler != nil {
		return fmt.Errorf("cleanup scheduler already running")
	}

	scheduler := cron.New(cron.WithParser(cronParser))
	if _, err := scheduler.AddFunc(schedule, func() {
		if _, err := s.Run(context.Background()); err != nil {
			s.logger.WithError(err).Error("Scheduled cleanup failed")
		}
	}); err != nil {
		return fmt.Errorf("failed to parse cleanup schedule %q: %w", schedule, err)
	}

	scheduler.Start()
	s.scheduler = scheduler
	s.logger.WithField("schedule", schedule).Info("Cleanup scheduler started")
	return nil
}

func (s *cleanupService) Stop() {
	s.mu.Lock()
	scheduler := s.scheduler
	s.scheduler = nil
	s.mu.Unlock()

	if scheduler == nil {
		return
	}
	<-scheduler.Stop().Done()
}

func (s *cleanupService) pruneSessions(ctx context.Context, cutoff time.Time, activeID string) (int, error) {
	sessions, err := s.sessionRepo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load sessions: %w", err)
	}

	kept := make([]*models.EmergencySession, 0, len(sessions))
	for _, session := range sessions {
		if session.ID == activeID || !session.StartTime.Before(cutoff) {
			kept = append(kept, session)
		}
	}
	removed := len(sessions) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	if err := s.sessionRepo.ReplaceAll(ctx, kept); err != nil {
		return 0, fmt.Errorf("failed to prune sessions: %w", err)
	}
	return removed, nil
}

func (s *cleanupService) pruneSpeedLog(ctx context.Context, cutoff time.Time) (int, error) {
	samples, err := s.speedRepo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load speed log: %w", err)
	}

	kept := make([]*models.SpeedSample, 0, len(samples))
	for _, sample := range samples {
		if !sample.Timestamp.Before(cutoff) {
			kept = append(kept, sample)
		}
	}
	removed := len(samples) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	if err := s.speedRepo.ReplaceAll(ctx, kept); err != nil {
		return 0, fmt.Errorf("failed to prune speed log: %w", err)
	}
	return removed, nil
}

func (s *cleanupService) purgeVault(ctx context.Context, now time.Time, private bool) (int, error) {
	list, save, name := s.vaultRepo.ListShared, s.vaultRepo.SaveShared, "shared"
	if private {
		list, save, name = s.vaultRepo.ListPrivate, s.vaultRepo.SavePrivate, "private"
	}

	entries, err := list(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load %s vault: %w", name, err)
	}

	kept := make([]*models.VaultEntry, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsExpired(now) {
			kept = append(kept, entry)
		}
	}
	removed := len(entries) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	if err := save(ctx, kept); err != nil {
		return 0, fmt.Errorf("failed to purge %s vault: %w", name, err)
	}
	return removed, nil
}
