package main

import (
	"context"
	"fmt"

	"safetravel/internal/config"
	"safetravel/internal/models"
	"safetravel/internal/repositories/interfaces"
	"safetravel/internal/repositories/keyvalue"
	"safetravel/internal/services"
	"safetravel/pkg/kv"
	"safetravel/pkg/location"
	"safetravel/pkg/logger"
	"safetravel/pkg/maps"
	"safetravel/pkg/push"
	"safetravel/pkg/sms"
	"safetravel/pkg/speech"
	"safetravel/pkg/storage"
)

// app is the fully wired object graph for one process.
type app struct {
	cfg    *config.Config
	logger *logger.Logger
	store  kv.Store

	sessionRepo  interfaces.SessionRepository
	contactRepo  interfaces.ContactRepository
	vaultRepo    interfaces.VaultRepository
	settingsRepo interfaces.SettingsRepository
	speedRepo    interfaces.SpeedLogRepository
	messageRepo  interfaces.MessageLogRepository

	feed       *location.Feed
	recognizer *speech.ChannelRecognizer
	capture    *bridgeCapture

	notifier  services.NotificationService
	engine    services.EmergencyService
	access    services.AccessService
	vault     services.VaultService
	contacts  services.ContactService
	settings  services.SettingsService
	speed     services.SpeedService
	voice     services.VoiceService
	cleanup   services.CleanupService
	media     services.MediaService
	mediaRoot storage.Provider
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	log, err := logger.NewLogger(cfg.LoggerConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	store, err := newStore(cfg.Store)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:          cfg,
		logger:       log,
		store:        store,
		sessionRepo:  keyvalue.NewSessionRepository(store),
		contactRepo:  keyvalue.NewContactRepository(store),
		vaultRepo:    keyvalue.NewVaultRepository(store),
		settingsRepo: keyvalue.NewSettingsRepository(store),
		speedRepo:    keyvalue.NewSpeedLogRepository(store),
		messageRepo:  keyvalue.NewMessageLogRepository(store),
		feed:         location.NewFeed(cfg.Emergency.LocationMaxAge),
		recognizer:   speech.NewChannelRecognizer(),
	}

	var sampler location.Sampler = a.feed
	if key := cfg.Maps.GoogleMaps.APIKey; key != "" {
		geocoder, err := maps.NewGoogleMapsProvider(key)
		if err != nil {
			log.WithError(err).Warn("Reverse geocoding disabled")
		} else {
			sampler = location.NewGeocodingSampler(a.feed, geocoder)
		}
	}

	smsProvider, err := newSMSProvider(ctx, cfg.SMS)
	if err != nil {
		store.Close()
		return nil, err
	}

	pushProviders, err := newPushProviders(ctx, cfg.Push, log)
	if err != nil {
		store.Close()
		return nil, err
	}

	a.mediaRoot, err = newStorageProvider(ctx, cfg.Storage)
	if err != nil {
		store.Close()
		return nil, err
	}

	a.notifier = services.NewNotificationService(smsProvider, pushProviders, a.settingsRepo, a.messageRepo, cfg.App.Name, log)
	a.capture = newBridgeCapture(log)
	a.engine = services.NewEmergencyService(cfg.Emergency, a.sessionRepo, a.contactRepo, a.settingsRepo, sampler, a.notifier, a.capture, log)
	a.access = services.NewAccessService(cfg.Emergency, a.sessionRepo, a.contactRepo, a.vaultRepo, log)
	a.vault = services.NewVaultService(cfg.Emergency, a.vaultRepo, a.contactRepo, a.notifier, log)
	a.contacts = services.NewContactService(a.contactRepo, log)
	a.settings = services.NewSettingsService(a.settingsRepo, cfg.App.Language, log)
	a.speed = services.NewSpeedService(sampler, a.settingsRepo, a.speedRepo, log)
	a.voice = services.NewVoiceService(a.recognizer, a.settingsRepo, cfg.Emergency.VoiceRestartDelay, log)
	a.cleanup = services.NewCleanupService(a.sessionRepo, a.speedRepo, a.vaultRepo, a.settingsRepo, a.engine, log)
	if a.mediaRoot != nil {
		a.media = services.NewMediaService(cfg.Emergency, a.mediaRoot, a.engine, log)
	}

	return a, nil
}

func (a *app) Close() {
	a.voice.StopListening()
	a.speed.StopMonitoring()
	a.cleanup.Stop()
	a.engine.Close()
	if err := a.store.Close(); err != nil {
		a.logger.WithError(err).Warn("Failed to close store")
	}
}

func newStore(cfg *config.StoreConfig) (kv.Store, error) {
	switch cfg.Driver {
	case "memory":
		return kv.NewMemoryStore(), nil
	case "redis":
		r := cfg.Redis
		return kv.NewRedisStore(&kv.RedisConfig{
			Addr:      r.Addr,
			Password:  r.Password,
			DB:        r.DB,
			PoolSize:  r.PoolSize,
			Timeout:   r.Timeout,
			KeyPrefix: r.KeyPrefix,
		})
	case "mongodb":
		m := cfg.MongoDB
		return kv.NewMongoStore(&kv.MongoConfig{
			URI:        m.URI,
			Database:   m.Database,
			Collection: m.Collection,
			PoolSize:   m.PoolSize,
			Timeout:    m.Timeout,
		})
	default:
		return kv.NewFileStore(cfg.FileDir)
	}
}

// newSMSProvider returns nil for "none"; messages are then logged as pending.
func newSMSProvider(ctx context.Context, cfg *config.SMSConfig) (sms.Provider, error) {
	switch cfg.Provider {
	case "twilio":
		t := cfg.Twilio
		return sms.NewTwilioProvider(t.AccountSID, t.AuthToken, t.FromNumber, t.WhatsAppNumber), nil
	case "aws":
		provider, err := sms.NewAWSSNSProvider(ctx, cfg.AWS.Region, cfg.AWS.SenderID)
		if err != nil {
			return nil, fmt.Errorf("failed to create sns provider: %w", err)
		}
		return provider, nil
	}
	return nil, nil
}

func newPushProviders(ctx context.Context, cfg *config.PushConfig, log *logger.Logger) (map[models.PushPlatform]push.Provider, error) {
	providers := make(map[models.PushPlatform]push.Provider)

	if cfg.FCM.Enabled {
		fcm, err := push.NewFCMProvider(ctx, cfg.FCM.Credentials)
		if err != nil {
			return nil, fmt.Errorf("failed to create fcm provider: %w", err)
		}
		providers[models.PushPlatformFCM] = fcm
	}

	if cfg.APNS.Enabled {
		a := cfg.APNS
		apns, err := push.NewAPNSProvider(a.KeyFile, a.KeyID, a.TeamID, a.BundleID, a.Production)
		if err != nil {
			return nil, fmt.Errorf("failed to create apns provider: %w", err)
		}
		providers[models.PushPlatformAPNS] = apns
	}

	log.WithField("providers", len(providers)).Debug("Push providers configured")
	return providers, nil
}

func newStorageProvider(ctx context.Context, cfg *config.StorageConfig) (storage.Provider, error) {
	switch cfg.Provider {
	case "aws":
		provider, err := storage.NewAWSS3Storage(ctx, cfg.AWS.Region, cfg.AWS.Bucket, cfg.AWS.CDNDomain)
		if err != nil {
			return nil, fmt.Errorf("failed to create s3 storage: %w", err)
		}
		return provider, nil
	case "gcp":
		provider, err := storage.NewGCPStorage(ctx, cfg.GCP.Bucket, cfg.GCP.CredentialsFile, cfg.GCP.CDNDomain)
		if err != nil {
			return nil, fmt.Errorf("failed to create gcs storage: %w", err)
		}
		return provider, nil
	case "local":
		provider, err := storage.NewLocalStorage(cfg.Local.BasePath, cfg.Local.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create local storage: %w", err)
		}
		return provider, nil
	}
	return nil, nil
}
