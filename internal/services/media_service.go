package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"safetravel/internal/config"
	"safetravel/internal/utils"
	"safetravel/pkg/logger"
	"safetravel/pkg/storage"
)

type MediaKind string

const (
	MediaPhoto     MediaKind = "photo"
	MediaVideo     MediaKind = "video"
	MediaVoiceNote MediaKind = "voice"
)

// MediaService takes files produced by the capture hardware, stores them and
// appends their URLs to the session that recorded them.
type MediaService interface {
	Attach(ctx context.Context, sessionID string, kind MediaKind, filename string, r io.Reader) (string, error)
}

// SessionMedia is the part of the engine that receives media references.
type SessionMedia interface {
	AddPhoto(ctx context.Context, sessionID, ref string)
	AddVideo(ctx context.Context, sessionID, ref string)
	AddVoiceNote(ctx context.Context, sessionID, ref string)
}

type mediaService struct {
	storage storage.Provider
	engine  SessionMedia
	config  *config.EmergencyConfig
	logger  *logger.Logger
	nowF    func() time.Time
}

func NewMediaService(cfg *config.EmergencyConfig, store storage.Provider, engine SessionMedia, log *logger.Logger) MediaService {
	if log == nil {
		log = logger.NewNop()
	}
	return &mediaService{
		storage: store,
		engine:  engine,
		config:  cfg,
		logger:  log.WithComponent("media"),
		nowF:    time.Now,
	}
}

func (s *mediaService) Attach(ctx context.Context, sessionID string, kind MediaKind, filename string, r io.Reader) (string, error) {
	if sessionID == "" || filename == "" {
		return "", fmt.Errorf("session id and filename are required: %w", ErrInvalidInput)
	}

	body, size, err := s.prepare(kind, filename, r)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("sessions/%s/%s/%s%s", sessionID, kind, utils.NewID(), strings.ToLower(filepath.Ext(filename)))
	resp, err := s.storage.Upload(ctx, &storage.UploadRequest{
		Key:         key,
		Reader:      body,
		ContentType: storage.ContentType(filename),
		Size:        size,
		Metadata: map[string]string{
			"session_id":  sessionID,
			"kind":        string(kind),
			"captured_at": utils.FormatTimeISO(s.nowF()),
		},
		CacheControl: "private, max-age=86400",
	})
	if err != nil {
		s.logger.WithSessionID(sessionID).WithError(err).Error("Failed to upload media")
		return "", fmt.Errorf("failed to upload %s: %w", kind, err)
	}

	switch kind {
	case MediaPhoto:
		s.engine.AddPhoto(ctx, sessionID, resp.URL)
	case MediaVideo:
		s.engine.AddVideo(ctx, sessionID, resp.URL)
	case MediaVoiceNote:
		s.engine.AddVoiceNote(ctx, sessionID, resp.URL)
	}

	s.logger.WithSessionID(sessionID).WithFields(map[string]interface{}{
		"kind": string(kind),
		"key":  resp.Key,
		"size": resp.Size,
	}).Info("Media attached to session")

	return resp.URL, nil
}

// prepare downscales photos; other media are uploaded as captured.
func (s *mediaService) prepare(kind MediaKind, filename string, r io.Reader) (io.Reader, int64, error) {
	switch kind {
	case MediaPhoto:
		if !utils.IsImageFile(filename) {
			return nil, 0, fmt.Errorf("unsupported photo %q: %w", filename, ErrInvalidInput)
		}
		img, err := utils.DownscaleImage(r, filename, uint(s.config.MediaMaxImageWidth))
		if err != nil {
			return nil, 0, fmt.Errorf("failed to decode photo: %w", err)
		}
		format := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
		var buf bytes.Buffer
		if err := utils.EncodeImage(img, format, &buf, 85); err != nil {
			return nil, 0, fmt.Errorf("failed to encode photo: %w", err)
		}
		return &buf, int64(buf.Len()), nil
	case MediaVideo, MediaVoiceNote:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to read %s: %w", kind, err)
		}
		return bytes.NewReader(data), int64(len(data)), nil
	}
	return nil, 0, fmt.Errorf("unknown media kind %q: %w", kind, ErrInvalidInput)
}
