package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"safetravel/internal/models"
	"safetravel/internal/repositories/interfaces"
	"safetravel/internal/utils"
	"safetravel/pkg/logger"
	"safetravel/pkg/push"
	"safetravel/pkg/sms"
)

type NotificationService interface {
	// NotifyEmergency sends one alert per reachable contact. Failures are
	// recorded in the message log and never returned.
	NotifyEmergency(ctx context.Context, session *models.EmergencySession, contacts []*models.EmergencyContact) *DispatchResult
	NotifySharedContent(ctx context.Context, contacts []*models.EmergencyContact, title string, entryType models.VaultEntryType) *DispatchResult
	History(ctx context.Context) ([]*models.OutboundMessage, error)
}

// DispatchResult summarises one fan-out.
type DispatchResult struct {
	Attempted []string // contact ids
	Sent      []string // message log ids
	Failed    int
}

type notificationService struct {
	sms          sms.Provider
	push         map[models.PushPlatform]push.Provider
	settingsRepo interfaces.SettingsRepository
	messageRepo  interfaces.MessageLogRepository
	appName      string
	logger       *logger.Logger
	nowF         func() time.Time
}

// NewNotificationService wires the outbound channels. smsProvider may be nil,
// in which case text alerts are logged as pending for manual delivery.
func NewNotificationService(
	smsProvider sms.Provider,
	pushProviders map[models.PushPlatform]push.Provider,
	settingsRepo interfaces.SettingsRepository,
	messageRepo interfaces.MessageLogRepository,
	appName string,
	log *logger.Logger,
) NotificationService {
	if log == nil {
		log = logger.NewNop()
	}
	if appName == "" {
		appName = utils.AppName
	}
	return &notificationService{
		sms:          smsProvider,
		push:         pushProviders,
		settingsRepo: settingsRepo,
		messageRepo:  messageRepo,
		appName:      appName,
		logger:       log.WithComponent("notification"),
		nowF:         time.Now,
	}
}

func (s *notificationService) NotifyEmergency(ctx context.Context, session *models.EmergencySession, contacts []*models.EmergencyContact) *DispatchResult {
	result := &DispatchResult{}
	if session == nil || len(contacts) == 0 {
		return result
	}

	body := FormatEmergencyMessage(session, session.LastLocation(), s.appName)
	media := append(append([]string{}, session.Photos...), session.Videos...)

	s.dispatch(ctx, result, contacts, session.ID, body, media, &push.NotificationRequest{
		Title:    "EMERGENCY ALERT",
		Body:     fmt.Sprintf("%s triggered an emergency alert (%s).", s.appName, strings.ToUpper(string(session.Trigger))),
		Sound:    "default",
		Critical: true,
		Data: map[string]string{
			"type":        "emergency",
			"session_id":  session.ID,
			"access_code": session.EmergencyAccessCode,
		},
	})

	s.logger.WithSessionID(session.ID).WithFields(map[string]interface{}{
		"attempted": len(result.Attempted),
		"sent":      len(result.Sent),
		"failed":    result.Failed,
	}).Info("Emergency contacts notified")

	return result
}

func (s *notificationService) NotifySharedContent(ctx context.Context, contacts []*models.EmergencyContact, title string, entryType models.VaultEntryType) *DispatchResult {
	result := &DispatchResult{}
	if len(contacts) == 0 {
		return result
	}

	s.dispatch(ctx, result, contacts, "", FormatSharedContentMessage(title, string(entryType), s.appName), nil, &push.NotificationRequest{
		Title: s.appName + " Update",
		Body:  "New safety content was shared with you: " + title,
		Data:  map[string]string{"type": "shared_content"},
	})

	return result
}

func (s *notificationService) History(ctx context.Context) ([]*models.OutboundMessage, error) {
	messages, err := s.messageRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load message history: %w", err)
	}
	return messages, nil
}

func (s *notificationService) dispatch(
	ctx context.Context,
	result *DispatchResult,
	contacts []*models.EmergencyContact,
	sessionID, body string,
	media []string,
	pushRequest *push.NotificationRequest,
) {
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to load settings, using defaults")
		settings = models.DefaultUserSettings()
	}

	for _, contact := range contacts {
		attempted := false

		if contact.HasReachableNumber() {
			attempted = true
			s.sendText(ctx, result, contact, sessionID, body, media, settings.WhatsAppIntegrationEnabled)
		}

		if contact.PushToken != "" {
			if provider, ok := s.push[contact.PushPlatform]; ok && provider != nil {
				attempted = true
				req := *pushRequest
				req.Token = contact.PushToken
				s.sendPush(ctx, result, provider, contact, sessionID, &req)
			}
		}

		if attempted {
			result.Attempted = append(result.Attempted, contact.ID)
		}
	}
}

func (s *notificationService) sendText(
	ctx context.Context,
	result *DispatchResult,
	contact *models.EmergencyContact,
	sessionID, body string,
	media []string,
	whatsApp bool,
) {
	start := s.nowF()

	channel := models.ChannelSMS
	to := contact.Phone
	if whatsApp {
		channel = models.ChannelWhatsApp
		if contact.WhatsAppNumber != "" {
			to = contact.WhatsAppNumber
		}
	}
	if to == "" {
		to = contact.WhatsAppNumber
	}

	message := &models.OutboundMessage{
		ID:        utils.NewID(),
		ContactID: contact.ID,
		SessionID: sessionID,
		Channel:   channel,
		Message:   body,
		MediaURLs: media,
		SentAt:    start,
		Status:    models.MessageStatusPending,
	}

	if s.sms != nil {
		resp, err := s.sms.Send(ctx, &sms.Request{
			To:        utils.NormalizePhone(to),
			Message:   body,
			Channel:   sms.Channel(channel),
			MediaURLs: media,
			Type:      "transactional",
		})
		if err != nil {
			message.Status = models.MessageStatusFailed
			message.Error = err.Error()
			s.logger.WithError(err).WithField("contact_id", contact.ID).Warn("Outbound message failed")
		} else {
			message.Status = models.MessageStatusSent
			message.ProviderID = resp.MessageID
		}
	}

	s.record(ctx, result, message, s.nowF().Sub(start))
}

func (s *notificationService) sendPush(
	ctx context.Context,
	result *DispatchResult,
	provider push.Provider,
	contact *models.EmergencyContact,
	sessionID string,
	req *push.NotificationRequest,
) {
	start := s.nowF()
	message := &models.OutboundMessage{
		ID:        utils.NewID(),
		ContactID: contact.ID,
		SessionID: sessionID,
		Channel:   models.ChannelPush,
		Message:   req.Body,
		SentAt:    start,
		Status:    models.MessageStatusSent,
	}

	resp, err := provider.Send(ctx, req)
	if err != nil {
		message.Status = models.MessageStatusFailed
		message.Error = err.Error()
		s.logger.WithError(err).WithField("contact_id", contact.ID).Warn("Push notification failed")
	} else {
		message.ProviderID = resp.MessageID
	}

	s.record(ctx, result, message, s.nowF().Sub(start))
}

func (s *notificationService) record(ctx context.Context, result *DispatchResult, message *models.OutboundMessage, took time.Duration) {
	switch message.Status {
	case models.MessageStatusSent:
		result.Sent = append(result.Sent, message.ID)
	case models.MessageStatusFailed:
		result.Failed++
	}

	if err := s.messageRepo.Append(ctx, message); err != nil {
		s.logger.WithError(err).Error("Failed to record outbound message")
	}
	s.logger.LogDispatchEvent(message.ContactID, string(message.Channel), string(message.Status), took)
}

// FormatEmergencyMessage renders the alert body sent to contacts. loc may be
// nil when no fix was available.
func FormatEmergencyMessage(session *models.EmergencySession, loc *models.LocationData, appName string) string {
	var b strings.Builder

	b.WriteString("🚨 EMERGENCY ALERT 🚨\n\n")
	fmt.Fprintf(&b, "This is an automated emergency message from %s app.\n\n", appName)
	fmt.Fprintf(&b, "Emergency triggered: %s\n", session.StartTime.Format("1/2/2006, 3:04:05 PM"))
	fmt.Fprintf(&b, "Trigger type: %s\n\n", strings.ToUpper(string(session.Trigger)))

	if loc != nil {
		b.WriteString("📍 Current Location:\n")
		fmt.Fprintf(&b, "Latitude: %.6f\n", loc.Latitude)
		fmt.Fprintf(&b, "Longitude: %.6f\n", loc.Longitude)
		fmt.Fprintf(&b, "View Location: %s\n\n", MapLink(loc.Latitude, loc.Longitude))
	}

	if session.MediaRecordingEnabled {
		b.WriteString("📸 Media recording is active\n")
		if len(session.Photos) > 0 {
			fmt.Fprintf(&b, "Photos captured: %d\n", len(session.Photos))
		}
		if len(session.Videos) > 0 {
			fmt.Fprintf(&b, "Videos recorded: %d\n", len(session.Videos))
		}
		b.WriteString("\n")
	}

	if session.EmergencyAccessCode != "" {
		b.WriteString("🔐 EMERGENCY ACCESS:\n")
		b.WriteString("You can access real-time location and safety information using:\n")
		fmt.Fprintf(&b, "Access Code: %s\n", session.EmergencyAccessCode)
		fmt.Fprintf(&b, "Visit the %s app's Emergency Access tab\n\n", appName)
	}

	b.WriteString("Please check on my safety immediately.\n\n")
	fmt.Fprintf(&b, "This message was sent automatically by %s.", appName)

	return b.String()
}

func FormatSharedContentMessage(title, entryType, appName string) string {
	return fmt.Sprintf("📱 %s Update\n\n"+
		"I've shared new safety content with you:\n\n"+
		"Title: %s\n"+
		"Type: %s\n\n"+
		"You can view this content in your %s app under the Shared Vault section.\n\n"+
		"This is a precautionary measure and not an emergency.",
		appName, title, entryType, appName)
}

// MapLink returns an OpenStreetMap link centred on the coordinates.
func MapLink(lat, lng float64) string {
	return fmt.Sprintf("https://www.openstreetmap.org/?mlat=%s&mlon=%s&zoom=%d",
		strconv.FormatFloat(lat, 'f', -1, 64),
		strconv.FormatFloat(lng, 'f', -1, 64),
		utils.OpenStreetMapZoomLevel)
}
