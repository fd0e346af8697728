package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"safetravel/internal/models"
	"safetravel/pkg/push"
	"safetravel/pkg/sms"
)

type fakePush struct {
	mu   sync.Mutex
	sent []*push.NotificationRequest
	err  error
}

func (f *fakePush) Send(ctx context.Context, req *push.NotificationRequest) (*push.NotificationResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, req)
	return &push.NotificationResponse{MessageID: "push-" + req.Token, Success: true, Token: req.Token}, nil
}

func (f *fakePush) SendBulk(ctx context.Context, reqs []*push.NotificationRequest) ([]*push.NotificationResponse, error) {
	out := make([]*push.NotificationResponse, 0, len(reqs))
	for _, req := range reqs {
		resp, _ := f.Send(ctx, req)
		out = append(out, resp)
	}
	return out, nil
}

func testSession() *models.EmergencySession {
	return &models.EmergencySession{
		ID:                  "sess-1",
		StartTime:           time.Date(2026, 3, 1, 14, 5, 9, 0, time.UTC),
		IsActive:            true,
		Trigger:             models.TriggerManual,
		EmergencyAccessCode: "4821",
		Locations: []models.LocationData{
			{Latitude: 48.8566, Longitude: 2.3522, Timestamp: time.Date(2026, 3, 1, 14, 5, 9, 0, time.UTC)},
		},
	}
}

func TestNotifyEmergencyPicksChannelPerSettings(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	provider := &fakeSMS{}
	notifier := NewNotificationService(provider, nil, env.settingsRepo, env.messageRepo, "SafeTravel", nil)

	contacts := []*models.EmergencyContact{
		{ID: "c1", Name: "Ana", Phone: "+1 (555) 010-0001"},
		{ID: "c2", Name: "Ben", Phone: "+1 555 010 0002", WhatsAppNumber: "+44 7700 900123"},
	}

	result := notifier.NotifyEmergency(ctx, testSession(), contacts)
	if len(result.Attempted) != 2 || len(result.Sent) != 2 || result.Failed != 0 {
		t.Fatalf("result = %+v, want 2 attempted and sent", result)
	}

	reqs := provider.requests()
	if len(reqs) != 2 {
		t.Fatalf("provider saw %d requests, want 2", len(reqs))
	}
	if reqs[0].To != "+15550100001" || reqs[0].Channel != sms.Channel(models.ChannelWhatsApp) {
		t.Errorf("first request = %s via %s", reqs[0].To, reqs[0].Channel)
	}
	if reqs[1].To != "+447700900123" {
		t.Errorf("second request went to %s, want the WhatsApp number", reqs[1].To)
	}

	settings := models.DefaultUserSettings()
	settings.WhatsAppIntegrationEnabled = false
	if err := env.settingsRepo.Save(ctx, settings); err != nil {
		t.Fatalf("save settings: %v", err)
	}
	notifier.NotifyEmergency(ctx, testSession(), contacts[1:])

	reqs = provider.requests()
	last := reqs[len(reqs)-1]
	if last.To != "+15550100002" || last.Channel != sms.Channel(models.ChannelSMS) {
		t.Errorf("sms fallback = %s via %s, want +15550100002 via sms", last.To, last.Channel)
	}
}

func TestNotifyEmergencyRecordsFailures(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	provider := &fakeSMS{fail: map[string]bool{"+15550100001": true}}
	notifier := NewNotificationService(provider, nil, env.settingsRepo, env.messageRepo, "", nil)

	contacts := []*models.EmergencyContact{
		{ID: "c1", Phone: "+1 (555) 010-0001"},
		{ID: "c2", Phone: "+1 555 010 0002"},
	}
	result := notifier.NotifyEmergency(ctx, testSession(), contacts)
	if len(result.Attempted) != 2 || len(result.Sent) != 1 || result.Failed != 1 {
		t.Fatalf("result = %+v, want 2 attempted, 1 sent, 1 failed", result)
	}

	history, err := notifier.History(ctx)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history has %d messages, want 2", len(history))
	}
	statuses := map[string]models.MessageStatus{}
	for _, m := range history {
		statuses[m.ContactID] = m.Status
		if m.SessionID != "sess-1" {
			t.Errorf("message %s session = %q, want sess-1", m.ID, m.SessionID)
		}
	}
	if statuses["c1"] != models.MessageStatusFailed || statuses["c2"] != models.MessageStatusSent {
		t.Errorf("statuses = %v", statuses)
	}
}

func TestNotifyEmergencyWithoutProviderLogsPending(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	notifier := NewNotificationService(nil, nil, env.settingsRepo, env.messageRepo, "", nil)

	result := notifier.NotifyEmergency(ctx, testSession(), []*models.EmergencyContact{{ID: "c1", Phone: "+15550100001"}})
	if len(result.Attempted) != 1 || len(result.Sent) != 0 || result.Failed != 0 {
		t.Fatalf("result = %+v, want one pending attempt", result)
	}

	history, _ := notifier.History(ctx)
	if len(history) != 1 || history[0].Status != models.MessageStatusPending {
		t.Fatalf("history = %+v, want one pending message", history)
	}
	if !strings.Contains(history[0].Message, "Access Code: 4821") {
		t.Error("pending message body lacks the access code")
	}
}

func TestNotifyEmergencySkipsUnreachableContacts(t *testing.T) {
	env := newTestEnv()
	notifier := NewNotificationService(&fakeSMS{}, nil, env.settingsRepo, env.messageRepo, "", nil)

	result := notifier.NotifyEmergency(context.Background(), testSession(), []*models.EmergencyContact{{ID: "c1", Name: "No Number"}})
	if len(result.Attempted) != 0 {
		t.Errorf("attempted = %v, want none", result.Attempted)
	}
}

func TestNotifyEmergencySendsPush(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	fcm := &fakePush{}
	apns := &fakePush{err: errors.New("bad device token")}
	notifier := NewNotificationService(nil, map[models.PushPlatform]push.Provider{
		models.PushPlatformFCM:  fcm,
		models.PushPlatformAPNS: apns,
	}, env.settingsRepo, env.messageRepo, "SafeTravel", nil)

	contacts := []*models.EmergencyContact{
		{ID: "c1", PushToken: "tok-android", PushPlatform: models.PushPlatformFCM},
		{ID: "c2", PushToken: "tok-ios", PushPlatform: models.PushPlatformAPNS},
	}
	result := notifier.NotifyEmergency(ctx, testSession(), contacts)
	if len(result.Attempted) != 2 || len(result.Sent) != 1 || result.Failed != 1 {
		t.Fatalf("result = %+v, want 1 push sent and 1 failed", result)
	}

	if len(fcm.sent) != 1 {
		t.Fatalf("fcm sent %d notifications, want 1", len(fcm.sent))
	}
	req := fcm.sent[0]
	if req.Token != "tok-android" || !req.Critical || req.Data["access_code"] != "4821" || req.Data["session_id"] != "sess-1" {
		t.Errorf("push request = %+v", req)
	}
}

func TestNotifySharedContent(t *testing.T) {
	env := newTestEnv()
	provider := &fakeSMS{}
	notifier := NewNotificationService(provider, nil, env.settingsRepo, env.messageRepo, "SafeTravel", nil)

	result := notifier.NotifySharedContent(context.Background(),
		[]*models.EmergencyContact{{ID: "c1", Phone: "+15550100001"}}, "Hotel address", models.VaultEntryText)
	if len(result.Sent) != 1 {
		t.Fatalf("result = %+v, want one sent", result)
	}

	body := provider.requests()[0].Message
	for _, want := range []string{"Title: Hotel address", "Type: text", "not an emergency"} {
		if !strings.Contains(body, want) {
			t.Errorf("shared content body lacks %q:\n%s", want, body)
		}
	}
}

func TestFormatEmergencyMessage(t *testing.T) {
	session := testSession()
	session.MediaRecordingEnabled = true
	session.Photos = []string{"p1", "p2"}

	body := FormatEmergencyMessage(session, session.LastLocation(), "SafeTravel")
	for _, want := range []string{
		"EMERGENCY ALERT",
		"from SafeTravel app",
		"Emergency triggered: 3/1/2026, 2:05:09 PM",
		"Trigger type: MANUAL",
		"Latitude: 48.856600",
		"Longitude: 2.352200",
		"https://www.openstreetmap.org/?mlat=48.8566&mlon=2.3522&zoom=16",
		"Photos captured: 2",
		"Access Code: 4821",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("message lacks %q:\n%s", want, body)
		}
	}
	if strings.Contains(body, "Videos recorded") {
		t.Error("message mentions videos although none were recorded")
	}

	noFix := FormatEmergencyMessage(session, nil, "SafeTravel")
	if strings.Contains(noFix, "Current Location") {
		t.Error("message without a fix still has a location block")
	}
}

func TestMapLink(t *testing.T) {
	got := MapLink(-33.8688, 151.2093)
	want := "https://www.openstreetmap.org/?mlat=-33.8688&mlon=151.2093&zoom=16"
	if got != want {
		t.Errorf("MapLink = %q, want %q", got, want)
	}
}
