package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"safetravel/internal/config"
	"safetravel/internal/models"
	"safetravel/internal/repositories/interfaces"
	"safetravel/internal/repositories/keyvalue"
	"safetravel/pkg/kv"
	"safetravel/pkg/sms"
)

type testEnv struct {
	store        *kv.MemoryStore
	cfg          *config.EmergencyConfig
	sessionRepo  interfaces.SessionRepository
	contactRepo  interfaces.ContactRepository
	vaultRepo    interfaces.VaultRepository
	settingsRepo interfaces.SettingsRepository
	speedRepo    interfaces.SpeedLogRepository
	messageRepo  interfaces.MessageLogRepository
}

func newTestEnv() *testEnv {
	store := kv.NewMemoryStore()
	return &testEnv{
		store: store,
		cfg: &config.EmergencyConfig{
			AccessCodeLength:    4,
			PrivateCodeLength:   6,
			LocationTimeout:     50 * time.Millisecond,
			LocationMaxAge:      10 * time.Second,
			NotifyTimeout:       time.Second,
			VoiceRestartDelay:   10 * time.Millisecond,
			PrivateVaultTTL:     7 * 24 * time.Hour,
			SharedVaultTTL:      30 * 24 * time.Hour,
			CleanupSchedule:     "@hourly",
			NotifySharedContent: true,
			MediaMaxImageWidth:  64,
		},
		sessionRepo:  keyvalue.NewSessionRepository(store),
		contactRepo:  keyvalue.NewContactRepository(store),
		vaultRepo:    keyvalue.NewVaultRepository(store),
		settingsRepo: keyvalue.NewSettingsRepository(store),
		speedRepo:    keyvalue.NewSpeedLogRepository(store),
		messageRepo:  keyvalue.NewMessageLogRepository(store),
	}
}

func (e *testEnv) addContact(t *testing.T, c *models.EmergencyContact) *models.EmergencyContact {
	t.Helper()
	if err := e.contactRepo.Save(context.Background(), c); err != nil {
		t.Fatalf("save contact: %v", err)
	}
	return c
}

// waitFor polls cond until it holds or a second passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

type fakeSMS struct {
	mu   sync.Mutex
	sent []*sms.Request
	fail map[string]bool // by recipient
}

func (f *fakeSMS) Send(ctx context.Context, req *sms.Request) (*sms.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[req.To] {
		return nil, errors.New("carrier rejected")
	}
	f.sent = append(f.sent, req)
	return &sms.Response{MessageID: "SM" + req.To, Status: "queued"}, nil
}

func (f *fakeSMS) SendBulk(ctx context.Context, reqs []*sms.Request) ([]*sms.Response, error) {
	out := make([]*sms.Response, 0, len(reqs))
	for _, req := range reqs {
		resp, err := f.Send(ctx, req)
		if err != nil {
			resp = &sms.Response{Status: "failed", Error: err.Error()}
		}
		out = append(out, resp)
	}
	return out, nil
}

func (f *fakeSMS) GetDeliveryStatus(ctx context.Context, id string) (*sms.DeliveryStatus, error) {
	return &sms.DeliveryStatus{MessageID: id, Status: "delivered"}, nil
}

func (f *fakeSMS) requests() []*sms.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*sms.Request(nil), f.sent...)
}

type fakeCapture struct {
	mu      sync.Mutex
	photos  []string
	videos  []string
	stopped []string
}

func (f *fakeCapture) StartPhotoCapture(ctx context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.photos = append(f.photos, sessionID)
	return nil
}

func (f *fakeCapture) StartVideoRecording(ctx context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.videos = append(f.videos, sessionID)
	return nil
}

func (f *fakeCapture) StopCapture(sessionID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = append(f.stopped, sessionID)
}

// failingStore errors on every write after failWrites is set.
type failingStore struct {
	*kv.MemoryStore
	mu         sync.Mutex
	failWrites bool
}

func (f *failingStore) Set(ctx context.Context, key string, value interface{}) error {
	f.mu.Lock()
	fail := f.failWrites
	f.mu.Unlock()
	if fail {
		return errors.New("disk full")
	}
	return f.MemoryStore.Set(ctx, key, value)
}

func (f *failingStore) setFailing(fail bool) {
	f.mu.Lock()
	f.failWrites = fail
	f.mu.Unlock()
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
