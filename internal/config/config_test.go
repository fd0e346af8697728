package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Emergency.AccessCodeLength != 4 {
		t.Errorf("AccessCodeLength = %d, want 4", cfg.Emergency.AccessCodeLength)
	}
	if cfg.Emergency.PrivateCodeLength != 6 {
		t.Errorf("PrivateCodeLength = %d, want 6", cfg.Emergency.PrivateCodeLength)
	}
	if cfg.Emergency.LocationTimeout != 15*time.Second {
		t.Errorf("LocationTimeout = %v, want 15s", cfg.Emergency.LocationTimeout)
	}
	if cfg.Emergency.PrivateVaultTTL != 7*24*time.Hour {
		t.Errorf("PrivateVaultTTL = %v", cfg.Emergency.PrivateVaultTTL)
	}
	if cfg.Emergency.SharedVaultTTL != 30*24*time.Hour {
		t.Errorf("SharedVaultTTL = %v", cfg.Emergency.SharedVaultTTL)
	}
	if cfg.Emergency.LenientAccessCode {
		t.Error("LenientAccessCode defaults to true")
	}
	if cfg.Emergency.CleanupSchedule != "@hourly" {
		t.Errorf("CleanupSchedule = %q", cfg.Emergency.CleanupSchedule)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("STORE_DRIVER", "redis")
	t.Setenv("EMERGENCY_LENIENT_ACCESS_CODE", "true")
	t.Setenv("LOCATION_TIMEOUT", "5s")
	t.Setenv("LOCATION_TRACK_DISTANCE_METERS", "25.5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.Driver != "redis" {
		t.Errorf("Store.Driver = %q", cfg.Store.Driver)
	}
	if !cfg.Emergency.LenientAccessCode {
		t.Error("LenientAccessCode not read from env")
	}
	if cfg.Emergency.LocationTimeout != 5*time.Second {
		t.Errorf("LocationTimeout = %v", cfg.Emergency.LocationTimeout)
	}
	if cfg.Emergency.TrackDistanceMeters != 25.5 {
		t.Errorf("TrackDistanceMeters = %v", cfg.Emergency.TrackDistanceMeters)
	}
}

func TestLoadIgnoresMalformedEnv(t *testing.T) {
	t.Setenv("EMERGENCY_ACCESS_CODE_LENGTH", "four")
	t.Setenv("NOTIFY_TIMEOUT", "soon")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Emergency.AccessCodeLength != 4 {
		t.Errorf("AccessCodeLength = %d, want default 4", cfg.Emergency.AccessCodeLength)
	}
	if cfg.Emergency.NotifyTimeout != 30*time.Second {
		t.Errorf("NotifyTimeout = %v, want default 30s", cfg.Emergency.NotifyTimeout)
	}
}

func TestLoadFileOverlay(t *testing.T) {
	t.Setenv("SMS_PROVIDER", "twilio")

	path := filepath.Join(t.TempDir(), "safetravel.yaml")
	yamlDoc := `
store:
  driver: memory
emergency:
  lenient_access_code: true
  location_timeout: 3s
  cleanup_schedule: "*/5 * * * *"
`
	if err := os.WriteFile(path, []byte(yamlDoc), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Store.Driver != "memory" {
		t.Errorf("Store.Driver = %q, want memory", cfg.Store.Driver)
	}
	if cfg.Emergency.LocationTimeout != 3*time.Second {
		t.Errorf("LocationTimeout = %v, want 3s", cfg.Emergency.LocationTimeout)
	}
	if cfg.Emergency.CleanupSchedule != "*/5 * * * *" {
		t.Errorf("CleanupSchedule = %q", cfg.Emergency.CleanupSchedule)
	}
	// untouched keys keep env values
	if cfg.SMS.Provider != "twilio" {
		t.Errorf("SMS.Provider = %q, want twilio from env", cfg.SMS.Provider)
	}
	if cfg.Emergency.AccessCodeLength != 4 {
		t.Errorf("AccessCodeLength = %d, want 4", cfg.Emergency.AccessCodeLength)
	}
}

func TestParseValidation(t *testing.T) {
	_, err := Parse([]byte("store:\n  driver: cassandra\nemergency:\n  access_code_length: 0\n"))
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"store.driver", "access_code_length"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoggerConfig(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	lc := cfg.LoggerConfig()
	if lc.AppName != cfg.App.Name {
		t.Errorf("AppName = %q, want %q", lc.AppName, cfg.App.Name)
	}
	if string(lc.Level) != cfg.Logger.Level {
		t.Errorf("Level = %q, want %q", lc.Level, cfg.Logger.Level)
	}
}
