package main

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
	"testing"
)

// isolate points every store at a fresh temp dir and turns external
// providers off.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("STORE_DRIVER", "file")
	t.Setenv("STORE_FILE_DIR", t.TempDir())
	t.Setenv("STORAGE_PROVIDER", "none")
	t.Setenv("SMS_PROVIDER", "none")
	t.Setenv("FCM_ENABLED", "false")
	t.Setenv("APNS_ENABLED", "false")
	t.Setenv("GOOGLE_MAPS_API_KEY", "")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("LOCATION_TIMEOUT", "100ms")
}

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := runCLI(t, "", "version")
	if err != nil {
		t.Fatalf("version command failed: %v", err)
	}
	if !strings.Contains(out, "safetravel dev") || !strings.Contains(out, "commit: none") {
		t.Errorf("unexpected version output: %s", out)
	}
}

func TestVersionCmdWithCustomValues(t *testing.T) {
	origVersion, origCommit := Version, Commit
	Version, Commit = "1.2.0", "abc123"
	defer func() { Version, Commit = origVersion, origCommit }()

	out, err := runCLI(t, "", "version")
	if err != nil {
		t.Fatalf("version command failed: %v", err)
	}
	if !strings.Contains(out, "safetravel 1.2.0 (commit: abc123)") {
		t.Errorf("unexpected version output: %s", out)
	}
}

func TestRootCmdHelp(t *testing.T) {
	out, err := runCLI(t, "", "--help")
	if err != nil {
		t.Fatalf("help command failed: %v", err)
	}
	for _, sub := range []string{"run", "access", "vault", "contacts", "sessions", "messages", "cleanup", "settings"} {
		if !strings.Contains(out, sub) {
			t.Errorf("help output lacks subcommand %q", sub)
		}
	}
}

func TestAccessRequiresPhone(t *testing.T) {
	isolate(t)
	if _, err := runCLI(t, "", "access"); err == nil {
		t.Error("access without --phone succeeded")
	}
}

func TestContactThenSharedAccess(t *testing.T) {
	isolate(t)

	out, err := runCLI(t, "", "contacts", "add", "--name", "Ana", "--phone", "+1 555 010 0001", "--relationship", "sister")
	if err != nil {
		t.Fatalf("contacts add: %v", err)
	}
	if !strings.Contains(out, `"name": "Ana"`) {
		t.Errorf("contacts add output: %s", out)
	}

	if _, err := runCLI(t, "", "vault", "add", "--title", "Hotel", "--content", "Rue de Rivoli 1"); err != nil {
		t.Fatalf("vault add: %v", err)
	}

	out, err = runCLI(t, "", "access", "--phone", "15550100001")
	if err != nil {
		t.Fatalf("access: %v", err)
	}
	var payload struct {
		Tier          string `json:"tier"`
		SharedContent []struct {
			Title string `json:"title"`
		} `json:"shared_content"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode access payload: %v\n%s", err, out)
	}
	if payload.Tier != "shared" || len(payload.SharedContent) != 1 || payload.SharedContent[0].Title != "Hotel" {
		t.Errorf("payload = %+v", payload)
	}

	if _, err := runCLI(t, "", "access", "--phone", "+1 555 999 9999"); err == nil {
		t.Error("access for an unknown phone succeeded")
	}
}

func TestRunSessionThenEmergencyAccess(t *testing.T) {
	isolate(t)

	if _, err := runCLI(t, "", "contacts", "add", "--name", "Ana", "--phone", "+15550100001", "--relationship", "sister"); err != nil {
		t.Fatalf("contacts add: %v", err)
	}

	script := strings.Join([]string{
		`{"type":"location","latitude":52.52,"longitude":13.405}`,
		`{"type":"trigger","trigger":"manual"}`,
		`{"type":"bogus"}`,
		`{"type":"end"}`,
	}, "\n")
	out, err := runCLI(t, script, "run", "--no-voice", "--no-speed")
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	m := regexp.MustCompile(`session (\S+) started, access code (\d{4})`).FindStringSubmatch(out)
	if m == nil {
		t.Fatalf("run output has no start line:\n%s", out)
	}
	if !strings.Contains(out, "session "+m[1]+" ended") {
		t.Errorf("run output has no end line:\n%s", out)
	}
	if !strings.Contains(out, `unknown event type "bogus"`) {
		t.Errorf("run output does not report the bad event:\n%s", out)
	}

	out, err = runCLI(t, "", "access", "--phone", "+15550100001", "--code", m[2])
	if err != nil {
		t.Fatalf("access with emergency code: %v", err)
	}
	var payload struct {
		Tier     string `json:"tier"`
		Sessions []struct {
			ID       string `json:"id"`
			IsActive bool   `json:"is_active"`
		} `json:"sessions"`
		LastKnownLocation *struct {
			Latitude float64 `json:"latitude"`
		} `json:"last_known_location"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode access payload: %v\n%s", err, out)
	}
	if payload.Tier != "emergency" || len(payload.Sessions) != 1 || payload.Sessions[0].ID != m[1] || payload.Sessions[0].IsActive {
		t.Errorf("payload = %+v", payload)
	}
	if payload.LastKnownLocation == nil || payload.LastKnownLocation.Latitude != 52.52 {
		t.Errorf("last known location = %+v", payload.LastKnownLocation)
	}

	out, err = runCLI(t, "", "sessions")
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	if !strings.Contains(out, m[1]) {
		t.Errorf("sessions output lacks %s:\n%s", m[1], out)
	}

	out, err = runCLI(t, "", "sessions", m[1])
	if err != nil {
		t.Fatalf("sessions %s: %v", m[1], err)
	}
	if !strings.Contains(out, `"emergency_access_code": "`+m[2]+`"`) {
		t.Errorf("sessions %s output lacks the access code:\n%s", m[1], out)
	}
	if _, err := runCLI(t, "", "sessions", "missing"); err == nil {
		t.Error("sessions missing succeeded")
	}
}

func TestRunRequestsCaptureWhenMediaEnabled(t *testing.T) {
	isolate(t)

	script := strings.Join([]string{
		`{"type":"trigger","trigger":"manual","media":true}`,
		`{"type":"end"}`,
	}, "\n")
	out, err := runCLI(t, script, "run", "--no-voice", "--no-speed")
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	m := regexp.MustCompile(`session (\S+) started`).FindStringSubmatch(out)
	if m == nil {
		t.Fatalf("run output has no start line:\n%s", out)
	}
	if !strings.Contains(out, "capture photo "+m[1]) {
		t.Errorf("run output has no photo capture request:\n%s", out)
	}
	if strings.Contains(out, "capture video") {
		t.Errorf("video requested although auto video recording is off:\n%s", out)
	}
	if !strings.Contains(out, "capture stop "+m[1]) {
		t.Errorf("run output has no capture stop:\n%s", out)
	}
}

func TestSettingsPreferences(t *testing.T) {
	isolate(t)

	if _, err := runCLI(t, "", "settings", "theme", "dark"); err != nil {
		t.Fatalf("settings theme dark: %v", err)
	}
	out, err := runCLI(t, "", "settings", "theme")
	if err != nil {
		t.Fatalf("settings theme: %v", err)
	}
	if !strings.Contains(out, "dark") {
		t.Errorf("theme output = %q", out)
	}

	if _, err := runCLI(t, "", "settings", "theme", "neon"); err == nil {
		t.Error("invalid theme accepted")
	}
}
