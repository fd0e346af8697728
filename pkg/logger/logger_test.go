package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func newBufferedLogger(t *testing.T, format string) (*Logger, *bytes.Buffer) {
	t.Helper()
	l, err := NewLogger(&Config{Level: DebugLevel, Format: format, AppName: "SafeTravel", Version: "test"})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	buf := new(bytes.Buffer)
	l.SetOutput(buf)
	return l, buf
}

func TestJSONFormatterFields(t *testing.T) {
	l, buf := newBufferedLogger(t, "json")

	l.WithComponent("engine").WithSessionID("sess-1").WithError(errors.New("boom")).Error("Failed to persist")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v\n%s", err, buf.String())
	}
	want := map[string]string{
		"level":      "error",
		"message":    "Failed to persist",
		"app":        "SafeTravel",
		"version":    "test",
		"component":  "engine",
		"session_id": "sess-1",
		"error":      "boom",
	}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("%s = %v, want %q", k, entry[k], v)
		}
	}
}

func TestWithFieldDoesNotMutateParent(t *testing.T) {
	l, buf := newBufferedLogger(t, "json")
	_ = l.WithField("child", true)

	l.Info("parent")
	if strings.Contains(buf.String(), "child") {
		t.Errorf("parent logger picked up child field: %s", buf.String())
	}
}

func TestTextFormatterSortsFields(t *testing.T) {
	l, buf := newBufferedLogger(t, "text")
	l.WithFields(map[string]interface{}{"b": 2, "a": 1}).Warn("hello")

	line := buf.String()
	if !strings.Contains(line, "[WARN]") || !strings.Contains(line, "[SafeTravel]") {
		t.Errorf("text line = %q", line)
	}
	if !strings.HasSuffix(line, "hello a=1 b=2\n") {
		t.Errorf("fields not sorted: %q", line)
	}
}

func TestLevelFiltering(t *testing.T) {
	l, buf := newBufferedLogger(t, "text")
	l.SetLevel(WarnLevel)

	l.Info("dropped")
	l.Warn("kept")
	if strings.Contains(buf.String(), "dropped") || !strings.Contains(buf.String(), "kept") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestStructuredEvents(t *testing.T) {
	l, buf := newBufferedLogger(t, "json")

	l.LogAccessEvent("*******0001", "emergency", false, "invalid code")
	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if entry["type"] != "access_event" || entry["granted"] != false || entry["level"] != "warning" || entry["reason"] != "invalid code" {
		t.Errorf("access event = %v", entry)
	}

	buf.Reset()
	l.LogDispatchEvent("c1", "sms", "sent", 1500*time.Millisecond)
	entry = nil
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if entry["type"] != "dispatch_event" || entry["duration_ms"] != float64(1500) {
		t.Errorf("dispatch event = %v", entry)
	}
}

func TestWithContext(t *testing.T) {
	l, buf := newBufferedLogger(t, "json")
	ctx := context.WithValue(context.Background(), SessionIDKey, "sess-9")

	l.WithContext(ctx).Info("tracked")
	if !strings.Contains(buf.String(), `"session_id":"sess-9"`) {
		t.Errorf("output = %s", buf.String())
	}
}

func TestNopDiscards(t *testing.T) {
	NewNop().WithComponent("x").Error("nothing to see")
}
