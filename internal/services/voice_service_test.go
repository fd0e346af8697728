package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"safetravel/internal/models"
	"safetravel/pkg/speech"
)

type transcriptLog struct {
	mu  sync.Mutex
	got []string
}

func (l *transcriptLog) add(s string) {
	l.mu.Lock()
	l.got = append(l.got, s)
	l.mu.Unlock()
}

func (l *transcriptLog) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.got)
}

func newVoiceFixture(t *testing.T) (*speech.ChannelRecognizer, VoiceService, *transcriptLog) {
	t.Helper()
	env := newTestEnv()
	rec := speech.NewChannelRecognizer()
	voice := NewVoiceService(rec, env.settingsRepo, env.cfg.VoiceRestartDelay, nil)
	log := &transcriptLog{}

	ok, err := voice.StartListening(context.Background(), log.add)
	if err != nil || !ok {
		t.Fatalf("StartListening = %v, %v; want true", ok, err)
	}
	t.Cleanup(voice.StopListening)
	return rec, voice, log
}

func TestVoiceTriggerMatchesFinalTranscripts(t *testing.T) {
	rec, _, log := newVoiceFixture(t)

	rec.Push(speech.Event{Transcript: "emergency", Final: false})
	rec.Push(speech.Event{Transcript: "nothing to see here", Final: true})
	rec.Push(speech.Event{Transcript: "Please, EMERGENCY Help now", Final: true})

	waitFor(t, "trigger callback", func() bool { return log.len() == 1 })
	time.Sleep(20 * time.Millisecond)
	if n := log.len(); n != 1 {
		t.Errorf("callback ran %d times, want 1", n)
	}
	log.mu.Lock()
	defer log.mu.Unlock()
	if log.got[0] != "Please, EMERGENCY Help now" {
		t.Errorf("callback transcript = %q, want the raw fragment", log.got[0])
	}
}

func TestVoiceNoSpeechKeepsListening(t *testing.T) {
	rec, voice, log := newVoiceFixture(t)

	rec.Push(speech.Event{Err: speech.ErrNoSpeech})
	rec.Push(speech.Event{Transcript: "emergency help", Final: true})

	waitFor(t, "trigger callback", func() bool { return log.len() == 1 })
	if !voice.IsListening() {
		t.Error("detector stopped after no-speech")
	}
	if rec.Starts() != 1 {
		t.Errorf("recognizer started %d times, want 1", rec.Starts())
	}
}

func TestVoicePermissionDeniedStops(t *testing.T) {
	rec, voice, _ := newVoiceFixture(t)

	rec.Push(speech.Event{Err: speech.ErrPermissionDenied})

	waitFor(t, "detector stop", func() bool { return !voice.IsListening() && !rec.Listening() })
	time.Sleep(50 * time.Millisecond)
	if rec.Starts() != 1 {
		t.Errorf("recognizer restarted after permission denial: %d starts", rec.Starts())
	}
}

func TestVoiceRestartsAfterStreamEnds(t *testing.T) {
	rec, voice, log := newVoiceFixture(t)

	rec.End()
	waitFor(t, "restart", func() bool { return rec.Starts() == 2 && rec.Listening() })
	if !voice.IsListening() {
		t.Error("detector reports idle after restart")
	}

	rec.Push(speech.Event{Transcript: "emergency help", Final: true})
	waitFor(t, "trigger after restart", func() bool { return log.len() == 1 })
}

func TestVoiceStopListening(t *testing.T) {
	rec, voice, _ := newVoiceFixture(t)

	voice.StopListening()
	if voice.IsListening() {
		t.Error("IsListening after StopListening")
	}
	waitFor(t, "stream close", func() bool { return !rec.Listening() })
	time.Sleep(50 * time.Millisecond)
	if rec.Starts() != 1 {
		t.Errorf("recognizer restarted after StopListening: %d starts", rec.Starts())
	}

	ok, err := voice.StartListening(context.Background(), nil)
	if err != nil || !ok {
		t.Errorf("StartListening after stop = %v, %v; want true", ok, err)
	}
}

func TestVoiceUnavailable(t *testing.T) {
	env := newTestEnv()
	rec := speech.NewChannelRecognizer()
	rec.SetAvailable(false)

	voice := NewVoiceService(rec, env.settingsRepo, time.Millisecond, nil)
	ok, err := voice.StartListening(context.Background(), nil)
	if ok || err != nil {
		t.Errorf("StartListening = %v, %v; want false, nil", ok, err)
	}
	if voice.IsListening() {
		t.Error("IsListening with no recognizer available")
	}
}

func TestVoiceMatchesConfiguredPhrase(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	settings := models.DefaultUserSettings()
	settings.VoiceCommand = "Pineapple Now"
	if err := env.settingsRepo.Save(ctx, settings); err != nil {
		t.Fatalf("save settings: %v", err)
	}
	voice := NewVoiceService(nil, env.settingsRepo, time.Millisecond, nil)

	tests := []struct {
		transcript string
		want       bool
	}{
		{"pineapple now", true},
		{"I said PINEAPPLE NOW please", true},
		{"emergency help", false},
		{"pineapple", false},
	}
	for _, tt := range tests {
		if got := voice.Matches(ctx, tt.transcript); got != tt.want {
			t.Errorf("Matches(%q) = %v, want %v", tt.transcript, got, tt.want)
		}
	}
}

func TestVoiceDisabledInSettings(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	settings := models.DefaultUserSettings()
	settings.VoiceCommandEnabled = false
	if err := env.settingsRepo.Save(ctx, settings); err != nil {
		t.Fatalf("save settings: %v", err)
	}

	rec := speech.NewChannelRecognizer()
	voice := NewVoiceService(rec, env.settingsRepo, time.Millisecond, nil)
	log := &transcriptLog{}
	ok, err := voice.StartListening(ctx, log.add)
	if ok || err != nil {
		t.Fatalf("StartListening = %v, %v; want false, nil", ok, err)
	}
	defer voice.StopListening()

	if rec.Starts() != 0 {
		t.Errorf("recognizer started %d times, want 0", rec.Starts())
	}
	rec.Push(speech.Event{Transcript: "emergency help", Final: true})
	time.Sleep(20 * time.Millisecond)
	if n := log.len(); n != 0 {
		t.Errorf("callback ran %d times with voice commands disabled", n)
	}
	if voice.IsListening() {
		t.Error("IsListening with voice commands disabled")
	}
}
