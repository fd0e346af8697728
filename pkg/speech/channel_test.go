package speech

import (
	"context"
	"errors"
	"testing"
)

func TestChannelRecognizerUnavailable(t *testing.T) {
	r := NewChannelRecognizer()
	r.SetAvailable(false)

	if _, err := r.Start(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestChannelRecognizerPushAndEnd(t *testing.T) {
	r := NewChannelRecognizer()
	if r.Push(Event{Transcript: "dropped"}) {
		t.Error("Push succeeded with no open stream")
	}

	events, err := r.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !r.Push(Event{Transcript: "hello", Final: true}) {
		t.Fatal("Push failed on open stream")
	}

	ev := <-events
	if ev.Transcript != "hello" || !ev.Final {
		t.Errorf("event = %+v", ev)
	}

	r.End()
	if _, ok := <-events; ok {
		t.Error("stream still open after End")
	}
	if r.Listening() {
		t.Error("Listening = true after End")
	}
}

func TestChannelRecognizerContextCancel(t *testing.T) {
	r := NewChannelRecognizer()
	ctx, cancel := context.WithCancel(context.Background())

	events, err := r.Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	cancel()

	for range events {
	}
	if r.Starts() != 1 {
		t.Errorf("Starts = %d, want 1", r.Starts())
	}
}
