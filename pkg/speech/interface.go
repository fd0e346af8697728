// Package speech models a platform speech-to-text stream.
package speech

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable means the platform has no speech recognition. It is a
	// supported outcome, not a failure.
	ErrUnavailable = errors.New("speech recognition unavailable")
	// ErrPermissionDenied is delivered when microphone access is refused.
	ErrPermissionDenied = errors.New("microphone permission denied")
	// ErrNoSpeech is delivered when a listening window ends in silence.
	ErrNoSpeech = errors.New("no speech detected")
)

// Recognizer opens recognition streams. The returned channel is closed when
// the platform ends the stream or ctx is cancelled.
type Recognizer interface {
	Start(ctx context.Context) (<-chan Event, error)
}

// Event is either a transcript fragment or a stream error.
type Event struct {
	Transcript string
	Final      bool
	Err        error
}
