package main

import (
	"context"
	"fmt"
	"io"
	"sync"

	"safetravel/pkg/logger"
)

// bridgeCapture forwards capture requests to the device on the other end of
// the `run` stream. The device answers with "media" events.
type bridgeCapture struct {
	mu     sync.Mutex
	out    io.Writer
	logger *logger.Logger
}

func newBridgeCapture(log *logger.Logger) *bridgeCapture {
	return &bridgeCapture{out: io.Discard, logger: log.WithComponent("capture")}
}

func (c *bridgeCapture) attach(out io.Writer) {
	c.mu.Lock()
	c.out = out
	c.mu.Unlock()
}

func (c *bridgeCapture) StartPhotoCapture(ctx context.Context, sessionID string) error {
	return c.request("photo", sessionID)
}

func (c *bridgeCapture) StartVideoRecording(ctx context.Context, sessionID string) error {
	return c.request("video", sessionID)
}

func (c *bridgeCapture) StopCapture(sessionID string) {
	if err := c.request("stop", sessionID); err != nil {
		c.logger.WithSessionID(sessionID).WithError(err).Warn("Failed to send capture stop")
	}
}

func (c *bridgeCapture) request(kind, sessionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.logger.WithSessionID(sessionID).WithField("kind", kind).Info("Capture requested")
	if _, err := fmt.Fprintf(c.out, "capture %s %s\n", kind, sessionID); err != nil {
		return fmt.Errorf("failed to send capture request: %w", err)
	}
	return nil
}

// syncWriter serializes writes from the event loop and trigger goroutines.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
