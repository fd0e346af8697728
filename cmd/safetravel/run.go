package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"safetravel/internal/models"
	"safetravel/internal/services"
	"safetravel/pkg/location"
	"safetravel/pkg/speech"
)

// event is one line of the device bridge protocol read by `run`.
type event struct {
	Type string `json:"type"`

	// location
	Latitude  float64    `json:"latitude"`
	Longitude float64    `json:"longitude"`
	Accuracy  *float64   `json:"accuracy,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`

	// transcript
	Text  string `json:"text"`
	Final bool   `json:"final"`
	Error string `json:"error"`

	// trigger
	Trigger string `json:"trigger"`
	Media   bool   `json:"media"`

	// media
	Kind string `json:"kind"`
	Path string `json:"path"`

	// availability
	Enabled *bool `json:"enabled,omitempty"`
}

func newRunCmd(configPath *string) *cobra.Command {
	var (
		noVoice bool
		noSpeed bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the emergency engine fed by device events on stdin",
		Long: `Reads newline-delimited JSON events from stdin:

  {"type":"location","latitude":52.52,"longitude":13.40,"accuracy":8}
  {"type":"transcript","text":"emergency help","final":true}
  {"type":"trigger","trigger":"manual","media":true}
  {"type":"media","kind":"photo","path":"/tmp/capture.jpg"}
  {"type":"end"}
  {"type":"status"}

When media recording is enabled the engine asks the device for captures with
output lines of the form "capture photo|video|stop <session id>".

Voice and speed triggers, location tracking and scheduled cleanup run until
stdin closes or the process is interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			return a.run(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), !noVoice, !noSpeed)
		},
	}

	cmd.Flags().BoolVar(&noVoice, "no-voice", false, "disable the voice trigger")
	cmd.Flags().BoolVar(&noSpeed, "no-speed", false, "disable speed monitoring")
	return cmd
}

func (a *app) run(ctx context.Context, in io.Reader, out io.Writer, voice, speed bool) error {
	out = &syncWriter{w: out}
	a.capture.attach(out)

	if err := a.cleanup.Start(a.cfg.Emergency.CleanupSchedule); err != nil {
		return err
	}

	if voice {
		listening, err := a.voice.StartListening(ctx, func(transcript string) {
			a.engine.HandleVoiceCommand(context.Background(), transcript)
		})
		switch {
		case err != nil:
			a.logger.WithError(err).Warn("Voice trigger not started")
		case !listening:
			a.logger.Info("Voice trigger not listening")
		}
	}

	if speed {
		if !a.speed.StartMonitoring(ctx, func(sample *models.SpeedSample) {
			a.engine.HandleSpeedSample(context.Background(), sample)
		}) {
			a.logger.Info("Speed monitoring not started")
		}
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if err := a.handleEvent(ctx, line, out); err != nil {
				a.logger.WithError(err).Warn("Rejected device event")
				fmt.Fprintf(out, "error: %v\n", err)
			}
		}
	}
}

func (a *app) handleEvent(ctx context.Context, line string, out io.Writer) error {
	var ev event
	if err := json.Unmarshal([]byte(line), &ev); err != nil {
		return fmt.Errorf("failed to decode event: %w", err)
	}

	switch ev.Type {
	case "location":
		reading := location.Reading{
			Latitude:  ev.Latitude,
			Longitude: ev.Longitude,
			Accuracy:  ev.Accuracy,
		}
		if ev.Timestamp != nil {
			reading.Timestamp = *ev.Timestamp
		}
		a.feed.Publish(reading)

	case "location_services":
		if ev.Enabled != nil {
			a.feed.SetEnabled(*ev.Enabled)
		}

	case "transcript":
		speechEvent := speech.Event{Transcript: ev.Text, Final: ev.Final}
		switch ev.Error {
		case "":
		case "not-allowed":
			speechEvent.Err = speech.ErrPermissionDenied
		case "no-speech":
			speechEvent.Err = speech.ErrNoSpeech
		default:
			speechEvent.Err = errors.New(ev.Error)
		}
		if !a.recognizer.Push(speechEvent) {
			return fmt.Errorf("voice trigger is not listening")
		}

	case "transcript_end":
		a.recognizer.End()

	case "trigger":
		trigger := models.TriggerType(ev.Trigger)
		if trigger == "" {
			trigger = models.TriggerManual
		}
		start := a.engine.StartSession
		if ev.Media {
			start = a.engine.StartSessionWithMedia
		}
		id, err := start(ctx, trigger)
		if err != nil {
			return err
		}
		session := a.engine.GetActiveSession()
		if session != nil {
			fmt.Fprintf(out, "session %s started, access code %s\n", id, session.EmergencyAccessCode)
		}

	case "media_on":
		if session := a.engine.GetActiveSession(); session != nil {
			a.engine.EnableMediaRecording(ctx, session.ID)
		}

	case "media":
		session := a.engine.GetActiveSession()
		if session == nil {
			return fmt.Errorf("no active session for media")
		}
		if a.media == nil {
			return fmt.Errorf("media storage is not configured")
		}
		f, err := os.Open(ev.Path)
		if err != nil {
			return fmt.Errorf("failed to open media: %w", err)
		}
		defer f.Close()
		url, err := a.media.Attach(ctx, session.ID, services.MediaKind(ev.Kind), filepath.Base(ev.Path), f)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "attached %s\n", url)

	case "end":
		session := a.engine.GetActiveSession()
		if session == nil {
			return fmt.Errorf("no active session")
		}
		a.engine.EndSession(ctx, session.ID)
		fmt.Fprintf(out, "session %s ended\n", session.ID)

	case "status":
		return printJSON(out, map[string]interface{}{
			"active_session":   a.engine.GetActiveSession(),
			"voice_listening":  a.voice.IsListening(),
			"speed_monitoring": a.speed.IsMonitoring(),
			"trackers":         a.feed.Active(),
		})

	default:
		return fmt.Errorf("unknown event type %q", ev.Type)
	}
	return nil
}
