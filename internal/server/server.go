package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/sawtfeel/livesync/internal/channel"
	"github.com/sawtfeel/livesync/internal/config"
	"github.com/sawtfeel/livesync/internal/domain"
)

// channelInspector exposes the realtime layer's per-channel state.
type channelInspector interface {
	Snapshot() []channel.ChannelInfo
}

// playbackReader exposes the sync engine's resolved views.
type playbackReader interface {
	Playback() domain.PlaybackState
	CurrentTranscript() (domain.TranscriptSegment, bool)
	CurrentEmotion() (domain.EmotionSample, bool)
	Smoothed(windowSize int) (domain.EmotionSample, bool)
}

type Server struct {
	echo      *echo.Echo
	config    *config.Config
	channels  channelInspector
	playback  playbackReader
	clock     clockwork.Clock
	sessionID string
	startTime time.Time
}

func NewServer(cfg *config.Config, channels channelInspector, playback playbackReader, clock clockwork.Clock) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())

	srv := &Server{
		echo:      e,
		config:    cfg,
		channels:  channels,
		playback:  playback,
		clock:     clock,
		sessionID: uuid.NewString(),
		startTime: clock.Now(),
	}

	srv.registerRoutes()

	return srv
}

// SessionID identifies this process instance in logs and health payloads.
func (s *Server) SessionID() string {
	return s.sessionID
}

func (s *Server) Start() error {
	slog.Info("starting server", "port", s.config.Port, "session_uuid", s.sessionID)
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
