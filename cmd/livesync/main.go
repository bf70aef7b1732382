package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/sawtfeel/livesync/internal/cache"
	"github.com/sawtfeel/livesync/internal/channel"
	"github.com/sawtfeel/livesync/internal/config"
	"github.com/sawtfeel/livesync/internal/domain"
	"github.com/sawtfeel/livesync/internal/logging"
	"github.com/sawtfeel/livesync/internal/polling"
	"github.com/sawtfeel/livesync/internal/server"
	"github.com/sawtfeel/livesync/internal/status"
	"github.com/sawtfeel/livesync/internal/syncengine"
)

// app ties the realtime layer, the sync engine and the polling fallback
// together: inbound messages feed the engine, and a channel that gives up
// reconnecting degrades to status polling until processing finishes.
type app struct {
	cfg      *config.Config
	clock    clockwork.Clock
	caches   *cache.Service
	playhead *syncengine.Playhead
	engine   *syncengine.Engine
	poller   *polling.Poller

	manager *channel.Manager

	mu       sync.Mutex
	pollers  map[string]func()
	pollCtx  context.Context
	pollStop context.CancelFunc
}

func newApp(cfg *config.Config, clock clockwork.Clock) *app {
	playhead := &syncengine.Playhead{}
	pollCtx, pollStop := context.WithCancel(context.Background())

	a := &app{
		cfg:      cfg,
		clock:    clock,
		caches:   cache.NewService(cache.DefaultServiceConfig(), clock),
		playhead: playhead,
		engine:   syncengine.NewEngine(playhead, clock, syncengine.Options{HistoryLimit: cfg.HistoryLimit}),
		poller: polling.NewPoller(
			status.NewClient(cfg.BackendAPIURL, clock),
			clock,
			polling.Options{Interval: cfg.PollInterval},
			slog.Default(),
		),
		pollers:  make(map[string]func()),
		pollCtx:  pollCtx,
		pollStop: pollStop,
	}

	dialer := &channel.WebsocketDialer{HandshakeTimeout: 10 * time.Second}
	events := channel.Events{
		OnOpen:        a.onOpen,
		OnMessage:     a.onMessage,
		OnError:       a.onError,
		OnMaxAttempts: a.onMaxAttempts,
	}
	a.manager = channel.NewManager(dialer, clock, events, channel.Options{
		HeartbeatInterval:    cfg.HeartbeatInterval,
		MaxReconnectAttempts: cfg.MaxReconnectAttempts,
	}, a.caches)

	return a
}

func (a *app) watch(fileID string) {
	address := fmt.Sprintf("%s/ws/%s", a.cfg.BackendWSURL, fileID)
	a.manager.Connect(fileID, address)
}

func (a *app) onOpen(key string) {
	logging.WithChannel(key).Info("realtime channel established")
	a.stopPolling(key)
}

func (a *app) onError(key string, err error) {
	logging.WithChannel(key).Warn("channel error", "error", err)
}

func (a *app) onMessage(key string, msg domain.Message) {
	log := logging.WithChannel(key)

	switch m := msg.(type) {
	case domain.TimeUpdate:
		a.playhead.Set(m.CurrentTime)
	case domain.PlaybackUpdate:
		a.playhead.Set(m.CurrentTime)
		a.engine.UpdatePlayback(m.CurrentTime, m.IsPlaying, m.IsSeeking)
	case domain.TranscriptUpdate:
		if err := a.engine.SyncTranscript(m.Transcript); err != nil {
			log.Warn("transcript rejected", "error", err)
			return
		}
		if m.Transcript.EnglishText != "" {
			a.caches.SetTranslation(translationKey(key, m.Transcript.StartTime), m.Transcript.EnglishText)
		}
	case domain.EmotionUpdate:
		if err := a.engine.SyncEmotion(m.Emotion); err != nil {
			log.Warn("emotion sample rejected", "error", err)
			return
		}
		a.caches.SetEmotion(key, m.Emotion)
	case domain.StatusUpdate:
		log.Info("processing status", "status", m.Status)
	case domain.ProgressUpdate:
		log.Debug("processing progress", "progress", m.Progress)
	case domain.Completed:
		log.Info("processing completed")
	case domain.ErrorMessage:
		log.Warn("backend reported error", "message", m.Message)
	case domain.SeekComplete:
		a.playhead.Set(m.Position)
	case domain.Unknown:
		log.Debug("ignoring unrecognized message", "type", m.RawType)
	}
}

// onMaxAttempts switches the channel to the polling fallback. Polling ends
// when processing reaches a terminal state or the channel reconnects.
func (a *app) onMaxAttempts(key string) {
	logging.WithChannel(key).Warn("reconnection exhausted, falling back to polling")

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, running := a.pollers[key]; running {
		return
	}
	a.pollers[key] = a.poller.Start(a.pollCtx, key, func(u polling.Update) {
		log := logging.WithFile(u.ResourceID)
		switch {
		case u.Err != nil:
			log.Warn("status poll failed", "attempt", u.Attempt, "error", u.Err)
		case u.Status.Terminal():
			log.Info("processing finished", "status", u.Status.Status)
			a.stopPolling(u.ResourceID)
		default:
			log.Debug("processing status", "status", u.Status.Status, "progress", u.Status.Progress)
		}
	})
}

func (a *app) stopPolling(key string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if stop, ok := a.pollers[key]; ok {
		stop()
		delete(a.pollers, key)
	}
}

func (a *app) stop() {
	a.pollStop()
	a.manager.Stop()
	a.caches.ClearAll()
}

func runGracefulShutdown(srv *server.Server, a *app) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		a.stop()

		close(done)
	}()

	return done
}

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	a := newApp(cfg, clock)

	// Each argument is a file id to follow in realtime.
	for _, fileID := range os.Args[1:] {
		a.watch(fileID)
	}

	srv := server.NewServer(cfg, a.manager, a.engine, clock)
	slog.Info("Session initialized", "session_uuid", srv.SessionID())

	done := runGracefulShutdown(srv, a)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}

func translationKey(channelKey string, start float64) string {
	return fmt.Sprintf("%s:%.3f", channelKey, start)
}
