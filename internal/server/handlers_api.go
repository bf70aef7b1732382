package server

import (
	"github.com/labstack/echo/v4"
)

func (s *Server) handleChannels(c echo.Context) error {
	channels := s.channels.Snapshot()
	return c.JSON(200, map[string]any{
		"channels": channels,
		"count":    len(channels),
	})
}

// handlePlayback returns the playback snapshot plus whatever the engine
// resolves for the current position. Absent items are null rather than
// zero-valued structs.
func (s *Server) handlePlayback(c echo.Context) error {
	payload := map[string]any{
		"playback":   s.playback.Playback(),
		"transcript": nil,
		"emotion":    nil,
		"smoothed":   nil,
	}
	if seg, ok := s.playback.CurrentTranscript(); ok {
		payload["transcript"] = seg
	}
	if sample, ok := s.playback.CurrentEmotion(); ok {
		payload["emotion"] = sample
	}
	if sample, ok := s.playback.Smoothed(0); ok {
		payload["smoothed"] = sample
	}
	return c.JSON(200, payload)
}
