package server

import (
	"github.com/labstack/echo/v4"

	"github.com/sawtfeel/livesync/internal/channel"
)

func (s *Server) handleLiveness(c echo.Context) error {
	uptime := s.clock.Now().Sub(s.startTime).Seconds()
	return c.JSON(200, map[string]any{
		"status":       "ok",
		"session_uuid": s.sessionID,
		"uptime":       uptime,
	})
}

// handleReadiness reports ready while at least one realtime channel is
// usable: connected, still dialing, or reconnecting. A process whose every
// channel has given up is degraded to the polling fallback and reports 503
// so orchestration can notice.
func (s *Server) handleReadiness(c echo.Context) error {
	channels := s.channels.Snapshot()
	if len(channels) == 0 {
		return c.JSON(200, map[string]string{"status": "ready"})
	}

	for _, info := range channels {
		if info.State != channel.StateDisconnected {
			return c.JSON(200, map[string]string{"status": "ready"})
		}
	}

	return c.JSON(503, map[string]any{
		"status":       "unhealthy",
		"failed_check": "realtime_channels",
	})
}
