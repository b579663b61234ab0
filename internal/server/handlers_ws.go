package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/colin-cd72/cards/internal/live"
	"github.com/colin-cd72/cards/internal/logging"
)

// Inbound events from live connections.
const (
	inboundOutputJoin  = "output:join"
	inboundOutputLeave = "output:leave"
	inboundUserJoin    = "user:join"
)

type inboundEvent struct {
	Event string `json:"event"`
}

// handleWebSocket upgrades the connection and attaches it to the coordinator.
// The connection stays in the unjoined state until the client announces
// itself with output:join or user:join; the read loop blocks here until the
// client goes away.
func (s *Server) handleWebSocket(c echo.Context) error {
	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Warn("WebSocket upgrade failed", "error", err, "remote", c.RealIP())
		return nil
	}

	id := uuid.New()
	writer := live.NewClientWriter(conn, s.clock)

	if err := s.coordinator.Connect(id, writer); err != nil {
		slog.Warn("Connection rejected", "connection_id", id.String(), "error", err)
		return nil
	}

	log := logging.WithConnection(id.String())
	log.Debug("WebSocket connection established", "remote", c.RealIP())

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			break
		}

		var event inboundEvent
		if err := json.Unmarshal(message, &event); err != nil {
			log.Debug("Ignoring malformed message", "error", err)
			continue
		}

		switch event.Event {
		case inboundOutputJoin:
			s.coordinator.JoinDisplay(id)
		case inboundOutputLeave:
			s.coordinator.Leave(id)
		case inboundUserJoin:
			s.coordinator.JoinProducer(id)
		default:
			log.Debug("Ignoring unknown event", "event", event.Event)
		}
	}

	// No-op if the connection already left or was evicted.
	s.coordinator.Disconnect(id)
	return nil
}

func (s *Server) handleConnectionCounts(c echo.Context) error {
	counts := s.coordinator.Counts()
	if err := c.JSON(http.StatusOK, counts); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
