package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/fabtrain/console/internal/hub"
	"github.com/fabtrain/console/internal/response"
	"github.com/fabtrain/console/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	wsWriteWait   = 10 * time.Second
	wsReadWait    = 5 * time.Minute
	wsSubscriberQ = 32
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// Connectivity reports the backend connection state.
type Connectivity interface {
	Connected() bool
}

// clientMessage is sent by the browser; only "ping" is understood.
type clientMessage struct {
	Action string `json:"action"`
}

// WSHandler streams console events to browsers.
type WSHandler struct {
	hub         *hub.Hub
	feedService *service.FeedService
	backend     Connectivity
	log         zerolog.Logger
	upgrader    websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(h *hub.Hub, feedService *service.FeedService, backend Connectivity, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		hub:         h,
		feedService: feedService,
		backend:     backend,
		log:         log.With().Str("component", "ws_handler").Logger(),
		upgrader:    buildUpgrader(allowedOrigins),
	}
}

// ConsoleStream godoc
// WS /ws/v1/console
// Sends the current status, mode and feed, then every later event.
func (h *WSHandler) ConsoleStream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	sub := h.hub.Subscribe(wsSubscriberQ)
	defer h.hub.Unsubscribe(sub)

	wsLog := h.log.With().
		Str("remote", c.ClientIP()).
		Str("request_id", response.RequestID(c)).
		Logger()
	wsLog.Info().Msg("Console attached")

	initial := []hub.Event{
		{Event: hub.EventStatus, Data: gin.H{"connected": h.backend.Connected()}},
		{Event: hub.EventMode, Data: h.hub.Mode()},
	}
	if view, err := h.feedService.View(c.Request.Context()); err == nil {
		initial = append(initial, hub.Event{Event: hub.EventFeed, Data: view})
	} else {
		wsLog.Warn().Err(err).Msg("Feed unavailable for initial snapshot")
	}
	for _, ev := range initial {
		if err := writeEvent(conn, ev); err != nil {
			return
		}
	}

	replies := make(chan hub.Event, 4)
	done := make(chan struct{})
	go h.readLoop(conn, wsLog, replies, done)

	for {
		select {
		case <-done:
			wsLog.Debug().Msg("Console detached")
			return
		case raw, ok := <-sub.C:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}
		case ev := <-replies:
			if err := writeEvent(conn, ev); err != nil {
				return
			}
		}
	}
}

// readLoop answers pings; the browser sends nothing else of interest.
func (h *WSHandler) readLoop(conn *websocket.Conn, wsLog zerolog.Logger, replies chan<- hub.Event, done chan<- struct{}) {
	defer close(done)
	for {
		conn.SetReadDeadline(time.Now().Add(wsReadWait))
		var msg clientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			}
			return
		}

		reply := hub.Event{Event: hub.EventPong}
		if msg.Action != "ping" {
			reply = hub.Event{Event: hub.EventError, Data: "unknown action: " + msg.Action}
		}
		select {
		case replies <- reply:
		default:
		}
	}
}

func writeEvent(conn *websocket.Conn, ev hub.Event) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteMessage(websocket.TextMessage, raw)
}
