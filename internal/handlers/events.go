package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Events upgrades GET /ws and streams prediction events to the
// dashboard until the client disconnects.
func (h *Handler) Events(c *gin.Context) {
	if h.hub == nil {
		detail(c, http.StatusNotFound, "Event stream is disabled")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	h.hub.Register(conn)
	defer h.hub.Unregister(conn)

	// Drain control frames; the dashboard never sends data.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
