package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/tbourn/go-suggestion-box/internal/http/middleware"
	"github.com/tbourn/go-suggestion-box/internal/live"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	liveBuffer     = 32
)

// RefreshMessage is pushed to live clients after every committed write.
type RefreshMessage struct {
	Type       string    `json:"type" example:"refresh"`
	Collection string    `json:"collection,omitempty" example:"suggestions"`
	Action     string    `json:"action,omitempty" example:"update"`
	ID         string    `json:"id,omitempty"`
	At         time.Time `json:"at"`
}

func (h *Handlers) checkOrigin(r *http.Request) bool {
	if len(h.opts.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	for _, allowed := range h.opts.AllowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}

// Live godoc
// @ID          live
// @Summary     Push refresh over websocket
// @Description Upgrades to a websocket that receives {"type":"connected"} then {"type":"refresh",...} on every write. Clients re-fetch what they display.
// @Tags        Meta
// @Success     101
// @Router      /live [get]
func (h *Handlers) Live(c *gin.Context) {
	lg := middleware.LoggerFrom(c)
	upgrader := websocket.Upgrader{CheckOrigin: h.checkOrigin}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already answered the client.
		lg.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	middleware.LiveConnOpened()
	defer middleware.LiveConnClosed()

	events, cancel := h.Events.Subscribe(liveBuffer)
	defer cancel()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// The read loop only drains control frames; it ends on disconnect.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					lg.Debug().Err(err).Msg("live client read error")
				}
				return
			}
		}
	}()

	if err := writeJSON(conn, RefreshMessage{Type: "connected", At: time.Now().UTC()}); err != nil {
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeWait))
			return
		case <-gone:
			return
		case ev, open := <-events:
			if !open {
				return
			}
			if err := writeJSON(conn, refreshFor(ev)); err != nil {
				lg.Debug().Err(err).Msg("live write failed")
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func refreshFor(ev live.Event) RefreshMessage {
	return RefreshMessage{
		Type:       "refresh",
		Collection: ev.Collection,
		Action:     ev.Action,
		ID:         ev.ID,
		At:         ev.At,
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(v)
}
