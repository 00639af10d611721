// internal/leads/live.go
//
// Live dashboard stream.
//
// Context
//   GET /api/leads/live upgrades to a websocket and forwards every lead
//   published on the feed that passes the query filter (same parameters as
//   GET /api/leads).  Messages are the Lead JSON, one per text frame.
//
// Workflow
//   •  Subscribe before the upgrade so a feed failure can still answer 503.
//   •  A reader goroutine drains client frames; a read error (close, reset)
//      cancels the stream.
//   •  The writer sends leads and a ping every pingInterval.  A missed write
//      deadline ends the stream.
//
//------------------------------------------------------------------------------

package leads

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/yanizio/leadflow/internal/logger"
	"github.com/yanizio/leadflow/internal/metrics"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

func (h *Handler) handleLive(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	if h.feed == nil {
		http.Error(w, "live feed disabled", http.StatusServiceUnavailable)
		return
	}

	f := ParseFilter(r.URL.Query())

	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()

	sub, err := h.feed.Subscribe(ctx)
	if err != nil {
		log.Errorw("live feed subscribe failed", "err", err)
		http.Error(w, "live feed unavailable", http.StatusServiceUnavailable)
		return
	}
	defer sub.Close()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		log.Debugw("live upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	metrics.LiveSubscribers.Inc()
	defer metrics.LiveSubscribers.Dec()
	log.Debugw("live subscriber connected", "filter", f)

	go readPump(conn, cancel)

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case payload, ok := <-sub.C:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "feed closed"),
					time.Now().Add(writeWait))
				return
			}
			var l Lead
			if err := json.Unmarshal(payload, &l); err != nil {
				log.Warnw("live feed payload undecodable", "err", err)
				continue
			}
			if !f.Match(l) {
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Debugw("live write failed", "err", err)
				return
			}

		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards client frames and cancels the stream when the peer
// goes away.
func readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
