package http

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"quizdesk/internal/domain"
	"quizdesk/internal/session"
)

const (
	snapshotSize = 20
	writeTimeout = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = (pongWait * 9) / 10
	maxInbound   = 512
)

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// attemptFeed streams recorded attempts to an admin over a websocket: one
// "snapshot" message with the most recent attempts, then one "attempt"
// message per new submission. An attempt recorded while the snapshot is
// being read may appear in both.
func (h *Handler) attemptFeed(w http.ResponseWriter, r *http.Request, _ *session.Data, identity domain.Identity) {
	updates, cancel := h.feed.Subscribe()
	defer cancel()

	recent, err := h.quizzes.ListAttempts(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	if len(recent) > snapshotSize {
		recent = recent[:snapshotSize]
	}
	if recent == nil {
		recent = []domain.AttemptView{}
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	h.logger.Info("attempt feed connected", zap.String("admin", identity.Username))

	if err := writeJSON(conn, outboundMessage[[]domain.AttemptView]{Type: "snapshot", Payload: recent}); err != nil {
		return
	}

	// The feed is one-way; reading only surfaces the peer closing or going
	// silent past the pong deadline.
	conn.SetReadLimit(maxInbound)
	_ = conn.SetReadDeadline(time.Now().Add(h.pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.pongWait))
	})
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				h.logger.Debug("ws ping failed", zap.Error(err))
				return
			}
		case attempt, ok := <-updates:
			if !ok {
				return
			}
			if err := writeJSON(conn, outboundMessage[domain.AttemptView]{Type: "attempt", Payload: attempt}); err != nil {
				h.logger.Debug("ws write failed", zap.Error(err))
				return
			}
		case <-closed:
			h.logger.Info("attempt feed disconnected", zap.String("admin", identity.Username))
			return
		}
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(v)
}
