package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	natsadapter "github.com/samirrijal/ridecompare/internal/adapters/nats"
	"github.com/samirrijal/ridecompare/internal/core/domain"
	"github.com/samirrijal/ridecompare/internal/pkg/metrics"
)

// SessionWebSocketHandler relays snapshots of one session to the client,
// starting with the current one and then every newer version. The client
// does not send anything; reading only detects the close.
func SessionWebSocketHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		sessionID := c.Params("id")
		remoteAddr := c.RemoteAddr().String()
		log := slog.Default().With("session_id", sessionID, "remote", remoteAddr)

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		var mu sync.Mutex
		write := func(data []byte) error {
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		stop, err := natsadapter.FollowSession(ctx, deps.NATS, sessionID,
			func(ctx context.Context) (*domain.Session, error) {
				return deps.Sessions.Get(ctx, sessionID)
			},
			write,
		)
		cancel()
		if err != nil {
			if errors.Is(err, domain.ErrSessionNotFound) {
				_ = write(mustJSON(map[string]string{"error": Text(MsgSessionNotFound)}))
			} else {
				log.Warn("ws follow failed", "error", err)
			}
			return
		}
		defer stop()

		log.Info("ws client connected")

		// Keep-alive ping
		done := make(chan struct{})
		defer close(done)
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
		log.Info("ws client disconnected")
	}
}

func mustJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		return []byte(`{"error":"encode failed"}`)
	}
	return b
}
