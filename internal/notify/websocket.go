package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

const wsWriteTimeout = 5 * time.Second

// WebSocketChannel pushes messages to every open connection of a learner.
// Learners without an open connection are skipped silently.
type WebSocketChannel struct {
	conns map[string]map[*websocket.Conn]struct{}
	mu    sync.Mutex
}

// NewWebSocketChannel creates an empty WebSocket channel.
func NewWebSocketChannel() *WebSocketChannel {
	return &WebSocketChannel{conns: make(map[string]map[*websocket.Conn]struct{})}
}

// Serve upgrades the request and holds the connection open for learnerID
// until the client disconnects or ctx ends. Client frames are discarded.
func (c *WebSocketChannel) Serve(w http.ResponseWriter, r *http.Request, learnerID string) error {
	if learnerID == "" {
		return fmt.Errorf("learner_id is required")
	}
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return fmt.Errorf("accepting websocket: %w", err)
	}

	c.add(learnerID, conn)
	defer c.remove(learnerID, conn)
	slog.Info("websocket connected", "learner_id", learnerID)

	ctx := conn.CloseRead(r.Context())
	<-ctx.Done()
	_ = conn.Close(websocket.StatusNormalClosure, "")
	slog.Info("websocket disconnected", "learner_id", learnerID)
	return nil
}

func (c *WebSocketChannel) Send(ctx context.Context, learnerID string, msg Message) error {
	c.mu.Lock()
	targets := make([]*websocket.Conn, 0, len(c.conns[learnerID]))
	for conn := range c.conns[learnerID] {
		targets = append(targets, conn)
	}
	c.mu.Unlock()

	var errs []error
	for _, conn := range targets {
		wctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
		err := wsjson.Write(wctx, conn, msg)
		cancel()
		if err != nil {
			c.remove(learnerID, conn)
			_ = conn.CloseNow()
			errs = append(errs, fmt.Errorf("writing websocket message: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Connections returns the number of open connections for a learner.
func (c *WebSocketChannel) Connections(learnerID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.conns[learnerID])
}

func (c *WebSocketChannel) add(learnerID string, conn *websocket.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conns[learnerID] == nil {
		c.conns[learnerID] = make(map[*websocket.Conn]struct{})
	}
	c.conns[learnerID][conn] = struct{}{}
}

func (c *WebSocketChannel) remove(learnerID string, conn *websocket.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.conns[learnerID], conn)
	if len(c.conns[learnerID]) == 0 {
		delete(c.conns, learnerID)
	}
}
