package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Client is one dashboard connection. A connection is bound to a single
// tenant channel for its whole lifetime; cross-tenant subscription changes
// are not a thing, agents reconnect if they switch workspaces.
type Client struct {
	ID      string
	UserID  string
	Channel string // tenant channel this connection receives

	conn *websocket.Conn
	send chan []byte
	mu   sync.Mutex // protects conn writes
}

func NewClient(conn *websocket.Conn, userID, channel string) *Client {
	return &Client{
		ID:      uuid.New().String(),
		UserID:  userID,
		Channel: channel,
		conn:    conn,
		send:    make(chan []byte, 256),
	}
}

// WriteLoop drains the send channel onto the wire and keeps the
// connection alive with periodic pings.
func (c *Client) WriteLoop(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.close()
			return
		case msg, ok := <-c.send:
			if !ok {
				c.close()
				return
			}
			c.mu.Lock()
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			_ = c.conn.WriteMessage(websocket.TextMessage, msg)
			c.mu.Unlock()
		case <-ticker.C:
			c.mu.Lock()
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			_ = c.conn.WriteMessage(websocket.PingMessage, []byte("ping"))
			c.mu.Unlock()
		}
	}
}

func (c *Client) close() {
	c.mu.Lock()
	_ = c.conn.Close()
	c.mu.Unlock()
}

// Deliver queues a payload for the connection without blocking. A slow
// consumer loses messages rather than stalling the hub; the dashboard
// resynchronizes over HTTP after any gap.
func (c *Client) Deliver(msg []byte) {
	select {
	case c.send <- msg:
	default:
	}
}
