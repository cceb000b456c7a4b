package ingest

import (
	"context"

	"github.com/gorilla/websocket"
)

// Dialer opens message-oriented sessions to the sensor source.
// Use WebSocketDialer for production; MockDialer for testing.
type Dialer interface {
	// Dial opens a session to the given ws:// or wss:// URL. It
	// returns promptly with an error when ctx is cancelled.
	Dial(ctx context.Context, address string) (Conn, error)
}

// Conn is one established session delivering whole messages.
type Conn interface {
	// ReadMessage blocks until the next inbound message or a
	// session error. Close unblocks a pending read.
	ReadMessage() ([]byte, error)

	// Close tears the session down. Safe to call from another
	// goroutine while a read is pending.
	Close() error
}

// WebSocketDialer implements Dialer over gorilla/websocket.
type WebSocketDialer struct {
	dialer *websocket.Dialer
}

// NewWebSocketDialer wraps the given websocket dialer, defaulting to
// websocket.DefaultDialer when nil.
func NewWebSocketDialer(d *websocket.Dialer) *WebSocketDialer {
	if d == nil {
		d = websocket.DefaultDialer
	}
	return &WebSocketDialer{dialer: d}
}

// Dial opens a websocket session.
func (d *WebSocketDialer) Dial(ctx context.Context, address string) (Conn, error) {
	conn, resp, err := d.dialer.DialContext(ctx, address, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	return &webSocketConn{conn: conn}, nil
}

type webSocketConn struct {
	conn *websocket.Conn
}

func (c *webSocketConn) ReadMessage() ([]byte, error) {
	_, payload, err := c.conn.ReadMessage()
	return payload, err
}

func (c *webSocketConn) Close() error {
	return c.conn.Close()
}
