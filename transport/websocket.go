package transport

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
)

const wsHandshakeTimeout = 10 * time.Second

// Websocket adapts a gorilla websocket connection to MessageConn. Each
// JSON-RPC message travels as one text frame.
func Websocket(conn *websocket.Conn) MessageConn {
	return &wsConn{conn: conn}
}

type wsConn struct {
	conn *websocket.Conn
}

func (c *wsConn) ReadMessage() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	return data, err
}

func (c *wsConn) WriteMessage(p []byte) error {
	return c.conn.WriteMessage(websocket.TextMessage, p)
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}

// DialWebsocket connects to a websocket wallet endpoint and returns a ready
// Conn speaking over it.
func DialWebsocket(ctx context.Context, endpoint string, opts ...ConnOption) (*Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: wsHandshakeTimeout}
	conn, resp, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (http status %s)", endpoint, err, resp.Status)
		}
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}
	return NewConn(Websocket(conn), append([]ConnOption{WithLabel("websocket")}, opts...)...), nil
}
