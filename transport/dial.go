package transport

import (
	"context"
	"fmt"
	"net"
	"net/url"
)

// Dial connects to a wallet backend endpoint. The scheme picks the framing:
// ws and wss speak websocket, tcp and unix speak newline-delimited JSON
// over the raw stream.
func Dial(ctx context.Context, endpoint string, opts ...ConnOption) (*Conn, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint %q: %w", endpoint, err)
	}

	var d net.Dialer
	switch u.Scheme {
	case "ws", "wss":
		return DialWebsocket(ctx, endpoint, opts...)
	case "tcp":
		conn, err := d.DialContext(ctx, "tcp", u.Host)
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", endpoint, err)
		}
		return NewStreamConn(conn, append([]ConnOption{WithLabel("tcp")}, opts...)...), nil
	case "unix":
		path := u.Host + u.Path
		conn, err := d.DialContext(ctx, "unix", path)
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", endpoint, err)
		}
		return NewStreamConn(conn, append([]ConnOption{WithLabel("ipc")}, opts...)...), nil
	default:
		return nil, fmt.Errorf("unsupported endpoint scheme %q, use ws, wss, tcp or unix", u.Scheme)
	}
}
