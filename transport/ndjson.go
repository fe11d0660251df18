package transport

import (
	"bufio"
	"bytes"
	"io"
)

// NDJSON frames messages as newline-delimited JSON over a raw byte stream,
// the framing used on pipe, unix socket and tcp endpoints.
func NDJSON(rwc io.ReadWriteCloser) MessageConn {
	return &ndjsonConn{rwc: rwc, r: bufio.NewReader(rwc)}
}

type ndjsonConn struct {
	rwc io.ReadWriteCloser
	r   *bufio.Reader
}

func (c *ndjsonConn) ReadMessage() ([]byte, error) {
	for {
		line, err := c.r.ReadBytes('\n')
		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			// a final unterminated line still counts as a message; the
			// error resurfaces on the next read
			return trimmed, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

func (c *ndjsonConn) WriteMessage(p []byte) error {
	framed := make([]byte, len(p)+1)
	copy(framed, p)
	framed[len(p)] = '\n'
	_, err := c.rwc.Write(framed)
	return err
}

func (c *ndjsonConn) Close() error {
	return c.rwc.Close()
}
