// Package transport carries JSON-RPC traffic between the provider and a
// wallet backend over a duplex byte channel. It owns request IDs and the
// pairing of responses to requests, so callers see plain call-and-return
// semantics regardless of the order the backend answers in.
package transport

import (
	"context"

	"github.com/ava-labs/inpage-provider/rpc"
)

// Transport is the channel the provider talks to its wallet backend
// through.
//
// SendRequest and SendBatch return an error only for channel-level
// conditions such as a lost connection or a cancelled context. A backend
// that answers with a JSON-RPC error still produces a normal response with
// the Error field set; interpreting it is the caller's business.
type Transport interface {
	SendRequest(ctx context.Context, req *rpc.Request) (*rpc.Response, error)
	SendBatch(ctx context.Context, reqs []*rpc.Request) ([]*rpc.Response, error)

	// OnNotification registers the handler for backend-pushed messages.
	// Handlers run one at a time in arrival order. Register before the
	// backend starts pushing; messages arriving earlier are dropped.
	OnNotification(fn func(*rpc.Notification))

	// OnTransportFailure registers the handler called when the channel
	// dies. It fires at most once per connection, with a short label
	// naming the channel and the error that killed it.
	OnTransportFailure(fn func(label string, err error))
}

// MessageConn reads and writes whole messages on some framing. ReadMessage
// blocks until a full message or an error; WriteMessage sends one message
// atomically with respect to other writers.
type MessageConn interface {
	ReadMessage() ([]byte, error)
	WriteMessage(p []byte) error
	Close() error
}
