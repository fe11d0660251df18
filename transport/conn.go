package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"

	"github.com/ava-labs/inpage-provider/rpc"
)

// ErrConnClosed reports a connection torn down locally through Close.
var ErrConnClosed = errors.New("connection closed")

// ConnOption configures a Conn.
type ConnOption func(*Conn)

// WithLabel names the connection in failure reports and logs.
func WithLabel(label string) ConnOption {
	return func(c *Conn) { c.label = label }
}

// WithLogger routes the connection's logs through logger.
func WithLogger(logger log.Logger) ConnOption {
	return func(c *Conn) { c.logger = logger }
}

// Conn implements Transport over a MessageConn. Requests without an ID get
// a fresh UUID; a single read loop pairs responses to waiting calls and
// hands notifications to the registered handler in arrival order.
//
// When the underlying channel dies, every in-flight call fails with a
// disconnected error and the failure handler fires exactly once.
type Conn struct {
	label  string
	logger log.Logger
	mc     MessageConn

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[string]chan *rpc.Response
	batches map[string]*batchCall
	notify  func(*rpc.Notification)
	onFail  func(label string, err error)

	closeOnce sync.Once
	closed    chan struct{}
	closeErr  error
}

type batchCall struct {
	keys []string
	ch   chan []*rpc.Response
}

// NewConn wraps mc and starts reading from it immediately.
func NewConn(mc MessageConn, opts ...ConnOption) *Conn {
	c := &Conn{
		label:   "stream",
		logger:  log.Root(),
		mc:      mc,
		pending: map[string]chan *rpc.Response{},
		batches: map[string]*batchCall{},
		closed:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	go c.readLoop()
	return c
}

// NewStreamConn runs newline-delimited JSON framing over rwc.
func NewStreamConn(rwc io.ReadWriteCloser, opts ...ConnOption) *Conn {
	return NewConn(NDJSON(rwc), opts...)
}

// OnNotification implements Transport.
func (c *Conn) OnNotification(fn func(*rpc.Notification)) {
	c.mu.Lock()
	c.notify = fn
	c.mu.Unlock()
}

// OnTransportFailure implements Transport.
func (c *Conn) OnTransportFailure(fn func(label string, err error)) {
	c.mu.Lock()
	c.onFail = fn
	c.mu.Unlock()
}

// SendRequest implements Transport. The caller's request value is not
// mutated; ID and protocol version are filled in on a copy when absent.
func (c *Conn) SendRequest(ctx context.Context, req *rpc.Request) (*rpc.Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if req == nil || req.Method == "" {
		return nil, rpc.ErrInvalidRequestMethod(req)
	}

	r := *req
	if r.JSONRPC == "" {
		r.JSONRPC = rpc.Version
	}
	if r.ID == nil {
		r.ID = uuid.NewString()
	}
	key, err := idKey(r.ID)
	if err != nil {
		return nil, fmt.Errorf("unusable request id %v: %w", r.ID, err)
	}

	ch := make(chan *rpc.Response, 1)
	if err := c.addPending(key, ch); err != nil {
		return nil, err
	}
	defer c.removePending(key)

	payload, err := json.Marshal(&r)
	if err != nil {
		return nil, fmt.Errorf("marshal request %s: %w", r.Method, err)
	}
	if err := c.write(payload); err != nil {
		c.fail(err)
		return nil, rpc.ErrDisconnected(err.Error())
	}

	select {
	case resp := <-ch:
		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.closed:
		return nil, rpc.ErrDisconnected(c.closeReason())
	}
}

// SendBatch implements Transport. Responses are returned in request order
// even if the backend answers out of order; members the backend did not
// answer get a synthesized internal error response.
func (c *Conn) SendBatch(ctx context.Context, reqs []*rpc.Request) ([]*rpc.Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(reqs) == 0 {
		return nil, rpc.ErrInvalidRequestArgs(reqs)
	}

	batch := make([]*rpc.Request, len(reqs))
	keys := make([]string, len(reqs))
	for i, req := range reqs {
		if req == nil || req.Method == "" {
			return nil, rpc.ErrInvalidRequestMethod(req)
		}
		r := *req
		if r.JSONRPC == "" {
			r.JSONRPC = rpc.Version
		}
		if r.ID == nil {
			r.ID = uuid.NewString()
		}
		key, err := idKey(r.ID)
		if err != nil {
			return nil, fmt.Errorf("unusable request id %v: %w", r.ID, err)
		}
		batch[i] = &r
		keys[i] = key
	}

	bc := &batchCall{keys: keys, ch: make(chan []*rpc.Response, 1)}
	if err := c.addBatch(bc); err != nil {
		return nil, err
	}
	defer c.removeBatch(bc)

	payload, err := json.Marshal(batch)
	if err != nil {
		return nil, fmt.Errorf("marshal batch: %w", err)
	}
	if err := c.write(payload); err != nil {
		c.fail(err)
		return nil, rpc.ErrDisconnected(err.Error())
	}

	select {
	case resps := <-bc.ch:
		return orderBatch(keys, resps), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.closed:
		return nil, rpc.ErrDisconnected(c.closeReason())
	}
}

// Close tears the connection down. The failure handler still fires, with
// ErrConnClosed, so state layered on top can observe the disconnect.
func (c *Conn) Close() error {
	c.fail(ErrConnClosed)
	return nil
}

// Closed is closed once the connection is no longer usable.
func (c *Conn) Closed() <-chan struct{} { return c.closed }

func (c *Conn) addPending(key string, ch chan *rpc.Response) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-c.closed:
		return rpc.ErrDisconnected(c.closeErr.Error())
	default:
	}
	if _, dup := c.pending[key]; dup {
		return fmt.Errorf("request id %s is already in flight", key)
	}
	c.pending[key] = ch
	return nil
}

func (c *Conn) removePending(key string) {
	c.mu.Lock()
	delete(c.pending, key)
	c.mu.Unlock()
}

func (c *Conn) addBatch(bc *batchCall) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-c.closed:
		return rpc.ErrDisconnected(c.closeErr.Error())
	default:
	}
	for _, key := range bc.keys {
		if _, dup := c.batches[key]; dup {
			return fmt.Errorf("request id %s is already in flight", key)
		}
	}
	for _, key := range bc.keys {
		c.batches[key] = bc
	}
	return nil
}

func (c *Conn) removeBatch(bc *batchCall) {
	c.mu.Lock()
	for _, key := range bc.keys {
		delete(c.batches, key)
	}
	c.mu.Unlock()
}

func (c *Conn) write(payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.mc.WriteMessage(payload)
}

func (c *Conn) readLoop() {
	for {
		data, err := c.mc.ReadMessage()
		if err != nil {
			c.fail(err)
			return
		}
		c.dispatch(data)
	}
}

func (c *Conn) dispatch(data []byte) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return
	}
	if trimmed[0] == '[' {
		var msgs []*rpc.Message
		if err := json.Unmarshal(trimmed, &msgs); err != nil {
			c.logger.Trace("dropping undecodable batch frame", "conn", c.label, "err", err)
			return
		}
		c.dispatchBatch(msgs)
		return
	}

	var msg rpc.Message
	if err := json.Unmarshal(trimmed, &msg); err != nil {
		c.logger.Trace("dropping undecodable frame", "conn", c.label, "err", err)
		return
	}
	switch {
	case msg.IsNotification():
		c.deliverNotification(msg.Notification())
	case msg.IsResponse():
		c.deliverResponse(msg.Response())
	default:
		c.logger.Trace("dropping frame that is neither response nor notification",
			"conn", c.label, "method", msg.Method)
	}
}

func (c *Conn) deliverNotification(n *rpc.Notification) {
	c.mu.Lock()
	fn := c.notify
	c.mu.Unlock()
	if fn == nil {
		c.logger.Trace("dropping notification with no handler registered",
			"conn", c.label, "method", n.Method)
		return
	}
	fn(n)
}

func (c *Conn) deliverResponse(resp *rpc.Response) {
	key, err := idKey(resp.ID)
	if err != nil {
		c.logger.Trace("dropping response with unusable id", "conn", c.label, "err", err)
		return
	}
	c.mu.Lock()
	ch, ok := c.pending[key]
	c.mu.Unlock()
	if !ok {
		c.logger.Trace("dropping response with no waiting call", "conn", c.label, "id", key)
		return
	}
	select {
	case ch <- resp:
	default:
		c.logger.Trace("dropping duplicate response", "conn", c.label, "id", key)
	}
}

func (c *Conn) dispatchBatch(msgs []*rpc.Message) {
	resps := make([]*rpc.Response, 0, len(msgs))
	for _, m := range msgs {
		if m != nil && m.IsResponse() {
			resps = append(resps, m.Response())
		}
	}
	if len(resps) == 0 {
		return
	}

	c.mu.Lock()
	var bc *batchCall
	for _, r := range resps {
		key, err := idKey(r.ID)
		if err != nil {
			continue
		}
		if found, ok := c.batches[key]; ok {
			bc = found
			break
		}
	}
	c.mu.Unlock()

	if bc == nil {
		c.logger.Trace("dropping batch response with no waiting call",
			"conn", c.label, "size", len(resps))
		return
	}
	select {
	case bc.ch <- resps:
	default:
		c.logger.Trace("dropping duplicate batch response", "conn", c.label)
	}
}

func (c *Conn) fail(err error) {
	c.closeOnce.Do(func() {
		if err == nil {
			err = ErrConnClosed
		}
		c.mu.Lock()
		c.closeErr = err
		onFail := c.onFail
		c.mu.Unlock()
		close(c.closed)
		c.mc.Close()
		if onFail != nil {
			onFail(c.label, err)
		}
	})
}

func (c *Conn) closeReason() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closeErr == nil {
		return ""
	}
	return c.closeErr.Error()
}

// orderBatch rearranges resps into the order of keys. Members with no
// response are filled with an internal error so positions stay aligned
// with the submitted batch.
func orderBatch(keys []string, resps []*rpc.Response) []*rpc.Response {
	byKey := make(map[string]*rpc.Response, len(resps))
	for _, r := range resps {
		if key, err := idKey(r.ID); err == nil {
			byKey[key] = r
		}
	}
	out := make([]*rpc.Response, len(keys))
	for i, key := range keys {
		if r, ok := byKey[key]; ok {
			out[i] = r
			continue
		}
		out[i] = &rpc.Response{
			Error: &rpc.Error{Code: rpc.CodeInternal, Message: "no response for batch member"},
		}
	}
	return out
}

// idKey canonicalizes a request or response ID for map lookup, so an ID
// survives a decode and re-encode round trip on either side.
func idKey(id any) (string, error) {
	if id == nil {
		return "", errors.New("empty id")
	}
	b, err := json.Marshal(id)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
