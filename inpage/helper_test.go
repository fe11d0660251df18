package inpage_test

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ava-labs/inpage-provider/events"
	"github.com/ava-labs/inpage-provider/inpage"
	"github.com/ava-labs/inpage-provider/rpc"
)

// fakeTransport is a scripted in-memory Transport. Each test installs a
// handler describing the backend it needs; every forwarded request is
// recorded for inspection.
type fakeTransport struct {
	mu       sync.Mutex
	handler  func(*rpc.Request) *rpc.Response
	batchFn  func([]*rpc.Request) []*rpc.Response
	err      error
	requests []*rpc.Request
	notify   func(*rpc.Notification)
	onFail   func(string, error)
}

func (f *fakeTransport) SendRequest(ctx context.Context, req *rpc.Request) (*rpc.Response, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	handler, err := f.handler, f.err
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if handler == nil {
		return &rpc.Response{JSONRPC: rpc.Version, Result: json.RawMessage(`null`)}, nil
	}
	return handler(req), nil
}

func (f *fakeTransport) SendBatch(ctx context.Context, reqs []*rpc.Request) ([]*rpc.Response, error) {
	f.mu.Lock()
	f.requests = append(f.requests, reqs...)
	batchFn, err := f.batchFn, f.err
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if batchFn == nil {
		out := make([]*rpc.Response, len(reqs))
		for i := range reqs {
			out[i] = &rpc.Response{JSONRPC: rpc.Version, Result: json.RawMessage(`null`)}
		}
		return out, nil
	}
	return batchFn(reqs), nil
}

func (f *fakeTransport) OnNotification(fn func(*rpc.Notification)) {
	f.mu.Lock()
	f.notify = fn
	f.mu.Unlock()
}

func (f *fakeTransport) OnTransportFailure(fn func(label string, err error)) {
	f.mu.Lock()
	f.onFail = fn
	f.mu.Unlock()
}

// push delivers a notification as if the backend had sent it.
func (f *fakeTransport) push(n *rpc.Notification) {
	f.mu.Lock()
	fn := f.notify
	f.mu.Unlock()
	if fn != nil {
		fn(n)
	}
}

// failNow reports a transport failure as if the channel had died.
func (f *fakeTransport) failNow(label string, err error) {
	f.mu.Lock()
	fn := f.onFail
	f.mu.Unlock()
	if fn != nil {
		fn(label, err)
	}
}

func (f *fakeTransport) calls() []*rpc.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*rpc.Request, len(f.requests))
	copy(out, f.requests)
	return out
}

func (f *fakeTransport) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// walletScript returns a handler imitating a healthy wallet backend with
// fixed state.
func walletScript(chainID, networkVersion string, unlocked bool, accounts ...string) func(*rpc.Request) *rpc.Response {
	if accounts == nil {
		accounts = []string{}
	}
	return func(req *rpc.Request) *rpc.Response {
		switch req.Method {
		case rpc.MethodGetProviderState:
			return jsonResponse(map[string]any{
				"chainId":        chainID,
				"networkVersion": networkVersion,
				"isUnlocked":     unlocked,
				"accounts":       accounts,
			})
		case rpc.MethodEthAccounts, rpc.MethodEthRequestAccounts:
			return jsonResponse(accounts)
		case rpc.MethodEthChainID:
			return jsonResponse(chainID)
		case rpc.MethodNetVersion:
			return jsonResponse(networkVersion)
		default:
			return &rpc.Response{
				JSONRPC: rpc.Version,
				Error:   &rpc.Error{Code: rpc.CodeMethodNotFound, Message: "unknown method"},
			}
		}
	}
}

func jsonResponse(v any) *rpc.Response {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return &rpc.Response{JSONRPC: rpc.Version, Result: b}
}

// syncBuffer is a goroutine-safe log sink.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// newTestProvider builds a provider with bootstrap under test control and
// all logs captured.
func newTestProvider(t *testing.T, ft *fakeTransport, opts ...inpage.Option) (*inpage.Provider, *syncBuffer) {
	t.Helper()
	buf := new(syncBuffer)
	logger := log.NewLogger(log.NewTerminalHandlerWithLevel(buf, log.LevelTrace, false))
	all := append([]inpage.Option{inpage.WithLogger(logger), inpage.WithoutBootstrap()}, opts...)
	return inpage.New(ft, all...), buf
}

// recorder collects events from an unbuffered subscription, so everything
// it holds was delivered before the emitting call returned.
type recorder struct {
	mu  sync.Mutex
	evs []events.Event
}

func record(t *testing.T, p *inpage.Provider, name events.Name) *recorder {
	t.Helper()
	ch := make(chan events.Event)
	sub, err := p.Subscribe(name, ch)
	if err != nil {
		t.Fatalf("subscribe %s: %v", name, err)
	}
	t.Cleanup(sub.Unsubscribe)

	rec := &recorder{}
	go func() {
		for {
			select {
			case ev := <-ch:
				rec.mu.Lock()
				rec.evs = append(rec.evs, ev)
				rec.mu.Unlock()
			case <-sub.Err():
				return
			}
		}
	}()
	return rec
}

func (r *recorder) snapshot() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Event, len(r.evs))
	copy(out, r.evs)
	return out
}

func (r *recorder) waitLen(t *testing.T, n int) []events.Event {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if evs := r.snapshot(); len(evs) >= n {
			return evs
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d events, have %d", n, len(r.snapshot()))
	return nil
}

func waitUntil(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
