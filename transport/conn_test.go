package transport_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ava-labs/inpage-provider/rpc"
	"github.com/ava-labs/inpage-provider/transport"
)

// newPipePair returns a Conn and the backend side of its pipe, speaking the
// same newline-delimited framing.
func newPipePair(t *testing.T, opts ...transport.ConnOption) (*transport.Conn, transport.MessageConn) {
	t.Helper()
	clientEnd, serverEnd := net.Pipe()
	conn := transport.NewStreamConn(clientEnd, opts...)
	t.Cleanup(func() { conn.Close() })
	return conn, transport.NDJSON(serverEnd)
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func waitFor(t *testing.T, what string, cond func() bool) {
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

func readRequest(mc transport.MessageConn) (*rpc.Message, error) {
	data, err := mc.ReadMessage()
	if err != nil {
		return nil, err
	}
	var msg rpc.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func TestConnPairsOutOfOrderResponses(t *testing.T) {
	conn, peer := newPipePair(t)
	ctx := testContext(t)

	// the backend reads both requests before answering, in reverse order,
	// echoing each method back as the result
	go func() {
		var reqs []*rpc.Message
		for i := 0; i < 2; i++ {
			req, err := readRequest(peer)
			if err != nil {
				return
			}
			reqs = append(reqs, req)
		}
		for i := len(reqs) - 1; i >= 0; i-- {
			reply := fmt.Sprintf(`{"jsonrpc":"2.0","id":%s,"result":%q}`, reqs[i].ID, reqs[i].Method)
			if err := peer.WriteMessage([]byte(reply)); err != nil {
				return
			}
		}
	}()

	methods := []string{"eth_chainId", "net_version"}
	results := make([]string, len(methods))
	errs := make([]error, len(methods))
	var wg sync.WaitGroup
	for i := range methods {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := conn.SendRequest(ctx, &rpc.Request{Method: methods[i]})
			if err != nil {
				errs[i] = err
				return
			}
			errs[i] = resp.Unpack(&results[i])
		}(i)
	}
	wg.Wait()

	for i, method := range methods {
		if errs[i] != nil {
			t.Fatalf("%s: %v", method, errs[i])
		}
		if results[i] != method {
			t.Errorf("%s received %q, responses were crossed", method, results[i])
		}
	}
}

func TestConnKeepsCallerRequestUntouched(t *testing.T) {
	conn, peer := newPipePair(t)
	ctx := testContext(t)

	go func() {
		req, err := readRequest(peer)
		if err != nil {
			return
		}
		peer.WriteMessage([]byte(fmt.Sprintf(`{"jsonrpc":"2.0","id":%s,"result":true}`, req.ID)))
	}()

	req := &rpc.Request{Method: "eth_uninstallFilter", Params: []any{"0x1"}}
	if _, err := conn.SendRequest(ctx, req); err != nil {
		t.Fatal(err)
	}
	if req.ID != nil || req.JSONRPC != "" {
		t.Errorf("SendRequest mutated the caller's request: %+v", req)
	}
}

func TestConnPassesBackendErrorsThrough(t *testing.T) {
	conn, peer := newPipePair(t)
	ctx := testContext(t)

	go func() {
		req, err := readRequest(peer)
		if err != nil {
			return
		}
		reply := fmt.Sprintf(`{"jsonrpc":"2.0","id":%s,"error":{"code":-32601,"message":"unknown method"}}`, req.ID)
		peer.WriteMessage([]byte(reply))
	}()

	resp, err := conn.SendRequest(ctx, &rpc.Request{Method: "wallet_doesNotExist"})
	if err != nil {
		t.Fatalf("a backend error is not a transport error, got %v", err)
	}
	if resp.Error == nil || resp.Error.Code != rpc.CodeMethodNotFound {
		t.Errorf("response error = %+v, want code %d", resp.Error, rpc.CodeMethodNotFound)
	}
}

func TestConnDeliversNotificationsInOrder(t *testing.T) {
	conn, peer := newPipePair(t)

	var mu sync.Mutex
	var seen []string
	conn.OnNotification(func(n *rpc.Notification) {
		mu.Lock()
		seen = append(seen, n.Method)
		mu.Unlock()
	})

	notifs := []string{"wallet_chainChanged", "wallet_accountsChanged", "wallet_unlockStateChanged"}
	go func() {
		for _, method := range notifs {
			msg := fmt.Sprintf(`{"jsonrpc":"2.0","method":%q,"params":{}}`, method)
			if err := peer.WriteMessage([]byte(msg)); err != nil {
				return
			}
		}
	}()

	waitFor(t, "notifications", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == len(notifs)
	})
	mu.Lock()
	defer mu.Unlock()
	for i, method := range notifs {
		if seen[i] != method {
			t.Errorf("notification %d = %s, want %s (order must be preserved)", i, seen[i], method)
		}
	}
}

func TestConnFailsPendingCallsOnPeerClose(t *testing.T) {
	clientEnd, serverEnd := net.Pipe()
	conn := transport.NewStreamConn(clientEnd, transport.WithLabel("pipe"))
	t.Cleanup(func() { conn.Close() })
	peer := transport.NDJSON(serverEnd)
	ctx := testContext(t)

	var failures int32
	var failedLabel atomic.Value
	conn.OnTransportFailure(func(label string, err error) {
		atomic.AddInt32(&failures, 1)
		failedLabel.Store(label)
	})

	go func() {
		if _, err := readRequest(peer); err != nil {
			return
		}
		peer.Close()
	}()

	_, err := conn.SendRequest(ctx, &rpc.Request{Method: "eth_accounts"})
	if !rpc.HasCode(err, rpc.CodeDisconnected) {
		t.Fatalf("in-flight call failed with %v, want disconnected code %d", err, rpc.CodeDisconnected)
	}

	waitFor(t, "failure handler", func() bool { return atomic.LoadInt32(&failures) == 1 })
	if got := failedLabel.Load(); got != "pipe" {
		t.Errorf("failure label = %v, want pipe", got)
	}

	// later calls fail fast, and the handler never fires twice
	if _, err := conn.SendRequest(ctx, &rpc.Request{Method: "eth_accounts"}); !rpc.HasCode(err, rpc.CodeDisconnected) {
		t.Errorf("post-close call failed with %v, want disconnected", err)
	}
	conn.Close()
	if n := atomic.LoadInt32(&failures); n != 1 {
		t.Errorf("failure handler fired %d times, want exactly once", n)
	}
}

func TestConnContextCancellation(t *testing.T) {
	conn, peer := newPipePair(t)

	go func() {
		// swallow the request and never answer
		readRequest(peer)
	}()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := conn.SendRequest(ctx, &rpc.Request{Method: "eth_accounts"})
		done <- err
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("cancelled call returned %v, want context.Canceled", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("cancelled call never returned")
	}
}

func TestConnRejectsUnusableRequests(t *testing.T) {
	conn, _ := newPipePair(t)
	ctx := testContext(t)

	if _, err := conn.SendRequest(ctx, nil); !rpc.HasCode(err, rpc.CodeInvalidRequest) {
		t.Errorf("nil request returned %v, want invalid request", err)
	}
	if _, err := conn.SendRequest(ctx, &rpc.Request{}); !rpc.HasCode(err, rpc.CodeInvalidRequest) {
		t.Errorf("empty method returned %v, want invalid request", err)
	}
	if _, err := conn.SendBatch(ctx, nil); !rpc.HasCode(err, rpc.CodeInvalidRequest) {
		t.Errorf("empty batch returned %v, want invalid request", err)
	}
}

func TestConnBatchAlignsResponses(t *testing.T) {
	conn, peer := newPipePair(t)
	ctx := testContext(t)

	go func() {
		data, err := peer.ReadMessage()
		if err != nil {
			return
		}
		var reqs []*rpc.Message
		if err := json.Unmarshal(data, &reqs); err != nil {
			return
		}
		// answer only the second member, then the first, skipping nothing
		reply := fmt.Sprintf(`[{"jsonrpc":"2.0","id":%s,"result":"second"},{"jsonrpc":"2.0","id":%s,"result":"first"}]`,
			reqs[1].ID, reqs[0].ID)
		peer.WriteMessage([]byte(reply))
	}()

	resps, err := conn.SendBatch(ctx, []*rpc.Request{
		{Method: "eth_chainId"},
		{Method: "net_version"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(resps) != 2 {
		t.Fatalf("batch returned %d responses, want 2", len(resps))
	}
	var first, second string
	if err := resps[0].Unpack(&first); err != nil || first != "first" {
		t.Errorf("member 0 = %q (%v), want first", first, err)
	}
	if err := resps[1].Unpack(&second); err != nil || second != "second" {
		t.Errorf("member 1 = %q (%v), want second", second, err)
	}
}

func TestConnBatchSynthesizesMissingMembers(t *testing.T) {
	conn, peer := newPipePair(t)
	ctx := testContext(t)

	go func() {
		data, err := peer.ReadMessage()
		if err != nil {
			return
		}
		var reqs []*rpc.Message
		if err := json.Unmarshal(data, &reqs); err != nil {
			return
		}
		reply := fmt.Sprintf(`[{"jsonrpc":"2.0","id":%s,"result":"only"}]`, reqs[0].ID)
		peer.WriteMessage([]byte(reply))
	}()

	resps, err := conn.SendBatch(ctx, []*rpc.Request{
		{Method: "eth_chainId"},
		{Method: "net_version"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if resps[0].Error != nil {
		t.Errorf("answered member carries error %+v", resps[0].Error)
	}
	if resps[1].Error == nil || resps[1].Error.Code != rpc.CodeInternal {
		t.Errorf("unanswered member = %+v, want synthesized internal error", resps[1])
	}
}
