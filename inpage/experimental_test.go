package inpage_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ava-labs/inpage-provider/rpc"
)

func TestExperimentalIsUnlockedWaitsForBootstrap(t *testing.T) {
	ft := &fakeTransport{handler: walletScript("0x1", "1", true, "0xabc")}
	p, _ := newTestProvider(t, ft)

	// bootstrap has not run: the call must wait, not answer from defaults
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if _, err := p.Experimental().IsUnlocked(ctx); err == nil {
		t.Fatal("IsUnlocked should block until the bootstrap settles")
	}

	p.Bootstrap()
	unlocked, err := p.Experimental().IsUnlocked(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !unlocked {
		t.Error("IsUnlocked = false after an unlocked bootstrap")
	}
}

func TestExperimentalRequestBatch(t *testing.T) {
	ft := &fakeTransport{batchFn: func(reqs []*rpc.Request) []*rpc.Response {
		out := make([]*rpc.Response, len(reqs))
		for i, req := range reqs {
			out[i] = jsonResponse(req.Method)
		}
		return out
	}}
	p, buf := newTestProvider(t, ft)

	resps, err := p.Experimental().RequestBatch(context.Background(), []*rpc.Request{
		{Method: rpc.MethodEthChainID},
		{Method: rpc.MethodNetVersion},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(resps) != 2 || string(resps[0].Result) != `"eth_chainId"` {
		t.Errorf("batch results = %+v", resps)
	}

	if _, err := p.Experimental().RequestBatch(context.Background(), nil); !rpc.HasCode(err, rpc.CodeInvalidRequest) {
		t.Errorf("empty batch = %v, want invalid-request", err)
	}

	if n := strings.Count(buf.String(), "experimental API is unstable"); n != 1 {
		t.Errorf("experimental warning logged %d times, want once", n)
	}
}
