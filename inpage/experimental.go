package inpage

import (
	"context"

	"github.com/ava-labs/inpage-provider/rpc"
)

// ExperimentalAPI bundles methods with no stability guarantee. Using any of
// them logs a warning once per provider.
type ExperimentalAPI struct {
	p *Provider
}

// Experimental exposes the unstable API surface.
func (p *Provider) Experimental() *ExperimentalAPI {
	return &ExperimentalAPI{p: p}
}

func (x *ExperimentalAPI) warn() {
	x.p.warnOnce(&x.p.sentWarnings.experimental,
		"the experimental API is unstable and may change or be removed without warning")
}

// IsUnlocked reports whether the wallet is unlocked. It waits for the
// startup bootstrap to settle first, so the answer reflects a synced state
// rather than the pre-sync default.
func (x *ExperimentalAPI) IsUnlocked(ctx context.Context) (bool, error) {
	x.warn()
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-x.p.ready:
	case <-ctx.Done():
		return false, ctx.Err()
	}
	return x.p.state.IsUnlocked(), nil
}

// RequestBatch submits several requests as one batch.
func (x *ExperimentalAPI) RequestBatch(ctx context.Context, reqs []*rpc.Request) ([]*rpc.Response, error) {
	x.warn()
	if len(reqs) == 0 {
		return nil, rpc.ErrInvalidRequestArgs(reqs)
	}
	return x.p.SendBatch(ctx, reqs)
}
