package inpage

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/ava-labs/inpage-provider/rpc"
)

var errSessionEnded = errors.New("session ended by the embedding environment")

// Bootstrap fetches the wallet's full state once and seeds the provider
// with it, then marks the backend connected. A failed fetch is logged and
// absorbed: the provider stays at defaults and waits for pushed state, and
// explicit requests keep working. Only the first call does anything.
func (p *Provider) Bootstrap() {
	p.bootstrapOnce.Do(p.bootstrap)
}

func (p *Provider) bootstrap() {
	defer close(p.ready)

	req := &rpc.Request{Method: rpc.MethodGetProviderState}
	resp, err := p.rpcRequest(context.Background(), req, false)
	if err == nil && resp.Error != nil {
		err = resp.Error
	}
	if err != nil {
		p.logger.Error("failed to fetch initial wallet state", "err", err)
		return
	}

	var st rpc.ProviderState
	if err := json.Unmarshal(resp.Result, &st); err != nil {
		p.logger.Error("malformed initial wallet state", "err", err)
		return
	}

	p.state.ApplyChainInfo(st.ChainID, st.NetworkVersion)
	p.state.ApplyAccounts(st.Accounts, false, false)
	p.state.ApplyUnlockState(st.IsUnlocked)
	p.state.MarkConnected(p.state.ChainID())
}

// handleTransportFailure reacts to the loss of a backend channel: log
// which channel died and lower connectivity. The store collapses repeated
// reports into a single disconnect event.
func (p *Provider) handleTransportFailure(label string, err error) {
	p.logger.Warn("lost connection to the wallet backend", "channel", label, "err", err)
	p.state.MarkDisconnected()
}

// endSession is the Interop teardown hook.
func (p *Provider) endSession() {
	p.handleTransportFailure("environment", errSessionEnded)
}
