package inpage

import (
	"encoding/json"

	"github.com/ava-labs/inpage-provider/events"
	"github.com/ava-labs/inpage-provider/rpc"
)

// routeNotification maps a backend push onto a state transition, forwards
// the allow-listed remainder to the application as message events and
// silently drops everything else, so unknown future backend signals are
// harmless.
func (p *Provider) routeNotification(n *rpc.Notification) {
	if n == nil || n.Method == "" {
		return
	}
	switch n.Method {
	case rpc.MethodAccountsChanged:
		p.state.ApplyAccounts(decodedPayload(n), false, false)
	case rpc.MethodUnlockStateChanged:
		p.state.ApplyUnlockState(decodedPayload(n))
	case rpc.MethodChainChanged:
		var params struct {
			ChainID        any `json:"chainId"`
			NetworkVersion any `json:"networkVersion"`
		}
		// a decode failure leaves both fields nil and the store rejects
		// the pair with its own diagnostic
		if raw := n.Payload(); len(raw) > 0 {
			json.Unmarshal(raw, &params)
		}
		p.state.ApplyChainInfo(params.ChainID, params.NetworkVersion)
	default:
		if !rpc.IsForwardableNotification(n.Method) {
			p.logger.Trace("dropping unknown backend notification", "method", n.Method)
			return
		}
		p.hub.EmitMessage(events.MessagePayload{Type: n.Method, Data: n.Params}, n)
	}
}

// decodedPayload unwraps a notification body into plain decoded JSON. A
// missing or undecodable body comes back nil, which the state store treats
// as malformed input.
func decodedPayload(n *rpc.Notification) any {
	raw := n.Payload()
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}
