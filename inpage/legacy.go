package inpage

import (
	"context"
	"encoding/json"

	"github.com/ava-labs/inpage-provider/rpc"
)

// SendAsync submits one request and delivers the outcome to cb from a
// separate goroutine. It is the callback twin of Request, with two
// differences kept for compatibility: the response is not unwrapped, so a
// backend error arrives inside the response, and account-method results
// still pass through the state intercept first.
func (p *Provider) SendAsync(req *rpc.Request, cb func(*rpc.Response, error)) {
	go func() {
		if req == nil || req.Method == "" {
			cb(nil, rpc.ErrInvalidRequestMethod(req))
			return
		}
		cb(p.rpcRequest(context.Background(), req, false))
	}()
}

// Send is the historical grab-bag dispatcher, kept behaviorally intact.
// Accepted shapes:
//
//	Send("eth_chainId", []any{...})     blocking call, full response back
//	Send(payload, callback)             same as SendAsync(payload, callback)
//	Send(payload, nil)                  synchronous emulation, see below
//
// payload may be a *rpc.Request or a map with a "method" key. Synchronous
// emulation answers eth_accounts, eth_coinbase and net_version from local
// state, forwards eth_uninstallFilter fire-and-forget while answering true
// immediately, and fails every other method with an unsupported-method
// error without touching the transport.
//
// Deprecated: use Request, SendAsync or SendBatch.
func (p *Provider) Send(methodOrPayload any, paramsOrCallback any) (*rpc.Response, error) {
	p.warnOnce(&p.sentWarnings.send, "Send is deprecated and may be removed in the future, use Request instead")

	if method, ok := methodOrPayload.(string); ok {
		if params, ok := sendParams(paramsOrCallback); ok {
			return p.rpcRequest(context.Background(), &rpc.Request{Method: method, Params: params}, false)
		}
	}

	payload, hasPayload := sendPayload(methodOrPayload)
	if hasPayload {
		if cb, ok := paramsOrCallback.(func(*rpc.Response, error)); ok && cb != nil {
			p.SendAsync(payload, cb)
			return nil, nil
		}
	} else {
		// unusable first argument: fall through to the synchronous path,
		// which fails with the legacy unsupported-method error
		payload = &rpc.Request{}
	}
	return p.sendSync(payload)
}

// Enable requests account access and returns the granted accounts.
//
// Deprecated: issue an eth_requestAccounts request instead.
func (p *Provider) Enable(ctx context.Context) ([]string, error) {
	p.warnOnce(&p.sentWarnings.enable, "Enable is deprecated and may be removed in the future, request eth_requestAccounts instead")

	raw, err := p.Request(ctx, RequestArgs{Method: rpc.MethodEthRequestAccounts})
	if err != nil {
		return nil, err
	}
	var accounts []string
	if err := json.Unmarshal(raw, &accounts); err != nil {
		return nil, rpc.ErrInvalidRequestArgs(string(raw))
	}
	return accounts, nil
}

// sendSync answers the four methods the ancient synchronous surface
// supported, from local state only. The response echoes the payload's id
// and protocol version the way the original surface did.
func (p *Provider) sendSync(payload *rpc.Request) (*rpc.Response, error) {
	resp := &rpc.Response{JSONRPC: payload.JSONRPC, ID: payload.ID}
	switch payload.Method {
	case rpc.MethodEthAccounts:
		accounts := []string{}
		if selected := p.state.SelectedAddress(); selected != "" {
			accounts = append(accounts, selected)
		}
		resp.Result = mustJSON(accounts)
	case rpc.MethodEthCoinbase:
		if selected := p.state.SelectedAddress(); selected != "" {
			resp.Result = mustJSON(selected)
		} else {
			resp.Result = mustJSON(nil)
		}
	case rpc.MethodEthUninstallFilter:
		req := &rpc.Request{Method: payload.Method, Params: payload.Params}
		go func() {
			if _, err := p.rpcRequest(context.Background(), req, false); err != nil {
				p.logger.Debug("fire-and-forget eth_uninstallFilter failed", "err", err)
			}
		}()
		resp.Result = mustJSON(true)
	case rpc.MethodNetVersion:
		if version := p.state.NetworkVersion(); version != "" {
			resp.Result = mustJSON(version)
		} else {
			resp.Result = mustJSON(nil)
		}
	default:
		return nil, rpc.ErrUnsupportedSyncMethod(payload.Method)
	}
	return resp, nil
}

// sendParams reports whether v is a usable positional-params value for the
// string form of Send.
func sendParams(v any) (any, bool) {
	switch params := v.(type) {
	case nil:
		return nil, true
	case []any:
		return params, true
	case []string:
		return params, true
	default:
		return nil, false
	}
}

// sendPayload narrows the payload forms Send accepts.
func sendPayload(v any) (*rpc.Request, bool) {
	switch payload := v.(type) {
	case *rpc.Request:
		if payload == nil {
			return nil, false
		}
		return payload, true
	case rpc.Request:
		return &payload, true
	case map[string]any:
		method, _ := payload["method"].(string)
		version, _ := payload["jsonrpc"].(string)
		return &rpc.Request{
			JSONRPC: version,
			ID:      payload["id"],
			Method:  method,
			Params:  payload["params"],
		}, true
	default:
		return nil, false
	}
}

// mustJSON marshals values this package fully controls.
func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
