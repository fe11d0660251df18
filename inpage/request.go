package inpage

import (
	"context"
	"encoding/json"

	"github.com/ava-labs/inpage-provider/rpc"
)

// RequestArgs is the argument shape of Request.
type RequestArgs struct {
	Method string `json:"method"`
	Params any    `json:"params,omitempty"`
}

// Request submits a single JSON-RPC call and blocks for its result. args
// may be a RequestArgs, a *RequestArgs, a map with a "method" key, or raw
// JSON encoding a single request object. Anything else, including arrays,
// fails with an invalid-request error before the transport is touched.
//
// A backend error response comes back as a *rpc.Error.
func (p *Provider) Request(ctx context.Context, args any) (json.RawMessage, error) {
	req, rerr := normalizeRequestArgs(args)
	if rerr != nil {
		return nil, rerr
	}
	resp, err := p.rpcRequest(ctx, req, false)
	if err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	return resp.Result, nil
}

// Call is Request plus result decoding: the response is unmarshalled into
// result unless result is nil.
func (p *Provider) Call(ctx context.Context, result any, method string, params any) error {
	raw, err := p.Request(ctx, RequestArgs{Method: method, Params: params})
	if err != nil {
		return err
	}
	if result == nil || len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, result)
}

// SendBatch submits several requests as one JSON-RPC batch. Batches bypass
// the account-state intercept: account methods inside a batch do not update
// provider state.
func (p *Provider) SendBatch(ctx context.Context, reqs []*rpc.Request) ([]*rpc.Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	return p.tr.SendBatch(ctx, reqs)
}

// rpcRequest forwards one call to the transport. Results of the account
// methods are routed through the state store before the caller sees them,
// so provider state is always current by the time the call returns.
// Backend errors stay embedded in the returned response.
func (p *Provider) rpcRequest(ctx context.Context, req *rpc.Request, internal bool) (*rpc.Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	resp, err := p.tr.SendRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	if req.Method == rpc.MethodEthAccounts || req.Method == rpc.MethodEthRequestAccounts {
		p.state.ApplyAccounts(accountsResult(resp), req.Method == rpc.MethodEthAccounts, internal)
	}
	return resp, nil
}

// refreshAccounts resynchronizes accounts after an unlock. Fire and
// forget: it must not block the notification path and swallows errors.
func (p *Provider) refreshAccounts() {
	go func() {
		req := &rpc.Request{Method: rpc.MethodEthAccounts}
		if _, err := p.rpcRequest(context.Background(), req, true); err != nil {
			p.logger.Debug("account resynchronization after unlock failed", "err", err)
		}
	}()
}

// accountsResult extracts the account list from a response for the state
// intercept. Errors and absent results count as an empty list, not as
// malformed data.
func accountsResult(resp *rpc.Response) any {
	if resp == nil || resp.Error != nil || len(resp.Result) == 0 {
		return []string{}
	}
	var v any
	if err := json.Unmarshal(resp.Result, &v); err != nil || v == nil {
		return []string{}
	}
	return v
}

// normalizeRequestArgs narrows the accepted Request argument shapes down
// to a single *rpc.Request with a validated method.
func normalizeRequestArgs(args any) (*rpc.Request, *rpc.Error) {
	switch v := args.(type) {
	case RequestArgs:
		return validatedRequest(v.Method, v.Params, args)
	case *RequestArgs:
		if v == nil {
			return nil, rpc.ErrInvalidRequestArgs(args)
		}
		return validatedRequest(v.Method, v.Params, args)
	case map[string]any:
		method, _ := v["method"].(string)
		return validatedRequest(method, v["params"], args)
	case json.RawMessage:
		return decodedRequest([]byte(v))
	case []byte:
		return decodedRequest(v)
	case string:
		// a bare method name is not a request object
		return nil, rpc.ErrInvalidRequestArgs(args)
	default:
		return nil, rpc.ErrInvalidRequestArgs(args)
	}
}

func decodedRequest(raw []byte) (*rpc.Request, *rpc.Error) {
	var parsed struct {
		Method string `json:"method"`
		Params any    `json:"params"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		// arrays land here too: a batch is not a single request
		return nil, rpc.ErrInvalidRequestArgs(string(raw))
	}
	return validatedRequest(parsed.Method, parsed.Params, string(raw))
}

func validatedRequest(method string, params any, original any) (*rpc.Request, *rpc.Error) {
	if method == "" {
		return nil, rpc.ErrInvalidRequestMethod(original)
	}
	return &rpc.Request{JSONRPC: rpc.Version, Method: method, Params: params}, nil
}
