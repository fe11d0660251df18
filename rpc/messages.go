package rpc

import (
	"encoding/json"
)

// Version is the JSON-RPC protocol version stamped on outgoing requests.
const Version = "2.0"

// Request is a single call submitted to the wallet backend. ID is assigned
// by the transport when left empty; callers that set their own ID keep it.
type Request struct {
	JSONRPC string `json:"jsonrpc,omitempty"`
	ID      any    `json:"id,omitempty"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// Response is the backend's answer to one Request, paired by ID. Exactly one
// of Result and Error is meaningful.
type Response struct {
	JSONRPC string          `json:"jsonrpc,omitempty"`
	ID      any             `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Unpack decodes the response result into out. It is a no-op when the
// response carries no result.
func (r *Response) Unpack(out any) error {
	if len(r.Result) == 0 {
		return nil
	}
	return json.Unmarshal(r.Result, out)
}

// Notification is an unsolicited message pushed by the backend. Backends
// disagree on whether the payload travels in params or result, so both are
// kept and Payload picks one.
type Notification struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
}

// Payload returns the notification body, preferring result over params when
// both are present.
func (n *Notification) Payload() json.RawMessage {
	if len(n.Result) > 0 {
		return n.Result
	}
	return n.Params
}

// Message is the undiscriminated wire envelope. The read loop decodes every
// incoming frame into one of these and then decides what it was looking at.
type Message struct {
	JSONRPC string          `json:"jsonrpc,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// IsNotification reports whether the message is a backend push: it names a
// method but carries no correlation ID.
func (m *Message) IsNotification() bool {
	return m.Method != "" && len(m.ID) == 0
}

// IsResponse reports whether the message answers an earlier request.
func (m *Message) IsResponse() bool {
	return len(m.ID) > 0 && m.Method == ""
}

// Notification reinterprets the envelope as a Notification.
func (m *Message) Notification() *Notification {
	return &Notification{Method: m.Method, Params: m.Params, Result: m.Result}
}

// Response reinterprets the envelope as a Response. The ID is decoded from
// its raw form so string and numeric IDs compare naturally.
func (m *Message) Response() *Response {
	var id any
	if len(m.ID) > 0 {
		if err := json.Unmarshal(m.ID, &id); err != nil {
			id = string(m.ID)
		}
	}
	return &Response{JSONRPC: m.JSONRPC, ID: id, Result: m.Result, Error: m.Error}
}

// ProviderState is the result shape of wallet_getProviderState. Fields stay
// loosely typed on purpose: each one is validated independently, and a bad
// field must not take the well-formed ones down with it.
type ProviderState struct {
	ChainID        any `json:"chainId"`
	NetworkVersion any `json:"networkVersion"`
	IsUnlocked     any `json:"isUnlocked"`
	Accounts       any `json:"accounts"`
}
