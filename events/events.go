// Package events defines the provider's event catalog and the hub that
// fans events out to subscribers.
package events

import (
	"encoding/json"
)

// Name identifies one entry of the provider event catalog. Subscriptions are
// validated against the catalog so a typo fails loudly instead of producing a
// channel that never fires.
type Name string

const (
	// Connect fires when the provider becomes able to serve requests.
	// Payload: ConnectInfo.
	Connect Name = "connect"

	// Disconnect fires when the session to the wallet backend is lost.
	// Payload: *rpc.Error with code 1011.
	Disconnect Name = "disconnect"

	// Close is the historical alias of Disconnect and fires together with
	// it, same payload.
	//
	// Deprecated: subscribe to Disconnect instead.
	Close Name = "close"

	// ChainChanged fires when the active chain changes. Payload: the new
	// chain ID as a 0x-prefixed hex string.
	ChainChanged Name = "chainChanged"

	// ChainIDChanged is the historical alias of ChainChanged and fires
	// together with it, same payload.
	//
	// Deprecated: subscribe to ChainChanged instead.
	ChainIDChanged Name = "chainIdChanged"

	// NetworkChanged fires when the legacy decimal network ID changes.
	// Payload: the new network version string.
	//
	// Deprecated: subscribe to ChainChanged instead.
	NetworkChanged Name = "networkChanged"

	// AccountsChanged fires when the exposed account list changes.
	// Payload: []string, possibly empty.
	AccountsChanged Name = "accountsChanged"

	// Message fires for backend notifications addressed to the application,
	// such as subscription updates. Payload: MessagePayload.
	Message Name = "message"

	// Notification fires alongside Message with the raw backend payload.
	//
	// Deprecated: subscribe to Message instead.
	Notification Name = "notification"
)

// Event is the value delivered on every subscription channel. Data holds the
// payload documented on the Name constants.
type Event struct {
	Name Name
	Data any
}

// ConnectInfo is the Connect payload.
type ConnectInfo struct {
	ChainID string `json:"chainId"`
}

// MessagePayload is the Message payload. Type names the backend notification
// the message originated from.
type MessagePayload struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

var catalog = map[Name]bool{
	Connect:         true,
	Disconnect:      true,
	Close:           true,
	ChainChanged:    true,
	ChainIDChanged:  true,
	NetworkChanged:  true,
	AccountsChanged: true,
	Message:         true,
	Notification:    true,
}

// deprecations maps superseded events to the warning logged the first time
// somebody subscribes to one.
var deprecations = map[Name]string{
	Close:          "the close event is deprecated and may be removed in the future, subscribe to disconnect instead",
	ChainIDChanged: "the chainIdChanged event is deprecated, subscribe to chainChanged instead",
	NetworkChanged: "the networkChanged event is deprecated, subscribe to chainChanged instead",
	Notification:   "the notification event is deprecated, subscribe to message instead",
}

// Known reports whether name is part of the event catalog.
func Known(name Name) bool { return catalog[name] }
