// Package simwallet provides a scripted wallet backend for tests and
// demos. It speaks the provider wire protocol over any framing the
// transport package knows: requests are answered from in-memory state, and
// mutating that state pushes the matching wallet_* notification to every
// connected provider.
package simwallet

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"sync"

	"github.com/ethereum/go-ethereum/log"
	"github.com/gorilla/websocket"

	"github.com/ava-labs/inpage-provider/rpc"
	"github.com/ava-labs/inpage-provider/transport"
)

// Option configures a Wallet.
type Option func(*Wallet)

// WithChain sets the initial chain ID and network version.
func WithChain(chainID, networkVersion string) Option {
	return func(w *Wallet) {
		w.chainID = chainID
		w.networkVersion = networkVersion
	}
}

// WithAccounts sets the wallet's account list, primary first.
func WithAccounts(accounts ...string) Option {
	return func(w *Wallet) { w.accounts = slices.Clone(accounts) }
}

// WithLocked starts the wallet locked. A locked wallet exposes no
// accounts until unlocked.
func WithLocked() Option {
	return func(w *Wallet) { w.unlocked = false }
}

// WithLogger routes the wallet's logs through logger.
func WithLogger(logger log.Logger) Option {
	return func(w *Wallet) { w.logger = logger }
}

// Wallet is an in-memory wallet backend. All methods are safe for
// concurrent use; notifications go out to every connection alive at the
// time of the mutation.
type Wallet struct {
	logger log.Logger

	mu             sync.Mutex
	chainID        string
	networkVersion string
	unlocked       bool
	accounts       []string
	clients        map[*client]struct{}
}

type client struct {
	mc      transport.MessageConn
	writeMu sync.Mutex
}

func (c *client) send(payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.mc.WriteMessage(payload)
}

// New returns a wallet on chain 0x1, unlocked, with no accounts.
func New(opts ...Option) *Wallet {
	w := &Wallet{
		logger:         log.Root(),
		chainID:        "0x1",
		networkVersion: "1",
		unlocked:       true,
		clients:        map[*client]struct{}{},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// ServeStream serves one provider over a raw byte stream with
// newline-delimited JSON framing. It blocks until the stream ends.
func (w *Wallet) ServeStream(rwc io.ReadWriteCloser) error {
	return w.ServeConn(transport.NDJSON(rwc))
}

// ServeConn serves one provider connection until it closes.
func (w *Wallet) ServeConn(mc transport.MessageConn) error {
	cl := &client{mc: mc}
	w.addClient(cl)
	defer w.removeClient(cl)

	for {
		data, err := mc.ReadMessage()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		reply, err := w.handleFrame(data)
		if err != nil {
			w.logger.Debug("dropping undecodable frame", "err", err)
			continue
		}
		if reply == nil {
			continue
		}
		if err := cl.send(reply); err != nil {
			return err
		}
	}
}

// WebsocketHandler serves one provider per websocket connection.
func (w *Wallet) WebsocketHandler() http.Handler {
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(rw, r, nil)
		if err != nil {
			w.logger.Debug("websocket upgrade failed", "err", err)
			return
		}
		if err := w.ServeConn(transport.Websocket(ws)); err != nil {
			w.logger.Debug("provider connection ended", "err", err)
		}
	})
}

// SetChain switches the active chain and pushes wallet_chainChanged.
func (w *Wallet) SetChain(chainID, networkVersion string) {
	w.mu.Lock()
	w.chainID = chainID
	w.networkVersion = networkVersion
	w.mu.Unlock()
	w.Notify(rpc.MethodChainChanged, map[string]string{
		"chainId":        chainID,
		"networkVersion": networkVersion,
	})
}

// SetAccounts replaces the account list, primary first, and pushes
// wallet_accountsChanged with the currently visible accounts.
func (w *Wallet) SetAccounts(accounts ...string) {
	w.mu.Lock()
	w.accounts = slices.Clone(accounts)
	visible := w.visibleAccountsLocked()
	w.mu.Unlock()
	w.Notify(rpc.MethodAccountsChanged, visible)
}

// SetUnlocked flips the unlock state and pushes
// wallet_unlockStateChanged. A no-op flip pushes nothing.
func (w *Wallet) SetUnlocked(unlocked bool) {
	w.mu.Lock()
	if w.unlocked == unlocked {
		w.mu.Unlock()
		return
	}
	w.unlocked = unlocked
	w.mu.Unlock()
	w.Notify(rpc.MethodUnlockStateChanged, unlocked)
}

// Notify pushes an arbitrary notification to every connected provider.
func (w *Wallet) Notify(method string, params any) {
	msg := struct {
		JSONRPC string `json:"jsonrpc"`
		Method  string `json:"method"`
		Params  any    `json:"params"`
	}{rpc.Version, method, params}
	payload, err := json.Marshal(msg)
	if err != nil {
		w.logger.Error("cannot marshal notification", "method", method, "err", err)
		return
	}

	w.mu.Lock()
	clients := make([]*client, 0, len(w.clients))
	for cl := range w.clients {
		clients = append(clients, cl)
	}
	w.mu.Unlock()

	for _, cl := range clients {
		if err := cl.send(payload); err != nil {
			w.logger.Debug("dropping notification to a dead connection", "err", err)
		}
	}
}

func (w *Wallet) addClient(cl *client) {
	w.mu.Lock()
	w.clients[cl] = struct{}{}
	w.mu.Unlock()
}

func (w *Wallet) removeClient(cl *client) {
	w.mu.Lock()
	delete(w.clients, cl)
	w.mu.Unlock()
}

func (w *Wallet) handleFrame(data []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var reqs []*rpc.Message
		if err := json.Unmarshal(trimmed, &reqs); err != nil {
			return nil, err
		}
		resps := make([]*rpc.Response, 0, len(reqs))
		for _, m := range reqs {
			if m == nil || m.Method == "" {
				continue
			}
			resps = append(resps, w.handle(m))
		}
		if len(resps) == 0 {
			return nil, nil
		}
		return json.Marshal(resps)
	}

	var m rpc.Message
	if err := json.Unmarshal(trimmed, &m); err != nil {
		return nil, err
	}
	if m.Method == "" || len(m.ID) == 0 {
		// stray responses and notifications are not ours to answer
		return nil, nil
	}
	return json.Marshal(w.handle(&m))
}

func (w *Wallet) handle(m *rpc.Message) *rpc.Response {
	resp := &rpc.Response{JSONRPC: rpc.Version, ID: json.RawMessage(m.ID)}

	w.mu.Lock()
	defer w.mu.Unlock()
	switch m.Method {
	case rpc.MethodGetProviderState:
		resp.Result = mustJSON(map[string]any{
			"chainId":        w.chainID,
			"networkVersion": w.networkVersion,
			"isUnlocked":     w.unlocked,
			"accounts":       w.visibleAccountsLocked(),
		})
	case rpc.MethodEthAccounts, rpc.MethodEthRequestAccounts:
		resp.Result = mustJSON(w.visibleAccountsLocked())
	case rpc.MethodEthCoinbase:
		visible := w.visibleAccountsLocked()
		if len(visible) > 0 {
			resp.Result = mustJSON(visible[0])
		} else {
			resp.Result = mustJSON(nil)
		}
	case rpc.MethodEthChainID:
		resp.Result = mustJSON(w.chainID)
	case rpc.MethodNetVersion:
		resp.Result = mustJSON(w.networkVersion)
	case rpc.MethodEthUninstallFilter:
		resp.Result = mustJSON(true)
	default:
		resp.Error = &rpc.Error{
			Code:    rpc.CodeMethodNotFound,
			Message: fmt.Sprintf("the method %s does not exist", m.Method),
		}
	}
	return resp
}

// visibleAccountsLocked returns the accounts a provider may see right
// now. Callers hold w.mu.
func (w *Wallet) visibleAccountsLocked() []string {
	if !w.unlocked {
		return []string{}
	}
	return slices.Clone(w.accounts)
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
