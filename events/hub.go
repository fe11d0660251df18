package events

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/log"

	"github.com/ava-labs/inpage-provider/rpc"
)

// Hub fans provider events out to subscribers. One feed exists per catalog
// entry, so subscribers only ever see the event they asked for.
//
// Delivery is synchronous: an emit blocks until every subscriber of that
// event has received it. Subscribers that cannot keep up must use buffered
// channels or drain in a dedicated goroutine.
type Hub struct {
	logger log.Logger

	mu     sync.Mutex
	feeds  map[Name]*event.Feed
	warned map[Name]bool
}

// NewHub returns an empty hub. logger may be nil, in which case the root
// logger is used.
func NewHub(logger log.Logger) *Hub {
	if logger == nil {
		logger = log.Root()
	}
	return &Hub{
		logger: logger,
		feeds:  map[Name]*event.Feed{},
		warned: map[Name]bool{},
	}
}

// Subscribe registers ch to receive the named event until the returned
// subscription is unsubscribed. Unknown names are rejected. Subscribing to a
// deprecated event logs a warning the first time that event is requested;
// the subscription itself works normally.
func (h *Hub) Subscribe(name Name, ch chan<- Event) (event.Subscription, error) {
	if !Known(name) {
		return nil, fmt.Errorf("unknown provider event %q", name)
	}
	h.warnIfDeprecated(name)
	return h.feed(name).Subscribe(ch), nil
}

func (h *Hub) feed(name Name) *event.Feed {
	h.mu.Lock()
	defer h.mu.Unlock()
	f, ok := h.feeds[name]
	if !ok {
		f = new(event.Feed)
		h.feeds[name] = f
	}
	return f
}

func (h *Hub) warnIfDeprecated(name Name) {
	note, deprecated := deprecations[name]
	if !deprecated {
		return
	}
	h.mu.Lock()
	seen := h.warned[name]
	h.warned[name] = true
	h.mu.Unlock()
	if !seen {
		h.logger.Warn(note)
	}
}

func (h *Hub) emit(name Name, data any) {
	h.feed(name).Send(Event{Name: name, Data: data})
}

// EmitConnect announces that the provider can serve requests.
func (h *Hub) EmitConnect(info ConnectInfo) {
	h.emit(Connect, info)
}

// EmitDisconnect announces the loss of the backend session. The historical
// close alias fires right after with the same payload.
func (h *Hub) EmitDisconnect(reason *rpc.Error) {
	h.emit(Disconnect, reason)
	h.emit(Close, reason)
}

// EmitChainChanged announces a new chain ID. The historical chainIdChanged
// alias fires right after with the same payload.
func (h *Hub) EmitChainChanged(chainID string) {
	h.emit(ChainChanged, chainID)
	h.emit(ChainIDChanged, chainID)
}

// EmitNetworkChanged announces a new legacy network version.
func (h *Hub) EmitNetworkChanged(networkVersion string) {
	h.emit(NetworkChanged, networkVersion)
}

// EmitAccountsChanged announces a new account list. The slice is owned by
// the hub's subscribers after the call.
func (h *Hub) EmitAccountsChanged(accounts []string) {
	h.emit(AccountsChanged, accounts)
}

// EmitMessage relays a backend notification to the application. The
// deprecated notification event fires right after with the raw payload.
func (h *Hub) EmitMessage(payload MessagePayload, raw *rpc.Notification) {
	h.emit(Message, payload)
	h.emit(Notification, raw)
}
