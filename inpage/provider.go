// Package inpage implements the wallet provider object handed to
// applications. It keeps a local copy of the wallet's chain, network,
// account and unlock state, kept current through backend notifications, and
// forwards JSON-RPC requests over a pluggable transport.
package inpage

import (
	"sync"

	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/log"

	"github.com/ava-labs/inpage-provider/events"
	"github.com/ava-labs/inpage-provider/state"
	"github.com/ava-labs/inpage-provider/transport"
)

// Interop hooks the provider into its embedding environment. Both methods
// are optional extension points for hosts that mimic the historical inpage
// setup: announcing the provider object globally and tearing the session
// down when the host goes away.
type Interop interface {
	// AnnounceProvider publishes p to the embedding environment.
	AnnounceProvider(p *Provider)
	// OnSessionEnd registers fn to run when the environment ends the
	// session, for example on page teardown.
	OnSessionEnd(fn func())
}

type options struct {
	logger    log.Logger
	bootstrap bool
	interop   Interop
}

// Option configures a Provider.
type Option func(*options)

// WithLogger routes the provider's logs through logger.
func WithLogger(logger log.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithoutBootstrap suppresses the automatic state fetch at construction.
// The embedder must call Bootstrap itself, otherwise the provider stays at
// defaults until the backend pushes state.
func WithoutBootstrap() Option {
	return func(o *options) { o.bootstrap = false }
}

// WithInterop wires the provider into an embedding environment.
func WithInterop(interop Interop) Option {
	return func(o *options) { o.interop = interop }
}

type sentWarnings struct {
	enable       bool
	send         bool
	experimental bool
}

// Provider is the application-facing wallet object. All methods are safe
// for concurrent use.
type Provider struct {
	logger log.Logger
	tr     transport.Transport
	hub    *events.Hub
	state  *state.Store

	bootstrapOnce sync.Once
	ready         chan struct{}

	warnMu       sync.Mutex
	sentWarnings sentWarnings
}

// New builds a provider on top of tr and, unless disabled, starts the
// initial state fetch in the background. The provider is usable
// immediately; Ready signals when the fetch has settled.
func New(tr transport.Transport, opts ...Option) *Provider {
	o := options{logger: log.Root(), bootstrap: true}
	for _, opt := range opts {
		opt(&o)
	}

	p := &Provider{
		logger: o.logger,
		tr:     tr,
		ready:  make(chan struct{}),
	}
	p.hub = events.NewHub(o.logger)
	p.state = state.NewStore(p.hub, o.logger)
	p.state.SetAccountsRefresh(p.refreshAccounts)

	tr.OnNotification(p.routeNotification)
	tr.OnTransportFailure(p.handleTransportFailure)

	if o.interop != nil {
		o.interop.AnnounceProvider(p)
		o.interop.OnSessionEnd(p.endSession)
	}

	if o.bootstrap {
		go p.Bootstrap()
	}
	return p
}

// Ready is closed once the initial state fetch has settled, successfully
// or not.
func (p *Provider) Ready() <-chan struct{} { return p.ready }

// Subscribe registers ch for the named provider event. Emission blocks
// until every subscriber has received the event, so slow consumers should
// pass buffered channels.
func (p *Provider) Subscribe(name events.Name, ch chan<- events.Event) (event.Subscription, error) {
	return p.hub.Subscribe(name, ch)
}

// ChainID returns the active chain ID, or "" before the first sync.
func (p *Provider) ChainID() string { return p.state.ChainID() }

// NetworkVersion returns the legacy network version, or "" before the
// first sync.
func (p *Provider) NetworkVersion() string { return p.state.NetworkVersion() }

// SelectedAddress returns the primary account, or "" when none is exposed.
func (p *Provider) SelectedAddress() string { return p.state.SelectedAddress() }

// Accounts returns the exposed accounts: nil before the first sync, a
// possibly empty copy afterwards.
func (p *Provider) Accounts() []string { return p.state.Accounts() }

// IsConnected reports whether the wallet backend was reachable at the last
// check.
func (p *Provider) IsConnected() bool { return p.state.IsConnected() }

func (p *Provider) warnOnce(flag *bool, msg string) {
	p.warnMu.Lock()
	defer p.warnMu.Unlock()
	if *flag {
		return
	}
	*flag = true
	p.logger.Warn(msg)
}
