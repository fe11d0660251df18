// Package state holds the provider's authoritative copy of wallet state:
// chain, network version, accounts, unlock and connectivity. All mutations
// validate their input, deduplicate against the stored value and emit the
// matching provider events, so callers never have to decide whether a signal
// is fresh.
package state

import (
	"slices"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ava-labs/inpage-provider/events"
	"github.com/ava-labs/inpage-provider/rpc"
)

type connectivity int

const (
	connUnknown connectivity = iota
	connUp
	connDown
)

// Store is the single source of truth for wallet state on the application
// side of the transport. It is safe for concurrent use; events are emitted
// outside the internal lock, in the order the mutations were applied.
//
// Zero values carry meaning: an empty chain ID or network version means the
// value was never learned, and a nil account slice means no account sync has
// completed yet, as opposed to a known empty list.
type Store struct {
	logger log.Logger
	hub    *events.Hub

	mu             sync.Mutex
	conn           connectivity
	chainID        string
	networkVersion string
	accounts       []string
	selected       string
	unlocked       bool
	refreshAccs    func()
}

// NewStore returns a store that publishes its transitions through hub.
// logger may be nil, in which case the root logger is used.
func NewStore(hub *events.Hub, logger log.Logger) *Store {
	if logger == nil {
		logger = log.Root()
	}
	return &Store{logger: logger, hub: hub}
}

// SetAccountsRefresh installs the hook invoked when the wallet reports an
// unlock. The hook must not block and must swallow its own errors; it is
// called from whatever goroutine delivered the unlock signal.
func (s *Store) SetAccountsRefresh(fn func()) {
	s.mu.Lock()
	s.refreshAccs = fn
	s.mu.Unlock()
}

// ApplyChainInfo records a new chain ID and network version pair. The pair
// is validated as a unit: chainID must be a 0x-prefixed non-empty string and
// networkVersion a non-empty string, otherwise both values are dropped with
// an error log and the stored state stays untouched.
//
// When either value differs from what is stored, both are updated together
// and chainChanged fires, followed by networkChanged. A pair identical to
// the stored one emits nothing.
func (s *Store) ApplyChainInfo(chainID, networkVersion any) {
	cid, ok := chainID.(string)
	if !ok || !strings.HasPrefix(cid, "0x") {
		s.logger.Error("ignoring invalid network parameters from the wallet",
			"chainId", chainID, "networkVersion", networkVersion)
		return
	}
	nv, ok := networkVersion.(string)
	if !ok || nv == "" {
		s.logger.Error("ignoring invalid network parameters from the wallet",
			"chainId", chainID, "networkVersion", networkVersion)
		return
	}

	s.mu.Lock()
	changed := cid != s.chainID || nv != s.networkVersion
	if changed {
		s.chainID = cid
		s.networkVersion = nv
	}
	s.mu.Unlock()

	if changed {
		s.hub.EmitChainChanged(cid)
		s.hub.EmitNetworkChanged(nv)
	}
}

// ApplyAccounts records a newly observed account list. accounts is expected
// to be a JSON-decoded array of address strings; anything else is logged and
// treated as an empty list so a malformed push still locks the provider out
// of stale accounts.
//
// The list is compared to the stored one by value, order included. On
// change, the list and the derived selected address are updated and
// accountsChanged fires. fromEthAccounts marks results of the legacy read
// path, which should never be the first place a change is observed unless
// internal is set; that situation is logged and then applied anyway.
func (s *Store) ApplyAccounts(accounts any, fromEthAccounts, internal bool) {
	next, ok := coerceAccounts(accounts)
	if !ok {
		s.logger.Error("ignoring malformed accounts from the wallet, treating as empty",
			"accounts", accounts)
		next = []string{}
	}

	s.mu.Lock()
	changed := s.accounts == nil || !slices.Equal(s.accounts, next)
	if changed {
		if fromEthAccounts && s.accounts != nil && !internal {
			s.logger.Error("account state changed through a plain eth_accounts result",
				"accounts", next)
		}
		s.accounts = next
	}
	s.selected = ""
	if len(s.accounts) > 0 {
		s.selected = s.accounts[0]
	}
	s.mu.Unlock()

	if changed {
		s.hub.EmitAccountsChanged(slices.Clone(next))
	}
}

// ApplyUnlockState records the wallet's unlock flag. Non-boolean input is
// logged and dropped. Turning unlocked triggers the accounts refresh hook;
// turning locked clears the account list immediately, without waiting for
// the wallet to say so.
func (s *Store) ApplyUnlockState(isUnlocked any) {
	next, ok := isUnlocked.(bool)
	if !ok {
		s.logger.Error("ignoring non-boolean unlock state from the wallet", "isUnlocked", isUnlocked)
		return
	}

	s.mu.Lock()
	if next == s.unlocked {
		s.mu.Unlock()
		return
	}
	s.unlocked = next
	refresh := s.refreshAccs
	s.mu.Unlock()

	if next {
		if refresh != nil {
			refresh()
		}
	} else {
		s.ApplyAccounts([]string{}, false, false)
	}
}

// MarkConnected records that the transport can reach the wallet backend.
// The connect event fires only on the transition into the connected state.
func (s *Store) MarkConnected(chainID string) {
	s.mu.Lock()
	wasUp := s.conn == connUp
	s.conn = connUp
	s.mu.Unlock()

	if wasUp {
		return
	}
	s.logger.Debug("connected to the wallet backend", "chainId", chainID)
	s.hub.EmitConnect(events.ConnectInfo{ChainID: chainID})
}

// MarkDisconnected records the loss of the backend session. Connectivity is
// always lowered, but disconnect and its close alias fire only when leaving
// a previously connected state, so repeated failure reports collapse into
// one event.
func (s *Store) MarkDisconnected() {
	s.mu.Lock()
	wasUp := s.conn == connUp
	s.conn = connDown
	s.mu.Unlock()

	if !wasUp {
		return
	}
	s.hub.EmitDisconnect(rpc.ErrSessionClosed())
}

// IsConnected reports whether the backend was reachable at the last check.
func (s *Store) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn == connUp
}

// ChainID returns the current chain ID, or "" before the first sync.
func (s *Store) ChainID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chainID
}

// NetworkVersion returns the legacy network version, or "" before the first
// sync.
func (s *Store) NetworkVersion() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.networkVersion
}

// Accounts returns a copy of the exposed account list. It is nil before the
// first account sync and non-nil, possibly empty, afterwards.
func (s *Store) Accounts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.accounts)
}

// SelectedAddress returns the primary account, or "" when none is exposed.
func (s *Store) SelectedAddress() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// IsUnlocked reports the wallet's last known unlock state.
func (s *Store) IsUnlocked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unlocked
}

// coerceAccounts narrows a JSON-decoded value to a list of address strings.
func coerceAccounts(v any) ([]string, bool) {
	switch accs := v.(type) {
	case []string:
		return slices.Clone(accs), true
	case []any:
		out := make([]string, 0, len(accs))
		for _, a := range accs {
			s, ok := a.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}
