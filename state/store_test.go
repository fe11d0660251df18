package state_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ava-labs/inpage-provider/events"
	"github.com/ava-labs/inpage-provider/rpc"
	"github.com/ava-labs/inpage-provider/state"
)

func newTestStore(t *testing.T) (*state.Store, *events.Hub, *bytes.Buffer) {
	t.Helper()
	buf := new(bytes.Buffer)
	logger := log.NewLogger(log.NewTerminalHandlerWithLevel(buf, log.LevelDebug, false))
	hub := events.NewHub(logger)
	return state.NewStore(hub, logger), hub, buf
}

func subscribe(t *testing.T, hub *events.Hub, name events.Name) chan events.Event {
	t.Helper()
	ch := make(chan events.Event, 8)
	if _, err := hub.Subscribe(name, ch); err != nil {
		t.Fatalf("subscribe %s: %v", name, err)
	}
	return ch
}

// drain empties everything currently buffered on ch.
func drain(ch chan events.Event) []events.Event {
	var out []events.Event
	for {
		select {
		case ev := <-ch:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func TestApplyChainInfoRejectsMalformedPairs(t *testing.T) {
	tests := []struct {
		name           string
		chainID        any
		networkVersion any
	}{
		{"nil chain id", nil, "1"},
		{"numeric chain id", 1, "1"},
		{"missing 0x prefix", "1", "1"},
		{"empty chain id", "", "1"},
		{"nil network version", "0x1", nil},
		{"numeric network version", "0x1", 1},
		{"empty network version", "0x1", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store, hub, buf := newTestStore(t)
			chainCh := subscribe(t, hub, events.ChainChanged)

			store.ApplyChainInfo(tc.chainID, tc.networkVersion)

			if store.ChainID() != "" || store.NetworkVersion() != "" {
				t.Errorf("malformed pair mutated state: chainId=%q networkVersion=%q",
					store.ChainID(), store.NetworkVersion())
			}
			if evs := drain(chainCh); len(evs) != 0 {
				t.Errorf("malformed pair emitted %d events", len(evs))
			}
			if !strings.Contains(buf.String(), "invalid network parameters") {
				t.Error("malformed pair should leave a diagnostic log")
			}
		})
	}
}

func TestApplyChainInfoEmitsOncePerChange(t *testing.T) {
	store, hub, _ := newTestStore(t)
	chainCh := subscribe(t, hub, events.ChainChanged)
	aliasCh := subscribe(t, hub, events.ChainIDChanged)
	netCh := subscribe(t, hub, events.NetworkChanged)

	store.ApplyChainInfo("0x1", "1")
	store.ApplyChainInfo("0x1", "1")

	if evs := drain(chainCh); len(evs) != 1 || evs[0].Data.(string) != "0x1" {
		t.Errorf("chainChanged events = %+v, want exactly one with 0x1", evs)
	}
	if evs := drain(aliasCh); len(evs) != 1 || evs[0].Data.(string) != "0x1" {
		t.Errorf("chainIdChanged events = %+v, want exactly one with 0x1", evs)
	}
	if evs := drain(netCh); len(evs) != 1 || evs[0].Data.(string) != "1" {
		t.Errorf("networkChanged events = %+v, want exactly one with 1", evs)
	}
	if store.ChainID() != "0x1" || store.NetworkVersion() != "1" {
		t.Errorf("state = (%q, %q), want (0x1, 1)", store.ChainID(), store.NetworkVersion())
	}
}

func TestApplyChainInfoUpdatesPairAsUnit(t *testing.T) {
	store, hub, _ := newTestStore(t)
	chainCh := subscribe(t, hub, events.ChainChanged)
	netCh := subscribe(t, hub, events.NetworkChanged)

	store.ApplyChainInfo("0x1", "1")
	drain(chainCh)
	drain(netCh)

	// same chain, new network version: both events still fire as a pair
	store.ApplyChainInfo("0x1", "2")
	if evs := drain(chainCh); len(evs) != 1 {
		t.Errorf("chainChanged fired %d times on a network-only change, want 1", len(evs))
	}
	if evs := drain(netCh); len(evs) != 1 || evs[0].Data.(string) != "2" {
		t.Errorf("networkChanged events = %+v, want exactly one with 2", evs)
	}
}

func TestApplyAccountsDetectsChangesByValue(t *testing.T) {
	store, hub, _ := newTestStore(t)
	accCh := subscribe(t, hub, events.AccountsChanged)

	store.ApplyAccounts([]string{"0xa", "0xb"}, false, false)
	if evs := drain(accCh); len(evs) != 1 {
		t.Fatalf("first sync emitted %d events, want 1", len(evs))
	}
	if store.SelectedAddress() != "0xa" {
		t.Errorf("selected = %q, want 0xa", store.SelectedAddress())
	}

	// equal by value: no event, selected recomputed anyway
	store.ApplyAccounts([]any{"0xa", "0xb"}, false, false)
	if evs := drain(accCh); len(evs) != 0 {
		t.Errorf("value-equal update emitted %d events", len(evs))
	}

	// order matters
	store.ApplyAccounts([]string{"0xb", "0xa"}, false, false)
	evs := drain(accCh)
	if len(evs) != 1 {
		t.Fatalf("reorder emitted %d events, want 1", len(evs))
	}
	got := evs[0].Data.([]string)
	if len(got) != 2 || got[0] != "0xb" {
		t.Errorf("accountsChanged payload = %v", got)
	}
	if store.SelectedAddress() != "0xb" {
		t.Errorf("selected = %q, want 0xb", store.SelectedAddress())
	}
}

func TestApplyAccountsFirstEmptySyncStillEmits(t *testing.T) {
	store, hub, _ := newTestStore(t)
	accCh := subscribe(t, hub, events.AccountsChanged)

	if store.Accounts() != nil {
		t.Fatal("accounts must be nil before the first sync")
	}
	store.ApplyAccounts([]string{}, false, false)

	evs := drain(accCh)
	if len(evs) != 1 {
		t.Fatalf("first empty sync emitted %d events, want 1", len(evs))
	}
	if accs := store.Accounts(); accs == nil || len(accs) != 0 {
		t.Errorf("accounts = %v, want a known empty list", accs)
	}

	// now empty is the known value, so repeating it is a no-op
	store.ApplyAccounts([]string{}, false, false)
	if evs := drain(accCh); len(evs) != 0 {
		t.Errorf("repeated empty sync emitted %d events", len(evs))
	}
}

func TestApplyAccountsMalformedBecomesEmpty(t *testing.T) {
	store, hub, buf := newTestStore(t)
	accCh := subscribe(t, hub, events.AccountsChanged)

	store.ApplyAccounts([]string{"0xa"}, false, false)
	drain(accCh)

	store.ApplyAccounts("0xa", false, false)

	if evs := drain(accCh); len(evs) != 1 || len(evs[0].Data.([]string)) != 0 {
		t.Errorf("malformed accounts should apply as empty, events = %+v", evs)
	}
	if store.SelectedAddress() != "" {
		t.Errorf("selected = %q, want empty", store.SelectedAddress())
	}
	if !strings.Contains(buf.String(), "malformed accounts") {
		t.Error("malformed accounts should leave a diagnostic log")
	}

	store2, hub2, buf2 := newTestStore(t)
	accCh2 := subscribe(t, hub2, events.AccountsChanged)
	store2.ApplyAccounts([]any{"0xa", 7}, false, false)
	if evs := drain(accCh2); len(evs) != 1 || len(evs[0].Data.([]string)) != 0 {
		t.Errorf("mixed-type accounts should apply as empty, events = %+v", evs)
	}
	if !strings.Contains(buf2.String(), "malformed accounts") {
		t.Error("mixed-type accounts should leave a diagnostic log")
	}
}

func TestApplyAccountsFlagsUnexpectedLegacyUpdate(t *testing.T) {
	store, hub, buf := newTestStore(t)
	accCh := subscribe(t, hub, events.AccountsChanged)

	store.ApplyAccounts([]string{"0xa"}, false, false)
	drain(accCh)

	// a plain eth_accounts result that changes known state is an anomaly,
	// but the update still lands
	store.ApplyAccounts([]string{"0xb"}, true, false)

	if !strings.Contains(buf.String(), "eth_accounts") {
		t.Error("unexpected legacy update should leave an anomaly log")
	}
	if evs := drain(accCh); len(evs) != 1 {
		t.Errorf("anomalous update emitted %d events, want 1", len(evs))
	}
	if store.SelectedAddress() != "0xb" {
		t.Errorf("selected = %q, the anomalous update must still apply", store.SelectedAddress())
	}

	// the internal refresh path changes state without complaint
	buf.Reset()
	store.ApplyAccounts([]string{"0xc"}, true, true)
	if strings.Contains(buf.String(), "eth_accounts") {
		t.Error("internal refresh must not be flagged as an anomaly")
	}
}

func TestApplyUnlockState(t *testing.T) {
	store, hub, buf := newTestStore(t)
	accCh := subscribe(t, hub, events.AccountsChanged)

	refreshed := 0
	store.SetAccountsRefresh(func() { refreshed++ })

	store.ApplyUnlockState("yes")
	if store.IsUnlocked() {
		t.Error("non-boolean unlock state must be dropped")
	}
	if !strings.Contains(buf.String(), "non-boolean unlock state") {
		t.Error("non-boolean unlock state should leave a diagnostic log")
	}

	store.ApplyUnlockState(true)
	if !store.IsUnlocked() {
		t.Error("unlock transition not recorded")
	}
	if refreshed != 1 {
		t.Errorf("refresh hook ran %d times, want 1", refreshed)
	}

	// repeat is a no-op
	store.ApplyUnlockState(true)
	if refreshed != 1 {
		t.Errorf("refresh hook ran %d times after a no-op, want 1", refreshed)
	}

	// lock forces accounts empty through the normal change detection
	store.ApplyAccounts([]string{"0xa"}, false, false)
	drain(accCh)
	store.ApplyUnlockState(false)
	evs := drain(accCh)
	if len(evs) != 1 || len(evs[0].Data.([]string)) != 0 {
		t.Errorf("locking should clear accounts, events = %+v", evs)
	}
	if store.IsUnlocked() {
		t.Error("lock transition not recorded")
	}
}

func TestConnectivityTransitions(t *testing.T) {
	store, hub, _ := newTestStore(t)
	connCh := subscribe(t, hub, events.Connect)
	discCh := subscribe(t, hub, events.Disconnect)
	closeCh := subscribe(t, hub, events.Close)

	// disconnect before ever connecting: state lowers, nothing fires
	store.MarkDisconnected()
	if evs := drain(discCh); len(evs) != 0 {
		t.Errorf("disconnect before connect emitted %d events", len(evs))
	}

	store.MarkConnected("0x1")
	store.MarkConnected("0x1")
	evs := drain(connCh)
	if len(evs) != 1 {
		t.Fatalf("connect emitted %d times, want 1", len(evs))
	}
	if info := evs[0].Data.(events.ConnectInfo); info.ChainID != "0x1" {
		t.Errorf("connect payload = %+v", info)
	}
	if !store.IsConnected() {
		t.Error("store should report connected")
	}

	store.MarkDisconnected()
	store.MarkDisconnected()
	evs = drain(discCh)
	if len(evs) != 1 {
		t.Fatalf("disconnect emitted %d times, want 1", len(evs))
	}
	rerr := evs[0].Data.(*rpc.Error)
	if rerr.Code != rpc.CodeSessionUnrecoverable {
		t.Errorf("disconnect code = %d, want %d", rerr.Code, rpc.CodeSessionUnrecoverable)
	}
	if evs := drain(closeCh); len(evs) != 1 {
		t.Errorf("close alias emitted %d times, want 1", len(evs))
	}
	if store.IsConnected() {
		t.Error("store should report disconnected")
	}
}
