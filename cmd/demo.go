package cmd

import (
	"context"
	"net"
	"time"

	"github.com/spf13/cobra"

	"github.com/ava-labs/inpage-provider/events"
	"github.com/ava-labs/inpage-provider/inpage"
	"github.com/ava-labs/inpage-provider/rpc"
	"github.com/ava-labs/inpage-provider/simwallet"
	"github.com/ava-labs/inpage-provider/transport"
	"github.com/ava-labs/inpage-provider/ui"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the provider against a built-in simulated wallet",
	Long: `demo wires a provider to an in-process simulated wallet over a pipe and
walks through the provider lifecycle: the initial sync, a chain switch, a
lock/unlock cycle, a subscription push and the backend going away. Use it
to see the event model without a real wallet backend.`,
	Run: func(cmd *cobra.Command, args []string) {
		u := ui.NewTerminalUI()
		if err := runDemo(u); err != nil {
			u.Error("%s", err)
		}
	},
}

func runDemo(u ui.UI) error {
	cli, srv := net.Pipe()
	w := simwallet.New(
		simwallet.WithChain("0x1", "1"),
		simwallet.WithAccounts("0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266"),
	)
	go w.ServeStream(srv)

	conn := transport.NewStreamConn(cli, transport.WithLabel("demo"))
	defer conn.Close()

	p := inpage.New(conn, inpage.WithoutBootstrap())
	ch := make(chan events.Event, 64)
	subs, err := subscribeAll(p, ch)
	if err != nil {
		return err
	}
	defer func() {
		for _, sub := range subs {
			sub.Unsubscribe()
		}
	}()

	u.Section("Initial sync")
	u.Info("The provider fetches wallet_getProviderState once and goes live.")
	p.Bootstrap()
	drainEvents(u, ch)
	u.KeyValue([][2]string{
		{"Chain", p.ChainID()},
		{"Selected address", p.SelectedAddress()},
	})

	u.Section("Chain switch")
	u.Info("The wallet moves to Avalanche and pushes wallet_chainChanged.")
	w.SetChain("0xa86a", "43114")
	waitCondition(func() bool { return p.ChainID() == "0xa86a" })
	drainEvents(u, ch)

	u.Section("Lock and unlock")
	u.Info("Locking hides the accounts, unlocking resyncs them.")
	w.SetUnlocked(false)
	waitCondition(func() bool { return len(p.Accounts()) == 0 })
	w.SetUnlocked(true)
	waitCondition(func() bool { return p.SelectedAddress() != "" })
	drainEvents(u, ch)

	u.Section("Subscription push")
	u.Info("Backend pushes land as message events, payload untouched.")
	w.Notify(rpc.MethodEthSubscription, map[string]any{
		"subscription": "0xdemo",
		"result":       map[string]string{"number": "0x10d4f"},
	})
	drainEvents(u, ch)

	if !u.Confirm("Shut the backend down to see the disconnect flow?", true) {
		u.Info("Leaving the session up. Bye.")
		return nil
	}

	u.Section("Backend shutdown")
	srv.Close()
	waitCondition(func() bool { return !p.IsConnected() })
	drainEvents(u, ch)

	if _, err := p.Request(context.Background(), inpage.RequestArgs{Method: rpc.MethodEthChainID}); err != nil {
		u.Info("Requests now fail fast: %s", err)
	}
	return nil
}

// waitCondition polls until cond holds or a short deadline passes. The demo
// only uses it to keep section output in causal order.
func waitCondition(cond func() bool) {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func init() {
	rootCmd.AddCommand(demoCmd)
}
