package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ava-labs/inpage-provider/chains"
	"github.com/ava-labs/inpage-provider/config"
	"github.com/ava-labs/inpage-provider/inpage"
	"github.com/ava-labs/inpage-provider/rpc"
	"github.com/ava-labs/inpage-provider/ui"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Show the wallet's chain, network, account and unlock state",
	Long: `state dials the backend, waits for the provider's initial sync and
prints the resulting view. With --json the same data is printed as one
JSON object on stdout.`,
	Run: func(cmd *cobra.Command, args []string) {
		u := ui.NewTerminalUI()
		ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
		defer cancel()

		stop := u.Spinner(fmt.Sprintf("Dialing %s...", config.Endpoint))
		p, conn, err := dialProvider(ctx)
		stop()
		if err != nil {
			u.Error("%s", err)
			return
		}
		defer conn.Close()

		runState(ctx, u, p)
	},
}

// runState renders the provider's synced view. Unlock state is not part of
// the provider's stable surface, so it is fetched with a direct
// wallet_getProviderState call and shown as unknown when the backend does
// not answer it.
func runState(ctx context.Context, u ui.UI, p *inpage.Provider) {
	unlocked := "unknown"
	var ps rpc.ProviderState
	if err := p.Call(ctx, &ps, rpc.MethodGetProviderState, nil); err == nil {
		if b, ok := ps.IsUnlocked.(bool); ok {
			unlocked = fmt.Sprintf("%t", b)
		}
	}

	if config.JSONOutput {
		out, err := json.MarshalIndent(map[string]any{
			"connected":       p.IsConnected(),
			"chainId":         p.ChainID(),
			"networkVersion":  p.NetworkVersion(),
			"selectedAddress": p.SelectedAddress(),
			"accounts":        p.Accounts(),
			"unlocked":        unlocked,
		}, "", "  ")
		if err != nil {
			u.Error("cannot render state: %s", err)
			return
		}
		fmt.Fprintln(u.Writer(), string(out))
		return
	}

	connText := ui.StyledText{Text: "disconnected", Severity: ui.SeverityError}
	if p.IsConnected() {
		connText = ui.StyledText{Text: "connected", Severity: ui.SeveritySuccess}
	}
	selected := p.SelectedAddress()
	if selected == "" {
		selected = "(none)"
	}

	u.Section("Wallet state")
	u.KeyValue([][2]string{
		{"Connection", u.Style(connText)},
		{"Chain", chains.Describe(p.ChainID())},
		{"Network version", p.NetworkVersion()},
		{"Selected address", selected},
		{"Unlocked", unlocked},
	})

	accounts := p.Accounts()
	switch {
	case accounts == nil:
		u.Warn("Accounts were never synced from the backend.")
	case len(accounts) == 0:
		u.Info("No accounts are exposed.")
	default:
		u.Info("Accounts (%d):", len(accounts))
		child := u.Indent()
		for i, acc := range accounts {
			child.Info("%d. %s", i+1, acc)
		}
	}
}

// summaryLine condenses the synced state to one line for the REPL prompt.
func summaryLine(p *inpage.Provider) string {
	parts := []string{chains.Describe(p.ChainID())}
	if addr := p.SelectedAddress(); addr != "" {
		parts = append(parts, addr)
	}
	if !p.IsConnected() {
		parts = append(parts, "disconnected")
	}
	return strings.Join(parts, " | ")
}

func init() {
	rootCmd.AddCommand(stateCmd)
}
