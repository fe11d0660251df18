package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ava-labs/inpage-provider/config"
	"github.com/ava-labs/inpage-provider/inpage"
	"github.com/ava-labs/inpage-provider/rpc"
	"github.com/ava-labs/inpage-provider/ui"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Interactive JSON-RPC session with the wallet backend",
	Long: `repl keeps one provider session open and sends a request per input
line. Params follow the same rules as the call command. The provider's
synced state is available via "state" without leaving the session.`,
	Run: func(cmd *cobra.Command, args []string) {
		u := ui.NewTerminalUI()
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()

		dialCtx, dialCancel := context.WithTimeout(ctx, config.Timeout)
		p, conn, err := dialProvider(dialCtx)
		dialCancel()
		if err != nil {
			u.Error("%s", err)
			return
		}
		defer conn.Close()

		runRepl(ctx, u, p)
	},
}

func runRepl(ctx context.Context, u ui.UI, p *inpage.Provider) {
	u.Info("Connected: %s", summaryLine(p))
	u.Info("Type a method name with optional params (e.g. eth_chainId).")
	u.Info("\"state\" prints the synced view, \"exit\" or an empty line quits.")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line := strings.TrimSpace(u.Ask(nil))
		if line == "" || line == "exit" || line == "quit" {
			return
		}
		if line == "state" {
			stateCtx, cancel := context.WithTimeout(ctx, config.Timeout)
			runState(stateCtx, u, p)
			cancel()
			continue
		}

		fields := strings.Fields(line)
		callCtx, cancel := context.WithTimeout(ctx, config.Timeout)
		err := replCall(callCtx, u, p, fields[0], fields[1:])
		cancel()
		if err != nil {
			u.Error("%s", err)
			if rpc.HasCode(err, rpc.CodeMethodNotFound) {
				suggestClosest(u, fields[0])
			}
		}
	}
}

func replCall(ctx context.Context, u ui.UI, p *inpage.Provider, method string, rawParams []string) error {
	params, err := parseParams(rawParams)
	if err != nil {
		return err
	}
	result, err := p.Request(ctx, inpage.RequestArgs{Method: method, Params: params})
	if err != nil {
		return err
	}
	u.Interpret(string(result))
	return nil
}

func init() {
	rootCmd.AddCommand(replCmd)
}
