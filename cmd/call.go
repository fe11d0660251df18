package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ava-labs/inpage-provider/config"
	"github.com/ava-labs/inpage-provider/inpage"
	"github.com/ava-labs/inpage-provider/rpc"
	"github.com/ava-labs/inpage-provider/ui"
)

var callCmd = &cobra.Command{
	Use:   "call <method> [params...]",
	Short: "Send one JSON-RPC request through the provider",
	Long: `call sends a single request and prints the result. Params can be given
as one JSON array or as separate values:

	inpage call eth_chainId
	inpage call eth_getBalance 0xab5801a7d398351b8be11c439e05c5b3259aec9b latest
	inpage call eth_getBalance '["0xab5801a7d398351b8be11c439e05c5b3259aec9b", "latest"]'

Separate values are parsed as JSON when possible and passed as strings
otherwise. The request goes through the provider, so account methods keep
their interception semantics.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		u := ui.NewTerminalUI()
		ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
		defer cancel()

		p, conn, err := dialProvider(ctx)
		if err != nil {
			u.Error("%s", err)
			return
		}
		defer conn.Close()

		if err := runCall(ctx, u, p, args[0], args[1:]); err != nil {
			u.Error("%s", err)
			if rpc.HasCode(err, rpc.CodeMethodNotFound) {
				suggestClosest(u, args[0])
			}
		}
	},
}

func runCall(ctx context.Context, u ui.UI, p *inpage.Provider, method string, rawParams []string) error {
	params, err := parseParams(rawParams)
	if err != nil {
		return err
	}

	stop := u.Spinner(fmt.Sprintf("Calling %s...", method))
	result, err := p.Request(ctx, inpage.RequestArgs{Method: method, Params: params})
	stop()
	if err != nil {
		return err
	}
	printJSON(u, result)
	return nil
}

// parseParams turns command line arguments into request params. A single
// argument that looks like a JSON array is used verbatim; otherwise each
// argument becomes one array element, parsed as JSON when it is valid JSON
// and kept as a string when it is not.
func parseParams(args []string) (any, error) {
	if len(args) == 0 {
		return nil, nil
	}
	if len(args) == 1 {
		trimmed := strings.TrimSpace(args[0])
		if strings.HasPrefix(trimmed, "[") {
			if !json.Valid([]byte(trimmed)) {
				return nil, fmt.Errorf("params look like a JSON array but do not parse: %s", trimmed)
			}
			return json.RawMessage(trimmed), nil
		}
	}
	params := make([]any, 0, len(args))
	for _, arg := range args {
		var v any
		if json.Valid([]byte(arg)) {
			if err := json.Unmarshal([]byte(arg), &v); err == nil {
				params = append(params, v)
				continue
			}
		}
		params = append(params, arg)
	}
	return params, nil
}

func init() {
	rootCmd.AddCommand(callCmd)
}
