package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ava-labs/inpage-provider/config"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "inpage",
	Short: "Talk to an EIP-1193 wallet backend from the command line",
	Long: `inpage drives the wallet provider library from a terminal. It dials a
wallet backend that speaks the inpage JSON-RPC protocol and gives you the
same view an embedded application would get:

	1. "state" fetches the wallet's chain, network, account and unlock
	state in one call.

	2. "watch" subscribes to the provider event catalog (connect,
	disconnect, chainChanged, accountsChanged, message...) and streams
	events as the wallet pushes them.

	3. "call" and "repl" send arbitrary JSON-RPC requests through the
	provider, including the account interception and legacy behaviors an
	application would see.

	4. "demo" runs the whole lifecycle against a built-in simulated
	wallet, no backend required.

The backend endpoint is taken from --endpoint and supports ws, wss, tcp
and unix schemes.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := log.LevelWarn
		if config.Verbose {
			level = log.LevelTrace
		}
		useColor := term.IsTerminal(int(os.Stderr.Fd()))
		log.SetDefault(log.NewLogger(log.NewTerminalHandlerWithLevel(os.Stderr, level, useColor)))
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.PersistentFlags().StringVarP(&config.Endpoint, "endpoint", "e", "ws://127.0.0.1:8546", "wallet backend endpoint. Supported schemes: \"ws\", \"wss\", \"tcp\", \"unix\".")
	rootCmd.PersistentFlags().DurationVarP(&config.Timeout, "timeout", "t", 15*time.Second, "timeout applied to each request sent to the backend.")
	rootCmd.PersistentFlags().BoolVarP(&config.Verbose, "verbose", "v", false, "log provider internals at trace level.")
	rootCmd.PersistentFlags().BoolVar(&config.JSONOutput, "json", false, "print command results as bare JSON.")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
