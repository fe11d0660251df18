package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ava-labs/inpage-provider/chains"
	"github.com/ava-labs/inpage-provider/config"
	"github.com/ava-labs/inpage-provider/ui"
)

var chainsCmd = &cobra.Command{
	Use:   "chains",
	Short: "List the chains this tool can name",
	Long: `chains prints the built-in chain registry used to describe the wallet's
chain IDs. Chain IDs outside this list still work everywhere, they are
just shown as raw hex.`,
	Run: func(cmd *cobra.Command, args []string) {
		runChains(ui.NewTerminalUI())
	},
}

func runChains(u ui.UI) {
	supported := chains.Supported()

	if config.JSONOutput {
		out, err := json.MarshalIndent(supported, "", "  ")
		if err != nil {
			u.Error("cannot render chain list: %s", err)
			return
		}
		fmt.Fprintln(u.Writer(), string(out))
		return
	}

	// group digits so ids like 11155111 stay readable
	printer := message.NewPrinter(language.English)
	rows := make([][]string, 0, len(supported))
	for _, c := range supported {
		rows = append(rows, []string{
			c.Name,
			printer.Sprintf("%d", c.ID),
			c.HexID(),
			c.Symbol,
		})
	}
	u.Table([]string{"Name", "Chain ID", "Hex", "Symbol"}, rows)
}

func init() {
	rootCmd.AddCommand(chainsCmd)
}
