package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/ava-labs/inpage-provider/config"
	"github.com/ava-labs/inpage-provider/events"
	"github.com/ava-labs/inpage-provider/inpage"
	"github.com/ava-labs/inpage-provider/ui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream provider events until interrupted",
	Long: `watch subscribes to the provider event catalog and prints every event
the wallet backend causes: chain switches, account changes, subscription
messages and the final disconnect. One line per event, or one JSON object
per line with --json.`,
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

		if err := runWatch(ctx, u, p); err != nil {
			u.Error("%s", err)
		}
	},
}

// runWatch prints events as they arrive. It returns once ctx is cancelled
// or the session to the backend ends.
func runWatch(ctx context.Context, u ui.UI, p *inpage.Provider) error {
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

	if !config.JSONOutput {
		u.Info("Watching provider events on %s. Ctrl-C to stop.", config.Endpoint)
	}
	watchLoop(ctx, u, ch)
	return nil
}

// watchLoop consumes ch until ctx is cancelled or a disconnect event
// arrives. After a disconnect the session is over and nothing further can
// arrive, so the loop ends.
func watchLoop(ctx context.Context, u ui.UI, ch chan events.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-ch:
			printEvent(u, ev)
			if ev.Name == events.Disconnect {
				return
			}
		}
	}
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
