package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/sahilm/fuzzy"

	"github.com/ava-labs/inpage-provider/chains"
	"github.com/ava-labs/inpage-provider/config"
	"github.com/ava-labs/inpage-provider/events"
	"github.com/ava-labs/inpage-provider/inpage"
	"github.com/ava-labs/inpage-provider/rpc"
	"github.com/ava-labs/inpage-provider/transport"
	"github.com/ava-labs/inpage-provider/ui"
)

// dialProvider connects to the configured endpoint and waits for the
// provider's initial state fetch to settle. The caller owns the returned
// conn and must close it.
func dialProvider(ctx context.Context) (*inpage.Provider, *transport.Conn, error) {
	conn, err := transport.Dial(ctx, config.Endpoint)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot reach the wallet backend at %s: %w", config.Endpoint, err)
	}
	p := inpage.New(conn)
	select {
	case <-p.Ready():
	case <-ctx.Done():
		conn.Close()
		return nil, nil, ctx.Err()
	}
	return p, conn, nil
}

// printJSON pretty-prints a raw JSON value through the UI's writer.
func printJSON(u ui.UI, raw json.RawMessage) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		fmt.Fprintln(u.Writer(), string(raw))
		return
	}
	fmt.Fprintln(u.Writer(), buf.String())
}

// suggestClosest prints a did-you-mean hint when method resembles one of
// the methods this tool knows by name.
func suggestClosest(u ui.UI, method string) {
	matches := fuzzy.Find(method, rpc.KnownMethods())
	if len(matches) == 0 {
		return
	}
	suggestions := []string{}
	for i := 0; i < 2 && i < len(matches); i++ {
		suggestions = append(suggestions, matches[i].Str)
	}
	u.Info("Did you mean %s?", strings.Join(suggestions, " or "))
}

// watchedEvents is the catalog subset the CLI subscribes to. The deprecated
// aliases are left out since they duplicate what is already shown.
var watchedEvents = []events.Name{
	events.Connect,
	events.Disconnect,
	events.ChainChanged,
	events.NetworkChanged,
	events.AccountsChanged,
	events.Message,
}

// subscribeAll registers ch for every watched event name.
func subscribeAll(p *inpage.Provider, ch chan events.Event) ([]event.Subscription, error) {
	subs := make([]event.Subscription, 0, len(watchedEvents))
	for _, name := range watchedEvents {
		sub, err := p.Subscribe(name, ch)
		if err != nil {
			for _, s := range subs {
				s.Unsubscribe()
			}
			return nil, fmt.Errorf("cannot subscribe to %s: %w", name, err)
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

// printEvent renders one provider event as a single line, or as a JSON
// object in --json mode.
func printEvent(u ui.UI, ev events.Event) {
	if config.JSONOutput {
		out, err := json.Marshal(map[string]any{"event": ev.Name, "data": ev.Data})
		if err != nil {
			u.Error("cannot render %s event: %s", ev.Name, err)
			return
		}
		fmt.Fprintln(u.Writer(), string(out))
		return
	}

	ts := time.Now().Format("15:04:05.000")
	switch ev.Name {
	case events.Connect:
		info := ev.Data.(events.ConnectInfo)
		u.Success("%s connect          %s", ts, chains.Describe(info.ChainID))
	case events.Disconnect:
		perr := ev.Data.(*rpc.Error)
		u.Error("%s disconnect       code=%d %s", ts, perr.Code, perr.Message)
	case events.ChainChanged:
		u.Info("%s chainChanged     %s", ts, chains.Describe(ev.Data.(string)))
	case events.NetworkChanged:
		u.Info("%s networkChanged   %s", ts, ev.Data.(string))
	case events.AccountsChanged:
		accounts := ev.Data.([]string)
		u.Info("%s accountsChanged  [%s]", ts, strings.Join(accounts, ", "))
	case events.Message:
		payload := ev.Data.(events.MessagePayload)
		u.Info("%s message          type=%s data=%s", ts, payload.Type, payload.Data)
	default:
		u.Info("%s %s %v", ts, ev.Name, ev.Data)
	}
}

// drainEvents prints every event already delivered or arriving within a
// short grace period. The demo uses it to flush the fallout of each step
// before moving on.
func drainEvents(u ui.UI, ch chan events.Event) {
	for {
		select {
		case ev := <-ch:
			printEvent(u, ev)
		case <-time.After(150 * time.Millisecond):
			return
		}
	}
}
