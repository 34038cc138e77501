package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/ordernotify/internal/app"
	"github.com/colonyops/ordernotify/internal/platform"
	"github.com/colonyops/ordernotify/internal/printer"
	"github.com/colonyops/ordernotify/internal/subscription"
	"github.com/colonyops/ordernotify/pkg/iojson"
)

type PushCmd struct {
	flags *Flags
	app   *app.App

	jsonOutput bool
}

func NewPushCmd(flags *Flags, a *app.App) *PushCmd {
	return &PushCmd{flags: flags, app: a}
}

func (cmd *PushCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "push",
		Usage: "Manage this device's push subscription",
		Description: `Subscribing asks for notification permission, registers the push worker
for this device, subscribes with the server's key and mirrors the subscription
to the order service.`,
		Commands: []*cli.Command{
			{
				Name:   "subscribe",
				Usage:  "Turn push notifications on",
				Action: cmd.subscribe,
			},
			{
				Name:   "unsubscribe",
				Usage:  "Turn push notifications off",
				Action: cmd.unsubscribe,
			},
			{
				Name:  "status",
				Usage: "Show the subscription state",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:        "json",
						Usage:       "output as JSON",
						Destination: &cmd.jsonOutput,
					},
				},
				Action: cmd.status,
			},
		},
	})
	return app
}

func (cmd *PushCmd) subscribe(ctx context.Context, c *cli.Command) error {
	p := printer.New(c.Root().Writer)

	switch res := cmd.app.Subscriptions.Subscribe(ctx); res {
	case subscription.ResultSubscribed:
		p.Successf("push notifications on")
	case subscription.ResultResynced:
		p.Successf("already subscribed, subscription re-sent to the server")
	case subscription.ResultUnsupported:
		p.Warnf("push is not available: no broker configured")
	case subscription.ResultDenied:
		p.Warnf("notification permission not granted")
	default:
		p.Errorf("subscribe failed, see %s", cmd.app.Config.LogFile())
		return cli.Exit("", 1)
	}
	return nil
}

func (cmd *PushCmd) unsubscribe(ctx context.Context, c *cli.Command) error {
	if err := cmd.app.Subscriptions.Unsubscribe(ctx); err != nil {
		return fmt.Errorf("unsubscribe: %w", err)
	}
	printer.New(c.Root().Writer).Successf("push notifications off")
	return nil
}

type statusJSON struct {
	Supported  bool   `json:"supported"`
	Permission string `json:"permission"`
	Subscribed bool   `json:"subscribed"`
	Endpoint   string `json:"endpoint,omitempty"`
}

func (cmd *PushCmd) status(ctx context.Context, c *cli.Command) error {
	pf := cmd.app.Platform

	perm, err := pf.Permission(ctx)
	if err != nil {
		return fmt.Errorf("read permission: %w", err)
	}

	st := statusJSON{
		Supported:  pf.Supported(),
		Permission: string(perm),
		Subscribed: cmd.app.Subscriptions.CheckSubscriptionStatus(ctx),
	}
	if d, ok, err := platform.CurrentDescriptor(ctx, pf); err == nil && ok {
		st.Endpoint = d.Endpoint
	}

	if cmd.jsonOutput {
		return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, st)
	}

	p := printer.New(c.Root().Writer)
	p.Section("Push")
	item := p.CheckItem
	if !st.Supported {
		item = p.FailItem
	}
	item("supported", fmt.Sprintf("%t", st.Supported))

	item = p.CheckItem
	if perm != platform.PermissionGranted {
		item = p.WarnItem
	}
	item("permission", st.Permission)

	if st.Subscribed {
		p.CheckItem("subscribed", st.Endpoint)
	} else {
		p.WarnItem("subscribed", "no")
	}
	return nil
}
