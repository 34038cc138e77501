package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/ordernotify/internal/app"
	"github.com/colonyops/ordernotify/internal/core/eventbus"
	"github.com/colonyops/ordernotify/internal/core/push"
	"github.com/colonyops/ordernotify/internal/printer"
	"github.com/colonyops/ordernotify/internal/tui"
)

type WatchCmd struct {
	flags *Flags
	app   *app.App

	// flags
	plain    bool
	noWorker bool
	url      string
}

// NewWatchCmd creates a new watch command
func NewWatchCmd(flags *Flags, a *app.App) *WatchCmd {
	return &WatchCmd{flags: flags, app: a}
}

// Register adds the watch command to the application
func (cmd *WatchCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, cmd.Command())
	return app
}

// Command returns the watch command. It is also the root default action.
func (cmd *WatchCmd) Command() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Follow your orders and show status notifications",
		UsageText: "ordernotify watch [--plain] [--no-worker]",
		Description: `Opens a page session: polls your orders, lists status changes and shows
pushes that arrive while the session is open.

Unless --no-worker is given the session also runs the push worker for this
device, rendering desktop notifications for every push. Use --no-worker when
'ordernotify worker' already runs as a separate process.`,
		Flags:  cmd.Flags(),
		Action: cmd.Run,
	}
}

// Flags returns the watch flags so the root command can accept them.
func (cmd *WatchCmd) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:        "plain",
			Usage:       "print events as lines instead of the interactive view",
			Destination: &cmd.plain,
		},
		&cli.BoolFlag{
			Name:        "no-worker",
			Usage:       "do not consume pushes in this process",
			Destination: &cmd.noWorker,
		},
		&cli.StringFlag{
			Name:        "url",
			Usage:       "page address of this session (defaults to origin + scope)",
			Destination: &cmd.url,
		},
	}
}

func (cmd *WatchCmd) Run(ctx context.Context, c *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !cmd.plain {
		return tui.Run(ctx, cmd.app, app.SessionOptions{URL: cmd.url, NoWorker: cmd.noWorker})
	}

	p := printer.New(c.Root().Writer)
	cmd.app.Bus.SubscribeNotificationCreated(func(e eventbus.NotificationCreatedPayload) {
		p.Infof("#%d %s", e.Record.OrderID, e.Record.Message)
	})
	cmd.app.Bus.SubscribePollingStopped(func(e eventbus.PollingStoppedPayload) {
		if e.Idle {
			p.Printf("no active orders, polling paused until the next push")
		}
	})
	cmd.app.Bus.SubscribeSubscriptionChanged(func(e eventbus.SubscriptionChangedPayload) {
		if e.Subscribed {
			p.Successf("push notifications on")
		} else {
			p.Warnf("push notifications off")
		}
	})

	s := cmd.app.NewSession(app.SessionOptions{
		URL:      cmd.url,
		NoWorker: cmd.noWorker,
		OnPush: func(m push.Message) {
			p.Successf("%s: %s", m.Title, m.Body)
		},
		OnFocus: func() {
			p.Infof("opened from a notification")
		},
	})

	p.Section(cmd.app.Config.Push.AppName)
	return s.Run(ctx)
}
