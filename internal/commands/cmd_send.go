package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/ordernotify/internal/app"
	"github.com/colonyops/ordernotify/internal/core/push"
	"github.com/colonyops/ordernotify/internal/platform"
	"github.com/colonyops/ordernotify/internal/printer"
	"github.com/colonyops/ordernotify/pkg/iojson"
)

type SendCmd struct {
	flags *Flags
	app   *app.App

	title   string
	body    string
	msgType string
	id      string
	url     string
	ttl     int

	payload       iojson.FileReader[push.Message]
	subscriptions iojson.FileReader[[]push.Descriptor]
}

func NewSendCmd(flags *Flags, a *app.App) *SendCmd {
	return &SendCmd{
		flags: flags,
		app:   a,
		payload: iojson.FileReader[push.Message]{
			Name:  "payload",
			Usage: "path to a JSON push payload (overrides the message flags)",
		},
		subscriptions: iojson.FileReader[[]push.Descriptor]{
			Name:  "subscriptions",
			Usage: "path to a JSON array of subscription descriptors (defaults to this device)",
		},
	}
}

func (cmd *SendCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "send",
		Usage:     "Send a push to subscribed devices",
		UsageText: "ordernotify send --title T --body B [--type order --id 7 --url /orders/7]",
		Description: `Encrypts and delivers a push payload the way the order service does.

amqp endpoints are published to the device queue on the broker. https
endpoints are delivered with Web Push using the sender VAPID keys. Endpoints
the push service reports as gone are listed as stale.`,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Usage: "notification title", Destination: &cmd.title},
			&cli.StringFlag{Name: "body", Usage: "notification body", Destination: &cmd.body},
			&cli.StringFlag{Name: "type", Usage: "message type", Value: "order", Destination: &cmd.msgType},
			&cli.StringFlag{Name: "id", Usage: "message id (numeric ids are sent as numbers)", Destination: &cmd.id},
			&cli.StringFlag{Name: "url", Usage: "page opened on click", Destination: &cmd.url},
			&cli.IntFlag{Name: "ttl", Usage: "seconds the push service keeps the message (0 uses sender.ttl)", Destination: &cmd.ttl},
			cmd.payload.Flag(),
			cmd.subscriptions.Flag(),
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *SendCmd) message() (push.Message, error) {
	if cmd.payload.Set() {
		return cmd.payload.Read()
	}
	if cmd.title == "" {
		return push.Message{}, errors.New("--title or --payload is required")
	}

	m := push.Message{Title: cmd.title, Body: cmd.body, Type: cmd.msgType, URL: cmd.url}
	if n, err := strconv.ParseInt(cmd.id, 10, 64); err == nil {
		m.ID = push.NumberID(n)
	} else {
		m.ID = push.StringID(cmd.id)
	}
	return m, nil
}

func (cmd *SendCmd) descriptors(ctx context.Context) ([]push.Descriptor, error) {
	if cmd.subscriptions.Set() {
		return cmd.subscriptions.Read()
	}

	d, ok, err := platform.CurrentDescriptor(ctx, cmd.app.Platform)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New("this device is not subscribed; run 'ordernotify push subscribe' or pass --subscriptions")
	}
	return []push.Descriptor{d}, nil
}

func (cmd *SendCmd) run(ctx context.Context, c *cli.Command) error {
	msg, err := cmd.message()
	if err != nil {
		return err
	}
	subs, err := cmd.descriptors(ctx)
	if err != nil {
		return err
	}

	payload, err := msg.Payload()
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	if cmd.ttl > 0 {
		cmd.app.Config.Sender.TTL = cmd.ttl
	}

	res, err := cmd.app.NewSender().Broadcast(ctx, subs, payload)
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}

	p := printer.New(c.Root().Writer)
	p.Successf("sent %d of %d", res.Sent, len(subs))
	if res.Skipped > 0 {
		p.Warnf("skipped %d", res.Skipped)
	}
	for _, endpoint := range res.Stale {
		p.Warnf("stale: %s", endpoint)
	}
	return nil
}
