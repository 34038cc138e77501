package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/ordernotify/internal/app"
	"github.com/colonyops/ordernotify/internal/printer"
	"github.com/colonyops/ordernotify/pkg/iojson"
)

type PollCmd struct {
	flags *Flags
	app   *app.App

	jsonOutput bool
	reset      bool
}

func NewPollCmd(flags *Flags, a *app.App) *PollCmd {
	return &PollCmd{flags: flags, app: a}
}

func (cmd *PollCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "poll",
		Usage:     "Run a single reconcile cycle",
		UsageText: "ordernotify poll [--json] [--reset]",
		Description: `Fetches your orders once and prints the status changes since the last poll.

Orders seen for the first time are recorded without a notification, so the
first run after a fresh install prints nothing. --reset forgets every seen
status first, so the cycle re-bootstraps and prints nothing.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output changes as JSON lines",
				Destination: &cmd.jsonOutput,
			},
			&cli.BoolFlag{
				Name:        "reset",
				Usage:       "forget seen order statuses before polling",
				Destination: &cmd.reset,
			},
		},
		Action: cmd.run,
	})
	return app
}

type recordJSON struct {
	OrderID    int64  `json:"order_id"`
	Status     string `json:"status"`
	ETAMinutes *int   `json:"eta_minutes,omitempty"`
	Message    string `json:"message"`
}

func (cmd *PollCmd) run(ctx context.Context, c *cli.Command) error {
	if cmd.reset {
		if err := cmd.app.Seen.Reset(ctx); err != nil {
			return err
		}
	}

	records := cmd.app.NewReconciler().Poll(ctx)
	out := c.Root().Writer

	if cmd.jsonOutput {
		for _, r := range records {
			if err := iojson.WriteLine(out, recordJSON{
				OrderID:    r.OrderID,
				Status:     string(r.Status),
				ETAMinutes: r.ETAMinutes,
				Message:    r.Message,
			}); err != nil {
				return fmt.Errorf("encode record: %w", err)
			}
		}
		return nil
	}

	p := printer.New(out)
	if len(records) == 0 {
		p.Printf("no status changes")
		return nil
	}
	for _, r := range records {
		p.Infof("#%d %s", r.OrderID, r.Message)
	}
	return nil
}
