package commands

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/ordernotify/internal/app"
	"github.com/colonyops/ordernotify/internal/app/sweep"
	"github.com/colonyops/ordernotify/internal/printer"
	"github.com/colonyops/ordernotify/pkg/iojson"
)

type HistoryCmd struct {
	flags *Flags
	app   *app.App

	limit      int
	jsonOutput bool
}

func NewHistoryCmd(flags *Flags, a *app.App) *HistoryCmd {
	return &HistoryCmd{flags: flags, app: a}
}

func (cmd *HistoryCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "history",
		Usage: "Inspect the log of shown push notifications",
		Commands: []*cli.Command{
			{
				Name:      "list",
				Usage:     "List recent notifications, newest first",
				UsageText: "ordernotify history list [--limit N] [--json]",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:        "limit",
						Aliases:     []string{"n"},
						Usage:       "maximum entries to show",
						Value:       20,
						Destination: &cmd.limit,
					},
					&cli.BoolFlag{
						Name:        "json",
						Usage:       "output as JSON lines",
						Destination: &cmd.jsonOutput,
					},
				},
				Action: cmd.list,
			},
			{
				Name:   "clear",
				Usage:  "Delete all entries",
				Action: cmd.clear,
			},
			{
				Name:   "prune",
				Usage:  "Delete entries older than history.retention",
				Action: cmd.prune,
			},
		},
	})
	return app
}

type deliveryJSON struct {
	Tag       string    `json:"tag"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	URL       string    `json:"url,omitempty"`
	Collapsed bool      `json:"collapsed"`
	CreatedAt time.Time `json:"created_at"`
}

func (cmd *HistoryCmd) list(ctx context.Context, c *cli.Command) error {
	entries, err := cmd.app.Deliveries.List(ctx, cmd.limit)
	if err != nil {
		return fmt.Errorf("list history: %w", err)
	}
	out := c.Root().Writer

	if cmd.jsonOutput {
		for _, d := range entries {
			if err := iojson.WriteLine(out, deliveryJSON{
				Tag:       d.Tag,
				Type:      d.Type,
				Title:     d.Title,
				Body:      d.Body,
				URL:       d.URL,
				Collapsed: d.Collapsed,
				CreatedAt: d.CreatedAt,
			}); err != nil {
				return fmt.Errorf("encode entry: %w", err)
			}
		}
		return nil
	}

	if len(entries) == 0 {
		printer.New(out).Printf("no notifications yet")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TIME\tTAG\tTITLE\tBODY")
	for _, d := range entries {
		tag := d.Tag
		if d.Collapsed {
			tag += " (replaced)"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.CreatedAt.Local().Format("2006-01-02 15:04"), tag, d.Title, d.Body)
	}
	return w.Flush()
}

func (cmd *HistoryCmd) clear(ctx context.Context, c *cli.Command) error {
	if err := cmd.app.Deliveries.Clear(ctx); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	printer.New(c.Root().Writer).Successf("history cleared")
	return nil
}

func (cmd *HistoryCmd) prune(ctx context.Context, c *cli.Command) error {
	n, err := sweep.Once(ctx, cmd.app.Deliveries, cmd.app.Config.History.Retention, time.Now())
	if err != nil {
		return fmt.Errorf("prune history: %w", err)
	}
	printer.New(c.Root().Writer).Successf("removed %d entries", n)
	return nil
}
