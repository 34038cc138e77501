package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/ordernotify/internal/app"
	"github.com/colonyops/ordernotify/internal/core/doctor"
	"github.com/colonyops/ordernotify/internal/printer"
	"github.com/colonyops/ordernotify/pkg/iojson"
)

type DoctorCmd struct {
	flags  *Flags
	app    *app.App
	format string
}

func NewDoctorCmd(flags *Flags, a *app.App) *DoctorCmd {
	return &DoctorCmd{flags: flags, app: a}
}

func (cmd *DoctorCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:        "doctor",
		Usage:       "Run health checks on your ordernotify setup",
		UsageText:   "ordernotify doctor [options]",
		Description: "Runs diagnostic checks on configuration, helper commands, the order service and the push broker.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "format",
				Usage:       "output format (text, json)",
				Value:       "text",
				Destination: &cmd.format,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *DoctorCmd) checks() []doctor.Check {
	return append([]doctor.Check{doctor.NewConfigCheck(cmd.app.Config, cmd.flags.ConfigPath)}, cmd.app.DoctorChecks()...)
}

func (cmd *DoctorCmd) run(ctx context.Context, c *cli.Command) error {
	results := doctor.RunAll(ctx, cmd.checks())

	if cmd.format == "json" {
		return cmd.outputJSON(c, results)
	}

	return cmd.outputText(c, results)
}

func (cmd *DoctorCmd) outputJSON(c *cli.Command, results []doctor.Result) error {
	out := struct {
		Summary doctor.Tally    `json:"summary"`
		Hints   []string        `json:"hints,omitempty"`
		Checks  []doctor.Result `json:"checks"`
	}{
		Summary: doctor.Summary(results),
		Hints:   doctor.Hints(results),
		Checks:  results,
	}

	return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, out)
}

func (cmd *DoctorCmd) outputText(c *cli.Command, results []doctor.Result) error {
	p := printer.New(c.Root().ErrWriter)

	p.Section("ordernotify doctor")
	p.Printf("")

	for _, result := range results {
		p.Section(result.Name)
		for _, item := range result.Items {
			switch item.Status {
			case doctor.StatusPass:
				p.CheckItem(item.Label, item.Detail)
			case doctor.StatusWarn:
				p.WarnItem(item.Label, item.Detail)
			case doctor.StatusFail:
				p.FailItem(item.Label, item.Detail)
			}
		}
		p.Printf("")
	}

	tally := doctor.Summary(results)
	p.Printf("%d passed  %d warnings  %d failed", tally.Passed, tally.Warned, tally.Failed)

	if hints := doctor.Hints(results); len(hints) > 0 {
		p.Printf("")
		for _, hint := range hints {
			p.Infof("try: %s", hint)
		}
	}

	if !tally.Healthy() {
		return cli.Exit(fmt.Sprintf("%d check(s) failed", tally.Failed), 1)
	}

	return nil
}
