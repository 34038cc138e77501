package commands

import (
	"context"
	"errors"

	"github.com/hay-kot/criterio"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/ordernotify/internal/core/config"
	"github.com/colonyops/ordernotify/internal/printer"
	"github.com/colonyops/ordernotify/pkg/iojson"
)

type ConfigValidateCmd struct {
	flags  *Flags
	format string
}

func NewConfigValidateCmd(flags *Flags) *ConfigValidateCmd {
	return &ConfigValidateCmd{flags: flags}
}

func (cmd *ConfigValidateCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Commands: []*cli.Command{
			{
				Name:        "validate",
				Usage:       "Validate configuration file",
				UsageText:   "ordernotify config validate [options]",
				Description: "Validates the configuration file, checking URLs, command templates and file paths.",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "format",
						Usage:       "output format (text, json)",
						Value:       "text",
						Destination: &cmd.format,
					},
				},
				Action: cmd.run,
			},
		},
	})

	return app
}

type configProblem struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type configReport struct {
	Valid    bool                       `json:"valid"`
	Errors   []configProblem            `json:"errors,omitempty"`
	Warnings []config.ValidationWarning `json:"warnings,omitempty"`
}

// problems flattens a validation error into one entry per field.
func problems(err error) []configProblem {
	if err == nil {
		return nil
	}
	var fields criterio.FieldErrors
	if !errors.As(err, &fields) {
		return []configProblem{{Field: "config", Message: err.Error()}}
	}
	out := make([]configProblem, 0, len(fields))
	for _, fe := range fields {
		out = append(out, configProblem{Field: fe.Field, Message: fe.Err.Error()})
	}
	return out
}

func (cmd *ConfigValidateCmd) run(ctx context.Context, c *cli.Command) error {
	errs := problems(cmd.flags.Config.ValidateDeep(cmd.flags.ConfigPath))
	report := configReport{
		Valid:    len(errs) == 0,
		Errors:   errs,
		Warnings: cmd.flags.Config.Warnings(),
	}

	if cmd.format == "json" {
		if err := iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, report); err != nil {
			return err
		}
		if !report.Valid {
			return cli.Exit("", 1)
		}
		return nil
	}

	p := printer.Ctx(ctx)
	p.Section("Config " + cmd.flags.ConfigPath)
	for _, w := range report.Warnings {
		item := w.Category
		if w.Item != "" {
			item += "." + w.Item
		}
		p.WarnItem(item, w.Message)
	}
	for _, e := range report.Errors {
		p.FailItem(e.Field, e.Message)
	}

	p.Printf("")
	if report.Valid {
		p.Successf("Configuration is valid")
		return nil
	}
	p.Errorf("%d problem(s) found", len(report.Errors))
	return cli.Exit("", 1)
}
