package commands

import (
	"context"

	"github.com/urfave/cli/v3"

	initcmd "github.com/colonyops/ordernotify/internal/commands/init"
)

type InitCmd struct {
	flags  *Flags
	yes    bool
	force  bool
	sender bool
}

func NewInitCmd(flags *Flags) *InitCmd {
	return &InitCmd{flags: flags}
}

func (cmd *InitCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "init",
		Usage:     "Create a configuration file with an interactive wizard",
		UsageText: "ordernotify init [options]",
		Description: `Sets up ordernotify for first-time use.

The wizard asks for the order service URL, your API token, the app address
and the push broker, then writes ~/.config/ordernotify/config.yaml and
validates it.

Use --yes to accept all defaults without prompts.
Use --force to overwrite existing configuration.
Use --sender to also generate VAPID keys for 'ordernotify send'.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "yes",
				Aliases:     []string{"y"},
				Usage:       "accept defaults without prompting",
				Destination: &cmd.yes,
			},
			&cli.BoolFlag{
				Name:        "force",
				Aliases:     []string{"f"},
				Usage:       "overwrite existing configuration",
				Destination: &cmd.force,
			},
			&cli.BoolFlag{
				Name:        "sender",
				Usage:       "generate VAPID keys for sending pushes",
				Destination: &cmd.sender,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *InitCmd) run(ctx context.Context, _ *cli.Command) error {
	wizard := initcmd.NewWizard(initcmd.WizardOptions{
		ConfigPath: cmd.flags.ConfigPath,
		DataDir:    cmd.flags.DataDir,
		Yes:        cmd.yes,
		Force:      cmd.force,
		Sender:     cmd.sender,
	})
	return wizard.Run(ctx)
}
