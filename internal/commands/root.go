package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/ordernotify/internal/app"
)

// NewRoot builds the command tree. a is populated by the caller's Before hook
// before any action runs.
func NewRoot(flags *Flags, a *app.App, version string) *cli.Command {
	root := &cli.Command{
		Name:      "ordernotify",
		Usage:     "Order status notifications for Szamma Mia",
		UsageText: "ordernotify [global options] command [command options]",
		Description: `ordernotify follows your orders and tells you when their status changes.

It polls the order service while a watch session is open and renders pushes
from the broker as desktop notifications, even when no session is open.

Run 'ordernotify' with no arguments to open the interactive watch view.
Run 'ordernotify init' to create a configuration file.`,
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("ORDERNOTIFY_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to <data-dir>/ordernotify.log, '-' for stderr)",
				Sources:     cli.EnvVars("ORDERNOTIFY_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("ORDERNOTIFY_CONFIG"),
				Value:       DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("ORDERNOTIFY_DATA_DIR"),
				Value:       DefaultDataDir(),
				Destination: &flags.DataDir,
			},
		},
	}

	watchCmd := NewWatchCmd(flags, a)

	root = watchCmd.Register(root)
	root = NewPollCmd(flags, a).Register(root)
	root = NewPushCmd(flags, a).Register(root)
	root = NewWorkerCmd(flags, a).Register(root)
	root = NewHistoryCmd(flags, a).Register(root)
	root = NewDoctorCmd(flags, a).Register(root)
	root = NewSendCmd(flags, a).Register(root)
	root = NewKeysCmd(flags).Register(root)
	root = NewInitCmd(flags).Register(root)
	root = NewConfigValidateCmd(flags).Register(root)

	// Watch is the default action when no subcommand is provided.
	root.Flags = append(root.Flags, watchCmd.Flags()...)
	root.Action = func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() > 0 {
			return fmt.Errorf("unknown command %q. Run 'ordernotify --help' for usage", c.Args().First())
		}
		return watchCmd.Run(ctx, c)
	}

	return root
}
