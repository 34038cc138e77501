package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/ordernotify/internal/app"
	"github.com/colonyops/ordernotify/internal/app/sweep"
	"github.com/colonyops/ordernotify/internal/commands"
	"github.com/colonyops/ordernotify/internal/core/config"
	"github.com/colonyops/ordernotify/internal/core/eventbus"
	"github.com/colonyops/ordernotify/internal/core/logging"
	"github.com/colonyops/ordernotify/internal/data/db"
	"github.com/colonyops/ordernotify/internal/platform/prompt"
	"github.com/colonyops/ordernotify/internal/printer"
	"github.com/colonyops/ordernotify/pkg/executil"
	"github.com/colonyops/ordernotify/pkg/logutils"
)

// Set with -ldflags at release time.
var (
	version = "dev"
	commit  = ""
	date    = ""
)

// build describes the binary. A `go install` build has no ldflags, so the
// module version and VCS stamp come from the embedded build info.
func build() string {
	v, rev, at := version, commit, date
	if info, ok := debug.ReadBuildInfo(); ok && v == "dev" {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			v = info.Main.Version
		}
		for _, s := range info.Settings {
			switch {
			case s.Key == "vcs.revision" && rev == "":
				rev = s.Value
			case s.Key == "vcs.time" && at == "":
				at = s.Value
			}
		}
	}
	if len(rev) > 7 {
		rev = rev[:7]
	}
	return strings.TrimSpace(fmt.Sprintf("%s %s %s", v, rev, at))
}

func main() {
	ctx := context.Background()

	var (
		logCloser  func()
		orderApp   = &app.App{}
		database   *db.DB
		stopBgWork context.CancelFunc
	)

	flags := &commands.Flags{}
	root := commands.NewRoot(flags, orderApp, build())

	root.Before = func(ctx context.Context, c *cli.Command) (context.Context, error) {
		cfg, err := config.Load(flags.ConfigPath, flags.DataDir)
		if err != nil {
			return ctx, fmt.Errorf("load config: %w", err)
		}
		flags.Config = cfg

		logFile := flags.LogFile
		if logFile == "" {
			logFile = cfg.LogFile()
		}

		logger, closer, err := logutils.New(flags.LogLevel, logFile)
		if err != nil {
			return ctx, fmt.Errorf("setup logger: %w", err)
		}
		log.Logger = logger.Hook(logging.ContextHook{})
		logCloser = closer

		database, err = app.OpenDB(cfg)
		if err != nil {
			return ctx, fmt.Errorf("open database: %w", err)
		}

		bgCtx, cancel := context.WithCancel(context.Background())
		stopBgWork = cancel

		bus := eventbus.New(64)
		bus.Observe(eventbus.LogObserver(logging.Component("eventbus")))
		go bus.Start(bgCtx)

		a, err := app.New(app.Deps{
			Config:   cfg,
			DB:       database,
			Bus:      bus,
			Exec:     &executil.RealExecutor{},
			Prompter: prompt.NewTerminal(),
			Version:  version,
		})
		if err != nil {
			return ctx, err
		}

		go sweep.Start(bgCtx, a.Deliveries, cfg.History.Retention, cfg.History.SweepInterval)

		// Commands captured orderApp when the tree was built.
		*orderApp = *a

		return printer.WithPrinter(ctx, printer.New(c.Root().Writer)), nil
	}

	root.After = func(ctx context.Context, c *cli.Command) error {
		if stopBgWork != nil {
			stopBgWork()
		}

		if database != nil {
			if err := database.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close database")
				return err
			}
		}

		if logCloser != nil {
			logCloser()
		}
		return nil
	}

	err := root.Run(ctx, os.Args)
	if err == nil {
		return
	}

	code := 1
	var exit cli.ExitCoder
	if errors.As(err, &exit) {
		code = exit.ExitCode()
	}
	if msg := err.Error(); msg != "" {
		fmt.Fprintln(os.Stderr, "ordernotify:", msg)
	}
	os.Exit(code)
}
