package commands

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/ordernotify/internal/app"
	"github.com/colonyops/ordernotify/internal/profiler"
	"github.com/colonyops/ordernotify/internal/tray"
	"github.com/colonyops/ordernotify/internal/worker"
)

type WorkerCmd struct {
	flags *Flags
	app   *app.App

	debugAddr string
}

func NewWorkerCmd(flags *Flags, a *app.App) *WorkerCmd {
	return &WorkerCmd{flags: flags, app: a}
}

func (cmd *WorkerCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "worker",
		Usage:     "Run the push worker without a page session",
		UsageText: "ordernotify worker [--debug-addr 127.0.0.1:6060]",
		Description: `Consumes pushes for this device and renders them as desktop notifications
while no watch session is open.

In redis relay mode pushes are also forwarded to 'ordernotify watch --no-worker'
sessions. Clicking a notification opens the page in the browser.

With --debug-addr the worker also serves /healthz and /debug/pprof/.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "debug-addr",
				Usage:       "serve health and pprof endpoints on this address",
				Sources:     cli.EnvVars("ORDERNOTIFY_DEBUG_ADDR"),
				Destination: &cmd.debugAddr,
			},
		},
		Action: cmd.run,
	})
	return app
}

type workerHealth struct {
	State      string `json:"state"`
	Subscribed bool   `json:"subscribed"`
	Relay      string `json:"relay"`
	Visible    int    `json:"visible_notifications"`
	Alerts     int    `json:"alerts"`
}

func (cmd *WorkerCmd) run(ctx context.Context, _ *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub, release, err := cmd.app.NewRelayHub(ctx)
	if err != nil {
		return err
	}
	defer release()

	center := cmd.app.NewTray()
	w := cmd.app.NewWorker(center, hub)

	if cmd.debugAddr != "" {
		srv := profiler.New(cmd.debugAddr, cmd.health(w, center))
		if err := srv.Start(ctx); err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("failed to shut down debug server")
			}
		}()
	}

	if err := w.Start(ctx); err != nil {
		return err
	}

	log.Info().Str("relay", string(cmd.app.Config.Relay.Mode)).Msg("worker running")
	return cmd.app.ConsumePush(ctx, w.Push)
}

func (cmd *WorkerCmd) health(w *worker.Worker, center *tray.Center) profiler.HealthFunc {
	return func() any {
		return workerHealth{
			State:      w.State().String(),
			Subscribed: cmd.app.Subscriptions.IsSubscribed(),
			Relay:      string(cmd.app.Config.Relay.Mode),
			Visible:    len(center.Visible()),
			Alerts:     center.Alerts(),
		}
	}
}
