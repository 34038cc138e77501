// Package app wires the ordernotify components from configuration. Commands
// and the terminal UI consume App instead of building dependencies.
package app

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/colonyops/ordernotify/internal/api"
	"github.com/colonyops/ordernotify/internal/core/config"
	"github.com/colonyops/ordernotify/internal/core/degrade"
	"github.com/colonyops/ordernotify/internal/core/doctor"
	"github.com/colonyops/ordernotify/internal/core/eventbus"
	"github.com/colonyops/ordernotify/internal/core/logging"
	"github.com/colonyops/ordernotify/internal/core/push"
	"github.com/colonyops/ordernotify/internal/core/seen"
	"github.com/colonyops/ordernotify/internal/data/db"
	"github.com/colonyops/ordernotify/internal/data/stores"
	"github.com/colonyops/ordernotify/internal/platform/local"
	"github.com/colonyops/ordernotify/internal/platform/prompt"
	"github.com/colonyops/ordernotify/internal/pushsend"
	"github.com/colonyops/ordernotify/internal/reconcile"
	"github.com/colonyops/ordernotify/internal/relay"
	"github.com/colonyops/ordernotify/internal/relay/redisrelay"
	"github.com/colonyops/ordernotify/internal/sound"
	"github.com/colonyops/ordernotify/internal/subscription"
	"github.com/colonyops/ordernotify/internal/transport/amqppush"
	"github.com/colonyops/ordernotify/internal/tray"
	"github.com/colonyops/ordernotify/internal/worker"
	"github.com/colonyops/ordernotify/pkg/executil"
)

// App is the central entry point for all ordernotify operations.
type App struct {
	Config   *config.Config
	DB       *db.DB
	Bus      *eventbus.EventBus
	Reporter *degrade.Reporter
	Exec     executil.Executor
	// Prompts routes permission prompts; the watch view redirects it while
	// it owns the terminal.
	Prompts *prompt.Switch

	KV            *stores.KVStore
	Deliveries    *stores.DeliveryStore
	API           *api.Client
	Platform      *local.Platform
	Subscriptions *subscription.Manager
	Seen          *seen.Store
}

// Deps are the inputs to New that tests and main supply.
type Deps struct {
	Config   *config.Config
	DB       *db.DB
	Bus      *eventbus.EventBus
	Exec     executil.Executor
	Prompter prompt.Confirmer
	Version  string
}

// New constructs an App.
func New(d Deps) (*App, error) {
	cfg := d.Config
	reporter := degrade.NewReporter(logging.Component("degrade"), eventbus.DegradeSink(d.Bus))
	kvStore := stores.NewKVStore(d.DB)
	prompts := prompt.NewSwitch(d.Prompter)

	client := api.New(api.Options{
		BaseURL:   cfg.API.BaseURL,
		Token:     cfg.API.Token,
		Timeout:   cfg.API.Timeout,
		UserAgent: "ordernotify/" + d.Version,
	})

	p, err := local.New(kvStore, local.Options{
		EndpointBase: cfg.Push.BrokerURL,
		QueuePrefix:  cfg.Push.QueuePrefix,
		Scope:        cfg.Push.Scope,
		AppName:      cfg.Push.AppName,
		Prompter:     prompts,
	})
	if err != nil {
		return nil, fmt.Errorf("push platform: %w", err)
	}

	return &App{
		Config:        cfg,
		DB:            d.DB,
		Bus:           d.Bus,
		Reporter:      reporter,
		Exec:          d.Exec,
		Prompts:       prompts,
		KV:            kvStore,
		Deliveries:    stores.NewDeliveryStore(d.DB),
		API:           client,
		Platform:      p,
		Subscriptions: subscription.New(p, client, d.Bus, reporter),
		Seen:          seen.NewStore(kvStore, reporter),
	}, nil
}

// OpenDB opens the database in cfg.DataDir. A corrupt database is moved
// aside and a fresh one created.
func OpenDB(cfg *config.Config) (*db.DB, error) {
	opts := db.OpenOptions{
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
		BusyTimeout:  cfg.Database.BusyTimeout,
	}

	database, err := db.Open(cfg.DataDir, opts)
	if err == nil || !stores.IsCorruptionError(err) {
		return database, err
	}

	backup, rerr := stores.RecoverFromCorruption(cfg.DataDir)
	if rerr != nil {
		return nil, fmt.Errorf("recover database: %w", rerr)
	}
	log.Warn().Err(err).Str("backup", backup).Msg("database corrupt, starting fresh")
	return db.Open(cfg.DataDir, opts)
}

// NewReconciler creates a status reconciler polling the API.
func (a *App) NewReconciler() *reconcile.Reconciler {
	return reconcile.New(a.API, a.Seen, reconcile.Options{
		Interval: a.Config.Poll.Interval,
		Bus:      a.Bus,
		Reporter: a.Reporter,
	})
}

// NewTray creates the notification center, rendering through the configured
// notifier command and recording into the delivery log.
func (a *App) NewTray() *tray.Center {
	var backend tray.Backend = tray.LogBackend{}
	if a.Exec != nil {
		backend = &tray.CommandBackend{
			Exec:         a.Exec,
			AppName:      a.Config.Push.AppName,
			ShowCommand:  a.Config.Notifier.Command,
			CloseCommand: a.Config.Notifier.CloseCommand,
		}
	}
	return tray.NewCenter(tray.Config{
		Backend:  backend,
		Log:      a.Deliveries,
		Reporter: a.Reporter,
		Expiry:   a.Config.Notifier.Expiry,
	})
}

// NewHub creates the worker's client registry.
func (a *App) NewHub() *relay.Hub {
	return relay.NewHub(relay.HubConfig{
		Origin:      a.Config.Push.Origin,
		Scope:       a.Config.Push.Scope,
		Exec:        a.Exec,
		OpenCommand: a.Config.Notifier.OpenCommand,
	})
}

// NewWorker creates a push delivery worker rendering into center.
func (a *App) NewWorker(center *tray.Center, hub *relay.Hub) *worker.Worker {
	return worker.New(worker.Config{
		AppName:  a.Config.Push.AppName,
		Icon:     a.Config.Push.Icon,
		Origin:   a.Config.Push.Origin,
		Tray:     center,
		Hub:      hub,
		Bus:      a.Bus,
		Reporter: a.Reporter,
	})
}

// Player returns the chime player, silent when sound is disabled.
func (a *App) Player() sound.Player {
	if !a.Config.Sound.Enabled || a.Exec == nil {
		return sound.Silent{}
	}
	return &sound.CommandPlayer{Exec: a.Exec, Command: a.Config.Sound.Player}
}

// NewListener creates a foreground relay listener.
func (a *App) NewListener() *relay.Listener {
	return relay.NewListener(a.Player(), a.Bus, a.Reporter)
}

// NewSender creates a push sender from the sender config.
func (a *App) NewSender() *pushsend.Sender {
	return pushsend.New(pushsend.Options{
		BrokerURL:       a.Config.Push.BrokerURL,
		VAPIDPublicKey:  a.Config.Sender.VAPIDPublicKey,
		VAPIDPrivateKey: a.Config.Sender.VAPIDPrivateKey,
		Subject:         a.Config.Sender.Subject,
		TTL:             a.Config.Sender.TTL,
	})
}

// RedisOptions returns the redis relay settings.
func (a *App) RedisOptions() redisrelay.Options {
	return redisrelay.Options{
		Addr:     a.Config.Relay.RedisAddr,
		Password: a.Config.Relay.RedisPassword,
		DB:       a.Config.Relay.RedisDB,
		Channel:  a.Config.Relay.Channel,
	}
}

// DoctorChecks returns the health checks for this configuration.
func (a *App) DoctorChecks() []doctor.Check {
	cfg := a.Config
	checks := []doctor.Check{
		doctor.NewToolsCheck(
			doctor.Tool{Label: "notifier", Command: notifierBinary(cfg.Notifier.Command), Purpose: "desktop notifications"},
			doctor.Tool{Label: "player", Command: cfg.Sound.Player, Purpose: "foreground chime"},
			doctor.Tool{Label: "opener", Command: cfg.Notifier.OpenCommand, Purpose: "open on click"},
		),
		doctor.NewAPICheck(a.API, cfg.API.BaseURL),
		doctor.NewReachabilityCheck("Broker", redactedBroker(cfg.Push.BrokerURL), func(ctx context.Context) error {
			conn, err := amqppush.Dial(cfg.Push.BrokerURL)
			if err != nil {
				return err
			}
			return conn.Close()
		}),
		doctor.NewPlatformCheck(a.Platform),
	}

	if a.DB != nil {
		checks = append([]doctor.Check{doctor.NewSchemaCheck(filepath.Join(cfg.DataDir, db.FileName), a.schema)}, checks...)
	}

	if cfg.Relay.Mode == config.RelayRedis {
		checks = append(checks, doctor.NewReachabilityCheck("Relay", cfg.Relay.RedisAddr, func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			defer cancel()
			rdb, err := redisrelay.Dial(ctx, a.RedisOptions())
			if err != nil {
				return err
			}
			return rdb.Close()
		}).Optional())
	}

	return checks
}

func (a *App) schema(ctx context.Context) (int, int, error) {
	status, err := a.DB.Schema(ctx)
	return status.Current, status.Latest, err
}

func notifierBinary(command string) string {
	if command == "" {
		return "notify-send"
	}
	return command
}

func redactedBroker(brokerURL string) string {
	base, err := push.EndpointBase(brokerURL)
	if err != nil {
		return "broker"
	}
	return base
}
