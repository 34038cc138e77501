package initcmd

import (
	"context"
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/colonyops/ordernotify/internal/core/config"
	"github.com/colonyops/ordernotify/internal/core/doctor"
	"github.com/colonyops/ordernotify/internal/printer"
	"github.com/colonyops/ordernotify/internal/pushsend"
)

// WizardOptions configures the wizard behavior.
type WizardOptions struct {
	ConfigPath string
	DataDir    string
	Yes        bool // skip prompts, use defaults
	Force      bool // overwrite existing config
	// Sender generates a VAPID key pair for `ordernotify send`.
	Sender bool
}

// Wizard orchestrates the init process.
type Wizard struct {
	opts WizardOptions
}

// NewWizard creates a new init wizard.
func NewWizard(opts WizardOptions) *Wizard {
	return &Wizard{opts: opts}
}

// Run executes the wizard.
func (w *Wizard) Run(ctx context.Context) error {
	p := printer.Ctx(ctx)

	if ConfigExists(w.opts.ConfigPath) && !w.opts.Force {
		if w.opts.Yes {
			return fmt.Errorf("config exists at %s; use --force to overwrite", w.opts.ConfigPath)
		}

		var overwrite bool
		err := huh.NewForm(huh.NewGroup(
			huh.NewConfirm().
				Title("Config file already exists").
				Description(w.opts.ConfigPath + "\nOverwrite? (a backup will be created)").
				Value(&overwrite),
		)).RunWithContext(ctx)
		if err != nil {
			return err
		}
		if !overwrite {
			p.Infof("Init cancelled")
			return nil
		}
	}

	defaults := config.DefaultConfig()
	opts := ConfigOptions{
		APIBaseURL: defaults.API.BaseURL,
		Origin:     defaults.Push.Origin,
		BrokerURL:  defaults.Push.BrokerURL,
		Sound:      defaults.Sound.Enabled,
	}

	if !w.opts.Yes {
		if err := w.promptUser(ctx, &opts); err != nil {
			return err
		}
	}

	if w.opts.Sender {
		priv, pub, err := pushsend.GenerateKeys()
		if err != nil {
			return fmt.Errorf("generate VAPID keys: %w", err)
		}
		opts.VAPIDPublicKey, opts.VAPIDPrivateKey = pub, priv
		p.Successf("Generated VAPID key pair")
	}

	if ConfigExists(w.opts.ConfigPath) {
		backupPath, err := BackupConfig(w.opts.ConfigPath)
		if err != nil {
			return fmt.Errorf("backup config: %w", err)
		}
		if backupPath != "" {
			p.Successf("Backed up config to: %s", backupPath)
		}
	}

	cfg := GenerateConfig(opts)
	if err := WriteConfig(cfg, w.opts.ConfigPath); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	p.Successf("Created config: %s", w.opts.ConfigPath)

	p.Printf("")
	cfg.DataDir = w.opts.DataDir
	result := doctor.NewConfigCheck(&cfg, w.opts.ConfigPath).Run(ctx)

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

	w.printNextSteps(p)
	return nil
}

func (w *Wizard) promptUser(ctx context.Context, opts *ConfigOptions) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Order service URL").
				Description("Base URL of the API, including the /api prefix").
				Value(&opts.APIBaseURL),
			huh.NewInput().
				Title("API token").
				Description("Bearer token for your account (leave empty to set ORDERNOTIFY_API_TOKEN)").
				EchoMode(huh.EchoModePassword).
				Value(&opts.APIToken),
			huh.NewInput().
				Title("App address").
				Description("Notification clicks open pages under this origin").
				Value(&opts.Origin),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Push broker").
				Description("AMQP URL carrying pushes for this device").
				Value(&opts.BrokerURL),
			huh.NewConfirm().
				Title("Play a chime for foreground pushes?").
				Value(&opts.Sound),
		),
	)
	return form.RunWithContext(ctx)
}

func (w *Wizard) printNextSteps(p *printer.Printer) {
	p.Printf("")
	p.Section("Next Steps")
	p.Printf("  1. Run 'ordernotify doctor' to check the order service and broker")
	p.Printf("  2. Run 'ordernotify push subscribe' to turn on push notifications")
	p.Printf("  3. Run 'ordernotify' to watch your orders")
}
