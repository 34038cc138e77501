package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/colonyops/ordernotify/internal/core/config"
	"github.com/colonyops/ordernotify/internal/pushsend"
)

type KeysCmd struct {
	flags *Flags
}

func NewKeysCmd(flags *Flags) *KeysCmd {
	return &KeysCmd{flags: flags}
}

func (cmd *KeysCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "keys",
		Usage:     "Generate a VAPID key pair",
		UsageText: "ordernotify keys >> config.yaml",
		Description: `Prints a new application server key pair as a sender config block.

The public key is what the order service returns from /push/vapid-key.`,
		Action: cmd.run,
	})
	return app
}

func (cmd *KeysCmd) run(_ context.Context, c *cli.Command) error {
	priv, pub, err := pushsend.GenerateKeys()
	if err != nil {
		return fmt.Errorf("generate keys: %w", err)
	}

	out := struct {
		Sender config.SenderConfig `yaml:"sender"`
	}{
		Sender: config.SenderConfig{
			VAPIDPublicKey:  pub,
			VAPIDPrivateKey: priv,
			Subject:         config.DefaultConfig().Sender.Subject,
			TTL:             config.DefaultConfig().Sender.TTL,
		},
	}

	enc := yaml.NewEncoder(c.Root().Writer)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode keys: %w", err)
	}
	return enc.Close()
}
