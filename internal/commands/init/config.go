package initcmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/colonyops/ordernotify/internal/core/config"
)

// ConfigOptions are the answers collected by the wizard.
type ConfigOptions struct {
	APIBaseURL string
	APIToken   string
	Origin     string
	BrokerURL  string
	Sound      bool
	// VAPIDPublicKey and VAPIDPrivateKey are written to the sender block
	// when set.
	VAPIDPublicKey  string
	VAPIDPrivateKey string
}

// GenerateConfig returns the defaults overlaid with opts.
func GenerateConfig(opts ConfigOptions) config.Config {
	cfg := config.DefaultConfig()
	if opts.APIBaseURL != "" {
		cfg.API.BaseURL = opts.APIBaseURL
	}
	cfg.API.Token = opts.APIToken
	if opts.Origin != "" {
		cfg.Push.Origin = opts.Origin
	}
	if opts.BrokerURL != "" {
		cfg.Push.BrokerURL = opts.BrokerURL
	}
	cfg.Sound.Enabled = opts.Sound
	cfg.Sender.VAPIDPublicKey = opts.VAPIDPublicKey
	cfg.Sender.VAPIDPrivateKey = opts.VAPIDPrivateKey
	return cfg
}

const header = "# ordernotify configuration\n# Environment variables prefixed ORDERNOTIFY_ override secrets in this file.\n\n"

// WriteConfig writes cfg as YAML, creating parent directories.
func WriteConfig(cfg config.Config, configPath string) error {
	var buf bytes.Buffer
	buf.WriteString(header)

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	// The file may hold the API token and VAPID private key.
	return os.WriteFile(configPath, buf.Bytes(), 0o600)
}
