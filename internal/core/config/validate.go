package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"strings"

	"github.com/colonyops/ordernotify/internal/platform"
	"github.com/colonyops/ordernotify/pkg/tmpl"
	"github.com/hay-kot/criterio"
)

// Validate checks structural validity. All field errors are reported at once.
func (c *Config) Validate() error {
	var errs criterio.FieldErrorsBuilder

	if c.DataDir == "" {
		errs = errs.Append("data_dir", errors.New("cannot be empty"))
	}
	if err := httpURL(c.API.BaseURL); err != nil {
		errs = errs.Append("api.base_url", err)
	}
	if c.API.Timeout < 0 {
		errs = errs.Append("api.timeout", errors.New("must not be negative"))
	}
	if c.Poll.Interval < 0 {
		errs = errs.Append("poll.interval", errors.New("must not be negative"))
	}
	if err := brokerURL(c.Push.BrokerURL); err != nil {
		errs = errs.Append("push.broker_url", err)
	}
	if c.Push.QueuePrefix == "" {
		errs = errs.Append("push.queue_prefix", errors.New("cannot be empty"))
	}
	if !strings.HasPrefix(c.Push.Scope, "/") {
		errs = errs.Append("push.scope", fmt.Errorf("must be an absolute path, got %q", c.Push.Scope))
	}
	if err := httpURL(c.Push.Origin); err != nil {
		errs = errs.Append("push.origin", err)
	}
	if c.Push.AppName == "" {
		errs = errs.Append("push.app_name", errors.New("cannot be empty"))
	}

	switch c.Relay.Mode {
	case RelayLocal:
	case RelayRedis:
		if c.Relay.RedisAddr == "" {
			errs = errs.Append("relay.redis_addr", errors.New("required when relay.mode is redis"))
		}
	default:
		errs = errs.Append("relay.mode", fmt.Errorf("must be %q or %q, got %q", RelayLocal, RelayRedis, c.Relay.Mode))
	}

	if c.History.Retention < 0 {
		errs = errs.Append("history.retention", errors.New("must not be negative"))
	}
	if c.Database.MaxOpenConns < 1 {
		errs = errs.Append("database.max_open_conns", errors.New("must be at least 1"))
	}
	if c.Sender.TTL < 0 {
		errs = errs.Append("sender.ttl", errors.New("must not be negative"))
	}
	if c.Sender.VAPIDPublicKey != "" {
		if _, err := platform.ParseApplicationServerKey(c.Sender.VAPIDPublicKey); err != nil {
			errs = errs.Append("sender.vapid_public_key", err)
		}
	}

	return errs.ToError()
}

// ValidationWarning represents a non-fatal configuration issue.
type ValidationWarning struct {
	Category string `json:"category"`
	Item     string `json:"item,omitempty"`
	Message  string `json:"message"`
}

// ValidateDeep runs Validate and then checks templates, binaries and
// file access. configPath may be empty to skip the config file check.
func (c *Config) ValidateDeep(configPath string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return criterio.ValidateStruct(
		validateConfigFile(configPath),
		criterio.Run("data_dir", c.DataDir, isDirectoryOrNotExist),
		c.validateTemplates(),
	)
}

// Warnings returns non-fatal configuration issues.
func (c *Config) Warnings() []ValidationWarning {
	var warnings []ValidationWarning

	if c.API.Token == "" {
		warnings = append(warnings, ValidationWarning{
			Category: "API",
			Item:     "token",
			Message:  "no API token set; authenticated endpoints will be rejected",
		})
	}
	if c.Sound.Enabled {
		if err := executableExists(c.Sound.Player); err != nil {
			warnings = append(warnings, ValidationWarning{
				Category: "Sound",
				Item:     "player",
				Message:  err.Error(),
			})
		}
	}
	if c.Sender.VAPIDPrivateKey == "" || c.Sender.VAPIDPublicKey == "" {
		warnings = append(warnings, ValidationWarning{
			Category: "Sender",
			Message:  "VAPID keys not set; web push endpoints will be skipped by send",
		})
	}

	return warnings
}

func (c *Config) validateTemplates() error {
	var errs criterio.FieldErrorsBuilder

	notifierData := map[string]any{
		"AppName": "app", "Title": "title", "Body": "body", "Icon": "icon",
		"Tag": "order-1", "URL": "/", "Urgency": "normal", "Actions": []any{},
	}
	for field, command := range map[string]string{
		"notifier.command":       c.Notifier.Command,
		"notifier.close_command": c.Notifier.CloseCommand,
	} {
		if command == "" {
			continue
		}
		if _, err := tmpl.Render(command, notifierData); err != nil {
			errs = errs.Append(field, fmt.Errorf("template error: %w", err))
		}
	}

	if c.Notifier.OpenCommand != "" {
		if _, err := tmpl.Render(c.Notifier.OpenCommand, map[string]any{"URL": "/"}); err != nil {
			errs = errs.Append("notifier.open_command", fmt.Errorf("template error: %w", err))
		}
	}

	return errs.ToError()
}

func validateConfigFile(configPath string) error {
	if configPath == "" {
		return nil
	}

	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		return nil // not found is fine, using defaults
	}
	if err != nil {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("cannot access: %w", err))
	}
	if info.IsDir() {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("%s is a directory, not a file", configPath))
	}
	return nil
}

// isDirectoryOrNotExist validates that a path is a directory or doesn't exist.
func isDirectoryOrNotExist(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil // will be created
	}
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("exists but is not a directory")
	}
	return nil
}

// executableExists checks the first word of a command line is on PATH.
func executableExists(command string) error {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return errors.New("no command configured")
	}
	if _, err := exec.LookPath(fields[0]); err != nil {
		return fmt.Errorf("executable not found: %s", fields[0])
	}
	return nil
}

func httpURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("must be an http(s) url, got %q", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", raw)
	}
	return nil
}

func brokerURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return fmt.Errorf("must be an amqp(s) url, got %q", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", raw)
	}
	return nil
}
