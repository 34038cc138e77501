package commands

import (
	"os"
	"path/filepath"

	"github.com/colonyops/ordernotify/internal/core/config"
)

// Flags carries the global flag values. Config is loaded by the root Before
// hook.
type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string
	DataDir    string

	Config *config.Config
}

func DefaultConfigPath() string {
	return filepath.Join(xdgDir("XDG_CONFIG_HOME", ".config"), "ordernotify", "config.yaml")
}

func DefaultDataDir() string {
	return filepath.Join(xdgDir("XDG_DATA_HOME", ".local", "share"), "ordernotify")
}

// xdgDir returns $env, or the fallback path under the home directory.
func xdgDir(env string, fallback ...string) string {
	if dir := os.Getenv(env); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(append([]string{home}, fallback...)...)
}
