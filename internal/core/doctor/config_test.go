package doctor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/ordernotify/internal/core/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.API.Token = "secret"
	cfg.Sound.Enabled = false
	return &cfg
}

func TestConfigCheck_Valid(t *testing.T) {
	result := NewConfigCheck(testConfig(t), "").Run(context.Background())

	require.NotEmpty(t, result.Items)
	assert.Equal(t, "Configuration", result.Name)
	assert.Equal(t, StatusPass, result.Items[0].Status)
}

func TestConfigCheck_FieldErrors(t *testing.T) {
	cfg := testConfig(t)
	cfg.Push.Scope = "orders"

	result := NewConfigCheck(cfg, "").Run(context.Background())

	var failed []string
	for _, item := range result.Items {
		if item.Status == StatusFail {
			failed = append(failed, item.Label)
		}
	}
	assert.Equal(t, []string{"push.scope"}, failed)
}

func TestConfigCheck_Warnings(t *testing.T) {
	cfg := testConfig(t)
	cfg.API.Token = ""

	result := NewConfigCheck(cfg, "").Run(context.Background())

	var warned []string
	for _, item := range result.Items {
		if item.Status == StatusWarn {
			warned = append(warned, item.Label)
		}
	}
	assert.Contains(t, warned, "API.token")
}
