package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buddypal/wifiprov/pkg/provisioning"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "BuddyPal", cfg.DeviceName)
	assert.Equal(t, provisioning.PathDual, cfg.ProvisioningPath())
	assert.Equal(t, uint16(0x20), cfg.Advertising().MinInterval)
	assert.Equal(t, uint16(0x40), cfg.Advertising().MaxInterval)
	assert.Equal(t, 60*time.Second, cfg.Timing.AttemptTimeout)
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prov.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
device_name: Kitchen
path: ble
ble:
  adv_min_interval: 0x30
timing:
  attempt_timeout: 30s
settings:
  backend: sqlite
  path: /tmp/wifi.db
log:
  level: debug
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Kitchen", cfg.DeviceName)
	assert.Equal(t, provisioning.PathBLE, cfg.ProvisioningPath())
	assert.Equal(t, uint16(0x30), cfg.BLE.AdvMinInterval)
	assert.Equal(t, uint16(0x40), cfg.BLE.AdvMaxInterval)
	assert.True(t, cfg.BLE.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Timing.AttemptTimeout)
	assert.Equal(t, time.Second, cfg.Timing.GracePeriod)
	assert.Equal(t, BackendSQLite, cfg.Settings.Backend)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown path", "path: carrier-pigeon"},
		{"unknown backend", "settings: {backend: floppy}"},
		{"zero timeout", "timing: {attempt_timeout: 0s}"},
		{"inverted interval", "ble: {adv_min_interval: 0x50, adv_max_interval: 0x40}"},
		{"bad level", "log: {level: loud}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			assert.ErrorIs(t, Parse([]byte(tt.yaml), &cfg), ErrInvalid)
		})
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	cfg := Default()
	err := Parse([]byte("colour: blue"), &cfg)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalid)
}

func TestParseLevel(t *testing.T) {
	for _, s := range []string{"debug", "INFO", "warn", "error", ""} {
		_, err := ParseLevel(s)
		assert.NoError(t, err, s)
	}
}
