package main

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buddypal/wifiprov/pkg/bleprov"
	"github.com/buddypal/wifiprov/pkg/config"
	"github.com/buddypal/wifiprov/pkg/log"
	"github.com/buddypal/wifiprov/pkg/provisioning"
	"github.com/buddypal/wifiprov/pkg/settings"
	"github.com/buddypal/wifiprov/pkg/station"
	"github.com/buddypal/wifiprov/pkg/wifi"
)

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{"--interactive", "--path", "ble", "--network", "Home:pw", "--network", "Cafe:x:-75"})
	require.NoError(t, err)
	assert.True(t, opts.Simulate)
	assert.Equal(t, "ble", opts.Path)
	assert.Equal(t, []string{"Home:pw", "Cafe:x:-75"}, opts.Networks)
}

func TestParseNetwork(t *testing.T) {
	n, err := parseNetwork("HomeNet:secret:with:colons")
	require.NoError(t, err)
	assert.Equal(t, station.Network{SSID: "HomeNet", Password: "secret:with:colons", RSSI: -55}, n)

	n, err = parseNetwork("HomeNet:a:b:-60")
	require.NoError(t, err)
	assert.Equal(t, station.Network{SSID: "HomeNet", Password: "a:b", RSSI: -60}, n)

	n, err = parseNetwork("Cafe::-72")
	require.NoError(t, err)
	assert.Equal(t, station.Network{SSID: "Cafe", Password: "", RSSI: -72}, n)

	n, err = parseNetwork("Lab:pw")
	require.NoError(t, err)
	assert.Equal(t, -55, n.RSSI)

	_, err = parseNetwork("nocolon")
	assert.Error(t, err)
	_, err = parseNetwork(":pw")
	assert.Error(t, err)
}

func TestApplyOptions(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, applyOptions(&cfg, Options{Path: "ap", LogLevel: "debug", ProtocolLog: "x.plog"}))
	assert.Equal(t, provisioning.PathLocalAP, cfg.ProvisioningPath())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "x.plog", cfg.Log.ProtocolLog)

	cfg = config.Default()
	assert.ErrorIs(t, applyOptions(&cfg, Options{Path: "carrier-pigeon"}), config.ErrInvalid)
}

func simulatedConfig(t *testing.T) config.Config {
	cfg := config.Default()
	cfg.Settings.Path = filepath.Join(t.TempDir(), "wifi.json")
	cfg.Portal.MDNS = false
	return cfg
}

func TestNewDeviceSimulated(t *testing.T) {
	cfg := simulatedConfig(t)
	dev, err := newDevice(context.Background(), cfg, true, nil, discardLogger(), log.NoopLogger{})
	require.NoError(t, err)
	defer dev.Close()

	require.NotNil(t, dev.simBLE)
	require.NotNil(t, dev.simStation)
	require.NotNil(t, dev.recording)
	assert.Equal(t, "BuddyPal-BD01", dev.ap.SSID())

	oc := dev.OrchestratorConfig(cfg, provisioning.RestarterFunc(func() error { return nil }))
	assert.Equal(t, provisioning.PathDual, oc.Path)
	assert.NoError(t, oc.Validate())

	target := dev.Interactive(func() *provisioning.Orchestrator { return nil }, func() {})
	assert.Same(t, dev.simBLE, target.Platform)
	assert.Same(t, dev.ap, target.AccessPoint)
}

func TestNewDeviceBLEDisabled(t *testing.T) {
	cfg := simulatedConfig(t)
	cfg.BLE.Enabled = false
	dev, err := newDevice(context.Background(), cfg, true, nil, discardLogger(), nil)
	require.NoError(t, err)
	defer dev.Close()

	assert.Nil(t, dev.simBLE)
	assert.Equal(t, bleprov.Disabled{}, dev.ble)
}

func TestNewDeviceSQLite(t *testing.T) {
	cfg := simulatedConfig(t)
	cfg.Settings.Backend = config.BackendSQLite
	cfg.Settings.Path = filepath.Join(t.TempDir(), "wifi.db")
	dev, err := newDevice(context.Background(), cfg, true, nil, discardLogger(), nil)
	require.NoError(t, err)

	require.NoError(t, dev.ArmForceConfig())
	forced, err := settings.ConsumeForceConfig(dev.store)
	require.NoError(t, err)
	assert.True(t, forced)

	dev.Close()
	dev.Close()
}

// A simulated device provisions over the portal and stores the profile.
func TestSimulatedProvisioning(t *testing.T) {
	cfg := simulatedConfig(t)
	cfg.Path = "ap"
	cfg.Timing.GracePeriod = time.Millisecond
	cfg.Timing.RestartDelay = time.Millisecond
	networks := []station.Network{{SSID: "HomeNet", Password: "secret123", RSSI: -50}}

	dev, err := newDevice(context.Background(), cfg, true, networks, discardLogger(), nil)
	require.NoError(t, err)
	defer dev.Close()

	restarted := make(chan struct{})
	orch, err := provisioning.New(dev.OrchestratorConfig(cfg, provisioning.RestarterFunc(func() error {
		close(restarted)
		return nil
	})))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- orch.Run(ctx) }()

	require.Eventually(t, dev.ap.Running, time.Second, 5*time.Millisecond)
	require.NoError(t, dev.ap.Submit(wifiCreds("HomeNet", "secret123")))

	select {
	case <-restarted:
	case <-ctx.Done():
		t.Fatal("device did not restart")
	}
	require.NoError(t, <-done)

	profiles, err := dev.store.Profiles()
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, "HomeNet", profiles[0].SSID)
	assert.Equal(t, "Connected to HomeNet", dev.recording.Last())
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func wifiCreds(ssid, password string) wifi.Credentials {
	return wifi.Credentials{SSID: ssid, Password: password}
}
