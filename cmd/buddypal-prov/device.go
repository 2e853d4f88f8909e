package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/buddypal/wifiprov/cmd/buddypal-prov/interactive"
	"github.com/buddypal/wifiprov/pkg/apportal"
	"github.com/buddypal/wifiprov/pkg/bleprov"
	"github.com/buddypal/wifiprov/pkg/config"
	"github.com/buddypal/wifiprov/pkg/connect"
	"github.com/buddypal/wifiprov/pkg/log"
	"github.com/buddypal/wifiprov/pkg/provisioning"
	"github.com/buddypal/wifiprov/pkg/settings"
	"github.com/buddypal/wifiprov/pkg/station"
	"github.com/buddypal/wifiprov/pkg/status"
)

// simulatedMAC names the hotspot of simulated runs.
var simulatedMAC = net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0xBD, 0x01}

// device is the assembled provisioning stack.
type device struct {
	logger *slog.Logger
	events log.Logger

	store      settings.Store
	supervisor *connect.Supervisor
	ble        provisioning.Transport
	portal     *apportal.Strategy
	display    status.Display

	// Simulation handles, nil on hardware.
	simStation *station.Simulated
	simBLE     *bleprov.SimPlatform
	bleService *bleprov.Service
	ap         *apportal.LoopbackAP
	recording  *status.RecordingDisplay

	closers   []func() error
	closeOnce sync.Once
}

func newDevice(ctx context.Context, cfg config.Config, simulate bool, networks []station.Network,
	logger *slog.Logger, events log.Logger) (*device, error) {
	d := &device{logger: logger, events: events}
	ok := false
	defer func() {
		if !ok {
			d.Close()
		}
	}()

	if err := d.openStore(ctx, cfg.Settings); err != nil {
		return nil, err
	}

	var st connect.Station
	if simulate {
		d.simStation = station.NewSimulated(0, networks...)
		st = d.simStation
	} else {
		st = station.NewNMCLI(station.NMCLIConfig{Interface: cfg.Station.Interface})
	}
	sup, err := connect.New(connect.Config{
		Store:       d.store,
		Station:     st,
		Logger:      logger.With("component", "supervisor"),
		EventLogger: events,
	})
	if err != nil {
		return nil, err
	}
	d.supervisor = sup

	if err := d.buildBLE(cfg, simulate); err != nil {
		return nil, err
	}
	if err := d.buildPortal(cfg, simulate); err != nil {
		return nil, err
	}

	logDisplay := status.LogDisplay{Logger: logger.With("component", "display")}
	if simulate {
		d.recording = &status.RecordingDisplay{}
		d.display = teeDisplay{logDisplay, d.recording}
	} else {
		d.display = logDisplay
	}

	ok = true
	return d, nil
}

func (d *device) openStore(ctx context.Context, cfg config.Settings) error {
	sealer, err := settings.LoadSealer(cfg.KeyFile)
	if err != nil {
		return err
	}
	switch cfg.Backend {
	case config.BackendSQLite:
		s, err := settings.OpenSQLite(ctx, cfg.Path, sealer)
		if err != nil {
			return fmt.Errorf("open settings: %w", err)
		}
		d.store = s
		d.closers = append(d.closers, s.Close)
	default:
		d.store = settings.NewFileStore(cfg.Path, sealer)
	}
	d.logger.Info("settings store opened", "backend", cfg.Backend, "path", cfg.Path, "sealed", sealer.Enabled())
	return nil
}

func (d *device) buildBLE(cfg config.Config, simulate bool) error {
	if !cfg.BLE.Enabled {
		d.ble = bleprov.Disabled{}
		return nil
	}

	var platform bleprov.Platform
	if simulate {
		d.simBLE = bleprov.NewSimPlatform()
		d.closers = append(d.closers, func() error { d.simBLE.Close(); return nil })
		platform = d.simBLE
	} else {
		p, closePlatform, err := hardwarePlatform(d.logger.With("component", "ble-platform"))
		if err != nil {
			return err
		}
		d.closers = append(d.closers, closePlatform)
		platform = p
	}

	svc, err := bleprov.New(platform, bleprov.Config{
		DeviceName:  cfg.DeviceName,
		Advertising: cfg.Advertising(),
		Logger:      d.logger.With("component", "ble"),
		EventLogger: d.events,
	})
	if err != nil {
		return err
	}
	d.bleService = svc
	d.ble = svc
	return nil
}

func (d *device) buildPortal(cfg config.Config, simulate bool) error {
	mac := simulatedMAC
	if !simulate {
		mac = hardwareAddr(cfg.Station.Interface)
	}
	d.ap = apportal.NewLoopbackAP(apportal.HotspotSSID(cfg.Portal.SSIDPrefix, mac), cfg.Portal.URL)

	var announcer apportal.Announcer
	if cfg.Portal.MDNS {
		announcer = apportal.NewMDNSAnnouncer(apportal.MDNSConfig{Interface: cfg.Station.Interface})
	}
	portal, err := apportal.NewStrategy(apportal.Config{
		AccessPoint: d.ap,
		Announcer:   announcer,
		Logger:      d.logger.With("component", "portal"),
		EventLogger: d.events,
	})
	if err != nil {
		return err
	}
	d.portal = portal
	return nil
}

// OrchestratorConfig returns the orchestrator configuration for cfg.
func (d *device) OrchestratorConfig(cfg config.Config, restarter provisioning.Restarter) provisioning.Config {
	return provisioning.Config{
		Path:              cfg.ProvisioningPath(),
		AttemptTimeout:    cfg.Timing.AttemptTimeout,
		GracePeriod:       cfg.Timing.GracePeriod,
		RestartDelay:      cfg.Timing.RestartDelay,
		HeartbeatInterval: cfg.Timing.Heartbeat,
		Store:             d.store,
		Attempter:         d.supervisor,
		Restarter:         restarter,
		Display:           d.display,
		Signal:            d.supervisor,
		BLE:               d.ble,
		AccessPoint:       d.portal,
		Acoustic:          provisioning.NoopTransport{Label: "acoustic"},
		Logger:            d.logger.With("component", "provisioning"),
		EventLogger:       d.events,
	}
}

// ArmForceConfig requests configuration mode on the next start.
func (d *device) ArmForceConfig() error {
	if err := settings.ArmForceConfig(d.store); err != nil {
		return fmt.Errorf("arm configuration mode: %w", err)
	}
	d.logger.Info("configuration mode armed")
	return nil
}

// Interactive returns the console's view of the simulated device.
func (d *device) Interactive(current func() *provisioning.Orchestrator, reset func()) interactive.Target {
	return interactive.Target{
		Platform:     d.simBLE,
		Service:      d.bleService,
		AccessPoint:  d.ap,
		Portal:       d.portal,
		Station:      d.simStation,
		Store:        d.store,
		Display:      d.recording,
		Orchestrator: current,
		Reset:        reset,
	}
}

// Close releases the store and the radio. It is safe to call more than once.
func (d *device) Close() {
	d.closeOnce.Do(func() {
		for i := len(d.closers) - 1; i >= 0; i-- {
			if err := d.closers[i](); err != nil {
				d.logger.Warn("close failed", "error", err)
			}
		}
	})
}

// teeDisplay shows every notification on each display.
type teeDisplay []status.Display

func (t teeDisplay) ShowNotification(text string, dur time.Duration) {
	for _, d := range t {
		d.ShowNotification(text, dur)
	}
}

// hardwareAddr returns the MAC of the named interface, or of the first
// non-loopback interface with one.
func hardwareAddr(name string) net.HardwareAddr {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil
	}
	for _, iface := range ifaces {
		if name != "" && iface.Name != name {
			continue
		}
		if iface.Flags&net.FlagLoopback != 0 || len(iface.HardwareAddr) < 6 {
			continue
		}
		return iface.HardwareAddr
	}
	return nil
}
