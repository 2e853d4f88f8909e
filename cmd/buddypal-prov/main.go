// Command buddypal-prov is the Wi-Fi provisioning daemon of a headless
// BuddyPal device.
//
// On start it joins the most recent stored network. Without one, or when a
// configuration reset was requested, it enters configuration mode and
// accepts credentials over Bluetooth LE and the local access point until a
// connection succeeds, then restarts.
//
// Usage:
//
//	buddypal-prov [flags]
//
// Flags:
//
//	--config string        Configuration file path
//	--path string          Provisioning path: ble, ap, dual, acoustic
//	--force-config         Arm the configuration reset flag before starting
//	--simulate             Use the simulated radio and station
//	--network stringArray  Simulated network as ssid:password[:rssi]
//	--interactive          Start the operator console (implies --simulate)
//	--log-level string     Log level: debug, info, warn, error
//	--protocol-log string  Write provisioning events to this file
//
// Examples:
//
//	# Run on hardware with the installed configuration
//	buddypal-prov --config /etc/buddypal/wifi.yaml
//
//	# Try the BLE path against a simulated home network
//	buddypal-prov --interactive --path ble --network HomeNet:secret123
//
//	# Record a session for later analysis with prov-log
//	buddypal-prov --simulate --protocol-log session.plog
//
// On hardware a restart re-executes the binary. Simulated runs restart
// in-process so the console survives. Send SIGHUP to a running daemon to
// reset it into configuration mode.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/buddypal/wifiprov/cmd/buddypal-prov/interactive"
	"github.com/buddypal/wifiprov/pkg/config"
	"github.com/buddypal/wifiprov/pkg/log"
	"github.com/buddypal/wifiprov/pkg/provisioning"
	"github.com/buddypal/wifiprov/pkg/station"
)

// Options holds the command-line flags.
type Options struct {
	ConfigFile  string
	Path        string
	ForceConfig bool
	Simulate    bool
	Networks    []string
	Interactive bool
	LogLevel    string
	ProtocolLog string
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (Options, error) {
	var opts Options
	fs := pflag.NewFlagSet("buddypal-prov", pflag.ContinueOnError)
	fs.StringVar(&opts.ConfigFile, "config", "", "configuration file path")
	fs.StringVar(&opts.Path, "path", "", "provisioning path: ble, ap, dual, acoustic (overrides config)")
	fs.BoolVar(&opts.ForceConfig, "force-config", false, "arm the configuration reset flag before starting")
	fs.BoolVar(&opts.Simulate, "simulate", false, "use the simulated radio and station")
	fs.StringArrayVar(&opts.Networks, "network", nil, "simulated network as ssid:password[:rssi] (repeatable)")
	fs.BoolVar(&opts.Interactive, "interactive", false, "start the operator console (implies --simulate)")
	fs.StringVar(&opts.LogLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	fs.StringVar(&opts.ProtocolLog, "protocol-log", "", "write provisioning events to this file (overrides config)")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.Interactive {
		opts.Simulate = true
	}
	return opts, nil
}

// applyOptions overlays the flags on the loaded configuration.
func applyOptions(cfg *config.Config, opts Options) error {
	if opts.Path != "" {
		cfg.Path = opts.Path
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	if opts.ProtocolLog != "" {
		cfg.Log.ProtocolLog = opts.ProtocolLog
	}
	return cfg.Validate()
}

// parseNetwork parses ssid:password[:rssi]. The password may contain
// colons; a final colon-separated integer is taken as the RSSI.
func parseNetwork(s string) (station.Network, error) {
	ssid, rest, ok := strings.Cut(s, ":")
	if !ok || ssid == "" {
		return station.Network{}, fmt.Errorf("network %q: want ssid:password[:rssi]", s)
	}
	n := station.Network{SSID: ssid, Password: rest, RSSI: -55}
	if i := strings.LastIndex(rest, ":"); i >= 0 {
		if rssi, err := strconv.Atoi(rest[i+1:]); err == nil {
			n.Password = rest[:i]
			n.RSSI = rssi
		}
	}
	return n, nil
}

func run(args []string) error {
	opts, err := parseFlags(args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return err
	}
	if err := applyOptions(&cfg, opts); err != nil {
		return err
	}

	var networks []station.Network
	for _, s := range opts.Networks {
		n, err := parseNetwork(s)
		if err != nil {
			return err
		}
		networks = append(networks, n)
	}

	level, _ := config.ParseLevel(cfg.Log.Level)
	var console *interactive.Console
	var logOut io.Writer = os.Stderr
	if opts.Interactive {
		console, err = interactive.New()
		if err != nil {
			return err
		}
		logOut = console.Stderr()
	}
	logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level}))

	logger.Info("BuddyPal Wi-Fi provisioning",
		"device", cfg.DeviceName, "path", cfg.Path, "simulate", opts.Simulate)

	events, closeEvents, err := openEventLog(cfg.Log.ProtocolLog, logger)
	if err != nil {
		return err
	}
	defer closeEvents()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	dev, err := newDevice(ctx, cfg, opts.Simulate, networks, logger, events)
	if err != nil {
		return err
	}
	defer dev.Close()

	if opts.ForceConfig {
		if err := dev.ArmForceConfig(); err != nil {
			return err
		}
	}

	resets := make(chan struct{}, 1)
	requestReset := func() {
		select {
		case resets <- struct{}{}:
		default:
		}
	}
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				requestReset()
			}
		}
	}()

	var current atomic.Pointer[provisioning.Orchestrator]
	if console != nil {
		console.Attach(dev.Interactive(current.Load, requestReset))
		go console.Run(ctx, cancel)
	}

	for {
		var restartRequested atomic.Bool
		restarter := provisioning.RestarterFunc(func() error {
			if !opts.Simulate {
				closeEvents()
				dev.Close()
				return reexec()
			}
			restartRequested.Store(true)
			return nil
		})

		orch, err := provisioning.New(dev.OrchestratorConfig(cfg, restarter))
		if err != nil {
			return err
		}
		current.Store(orch)

		err = orch.Run(ctx)
		switch {
		case ctx.Err() != nil:
			logger.Info("shutting down")
			return nil
		case err != nil:
			return fmt.Errorf("provisioning: %w", err)
		case restartRequested.Load():
			logger.Info("restarting provisioning")
			continue
		}

		logger.Info("network up", "indicator", orch.NetworkIndicator().String())

		// Resets requested while in configuration mode are stale.
		select {
		case <-resets:
		default:
		}
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return nil
		case <-resets:
			if err := orch.ResetConfiguration(ctx); err != nil && ctx.Err() == nil {
				return fmt.Errorf("reset configuration: %w", err)
			}
		}
	}
}

// openEventLog builds the event logger: slog for debugging plus an optional
// CBOR file.
func openEventLog(path string, logger *slog.Logger) (log.Logger, func(), error) {
	adapter := log.NewSlogAdapter(logger)
	if path == "" {
		return adapter, func() {}, nil
	}
	file, err := log.NewFileLogger(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open protocol log: %w", err)
	}
	logger.Info("protocol logging enabled", "path", path)
	multi := log.NewMultiLogger(adapter, file)
	return multi, sync.OnceFunc(func() {
		if err := multi.Sync(); err != nil {
			logger.Warn("protocol log sync failed", "error", err)
		}
		if err := file.Close(); err != nil {
			logger.Warn("protocol log close failed", "error", err)
		}
		logger.Info("protocol log closed", "events", file.Written())
	}), nil
}
