package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/buddypal/wifiprov/pkg/bleprov"
	"github.com/buddypal/wifiprov/pkg/connect"
	"github.com/buddypal/wifiprov/pkg/provisioning"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("invalid configuration")

// Settings backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Config is the daemon configuration.
type Config struct {
	DeviceName string   `yaml:"device_name"`
	Path       string   `yaml:"path"`
	BLE        BLE      `yaml:"ble"`
	Timing     Timing   `yaml:"timing"`
	Settings   Settings `yaml:"settings"`
	Portal     Portal   `yaml:"portal"`
	Station    Station  `yaml:"station"`
	Log        Log      `yaml:"log"`
}

// BLE configures the credential-exchange service.
type BLE struct {
	Enabled bool `yaml:"enabled"`

	// Advertising intervals in units of 0.625 ms.
	AdvMinInterval uint16 `yaml:"adv_min_interval"`
	AdvMaxInterval uint16 `yaml:"adv_max_interval"`
}

// Timing holds the orchestrator timings.
type Timing struct {
	AttemptTimeout time.Duration `yaml:"attempt_timeout"`
	GracePeriod    time.Duration `yaml:"grace_period"`
	RestartDelay   time.Duration `yaml:"restart_delay"`
	Heartbeat      time.Duration `yaml:"heartbeat"`
}

// Settings selects the profile store.
type Settings struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`

	// KeyFile enables at-rest sealing of stored passwords.
	KeyFile string `yaml:"key_file"`
}

// Portal configures the local access point.
type Portal struct {
	SSIDPrefix string `yaml:"ssid_prefix"`
	URL        string `yaml:"url"`
	MDNS       bool   `yaml:"mdns"`
}

// Station configures the Wi-Fi client.
type Station struct {
	// Interface is the wireless interface. Empty lets NetworkManager choose.
	Interface string `yaml:"interface"`
}

// Log configures logging.
type Log struct {
	Level string `yaml:"level"`

	// ProtocolLog is the path of the CBOR event log. Empty disables it.
	ProtocolLog string `yaml:"protocol_log"`
}

// Default returns the built-in configuration.
func Default() Config {
	adv := bleprov.DefaultAdvertisingParams()
	return Config{
		DeviceName: bleprov.DefaultDeviceName,
		Path:       provisioning.PathDual.String(),
		BLE: BLE{
			Enabled:        true,
			AdvMinInterval: adv.MinInterval,
			AdvMaxInterval: adv.MaxInterval,
		},
		Timing: Timing{
			AttemptTimeout: connect.DefaultTimeout,
			GracePeriod:    provisioning.DefaultGracePeriod,
			RestartDelay:   provisioning.DefaultRestartDelay,
			Heartbeat:      provisioning.DefaultHeartbeatInterval,
		},
		Settings: Settings{
			Backend: BackendFile,
			Path:    "/var/lib/buddypal/wifi.json",
		},
		Portal: Portal{
			SSIDPrefix: bleprov.DefaultDeviceName,
			URL:        "http://192.168.4.1",
			MDNS:       true,
		},
		Log: Log{Level: "info"},
	}
}

// Load reads path over Default. An empty path returns Default.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := Parse(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML into cfg, keeping values for absent keys, and
// validates the result. Unknown keys are rejected.
func Parse(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config: %w", err)
	}
	return cfg.Validate()
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	var errs []error
	if _, err := provisioning.ParsePath(c.Path); err != nil {
		errs = append(errs, err)
	}
	switch c.Settings.Backend {
	case BackendFile, BackendSQLite:
	default:
		errs = append(errs, fmt.Errorf("unknown settings backend %q", c.Settings.Backend))
	}
	if c.Settings.Path == "" {
		errs = append(errs, errors.New("settings.path is required"))
	}
	if c.BLE.AdvMinInterval == 0 || c.BLE.AdvMinInterval > c.BLE.AdvMaxInterval {
		errs = append(errs, fmt.Errorf("ble advertising interval 0x%X-0x%X", c.BLE.AdvMinInterval, c.BLE.AdvMaxInterval))
	}
	for name, d := range map[string]time.Duration{
		"attempt_timeout": c.Timing.AttemptTimeout,
		"grace_period":    c.Timing.GracePeriod,
		"restart_delay":   c.Timing.RestartDelay,
		"heartbeat":       c.Timing.Heartbeat,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("timing.%s must be positive", name))
		}
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// ProvisioningPath returns the parsed path.
func (c *Config) ProvisioningPath() provisioning.Path {
	p, _ := provisioning.ParsePath(c.Path)
	return p
}

// Advertising returns the BLE advertising parameters.
func (c *Config) Advertising() bleprov.AdvertisingParams {
	adv := bleprov.DefaultAdvertisingParams()
	adv.MinInterval = c.BLE.AdvMinInterval
	adv.MaxInterval = c.BLE.AdvMaxInterval
	return adv
}

// ParseLevel parses a log level name.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}
