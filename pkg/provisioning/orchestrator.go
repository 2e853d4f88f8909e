package provisioning

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/buddypal/wifiprov/pkg/connect"
	"github.com/buddypal/wifiprov/pkg/log"
	"github.com/buddypal/wifiprov/pkg/settings"
	"github.com/buddypal/wifiprov/pkg/status"
	"github.com/buddypal/wifiprov/pkg/wifi"
)

// HintDisplayTime is how long transport hints stay on the display.
// Zero keeps them until replaced.
const HintDisplayTime time.Duration = 0

// Config configures an Orchestrator.
type Config struct {
	// Path selects the transports used in configuration mode.
	Path Path

	// AttemptTimeout bounds each connection attempt.
	// Default: 60 seconds.
	AttemptTimeout time.Duration

	// GracePeriod is the wait between reporting SUCCESS and stopping the
	// transports, so the notification can leave the radio.
	// Default: 1 second.
	GracePeriod time.Duration

	// RestartDelay is the wait between stopping the transports and the
	// restart.
	// Default: 2 seconds.
	RestartDelay time.Duration

	// HeartbeatInterval is the period of the configuration mode log line.
	// Default: 10 seconds.
	HeartbeatInterval time.Duration

	// ResetDelay is the wait between showing the reset notice and the
	// restart in ResetConfiguration.
	// Default: 1 second.
	ResetDelay time.Duration

	// Store holds profiles and the force flag. Required.
	Store settings.Store

	// Attempter runs connection attempts. Required.
	Attempter Attempter

	// Restarter reboots the device. Required.
	Restarter Restarter

	// Display shows notifications (optional).
	Display status.Display

	// Signal feeds NetworkIndicator (optional).
	Signal SignalSource

	// BLE is the credential-exchange transport for PathBLE and PathDual.
	BLE Transport

	// AccessPoint is the local-AP transport for PathLocalAP, PathDual and
	// PathAcoustic.
	AccessPoint Transport

	// Acoustic is the acoustic transport for PathAcoustic.
	Acoustic Transport

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// EventLogger receives device state changes (optional).
	EventLogger log.Logger
}

// DefaultConfig returns a configuration with default timings and the dual
// path. Collaborators must still be set.
func DefaultConfig() Config {
	return Config{
		Path:              PathDual,
		AttemptTimeout:    connect.DefaultTimeout,
		GracePeriod:       DefaultGracePeriod,
		RestartDelay:      DefaultRestartDelay,
		HeartbeatInterval: DefaultHeartbeatInterval,
		ResetDelay:        DefaultResetDelay,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Store == nil || c.Attempter == nil || c.Restarter == nil {
		return fmt.Errorf("%w: store, attempter and restarter are required", ErrInvalidConfig)
	}
	if c.AttemptTimeout < 0 || c.GracePeriod < 0 || c.RestartDelay < 0 ||
		c.HeartbeatInterval < 0 || c.ResetDelay < 0 {
		return fmt.Errorf("%w: negative duration", ErrInvalidConfig)
	}
	_, err := c.transports()
	return err
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.AttemptTimeout == 0 {
		c.AttemptTimeout = d.AttemptTimeout
	}
	if c.GracePeriod == 0 {
		c.GracePeriod = d.GracePeriod
	}
	if c.RestartDelay == 0 {
		c.RestartDelay = d.RestartDelay
	}
	if c.HeartbeatInterval == 0 {
		c.HeartbeatInterval = d.HeartbeatInterval
	}
	if c.ResetDelay == 0 {
		c.ResetDelay = d.ResetDelay
	}
}

// transports returns the transports of the configured path.
func (c *Config) transports() ([]Transport, error) {
	need := func(t Transport, name string) error {
		if t == nil {
			return fmt.Errorf("%w: %s transport required for path %s", ErrTransportUnavailable, name, c.Path)
		}
		return nil
	}

	switch c.Path {
	case PathBLE:
		if err := need(c.BLE, "ble"); err != nil {
			return nil, err
		}
		return []Transport{c.BLE}, nil
	case PathLocalAP:
		if err := need(c.AccessPoint, "ap"); err != nil {
			return nil, err
		}
		return []Transport{c.AccessPoint}, nil
	case PathDual:
		if err := errors.Join(need(c.BLE, "ble"), need(c.AccessPoint, "ap")); err != nil {
			return nil, err
		}
		return []Transport{c.BLE, c.AccessPoint}, nil
	case PathAcoustic:
		if err := errors.Join(need(c.Acoustic, "acoustic"), need(c.AccessPoint, "ap")); err != nil {
			return nil, err
		}
		return []Transport{c.Acoustic, c.AccessPoint}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownPath, c.Path)
	}
}

// Orchestrator is the top-level provisioning state machine.
type Orchestrator struct {
	config   Config
	logger   *slog.Logger
	events   log.Logger
	reporter *status.Reporter

	mu         sync.RWMutex
	state      State
	configMode bool
	sessionID  string

	running   atomic.Bool
	restarted atomic.Bool
}

// New creates an orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Orchestrator{
		config:   cfg,
		logger:   logger,
		events:   log.OrNoop(cfg.EventLogger),
		reporter: status.NewReporter(cfg.Display, logger),
		state:    StateNormal,
	}, nil
}

// State returns the current provisioning state.
func (o *Orchestrator) State() State {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

// InConfigMode reports whether configuration mode is active.
func (o *Orchestrator) InConfigMode() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.configMode
}

// NetworkIndicator returns the signal class for the status bar icon.
// Configuration mode always shows a full Wi-Fi icon.
func (o *Orchestrator) NetworkIndicator() connect.Signal {
	if o.InConfigMode() {
		return connect.SignalStrong
	}
	if o.config.Signal == nil {
		return connect.SignalOff
	}
	return o.config.Signal.Signal()
}

// Run decides between normal start and configuration mode and drives the
// chosen one. It returns nil once connected in normal mode or after the
// restart following successful provisioning, and ctx.Err() when ctx ends.
func (o *Orchestrator) Run(ctx context.Context) error {
	if !o.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer o.running.Store(false)

	forced, err := settings.ConsumeForceConfig(o.config.Store)
	if err != nil {
		o.logger.Warn("failed to read force flag", "error", err)
	}
	if forced {
		return o.runConfigMode(ctx, "forced")
	}

	profiles, err := o.config.Store.Profiles()
	if err != nil {
		o.logger.Warn("failed to read profiles", "error", err)
	}
	if len(profiles) == 0 {
		return o.runConfigMode(ctx, "no stored profile")
	}

	p := profiles[0]
	o.setState(StateConnecting, p.SSID)
	outcome, err := o.config.Attempter.Attempt(ctx, wifi.Credentials{SSID: p.SSID, Password: p.Password}, o.config.AttemptTimeout)
	if err != nil {
		o.logger.Warn("stored profile attempt error", "ssid", p.SSID, "error", err)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if outcome.Succeeded() {
		o.setState(StateConnected, p.SSID)
		return nil
	}

	o.logger.Info("stored network unreachable", "outcome", outcome.String())
	return o.runConfigMode(ctx, "stored network unreachable")
}

// ResetConfiguration arms the force flag, tells the user and restarts.
func (o *Orchestrator) ResetConfiguration(ctx context.Context) error {
	if err := settings.ArmForceConfig(o.config.Store); err != nil {
		return fmt.Errorf("arm configuration mode: %w", err)
	}
	if o.config.Display != nil {
		o.config.Display.ShowNotification("Entering Wi-Fi configuration mode", o.config.ResetDelay)
	}
	if err := sleep(ctx, o.config.ResetDelay); err != nil {
		return err
	}
	return o.restart("configuration reset")
}

func (o *Orchestrator) runConfigMode(ctx context.Context, reason string) error {
	transports, err := o.config.transports()
	if err != nil {
		return err
	}

	o.mu.Lock()
	o.configMode = true
	o.sessionID = uuid.New().String()
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		o.configMode = false
		o.mu.Unlock()
	}()

	o.setState(StateEnteringConfigMode, reason)

	cfgCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	stop, started := o.startTransports(cfgCtx, transports)
	defer stop()
	if started == 0 {
		return fmt.Errorf("%w: no transport started", ErrTransportUnavailable)
	}

	o.setState(StateAwaitingCredentials, "")
	o.showHints(transports)

	mailbox := wifi.NewMailbox()
	var wg sync.WaitGroup
	for _, t := range transports {
		wg.Add(1)
		go func(t Transport) {
			defer wg.Done()
			o.funnel(cfgCtx, t, mailbox)
		}(t)
		if pr, ok := t.(PeerReporter); ok {
			wg.Add(1)
			go func(t Transport, pr PeerReporter) {
				defer wg.Done()
				o.watchPeers(cfgCtx, t.Name(), pr)
			}(t, pr)
		}
	}
	defer wg.Wait()
	defer cancel()

	senders := make([]status.Sender, len(transports))
	for i, t := range transports {
		senders[i] = t
	}

	heartbeat := time.NewTicker(o.config.HeartbeatInterval)
	defer heartbeat.Stop()
	entered := time.Now()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-heartbeat.C:
			o.logger.Info("configuration mode active",
				"state", o.State().String(), "waiting", time.Since(entered).Round(time.Second))

		case creds := <-mailbox.C():
			outcome, err := o.attempt(ctx, creds, transports)
			if errors.Is(err, connect.ErrBusy) {
				o.logger.Error("attempt rejected as busy, dropping credentials", "ssid", creds.SSID)
				o.setState(StateAwaitingCredentials, "busy")
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}

			o.reporter.ReportOutcome(outcome, senders...)
			if !outcome.Succeeded() {
				o.setState(StateAwaitingCredentials, outcome.String())
				continue
			}

			o.setState(StateConnected, outcome.SSID)
			if err := sleep(ctx, o.config.GracePeriod); err != nil {
				return err
			}
			stop()
			if err := sleep(ctx, o.config.RestartDelay); err != nil {
				return err
			}
			return o.restart("provisioned")
		}
	}
}

func (o *Orchestrator) attempt(ctx context.Context, creds wifi.Credentials, transports []Transport) (wifi.Outcome, error) {
	o.setState(StateConnecting, creds.SSID)
	for _, t := range transports {
		t.SendDebug("connecting to " + creds.SSID)
	}

	outcome, err := o.config.Attempter.Attempt(ctx, creds, o.config.AttemptTimeout)
	if err != nil && !errors.Is(err, connect.ErrBusy) {
		o.logger.Warn("attempt error", "ssid", creds.SSID, "error", err)
		o.logError("attempt", err)
	}
	return outcome, err
}

// startTransports starts every transport and returns a function stopping
// the started ones, and their count. A transport that fails to start is
// skipped. The returned function is safe to call more than once.
func (o *Orchestrator) startTransports(ctx context.Context, transports []Transport) (func(), int) {
	var started []Transport
	for _, t := range transports {
		if err := t.Start(ctx); err != nil {
			o.logger.Error("transport failed to start", "transport", t.Name(), "error", err)
			o.logError("start "+t.Name(), err)
			continue
		}
		o.logger.Info("transport started", "transport", t.Name())
		started = append(started, t)
	}

	var once sync.Once
	stop := func() {
		once.Do(func() {
			for _, t := range started {
				if err := t.Stop(); err != nil {
					o.logger.Warn("transport failed to stop", "transport", t.Name(), "error", err)
				}
			}
		})
	}
	return stop, len(started)
}

// funnel forwards complete credentials from t into mailbox until ctx ends.
func (o *Orchestrator) funnel(ctx context.Context, t Transport, mailbox *wifi.Mailbox) {
	ch := t.Credentials()
	for {
		select {
		case <-ctx.Done():
			return
		case creds, ok := <-ch:
			if !ok {
				return
			}
			if !creds.Complete() {
				o.logger.Debug("dropping incomplete credentials", "transport", t.Name())
				continue
			}
			if mailbox.Put(creds) {
				o.logger.Debug("queued credentials replaced", "transport", t.Name(), "ssid", creds.SSID)
			}
		}
	}
}

// watchPeers shows operator devices attaching to a transport until ctx ends.
func (o *Orchestrator) watchPeers(ctx context.Context, name string, pr PeerReporter) {
	ch := pr.Peers()
	for {
		select {
		case <-ctx.Done():
			return
		case connected, ok := <-ch:
			if !ok {
				return
			}
			o.reporter.ReportPeer(name, connected)
		}
	}
}

func (o *Orchestrator) showHints(transports []Transport) {
	if o.config.Display == nil {
		return
	}
	for _, t := range transports {
		if hint := t.Hint(); hint != "" {
			o.config.Display.ShowNotification(hint, HintDisplayTime)
		}
	}
}

func (o *Orchestrator) restart(reason string) error {
	if !o.restarted.CompareAndSwap(false, true) {
		return nil
	}
	o.logger.Info("restarting", "reason", reason)
	return o.config.Restarter.Restart()
}

func (o *Orchestrator) setState(state State, detail string) {
	o.mu.Lock()
	old := o.state
	o.state = state
	sessionID := o.sessionID
	o.mu.Unlock()

	o.logger.Info("provisioning state", "from", old.String(), "to", state.String(), "detail", detail)
	o.reporter.ReportState(old, state, detail)
	o.events.Log(log.Event{
		Timestamp: time.Now(),
		SessionID: sessionID,
		Direction: log.DirectionLocal,
		Layer:     log.LayerOrchestrator,
		Category:  log.CategoryState,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityDevice,
			OldState: old.String(),
			NewState: state.String(),
			Reason:   detail,
		},
	})
}

func (o *Orchestrator) logError(op string, err error) {
	o.mu.RLock()
	sessionID := o.sessionID
	o.mu.RUnlock()

	o.events.Log(log.Event{
		Timestamp: time.Now(),
		SessionID: sessionID,
		Direction: log.DirectionLocal,
		Layer:     log.LayerOrchestrator,
		Category:  log.CategoryError,
		Error:     &log.ErrorEventData{Layer: log.LayerOrchestrator, Message: err.Error(), Context: op},
	})
}

// sleep waits d or until ctx ends.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Compile-time interface satisfaction check.
var _ status.DisplayState = State(0)
