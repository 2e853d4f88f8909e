package connect

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/buddypal/wifiprov/pkg/log"
	"github.com/buddypal/wifiprov/pkg/settings"
	"github.com/buddypal/wifiprov/pkg/wifi"
)

// DefaultTimeout is the default bound on one connection attempt.
const DefaultTimeout = 60 * time.Second

// Supervisor errors.
var (
	ErrBusy          = errors.New("connection attempt already in progress")
	ErrPersist       = errors.New("failed to persist credentials")
	ErrIncomplete    = errors.New("credentials incomplete")
	ErrInvalidConfig = errors.New("invalid supervisor configuration")
)

// Config configures a Supervisor.
type Config struct {
	// Store receives the credentials before every attempt.
	Store settings.Store

	// Station is the network layer.
	Station Station

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// EventLogger receives one AttemptEvent per attempt (optional).
	EventLogger log.Logger
}

// Supervisor runs connection attempts one at a time.
type Supervisor struct {
	store   settings.Store
	station Station
	logger  *slog.Logger
	events  log.Logger

	inFlight atomic.Bool
}

// New creates a supervisor.
func New(cfg Config) (*Supervisor, error) {
	if cfg.Store == nil || cfg.Station == nil {
		return nil, ErrInvalidConfig
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Supervisor{
		store:   cfg.Store,
		station: cfg.Station,
		logger:  logger,
		events:  log.OrNoop(cfg.EventLogger),
	}, nil
}

// Busy reports whether an attempt is outstanding.
func (s *Supervisor) Busy() bool {
	return s.inFlight.Load()
}

// Signal returns the current signal class of the station.
func (s *Supervisor) Signal() Signal {
	return StationSignal(s.station)
}

// Attempt persists creds and connects with them, blocking until the network
// layer reports, timeout elapses (DefaultTimeout when <= 0) or ctx is done.
//
// A concurrent call returns ErrBusy immediately with a zero Outcome and does
// not affect the outstanding attempt. A persistence failure returns Failed
// wrapped in ErrPersist without touching the network layer.
func (s *Supervisor) Attempt(ctx context.Context, creds wifi.Credentials, timeout time.Duration) (wifi.Outcome, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return wifi.Outcome{}, ErrBusy
	}
	defer s.inFlight.Store(false)

	if !creds.Complete() {
		return wifi.Failed(creds.SSID), ErrIncomplete
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	attemptID := uuid.New().String()
	start := time.Now()
	outcome, err := s.run(ctx, creds, timeout)

	s.logger.Info("connection attempt finished",
		"attempt", attemptID, "ssid", creds.SSID, "outcome", outcome.Kind.String(),
		"elapsed", time.Since(start))
	s.events.Log(log.Event{
		Timestamp: time.Now(),
		SessionID: attemptID,
		Direction: log.DirectionLocal,
		Layer:     log.LayerSupervisor,
		Category:  log.CategoryAttempt,
		Attempt: &log.AttemptEvent{
			SSID:    creds.SSID,
			Outcome: outcome.Kind.String(),
			Elapsed: time.Since(start),
		},
	})
	if err != nil {
		s.events.Log(log.Event{
			Timestamp: time.Now(),
			SessionID: attemptID,
			Direction: log.DirectionLocal,
			Layer:     log.LayerSupervisor,
			Category:  log.CategoryError,
			Error:     &log.ErrorEventData{Layer: log.LayerSupervisor, Message: err.Error(), Context: "attempt"},
		})
	}
	return outcome, err
}

func (s *Supervisor) run(ctx context.Context, creds wifi.Credentials, timeout time.Duration) (wifi.Outcome, error) {
	if ctx.Err() != nil {
		return wifi.TimedOut(creds.SSID), nil
	}

	err := s.store.AddProfile(settings.Profile{SSID: creds.SSID, Password: creds.Password})
	if err != nil {
		return wifi.Failed(creds.SSID), fmt.Errorf("%w: %v", ErrPersist, err)
	}

	s.logger.Debug("connecting", "ssid", creds.SSID, "timeout", timeout)
	result := s.station.Connect(creds.SSID, creds.Password)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case connErr, ok := <-result:
		if !ok {
			return wifi.Failed(creds.SSID), nil
		}
		if connErr != nil {
			s.logger.Warn("connect failed", "ssid", creds.SSID, "error", connErr)
			return wifi.Failed(creds.SSID), nil
		}
		return wifi.Connected(creds.SSID), nil

	case <-timer.C:
		s.abort()
		return wifi.TimedOut(creds.SSID), nil

	case <-ctx.Done():
		s.abort()
		return wifi.TimedOut(creds.SSID), nil
	}
}

// abort stops a connection the network layer never resolved.
func (s *Supervisor) abort() {
	if err := s.station.Stop(); err != nil {
		s.logger.Warn("failed to stop station", "error", err)
	}
}
