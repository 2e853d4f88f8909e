package apportal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/buddypal/wifiprov/pkg/log"
	"github.com/buddypal/wifiprov/pkg/provisioning"
	"github.com/buddypal/wifiprov/pkg/status"
	"github.com/buddypal/wifiprov/pkg/wifi"
)

// TransportName is the name reported by Strategy.Name.
const TransportName = "ap"

// Config configures a Strategy.
type Config struct {
	// AccessPoint is the hotspot. Required.
	AccessPoint AccessPoint

	// Announcer publishes the form (optional).
	Announcer Announcer

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// EventLogger receives submission and status events (optional).
	EventLogger log.Logger
}

// Strategy adapts an AccessPoint to the orchestrator's transport interface.
type Strategy struct {
	ap        AccessPoint
	announcer Announcer
	logger    *slog.Logger
	events    log.Logger
	creds     *wifi.Mailbox

	mu         sync.Mutex
	running    bool
	sessionID  string
	cancel     context.CancelFunc
	done       chan struct{}
	lastStatus string
	lastDebug  string
}

// NewStrategy creates a local-AP strategy.
func NewStrategy(cfg Config) (*Strategy, error) {
	if cfg.AccessPoint == nil {
		return nil, ErrInvalidConfig
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Strategy{
		ap:        cfg.AccessPoint,
		announcer: cfg.Announcer,
		logger:    logger,
		events:    log.OrNoop(cfg.EventLogger),
		creds:     wifi.NewMailbox(),
	}, nil
}

// Name returns the transport name.
func (s *Strategy) Name() string { return TransportName }

// Start opens the hotspot, announces the form and forwards submissions.
// Calling Start while running is a no-op.
func (s *Strategy) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}
	if err := s.ap.Start(ctx); err != nil {
		return fmt.Errorf("start access point: %w", err)
	}

	if s.announcer != nil {
		if err := s.announcer.Announce(ctx, s.announcement()); err != nil {
			s.logger.Warn("setup form announcement failed", "error", err)
		}
	}

	fwdCtx, cancel := context.WithCancel(context.Background())
	s.running = true
	s.sessionID = uuid.New().String()
	s.cancel = cancel
	s.done = make(chan struct{})
	s.lastStatus, s.lastDebug = "", ""
	s.creds.Drain()
	go s.forward(fwdCtx, s.sessionID, s.done)

	s.logger.Info("access point started", "ssid", s.ap.SSID(), "url", s.ap.WebServerURL())
	return nil
}

// Stop withdraws the announcement and closes the hotspot.
func (s *Strategy) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	cancel()
	<-done
	s.creds.Drain()

	if s.announcer != nil {
		if err := s.announcer.Stop(); err != nil {
			s.logger.Warn("failed to withdraw announcement", "error", err)
		}
	}
	return s.ap.Stop()
}

// Running reports whether the strategy is started.
func (s *Strategy) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Credentials delivers complete form submissions.
func (s *Strategy) Credentials() <-chan wifi.Credentials {
	return s.creds.C()
}

// SendStatus records the outcome for the form page to poll.
func (s *Strategy) SendStatus(outcome wifi.Outcome) {
	word := status.Word(outcome)
	s.mu.Lock()
	s.lastStatus = word
	sessionID := s.sessionID
	s.mu.Unlock()

	s.events.Log(log.Event{
		Timestamp: time.Now(),
		SessionID: sessionID,
		Direction: log.DirectionOut,
		Layer:     log.LayerTransport,
		Category:  log.CategoryNotify,
		Transport: TransportName,
		Notify:    &log.NotifyEvent{Payload: word, Delivered: true},
	})
}

// SendDebug records the message for the form page to poll.
func (s *Strategy) SendDebug(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastDebug = msg
}

// LastStatus returns the last status word and debug message.
func (s *Strategy) LastStatus() (word, debug string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastStatus, s.lastDebug
}

// Hint returns the operator instructions.
func (s *Strategy) Hint() string {
	return fmt.Sprintf("Connect to hotspot %s, then open %s in a browser", s.ap.SSID(), s.ap.WebServerURL())
}

func (s *Strategy) forward(ctx context.Context, sessionID string, done chan struct{}) {
	defer close(done)
	subs := s.ap.Submissions()
	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-subs:
			if !ok {
				return
			}
			s.events.Log(log.Event{
				Timestamp: time.Now(),
				SessionID: sessionID,
				Direction: log.DirectionIn,
				Layer:     log.LayerTransport,
				Category:  log.CategoryWrite,
				Transport: TransportName,
				Write:     &log.WriteEvent{Role: "form", Size: len(c.SSID) + len(c.Password), Value: c.SSID},
			})
			if !c.Complete() {
				s.logger.Debug("ignoring incomplete submission", "ssid", c.SSID)
				continue
			}
			s.logger.Info("credentials submitted", "ssid", c.SSID)
			s.creds.Put(c)
		}
	}
}

func (s *Strategy) announcement() Announcement {
	return Announcement{
		Instance: s.ap.SSID(),
		Port:     portOf(s.ap.WebServerURL()),
		Text:     []string{"path=/", "ssid=" + s.ap.SSID()},
	}
}

// portOf returns the port of rawURL, or the scheme default.
func portOf(rawURL string) int {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 80
	}
	if p, err := strconv.Atoi(u.Port()); err == nil {
		return p
	}
	if u.Scheme == "https" {
		return 443
	}
	return 80
}

// Compile-time interface satisfaction check.
var _ provisioning.Transport = (*Strategy)(nil)
