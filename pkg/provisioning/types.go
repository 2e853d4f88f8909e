package provisioning

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/buddypal/wifiprov/pkg/connect"
	"github.com/buddypal/wifiprov/pkg/wifi"
)

// Default timings.
const (
	DefaultGracePeriod       = 1 * time.Second
	DefaultRestartDelay      = 2 * time.Second
	DefaultHeartbeatInterval = 10 * time.Second
	DefaultResetDelay        = 1 * time.Second
)

// Orchestrator errors.
var (
	ErrInvalidConfig        = errors.New("invalid provisioning configuration")
	ErrUnknownPath          = errors.New("unknown provisioning path")
	ErrTransportUnavailable = errors.New("provisioning transport unavailable")
	ErrAlreadyRunning       = errors.New("orchestrator already running")
)

// State is the device provisioning state.
type State uint8

const (
	// StateNormal - booted, nothing decided yet.
	StateNormal State = iota

	// StateEnteringConfigMode - starting the provisioning transports.
	StateEnteringConfigMode

	// StateAwaitingCredentials - transports running, waiting for the operator.
	StateAwaitingCredentials

	// StateConnecting - a connection attempt is in flight.
	StateConnecting

	// StateConnected - the network link is up.
	StateConnected

	// StateConfigModeExhausted - never entered automatically.
	StateConfigModeExhausted
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateNormal:
		return "NORMAL"
	case StateEnteringConfigMode:
		return "ENTERING_CONFIG_MODE"
	case StateAwaitingCredentials:
		return "AWAITING_CREDENTIALS"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateConfigModeExhausted:
		return "CONFIG_MODE_EXHAUSTED"
	default:
		return "UNKNOWN"
	}
}

// DisplayText returns the notification shown when entering s, or "" for
// states the display does not announce.
func (s State) DisplayText(detail string) string {
	switch s {
	case StateEnteringConfigMode:
		return "Wi-Fi configuration mode"
	case StateConnecting:
		return fmt.Sprintf("Connecting to %s...", detail)
	case StateConnected:
		return fmt.Sprintf("Connected to %s", detail)
	default:
		return ""
	}
}

// Path is the strategy used to obtain credentials.
type Path uint8

const (
	// PathBLE uses the short-range credential-exchange service.
	PathBLE Path = iota
	// PathLocalAP uses the local access point and its web form.
	PathLocalAP
	// PathDual runs both; the first delivery wins.
	PathDual
	// PathAcoustic runs the acoustic transport alongside the local AP.
	PathAcoustic
)

// String returns the path name as used in configuration files.
func (p Path) String() string {
	switch p {
	case PathBLE:
		return "ble"
	case PathLocalAP:
		return "ap"
	case PathDual:
		return "dual"
	case PathAcoustic:
		return "acoustic"
	default:
		return "unknown"
	}
}

// ParsePath parses a path name.
func ParsePath(s string) (Path, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ble", "bluetooth":
		return PathBLE, nil
	case "ap", "localap", "local_ap":
		return PathLocalAP, nil
	case "dual", "both":
		return PathDual, nil
	case "acoustic", "audio":
		return PathAcoustic, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownPath, s)
	}
}

// Transport is a provisioning strategy as seen by the orchestrator.
type Transport interface {
	// Name identifies the transport in logs.
	Name() string

	// Start begins soliciting credentials. It must not block.
	Start(ctx context.Context) error

	// Stop ends solicitation. Stopping a stopped transport is a no-op.
	Stop() error

	// Credentials delivers received credentials. A nil channel never
	// delivers.
	Credentials() <-chan wifi.Credentials

	// SendStatus reports an outcome to the operator, if reachable.
	SendStatus(outcome wifi.Outcome)

	// SendDebug sends a free-form progress message, if reachable.
	SendDebug(msg string)

	// Hint returns operator instructions for the display.
	Hint() string
}

// PeerReporter is implemented by transports that know when an operator
// device attaches. *bleprov.Service implements it.
type PeerReporter interface {
	// Peers delivers true when a device attaches and false when it leaves.
	Peers() <-chan bool
}

// Attempter runs one connection attempt. *connect.Supervisor implements it.
type Attempter interface {
	Attempt(ctx context.Context, creds wifi.Credentials, timeout time.Duration) (wifi.Outcome, error)
}

// SignalSource reports the station's signal class.
// *connect.Supervisor implements it.
type SignalSource interface {
	Signal() connect.Signal
}

// Restarter reboots the device. Restart normally does not return.
type Restarter interface {
	Restart() error
}

// RestarterFunc adapts a function to Restarter.
type RestarterFunc func() error

// Restart calls f.
func (f RestarterFunc) Restart() error { return f() }
