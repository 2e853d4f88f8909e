package station

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/buddypal/wifiprov/pkg/connect"
)

// DefaultQueryTimeout bounds nmcli status queries.
const DefaultQueryTimeout = 5 * time.Second

// Runner runs a command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs commands with os/exec.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// NMCLIConfig configures an NMCLI station.
type NMCLIConfig struct {
	// Interface is the wireless interface. Empty lets NetworkManager choose.
	Interface string

	// Run executes nmcli. Defaults to ExecRunner.
	Run Runner

	// QueryTimeout bounds status queries. Default: 5 seconds.
	QueryTimeout time.Duration
}

// NMCLI implements connect.Station with NetworkManager's command-line client.
type NMCLI struct {
	config NMCLIConfig

	mu      sync.Mutex
	cancel  context.CancelFunc
	attempt uint64
}

// NewNMCLI creates a NetworkManager station.
func NewNMCLI(cfg NMCLIConfig) *NMCLI {
	if cfg.Run == nil {
		cfg.Run = ExecRunner
	}
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = DefaultQueryTimeout
	}
	return &NMCLI{config: cfg}
}

// Connect runs "nmcli device wifi connect". Any earlier attempt is
// abandoned and resolves with ErrStopped.
func (n *NMCLI) Connect(ssid, password string) <-chan error {
	result := make(chan error, 1)
	ctx, cancel := context.WithCancel(context.Background())

	n.mu.Lock()
	if n.cancel != nil {
		n.cancel()
	}
	n.cancel = cancel
	n.attempt++
	id := n.attempt
	n.mu.Unlock()

	args := []string{"device", "wifi", "connect", ssid}
	if password != "" {
		args = append(args, "password", password)
	}
	if n.config.Interface != "" {
		args = append(args, "ifname", n.config.Interface)
	}

	go func() {
		out, err := n.config.Run(ctx, "nmcli", args...)
		stopped := ctx.Err() != nil
		n.mu.Lock()
		if n.attempt == id {
			n.cancel = nil
		}
		n.mu.Unlock()
		cancel()

		switch {
		case stopped:
			result <- ErrStopped
		case err != nil:
			result <- fmt.Errorf("nmcli connect: %w: %s", err, strings.TrimSpace(string(out)))
		default:
			result <- nil
		}
	}()
	return result
}

// activeNetwork returns the SSID and signal percentage of the active
// network.
func (n *NMCLI) activeNetwork() (ssid string, signal int, ok bool) {
	ctx, cancel := context.WithTimeout(context.Background(), n.config.QueryTimeout)
	defer cancel()

	args := []string{"-t", "-f", "ACTIVE,SSID,SIGNAL", "device", "wifi", "list", "--rescan", "no"}
	if n.config.Interface != "" {
		args = append(args, "ifname", n.config.Interface)
	}
	out, err := n.config.Run(ctx, "nmcli", args...)
	if err != nil {
		return "", 0, false
	}
	for _, line := range strings.Split(string(out), "\n") {
		fields := splitTerse(strings.TrimRight(line, "\r"))
		if len(fields) != 3 || fields[0] != "yes" {
			continue
		}
		pct, err := strconv.Atoi(fields[2])
		if err != nil {
			pct = 0
		}
		return fields[1], pct, true
	}
	return "", 0, false
}

// IsConnected reports whether NetworkManager has an active Wi-Fi network.
func (n *NMCLI) IsConnected() bool {
	_, _, ok := n.activeNetwork()
	return ok
}

// RSSI returns the signal of the active network in dBm, or 0.
func (n *NMCLI) RSSI() int {
	_, pct, ok := n.activeNetwork()
	if !ok {
		return 0
	}
	return PercentToDBm(pct)
}

// Stop abandons the running attempt.
func (n *NMCLI) Stop() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.cancel != nil {
		n.cancel()
		n.cancel = nil
	}
	return nil
}

// PercentToDBm converts NetworkManager's signal quality to dBm.
func PercentToDBm(pct int) int {
	switch {
	case pct <= 0:
		return -100
	case pct >= 100:
		return -50
	}
	return pct/2 - 100
}

// splitTerse splits one line of nmcli terse output on unescaped colons.
func splitTerse(line string) []string {
	var fields []string
	var b strings.Builder
	escaped := false
	for _, r := range line {
		switch {
		case escaped:
			b.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == ':':
			fields = append(fields, b.String())
			b.Reset()
		default:
			b.WriteRune(r)
		}
	}
	return append(fields, b.String())
}

var _ connect.Station = (*NMCLI)(nil)
