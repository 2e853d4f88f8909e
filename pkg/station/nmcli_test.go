package station

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedRunner records invocations and answers from a function.
type scriptedRunner struct {
	mu    sync.Mutex
	calls [][]string
	reply func(ctx context.Context, args []string) ([]byte, error)
}

func (r *scriptedRunner) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	r.mu.Lock()
	r.calls = append(r.calls, append([]string{name}, args...))
	r.mu.Unlock()
	return r.reply(ctx, args)
}

func (r *scriptedRunner) call(i int) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[i]
}

func TestNMCLIConnect(t *testing.T) {
	r := &scriptedRunner{reply: func(context.Context, []string) ([]byte, error) {
		return []byte("Device 'wlan0' successfully activated"), nil
	}}
	n := NewNMCLI(NMCLIConfig{Interface: "wlan0", Run: r.run})

	require.NoError(t, result(t, n.Connect("Home Net", "secret123")))
	assert.Equal(t,
		[]string{"nmcli", "device", "wifi", "connect", "Home Net", "password", "secret123", "ifname", "wlan0"},
		r.call(0))
}

func TestNMCLIConnectOpenNetwork(t *testing.T) {
	r := &scriptedRunner{reply: func(context.Context, []string) ([]byte, error) { return nil, nil }}
	n := NewNMCLI(NMCLIConfig{Run: r.run})

	require.NoError(t, result(t, n.Connect("Cafe", "")))
	assert.Equal(t, []string{"nmcli", "device", "wifi", "connect", "Cafe"}, r.call(0))
}

func TestNMCLIConnectFailure(t *testing.T) {
	r := &scriptedRunner{reply: func(context.Context, []string) ([]byte, error) {
		return []byte("Error: Connection activation failed: Secrets were required\n"), errors.New("exit status 4")
	}}
	n := NewNMCLI(NMCLIConfig{Run: r.run})

	err := result(t, n.Connect("HomeNet", "wrong"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Secrets were required")
}

func TestNMCLIStopAbandonsAttempt(t *testing.T) {
	started := make(chan struct{})
	r := &scriptedRunner{reply: func(ctx context.Context, _ []string) ([]byte, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	n := NewNMCLI(NMCLIConfig{Run: r.run})

	ch := n.Connect("HomeNet", "secret123")
	<-started
	require.NoError(t, n.Stop())
	assert.ErrorIs(t, result(t, ch), ErrStopped)
}

func TestNMCLIStatus(t *testing.T) {
	r := &scriptedRunner{reply: func(context.Context, []string) ([]byte, error) {
		return []byte("no:Neighbour:40\nyes:Home\\:Net:80\n"), nil
	}}
	n := NewNMCLI(NMCLIConfig{Run: r.run})

	assert.True(t, n.IsConnected())
	assert.Equal(t, -60, n.RSSI())

	ssid, pct, ok := n.activeNetwork()
	require.True(t, ok)
	assert.Equal(t, "Home:Net", ssid)
	assert.Equal(t, 80, pct)
}

func TestNMCLINotConnected(t *testing.T) {
	r := &scriptedRunner{reply: func(context.Context, []string) ([]byte, error) {
		return []byte("no:Neighbour:40\n"), nil
	}}
	n := NewNMCLI(NMCLIConfig{Run: r.run})

	assert.False(t, n.IsConnected())
	assert.Equal(t, 0, n.RSSI())
}

func TestPercentToDBm(t *testing.T) {
	tests := []struct {
		pct  int
		want int
	}{
		{0, -100},
		{-5, -100},
		{40, -80},
		{80, -60},
		{100, -50},
		{120, -50},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PercentToDBm(tt.pct), "pct %d", tt.pct)
	}
}
