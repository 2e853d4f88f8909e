package station

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buddypal/wifiprov/pkg/connect"
)

func result(t *testing.T, ch <-chan error) error {
	t.Helper()
	select {
	case err := <-ch:
		return err
	case <-time.After(time.Second):
		t.Fatal("connect did not resolve")
		return nil
	}
}

func TestSimulatedConnect(t *testing.T) {
	s := NewSimulated(time.Millisecond, Network{SSID: "HomeNet", Password: "secret123", RSSI: -55})

	require.NoError(t, result(t, s.Connect("HomeNet", "secret123")))
	assert.True(t, s.IsConnected())
	assert.Equal(t, "HomeNet", s.SSID())
	assert.Equal(t, -55, s.RSSI())
	assert.Equal(t, connect.SignalStrong, connect.StationSignal(s))

	require.NoError(t, s.Stop())
	assert.False(t, s.IsConnected())
	assert.Equal(t, connect.SignalOff, connect.StationSignal(s))
}

func TestSimulatedFailures(t *testing.T) {
	s := NewSimulated(time.Millisecond, Network{SSID: "HomeNet", Password: "secret123"})

	assert.ErrorIs(t, result(t, s.Connect("HomeNet", "nope")), ErrAuthFailed)
	assert.ErrorIs(t, result(t, s.Connect("Elsewhere", "x")), ErrUnknownNetwork)
	assert.False(t, s.IsConnected())
}

func TestSimulatedHangUntilStopped(t *testing.T) {
	s := NewSimulated(time.Millisecond, Network{SSID: "Hang", Hang: true})

	ch := s.Connect("Hang", "")
	select {
	case err := <-ch:
		t.Fatalf("hang network resolved with %v", err)
	case <-time.After(30 * time.Millisecond):
	}

	require.NoError(t, s.Stop())
	assert.ErrorIs(t, result(t, ch), ErrStopped)
}

func TestSimulatedNewAttemptAbandonsOld(t *testing.T) {
	s := NewSimulated(time.Hour, Network{SSID: "A", Password: "a"})

	first := s.Connect("A", "a")
	s.AddNetwork(Network{SSID: "B", Password: "b"})
	_ = s.Connect("B", "b")

	assert.ErrorIs(t, result(t, first), ErrStopped)
	assert.Len(t, s.Networks(), 2)
}
