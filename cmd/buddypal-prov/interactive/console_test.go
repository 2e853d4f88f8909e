package interactive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buddypal/wifiprov/pkg/station"
)

func TestRestOf(t *testing.T) {
	tests := []struct {
		input string
		n     int
		want  string
	}{
		{"ssid Home Net", 1, "Home Net"},
		{"password", 1, ""},
		{"password   pass word ", 1, "pass word"},
		{"write 0x002A hello world", 2, "hello world"},
		{"write 0x002A", 2, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, restOf(tt.input, tt.n), "%q", tt.input)
	}
}

func TestMaskPassword(t *testing.T) {
	assert.Equal(t, "(open)", maskPassword(""))
	assert.Equal(t, "*****", maskPassword("abcde"))
}

func TestStationStatus(t *testing.T) {
	st := station.NewSimulated(time.Millisecond, station.Network{SSID: "HomeNet", Password: "pw", RSSI: -65})
	assert.Equal(t, "Station:       disconnected\n", stationStatus(st))

	select {
	case err := <-st.Connect("HomeNet", "pw"):
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("simulated connect did not resolve")
	}

	out := stationStatus(st)
	assert.Contains(t, out, "connected to HomeNet (rssi -65)")
	assert.Contains(t, out, `{"network":{"type":"wifi","ssid":"HomeNet","signal":"medium"}}`)
}
