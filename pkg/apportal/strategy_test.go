package apportal

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buddypal/wifiprov/pkg/wifi"
)

type fakeAnnouncer struct {
	mu        sync.Mutex
	announced []Announcement
	stops     int
	err       error
}

func (f *fakeAnnouncer) Announce(_ context.Context, a Announcement) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.announced = append(f.announced, a)
	return f.err
}

func (f *fakeAnnouncer) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	return nil
}

func newStrategy(t *testing.T, ann Announcer) (*Strategy, *LoopbackAP) {
	t.Helper()
	ap := NewLoopbackAP("BuddyPal-A1B2", "")
	s, err := NewStrategy(Config{AccessPoint: ap, Announcer: ann})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop() })
	return s, ap
}

func TestNewStrategyRequiresAccessPoint(t *testing.T) {
	_, err := NewStrategy(Config{})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestStrategyForwardsSubmissions(t *testing.T) {
	s, ap := newStrategy(t, nil)
	require.NoError(t, s.Start(context.Background()))
	assert.True(t, ap.Running())

	require.NoError(t, ap.Submit(wifi.Credentials{SSID: "HomeNet", Password: "pw"}))

	select {
	case c := <-s.Credentials():
		assert.Equal(t, wifi.Credentials{SSID: "HomeNet", Password: "pw"}, c)
	case <-time.After(time.Second):
		t.Fatal("submission not forwarded")
	}
}

func TestStrategyDropsIncompleteSubmissions(t *testing.T) {
	s, ap := newStrategy(t, nil)
	require.NoError(t, s.Start(context.Background()))

	require.NoError(t, ap.Submit(wifi.Credentials{SSID: "HomeNet"}))

	select {
	case c := <-s.Credentials():
		t.Fatalf("unexpected credentials %v", c)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestStrategyStartStop(t *testing.T) {
	ann := &fakeAnnouncer{}
	s, ap := newStrategy(t, ann)

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Start(context.Background()))
	require.Len(t, ann.announced, 1)
	assert.Equal(t, Announcement{
		Instance: "BuddyPal-A1B2",
		Port:     80,
		Text:     []string{"path=/", "ssid=BuddyPal-A1B2"},
	}, ann.announced[0])

	require.NoError(t, s.Stop())
	require.NoError(t, s.Stop())
	assert.False(t, ap.Running())
	assert.False(t, s.Running())
	assert.Equal(t, 1, ann.stops)
	assert.ErrorIs(t, ap.Submit(wifi.Credentials{SSID: "a", Password: "b"}), ErrNotRunning)
}

func TestStrategyRestartDiscardsUnreadCredentials(t *testing.T) {
	s, ap := newStrategy(t, nil)
	require.NoError(t, s.Start(context.Background()))

	require.NoError(t, ap.Submit(wifi.Credentials{SSID: "OldNet", Password: "oldpw"}))
	require.Eventually(t, func() bool { return len(s.Credentials()) == 1 }, time.Second, time.Millisecond)

	require.NoError(t, s.Stop())
	assert.Empty(t, s.Credentials())
	require.NoError(t, s.Start(context.Background()))

	select {
	case c := <-s.Credentials():
		t.Fatalf("credentials from the earlier run delivered: %v", c)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestStrategyAnnounceFailureNotFatal(t *testing.T) {
	s, _ := newStrategy(t, &fakeAnnouncer{err: errors.New("no multicast")})
	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.Running())
}

func TestStrategyStatus(t *testing.T) {
	s, _ := newStrategy(t, nil)
	require.NoError(t, s.Start(context.Background()))

	s.SendDebug("connecting to HomeNet")
	s.SendStatus(wifi.Connected("HomeNet"))
	word, debug := s.LastStatus()
	assert.Equal(t, "SUCCESS", word)
	assert.Equal(t, "connecting to HomeNet", debug)

	s.SendStatus(wifi.TimedOut("HomeNet"))
	word, _ = s.LastStatus()
	assert.Equal(t, "FAILED", word)
}

func TestStrategyHint(t *testing.T) {
	s, _ := newStrategy(t, nil)
	assert.Equal(t, "Connect to hotspot BuddyPal-A1B2, then open http://192.168.4.1 in a browser", s.Hint())
	assert.Equal(t, TransportName, s.Name())
}

func TestHotspotSSID(t *testing.T) {
	assert.Equal(t, "BuddyPal-A1B2", HotspotSSID("BuddyPal", []byte{0x00, 0x11, 0x22, 0x33, 0xA1, 0xB2}))
	assert.Equal(t, "BuddyPal", HotspotSSID("BuddyPal", nil))
}

func TestPortOf(t *testing.T) {
	assert.Equal(t, 80, portOf("http://192.168.4.1"))
	assert.Equal(t, 8080, portOf("http://192.168.4.1:8080/setup"))
	assert.Equal(t, 443, portOf("https://setup.local"))
	assert.Equal(t, 80, portOf("::bad::"))
}
