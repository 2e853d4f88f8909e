package wifi

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialsComplete(t *testing.T) {
	tests := []struct {
		name  string
		creds Credentials
		want  bool
	}{
		{"Both", Credentials{SSID: "HomeNet", Password: "secret123"}, true},
		{"NoPassword", Credentials{SSID: "HomeNet"}, false},
		{"NoSSID", Credentials{Password: "secret123"}, false},
		{"Empty", Credentials{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.creds.Complete())
		})
	}
}

func TestCredentialsStringHidesPassword(t *testing.T) {
	s := Credentials{SSID: "HomeNet", Password: "secret123"}.String()
	assert.Contains(t, s, "HomeNet")
	assert.False(t, strings.Contains(s, "secret123"), "password leaked: %s", s)
}

func TestOutcome(t *testing.T) {
	assert.True(t, Connected("a").Succeeded())
	assert.False(t, Failed("a").Succeeded())
	assert.False(t, TimedOut("a").Succeeded())
	assert.Equal(t, "FAILED(HomeNet)", Failed("HomeNet").String())
	assert.Equal(t, "UNKNOWN", OutcomeKind(0).String())
}

func TestMailboxNewestWins(t *testing.T) {
	mb := NewMailbox()

	assert.False(t, mb.Put(Credentials{SSID: "first", Password: "1"}))
	assert.True(t, mb.Put(Credentials{SSID: "second", Password: "2"}))

	got := <-mb.C()
	assert.Equal(t, "second", got.SSID)

	select {
	case extra := <-mb.C():
		t.Fatalf("unexpected second value %v", extra)
	default:
	}
}

func TestMailboxDrain(t *testing.T) {
	mb := NewMailbox()
	mb.Put(Credentials{SSID: "a", Password: "b"})
	mb.Drain()

	select {
	case v := <-mb.C():
		t.Fatalf("mailbox not drained, got %v", v)
	default:
	}
}

func TestMailboxConcurrentProducers(t *testing.T) {
	mb := NewMailbox()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			mb.Put(Credentials{SSID: "x", Password: "y"})
		}()
	}
	wg.Wait()

	got := <-mb.C()
	require.Equal(t, "x", got.SSID)
	assert.Len(t, mb.C(), 0)
}
