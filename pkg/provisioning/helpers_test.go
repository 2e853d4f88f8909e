package provisioning

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/buddypal/wifiprov/pkg/connect"
	"github.com/buddypal/wifiprov/pkg/settings"
	"github.com/buddypal/wifiprov/pkg/wifi"
)

const waitFor = 2 * time.Second

// fakeTransport is a Transport driven by the test.
type fakeTransport struct {
	name  string
	creds chan wifi.Credentials

	mu       sync.Mutex
	starts   int
	stops    int
	running  bool
	statuses []wifi.Outcome
	debug    []string
}

func newFakeTransport(name string) *fakeTransport {
	return &fakeTransport{name: name, creds: make(chan wifi.Credentials, 8)}
}

func (f *fakeTransport) Name() string { return f.name }

func (f *fakeTransport) Start(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	f.running = true
	return nil
}

func (f *fakeTransport) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	f.running = false
	return nil
}

func (f *fakeTransport) Credentials() <-chan wifi.Credentials { return f.creds }

func (f *fakeTransport) SendStatus(o wifi.Outcome) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, o)
}

func (f *fakeTransport) SendDebug(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.debug = append(f.debug, msg)
}

func (f *fakeTransport) Hint() string { return "use " + f.name }

func (f *fakeTransport) isRunning() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

func (f *fakeTransport) startCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts
}

func (f *fakeTransport) stopCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stops
}

func (f *fakeTransport) sentStatuses() []wifi.Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]wifi.Outcome(nil), f.statuses...)
}

func (f *fakeTransport) sentDebug() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.debug...)
}

// fakeAttempter records calls and answers through fn.
type fakeAttempter struct {
	mu    sync.Mutex
	calls []wifi.Credentials
	fn    func(ctx context.Context, creds wifi.Credentials) (wifi.Outcome, error)
}

func (a *fakeAttempter) Attempt(ctx context.Context, creds wifi.Credentials, _ time.Duration) (wifi.Outcome, error) {
	a.mu.Lock()
	a.calls = append(a.calls, creds)
	fn := a.fn
	a.mu.Unlock()
	if fn == nil {
		return wifi.Connected(creds.SSID), nil
	}
	return fn(ctx, creds)
}

func (a *fakeAttempter) attempts() []wifi.Credentials {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]wifi.Credentials(nil), a.calls...)
}

// mockRestarter closes done when Restart is called.
type mockRestarter struct {
	mock.Mock
	once sync.Once
	done chan struct{}
}

func newMockRestarter() *mockRestarter {
	r := &mockRestarter{done: make(chan struct{})}
	r.On("Restart").Return(nil)
	return r
}

func (r *mockRestarter) Restart() error {
	args := r.Called()
	r.once.Do(func() { close(r.done) })
	return args.Error(0)
}

func (r *mockRestarter) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(waitFor):
		t.Fatal("restart not requested")
	}
}

type fixedSignal connect.Signal

func (s fixedSignal) Signal() connect.Signal { return connect.Signal(s) }

// instantStation connects immediately when the password matches.
type instantStation struct {
	password string
}

func (s instantStation) Connect(_ string, password string) <-chan error {
	ch := make(chan error, 1)
	if password == s.password {
		ch <- nil
	} else {
		ch <- connect.ErrIncomplete
	}
	return ch
}

func (instantStation) IsConnected() bool { return false }
func (instantStation) RSSI() int         { return -100 }
func (instantStation) Stop() error       { return nil }

func testConfig(store settings.Store, attempter Attempter, restarter Restarter) Config {
	return Config{
		Path:              PathLocalAP,
		AttemptTimeout:    time.Second,
		GracePeriod:       5 * time.Millisecond,
		RestartDelay:      5 * time.Millisecond,
		HeartbeatInterval: time.Hour,
		ResetDelay:        5 * time.Millisecond,
		Store:             store,
		Attempter:         attempter,
		Restarter:         restarter,
	}
}

type runResult struct {
	err error
}

func runAsync(ctx context.Context, o *Orchestrator) <-chan runResult {
	done := make(chan runResult, 1)
	go func() {
		done <- runResult{err: o.Run(ctx)}
	}()
	return done
}

func waitRun(t *testing.T, done <-chan runResult) error {
	t.Helper()
	select {
	case r := <-done:
		return r.err
	case <-time.After(waitFor):
		t.Fatal("Run did not return")
		return nil
	}
}

func waitState(t *testing.T, o *Orchestrator, want State) {
	t.Helper()
	require.Eventually(t, func() bool { return o.State() == want }, waitFor, time.Millisecond,
		"state %s not reached, at %s", want, o.State())
}
