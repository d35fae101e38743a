package pairing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comanda-app/comanda/internal/pkg/bridge"
	"github.com/comanda-app/comanda/internal/pkg/eventbus"
)

type fakeProvider struct {
	mu        sync.Mutex
	calls     int
	responses []*bridge.QRResponse
	errs      []error
}

func (f *fakeProvider) RequestQR(ctx context.Context, deviceHash string, storeID uint) (*bridge.QRResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return nil, errors.New("no more responses")
}

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestSession_QRLifecycle(t *testing.T) {
	provider := &fakeProvider{
		responses: []*bridge.QRResponse{
			{QRCode: "code-1", QRDuration: 3},
		},
		errs: []error{nil, errors.New("bridge gone")},
	}

	s := NewSession(provider, Config{
		DeviceHash: "hash-a",
		Tick:       5 * time.Millisecond,
		CloseGrace: 10 * time.Millisecond,
	})
	defer s.Close()

	s.Open(context.Background())

	// one request up front, QR displayed with the server's validity
	assert.Equal(t, 1, provider.callCount())
	assert.Equal(t, StateDisplaying, s.State())
	assert.Equal(t, 3, s.Countdown())

	// countdown runs to zero, then exactly one refresh request goes out
	require.Eventually(t, func() bool {
		return provider.callCount() == 2
	}, time.Second, time.Millisecond)

	// the refresh failed, so the session falls back to Idle and stays there
	require.Eventually(t, func() bool {
		return s.State() == StateIdle
	}, time.Second, time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 2, provider.callCount(), "a failed refresh must not retry on its own")
}

func TestSession_AlreadyLoggedIn(t *testing.T) {
	provider := &fakeProvider{
		responses: []*bridge.QRResponse{
			{IsAlreadyLoggedIn: true},
		},
	}

	var mu sync.Mutex
	var updates []Update
	s := NewSession(provider, Config{
		DeviceHash: "hash-b",
		Tick:       5 * time.Millisecond,
		CloseGrace: 10 * time.Millisecond,
		Notify: func(u Update) {
			mu.Lock()
			updates = append(updates, u)
			mu.Unlock()
		},
	})
	defer s.Close()

	s.Open(context.Background())
	assert.Equal(t, StateConnected, s.State())

	// the grace timer closes the session without another request
	require.Eventually(t, func() bool {
		return s.State() == StateIdle
	}, time.Second, time.Millisecond)
	assert.Equal(t, 1, provider.callCount())

	mu.Lock()
	defer mu.Unlock()
	var sawConnected bool
	for _, u := range updates {
		if u.State == StateConnected && u.Connected {
			sawConnected = true
		}
	}
	assert.True(t, sawConnected)
}

func TestSession_ExternalLoginMatchesDeviceOnly(t *testing.T) {
	provider := &fakeProvider{
		responses: []*bridge.QRResponse{
			{QRCode: "code-1", QRDuration: 60},
		},
	}

	s := NewSession(provider, Config{
		DeviceHash: "hash-c",
		Tick:       time.Hour, // countdown must not interfere here
		CloseGrace: time.Hour,
	})
	defer s.Close()

	s.Open(context.Background())
	require.Equal(t, StateDisplaying, s.State())

	// a login for some other device leaves this session alone
	eventbus.PublishDeviceConnected("hash-other")
	assert.Equal(t, StateDisplaying, s.State())

	// a login for this device connects it
	eventbus.PublishDeviceConnected("hash-c")
	assert.Equal(t, StateConnected, s.State())
}

func TestSession_AlreadyLoggedInAnnouncesLogin(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	handler := func(deviceHash string) {
		mu.Lock()
		seen = append(seen, deviceHash)
		mu.Unlock()
	}
	eventbus.SubscribeDeviceConnected(handler)
	defer eventbus.UnsubscribeDeviceConnected(handler)

	provider := &fakeProvider{
		responses: []*bridge.QRResponse{
			{IsAlreadyLoggedIn: true},
		},
	}
	s := NewSession(provider, Config{
		DeviceHash: "hash-announce",
		Tick:       time.Hour,
		CloseGrace: time.Hour,
	})
	defer s.Close()

	s.Open(context.Background())
	require.Equal(t, StateConnected, s.State())

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, seen, "hash-announce", "caches subscribed to the bus must learn about the login")
}

func TestSession_CloseOfOneSessionKeepsOthersWatching(t *testing.T) {
	providerA := &fakeProvider{
		responses: []*bridge.QRResponse{{QRCode: "code-a", QRDuration: 60}},
	}
	providerB := &fakeProvider{
		responses: []*bridge.QRResponse{{QRCode: "code-b", QRDuration: 60}},
	}

	a := NewSession(providerA, Config{DeviceHash: "hash-keep", Tick: time.Hour, CloseGrace: time.Hour})
	defer a.Close()
	b := NewSession(providerB, Config{DeviceHash: "hash-gone", Tick: time.Hour, CloseGrace: time.Hour})

	a.Open(context.Background())
	b.Open(context.Background())
	require.Equal(t, StateDisplaying, a.State())
	require.Equal(t, StateDisplaying, b.State())

	// tearing down one dialog must not eat another device's login watch
	b.Close()

	eventbus.PublishDeviceConnected("hash-keep")
	assert.Equal(t, StateConnected, a.State())
}

func TestSession_CloseClearsEverything(t *testing.T) {
	provider := &fakeProvider{
		responses: []*bridge.QRResponse{
			{QRCode: "code-1", QRDuration: 60},
		},
	}

	s := NewSession(provider, Config{
		DeviceHash: "hash-d",
		Tick:       time.Hour,
	})
	s.Open(context.Background())
	require.Equal(t, StateDisplaying, s.State())

	s.Close()
	assert.Equal(t, StateIdle, s.State())
	assert.Equal(t, 0, s.Countdown())

	// closed sessions ignore further logins
	eventbus.PublishDeviceConnected("hash-d")
	assert.Equal(t, StateIdle, s.State())
}

func TestManager_SingleSessionPerDevice(t *testing.T) {
	provider := &fakeProvider{
		responses: []*bridge.QRResponse{
			{QRCode: "code-1", QRDuration: 60},
			{QRCode: "code-2", QRDuration: 60},
		},
	}
	m := NewManager(provider)
	defer m.Close(7)

	first := m.Open(context.Background(), 7, "hash-m", 1)
	second := m.Open(context.Background(), 7, "hash-m", 1)
	assert.Same(t, first, second)
	assert.Equal(t, 1, provider.callCount())

	snap, ok := m.Snapshot(7)
	require.True(t, ok)
	assert.Equal(t, StateDisplaying, snap.State)
	assert.Equal(t, 60, snap.Countdown)
	assert.NotEmpty(t, snap.QRCode)
}
