package pairing

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/comanda-app/comanda/internal/pkg/bridge"
	"github.com/comanda-app/comanda/internal/pkg/eventbus"
)

// State of a pairing session.
type State string

const (
	StateIdle       State = "idle"
	StateRequesting State = "requesting"
	StateDisplaying State = "displaying"
	StateConnected  State = "connected"
)

const (
	defaultQRValidity = 30 * time.Second
	defaultTick       = time.Second
	defaultCloseGrace = 2 * time.Second
)

// QRProvider is the slice of the bridge client a session needs.
type QRProvider interface {
	RequestQR(ctx context.Context, deviceHash string, storeID uint) (*bridge.QRResponse, error)
}

// Update is pushed to the session owner on every observable change.
type Update struct {
	State     State
	QRCode    string
	Countdown int
	Connected bool
	Err       error
}

// Config describes one pairing attempt. Durations default to the production
// values when zero; tests shorten them.
type Config struct {
	DeviceHash string
	StoreID    uint
	QRValidity time.Duration
	Tick       time.Duration
	CloseGrace time.Duration
	Notify     func(Update)
}

// Session drives the QR pairing flow for one device. All transitions happen
// synchronously under the session lock, and the session owns exactly one
// timer at any moment: either the countdown tick or the post-connect grace
// close, never both.
type Session struct {
	cfg    Config
	bridge QRProvider

	mu        sync.Mutex
	state     State
	qrDataURL string
	countdown int
	inFlight  bool
	closed    bool
	timer     *time.Timer
}

// NewSession creates a session in the Idle state. Call Open to start it.
func NewSession(provider QRProvider, cfg Config) *Session {
	if cfg.QRValidity <= 0 {
		cfg.QRValidity = defaultQRValidity
	}
	if cfg.Tick <= 0 {
		cfg.Tick = defaultTick
	}
	if cfg.CloseGrace <= 0 {
		cfg.CloseGrace = defaultCloseGrace
	}
	if cfg.Notify == nil {
		cfg.Notify = func(Update) {}
	}
	return &Session{
		cfg:    cfg,
		bridge: provider,
		state:  StateIdle,
	}
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Countdown returns the remaining QR validity in seconds.
func (s *Session) Countdown() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countdown
}

// Open starts the pairing flow: registers the session for login notifications
// on its device hash and issues the first QR request unless one is already in
// flight.
func (s *Session) Open(ctx context.Context) {
	s.mu.Lock()
	if s.state != StateIdle || s.closed {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	watchLogin(s)
	s.requestQR(ctx)
}

// requestQR issues one bridge request guarded by the in-flight latch. The
// latch is released on success and on failure, never mid-request.
func (s *Session) requestQR(ctx context.Context) {
	s.mu.Lock()
	if s.closed || s.inFlight || s.state == StateConnected {
		s.mu.Unlock()
		return
	}
	s.inFlight = true
	s.state = StateRequesting
	s.notifyLocked()
	s.mu.Unlock()

	resp, err := s.bridge.RequestQR(ctx, s.cfg.DeviceHash, s.cfg.StoreID)

	s.mu.Lock()
	s.inFlight = false
	if s.closed {
		s.mu.Unlock()
		return
	}

	if err != nil {
		log.Printf("pairing: qr request for device %s failed: %v", s.cfg.DeviceHash, err)
		s.stopTimerLocked()
		s.state = StateIdle
		s.qrDataURL = ""
		s.countdown = 0
		s.cfg.Notify(Update{State: s.state, Err: err})
		s.mu.Unlock()
		return
	}

	if resp.IsAlreadyLoggedIn {
		s.connectLocked()
		s.mu.Unlock()
		// The bus is synchronous and its handlers re-enter the session lock,
		// so the announcement goes out after the transition is released.
		eventbus.PublishDeviceConnected(s.cfg.DeviceHash)
		return
	}

	dataURL, err := bridge.QRCodeDataURL(resp.QRCode)
	if err != nil {
		log.Printf("pairing: failed to render qr for device %s: %v", s.cfg.DeviceHash, err)
		s.stopTimerLocked()
		s.state = StateIdle
		s.cfg.Notify(Update{State: s.state, Err: err})
		s.mu.Unlock()
		return
	}

	validity := int(s.cfg.QRValidity / time.Second)
	if resp.QRDuration > 0 {
		validity = resp.QRDuration
	}

	s.state = StateDisplaying
	s.qrDataURL = dataURL
	s.countdown = validity
	s.notifyLocked()
	s.armTickLocked(ctx)
	s.mu.Unlock()
}

// tick decrements the countdown. When it reaches zero the timer is stopped
// first, then exactly one refresh request goes out.
func (s *Session) tick(ctx context.Context) {
	s.mu.Lock()
	if s.closed || s.state != StateDisplaying {
		s.mu.Unlock()
		return
	}
	s.countdown--
	if s.countdown > 0 {
		s.notifyLocked()
		s.armTickLocked(ctx)
		s.mu.Unlock()
		return
	}
	s.countdown = 0
	s.stopTimerLocked()
	s.qrDataURL = ""
	s.notifyLocked()
	s.mu.Unlock()

	s.requestQR(ctx)
}

// handleExternalLogin reacts to a LOGIN_SUCCESS notification for this device.
func (s *Session) handleExternalLogin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state == StateConnected {
		return
	}
	s.connectLocked()
}

// connectLocked transitions to Connected and schedules the grace close.
// Caller holds the lock.
func (s *Session) connectLocked() {
	s.stopTimerLocked()
	s.state = StateConnected
	s.qrDataURL = ""
	s.countdown = 0
	s.cfg.Notify(Update{State: s.state, Connected: true})
	s.timer = time.AfterFunc(s.cfg.CloseGrace, s.Close)
}

// Close tears the session down: timer cleared, countdown zeroed, latch
// released, login subscription removed. Safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.stopTimerLocked()
	s.state = StateIdle
	s.qrDataURL = ""
	s.countdown = 0
	s.inFlight = false
	s.cfg.Notify(Update{State: StateIdle})
	s.mu.Unlock()

	unwatchLogin(s)
}

func (s *Session) armTickLocked(ctx context.Context) {
	s.stopTimerLocked()
	s.timer = time.AfterFunc(s.cfg.Tick, func() { s.tick(ctx) })
}

func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Session) notifyLocked() {
	s.cfg.Notify(Update{
		State:     s.state,
		QRCode:    s.qrDataURL,
		Countdown: s.countdown,
		Connected: s.state == StateConnected,
	})
}
