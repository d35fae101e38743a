package pairing

import (
	"sync"

	"github.com/comanda-app/comanda/internal/pkg/eventbus"
)

// The bus matches unsubscribe calls by handler code pointer, so one closure
// per session cannot be removed individually. Instead the package holds a
// single subscription and dispatches to open sessions keyed by device hash.
var loginWatch = struct {
	once     sync.Once
	mu       sync.Mutex
	sessions map[string]*Session
}{sessions: make(map[string]*Session)}

func watchLogin(s *Session) {
	loginWatch.once.Do(func() {
		eventbus.SubscribeDeviceConnected(dispatchLogin)
	})
	loginWatch.mu.Lock()
	loginWatch.sessions[s.cfg.DeviceHash] = s
	loginWatch.mu.Unlock()
}

// unwatchLogin removes the session's registration. A replacement session for
// the same device may already own the slot, so removal checks identity.
func unwatchLogin(s *Session) {
	loginWatch.mu.Lock()
	if loginWatch.sessions[s.cfg.DeviceHash] == s {
		delete(loginWatch.sessions, s.cfg.DeviceHash)
	}
	loginWatch.mu.Unlock()
}

func dispatchLogin(deviceHash string) {
	loginWatch.mu.Lock()
	s := loginWatch.sessions[deviceHash]
	loginWatch.mu.Unlock()

	if s != nil {
		s.handleExternalLogin()
	}
}
