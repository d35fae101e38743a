package pairing

import (
	"context"
	"sync"
)

// Manager tracks the open pairing session per device. A device has at most
// one live session; opening again while one is active returns the existing
// one, and a session that died on a failed request is replaced.
type Manager struct {
	mu       sync.Mutex
	sessions map[uint]*Session
	snaps    map[uint]Update
	provider QRProvider
}

func NewManager(provider QRProvider) *Manager {
	return &Manager{
		sessions: make(map[uint]*Session),
		snaps:    make(map[uint]Update),
		provider: provider,
	}
}

// Open starts (or returns) the pairing session for a device.
func (m *Manager) Open(ctx context.Context, deviceID uint, deviceHash string, storeID uint) *Session {
	m.mu.Lock()
	old, ok := m.sessions[deviceID]
	if ok && m.snaps[deviceID].State != StateIdle {
		m.mu.Unlock()
		return old
	}
	delete(m.sessions, deviceID)
	m.mu.Unlock()

	if old != nil {
		old.Close()
	}

	var sess *Session
	sess = NewSession(m.provider, Config{
		DeviceHash: deviceHash,
		StoreID:    storeID,
		Notify: func(u Update) {
			m.mu.Lock()
			// A replaced session may still emit its final Idle update;
			// only the registered session owns the snapshot.
			if m.sessions[deviceID] == sess {
				m.snaps[deviceID] = u
				if u.State == StateIdle && u.Err == nil {
					delete(m.sessions, deviceID)
				}
			}
			m.mu.Unlock()
		},
	})

	m.mu.Lock()
	m.sessions[deviceID] = sess
	m.mu.Unlock()

	sess.Open(ctx)
	return sess
}

// Snapshot returns the last observed state of a device's session. ok is
// false when no session was ever opened for the device.
func (m *Manager) Snapshot(deviceID uint) (Update, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.snaps[deviceID]
	return u, ok
}

// Close tears down the session of a device, if any.
func (m *Manager) Close(deviceID uint) {
	m.mu.Lock()
	s := m.sessions[deviceID]
	m.mu.Unlock()

	if s != nil {
		s.Close()
	}

	m.mu.Lock()
	delete(m.sessions, deviceID)
	m.mu.Unlock()
}
