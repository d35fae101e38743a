package eventbus

import (
	"log"
	"sync"

	"github.com/asaskevich/EventBus"
)

// Topics published on the shared bus. The live channel listener publishes,
// the cache layer and open pairing sessions subscribe; neither side knows
// about the other's transport.
const (
	TopicDeviceConnected     = "device.connected"
	TopicDeviceStatusChanged = "device.status_changed"
)

var (
	bus  EventBus.Bus
	once sync.Once
)

// Get returns the process-wide event bus.
func Get() EventBus.Bus {
	once.Do(func() {
		bus = EventBus.New()
	})
	return bus
}

// PublishDeviceConnected announces that the bridge reported a successful
// login for the given device hash.
func PublishDeviceConnected(deviceHash string) {
	Get().Publish(TopicDeviceConnected, deviceHash)
}

// PublishDeviceStatusChanged announces a status transition applied by the
// webhook ingest.
func PublishDeviceStatusChanged(deviceHash, status string) {
	Get().Publish(TopicDeviceStatusChanged, deviceHash, status)
}

// SubscribeDeviceConnected registers a handler for login-success events.
func SubscribeDeviceConnected(fn func(deviceHash string)) {
	if err := Get().Subscribe(TopicDeviceConnected, fn); err != nil {
		log.Printf("eventbus: subscribe %s failed: %v", TopicDeviceConnected, err)
	}
}

// UnsubscribeDeviceConnected removes a previously registered handler.
func UnsubscribeDeviceConnected(fn func(deviceHash string)) {
	if err := Get().Unsubscribe(TopicDeviceConnected, fn); err != nil {
		log.Printf("eventbus: unsubscribe %s failed: %v", TopicDeviceConnected, err)
	}
}

// SubscribeDeviceStatusChanged registers a handler for status transitions.
func SubscribeDeviceStatusChanged(fn func(deviceHash, status string)) {
	if err := Get().Subscribe(TopicDeviceStatusChanged, fn); err != nil {
		log.Printf("eventbus: subscribe %s failed: %v", TopicDeviceStatusChanged, err)
	}
}
