package webhook

import (
	"log"

	"github.com/comanda-app/comanda/app/models"
)

// Bridge event vocabulary.
const (
	BridgeEventLoginSuccess   = "login_success"
	BridgeEventConnected      = "connected"
	BridgeEventDisconnected   = "disconnected"
	BridgeEventAuthFailed     = "auth_failed"
	BridgeEventContainerEvent = "container_event"

	BridgeCodeContainerStart = "CONTAINER_START"
	BridgeCodeContainerStop  = "CONTAINER_STOP"
)

// MapEventType translates the bridge's event vocabulary into the internal
// one. container_event is qualified by its code; anything else the container
// emits counts as connected. Unknown types are logged and mapped to connected
// so a new bridge version never drops audit rows silently.
func MapEventType(bridgeType, code string) string {
	switch bridgeType {
	case BridgeEventLoginSuccess:
		return models.EVENT_AUTHENTICATED
	case BridgeEventConnected:
		return models.EVENT_CONNECTED
	case BridgeEventDisconnected:
		return models.EVENT_DISCONNECTED
	case BridgeEventAuthFailed:
		return models.EVENT_ERROR
	case BridgeEventContainerEvent:
		switch code {
		case BridgeCodeContainerStart:
			return models.EVENT_CONNECTED
		case BridgeCodeContainerStop:
			return models.EVENT_DISCONNECTED
		default:
			return models.EVENT_CONNECTED
		}
	default:
		log.Printf("webhook: unmapped bridge event type %q (code %q), recording as connected", bridgeType, code)
		return models.EVENT_CONNECTED
	}
}

// MapDeviceStatus translates the bridge's device status vocabulary into the
// internal one. Unmapped values pass through unchanged with a logged warning
// so an operator can spot vocabulary drift in the logs.
func MapDeviceStatus(bridgeStatus string) string {
	switch bridgeStatus {
	case "connected":
		return models.DEVICE_STATUS_ACTIVE
	case "disconnected":
		return models.DEVICE_STATUS_REGISTERED
	case "running":
		return models.DEVICE_STATUS_ACTIVE
	case "stopped":
		return models.DEVICE_STATUS_STOPPED
	case "error":
		return models.DEVICE_STATUS_ERROR
	default:
		log.Printf("webhook: unmapped bridge device status %q, passing through", bridgeStatus)
		return bridgeStatus
	}
}
