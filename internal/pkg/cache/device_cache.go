package cache

import (
	"fmt"
	"log"
	"time"

	"github.com/comanda-app/comanda/internal/pkg/eventbus"
)

const deviceListTTL = 30 * time.Second

// DeviceListKey is the cache key for a store's device list.
func DeviceListKey(storeID uint) string {
	return fmt.Sprintf("devices:store:%d", storeID)
}

// DeviceKey is the cache key for a single device, addressed by its bridge hash.
func DeviceKey(deviceHash string) string {
	return "device:hash:" + deviceHash
}

// SetDeviceList caches the serialized device list of a store.
func SetDeviceList(storeID uint, payload string) error {
	return Set(DeviceListKey(storeID), payload, deviceListTTL)
}

// GetDeviceList returns the cached device list of a store, if any.
func GetDeviceList(storeID uint) (string, error) {
	return Get(DeviceListKey(storeID))
}

// InvalidateDevice drops the cached entries affected by a device state change.
func InvalidateDevice(storeID uint, deviceHash string) {
	if err := Delete(DeviceListKey(storeID)); err != nil {
		log.Printf("cache: failed to invalidate device list for store %d: %v", storeID, err)
	}
	if deviceHash != "" {
		if err := Delete(DeviceKey(deviceHash)); err != nil {
			log.Printf("cache: failed to invalidate device %s: %v", deviceHash, err)
		}
	}
}

// SubscribeInvalidation wires the cache to the event bus: any connected or
// status-changed event drops the affected keys, so registry reads after a
// live-channel notification see fresh data. resolveStore maps a device hash
// to its owning store (0 when unknown).
func SubscribeInvalidation(resolveStore func(deviceHash string) uint) {
	eventbus.SubscribeDeviceConnected(func(deviceHash string) {
		InvalidateDevice(resolveStore(deviceHash), deviceHash)
	})
	eventbus.SubscribeDeviceStatusChanged(func(deviceHash, status string) {
		InvalidateDevice(resolveStore(deviceHash), deviceHash)
	})
}
