package eventbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublishDeviceConnected(t *testing.T) {
	var got []string
	handler := func(deviceHash string) {
		got = append(got, deviceHash)
	}
	SubscribeDeviceConnected(handler)
	defer UnsubscribeDeviceConnected(handler)

	PublishDeviceConnected("hash-a")
	PublishDeviceConnected("hash-b")

	assert.Equal(t, []string{"hash-a", "hash-b"}, got)
}

func TestPublishDeviceStatusChanged(t *testing.T) {
	type change struct{ hash, status string }
	var got []change
	SubscribeDeviceStatusChanged(func(deviceHash, status string) {
		got = append(got, change{deviceHash, status})
	})

	PublishDeviceStatusChanged("hash-a", "active")

	assert.Equal(t, []change{{"hash-a", "active"}}, got)
}
