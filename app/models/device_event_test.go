package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKnownEventType(t *testing.T) {
	assert.True(t, KnownEventType(EVENT_CONNECTED))
	assert.True(t, KnownEventType(EVENT_MESSAGE_SENT))
	assert.False(t, KnownEventType("container_event"), "bridge vocabulary is not internal vocabulary")
	assert.False(t, KnownEventType(""))
}
