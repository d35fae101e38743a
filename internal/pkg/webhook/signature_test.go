package webhook

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifySignature_Valid(t *testing.T) {
	payload := []byte(`{"device":{"phoneNumber":"+4915112345678"},"timestamp":"2026-08-30T12:00:00Z"}`)
	secret := "0f6c0a8b1d2e3f4a5b6c7d8e9f0a1b2c"

	sig := Sign(payload, secret)
	assert.True(t, VerifySignature(payload, sig, secret))
}

func TestVerifySignature_UppercaseHexAccepted(t *testing.T) {
	payload := []byte(`{"x":1}`)
	secret := "secret"

	sig := strings.ToUpper(Sign(payload, secret))
	assert.True(t, VerifySignature(payload, sig, secret))
}

func TestVerifySignature_MutatedPayload(t *testing.T) {
	payload := []byte(`{"device":{"phoneNumber":"+4915112345678"}}`)
	secret := "secret"

	sig := Sign(payload, secret)
	mutated := []byte(`{"device":{"phoneNumber":"+4915100000000"}}`)
	assert.False(t, VerifySignature(mutated, sig, secret))
}

func TestVerifySignature_MutatedSignature(t *testing.T) {
	payload := []byte(`{"x":1}`)
	secret := "secret"

	sig := Sign(payload, secret)
	require.NotEmpty(t, sig)

	// flip one nibble
	flipped := []byte(sig)
	if flipped[0] == 'a' {
		flipped[0] = 'b'
	} else {
		flipped[0] = 'a'
	}
	assert.False(t, VerifySignature(payload, string(flipped), secret))
}

func TestVerifySignature_WrongSecret(t *testing.T) {
	payload := []byte(`{"x":1}`)
	sig := Sign(payload, "secret-a")
	assert.False(t, VerifySignature(payload, sig, "secret-b"))
}

func TestVerifySignature_Rejections(t *testing.T) {
	payload := []byte(`{"x":1}`)

	assert.False(t, VerifySignature(payload, "", "secret"), "empty signature")
	assert.False(t, VerifySignature(payload, "not-hex!", "secret"), "non-hex signature")
	assert.False(t, VerifySignature(payload, "abcd", "secret"), "truncated signature")
	assert.False(t, VerifySignature(payload, Sign(payload, "secret"), ""), "empty secret")
}

func TestVerifySignature_RawBytesNotReserializedJSON(t *testing.T) {
	// Semantically identical JSON with different whitespace must fail:
	// the HMAC covers the exact raw bytes.
	compact := []byte(`{"a":1,"b":2}`)
	spaced := []byte(`{ "a": 1, "b": 2 }`)
	secret := "secret"

	sig := Sign(compact, secret)
	assert.True(t, VerifySignature(compact, sig, secret))
	assert.False(t, VerifySignature(spaced, sig, secret))
}
