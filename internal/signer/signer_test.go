package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSign(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		secret  string
	}{
		{
			name:    "order payload",
			payload: []byte(`{"orderId":"12345","status":"created"}`),
			secret:  "s3cr3t",
		},
		{
			name:    "empty payload",
			payload: []byte(`{}`),
			secret:  "secret",
		},
		{
			name:    "unicode payload",
			payload: []byte(`{"name":"café","price":"€10"}`),
			secret:  "unicode-key-日本語",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := Sign(tt.payload, tt.secret)

			decoded, err := hex.DecodeString(sig)
			require.NoError(t, err, "signature must be valid hex")
			require.Len(t, decoded, sha256.Size)

			mac := hmac.New(sha256.New, []byte(tt.secret))
			mac.Write(tt.payload)
			assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), sig)
		})
	}
}

func TestSign_Deterministic(t *testing.T) {
	payload := []byte(`{"event":"test"}`)
	assert.Equal(t, Sign(payload, "k"), Sign(payload, "k"))
}

func TestSign_DiffersByInput(t *testing.T) {
	payload := []byte(`{"a":1}`)
	assert.NotEqual(t, Sign(payload, "secret-1"), Sign(payload, "secret-2"))
	assert.NotEqual(t, Sign([]byte(`{"a":1}`), "k"), Sign([]byte(`{"a":2}`), "k"))
}

func TestVerify(t *testing.T) {
	payload := []byte(`{"orderId":"12345"}`)
	sig := Sign(payload, "s3cr3t")

	assert.True(t, Verify(payload, "s3cr3t", sig))
	assert.False(t, Verify(payload, "wrong", sig))
	assert.False(t, Verify([]byte(`{"orderId":"tampered"}`), "s3cr3t", sig))
	assert.False(t, Verify(payload, "s3cr3t", "deadbeef"))
}
