// Package signer computes the message-authentication code carried in the
// X-Webhook-Signature header. The signature is an HMAC-SHA256 over the exact
// bytes of the request body, hex encoded, so receivers can recompute it over
// what they actually read off the wire.
package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Sign returns the hex-encoded HMAC-SHA256 of payload under secret.
// Deliveries to subscriptions without a secret must omit the signature header
// instead of calling Sign with an empty key.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature matches payload under secret. Receivers
// should use this rather than a string comparison; hmac.Equal is constant time.
func Verify(payload []byte, secret, signature string) bool {
	expected := Sign(payload, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}
