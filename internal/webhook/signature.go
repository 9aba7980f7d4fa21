package webhook

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
)

// SignatureHeader carries the hex-encoded HMAC-SHA512 of the raw request
// body, keyed with the shared webhook secret.
const SignatureHeader = "signature"

// Sign computes the hex HMAC-SHA512 of body under secret. Exported so tests
// and outbound tooling produce signatures the verifier accepts.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks signature against the digest of the exact raw body
// bytes. The comparison is constant time. Re-serialized bodies must never be
// passed here; byte layout is part of the contract.
func VerifySignature(body []byte, signature, secret string) bool {
	if secret == "" || signature == "" {
		return false
	}
	expected := Sign(body, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}
