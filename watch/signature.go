package watch

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

var (
	// ErrConfigMissing means the signature header or the shared secret was
	// absent; the request never reaches dispatch.
	ErrConfigMissing = errors.New("missing signature header or webhook secret")

	// ErrSignatureInvalid means the claimed signature did not match the HMAC
	// digest of the payload.
	ErrSignatureInvalid = errors.New("invalid webhook signature")
)

// Sign computes the hex HMAC-SHA256 of payload with the "sha256=" prefix
// GitHub uses in X-Hub-Signature-256.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// Verify checks the claimed signature against the payload in constant time.
func Verify(signature string, payload []byte, secret string) error {
	if signature == "" || secret == "" {
		return ErrConfigMissing
	}
	if !hmac.Equal([]byte(Sign(payload, secret)), []byte(signature)) {
		return ErrSignatureInvalid
	}
	return nil
}
