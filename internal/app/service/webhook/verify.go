package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
)

// ErrSignatureInvalid marks authentication failures: missing or mismatched
// webhook signatures. Handlers map it to HTTP 400 with no side effects.
var ErrSignatureInvalid = errors.New("webhook signature verification failed")

// verifyRazorpaySignature checks the hex HMAC-SHA256 of the raw body against
// the header-supplied signature. Constant-time compare; the raw body must be
// exactly as received, never re-serialized JSON.
func verifyRazorpaySignature(body []byte, signature, secret string) error {
	if signature == "" {
		return fmt.Errorf("%w: missing X-Razorpay-Signature header", ErrSignatureInvalid)
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	if subtle.ConstantTimeCompare([]byte(signature), []byte(expected)) != 1 {
		return fmt.Errorf("%w: signature mismatch", ErrSignatureInvalid)
	}
	return nil
}

// truncateSignature shortens a signature for log lines. Full values never hit
// the logs.
func truncateSignature(sig string) string {
	const keep = 12
	if len(sig) <= keep {
		return sig
	}
	return sig[:keep] + "..."
}
