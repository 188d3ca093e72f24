package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func signBody(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyRazorpaySignature_Valid(t *testing.T) {
	body := []byte(`{"event":"subscription.activated"}`)
	sig := signBody(body, "whsec_test")
	require.NoError(t, verifyRazorpaySignature(body, sig, "whsec_test"))
}

func TestVerifyRazorpaySignature_WrongSecret(t *testing.T) {
	body := []byte(`{"event":"subscription.activated"}`)
	sig := signBody(body, "whsec_other")
	err := verifyRazorpaySignature(body, sig, "whsec_test")
	require.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestVerifyRazorpaySignature_TamperedBody(t *testing.T) {
	body := []byte(`{"event":"subscription.activated"}`)
	sig := signBody(body, "whsec_test")
	tampered := []byte(`{"event":"subscription.cancelled"}`)
	err := verifyRazorpaySignature(tampered, sig, "whsec_test")
	require.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestVerifyRazorpaySignature_MissingHeader(t *testing.T) {
	err := verifyRazorpaySignature([]byte(`{}`), "", "whsec_test")
	require.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestTruncateSignature(t *testing.T) {
	require.Equal(t, "short", truncateSignature("short"))
	require.Equal(t, "abcdefghijkl...", truncateSignature("abcdefghijklmnopqrstuvwxyz"))
}
