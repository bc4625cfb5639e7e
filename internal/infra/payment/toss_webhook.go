package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// VerifyTossWebhookSignature checks the HMAC-SHA256 signature Toss
// sends over the raw request body, base64-encoded. The comparison is
// constant-time.
func VerifyTossWebhookSignature(secret string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// SignTossWebhookBody computes the signature a legitimate delivery
// would carry. Used by tests and local tooling.
func SignTossWebhookBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
