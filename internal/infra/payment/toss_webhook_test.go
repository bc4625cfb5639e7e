//go:build !integration

package payment

import "testing"

func TestVerifyTossWebhookSignature(t *testing.T) {
	secret := "whsec_test"
	body := []byte(`{"eventType":"PAYMENT_CONFIRMED","data":{"orderId":"ord_1"}}`)

	t.Run("accepts a signature over the exact body", func(t *testing.T) {
		sig := SignTossWebhookBody(secret, body)
		if !VerifyTossWebhookSignature(secret, body, sig) {
			t.Fatal("valid signature rejected")
		}
	})

	t.Run("rejects a tampered body", func(t *testing.T) {
		sig := SignTossWebhookBody(secret, body)
		tampered := []byte(`{"eventType":"PAYMENT_CONFIRMED","data":{"orderId":"ord_2"}}`)
		if VerifyTossWebhookSignature(secret, tampered, sig) {
			t.Fatal("tampered body accepted")
		}
	})

	t.Run("rejects the wrong secret", func(t *testing.T) {
		sig := SignTossWebhookBody("whsec_other", body)
		if VerifyTossWebhookSignature(secret, body, sig) {
			t.Fatal("signature from another secret accepted")
		}
	})

	t.Run("rejects empty secret or signature", func(t *testing.T) {
		sig := SignTossWebhookBody(secret, body)
		if VerifyTossWebhookSignature("", body, sig) {
			t.Fatal("empty secret accepted")
		}
		if VerifyTossWebhookSignature(secret, body, "") {
			t.Fatal("empty signature accepted")
		}
	})
}
