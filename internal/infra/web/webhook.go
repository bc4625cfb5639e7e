package web

import (
	"encoding/json"
	"io"
	"net/http"

	"saju-content-payments/internal/infra/logging"
	"saju-content-payments/internal/infra/metrics"
	"saju-content-payments/internal/infra/payment"
	"saju-content-payments/internal/usecase"
)

const webhookBodyLimit = 1 << 20 // 1MiB

// handleWebhook receives gateway-initiated events. Signature
// verification is the authentication mechanism for this endpoint; once
// a delivery is authenticated the response is 200 no matter what
// processing does, because the gateway retries on any non-200 and a
// poisoned event would otherwise redeliver forever.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, webhookBodyLimit))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "failed to read request body")
		return
	}

	sig := r.Header.Get("toss-signature")
	if sig == "" {
		sig = r.Header.Get("x-toss-signature")
	}

	if s.webhookSecret == "" {
		if !s.allowUnsigned {
			metrics.IncWebhookSignatureFailure()
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "webhook secret is not configured")
			return
		}
		// dev/mock only: fall through without verification
	} else if !payment.VerifyTossWebhookSignature(s.webhookSecret, body, sig) {
		metrics.IncWebhookSignatureFailure()
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid webhook signature")
		return
	}

	var env usecase.WebhookEnvelope
	if err := json.Unmarshal(body, &env); err != nil || env.EventType == "" {
		// Authenticated but malformed; acknowledge so the gateway does
		// not retry a payload that can never parse.
		logging.With(r.Context(), s.log).Error().Err(err).Msg("malformed webhook envelope")
		writeJSON(w, http.StatusOK, apiResponse{Success: false})
		return
	}

	if s.deduper != nil && !s.deduper.FirstDelivery(r.Context(), body) {
		metrics.IncWebhookEvent(env.EventType, "duplicate")
		writeJSON(w, http.StatusOK, apiResponse{Success: true})
		return
	}

	// Processing failures are an operational concern, never the
	// gateway's: log and acknowledge.
	success := true
	if err := s.webhookUC.HandleEvent(r.Context(), env); err != nil {
		success = false
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: success})
}
