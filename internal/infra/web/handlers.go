package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"saju-content-payments/internal/infra/logging"
)

type checkoutRequest struct {
	ProductSlug string                 `json:"productSlug"`
	UserID      *string                `json:"userId,omitempty"`
	Meta        map[string]interface{} `json:"meta,omitempty"`
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProductSlug == "" {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "productSlug is required")
		return
	}

	p, err := s.paymentUC.Checkout(r.Context(), req.UserID, req.ProductSlug, req.Meta)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeData(w, http.StatusCreated, map[string]interface{}{
		"orderId": p.OrderID,
		"amount":  p.Amount,
		"status":  p.Status,
	})
}

type confirmRequest struct {
	PaymentKey string `json:"paymentKey"`
	OrderID    string `json:"orderId"`
	Amount     int64  `json:"amount"`
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "invalid request body")
		return
	}
	if req.PaymentKey == "" || req.OrderID == "" || req.Amount <= 0 {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "paymentKey, orderId and amount are required")
		return
	}

	ctx := logging.WithOrderID(r.Context(), req.OrderID)
	out, err := s.paymentUC.Confirm(ctx, req.PaymentKey, req.OrderID, req.Amount)
	if err != nil {
		logging.With(ctx, s.log).Warn().Err(err).Msg("payment confirmation rejected")
		writeDomainError(w, err)
		return
	}

	p := out.Payment
	var approvedAt *string
	if p.ApprovedAt != nil {
		v := p.ApprovedAt.Format(time.RFC3339)
		approvedAt = &v
	}
	writeData(w, http.StatusOK, map[string]interface{}{
		"orderId":    p.OrderID,
		"paymentKey": p.PaymentKey,
		"status":     p.Status,
		"method":     p.Method,
		"approvedAt": approvedAt,
		"purchaseId": out.PurchaseID,
	})
}

func (s *Server) handleAccessCheck(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	userID := r.URL.Query().Get("userId")
	if slug == "" || userID == "" {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "content slug and userId are required")
		return
	}

	status, err := s.entitlementUC.CheckContentAccess(r.Context(), userID, slug)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	body := map[string]interface{}{"hasAccess": status.HasAccess}
	if status.ExpiresAt != nil {
		body["expiresAt"] = status.ExpiresAt.Format(time.RFC3339)
	}
	writeData(w, http.StatusOK, body)
}
