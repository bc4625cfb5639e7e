package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"saju-content-payments/internal/usecase"
)

// AdminServer serves the operational API on its own port: login,
// payment lookup, admin-initiated cancellation and /metrics.
type AdminServer struct {
	paymentUC usecase.PaymentUseCase
	apiKey    string
	auth      *AuthManager
	log       *zerolog.Logger
	server    *http.Server
}

func NewAdminServer(paymentUC usecase.PaymentUseCase, apiKey string, auth *AuthManager, logger *zerolog.Logger) *AdminServer {
	l := logger.With().Str("component", "AdminServer").Logger()
	return &AdminServer{paymentUC: paymentUC, apiKey: apiKey, auth: auth, log: &l}
}

func (s *AdminServer) Routes() http.Handler {
	r := chi.NewRouter()

	r.Handle("/metrics", promhttp.Handler())
	r.Post("/admin/login", s.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/admin/payments/{orderID}", s.handleGetPayment)
		r.Post("/admin/payments/{orderID}/cancel", s.handleCancelPayment)
	})

	return Chain(r, TraceID(), RequestLog(s.log), Recover(s.log))
}

func (s *AdminServer) Start(port int) error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.Routes(),
	}
	s.log.Info().Int("port", port).Msg("admin API listening")
	return s.server.ListenAndServe()
}

func (s *AdminServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// authMiddleware requires a valid admin session (JWT cookie or Bearer).
func (s *AdminServer) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.auth.FromRequest(r); err != nil {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "admin session required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type loginRequest struct {
	APIKey string `json:"apiKey"`
}

func (s *AdminServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.apiKey == "" {
		s.log.Error().Msg("admin API key is not configured")
		writeError(w, http.StatusForbidden, "FORBIDDEN", "admin API is disabled")
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "invalid request body")
		return
	}
	if subtle.ConstantTimeCompare([]byte(req.APIKey), []byte(s.apiKey)) != 1 {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "wrong api key")
		return
	}

	token, err := s.auth.Mint(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, codeInternalError, "could not mint session")
		return
	}
	writeData(w, http.StatusOK, map[string]string{"token": token})
}

func (s *AdminServer) handleGetPayment(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	p, err := s.paymentUC.GetByOrderID(r.Context(), orderID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, p)
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (s *AdminServer) handleCancelPayment(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Reason == "" {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "cancel reason is required")
		return
	}

	start := time.Now()
	p, err := s.paymentUC.Cancel(r.Context(), orderID, req.Reason)
	if err != nil {
		s.log.Warn().Err(err).Str("order_id", orderID).Dur("took", time.Since(start)).Msg("admin cancel failed")
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]interface{}{
		"orderId":    p.OrderID,
		"status":     p.Status,
		"canceledAt": p.CanceledAt,
	})
}
