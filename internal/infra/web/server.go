package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	red "saju-content-payments/internal/infra/redis"
	"saju-content-payments/internal/usecase"
)

// Server exposes the public payments API: checkout, confirmation, the
// gateway webhook and the content-access gate.
type Server struct {
	paymentUC     usecase.PaymentUseCase
	webhookUC     usecase.WebhookUseCase
	entitlementUC usecase.EntitlementUseCase

	webhookSecret string
	allowUnsigned bool // dev/mock only; production always verifies
	deduper       *red.WebhookDeduper

	log    *zerolog.Logger
	server *http.Server
}

func NewServer(
	paymentUC usecase.PaymentUseCase,
	webhookUC usecase.WebhookUseCase,
	entitlementUC usecase.EntitlementUseCase,
	webhookSecret string,
	allowUnsigned bool,
	deduper *red.WebhookDeduper,
	logger *zerolog.Logger,
) *Server {
	l := logger.With().Str("component", "WebServer").Logger()
	return &Server{
		paymentUC:     paymentUC,
		webhookUC:     webhookUC,
		entitlementUC: entitlementUC,
		webhookSecret: webhookSecret,
		allowUnsigned: allowUnsigned,
		deduper:       deduper,
		log:           &l,
	}
}

// Routes builds the chi router. Exposed separately so tests can drive
// the handler stack without binding a port.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/payments/checkout", s.handleCheckout)
		r.Post("/payments/confirm", s.handleConfirm)
		r.Post("/payments/webhook", s.handleWebhook)
		r.Get("/content/{slug}/access", s.handleAccessCheck)
	})

	return Chain(r, TraceID(), RequestLog(s.log), Recover(s.log), Timeout(30*time.Second))
}

func (s *Server) Start(port int) error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.Routes(),
	}
	s.log.Info().Int("port", port).Msg("payments API listening")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
