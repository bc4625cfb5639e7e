package sched

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"saju-content-payments/internal/domain/model"
	"saju-content-payments/internal/domain/ports/adapter"
	"saju-content-payments/internal/domain/ports/repository"
	"saju-content-payments/internal/infra/metrics"
	"saju-content-payments/internal/usecase"
)

// PaymentReconciler closes the gap between "gateway says paid" and
// "our finalize write was lost": it scans stale ready payments that
// already carry a gateway key, asks the gateway for their real state,
// and re-runs the finalize path. This covers a crash between the
// gateway confirm call and the local transaction, and a finalize
// transaction that rolled back on a transient grant failure.
type PaymentReconciler struct {
	uc         usecase.PaymentUseCase
	payments   repository.PaymentRepository
	gateway    adapter.PaymentGateway
	interval   time.Duration // how often to scan
	staleAfter time.Duration // how old a ready payment must be to retry
	limit      int
	log        *zerolog.Logger
}

func NewPaymentReconciler(
	uc usecase.PaymentUseCase,
	payments repository.PaymentRepository,
	gateway adapter.PaymentGateway,
	interval, staleAfter time.Duration,
	limit int,
	logger *zerolog.Logger,
) *PaymentReconciler {
	if interval <= 0 {
		interval = time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 10 * time.Minute
	}
	if limit <= 0 {
		limit = 200
	}
	l := logger.With().Str("component", "PaymentReconciler").Logger()
	return &PaymentReconciler{
		uc:         uc,
		payments:   payments,
		gateway:    gateway,
		interval:   interval,
		staleAfter: staleAfter,
		limit:      limit,
		log:        &l,
	}
}

func (w *PaymentReconciler) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("starting payment reconciler")
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("stopping payment reconciler")
			return ctx.Err()
		case <-t.C:
			w.tick(ctx)
		}
	}
}

func (w *PaymentReconciler) tick(ctx context.Context) {
	cutoff := time.Now().Add(-w.staleAfter)
	stale, err := w.payments.ListReadyWithKeyOlderThan(ctx, repository.NoTX, cutoff, w.limit)
	if err != nil {
		metrics.IncReconcilerRun("error")
		w.log.Error().Err(err).Msg("list stale payments failed")
		return
	}

	for _, p := range stale {
		if err := w.reconcile(ctx, p); err != nil {
			w.log.Error().Err(err).Str("order_id", p.OrderID).Msg("reconcile failed")
		}
	}
	metrics.IncReconcilerRun("ok")
}

func (w *PaymentReconciler) reconcile(ctx context.Context, p *model.Payment) error {
	res, err := w.gateway.GetByOrderID(ctx, p.OrderID)
	if err != nil {
		return err
	}

	switch strings.ToUpper(res.Status) {
	case "DONE":
		approvedAt := time.Now()
		if res.ApprovedAt != nil {
			approvedAt = *res.ApprovedAt
		}
		if _, err := w.uc.Finalize(ctx, p.OrderID, res.PaymentKey, res.Method, approvedAt); err != nil {
			return err
		}
		metrics.IncReconciledPayment()
		w.log.Info().Str("order_id", p.OrderID).Msg("stale payment finalized")
	case "ABORTED", "EXPIRED":
		if _, err := w.payments.MarkFailed(ctx, repository.NoTX, p.ID, res.Status, "reconciler: gateway reports terminal failure"); err != nil {
			return err
		}
		w.log.Info().Str("order_id", p.OrderID).Str("gateway_status", res.Status).Msg("stale payment marked failed")
	default:
		// Still in flight at the gateway (e.g. WAITING_FOR_DEPOSIT);
		// leave it for a later sweep.
	}
	return nil
}
