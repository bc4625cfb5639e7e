package repository

import (
	"context"
	"time"

	"saju-content-payments/internal/domain/model"
)

type PaymentRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Payment) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Payment, error)
	FindByOrderID(ctx context.Context, tx Tx, orderID string) (*model.Payment, error)

	// MarkDone transitions ready -> done, attaching the gateway key,
	// method and approval time. Returns false when the payment was not
	// in ready (already finalized, or in a terminal state).
	MarkDone(ctx context.Context, tx Tx, id, paymentKey, method string, approvedAt time.Time) (bool, error)

	// MarkFailed transitions ready -> failed with the provider's
	// error code and message. Returns false when not in ready.
	MarkFailed(ctx context.Context, tx Tx, id, code, message string) (bool, error)

	// MarkCanceled transitions done -> canceled. Returns false when the
	// payment was not done.
	MarkCanceled(ctx context.Context, tx Tx, id string, canceledAt time.Time, reason string) (bool, error)

	// AttachPaymentKey persists the gateway key on a still-ready
	// payment. The key goes down before the finalize transaction so a
	// rolled-back or crashed finalize leaves a row the reconciler can
	// rediscover. No-op when the payment already left ready.
	AttachPaymentKey(ctx context.Context, tx Tx, id, paymentKey string) error

	// AttachDepositInfo merges virtual-account deposit metadata into a
	// ready payment without advancing its status.
	AttachDepositInfo(ctx context.Context, tx Tx, id string, info map[string]interface{}) error

	// ListReadyWithKeyOlderThan returns ready payments that already
	// carry a gateway key, older than the cutoff. These are candidates
	// for reconciliation: the gateway approved but our finalize write
	// never landed.
	ListReadyWithKeyOlderThan(ctx context.Context, tx Tx, olderThan time.Time, limit int) ([]*model.Payment, error)

	SumByPeriod(ctx context.Context, tx Tx, period string) (int64, error)
}
