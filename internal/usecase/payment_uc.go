package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"saju-content-payments/internal/domain"
	"saju-content-payments/internal/domain/model"
	"saju-content-payments/internal/domain/ports/adapter"
	"saju-content-payments/internal/domain/ports/repository"
	"saju-content-payments/internal/infra/metrics"
)

// Compile-time check
var _ PaymentUseCase = (*paymentUC)(nil)

// ConfirmOutcome is what a finalized payment hands back to callers:
// the payment row and, when the buyer was identified, their purchase id.
type ConfirmOutcome struct {
	Payment    *model.Payment
	PurchaseID string
}

type PaymentUseCase interface {
	// Checkout creates a ready payment for a product, priced from the
	// catalog row, and returns it with a fresh order id.
	Checkout(ctx context.Context, userID *string, productSlug string, meta map[string]interface{}) (*model.Payment, error)

	// Confirm settles a checkout the client reports as completed:
	// validate, check the stored amount, confirm with the gateway,
	// then atomically mark the payment done and grant the entitlement.
	// Calling it again for an already-done payment returns the existing
	// record without touching the gateway.
	Confirm(ctx context.Context, paymentKey, orderID string, amount int64) (*ConfirmOutcome, error)

	// Finalize applies a trusted approval (webhook event or reconciler
	// lookup) without re-validating against the gateway.
	Finalize(ctx context.Context, orderID, paymentKey, method string, approvedAt time.Time) (*ConfirmOutcome, error)

	// Cancel voids an approved payment with the gateway, transitions it
	// to canceled and revokes the entitlement.
	Cancel(ctx context.Context, orderID, reason string) (*model.Payment, error)

	GetByOrderID(ctx context.Context, orderID string) (*model.Payment, error)
}

type paymentUC struct {
	payments     repository.PaymentRepository
	products     repository.ProductRepository
	purchases    repository.PurchaseRepository
	entitlements EntitlementUseCase
	gateway      adapter.PaymentGateway
	tm           repository.TransactionManager
	mockAllowed  bool
	log          *zerolog.Logger
}

func NewPaymentUseCase(
	payments repository.PaymentRepository,
	products repository.ProductRepository,
	purchases repository.PurchaseRepository,
	entitlements EntitlementUseCase,
	gateway adapter.PaymentGateway,
	tm repository.TransactionManager,
	mockAllowed bool,
	logger *zerolog.Logger,
) *paymentUC {
	l := logger.With().Str("component", "PaymentUC").Logger()
	return &paymentUC{
		payments:     payments,
		products:     products,
		purchases:    purchases,
		entitlements: entitlements,
		gateway:      gateway,
		tm:           tm,
		mockAllowed:  mockAllowed,
		log:          &l,
	}
}

func (u *paymentUC) Checkout(ctx context.Context, userID *string, productSlug string, meta map[string]interface{}) (*model.Payment, error) {
	if productSlug == "" {
		return nil, domain.ErrInvalidArgument
	}
	product, err := u.products.FindBySlug(ctx, repository.NoTX, productSlug)
	if err != nil {
		return nil, err
	}
	if !product.Active {
		return nil, domain.ErrProductInactive
	}

	orderID := "ord_" + ulid.Make().String()
	p, err := model.NewPayment(uuid.NewString(), orderID, product, userID, meta)
	if err != nil {
		return nil, err
	}
	if err := u.payments.Save(ctx, repository.NoTX, p); err != nil {
		return nil, err
	}
	u.log.Info().Str("order_id", orderID).Str("product", productSlug).Int64("amount", p.Amount).Msg("checkout created")
	return p, nil
}

func (u *paymentUC) Confirm(ctx context.Context, paymentKey, orderID string, amount int64) (*ConfirmOutcome, error) {
	if paymentKey == "" || orderID == "" || amount <= 0 {
		return nil, domain.ErrInvalidArgument
	}

	p, err := u.payments.FindByOrderID(ctx, repository.NoTX, orderID)
	if err != nil {
		return nil, err
	}

	// Idempotency short-circuit: a second confirm (back button, client
	// retry, webhook already landed) returns the existing result.
	if p.Status == model.PaymentStatusDone {
		return u.existingOutcome(ctx, p)
	}
	if p.Status != model.PaymentStatusReady {
		return nil, domain.ErrInvalidTransition
	}

	// The stored amount is the settlement truth; a mismatching
	// client-reported amount is rejected before any state change.
	if amount != p.Amount {
		return nil, domain.ErrAmountMismatch
	}

	if u.gateway == nil {
		return nil, domain.ErrMissingSecret
	}
	if u.gateway.Name() == "mock" && !u.mockAllowed {
		return nil, domain.ErrMockDisabled
	}

	res, err := u.gateway.Confirm(ctx, paymentKey, orderID, amount)
	if err != nil {
		code, msg := "INTERNAL_ERROR", err.Error()
		var gwErr *adapter.GatewayError
		if errors.As(err, &gwErr) {
			code, msg = gwErr.Code, gwErr.Message
		}
		if _, markErr := u.payments.MarkFailed(ctx, repository.NoTX, p.ID, code, msg); markErr != nil {
			u.log.Error().Err(markErr).Str("order_id", orderID).Msg("failed to record gateway rejection")
		}
		metrics.IncPayment("failed")
		return nil, fmt.Errorf("gateway confirm: %w", err)
	}

	approvedAt := time.Now()
	if res.ApprovedAt != nil {
		approvedAt = *res.ApprovedAt
	}
	return u.finalize(ctx, p, res.PaymentKey, res.Method, approvedAt)
}

func (u *paymentUC) Finalize(ctx context.Context, orderID, paymentKey, method string, approvedAt time.Time) (*ConfirmOutcome, error) {
	p, err := u.payments.FindByOrderID(ctx, repository.NoTX, orderID)
	if err != nil {
		return nil, err
	}
	if p.Status == model.PaymentStatusDone {
		return u.existingOutcome(ctx, p)
	}
	if p.Status != model.PaymentStatusReady {
		return nil, domain.ErrInvalidTransition
	}
	if approvedAt.IsZero() {
		approvedAt = time.Now()
	}
	return u.finalize(ctx, p, paymentKey, method, approvedAt)
}

// finalize commits the done transition and the entitlement grant in one
// transaction. A payment never becomes done without its entitlement: if
// the grant fails the whole transaction rolls back and the reconciler
// retries later (the gateway has already approved, so the money is safe).
func (u *paymentUC) finalize(ctx context.Context, p *model.Payment, paymentKey, method string, approvedAt time.Time) (*ConfirmOutcome, error) {
	if method == "" {
		method = "CARD"
	}

	// Record the gateway key on the still-ready row before opening the
	// transaction. The gateway has already approved, so if the grant
	// below rolls back or the process dies here, the key is what lets
	// the reconciler find this payment and retry the finalize.
	if paymentKey != "" {
		if err := u.payments.AttachPaymentKey(ctx, repository.NoTX, p.ID, paymentKey); err != nil {
			u.log.Error().Err(err).Str("order_id", p.OrderID).Msg("could not persist gateway key")
		}
	}

	accessDays := 0
	if hasUser(p) {
		product, err := u.products.FindByID(ctx, repository.NoTX, p.ProductID)
		if err != nil {
			return nil, err
		}
		accessDays = product.AccessDays
	}

	var purchaseID string
	var raced bool
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		updated, err := u.payments.MarkDone(ctx, tx, p.ID, paymentKey, method, approvedAt)
		if err != nil {
			return err
		}
		if !updated {
			// Lost the race with a concurrent confirm/webhook, or the
			// payment reached a terminal state. Sort it out after commit.
			raced = true
			return nil
		}
		if hasUser(p) {
			res, err := u.entitlements.GrantContentAccess(ctx, tx, GrantParams{
				UserID:      *p.UserID,
				PaymentID:   p.ID,
				ProductID:   p.ProductID,
				ContentSlug: p.ContentSlug,
				AccessDays:  accessDays,
			})
			if err != nil {
				return err
			}
			purchaseID = res.PurchaseID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if raced {
		fresh, err := u.payments.FindByID(ctx, repository.NoTX, p.ID)
		if err != nil {
			return nil, err
		}
		if fresh.Status != model.PaymentStatusDone {
			return nil, domain.ErrInvalidTransition
		}
		return u.existingOutcome(ctx, fresh)
	}

	metrics.IncPayment("done")
	metrics.AddPaymentRevenue(method, p.Amount)
	u.log.Info().Str("order_id", p.OrderID).Str("method", method).Int64("amount", p.Amount).Msg("payment finalized")

	p.Status = model.PaymentStatusDone
	p.PaymentKey = paymentKey
	p.Method = method
	p.ApprovedAt = &approvedAt
	return &ConfirmOutcome{Payment: p, PurchaseID: purchaseID}, nil
}

// existingOutcome builds the response for an already-done payment,
// resolving the purchase id the earlier finalize created.
func (u *paymentUC) existingOutcome(ctx context.Context, p *model.Payment) (*ConfirmOutcome, error) {
	out := &ConfirmOutcome{Payment: p}
	if !hasUser(p) {
		return out, nil
	}
	pu, err := u.purchases.FindByUserAndPayment(ctx, repository.NoTX, *p.UserID, p.ID)
	if err != nil {
		// The payment is settled either way; surface the lookup
		// failure in logs only.
		u.log.Error().Err(err).Str("order_id", p.OrderID).Msg("could not resolve existing purchase")
		return out, nil
	}
	out.PurchaseID = pu.ID
	return out, nil
}

func (u *paymentUC) Cancel(ctx context.Context, orderID, reason string) (*model.Payment, error) {
	p, err := u.payments.FindByOrderID(ctx, repository.NoTX, orderID)
	if err != nil {
		return nil, err
	}
	if p.Status != model.PaymentStatusDone {
		return nil, domain.ErrInvalidTransition
	}
	if u.gateway == nil {
		return nil, domain.ErrMissingSecret
	}

	if _, err := u.gateway.Cancel(ctx, p.PaymentKey, reason); err != nil {
		return nil, fmt.Errorf("gateway cancel: %w", err)
	}

	now := time.Now()
	updated, err := u.payments.MarkCanceled(ctx, repository.NoTX, p.ID, now, reason)
	if err != nil {
		return nil, err
	}
	if updated {
		if _, err := u.entitlements.RevokeContentAccess(ctx, p.ID, reason); err != nil {
			u.log.Error().Err(err).Str("order_id", orderID).Msg("revoke after cancel failed")
		}
		metrics.IncPayment("canceled")
	}

	p.Status = model.PaymentStatusCanceled
	p.CanceledAt = &now
	return p, nil
}

func (u *paymentUC) GetByOrderID(ctx context.Context, orderID string) (*model.Payment, error) {
	if orderID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return u.payments.FindByOrderID(ctx, repository.NoTX, orderID)
}

func hasUser(p *model.Payment) bool {
	return p.UserID != nil && *p.UserID != ""
}
