package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"saju-content-payments/internal/domain"
	"saju-content-payments/internal/domain/model"
	"saju-content-payments/internal/domain/ports/repository"
	"saju-content-payments/internal/infra/metrics"
)

// Compile-time check
var _ EntitlementUseCase = (*entitlementUC)(nil)

type GrantParams struct {
	UserID      string
	PaymentID   string
	ProductID   string
	ContentSlug string
	AccessDays  int // <= 0 means permanent
}

type GrantResult struct {
	PurchaseID     string
	AlreadyGranted bool
}

type AccessStatus struct {
	HasAccess bool
	ExpiresAt *time.Time // nil when access is permanent or absent
}

type EntitlementUseCase interface {
	// GrantContentAccess creates the purchase row for (user, payment).
	// Safe to call repeatedly and concurrently: the unique index on
	// (user_id, payment_id) makes the second and later calls return
	// the first call's purchase id. Accepts a tx so the confirm path
	// can commit the grant atomically with the payment transition.
	GrantContentAccess(ctx context.Context, tx repository.Tx, params GrantParams) (*GrantResult, error)

	// RevokeContentAccess deactivates every purchase tied to the
	// payment. Zero matching rows (e.g. an anonymous payment that
	// never produced an entitlement) is not an error.
	RevokeContentAccess(ctx context.Context, paymentID, reason string) (int64, error)

	// CheckContentAccess reports whether the user currently holds a
	// valid (active, unexpired) purchase for the content.
	CheckContentAccess(ctx context.Context, userID, contentSlug string) (*AccessStatus, error)

	// DeactivateExpiredPurchases sweeps purchases whose access window
	// has closed. Run on a schedule, not per request.
	DeactivateExpiredPurchases(ctx context.Context) (int64, error)
}

type entitlementUC struct {
	purchases repository.PurchaseRepository
	log       *zerolog.Logger
}

func NewEntitlementUseCase(purchases repository.PurchaseRepository, logger *zerolog.Logger) *entitlementUC {
	l := logger.With().Str("component", "EntitlementUC").Logger()
	return &entitlementUC{purchases: purchases, log: &l}
}

func (u *entitlementUC) GrantContentAccess(ctx context.Context, tx repository.Tx, params GrantParams) (*GrantResult, error) {
	if params.UserID == "" || params.PaymentID == "" {
		return nil, domain.ErrInvalidArgument
	}

	pu, err := model.NewPurchase(uuid.NewString(), params.UserID, params.PaymentID, params.ProductID, params.ContentSlug, params.AccessDays)
	if err != nil {
		return nil, err
	}

	id, created, err := u.purchases.Insert(ctx, tx, pu)
	if err != nil {
		return nil, err
	}

	metrics.IncEntitlementGrant(!created)
	if created {
		u.log.Info().Str("purchase_id", id).Str("payment_id", params.PaymentID).Msg("content access granted")
	} else {
		u.log.Debug().Str("purchase_id", id).Str("payment_id", params.PaymentID).Msg("grant already present, no-op")
	}
	return &GrantResult{PurchaseID: id, AlreadyGranted: !created}, nil
}

func (u *entitlementUC) RevokeContentAccess(ctx context.Context, paymentID, reason string) (int64, error) {
	if paymentID == "" {
		return 0, domain.ErrInvalidArgument
	}
	n, err := u.purchases.DeactivateByPayment(ctx, repository.NoTX, paymentID, reason)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		metrics.AddEntitlementRevokes(n)
		u.log.Info().Str("payment_id", paymentID).Int64("count", n).Str("reason", reason).Msg("content access revoked")
	}
	return n, nil
}

func (u *entitlementUC) CheckContentAccess(ctx context.Context, userID, contentSlug string) (*AccessStatus, error) {
	if userID == "" || contentSlug == "" {
		return nil, domain.ErrInvalidArgument
	}
	pu, err := u.purchases.FindActiveByContent(ctx, repository.NoTX, userID, contentSlug)
	if err != nil {
		if err == domain.ErrNotFound {
			return &AccessStatus{HasAccess: false}, nil
		}
		return nil, err
	}
	if !pu.HasValidAccess(time.Now()) {
		return &AccessStatus{HasAccess: false}, nil
	}
	return &AccessStatus{HasAccess: true, ExpiresAt: pu.AccessExpires}, nil
}

func (u *entitlementUC) DeactivateExpiredPurchases(ctx context.Context) (int64, error) {
	n, err := u.purchases.DeactivateExpired(ctx, repository.NoTX)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		metrics.AddEntitlementsExpired(n)
	}
	return n, nil
}
