package repository

import (
	"context"

	"saju-content-payments/internal/domain/model"
)

type PurchaseRepository interface {
	// Insert persists the purchase, relying on the unique index on
	// (user_id, payment_id). When a row already exists it returns the
	// existing row's id and created=false instead of an error.
	Insert(ctx context.Context, tx Tx, pu *model.Purchase) (id string, created bool, err error)

	FindByUserAndPayment(ctx context.Context, tx Tx, userID, paymentID string) (*model.Purchase, error)

	// FindActiveByContent returns the newest purchase for the user and
	// content slug regardless of validity; callers decide with
	// HasValidAccess. Returns domain.ErrNotFound when none exists.
	FindActiveByContent(ctx context.Context, tx Tx, userID, contentSlug string) (*model.Purchase, error)

	// DeactivateByPayment flips is_active for every purchase tied to
	// the payment, tagging meta with the reason. Zero matching rows is
	// not an error.
	DeactivateByPayment(ctx context.Context, tx Tx, paymentID, reason string) (int64, error)

	// DeactivateExpired flips is_active for all still-active purchases
	// whose access_expires has passed. Returns the number of rows swept.
	DeactivateExpired(ctx context.Context, tx Tx) (int64, error)

	ListByUser(ctx context.Context, tx Tx, userID string) ([]*model.Purchase, error)
}
