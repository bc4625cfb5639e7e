package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"saju-content-payments/internal/domain"
	"saju-content-payments/internal/domain/model"
	"saju-content-payments/internal/domain/ports/repository"
)

var _ repository.PurchaseRepository = (*purchaseRepo)(nil)

type purchaseRepo struct{ pool *pgxpool.Pool }

func NewPurchaseRepo(pool *pgxpool.Pool) *purchaseRepo {
	return &purchaseRepo{pool: pool}
}

const purchaseColumns = `id, user_id, payment_id, product_id, content_slug, access_granted, access_expires, is_active, meta, created_at, updated_at`

func scanPurchase(row pgx.Row) (*model.Purchase, error) {
	pu := &model.Purchase{}
	if err := row.Scan(&pu.ID, &pu.UserID, &pu.PaymentID, &pu.ProductID, &pu.ContentSlug, &pu.AccessGranted, &pu.AccessExpires, &pu.IsActive, &pu.Meta, &pu.CreatedAt, &pu.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return pu, nil
}

// Insert relies on the unique index on (user_id, payment_id) for
// idempotency: a conflicting insert writes nothing, and the follow-up
// select returns whichever row won. The constraint, not a pre-check,
// is the guarantee against double grants under concurrent confirm and
// webhook processing.
func (r *purchaseRepo) Insert(ctx context.Context, tx repository.Tx, pu *model.Purchase) (string, bool, error) {
	const q = `
INSERT INTO purchases (id, user_id, payment_id, product_id, content_slug, access_granted, access_expires, is_active, meta, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (user_id, payment_id) DO NOTHING
RETURNING id;`

	row, err := pickRow(ctx, r.pool, tx, q, pu.ID, pu.UserID, pu.PaymentID, pu.ProductID, pu.ContentSlug, pu.AccessGranted, pu.AccessExpires, pu.IsActive, pu.Meta, pu.CreatedAt, pu.UpdatedAt)
	if err != nil {
		return "", false, err
	}

	var id string
	scanErr := row.Scan(&id)
	if scanErr == nil {
		return id, true, nil
	}
	if !errors.Is(scanErr, pgx.ErrNoRows) {
		return "", false, domain.ErrReadDatabaseRow
	}

	// Conflict path: the row already exists, fetch its id.
	existing, err := r.FindByUserAndPayment(ctx, tx, pu.UserID, pu.PaymentID)
	if err != nil {
		return "", false, err
	}
	return existing.ID, false, nil
}

func (r *purchaseRepo) FindByUserAndPayment(ctx context.Context, tx repository.Tx, userID, paymentID string) (*model.Purchase, error) {
	const q = `SELECT ` + purchaseColumns + ` FROM purchases WHERE user_id=$1 AND payment_id=$2 LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, userID, paymentID)
	if err != nil {
		return nil, err
	}
	return scanPurchase(row)
}

func (r *purchaseRepo) FindActiveByContent(ctx context.Context, tx repository.Tx, userID, contentSlug string) (*model.Purchase, error) {
	const q = `SELECT ` + purchaseColumns + ` FROM purchases WHERE user_id=$1 AND content_slug=$2 AND is_active=TRUE ORDER BY access_granted DESC LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, userID, contentSlug)
	if err != nil {
		return nil, err
	}
	return scanPurchase(row)
}

func (r *purchaseRepo) DeactivateByPayment(ctx context.Context, tx repository.Tx, paymentID, reason string) (int64, error) {
	const q = `
UPDATE purchases
   SET is_active=FALSE,
       meta = COALESCE(meta,'{}'::jsonb) || jsonb_build_object('revoke_reason', $2::text, 'revoked_at', NOW()),
       updated_at=NOW()
 WHERE payment_id=$1 AND is_active=TRUE;`
	cmd, err := execSQL(ctx, r.pool, tx, q, paymentID, reason)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return 0, err
		}
		return 0, domain.ErrOperationFailed
	}
	return cmd.RowsAffected(), nil
}

func (r *purchaseRepo) DeactivateExpired(ctx context.Context, tx repository.Tx) (int64, error) {
	const q = `
UPDATE purchases
   SET is_active=FALSE, updated_at=NOW()
 WHERE is_active=TRUE AND access_expires IS NOT NULL AND access_expires <= NOW();`
	cmd, err := execSQL(ctx, r.pool, tx, q)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return 0, err
		}
		return 0, domain.ErrOperationFailed
	}
	return cmd.RowsAffected(), nil
}

func (r *purchaseRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Purchase, error) {
	const q = `SELECT ` + purchaseColumns + ` FROM purchases WHERE user_id=$1 ORDER BY created_at DESC;`
	rows, err := queryRows(ctx, r.pool, tx, q, userID)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()

	var out []*model.Purchase
	for rows.Next() {
		pu, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, pu)
	}
	return out, rows.Err()
}
