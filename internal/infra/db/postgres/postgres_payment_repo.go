package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"saju-content-payments/internal/domain"
	"saju-content-payments/internal/domain/model"
	"saju-content-payments/internal/domain/ports/repository"
)

var _ repository.PaymentRepository = (*paymentRepo)(nil)

type paymentRepo struct{ pool *pgxpool.Pool }

func NewPaymentRepo(pool *pgxpool.Pool) *paymentRepo {
	return &paymentRepo{pool: pool}
}

const paymentColumns = `id, order_id, payment_key, amount, status, method, user_id, product_id, content_slug, approved_at, canceled_at, failure_code, failure_message, meta, created_at, updated_at`

func scanPayment(row pgx.Row) (*model.Payment, error) {
	p := &model.Payment{}
	var paymentKey, method *string
	if err := row.Scan(&p.ID, &p.OrderID, &paymentKey, &p.Amount, &p.Status, &method, &p.UserID, &p.ProductID, &p.ContentSlug, &p.ApprovedAt, &p.CanceledAt, &p.FailureCode, &p.FailureMsg, &p.Meta, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	if paymentKey != nil {
		p.PaymentKey = *paymentKey
	}
	if method != nil {
		p.Method = *method
	}
	return p, nil
}

func (r *paymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	const q = `
INSERT INTO payments (
  id, order_id, payment_key, amount, status, method, user_id, product_id, content_slug, approved_at, canceled_at, failure_code, failure_message, meta, created_at, updated_at
) VALUES (
  $1,$2,NULLIF($3,''),$4,$5,NULLIF($6,''),$7,$8,$9,$10,$11,$12,$13,$14,$15,$16
) ON CONFLICT (id) DO UPDATE SET
  payment_key=NULLIF($3,''), status=$5, method=NULLIF($6,''), approved_at=$10, canceled_at=$11, failure_code=$12, failure_message=$13, meta=$14, updated_at=$16;`

	_, err := execSQL(ctx, r.pool, tx, q, p.ID, p.OrderID, p.PaymentKey, p.Amount, p.Status, p.Method, p.UserID, p.ProductID, p.ContentSlug, p.ApprovedAt, p.CanceledAt, p.FailureCode, p.FailureMsg, p.Meta, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *paymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	const q = `SELECT ` + paymentColumns + ` FROM payments WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

func (r *paymentRepo) FindByOrderID(ctx context.Context, tx repository.Tx, orderID string) (*model.Payment, error) {
	const q = `SELECT ` + paymentColumns + ` FROM payments WHERE order_id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, orderID)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

func (r *paymentRepo) MarkDone(ctx context.Context, tx repository.Tx, id, paymentKey, method string, approvedAt time.Time) (bool, error) {
	const q = `
UPDATE payments
   SET status='done', payment_key=$2, method=$3, approved_at=$4, updated_at=NOW()
 WHERE id=$1 AND status='ready';`
	cmd, err := execSQL(ctx, r.pool, tx, q, id, paymentKey, method, approvedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *paymentRepo) MarkFailed(ctx context.Context, tx repository.Tx, id, code, message string) (bool, error) {
	const q = `
UPDATE payments
   SET status='failed', failure_code=$2, failure_message=$3, updated_at=NOW()
 WHERE id=$1 AND status='ready';`
	cmd, err := execSQL(ctx, r.pool, tx, q, id, code, message)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *paymentRepo) MarkCanceled(ctx context.Context, tx repository.Tx, id string, canceledAt time.Time, reason string) (bool, error) {
	const q = `
UPDATE payments
   SET status='canceled', canceled_at=$2,
       meta = COALESCE(meta,'{}'::jsonb) || jsonb_build_object('cancel_reason', $3::text),
       updated_at=NOW()
 WHERE id=$1 AND status='done';`
	cmd, err := execSQL(ctx, r.pool, tx, q, id, canceledAt, reason)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *paymentRepo) AttachPaymentKey(ctx context.Context, tx repository.Tx, id, paymentKey string) error {
	const q = `
UPDATE payments
   SET payment_key=$2, updated_at=NOW()
 WHERE id=$1 AND status='ready';`
	_, err := execSQL(ctx, r.pool, tx, q, id, paymentKey)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *paymentRepo) AttachDepositInfo(ctx context.Context, tx repository.Tx, id string, info map[string]interface{}) error {
	const q = `
UPDATE payments
   SET meta = COALESCE(meta,'{}'::jsonb) || $2::jsonb, updated_at=NOW()
 WHERE id=$1 AND status='ready';`
	_, err := execSQL(ctx, r.pool, tx, q, id, info)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *paymentRepo) ListReadyWithKeyOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Payment, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT ` + paymentColumns + ` FROM payments WHERE status='ready' AND payment_key IS NOT NULL AND created_at < $1 ORDER BY created_at ASC LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, olderThan, limit)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()

	var out []*model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *paymentRepo) SumByPeriod(ctx context.Context, tx repository.Tx, period string) (int64, error) {
	const q = `SELECT COALESCE(SUM(amount),0) FROM payments WHERE status='done' AND approved_at >= DATE_TRUNC($1, NOW());`
	row, err := pickRow(ctx, r.pool, tx, q, period)
	if err != nil {
		return 0, err
	}
	var sum int64
	if err := row.Scan(&sum); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return sum, nil
}
