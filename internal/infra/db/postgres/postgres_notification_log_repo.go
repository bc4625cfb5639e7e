package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"saju-content-payments/internal/domain"
	"saju-content-payments/internal/domain/ports/repository"
)

var _ repository.NotificationLogRepository = (*notificationLogRepo)(nil)

type notificationLogRepo struct {
	pool *pgxpool.Pool
}

func NewNotificationLogRepo(pool *pgxpool.Pool) repository.NotificationLogRepository {
	return &notificationLogRepo{pool: pool}
}

func (r *notificationLogRepo) Save(ctx context.Context, tx repository.Tx, paymentID, userID, kind, message string) error {
	const q = `
INSERT INTO payment_notifications (id, payment_id, user_id, kind, message)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (payment_id, kind) DO NOTHING;`

	// The UNIQUE constraint on (payment_id, kind) absorbs webhook
	// redelivery; a conflicting insert is a silent no-op.
	_, err := execSQL(ctx, r.pool, tx, q, uuid.NewString(), paymentID, userID, kind, message)
	return err
}

func (r *notificationLogRepo) Exists(ctx context.Context, tx repository.Tx, paymentID, kind string) (bool, error) {
	const q = `
SELECT EXISTS(
    SELECT 1 FROM payment_notifications
    WHERE payment_id = $1 AND kind = $2
)`
	row, err := pickRow(ctx, r.pool, tx, q, paymentID, kind)
	if err != nil {
		return false, err
	}
	var exists bool
	if err := row.Scan(&exists); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, domain.ErrReadDatabaseRow
	}
	return exists, nil
}
