package repository

import "context"

// NotificationLogRepository records user-facing payment notifications.
// The webhook pipeline writes here instead of pushing to a delivery
// channel directly; duplicate suppression is per (payment, kind).
type NotificationLogRepository interface {
	Save(ctx context.Context, tx Tx, paymentID, userID, kind, message string) error
	Exists(ctx context.Context, tx Tx, paymentID, kind string) (bool, error)
}
