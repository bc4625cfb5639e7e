package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"saju-content-payments/internal/domain/ports/repository"
)

// Compile-time check
var _ NotificationUseCase = (*notificationUC)(nil)

// Notification kinds recorded by the webhook pipeline.
const (
	NotifyPaymentConfirmed = "payment_confirmed"
	NotifyPaymentCanceled  = "payment_canceled"
	NotifyPaymentFailed    = "payment_failed"
	NotifyDepositRequested = "deposit_requested"
	NotifyDepositReceived  = "deposit_received"
)

type NotificationUseCase interface {
	// Notify records a user-facing notification for a payment event.
	// Anonymous payments (nil userID) are skipped. Duplicate events for
	// the same (payment, kind) are absorbed by the log's unique
	// constraint, so webhook redelivery cannot double-notify.
	Notify(ctx context.Context, paymentID string, userID *string, kind, message string) error
}

type notificationUC struct {
	logs repository.NotificationLogRepository
	log  *zerolog.Logger
}

func NewNotificationUseCase(logs repository.NotificationLogRepository, logger *zerolog.Logger) *notificationUC {
	l := logger.With().Str("component", "NotificationUC").Logger()
	return &notificationUC{logs: logs, log: &l}
}

func (n *notificationUC) Notify(ctx context.Context, paymentID string, userID *string, kind, message string) error {
	if userID == nil || *userID == "" {
		return nil
	}
	if err := n.logs.Save(ctx, repository.NoTX, paymentID, *userID, kind, message); err != nil {
		return err
	}
	n.log.Debug().Str("payment_id", paymentID).Str("kind", kind).Msg("notification recorded")
	return nil
}
