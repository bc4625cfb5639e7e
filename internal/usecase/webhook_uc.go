package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"saju-content-payments/internal/domain"
	"saju-content-payments/internal/domain/model"
	"saju-content-payments/internal/domain/ports/repository"
	"saju-content-payments/internal/infra/metrics"
)

// Compile-time check
var _ WebhookUseCase = (*webhookUC)(nil)

// Webhook event types delivered by the gateway.
const (
	EventPaymentConfirmed      = "PAYMENT_CONFIRMED"
	EventPaymentCanceled       = "PAYMENT_CANCELED"
	EventPaymentFailed         = "PAYMENT_FAILED"
	EventVirtualAccountIssued  = "VIRTUAL_ACCOUNT_ISSUED"
	EventVirtualAccountDeposit = "VIRTUAL_ACCOUNT_DEPOSIT"
)

// WebhookEnvelope is the outer wire shape of a gateway event. Data is
// decoded per event type into a concrete payload struct; unknown or
// malformed shapes are rejected instead of trusting a loose map.
type WebhookEnvelope struct {
	EventType string          `json:"eventType"`
	Data      json.RawMessage `json:"data"`
}

type WebhookUseCase interface {
	// HandleEvent dispatches one gateway event. Events may be
	// redelivered or arrive out of order relative to the client-driven
	// confirm; every branch is idempotent. The returned error is an
	// operational signal only; the HTTP layer logs it and still
	// acknowledges the delivery.
	HandleEvent(ctx context.Context, env WebhookEnvelope) error
}

type webhookUC struct {
	payments      repository.PaymentRepository
	paymentUC     PaymentUseCase
	entitlements  EntitlementUseCase
	notifications NotificationUseCase
	log           *zerolog.Logger
}

func NewWebhookUseCase(
	payments repository.PaymentRepository,
	paymentUC PaymentUseCase,
	entitlements EntitlementUseCase,
	notifications NotificationUseCase,
	logger *zerolog.Logger,
) *webhookUC {
	l := logger.With().Str("component", "WebhookUC").Logger()
	return &webhookUC{
		payments:      payments,
		paymentUC:     paymentUC,
		entitlements:  entitlements,
		notifications: notifications,
		log:           &l,
	}
}

func (u *webhookUC) HandleEvent(ctx context.Context, env WebhookEnvelope) error {
	var err error
	switch env.EventType {
	case EventPaymentConfirmed:
		err = u.handleConfirmed(ctx, env.Data)
	case EventPaymentCanceled:
		err = u.handleCanceled(ctx, env.Data)
	case EventPaymentFailed:
		err = u.handleFailed(ctx, env.Data)
	case EventVirtualAccountIssued:
		err = u.handleVirtualAccountIssued(ctx, env.Data)
	case EventVirtualAccountDeposit:
		err = u.handleVirtualAccountDeposit(ctx, env.Data)
	default:
		u.log.Warn().Str("event_type", env.EventType).Msg("unknown webhook event type, ignoring")
		metrics.IncWebhookEvent(env.EventType, "ignored")
		return nil
	}

	if err != nil {
		metrics.IncWebhookEvent(env.EventType, "error")
		u.log.Error().Err(err).Str("event_type", env.EventType).Msg("webhook event processing failed")
		return err
	}
	metrics.IncWebhookEvent(env.EventType, "ok")
	return nil
}

type confirmedPayload struct {
	OrderID    string     `json:"orderId"`
	PaymentKey string     `json:"paymentKey"`
	Method     string     `json:"method"`
	ApprovedAt *time.Time `json:"approvedAt"`
}

func (u *webhookUC) handleConfirmed(ctx context.Context, data json.RawMessage) error {
	var ev confirmedPayload
	if err := json.Unmarshal(data, &ev); err != nil || ev.OrderID == "" || ev.PaymentKey == "" {
		return fmt.Errorf("malformed PAYMENT_CONFIRMED payload: %w", orArgErr(err))
	}

	approvedAt := time.Now()
	if ev.ApprovedAt != nil {
		approvedAt = *ev.ApprovedAt
	}
	out, err := u.paymentUC.Finalize(ctx, ev.OrderID, ev.PaymentKey, ev.Method, approvedAt)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			// Out-of-order delivery against a terminal payment; the
			// state machine already settled, nothing to redo.
			u.log.Warn().Str("order_id", ev.OrderID).Msg("confirmed event for terminal payment, skipping")
			return nil
		}
		return err
	}

	return u.notifications.Notify(ctx, out.Payment.ID, out.Payment.UserID,
		NotifyPaymentConfirmed, "결제가 완료되었습니다.")
}

type canceledPayload struct {
	OrderID    string     `json:"orderId"`
	CanceledAt *time.Time `json:"canceledAt"`
	Reason     string     `json:"cancelReason"`
}

func (u *webhookUC) handleCanceled(ctx context.Context, data json.RawMessage) error {
	var ev canceledPayload
	if err := json.Unmarshal(data, &ev); err != nil || ev.OrderID == "" {
		return fmt.Errorf("malformed PAYMENT_CANCELED payload: %w", orArgErr(err))
	}

	p, err := u.payments.FindByOrderID(ctx, repository.NoTX, ev.OrderID)
	if err != nil {
		return err
	}

	canceledAt := time.Now()
	if ev.CanceledAt != nil {
		canceledAt = *ev.CanceledAt
	}
	updated, err := u.payments.MarkCanceled(ctx, repository.NoTX, p.ID, canceledAt, ev.Reason)
	if err != nil {
		return err
	}
	if !updated && p.Status != model.PaymentStatusCanceled {
		u.log.Warn().Str("order_id", ev.OrderID).Str("status", string(p.Status)).Msg("canceled event for non-done payment, revoking only")
	}
	if updated {
		metrics.IncPayment("canceled")
	}

	// Revoke regardless: a redelivered cancel or one racing the confirm
	// must still leave the entitlement inactive. Zero rows is fine.
	if _, err := u.entitlements.RevokeContentAccess(ctx, p.ID, ev.Reason); err != nil {
		return err
	}

	return u.notifications.Notify(ctx, p.ID, p.UserID,
		NotifyPaymentCanceled, "결제가 취소되었습니다.")
}

type failedPayload struct {
	OrderID string `json:"orderId"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (u *webhookUC) handleFailed(ctx context.Context, data json.RawMessage) error {
	var ev failedPayload
	if err := json.Unmarshal(data, &ev); err != nil || ev.OrderID == "" {
		return fmt.Errorf("malformed PAYMENT_FAILED payload: %w", orArgErr(err))
	}

	p, err := u.payments.FindByOrderID(ctx, repository.NoTX, ev.OrderID)
	if err != nil {
		return err
	}
	updated, err := u.payments.MarkFailed(ctx, repository.NoTX, p.ID, ev.Code, ev.Message)
	if err != nil {
		return err
	}
	if updated {
		metrics.IncPayment("failed")
	}

	return u.notifications.Notify(ctx, p.ID, p.UserID,
		NotifyPaymentFailed, "결제에 실패했습니다: "+ev.Message)
}

type virtualAccountPayload struct {
	OrderID        string `json:"orderId"`
	VirtualAccount struct {
		AccountNumber string     `json:"accountNumber"`
		BankCode      string     `json:"bankCode"`
		DueDate       *time.Time `json:"dueDate"`
	} `json:"virtualAccount"`
}

func (u *webhookUC) handleVirtualAccountIssued(ctx context.Context, data json.RawMessage) error {
	var ev virtualAccountPayload
	if err := json.Unmarshal(data, &ev); err != nil || ev.OrderID == "" || ev.VirtualAccount.AccountNumber == "" {
		return fmt.Errorf("malformed VIRTUAL_ACCOUNT_ISSUED payload: %w", orArgErr(err))
	}

	p, err := u.payments.FindByOrderID(ctx, repository.NoTX, ev.OrderID)
	if err != nil {
		return err
	}

	info := map[string]interface{}{
		"va_account_number": ev.VirtualAccount.AccountNumber,
		"va_bank_code":      ev.VirtualAccount.BankCode,
	}
	if ev.VirtualAccount.DueDate != nil {
		info["va_due_date"] = ev.VirtualAccount.DueDate.Format(time.RFC3339)
	}
	// The payment stays ready; no entitlement until the deposit lands.
	if err := u.payments.AttachDepositInfo(ctx, repository.NoTX, p.ID, info); err != nil {
		return err
	}

	msg := fmt.Sprintf("입금 계좌가 발급되었습니다: %s (%s)", ev.VirtualAccount.AccountNumber, ev.VirtualAccount.BankCode)
	return u.notifications.Notify(ctx, p.ID, p.UserID, NotifyDepositRequested, msg)
}

type depositPayload struct {
	OrderID    string     `json:"orderId"`
	PaymentKey string     `json:"paymentKey"`
	ApprovedAt *time.Time `json:"approvedAt"`
}

func (u *webhookUC) handleVirtualAccountDeposit(ctx context.Context, data json.RawMessage) error {
	var ev depositPayload
	if err := json.Unmarshal(data, &ev); err != nil || ev.OrderID == "" {
		return fmt.Errorf("malformed VIRTUAL_ACCOUNT_DEPOSIT payload: %w", orArgErr(err))
	}

	approvedAt := time.Now()
	if ev.ApprovedAt != nil {
		approvedAt = *ev.ApprovedAt
	}
	out, err := u.paymentUC.Finalize(ctx, ev.OrderID, ev.PaymentKey, "VIRTUAL_ACCOUNT", approvedAt)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			u.log.Warn().Str("order_id", ev.OrderID).Msg("deposit event for terminal payment, skipping")
			return nil
		}
		return err
	}

	return u.notifications.Notify(ctx, out.Payment.ID, out.Payment.UserID,
		NotifyDepositReceived, "입금이 확인되어 결제가 완료되었습니다.")
}

func orArgErr(err error) error {
	if err != nil {
		return err
	}
	return domain.ErrInvalidArgument
}
