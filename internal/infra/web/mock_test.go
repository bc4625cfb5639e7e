//go:build !integration

package web

import (
	"context"
	"io"
	"time"

	"github.com/rs/zerolog"

	"saju-content-payments/internal/domain/model"
	"saju-content-payments/internal/usecase"
)

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// --- Mock use cases ---

type mockPaymentUC struct {
	CheckoutFunc     func(ctx context.Context, userID *string, productSlug string, meta map[string]interface{}) (*model.Payment, error)
	ConfirmFunc      func(ctx context.Context, paymentKey, orderID string, amount int64) (*usecase.ConfirmOutcome, error)
	FinalizeFunc     func(ctx context.Context, orderID, paymentKey, method string, approvedAt time.Time) (*usecase.ConfirmOutcome, error)
	CancelFunc       func(ctx context.Context, orderID, reason string) (*model.Payment, error)
	GetByOrderIDFunc func(ctx context.Context, orderID string) (*model.Payment, error)
}

var _ usecase.PaymentUseCase = (*mockPaymentUC)(nil)

func (m *mockPaymentUC) Checkout(ctx context.Context, userID *string, productSlug string, meta map[string]interface{}) (*model.Payment, error) {
	return m.CheckoutFunc(ctx, userID, productSlug, meta)
}

func (m *mockPaymentUC) Confirm(ctx context.Context, paymentKey, orderID string, amount int64) (*usecase.ConfirmOutcome, error) {
	return m.ConfirmFunc(ctx, paymentKey, orderID, amount)
}

func (m *mockPaymentUC) Finalize(ctx context.Context, orderID, paymentKey, method string, approvedAt time.Time) (*usecase.ConfirmOutcome, error) {
	return m.FinalizeFunc(ctx, orderID, paymentKey, method, approvedAt)
}

func (m *mockPaymentUC) Cancel(ctx context.Context, orderID, reason string) (*model.Payment, error) {
	return m.CancelFunc(ctx, orderID, reason)
}

func (m *mockPaymentUC) GetByOrderID(ctx context.Context, orderID string) (*model.Payment, error) {
	return m.GetByOrderIDFunc(ctx, orderID)
}

type mockWebhookUC struct {
	Handled     []usecase.WebhookEnvelope
	HandleError error
}

var _ usecase.WebhookUseCase = (*mockWebhookUC)(nil)

func (m *mockWebhookUC) HandleEvent(ctx context.Context, env usecase.WebhookEnvelope) error {
	m.Handled = append(m.Handled, env)
	return m.HandleError
}

type mockEntitlementUC struct {
	usecase.EntitlementUseCase // embed for forward compatibility

	CheckFunc func(ctx context.Context, userID, contentSlug string) (*usecase.AccessStatus, error)
}

func (m *mockEntitlementUC) CheckContentAccess(ctx context.Context, userID, contentSlug string) (*usecase.AccessStatus, error) {
	return m.CheckFunc(ctx, userID, contentSlug)
}
