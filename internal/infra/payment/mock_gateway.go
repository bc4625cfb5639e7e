package payment

import (
	"context"
	"time"

	"saju-content-payments/internal/domain/ports/adapter"
)

// MockGateway approves everything without calling Toss. Only wired in
// dev mode with the allow_mock flag set; production never constructs it.
type MockGateway struct{}

func NewMockGateway() *MockGateway { return &MockGateway{} }

func (g *MockGateway) Name() string { return "mock" }

func (g *MockGateway) Confirm(ctx context.Context, paymentKey, orderID string, amount int64) (*adapter.ConfirmResult, error) {
	now := time.Now()
	return &adapter.ConfirmResult{
		PaymentKey: paymentKey,
		OrderID:    orderID,
		Status:     "DONE",
		Method:     "MOCK",
		Amount:     amount,
		ApprovedAt: &now,
	}, nil
}

func (g *MockGateway) Cancel(ctx context.Context, paymentKey, reason string) (*adapter.ConfirmResult, error) {
	now := time.Now()
	return &adapter.ConfirmResult{
		PaymentKey: paymentKey,
		Status:     "CANCELED",
		Method:     "MOCK",
		ApprovedAt: &now,
	}, nil
}

func (g *MockGateway) GetByOrderID(ctx context.Context, orderID string) (*adapter.ConfirmResult, error) {
	now := time.Now()
	return &adapter.ConfirmResult{
		OrderID:    orderID,
		Status:     "DONE",
		Method:     "MOCK",
		ApprovedAt: &now,
	}, nil
}
