package adapter

import (
	"context"
	"fmt"
	"time"
)

// ConfirmResult is the gateway's view of an approved (or looked-up) payment.
type ConfirmResult struct {
	PaymentKey string
	OrderID    string
	Status     string // gateway status, e.g. "DONE", "CANCELED", "WAITING_FOR_DEPOSIT"
	Method     string
	Amount     int64
	ApprovedAt *time.Time
}

// GatewayError carries the provider's machine-readable rejection. The
// confirm path persists Code/Message onto the failed payment.
type GatewayError struct {
	Code    string
	Message string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway error %s: %s", e.Code, e.Message)
}

// PaymentGateway abstracts the Toss Payments HTTP API.
type PaymentGateway interface {
	Name() string
	// Confirm settles a checkout the client reports as completed.
	Confirm(ctx context.Context, paymentKey, orderID string, amount int64) (*ConfirmResult, error)
	// Cancel voids/refunds an approved payment.
	Cancel(ctx context.Context, paymentKey, reason string) (*ConfirmResult, error)
	// GetByOrderID fetches the gateway-side state of an order. Used by
	// the reconciler to finalize payments whose confirm write was lost.
	GetByOrderID(ctx context.Context, orderID string) (*ConfirmResult, error)
}
