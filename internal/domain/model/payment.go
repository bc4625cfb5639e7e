package model

import (
	"time"

	"saju-content-payments/internal/domain"
)

type PaymentStatus string

const (
	PaymentStatusReady    PaymentStatus = "ready"    // checkout created; awaiting confirmation or a virtual-account deposit
	PaymentStatusDone     PaymentStatus = "done"     // approved by the gateway
	PaymentStatusFailed   PaymentStatus = "failed"   // gateway rejected confirmation
	PaymentStatusCanceled PaymentStatus = "canceled" // refunded/canceled after approval
)

// CanTransition reports whether moving from s to next is allowed.
// Transitions are monotonic: a terminal state never returns to ready.
// ready -> ready is permitted so a virtual-account issue can attach
// deposit metadata without advancing the state machine.
func (s PaymentStatus) CanTransition(next PaymentStatus) bool {
	switch s {
	case PaymentStatusReady:
		return next == PaymentStatusReady || next == PaymentStatusDone || next == PaymentStatusFailed
	case PaymentStatusDone:
		return next == PaymentStatusCanceled
	default:
		return false
	}
}

// Payment records one checkout attempt against the external gateway.
// Amount is immutable after creation and is the source of truth that
// client-reported amounts are checked against.
type Payment struct {
	ID          string // UUID
	OrderID     string // client-visible order id, unique (ULID)
	PaymentKey  string // gateway key, set only after confirmation
	Amount      int64  // KRW, stored as an integer to avoid float errors
	Status      PaymentStatus
	Method      string     // e.g. "CARD", "VIRTUAL_ACCOUNT", "MOCK"
	UserID      *string    // nil for anonymous checkout
	ProductID   string     // UUID of the purchased content product
	ContentSlug string     // content key carried into the entitlement
	ApprovedAt  *time.Time // set when done
	CanceledAt  *time.Time // set when canceled
	FailureCode *string
	FailureMsg  *string
	Meta        map[string]interface{} // optional extra metadata (JSONB in DB)
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewPayment validates and constructs a ready payment for a product checkout.
func NewPayment(id, orderID string, product *Product, userID *string, meta map[string]interface{}) (*Payment, error) {
	if id == "" || orderID == "" || product == nil || product.ID == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Payment{
		ID:          id,
		OrderID:     orderID,
		Amount:      product.Price,
		Status:      PaymentStatusReady,
		UserID:      userID,
		ProductID:   product.ID,
		ContentSlug: product.Slug,
		Meta:        meta,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}
