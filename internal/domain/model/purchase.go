package model

import (
	"time"

	"saju-content-payments/internal/domain"
)

// Purchase is a grant of content access tied to exactly one payment and
// one user. At most one row exists per (UserID, PaymentID); the database
// enforces that with a unique index, which is what makes repeated grant
// calls from the confirm and webhook paths safe.
type Purchase struct {
	ID            string // UUID
	UserID        string // UUID
	PaymentID     string // UUID -> Payment
	ProductID     string // UUID -> Product
	ContentSlug   string
	AccessGranted time.Time
	AccessExpires *time.Time // nil means permanent access
	IsActive      bool
	Meta          map[string]interface{}
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewPurchase constructs an active purchase. accessDays <= 0 means the
// grant never expires.
func NewPurchase(id, userID, paymentID, productID, contentSlug string, accessDays int) (*Purchase, error) {
	if id == "" || userID == "" || paymentID == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	var expires *time.Time
	if accessDays > 0 {
		e := now.Add(time.Duration(accessDays) * 24 * time.Hour)
		expires = &e
	}
	return &Purchase{
		ID:            id,
		UserID:        userID,
		PaymentID:     paymentID,
		ProductID:     productID,
		ContentSlug:   contentSlug,
		AccessGranted: now,
		AccessExpires: expires,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// HasValidAccess reports whether the purchase currently grants access.
func (p *Purchase) HasValidAccess(now time.Time) bool {
	if p == nil || !p.IsActive {
		return false
	}
	return p.AccessExpires == nil || p.AccessExpires.After(now)
}
