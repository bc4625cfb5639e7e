package model

import (
	"time"

	"saju-content-payments/internal/domain"
)

// Product is a purchasable piece of fortune content with a fixed price
// and an optional access duration.
type Product struct {
	ID         string // UUID
	Slug       string // URL-safe content key, unique
	Name       string
	Price      int64 // KRW
	AccessDays int   // 0 means permanent access
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (p *Product) IsZero() bool { return p == nil || p.ID == "" }

// NewProduct validates and constructs a product.
func NewProduct(id, slug, name string, price int64, accessDays int) (*Product, error) {
	if id == "" || slug == "" || name == "" || price <= 0 || accessDays < 0 {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Product{
		ID:         id,
		Slug:       slug,
		Name:       name,
		Price:      price,
		AccessDays: accessDays,
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}
