package repository

import (
	"context"

	"saju-content-payments/internal/domain/model"
)

type ProductRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Product) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Product, error)
	FindBySlug(ctx context.Context, tx Tx, slug string) (*model.Product, error)
	ListActive(ctx context.Context, tx Tx) ([]*model.Product, error)
}
