package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"saju-content-payments/internal/domain"
	"saju-content-payments/internal/domain/model"
	"saju-content-payments/internal/domain/ports/repository"
)

var _ repository.ProductRepository = (*productRepo)(nil)

type productRepo struct{ pool *pgxpool.Pool }

func NewProductRepo(pool *pgxpool.Pool) *productRepo {
	return &productRepo{pool: pool}
}

const productColumns = `id, slug, name, price, access_days, active, created_at, updated_at`

func scanProduct(row pgx.Row) (*model.Product, error) {
	p := &model.Product{}
	if err := row.Scan(&p.ID, &p.Slug, &p.Name, &p.Price, &p.AccessDays, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}

func (r *productRepo) Save(ctx context.Context, tx repository.Tx, p *model.Product) error {
	const q = `
INSERT INTO products (id, slug, name, price, access_days, active, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO UPDATE SET
  slug=$2, name=$3, price=$4, access_days=$5, active=$6, updated_at=$8;`
	_, err := execSQL(ctx, r.pool, tx, q, p.ID, p.Slug, p.Name, p.Price, p.AccessDays, p.Active, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *productRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Product, error) {
	const q = `SELECT ` + productColumns + ` FROM products WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanProduct(row)
}

func (r *productRepo) FindBySlug(ctx context.Context, tx repository.Tx, slug string) (*model.Product, error) {
	const q = `SELECT ` + productColumns + ` FROM products WHERE slug=$1 LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, slug)
	if err != nil {
		return nil, err
	}
	return scanProduct(row)
}

func (r *productRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.Product, error) {
	const q = `SELECT ` + productColumns + ` FROM products WHERE active=TRUE ORDER BY name;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()

	var out []*model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
