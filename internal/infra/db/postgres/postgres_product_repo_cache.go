package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"saju-content-payments/internal/domain/model"
	"saju-content-payments/internal/domain/ports/repository"
	"saju-content-payments/internal/infra/metrics"
	red "saju-content-payments/internal/infra/redis"
)

var _ repository.ProductRepository = (*productRepoCacheDecorator)(nil)

// productRepoCacheDecorator caches product reads in Redis. Products are
// priced at checkout time only, so a short TTL of staleness is fine.
type productRepoCacheDecorator struct {
	inner repository.ProductRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewProductRepoCacheDecorator(inner repository.ProductRepository, cache red.RedisClient, ttl time.Duration) repository.ProductRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &productRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl}
}

func (d *productRepoCacheDecorator) FindBySlug(ctx context.Context, tx repository.Tx, slug string) (*model.Product, error) {
	key := fmt.Sprintf("product:slug:%s", slug)
	if val, err := d.cache.Get(ctx, key); err == nil {
		var p model.Product
		if json.Unmarshal([]byte(val), &p) == nil {
			metrics.IncCacheRequest("product", "hit")
			return &p, nil
		}
	}
	metrics.IncCacheRequest("product", "miss")

	p, err := d.inner.FindBySlug(ctx, tx, slug)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(p); err == nil {
		_ = d.cache.Set(ctx, key, b, d.ttl)
	}
	return p, nil
}

func (d *productRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Product, error) {
	key := fmt.Sprintf("product:id:%s", id)
	if val, err := d.cache.Get(ctx, key); err == nil {
		var p model.Product
		if json.Unmarshal([]byte(val), &p) == nil {
			metrics.IncCacheRequest("product", "hit")
			return &p, nil
		}
	}
	metrics.IncCacheRequest("product", "miss")

	p, err := d.inner.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(p); err == nil {
		_ = d.cache.Set(ctx, key, b, d.ttl)
	}
	return p, nil
}

// Writes invalidate both keys for the product.
func (d *productRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, p *model.Product) error {
	if err := d.inner.Save(ctx, tx, p); err != nil {
		return err
	}
	_ = d.cache.Del(ctx, fmt.Sprintf("product:id:%s", p.ID), fmt.Sprintf("product:slug:%s", p.Slug))
	return nil
}

// ListActive always goes to the database; the admin/seed paths that use
// it are not hot.
func (d *productRepoCacheDecorator) ListActive(ctx context.Context, tx repository.Tx) ([]*model.Product, error) {
	return d.inner.ListActive(ctx, tx)
}
