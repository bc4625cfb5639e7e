package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"saju-content-payments/internal/config"
	pg "saju-content-payments/internal/infra/db/postgres"
)

// Applies the schema and seeds the product catalog. Safe to run repeatedly.
const schema = `
CREATE TABLE IF NOT EXISTS products (
    id           TEXT PRIMARY KEY,
    slug         TEXT NOT NULL UNIQUE,
    name         TEXT NOT NULL,
    price        BIGINT NOT NULL,
    access_days  INT NOT NULL DEFAULT 0,
    active       BOOLEAN NOT NULL DEFAULT TRUE,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS payments (
    id           TEXT PRIMARY KEY,
    order_id     TEXT NOT NULL UNIQUE,
    payment_key  TEXT,
    amount       BIGINT NOT NULL,
    status       TEXT NOT NULL DEFAULT 'ready',
    method       TEXT,
    user_id      TEXT,
    product_id   TEXT NOT NULL REFERENCES products(id),
    content_slug TEXT NOT NULL,
    approved_at  TIMESTAMPTZ,
    canceled_at  TIMESTAMPTZ,
    failure_code    TEXT,
    failure_message TEXT,
    meta         JSONB NOT NULL DEFAULT '{}'::jsonb,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_payments_status_updated ON payments (status, updated_at);

CREATE TABLE IF NOT EXISTS purchases (
    id           TEXT PRIMARY KEY,
    user_id      TEXT NOT NULL,
    payment_id   TEXT NOT NULL REFERENCES payments(id),
    product_id   TEXT NOT NULL REFERENCES products(id),
    content_slug   TEXT NOT NULL,
    access_granted TIMESTAMPTZ NOT NULL DEFAULT now(),
    access_expires TIMESTAMPTZ,
    is_active      BOOLEAN NOT NULL DEFAULT TRUE,
    meta           JSONB NOT NULL DEFAULT '{}'::jsonb,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
    CONSTRAINT uq_purchases_user_payment UNIQUE (user_id, payment_id)
);
CREATE INDEX IF NOT EXISTS idx_purchases_user_content ON purchases (user_id, content_slug) WHERE is_active;

CREATE TABLE IF NOT EXISTS payment_notifications (
    id         TEXT PRIMARY KEY,
    payment_id TEXT NOT NULL REFERENCES payments(id),
    user_id    TEXT,
    kind       TEXT NOT NULL,
    message    TEXT NOT NULL,
    sent_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
    CONSTRAINT uq_payment_notifications_kind UNIQUE (payment_id, kind)
);
`

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, schema); err != nil {
		log.Fatalf("apply schema: %v", err)
	}
	fmt.Println("schema applied")

	// Sample catalog for the Saju content storefront. access_days=0 marks
	// a permanent purchase.
	seed := []struct {
		Slug       string
		Name       string
		Price      int64
		AccessDays int
	}{
		{"saju-basic", "기본 사주 풀이", 9_900, 0},
		{"saju-deep", "심층 사주 분석", 29_000, 0},
		{"monthly-unse", "이달의 운세", 4_900, 31},
		{"couple-gunghap", "커플 궁합 리포트", 19_000, 0},
	}

	for _, s := range seed {
		tag, err := pool.Exec(ctx, `
			INSERT INTO products (id, slug, name, price, access_days)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (slug) DO NOTHING`,
			uuid.NewString(), s.Slug, s.Name, s.Price, s.AccessDays)
		if err != nil {
			log.Fatalf("seed product %q: %v", s.Slug, err)
		}
		if tag.RowsAffected() > 0 {
			fmt.Printf("seeded: %s (%s, %d KRW)\n", s.Slug, s.Name, s.Price)
		} else {
			fmt.Printf("exists: %s\n", s.Slug)
		}
	}

	fmt.Println("✅ Seeding complete.")
}
