package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// WebhookDeduper suppresses redelivered gateway events with a SETNX
// marker keyed by a digest of the raw event body. It is best-effort
// only: a Redis failure lets the event through, because every event
// handler is idempotent on its own.
type WebhookDeduper struct {
	cli RedisClient
	ttl time.Duration
}

func NewWebhookDeduper(cli RedisClient, ttl time.Duration) *WebhookDeduper {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &WebhookDeduper{cli: cli, ttl: ttl}
}

// FirstDelivery reports whether this event body has not been seen within
// the dedup window. Errors resolve to true (process the event).
func (d *WebhookDeduper) FirstDelivery(ctx context.Context, body []byte) bool {
	if d == nil || d.cli == nil {
		return true
	}
	sum := sha256.Sum256(body)
	key := "webhook:seen:" + hex.EncodeToString(sum[:])
	ok, err := d.cli.SetNX(ctx, key, 1, d.ttl)
	if err != nil {
		return true
	}
	return ok
}
