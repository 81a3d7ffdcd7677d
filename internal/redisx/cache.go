// Package redisx holds the optional redis client and the key/TTL
// conventions. Every helper is a no-op when the client is nil, so the app
// runs without redis.
package redisx

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Dedup for payment verification callbacks: dedup:payment:{tx_ref} -> order_id
	keyPaymentDedup = "dedup:payment:%s"

	// Cache of order status: order_status:{order_id} -> status
	keyOrderStatus = "order_status:%s"
)

var (
	TTLPaymentDedup = 48 * time.Hour
	TTLOrderStatus  = 5 * time.Minute
)

// New returns nil when addr is empty, which disables caching entirely.
func New(addr string) *redis.Client {
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{Addr: addr})
}

// MarkPaymentSeen records a verified tx_ref and reports whether it was
// already recorded. Errors degrade to "not seen": a redis outage must never
// block payment verification.
func MarkPaymentSeen(ctx context.Context, rdb *redis.Client, txRef, orderID string) bool {
	if rdb == nil {
		return false
	}
	ok, err := rdb.SetNX(ctx, fmt.Sprintf(keyPaymentDedup, txRef), orderID, TTLPaymentDedup).Result()
	if err != nil {
		return false
	}
	return !ok
}

// GetOrderStatus returns the cached status, or "" on a miss or when redis
// is disabled. Callers fall back to the database on "".
func GetOrderStatus(ctx context.Context, rdb *redis.Client, orderID string) string {
	if rdb == nil {
		return ""
	}
	v, err := rdb.Get(ctx, fmt.Sprintf(keyOrderStatus, orderID)).Result()
	if err != nil {
		return ""
	}
	return v
}

func CacheOrderStatus(ctx context.Context, rdb *redis.Client, orderID, status string) {
	if rdb == nil {
		return
	}
	_ = rdb.Set(ctx, fmt.Sprintf(keyOrderStatus, orderID), status, TTLOrderStatus).Err()
}

func DropOrderStatus(ctx context.Context, rdb *redis.Client, orderID string) {
	if rdb == nil {
		return
	}
	_ = rdb.Del(ctx, fmt.Sprintf(keyOrderStatus, orderID)).Err()
}
