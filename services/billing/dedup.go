package billing

import (
	"context"
	"time"

	"license-sync/pkg/rediskey"

	"github.com/redis/go-redis/v9"
)

// Providers redeliver webhooks; remembering event IDs for a day keeps
// replays from re-resolving customers. Reconciliation itself is idempotent,
// so losing a dedup entry is harmless.
const eventMemory = 24 * time.Hour

// Deduper remembers which event IDs were fully reconciled. Seen only reads;
// Mark is called once reconciliation committed. Keeping the two apart means
// a delivery that fails on storage never poisons its own retry.
type Deduper interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Mark(ctx context.Context, eventID string) error
}

type redisDeduper struct {
	rdb *redis.Client
}

func NewRedisDeduper(rdb *redis.Client) Deduper {
	return &redisDeduper{rdb: rdb}
}

func (d *redisDeduper) Seen(ctx context.Context, eventID string) (bool, error) {
	if eventID == "" {
		return false, nil
	}

	n, err := d.rdb.Exists(ctx, rediskey.BuildBillingEventKey(eventID)).Result()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

func (d *redisDeduper) Mark(ctx context.Context, eventID string) error {
	if eventID == "" {
		return nil
	}

	return d.rdb.SetNX(ctx, rediskey.BuildBillingEventKey(eventID), 1, eventMemory).Err()
}
