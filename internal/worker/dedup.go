package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyApplied = "dedup:%s:%s"
	ttlApplied = 24 * time.Hour
)

// RedisDeduper records applied event ids in Redis with a TTL.
type RedisDeduper struct {
	rdb     *redis.Client
	service string
}

func NewRedisDeduper(rdb *redis.Client, service string) *RedisDeduper {
	return &RedisDeduper{rdb: rdb, service: service}
}

func (d *RedisDeduper) key(eventID string) string {
	return fmt.Sprintf(keyApplied, d.service, eventID)
}

func (d *RedisDeduper) Seen(ctx context.Context, eventID string) (bool, error) {
	n, err := d.rdb.Exists(ctx, d.key(eventID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (d *RedisDeduper) Mark(ctx context.Context, eventID string) error {
	return d.rdb.SetNX(ctx, d.key(eventID), "1", ttlApplied).Err()
}
