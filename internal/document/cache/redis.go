// Package cache keeps approval stats in Redis so the stats endpoints do not
// aggregate the approvals table on every request.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/docflow/review-service/internal/document"
	"github.com/redis/go-redis/v9"
)

const allApprovers = "_all"

// RedisStatsCache stores document.Stats as JSON under
// "<prefix><approverID>:v<generation>" with a fixed TTL. The generation lives
// under "<prefix><approverID>:gen" and is bumped by Invalidate, so a fill that
// read an older generation can never shadow a newer invalidation. The
// all-approvers aggregate uses "_all" as its approver id.
type RedisStatsCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStatsCache creates the cache. Prefix may be empty.
func NewRedisStatsCache(client *redis.Client, prefix string, ttl time.Duration) *RedisStatsCache {
	if prefix == "" {
		prefix = "review:stats:"
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RedisStatsCache{client: client, prefix: prefix, ttl: ttl}
}

func (r *RedisStatsCache) base(approverID string) string {
	if approverID == "" {
		return r.prefix + allApprovers
	}
	return r.prefix + approverID
}

func (r *RedisStatsCache) genKey(approverID string) string {
	return r.base(approverID) + ":gen"
}

func (r *RedisStatsCache) entryKey(approverID string, gen int64) string {
	return r.base(approverID) + ":v" + strconv.FormatInt(gen, 10)
}

// Get returns the cached entry for the current generation. On a miss the
// returned generation must be handed back to Set.
func (r *RedisStatsCache) Get(ctx context.Context, approverID string) (document.Stats, int64, bool, error) {
	var s document.Stats
	gen, err := r.client.Get(ctx, r.genKey(approverID)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return s, 0, false, err
	}
	key := r.entryKey(approverID, gen)
	b, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return s, gen, false, nil
		}
		return s, gen, false, err
	}
	if err := json.Unmarshal(b, &s); err != nil {
		// corrupt entry, drop it and recompute
		_ = r.client.Del(ctx, key).Err()
		return document.Stats{}, gen, false, nil
	}
	return s, gen, true, nil
}

// Set stores s under the generation observed by the Get that missed.
func (r *RedisStatsCache) Set(ctx context.Context, approverID string, gen int64, s document.Stats) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.entryKey(approverID, gen), b, r.ttl).Err()
}

// Invalidate bumps the generation of the approver's entry and of the
// all-approvers entry. Entries of older generations expire with their TTL.
func (r *RedisStatsCache) Invalidate(ctx context.Context, approverID string) error {
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, r.genKey(""))
		if approverID != "" {
			p.Incr(ctx, r.genKey(approverID))
		}
		return nil
	})
	return err
}
