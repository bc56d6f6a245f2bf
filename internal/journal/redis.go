package journal

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/atmx/clicker-engine/internal/model"
)

// DefaultCacheSize is the number of recent entries kept in Redis.
const DefaultCacheSize = 200

// CachedJournal wraps a primary Journal with a Redis list of the most recent
// entries. Writes go to the primary first and the list is then refreshed
// from it; reads within the cached window are served from Redis and fall back
// to the primary when the list is short, missing or unreadable.
type CachedJournal struct {
	primary Journal
	rdb     *redis.Client
	key     string
	size    int64
}

// NewCachedJournal creates a cached wrapper around primary. A size <= 0
// means DefaultCacheSize.
func NewCachedJournal(primary Journal, rdb *redis.Client, key string, size int64) *CachedJournal {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if key == "" {
		key = "clicker:ledger:recent"
	}
	return &CachedJournal{primary: primary, rdb: rdb, key: key, size: size}
}

func (j *CachedJournal) Append(ctx context.Context, entries ...model.Transaction) error {
	if err := j.primary.Append(ctx, entries...); err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	// The primary drops duplicate ids, so the window is rebuilt from it
	// rather than pushed incrementally.
	recent, err := j.primary.Recent(ctx, int(j.size))
	if err != nil {
		j.invalidate(ctx, err)
		return nil
	}
	values := make([]any, 0, len(recent))
	for _, e := range recent {
		data, err := json.Marshal(e)
		if err != nil {
			j.invalidate(ctx, err)
			return nil
		}
		values = append(values, data)
	}

	pipe := j.rdb.TxPipeline()
	pipe.Del(ctx, j.key)
	if len(values) > 0 {
		pipe.RPush(ctx, j.key, values...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		j.invalidate(ctx, err)
	}
	return nil
}

// invalidate drops the cached window so reads go to the primary.
func (j *CachedJournal) invalidate(ctx context.Context, cause error) {
	slog.Warn("journal cache update failed", "key", j.key, "error", cause)
	j.rdb.Del(ctx, j.key)
}

func (j *CachedJournal) Recent(ctx context.Context, limit int) ([]model.Transaction, error) {
	if limit <= 0 || int64(limit) > j.size {
		return j.primary.Recent(ctx, limit)
	}

	raw, err := j.rdb.LRange(ctx, j.key, 0, int64(limit)-1).Result()
	if err == nil && len(raw) == limit {
		out := make([]model.Transaction, 0, len(raw))
		for _, s := range raw {
			var e model.Transaction
			if json.Unmarshal([]byte(s), &e) != nil {
				return j.primary.Recent(ctx, limit)
			}
			out = append(out, e)
		}
		return out, nil
	}

	return j.primary.Recent(ctx, limit)
}
