package xredis

import (
	"context"
	"errors"
	"time"

	"github.com/questx-lab/reputation/config"
	"github.com/redis/go-redis/v9"
)

const replaceBatchSize = 1000

// Client is the subset of redis used to cache sorted rankings. Members with
// equal scores are ordered by member descending in the reverse calls.
type Client interface {
	Exists(ctx context.Context, key string) (bool, error)
	Del(ctx context.Context, keys ...string) error

	// ReplaceSortedSet swaps the content of key in a single transaction,
	// readers never see a partially loaded set. Empty members deletes key.
	ReplaceSortedSet(ctx context.Context, key string, members []redis.Z) error

	// ZAddIfExists sets the score of member only when key is already cached,
	// it reports whether the score was written.
	ZAddIfExists(ctx context.Context, key, member string, score float64) (bool, error)

	ZRevRangeWithScores(ctx context.Context, key string, offset, limit int) ([]redis.Z, error)
	// ZRevRank returns redis.Nil if member is not in the set.
	ZRevRank(ctx context.Context, key, member string) (uint64, error)
	ZCard(ctx context.Context, key string) (uint64, error)
}

var zaddIfExistsScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
	redis.call("ZADD", KEYS[1], ARGV[1], ARGV[2])
	return 1
end
return 0
`)

type client struct {
	redisClient *redis.Client
}

func NewClient(ctx context.Context, cfg config.RedisConfigs) (*client, error) {
	redisClient := redis.NewClient(&redis.Options{
		Addr:            cfg.Addr,
		Password:        cfg.Password,
		DB:              cfg.DB,
		MaxRetries:      3,
		MinRetryBackoff: 8 * time.Millisecond,
		MaxRetryBackoff: 512 * time.Millisecond,
		DialTimeout:     2 * time.Second,
		ReadTimeout:     time.Second,
		WriteTimeout:    time.Second,
		PoolSize:        10,
	})

	if err := redisClient.Ping(ctx).Err(); err != nil {
		_ = redisClient.Close()
		return nil, err
	}

	return &client{redisClient: redisClient}, nil
}

func (c *client) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.redisClient.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}

	return n == 1, nil
}

func (c *client) Del(ctx context.Context, keys ...string) error {
	err := c.redisClient.Del(ctx, keys...).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}

	return err
}

func (c *client) ReplaceSortedSet(ctx context.Context, key string, members []redis.Z) error {
	_, err := c.redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		for start := 0; start < len(members); start += replaceBatchSize {
			end := start + replaceBatchSize
			if end > len(members) {
				end = len(members)
			}

			pipe.ZAdd(ctx, key, members[start:end]...)
		}

		return nil
	})

	return err
}

func (c *client) ZAddIfExists(ctx context.Context, key, member string, score float64) (bool, error) {
	n, err := zaddIfExistsScript.Run(ctx, c.redisClient, []string{key}, score, member).Int()
	if err != nil {
		return false, err
	}

	return n == 1, nil
}

func (c *client) ZRevRangeWithScores(ctx context.Context, key string, offset, limit int) ([]redis.Z, error) {
	return c.redisClient.ZRevRangeWithScores(ctx, key, int64(offset), int64(offset+limit-1)).Result()
}

func (c *client) ZRevRank(ctx context.Context, key, member string) (uint64, error) {
	return c.redisClient.ZRevRank(ctx, key, member).Uint64()
}

func (c *client) ZCard(ctx context.Context, key string) (uint64, error) {
	return c.redisClient.ZCard(ctx, key).Uint64()
}
