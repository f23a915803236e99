package redis

import (
	"context"
	"encoding/json"
	"time"

	re "github.com/redis/go-redis/v9"
)

type Redis interface {
	Set(ctx context.Context, key string, value any, expireTime time.Duration) (bool, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) (bool, error)
	// Lock sets key to token only if it is absent.
	Lock(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	// Unlock deletes key only while it still holds token.
	Unlock(ctx context.Context, key, token string) (bool, error)
}

// Keys are namespaced by the client hook installed in pkg/redis.
type redis struct {
	redis *re.Client
}

var unlockScript = re.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`)

func New(client *re.Client) Redis {
	if client == nil {
		return Dummy()
	}
	return &redis{redis: client}
}

func (r *redis) Set(ctx context.Context, key string, value any, expireTime time.Duration) (bool, error) {
	jsonData, err := json.Marshal(value)
	if err != nil {
		return false, err
	}
	if err := r.redis.Set(ctx, key, jsonData, expireTime).Err(); err != nil {
		return false, err
	}
	return true, nil
}

func (r *redis) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.redis.Get(ctx, key).Bytes()
	if err == re.Nil {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return val, nil
}

func (r *redis) Delete(ctx context.Context, key string) (bool, error) {
	result, err := r.redis.Del(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return result > 0, nil
}

func (r *redis) Lock(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	return r.redis.SetNX(ctx, key, token, ttl).Result()
}

func (r *redis) Unlock(ctx context.Context, key, token string) (bool, error) {
	n, err := unlockScript.Run(ctx, r.redis, []string{key}, token).Int64()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
