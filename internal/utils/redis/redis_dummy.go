package redis

import (
	"context"
	"time"
)

type dummy struct {
	Redis
}

// Dummy is used when redis is disabled: nothing is cached and every lock is granted.
func Dummy() Redis {
	return &dummy{}
}

func (d *dummy) Set(ctx context.Context, key string, value any, expireTime time.Duration) (bool, error) {
	return false, nil
}

func (d *dummy) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, nil
}

func (d *dummy) Delete(ctx context.Context, key string) (bool, error) {
	return false, nil
}

func (d *dummy) Lock(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	return true, nil
}

func (d *dummy) Unlock(ctx context.Context, key, token string) (bool, error) {
	return true, nil
}
