package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyFormat   = "idem:order:create:%s"
	placeholder = "-"
)

type Redis struct{ rdb *redis.Client }

func NewRedisClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

func NewRedis(rdb *redis.Client) *Redis { return &Redis{rdb: rdb} }

func (r *Redis) Claim(ctx context.Context, key string) (string, bool, error) {
	k := fmt.Sprintf(keyFormat, key)
	ok, err := r.rdb.SetNX(ctx, k, placeholder, TTL).Result()
	if err != nil {
		return "", false, err
	}
	if ok {
		return "", true, nil
	}
	v, err := r.rdb.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		// expired between SETNX and GET; try once more
		ok, err = r.rdb.SetNX(ctx, k, placeholder, TTL).Result()
		if err != nil {
			return "", false, err
		}
		if ok {
			return "", true, nil
		}
		return "", false, ErrInFlight
	}
	if err != nil {
		return "", false, err
	}
	if v == placeholder {
		return "", false, ErrInFlight
	}
	return v, false, nil
}

func (r *Redis) Complete(ctx context.Context, key, value string) error {
	return r.rdb.Set(ctx, fmt.Sprintf(keyFormat, key), value, TTL).Err()
}

func (r *Redis) Release(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, fmt.Sprintf(keyFormat, key)).Err()
}
